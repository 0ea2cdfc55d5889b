package orders

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/go_storefront/internal/domain"
)

func TestSubmitOrder_Success(t *testing.T) {
	var gotKey string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/orders", r.URL.Path)
		gotKey = r.Header.Get("Idempotency-Key")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	order := domain.Order{
		Items:          []domain.LineItem{{ProductID: "p1", Quantity: 2}},
		Total:          decimal.RequireFromString("32.978"),
		IdempotencyKey: "key-123",
	}
	require.NoError(t, client.SubmitOrder(context.Background(), order))

	assert.Equal(t, "key-123", gotKey)

	var payload struct {
		Items []struct {
			ProductID string `json:"productId"`
			Quantity  int    `json:"quantity"`
		} `json:"items"`
		Total string `json:"total"`
	}
	require.NoError(t, json.Unmarshal(gotBody, &payload))
	require.Len(t, payload.Items, 1)
	assert.Equal(t, "p1", payload.Items[0].ProductID)
	assert.Equal(t, 2, payload.Items[0].Quantity)
	assert.Equal(t, "32.978", payload.Total)
}

func TestSubmitOrder_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	err := client.SubmitOrder(context.Background(), domain.Order{})

	var se *SubmissionError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadGateway, se.StatusCode)
}

func TestAppendCartItem(t *testing.T) {
	var gotAuth string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/cart", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	err := client.AppendCartItem(context.Background(), "tok", domain.LineItem{ProductID: "p1", Quantity: 3})
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok", gotAuth)
	assert.JSONEq(t, `{"productId":"p1","quantity":3}`, string(gotBody))
}
