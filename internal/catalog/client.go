// Package catalog is the HTTP client for the remote product catalog.
// Responses are decoded into explicit record types and validated at
// the boundary; a failed batch fetch returns nothing partial.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"

	"github.com/fjod/go_storefront/internal/domain"
)

const (
	defaultTimeout = 10 * time.Second
	maxRetries     = 3
)

type Client struct {
	baseURL       string
	httpClient    *http.Client
	breaker       *gobreaker.CircuitBreaker[[]domain.Product]
	sfg           singleflight.Group
	log           *logrus.Logger
	retries       uint64
	retryInterval time.Duration
}

func NewClient(baseURL string, log *logrus.Logger) *Client {
	if log == nil {
		log = logrus.New()
	}
	breaker := gobreaker.NewCircuitBreaker[[]domain.Product](gobreaker.Settings{
		Name:    "catalog",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   defaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker:       breaker,
		log:           log,
		retries:       maxRetries,
		retryInterval: 500 * time.Millisecond,
	}
}

// FetchByID fetches a single product record.
func (c *Client) FetchByID(ctx context.Context, id string) (*domain.Product, error) {
	fetchURL := fmt.Sprintf("%s/api/products/%s", c.baseURL, url.PathEscape(id))

	products, err := c.breaker.Execute(func() ([]domain.Product, error) {
		product, err := c.fetchOne(ctx, fetchURL)
		if err != nil {
			return nil, err
		}
		return []domain.Product{*product}, nil
	})
	if err != nil {
		return nil, c.asFetchError(fetchURL, err)
	}
	return &products[0], nil
}

// FetchByIDs fetches a batch of product records in one call. Identical
// concurrent batches are collapsed into a single request.
func (c *Client) FetchByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	sorted := make([]string, len(ids))
	copy(sorted, ids)
	sort.Strings(sorted)
	key := strings.Join(sorted, ",")

	fetchURL := fmt.Sprintf("%s/api/products?ids=%s", c.baseURL, url.QueryEscape(strings.Join(ids, ",")))

	v, err, _ := c.sfg.Do(key, func() (interface{}, error) {
		return c.breaker.Execute(func() ([]domain.Product, error) {
			return c.fetchBatch(ctx, fetchURL)
		})
	})
	if err != nil {
		return nil, c.asFetchError(fetchURL, err)
	}
	return v.([]domain.Product), nil
}

func (c *Client) fetchOne(ctx context.Context, fetchURL string) (*domain.Product, error) {
	body, err := c.get(ctx, fetchURL)
	if err != nil {
		return nil, err
	}

	var product domain.Product
	if err := json.Unmarshal(body, &product); err != nil {
		return nil, &FetchError{URL: fetchURL, Err: fmt.Errorf("malformed payload: %w", err)}
	}
	if err := product.Validate(); err != nil {
		return nil, &FetchError{URL: fetchURL, Err: fmt.Errorf("invalid product record: %w", err)}
	}
	return &product, nil
}

func (c *Client) fetchBatch(ctx context.Context, fetchURL string) ([]domain.Product, error) {
	body, err := c.get(ctx, fetchURL)
	if err != nil {
		return nil, err
	}

	var products []domain.Product
	if err := json.Unmarshal(body, &products); err != nil {
		return nil, &FetchError{URL: fetchURL, Err: fmt.Errorf("malformed payload: %w", err)}
	}
	for _, p := range products {
		if err := p.Validate(); err != nil {
			return nil, &FetchError{URL: fetchURL, Err: fmt.Errorf("invalid product record %q: %w", p.ID, err)}
		}
	}
	return products, nil
}

// get performs the GET with bounded retries. Transient failures
// (transport errors, 5xx) are retried; 4xx and decode failures are
// permanent.
func (c *Client) get(ctx context.Context, fetchURL string) ([]byte, error) {
	var body []byte

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchURL, nil)
		if err != nil {
			return backoff.Permanent(&FetchError{URL: fetchURL, Err: err})
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return &FetchError{URL: fetchURL, Err: err}
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return &FetchError{URL: fetchURL, StatusCode: resp.StatusCode, Err: errors.New("server error")}
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(&FetchError{URL: fetchURL, StatusCode: resp.StatusCode, Err: errors.New("unexpected status")})
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return &FetchError{URL: fetchURL, Err: err}
		}
		return nil
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = c.retryInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(expo, c.retries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) asFetchError(fetchURL string, err error) *FetchError {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}
	// breaker open, context cancellation and the like
	c.log.WithError(err).WithField("url", fetchURL).Warn("catalog fetch failed")
	return &FetchError{URL: fetchURL, Err: err}
}
