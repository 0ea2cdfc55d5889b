package checkout

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/go_storefront/internal/domain"
)

type stubFetcher struct {
	products map[string]domain.Product
	failIDs  map[string]bool
}

func (s *stubFetcher) FetchByID(_ context.Context, id string) (*domain.Product, error) {
	if s.failIDs[id] {
		return nil, errors.New("fetch failed")
	}
	p, ok := s.products[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return &p, nil
}

type stubSubmitter struct {
	mu     sync.Mutex
	delay  time.Duration
	err    error
	orders []domain.Order
	calls  atomic.Int32
}

func (s *stubSubmitter) SubmitOrder(_ context.Context, order domain.Order) error {
	s.calls.Add(1)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.orders = append(s.orders, order)
	return nil
}

func product(id, name, price string) domain.Product {
	return domain.Product{ID: id, Name: name, Price: decimal.RequireFromString(price)}
}

func twoItemCart() domain.Cart {
	return domain.Cart{Items: []domain.LineItem{
		{ProductID: "p1", Quantity: 2},
		{ProductID: "p2", Quantity: 1},
	}}
}

func TestSummarize_AllResolved(t *testing.T) {
	fetcher := &stubFetcher{products: map[string]domain.Product{
		"p1": product("p1", "Widget", "9.99"),
		"p2": product("p2", "Gadget", "5.00"),
	}}
	flow := NewFlow(twoItemCart(), fetcher, &stubSubmitter{})

	summary := flow.Summarize(context.Background())
	require.Len(t, summary.Items, 2)
	assert.True(t, summary.Items[0].Resolved)
	assert.True(t, summary.Items[1].Resolved)
	assert.Equal(t, "24.98", summary.Totals.Subtotal.StringFixed(2))
	assert.Equal(t, StateSummarizing, flow.State())
}

func TestSummarize_IndividualFailureDegradesLine(t *testing.T) {
	fetcher := &stubFetcher{
		products: map[string]domain.Product{"p1": product("p1", "Widget", "9.99")},
		failIDs:  map[string]bool{"p2": true},
	}
	flow := NewFlow(twoItemCart(), fetcher, &stubSubmitter{})

	summary := flow.Summarize(context.Background())
	require.Len(t, summary.Items, 2)
	assert.True(t, summary.Items[0].Resolved)
	assert.False(t, summary.Items[1].Resolved)
	// degraded line contributes nothing to the subtotal
	assert.Equal(t, "19.98", summary.Totals.Subtotal.StringFixed(2))
}

func TestSubmit_RequiresSummary(t *testing.T) {
	flow := NewFlow(twoItemCart(), &stubFetcher{}, &stubSubmitter{},
		WithMinSubmitLatency(0))
	assert.ErrorIs(t, flow.Submit(context.Background()), ErrNotSummarized)
}

func TestSubmit_Succeeds(t *testing.T) {
	fetcher := &stubFetcher{products: map[string]domain.Product{
		"p1": product("p1", "Widget", "9.99"),
		"p2": product("p2", "Gadget", "5.00"),
	}}
	submitter := &stubSubmitter{}
	flow := NewFlow(twoItemCart(), fetcher, submitter, WithMinSubmitLatency(0))
	flow.Summarize(context.Background())

	require.NoError(t, flow.Submit(context.Background()))
	assert.Equal(t, StateSucceeded, flow.State())

	require.Len(t, submitter.orders, 1)
	order := submitter.orders[0]
	assert.Equal(t, "38.478", order.Total.String(), "24.98 + 10.00 shipping + 3.498 tax")
	assert.NotEmpty(t, order.IdempotencyKey)
}

func TestSubmit_DoubleTapSendsExactlyOneOrder(t *testing.T) {
	fetcher := &stubFetcher{products: map[string]domain.Product{
		"p1": product("p1", "Widget", "9.99"),
		"p2": product("p2", "Gadget", "5.00"),
	}}
	submitter := &stubSubmitter{delay: 30 * time.Millisecond}
	flow := NewFlow(twoItemCart(), fetcher, submitter, WithMinSubmitLatency(50*time.Millisecond))
	flow.Summarize(context.Background())

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- flow.Submit(context.Background())
		}()
	}
	wg.Wait()
	close(results)

	var inFlight, ok int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrSubmissionInFlight):
			inFlight++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, inFlight)
	assert.Equal(t, int32(1), submitter.calls.Load())
}

func TestSubmit_EnforcesMinimumLatency(t *testing.T) {
	fetcher := &stubFetcher{products: map[string]domain.Product{
		"p1": product("p1", "Widget", "9.99"),
		"p2": product("p2", "Gadget", "5.00"),
	}}
	flow := NewFlow(twoItemCart(), fetcher, &stubSubmitter{},
		WithMinSubmitLatency(100*time.Millisecond))
	flow.Summarize(context.Background())

	started := time.Now()
	require.NoError(t, flow.Submit(context.Background()))
	assert.GreaterOrEqual(t, time.Since(started), 100*time.Millisecond)
}

func TestSubmit_FailedAttemptIsRetryable(t *testing.T) {
	fetcher := &stubFetcher{products: map[string]domain.Product{
		"p1": product("p1", "Widget", "9.99"),
		"p2": product("p2", "Gadget", "5.00"),
	}}
	submitter := &stubSubmitter{err: errors.New("order endpoint down")}
	flow := NewFlow(twoItemCart(), fetcher, submitter, WithMinSubmitLatency(0))
	flow.Summarize(context.Background())

	require.Error(t, flow.Submit(context.Background()))
	assert.Equal(t, StateFailed, flow.State())

	// same logical order on retry
	submitter.mu.Lock()
	submitter.err = nil
	submitter.mu.Unlock()

	require.NoError(t, flow.Submit(context.Background()))
	assert.Equal(t, StateSucceeded, flow.State())
	require.Len(t, submitter.orders, 1)
	assert.NotEmpty(t, submitter.orders[0].IdempotencyKey)
}

func TestSubmit_AfterSuccessIsTerminal(t *testing.T) {
	fetcher := &stubFetcher{products: map[string]domain.Product{
		"p1": product("p1", "Widget", "9.99"),
		"p2": product("p2", "Gadget", "5.00"),
	}}
	submitter := &stubSubmitter{}
	flow := NewFlow(twoItemCart(), fetcher, submitter, WithMinSubmitLatency(0))
	flow.Summarize(context.Background())

	require.NoError(t, flow.Submit(context.Background()))
	assert.ErrorIs(t, flow.Submit(context.Background()), ErrAlreadySubmitted)
	assert.Equal(t, int32(1), submitter.calls.Load())
}
