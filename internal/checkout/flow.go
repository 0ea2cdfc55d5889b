// Package checkout drives the order flow over a cart snapshot:
// summarize with freshly fetched product detail, then submit exactly
// one order with a minimum processing latency before resolving.
package checkout

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/pricing"
)

type State string

const (
	StateSummarizing State = "SUMMARIZING"
	StateSubmitting  State = "SUBMITTING"
	StateSucceeded   State = "SUCCEEDED"
	StateFailed      State = "FAILED"
)

// ProductFetcher fetches one product at a time; batching is an
// optimization the summary does not depend on.
type ProductFetcher interface {
	FetchByID(ctx context.Context, id string) (*domain.Product, error)
}

type OrderSubmitter interface {
	SubmitOrder(ctx context.Context, order domain.Order) error
}

// DefaultMinSubmitLatency is the deliberate "processing" delay before
// an order submission resolves.
const DefaultMinSubmitLatency = 5 * time.Second

// SummaryItem is one line of the checkout summary. An item whose
// fetch failed is shown unresolved instead of aborting the summary.
type SummaryItem struct {
	ProductID string
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
	Resolved  bool
}

type Summary struct {
	Items  []SummaryItem
	Totals pricing.Snapshot
}

// Flow is one checkout attempt over an immutable cart snapshot. The
// idempotency key is fixed at construction so user retries of a failed
// attempt resubmit the same logical order.
type Flow struct {
	cart     domain.Cart
	catalog  ProductFetcher
	orders   OrderSubmitter
	minDelay time.Duration
	idemKey  string
	log      *logrus.Logger

	mu       sync.Mutex
	state    State
	products map[string]domain.Product
}

type Option func(*Flow)

func WithLogger(log *logrus.Logger) Option {
	return func(f *Flow) { f.log = log }
}

// WithMinSubmitLatency overrides the processing delay.
func WithMinSubmitLatency(d time.Duration) Option {
	return func(f *Flow) { f.minDelay = d }
}

func NewFlow(cart domain.Cart, catalog ProductFetcher, orders OrderSubmitter, opts ...Option) *Flow {
	f := &Flow{
		cart:     cart.Clone(),
		catalog:  catalog,
		orders:   orders,
		minDelay: DefaultMinSubmitLatency,
		idemKey:  uuid.NewString(),
		log:      logrus.New(),
		state:    StateSummarizing,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Summarize fetches full product detail for every distinct product id
// and computes the pricing snapshot. An individual fetch failure
// degrades that line; it never aborts the whole summary.
func (f *Flow) Summarize(ctx context.Context) Summary {
	products := make(map[string]domain.Product, len(f.cart.Items))
	items := make([]SummaryItem, 0, len(f.cart.Items))

	for _, line := range f.cart.Items {
		item := SummaryItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
		}

		product, err := f.catalog.FetchByID(ctx, line.ProductID)
		if err != nil {
			f.log.WithError(err).WithField("product_id", line.ProductID).Warn("summary fetch failed, line degraded")
			items = append(items, item)
			continue
		}

		products[product.ID] = *product
		item.Name = product.Name
		item.UnitPrice = product.Price
		item.Subtotal = product.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		item.Resolved = true
		items = append(items, item)
	}

	f.mu.Lock()
	f.products = products
	f.mu.Unlock()

	return Summary{
		Items:  items,
		Totals: pricing.NewSnapshot(f.cart, products),
	}
}

// Submit sends the order exactly once per attempt. While a submission
// is in flight a second call is rejected; after Failed the user may
// retry; after Succeeded the flow is terminal. The minimum processing
// latency is measured from submission start, so re-renders cannot
// shorten or reset it.
func (f *Flow) Submit(ctx context.Context) error {
	f.mu.Lock()
	switch f.state {
	case StateSubmitting:
		f.mu.Unlock()
		return ErrSubmissionInFlight
	case StateSucceeded:
		f.mu.Unlock()
		return ErrAlreadySubmitted
	}
	if f.products == nil {
		f.mu.Unlock()
		return ErrNotSummarized
	}
	f.state = StateSubmitting
	order := domain.Order{
		Items:          f.cart.Clone().Items,
		Products:       f.products,
		Total:          pricing.Total(pricing.Subtotal(f.cart, f.products)),
		IdempotencyKey: f.idemKey,
	}
	f.mu.Unlock()

	started := time.Now()
	err := f.orders.SubmitOrder(ctx, order)

	if remaining := f.minDelay - time.Since(started); remaining > 0 {
		timer := time.NewTimer(remaining)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			f.setState(StateFailed)
			return ctx.Err()
		}
	}

	if err != nil {
		f.setState(StateFailed)
		return err
	}
	f.setState(StateSucceeded)
	return nil
}

func (f *Flow) setState(s State) {
	f.mu.Lock()
	f.state = s
	f.mu.Unlock()
}
