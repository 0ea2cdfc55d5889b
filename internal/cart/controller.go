// Package cart orchestrates the persisted cart, the product cache and
// the catalog client, and answers the checkout-gating question. The
// cart is owned exclusively by the Controller; nothing else mutates
// it.
package cart

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fjod/go_storefront/internal/cache"
	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/store"
)

type State string

const (
	StateEmpty      State = "EMPTY"
	StateLoaded     State = "LOADED"
	StateMutating   State = "MUTATING"
	StateRefreshing State = "REFRESHING"
)

// Catalog is the slice of the catalog client the controller needs.
type Catalog interface {
	FetchByIDs(ctx context.Context, ids []string) ([]domain.Product, error)
}

// Authenticator answers the gating question. auth.Session implements
// it; it is the sole source of truth for authentication state.
type Authenticator interface {
	IsAuthenticated(ctx context.Context) bool
	Token(ctx context.Context) string
}

// RemoteCart mirrors cart appends to the backend on the authenticated
// path. Optional; local persistence stays the system of record.
type RemoteCart interface {
	AppendCartItem(ctx context.Context, token string, item domain.LineItem) error
}

type Controller struct {
	store   store.Store
	catalog Catalog
	cache   cache.ProductCache
	authn   Authenticator
	remote  RemoteCart
	log     *logrus.Logger

	refreshTimeout time.Duration

	mu             sync.Mutex
	state          State
	cart           domain.Cart
	lastRefreshErr error

	// applyMu serializes refresh results landing in the cache with
	// evictions, keeping cache I/O off the cart mutex. refreshSeq is
	// bumped on every change that invalidates in-flight fetches.
	applyMu    sync.Mutex
	refreshSeq atomic.Uint64
}

type Option func(*Controller)

func WithLogger(log *logrus.Logger) Option {
	return func(c *Controller) { c.log = log }
}

// WithRemoteCart enables the authenticated-path remote append.
func WithRemoteCart(remote RemoteCart) Option {
	return func(c *Controller) { c.remote = remote }
}

func WithRefreshTimeout(d time.Duration) Option {
	return func(c *Controller) { c.refreshTimeout = d }
}

// NewController loads the persisted cart once. A storage failure
// degrades to an empty cart and is logged, never returned: the UI must
// keep working.
func NewController(ctx context.Context, st store.Store, catalog Catalog, productCache cache.ProductCache, authn Authenticator, opts ...Option) *Controller {
	c := &Controller{
		store:          st,
		catalog:        catalog,
		cache:          productCache,
		authn:          authn,
		log:            logrus.New(),
		refreshTimeout: 15 * time.Second,
		state:          StateEmpty,
	}
	for _, opt := range opts {
		opt(c)
	}

	loaded, err := st.LoadCart(ctx)
	if err != nil {
		c.log.WithError(err).Warn("failed to load cart, starting empty")
		loaded = domain.Cart{}
	}
	c.cart = loaded
	c.state = StateLoaded

	if !loaded.IsEmpty() {
		go c.refresh(context.Background(), c.refreshSeq.Add(1))
	}
	return c
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Cart returns a snapshot copy of the current cart.
func (c *Controller) Cart() domain.Cart {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cart.Clone()
}

// AddItem merges quantity into an existing line or appends a new one,
// persists immediately, and refreshes product details when the product
// is not yet cached.
func (c *Controller) AddItem(ctx context.Context, productID string, quantity int) error {
	if productID == "" {
		return ErrItemNotFound
	}
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	c.mu.Lock()
	c.state = StateMutating
	isNew := c.cart.Upsert(productID, quantity)
	snapshot := c.cart.Clone()
	c.state = StateLoaded
	c.mu.Unlock()

	c.persist(ctx, snapshot)

	if c.remote != nil && c.authn.IsAuthenticated(ctx) {
		item := domain.LineItem{ProductID: productID, Quantity: quantity}
		if err := c.remote.AppendCartItem(ctx, c.authn.Token(ctx), item); err != nil {
			c.log.WithError(err).WithField("product_id", productID).Warn("remote cart append failed")
		}
	}

	needRefresh := isNew
	if !needRefresh {
		// a merge leaves the id-set unchanged, but the line may still
		// be unresolved after an earlier failed refresh
		if _, err := c.cache.Get(ctx, productID); err != nil {
			needRefresh = true
		}
	}
	if needRefresh {
		go c.refresh(context.Background(), c.refreshSeq.Add(1))
	}
	return nil
}

// UpdateQuantity replaces the quantity on an existing line and
// persists. The id-set is unchanged, so no refresh is needed.
func (c *Controller) UpdateQuantity(ctx context.Context, productID string, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	c.mu.Lock()
	c.state = StateMutating
	found := c.cart.SetQuantity(productID, quantity)
	snapshot := c.cart.Clone()
	c.state = StateLoaded
	c.mu.Unlock()

	if !found {
		return ErrItemNotFound
	}
	c.persist(ctx, snapshot)
	return nil
}

// RemoveItem removes the line and persists. Removing an absent id
// leaves the cart untouched. The cache entry is evicted to bound
// memory and any in-flight refresh for the old id-set is invalidated.
func (c *Controller) RemoveItem(ctx context.Context, productID string) {
	c.mu.Lock()
	c.state = StateMutating
	removed := c.cart.Remove(productID)
	snapshot := c.cart.Clone()
	c.state = StateLoaded
	c.mu.Unlock()

	if !removed {
		return
	}
	c.refreshSeq.Add(1)
	c.persist(ctx, snapshot)

	c.applyMu.Lock()
	defer c.applyMu.Unlock()
	if err := c.cache.Evict(ctx, productID); err != nil {
		c.log.WithError(err).WithField("product_id", productID).Warn("cache evict failed")
	}
}

// ClearCart empties the cart and persists.
func (c *Controller) ClearCart(ctx context.Context) {
	c.mu.Lock()
	c.state = StateMutating
	evicted := c.cart.ProductIDs()
	c.cart = domain.Cart{}
	c.state = StateLoaded
	c.mu.Unlock()

	c.refreshSeq.Add(1)
	c.persist(ctx, domain.Cart{})

	c.applyMu.Lock()
	defer c.applyMu.Unlock()
	for _, id := range evicted {
		if err := c.cache.Evict(ctx, id); err != nil {
			c.log.WithError(err).WithField("product_id", id).Warn("cache evict failed")
		}
	}
}

// RequestCheckout is a pure gating decision: the caller routes to
// login on ErrAuthRequired and to the checkout flow on success.
func (c *Controller) RequestCheckout(ctx context.Context) (domain.Cart, error) {
	if !c.authn.IsAuthenticated(ctx) {
		return domain.Cart{}, ErrAuthRequired
	}

	snapshot := c.Cart()
	if snapshot.IsEmpty() {
		return domain.Cart{}, ErrEmptyCart
	}
	return snapshot, nil
}

// Refresh synchronously re-fetches product details for the current
// cart contents.
func (c *Controller) Refresh(ctx context.Context) {
	c.refresh(ctx, c.refreshSeq.Add(1))
}

// refresh fetches the batch for the cart state identified by seq.
// Only the response matching the most recent request may touch the
// cache; late results for superseded cart states are dropped.
func (c *Controller) refresh(ctx context.Context, seq uint64) {
	c.mu.Lock()
	if seq != c.refreshSeq.Load() {
		c.mu.Unlock()
		return
	}
	ids := c.cart.ProductIDs()
	c.state = StateRefreshing
	c.mu.Unlock()

	var (
		products []domain.Product
		err      error
	)
	if len(ids) > 0 {
		fetchCtx, cancel := context.WithTimeout(ctx, c.refreshTimeout)
		products, err = c.catalog.FetchByIDs(fetchCtx, ids)
		cancel()
	}

	c.mu.Lock()
	if seq != c.refreshSeq.Load() {
		c.mu.Unlock()
		return
	}
	c.state = StateLoaded
	c.lastRefreshErr = err
	c.mu.Unlock()

	if err != nil {
		// cache keeps its prior (possibly stale) entries; the error is
		// surfaced through the view model
		c.log.WithError(err).Warn("product refresh failed")
		return
	}
	if len(products) == 0 {
		return
	}

	// re-check under applyMu: a batch superseded while we waited here
	// must not land, and evictions must not interleave with the write
	c.applyMu.Lock()
	defer c.applyMu.Unlock()
	if seq != c.refreshSeq.Load() {
		return
	}
	cacheCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.cache.SetBatch(cacheCtx, products); err != nil {
		c.log.WithError(err).Warn("cache set batch failed")
	}
}

func (c *Controller) persist(ctx context.Context, snapshot domain.Cart) {
	if err := c.store.SaveCart(ctx, snapshot); err != nil {
		// degrade to in-memory state, never crash the caller
		c.log.WithError(err).Error("failed to persist cart")
	}
}
