package cart

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/fjod/go_storefront/internal/cache"
	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/pricing"
)

// ItemView is one cart line ready for display. Unresolved items carry
// no name or price and are excluded from totals.
type ItemView struct {
	ProductID string
	Name      string
	Image     string
	Quantity  int
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
	Resolved  bool
}

// View is the UI-facing read model, recomputed on every call and
// never persisted.
type View struct {
	State      State
	Items      []ItemView
	Totals     pricing.Snapshot
	RefreshErr error
}

// ViewModel assembles the current cart, the cached product details and
// the pricing snapshot. A line whose product is not cached shows up
// unresolved rather than failing the whole view.
func (c *Controller) ViewModel(ctx context.Context) View {
	c.mu.Lock()
	snapshot := c.cart.Clone()
	state := c.state
	refreshErr := c.lastRefreshErr
	c.mu.Unlock()

	products := make(map[string]domain.Product, len(snapshot.Items))
	items := make([]ItemView, 0, len(snapshot.Items))
	for _, line := range snapshot.Items {
		view := ItemView{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
		}

		product, err := c.cache.Get(ctx, line.ProductID)
		if err != nil {
			if !errors.Is(err, cache.ErrCacheMiss) {
				c.log.WithError(err).WithField("product_id", line.ProductID).Warn("cache get failed")
			}
			items = append(items, view)
			continue
		}

		products[product.ID] = *product
		view.Name = product.Name
		view.Image = product.Image
		view.UnitPrice = product.Price
		view.Subtotal = product.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		view.Resolved = true
		items = append(items, view)
	}

	return View{
		State:      state,
		Items:      items,
		Totals:     pricing.NewSnapshot(snapshot, products),
		RefreshErr: refreshErr,
	}
}
