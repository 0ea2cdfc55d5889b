// Package pricing turns a cart and its resolved products into order
// totals. Everything here is pure; monetary values stay unrounded
// decimals and 2-digit rounding happens only at presentation time.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/fjod/go_storefront/internal/domain"
)

// Policy values, not computed.
var (
	ShippingCost = decimal.RequireFromString("10.00")
	TaxRate      = decimal.RequireFromString("0.10")
)

// SubtotalFor is price × quantity for one line item, zero when either
// the line or its product is missing.
func SubtotalFor(productID string, cart domain.Cart, products map[string]domain.Product) decimal.Decimal {
	product, ok := products[productID]
	if !ok {
		return decimal.Zero
	}
	qty := cart.Quantity(productID)
	if qty == 0 {
		return decimal.Zero
	}
	return product.Price.Mul(decimal.NewFromInt(int64(qty)))
}

// Subtotal sums SubtotalFor over all line items. Unresolved items
// contribute zero; that is a defined degraded state, not an error.
func Subtotal(cart domain.Cart, products map[string]domain.Product) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range cart.Items {
		sum = sum.Add(SubtotalFor(item.ProductID, cart, products))
	}
	return sum
}

// Tax is (subtotal + shipping) × TaxRate.
func Tax(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Add(ShippingCost).Mul(TaxRate)
}

// Total is subtotal + shipping + tax.
func Total(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Add(ShippingCost).Add(Tax(subtotal))
}

// Snapshot is derived from a cart and product cache on every render,
// never persisted.
type Snapshot struct {
	Subtotal decimal.Decimal
	Shipping decimal.Decimal
	TaxRate  decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

func NewSnapshot(cart domain.Cart, products map[string]domain.Product) Snapshot {
	subtotal := Subtotal(cart, products)
	return Snapshot{
		Subtotal: subtotal,
		Shipping: ShippingCost,
		TaxRate:  TaxRate,
		Tax:      Tax(subtotal),
		Total:    Total(subtotal),
	}
}
