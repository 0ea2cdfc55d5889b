package domain

import "github.com/shopspring/decimal"

// Order is an ephemeral value built at checkout time from the current
// cart and the resolved products. It is not retained locally after
// submission succeeds.
type Order struct {
	Items          []LineItem
	Products       map[string]Product
	Total          decimal.Decimal
	IdempotencyKey string
}
