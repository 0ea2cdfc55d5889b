package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Product is a read-only copy of a catalog record. The backend keys
// products by a mongo-style "_id" field.
type Product struct {
	ID    string          `json:"_id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Image string          `json:"image"`
}

// Validate rejects records the catalog should never produce. Responses
// failing validation are treated as malformed payloads, not trusted at
// use-time.
func (p Product) Validate() error {
	if p.ID == "" {
		return errors.New("product id is empty")
	}
	if p.Price.IsNegative() {
		return errors.New("product price is negative")
	}
	return nil
}
