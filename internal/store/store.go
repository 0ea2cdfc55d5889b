package store

import (
	"context"

	"github.com/fjod/go_storefront/internal/domain"
)

// Store is the durable local state: the cart and the auth token, each
// read and written as a whole blob. Consumers define this interface,
// not the sqlite implementation.
type Store interface {
	LoadCart(ctx context.Context) (domain.Cart, error)
	SaveCart(ctx context.Context, cart domain.Cart) error
	LoadToken(ctx context.Context) (string, error)
	SaveToken(ctx context.Context, token string) error
	ClearToken(ctx context.Context) error
	Close() error
}

const (
	keyCart  = "cart"
	keyToken = "token"
)
