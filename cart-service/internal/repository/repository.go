package repository

import (
	"context"
	"errors"

	"github.com/fjod/go_bookstore/cart-service/internal/domain"
)

var (
	ErrCartNotFound    = errors.New("cart not found")
	ErrVersionConflict = errors.New("cart was modified concurrently")
)

// CartRepository defines the interface for cart data operations
// Consumers define this interface, not the MongoDB implementation
type CartRepository interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)

	// SaveCart writes cart only if the stored version still equals
	// expectedVersion; zero means the cart must not exist yet. On success
	// cart.Version is expectedVersion+1. A lost race yields ErrVersionConflict.
	SaveCart(ctx context.Context, cart *domain.Cart, expectedVersion int64) error
}
