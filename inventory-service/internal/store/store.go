package store

import (
	"context"
	"errors"
	"time"

	"github.com/fjod/go_bookstore/inventory-service/internal/domain"
)

const (
	// ReservationTTL is how long a reservation is valid before auto-expiring
	ReservationTTL = 5 * time.Minute

	// CleanupInterval is how often expired reservations are swept
	CleanupInterval = 30 * time.Second
)

// Common errors returned by the store
var (
	ErrSKUNotFound         = errors.New("sku not found")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrReservationExpired  = errors.New("reservation has expired")
	ErrInvalidStatus       = errors.New("invalid reservation status for this operation")
	ErrInvalidQuantity     = errors.New("quantity must not be negative")
)

// InventoryStore is the stock ledger.
type InventoryStore interface {
	// GetStock returns the records that exist among skus, in request order.
	// Unknown SKUs are omitted.
	GetStock(ctx context.Context, skus []string) ([]domain.StockRecord, error)

	// Reserve atomically holds every item or none. Each item's SKU must exist.
	Reserve(ctx context.Context, checkoutID string, items []domain.ReservationItem) (*domain.Reservation, error)

	// Confirm turns a reservation's hold into a permanent decrement.
	Confirm(ctx context.Context, reservationID string) error

	// Release returns a reservation's hold to the available pool.
	Release(ctx context.Context, reservationID string) error

	// SetStock provisions or restocks a SKU. Out-of-band only.
	SetStock(ctx context.Context, sku string, quantity int32) error

	// Close shuts down the store and any background processes
	Close() error
}
