package repository

import (
	"context"
	"sync"

	"github.com/fjod/go_bookstore/cart-service/internal/domain"
)

// MemoryRepository keeps carts in process. Stored carts are copied on the way
// in and out so callers never share state with the store.
type MemoryRepository struct {
	mu    sync.RWMutex
	carts map[string]*domain.Cart
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{carts: make(map[string]*domain.Cart)}
}

func (m *MemoryRepository) GetCart(_ context.Context, userID string) (*domain.Cart, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cart, ok := m.carts[userID]
	if !ok {
		return nil, ErrCartNotFound
	}
	return cart.Clone(), nil
}

func (m *MemoryRepository) SaveCart(_ context.Context, cart *domain.Cart, expectedVersion int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var current int64
	if stored, ok := m.carts[cart.UserID]; ok {
		current = stored.Version
	}
	if current != expectedVersion {
		return ErrVersionConflict
	}

	cart.Version = expectedVersion + 1
	m.carts[cart.UserID] = cart.Clone()
	return nil
}
