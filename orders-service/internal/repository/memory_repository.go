package repository

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/fjod/go_bookstore/orders-service/internal/domain"
	"github.com/google/uuid"
)

type MemoryRepository struct {
	mu         sync.RWMutex
	orders     []*domain.Order // insertion order
	byID       map[uuid.UUID]*domain.Order
	byCheckout map[uuid.UUID]*domain.Order
	outbox     []*OutboxEvent
	processed  map[int64]bool
	nextEvent  int64
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:       make(map[uuid.UUID]*domain.Order),
		byCheckout: make(map[uuid.UUID]*domain.Order),
		processed:  make(map[int64]bool),
	}
}

func copyOrder(o *domain.Order) *domain.Order {
	cp := *o
	cp.Items = slices.Clone(o.Items)
	return &cp
}

func (m *MemoryRepository) CreateOrder(_ context.Context, order *domain.Order, event *OutboxEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byCheckout[order.CheckoutID]; ok {
		return ErrDuplicateCheckout
	}

	stored := copyOrder(order)
	m.orders = append(m.orders, stored)
	m.byID[stored.ID] = stored
	m.byCheckout[stored.CheckoutID] = stored

	if event != nil {
		m.nextEvent++
		ev := *event
		ev.ID = m.nextEvent
		if ev.CreatedAt.IsZero() {
			ev.CreatedAt = time.Now()
		}
		m.outbox = append(m.outbox, &ev)
	}
	return nil
}

func (m *MemoryRepository) GetOrderByID(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	o, ok := m.byID[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return copyOrder(o), nil
}

func (m *MemoryRepository) GetOrderByCheckoutID(_ context.Context, checkoutID uuid.UUID) (*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	o, ok := m.byCheckout[checkoutID]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return copyOrder(o), nil
}

// ListOrdersByUserID returns newest first; orders created at the same
// instant come back in reverse insertion order.
func (m *MemoryRepository) ListOrdersByUserID(_ context.Context, userID string) ([]*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var orders []*domain.Order
	for i := len(m.orders) - 1; i >= 0; i-- {
		if m.orders[i].UserID == userID {
			orders = append(orders, copyOrder(m.orders[i]))
		}
	}
	slices.SortStableFunc(orders, func(a, b *domain.Order) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return orders, nil
}

func (m *MemoryRepository) GetUnprocessedEvents(_ context.Context, limit int) ([]*OutboxEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var events []*OutboxEvent
	for _, ev := range m.outbox {
		if m.processed[ev.ID] {
			continue
		}
		cp := *ev
		events = append(events, &cp)
		if len(events) == limit {
			break
		}
	}
	return events, nil
}

func (m *MemoryRepository) MarkEventAsProcessed(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.processed[id] = true
	return nil
}

func (m *MemoryRepository) Close() error {
	return nil
}
