package store

import (
	"context"
	"sync"
	"time"

	"github.com/fjod/go_bookstore/inventory-service/internal/domain"
	"github.com/google/uuid"
)

// MemoryStore implements InventoryStore with in-memory storage
type MemoryStore struct {
	mu           sync.RWMutex
	stocks       map[string]*domain.StockRecord
	reservations map[string]*domain.Reservation
	now          func() time.Time
	ttl          time.Duration

	stopCleanup chan struct{}
	wg          sync.WaitGroup
}

// NewMemoryStore creates a store and starts its expiry sweeper.
func NewMemoryStore() *MemoryStore {
	return newMemoryStore(time.Now, ReservationTTL, CleanupInterval)
}

func newMemoryStore(now func() time.Time, ttl, sweep time.Duration) *MemoryStore {
	s := &MemoryStore{
		stocks:       make(map[string]*domain.StockRecord),
		reservations: make(map[string]*domain.Reservation),
		now:          now,
		ttl:          ttl,
		stopCleanup:  make(chan struct{}),
	}

	s.wg.Add(1)
	go s.cleanupLoop(sweep)

	return s
}

func (s *MemoryStore) cleanupLoop(interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.expireReservations()
		case <-s.stopCleanup:
			return
		}
	}
}

// expireReservations returns the hold of every reservation past its TTL.
func (s *MemoryStore) expireReservations() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for _, reservation := range s.reservations {
		if reservation.Status == domain.StatusReserved && reservation.IsExpiredAt(now) {
			reservation.Status = domain.StatusExpired
			s.unhold(reservation)
		}
	}
}

func (s *MemoryStore) unhold(reservation *domain.Reservation) {
	for _, item := range reservation.Items {
		if stock, ok := s.stocks[item.SKU]; ok {
			stock.Reserved -= item.Quantity
		}
	}
}

func (s *MemoryStore) GetStock(_ context.Context, skus []string) ([]domain.StockRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.StockRecord, 0, len(skus))
	for _, sku := range skus {
		if stock, exists := s.stocks[sku]; exists {
			result = append(result, *stock)
		}
	}
	return result, nil
}

func (s *MemoryStore) Reserve(_ context.Context, checkoutID string, items []domain.ReservationItem) (*domain.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// validate everything before holding anything
	need := make(map[string]int32, len(items))
	for _, item := range items {
		if _, exists := s.stocks[item.SKU]; !exists {
			return nil, ErrSKUNotFound
		}
		need[item.SKU] += item.Quantity
	}
	for sku, qty := range need {
		if s.stocks[sku].Available() < qty {
			return nil, ErrInsufficientStock
		}
	}

	for sku, qty := range need {
		s.stocks[sku].Reserved += qty
	}

	now := s.now()
	reservation := &domain.Reservation{
		ID:         uuid.NewString(),
		CheckoutID: checkoutID,
		Items:      append([]domain.ReservationItem(nil), items...),
		Status:     domain.StatusReserved,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.ttl),
	}

	s.reservations[reservation.ID] = reservation
	return reservation, nil
}

func (s *MemoryStore) Confirm(_ context.Context, reservationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	reservation, exists := s.reservations[reservationID]
	if !exists {
		return ErrReservationNotFound
	}
	if reservation.Status != domain.StatusReserved {
		return ErrInvalidStatus
	}
	if reservation.IsExpiredAt(s.now()) {
		return ErrReservationExpired
	}

	for _, item := range reservation.Items {
		stock := s.stocks[item.SKU]
		stock.Total -= item.Quantity
		stock.Reserved -= item.Quantity
	}

	reservation.Status = domain.StatusConfirmed
	return nil
}

func (s *MemoryStore) Release(_ context.Context, reservationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	reservation, exists := s.reservations[reservationID]
	if !exists {
		return ErrReservationNotFound
	}
	if reservation.Status != domain.StatusReserved {
		return ErrInvalidStatus
	}

	s.unhold(reservation)
	reservation.Status = domain.StatusReleased
	return nil
}

// SetStock sets the on-hand quantity of sku, keeping any open holds.
func (s *MemoryStore) SetStock(_ context.Context, sku string, quantity int32) error {
	if quantity < 0 {
		return ErrInvalidQuantity
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if stock, ok := s.stocks[sku]; ok {
		stock.Total = quantity
		return nil
	}
	s.stocks[sku] = &domain.StockRecord{SKU: sku, Total: quantity}
	return nil
}

// Close stops the background cleanup and waits for it to finish
func (s *MemoryStore) Close() error {
	close(s.stopCleanup)
	s.wg.Wait()
	return nil
}
