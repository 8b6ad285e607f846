package store

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fjod/go_bookstore/inventory-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// fakeClock is advanced by tests to drive reservation expiry.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type storeFactory func(t *testing.T, clock *fakeClock) InventoryStore

// every store must honour the same ledger contract
var factories = map[string]storeFactory{
	"memory": func(t *testing.T, clock *fakeClock) InventoryStore {
		s := newMemoryStore(clock.Now, ReservationTTL, time.Hour)
		t.Cleanup(func() { s.Close() })
		return s
	},
	"redis": func(t *testing.T, clock *fakeClock) InventoryStore {
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		s := newRedisStore(client, clock.Now, ReservationTTL, time.Hour)
		t.Cleanup(func() {
			s.Close()
			client.Close()
		})
		return s
	},
}

func forEachStore(t *testing.T, fn func(t *testing.T, s InventoryStore, clock *fakeClock)) {
	for name, factory := range factories {
		t.Run(name, func(t *testing.T) {
			clock := newFakeClock()
			fn(t, factory(t, clock), clock)
		})
	}
}

func stockOf(t *testing.T, s InventoryStore, sku string) domain.StockRecord {
	t.Helper()
	recs, err := s.GetStock(context.Background(), []string{sku})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	return recs[0]
}

func TestStore_SetStockAndGetStock(t *testing.T) {
	forEachStore(t, func(t *testing.T, s InventoryStore, _ *fakeClock) {
		ctx := context.Background()
		require.NoError(t, s.SetStock(ctx, "clean_code", 100))
		require.NoError(t, s.SetStock(ctx, "refactoring", 0))

		recs, err := s.GetStock(ctx, []string{"clean_code", "unknown", "refactoring"})
		require.NoError(t, err)

		// unknown SKUs are omitted, order follows the request
		require.Len(t, recs, 2)
		assert.Equal(t, "clean_code", recs[0].SKU)
		assert.Equal(t, int32(100), recs[0].Available())
		assert.Equal(t, "refactoring", recs[1].SKU)
		assert.Equal(t, int32(0), recs[1].Available())
	})
}

func TestStore_SetStockRejectsNegative(t *testing.T) {
	forEachStore(t, func(t *testing.T, s InventoryStore, _ *fakeClock) {
		assert.ErrorIs(t, s.SetStock(context.Background(), "x", -1), ErrInvalidQuantity)
	})
}

func TestStore_ReserveHoldsStock(t *testing.T) {
	forEachStore(t, func(t *testing.T, s InventoryStore, clock *fakeClock) {
		ctx := context.Background()
		require.NoError(t, s.SetStock(ctx, "a", 100))
		require.NoError(t, s.SetStock(ctx, "b", 50))

		res, err := s.Reserve(ctx, "checkout-1", []domain.ReservationItem{
			{SKU: "a", Quantity: 10},
			{SKU: "b", Quantity: 5},
		})
		require.NoError(t, err)

		assert.NotEmpty(t, res.ID)
		assert.Equal(t, "checkout-1", res.CheckoutID)
		assert.Equal(t, domain.StatusReserved, res.Status)
		assert.Equal(t, clock.Now().Add(ReservationTTL), res.ExpiresAt)

		a := stockOf(t, s, "a")
		assert.Equal(t, int32(90), a.Available())
		assert.Equal(t, int32(10), a.Reserved)
		assert.Equal(t, int32(45), stockOf(t, s, "b").Available())
	})
}

func TestStore_ReserveIsAllOrNothing(t *testing.T) {
	forEachStore(t, func(t *testing.T, s InventoryStore, _ *fakeClock) {
		ctx := context.Background()
		require.NoError(t, s.SetStock(ctx, "a", 10))
		require.NoError(t, s.SetStock(ctx, "b", 1))

		_, err := s.Reserve(ctx, "checkout-1", []domain.ReservationItem{
			{SKU: "a", Quantity: 5},
			{SKU: "b", Quantity: 2},
		})
		assert.ErrorIs(t, err, ErrInsufficientStock)
		assert.Equal(t, int32(10), stockOf(t, s, "a").Available())
		assert.Equal(t, int32(1), stockOf(t, s, "b").Available())

		_, err = s.Reserve(ctx, "checkout-2", []domain.ReservationItem{
			{SKU: "a", Quantity: 1},
			{SKU: "missing", Quantity: 1},
		})
		assert.ErrorIs(t, err, ErrSKUNotFound)
		assert.Equal(t, int32(10), stockOf(t, s, "a").Available())
	})
}

func TestStore_ReserveSumsDuplicateSKUs(t *testing.T) {
	forEachStore(t, func(t *testing.T, s InventoryStore, _ *fakeClock) {
		ctx := context.Background()
		require.NoError(t, s.SetStock(ctx, "a", 3))

		_, err := s.Reserve(ctx, "checkout-1", []domain.ReservationItem{
			{SKU: "a", Quantity: 2},
			{SKU: "a", Quantity: 2},
		})
		assert.ErrorIs(t, err, ErrInsufficientStock)

		_, err = s.Reserve(ctx, "checkout-2", []domain.ReservationItem{
			{SKU: "a", Quantity: 1},
			{SKU: "a", Quantity: 2},
		})
		require.NoError(t, err)
		assert.Equal(t, int32(0), stockOf(t, s, "a").Available())
	})
}

func TestStore_ConfirmDeductsPermanently(t *testing.T) {
	forEachStore(t, func(t *testing.T, s InventoryStore, _ *fakeClock) {
		ctx := context.Background()
		require.NoError(t, s.SetStock(ctx, "a", 100))
		res, err := s.Reserve(ctx, "checkout-1", []domain.ReservationItem{{SKU: "a", Quantity: 10}})
		require.NoError(t, err)

		require.NoError(t, s.Confirm(ctx, res.ID))

		a := stockOf(t, s, "a")
		assert.Equal(t, int32(90), a.Total)
		assert.Equal(t, int32(0), a.Reserved)

		// a settled reservation cannot be settled again
		assert.ErrorIs(t, s.Confirm(ctx, res.ID), ErrInvalidStatus)
		assert.ErrorIs(t, s.Release(ctx, res.ID), ErrInvalidStatus)
	})
}

func TestStore_ReleaseReturnsHold(t *testing.T) {
	forEachStore(t, func(t *testing.T, s InventoryStore, _ *fakeClock) {
		ctx := context.Background()
		require.NoError(t, s.SetStock(ctx, "a", 100))
		res, err := s.Reserve(ctx, "checkout-1", []domain.ReservationItem{{SKU: "a", Quantity: 10}})
		require.NoError(t, err)

		require.NoError(t, s.Release(ctx, res.ID))

		a := stockOf(t, s, "a")
		assert.Equal(t, int32(100), a.Total)
		assert.Equal(t, int32(0), a.Reserved)
		assert.ErrorIs(t, s.Confirm(ctx, res.ID), ErrInvalidStatus)
	})
}

func TestStore_UnknownReservation(t *testing.T) {
	forEachStore(t, func(t *testing.T, s InventoryStore, _ *fakeClock) {
		ctx := context.Background()
		assert.ErrorIs(t, s.Confirm(ctx, "nonexistent-id"), ErrReservationNotFound)
		assert.ErrorIs(t, s.Release(ctx, "nonexistent-id"), ErrReservationNotFound)
	})
}

func TestStore_ConfirmAfterExpiryFails(t *testing.T) {
	forEachStore(t, func(t *testing.T, s InventoryStore, clock *fakeClock) {
		ctx := context.Background()
		require.NoError(t, s.SetStock(ctx, "a", 5))
		res, err := s.Reserve(ctx, "checkout-1", []domain.ReservationItem{{SKU: "a", Quantity: 5}})
		require.NoError(t, err)

		clock.Advance(ReservationTTL + time.Second)
		assert.ErrorIs(t, s.Confirm(ctx, res.ID), ErrReservationExpired)
	})
}

func TestStore_ConcurrentReservations(t *testing.T) {
	forEachStore(t, func(t *testing.T, s InventoryStore, _ *fakeClock) {
		ctx := context.Background()
		require.NoError(t, s.SetStock(ctx, "a", 100))

		// 10 concurrent holds of 20 units; 100 / 20 = 5 can succeed
		var wg sync.WaitGroup
		var successes atomic.Int32
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(id int) {
				defer wg.Done()
				_, err := s.Reserve(ctx, fmt.Sprintf("checkout-%d", id), []domain.ReservationItem{{SKU: "a", Quantity: 20}})
				if err == nil {
					successes.Add(1)
				}
			}(i)
		}
		wg.Wait()

		assert.Equal(t, int32(5), successes.Load())
		a := stockOf(t, s, "a")
		assert.Equal(t, int32(0), a.Available())
		assert.Equal(t, int32(100), a.Reserved)
	})
}

func TestMemoryStore_ExpireReservations(t *testing.T) {
	clock := newFakeClock()
	s := newMemoryStore(clock.Now, ReservationTTL, time.Hour)
	t.Cleanup(func() { s.Close() })
	ctx := context.Background()

	require.NoError(t, s.SetStock(ctx, "a", 100))
	res, err := s.Reserve(ctx, "checkout-1", []domain.ReservationItem{{SKU: "a", Quantity: 10}})
	require.NoError(t, err)

	s.expireReservations()
	assert.Equal(t, int32(90), stockOf(t, s, "a").Available(), "not yet expired")

	clock.Advance(ReservationTTL + time.Second)
	s.expireReservations()

	s.mu.RLock()
	status := s.reservations[res.ID].Status
	s.mu.RUnlock()
	assert.Equal(t, domain.StatusExpired, status)
	assert.Equal(t, int32(100), stockOf(t, s, "a").Available())
}

func TestRedisStore_ExpireReservations(t *testing.T) {
	clock := newFakeClock()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := newRedisStore(client, clock.Now, ReservationTTL, time.Hour)
	t.Cleanup(func() {
		s.Close()
		client.Close()
	})
	ctx := context.Background()

	require.NoError(t, s.SetStock(ctx, "a", 100))
	res, err := s.Reserve(ctx, "checkout-1", []domain.ReservationItem{{SKU: "a", Quantity: 10}})
	require.NoError(t, err)

	n, err := s.expireReservations(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	clock.Advance(ReservationTTL + time.Second)
	n, err = s.expireReservations(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.Equal(t, "expired", mr.HGet(reservationKey(res.ID), "status"))
	assert.Equal(t, int32(100), stockOf(t, s, "a").Available())
	assert.ErrorIs(t, s.Release(ctx, res.ID), ErrInvalidStatus)
}

func TestMemoryStore_CloseStopsSweeper(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	s := NewMemoryStore()
	require.NoError(t, s.Close())
}
