package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/fjod/go_bookstore/cart-service/internal/cache"
	"github.com/fjod/go_bookstore/cart-service/internal/domain"
	"github.com/fjod/go_bookstore/cart-service/internal/repository"
	"github.com/fjod/go_bookstore/pkg/apperr"
	"github.com/fjod/go_bookstore/pkg/logger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// MaxSaveAttempts bounds the reload-and-reapply loop on version conflicts.
const MaxSaveAttempts = 5

type CartService struct {
	repo  repository.CartRepository
	cache cache.CartCache
	sfg   singleflight.Group // Prevents cache stampede
	locks *keyedMutex
	now   func() time.Time
}

func NewCartService(repo repository.CartRepository, c cache.CartCache) *CartService {
	if c == nil {
		c = cache.NopCache{}
	}
	return &CartService{
		repo:  repo,
		cache: c,
		locks: newKeyedMutex(),
		now:   time.Now,
	}
}

// AddItemInput is one add-to-cart request.
type AddItemInput struct {
	BookID    string
	Title     string
	Quantity  int32
	UnitPrice decimal.Decimal
}

// UpdateItemInput sets a line's quantity. Title and UnitPrice are optional
// snapshot refreshes.
type UpdateItemInput struct {
	BookID    string
	Quantity  int32
	Title     *string
	UnitPrice *decimal.Decimal
}

func validUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return apperr.Validation("userId is required")
	}
	return nil
}

// GetCart returns the user's cart, or an empty unsaved cart if there is none.
func (s *CartService) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	if err := validUser(userID); err != nil {
		return nil, err
	}

	// Use singleflight to prevent multiple concurrent cache misses for same key
	v, err, _ := s.sfg.Do(userID, func() (any, error) {
		cart, err := s.cache.Get(ctx, userID)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			logger.FromContext(ctx).Warn("cache get error", zap.String("user_id", userID), zap.Error(err))
		}

		// fill under the user's lock so a concurrent write cannot be
		// overwritten by the stale copy read here
		unlock := s.locks.Lock(userID)
		defer unlock()

		cart, err = s.repo.GetCart(ctx, userID)
		if errors.Is(err, repository.ErrCartNotFound) {
			return domain.NewCart(userID, s.now()), nil
		}
		if err != nil {
			return nil, apperr.Upstream(err, "load cart")
		}

		if errSet := s.cache.Set(ctx, userID, cart); errSet != nil {
			logger.FromContext(ctx).Warn("cache set error", zap.String("user_id", userID), zap.Error(errSet))
		}
		return cart, nil
	})
	if err != nil {
		return nil, err
	}

	// callers sharing a flight must not share the cart
	return v.(*domain.Cart).Clone(), nil
}

func (s *CartService) AddItem(ctx context.Context, userID string, in AddItemInput) (*domain.Cart, error) {
	return s.mutate(ctx, userID, func(c *domain.Cart, now time.Time) (bool, error) {
		return true, c.Add(in.BookID, in.Title, in.Quantity, in.UnitPrice, now)
	})
}

func (s *CartService) UpdateItem(ctx context.Context, userID string, in UpdateItemInput) (*domain.Cart, error) {
	return s.mutate(ctx, userID, func(c *domain.Cart, now time.Time) (bool, error) {
		return c.Update(in.BookID, in.Quantity, in.Title, in.UnitPrice, now)
	})
}

// RemoveItem drops a line. Removing an absent line is a successful no-op.
func (s *CartService) RemoveItem(ctx context.Context, userID, bookID string) (*domain.Cart, error) {
	if strings.TrimSpace(bookID) == "" {
		return nil, apperr.Validation("bookId is required")
	}
	return s.mutate(ctx, userID, func(c *domain.Cart, now time.Time) (bool, error) {
		if !c.Remove(bookID) {
			return false, nil
		}
		c.UpdatedAt = now
		return true, nil
	})
}

func (s *CartService) ClearCart(ctx context.Context, userID string) (*domain.Cart, error) {
	return s.mutate(ctx, userID, func(c *domain.Cart, now time.Time) (bool, error) {
		return c.Clear(now), nil
	})
}

func (s *CartService) ApplyCoupon(ctx context.Context, userID, code string) (*domain.Cart, error) {
	return s.mutate(ctx, userID, func(c *domain.Cart, now time.Time) (bool, error) {
		return true, c.ApplyCoupon(code, now)
	})
}

func (s *CartService) RemoveCoupon(ctx context.Context, userID string) (*domain.Cart, error) {
	return s.mutate(ctx, userID, func(c *domain.Cart, now time.Time) (bool, error) {
		return c.RemoveCoupon(now), nil
	})
}

// ClearIfVersion clears the cart only while it is still at version. It
// reports whether it cleared anything.
func (s *CartService) ClearIfVersion(ctx context.Context, userID string, version int64) (bool, error) {
	cleared := false
	_, err := s.mutate(ctx, userID, func(c *domain.Cart, now time.Time) (bool, error) {
		if c.Version != version {
			return false, nil
		}
		cleared = c.Clear(now)
		return cleared, nil
	})
	return cleared, err
}

// mutate applies fn to the freshest stored cart and saves it under an
// optimistic version check. Mutations for one user are also serialised in
// process, so conflicts only come from other instances.
func (s *CartService) mutate(ctx context.Context, userID string, fn func(*domain.Cart, time.Time) (bool, error)) (*domain.Cart, error) {
	if err := validUser(userID); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	for attempt := 1; attempt <= MaxSaveAttempts; attempt++ {
		cart, err := s.repo.GetCart(ctx, userID)
		if errors.Is(err, repository.ErrCartNotFound) {
			cart = domain.NewCart(userID, s.now())
		} else if err != nil {
			return nil, apperr.Upstream(err, "load cart")
		}
		expected := cart.Version

		changed, err := fn(cart, s.now())
		if errors.Is(err, domain.ErrInvalidLine) {
			return nil, apperr.Validation("%s", err.Error())
		}
		if err != nil {
			return nil, err
		}
		if !changed {
			return cart, nil
		}

		err = s.repo.SaveCart(ctx, cart, expected)
		if errors.Is(err, repository.ErrVersionConflict) {
			logger.FromContext(ctx).Debug("cart version conflict, retrying",
				zap.String("user_id", userID),
				zap.Int64("version", expected),
				zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return nil, apperr.Upstream(err, "save cart")
		}

		s.invalidateCache(ctx, userID)
		return cart, nil
	}

	return nil, apperr.Upstream(repository.ErrVersionConflict, "cart %s: gave up after %d attempts", userID, MaxSaveAttempts)
}

func (s *CartService) invalidateCache(ctx context.Context, userID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		logger.FromContext(ctx).Warn("cache invalidate error", zap.String("user_id", userID), zap.Error(err))
	}
}
