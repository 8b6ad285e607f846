package service

import (
	"context"
	"time"

	"github.com/fjod/go_bookstore/cart-service/pkg/cartapi"
	d "github.com/fjod/go_bookstore/checkout-service/domain"
	"github.com/fjod/go_bookstore/pkg/apperr"
	"github.com/shopspring/decimal"
)

func (s *CheckoutServiceImpl) getCartSnapshot(ctx context.Context, userID string) (*d.CartSnapshot, error) {
	ctx, span := tracer.Start(ctx, "checkout.read_cart")
	defer span.End()

	cart, err := s.cart.get(ctx, userID)
	if err != nil {
		return nil, apperr.Upstream(err, "read cart")
	}
	return mapCartToSnapshot(userID, cart, s.now()), nil
}

func mapCartToSnapshot(userID string, cart *cartapi.Cart, at time.Time) *d.CartSnapshot {
	snapshot := &d.CartSnapshot{
		UserID:     userID,
		Subtotal:   decimal.Zero,
		CapturedAt: at.UTC(),
	}
	if cart == nil {
		return snapshot
	}

	snapshot.CouponCode = cart.CouponCode
	snapshot.Version = cart.Version
	snapshot.Items = make([]d.CartSnapshotItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		subtotal := item.UnitPrice.Mul(decimal.NewFromInt32(item.Quantity))
		snapshot.Items = append(snapshot.Items, d.CartSnapshotItem{
			BookID:    item.BookID,
			Title:     item.Title,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Subtotal:  subtotal,
		})
		snapshot.Subtotal = snapshot.Subtotal.Add(subtotal)
	}
	return snapshot
}
