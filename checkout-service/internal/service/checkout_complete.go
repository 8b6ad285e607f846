package service

import (
	"context"

	"github.com/fjod/go_bookstore/pkg/logger"
	"github.com/fjod/go_bookstore/pkg/metrics"
	"go.uber.org/zap"
)

// confirmReservation settles a hold once the order exists. A failure leaves
// the order standing; the hold lapses when it expires.
func (s *CheckoutServiceImpl) confirmReservation(ctx context.Context, reservationID string) {
	if reservationID == "" {
		return
	}
	ctx, span := tracer.Start(ctx, "checkout.confirm")
	defer span.End()

	if err := s.inventory.confirm(ctx, reservationID); err != nil {
		metrics.UpstreamCalls.WithLabelValues("inventory_confirm", "error").Inc()
		logger.FromContext(ctx).Error("failed to confirm reservation",
			zap.String("reservation_id", reservationID),
			zap.Error(err))
	}
}

type clearOutcome int

const (
	cartCleared clearOutcome = iota
	// cartMoved means the cart changed after the snapshot and was kept whole.
	cartMoved
	cartClearFailed
)

// clearCart empties the cart after the order is recorded, but only while it
// still holds the snapshotted version. Lines added during checkout survive.
// On failure the orders.created consumer of the cart service retries the
// same conditional clear.
func (s *CheckoutServiceImpl) clearCart(ctx context.Context, c *checkout, orderID string) clearOutcome {
	ctx, span := tracer.Start(ctx, "checkout.clear_cart")
	defer span.End()

	cleared, err := s.cart.clearIfVersion(ctx, c.userID, c.snapshot.Version)
	if err != nil {
		logger.FromContext(ctx).Warn("failed to clear cart after order",
			zap.String("user_id", c.userID),
			zap.String("order_id", orderID),
			zap.Error(err))
		return cartClearFailed
	}
	if !cleared {
		logger.FromContext(ctx).Info("cart changed during checkout, keeping it",
			zap.String("user_id", c.userID),
			zap.String("order_id", orderID),
			zap.Int64("snapshot_version", c.snapshot.Version))
		return cartMoved
	}
	return cartCleared
}
