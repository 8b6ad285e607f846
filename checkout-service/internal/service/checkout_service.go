package service

import (
	"context"
	"strings"
	"time"

	d "github.com/fjod/go_bookstore/checkout-service/domain"
	"github.com/fjod/go_bookstore/pkg/apperr"
	"github.com/fjod/go_bookstore/pkg/logger"
	"github.com/fjod/go_bookstore/pkg/metrics"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// Checkout turns the user's cart into an order. Business failures come back
// as an unsuccessful result; only a malformed request is an error.
// Concurrent calls for one user share a single run and its result.
func (s *CheckoutServiceImpl) Checkout(ctx context.Context, userID string) (*d.CheckoutResult, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperr.Validation("userId is required")
	}

	ch := s.sfg.DoChan(userID, func() (any, error) {
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		return s.run(runCtx, userID), nil
	})

	select {
	case <-ctx.Done():
		return nil, apperr.Upstream(ctx.Err(), "checkout interrupted")
	case res := <-ch:
		if res.Shared {
			logger.FromContext(ctx).Info("joined in-flight checkout", zap.String("user_id", userID))
		}
		result := *res.Val.(*d.CheckoutResult)
		return &result, nil
	}
}

func (s *CheckoutServiceImpl) run(ctx context.Context, userID string) *d.CheckoutResult {
	start := s.now()
	c := &checkout{
		id:     s.newID(),
		userID: userID,
		status: d.CheckoutStatusInitiated,
	}

	ctx, span := tracer.Start(ctx, "checkout")
	defer span.End()
	span.SetAttributes(
		attribute.String("checkout.id", c.id),
		attribute.String("checkout.policy", string(s.policy)))
	log := logger.FromContext(ctx).With(
		zap.String("checkout_id", c.id),
		zap.String("user_id", userID))
	ctx = logger.WithContext(ctx, log)

	result := s.saga(ctx, c)

	if result.Success {
		span.SetStatus(codes.Ok, "")
		log.Info("checkout completed",
			zap.String("order_id", result.OrderID),
			zap.String("total", result.Total.StringFixed(2)))
	} else {
		span.SetStatus(codes.Error, result.Reason)
		log.Info("checkout failed",
			zap.String("status", result.Status.String()),
			zap.String("reason", result.Reason),
			zap.String("message", result.Message))
	}
	metrics.CheckoutOutcomes.WithLabelValues(result.Status.String()).Inc()
	metrics.CheckoutDuration.Observe(time.Since(start).Seconds())
	return result
}

func (s *CheckoutServiceImpl) saga(ctx context.Context, c *checkout) *d.CheckoutResult {
	snapshot, err := s.getCartSnapshot(ctx, c.userID)
	if err != nil {
		return c.fail(d.CheckoutStatusUpstreamUnavailable, err, "cart service is unavailable")
	}
	c.snapshot = snapshot
	if snapshot.IsEmpty() {
		return c.fail(d.CheckoutStatusEmptyCart, apperr.EmptyCart("cart is empty"), "cart is empty, nothing to checkout")
	}

	short, err := s.validateStock(ctx, snapshot.Items)
	if err != nil {
		res := c.fail(d.CheckoutStatusStockInsufficient, err, err.Error())
		res.InsufficientItems = short
		return res
	}
	if err := c.advance(d.CheckoutStatusStockValidated); err != nil {
		return c.broken(ctx, err)
	}

	discount, note, err := s.applyCoupon(ctx, snapshot)
	if err != nil {
		return c.fail(d.CheckoutStatusUpstreamUnavailable, err, "pricing service is unavailable")
	}
	if note != "" {
		c.notes = append(c.notes, note)
	}
	c.discount = discount
	c.total = snapshot.Subtotal.Sub(discount)

	if s.policy == PolicyReserve {
		reservationID, err := s.reserveInventory(ctx, c.id, snapshot.Items)
		if err != nil {
			return c.fail(d.CheckoutStatusStockInsufficient, err, "stock was taken by another checkout")
		}
		c.reservationID = reservationID
		if err := c.advance(d.CheckoutStatusReserved); err != nil {
			return c.broken(ctx, err)
		}
	}

	orderID, err := s.createOrder(ctx, c)
	if err != nil {
		s.releaseInventory(ctx, c.reservationID)
		return c.fail(d.CheckoutStatusOrderCreationFailed, err, "order could not be created, please try again")
	}
	if err := c.advance(d.CheckoutStatusOrderCreated); err != nil {
		return c.broken(ctx, err)
	}

	s.confirmReservation(ctx, c.reservationID)
	switch s.clearCart(ctx, c, orderID) {
	case cartCleared:
		if err := c.advance(d.CheckoutStatusCartCleared); err != nil {
			return c.broken(ctx, err)
		}
	case cartMoved:
		c.notes = append(c.notes, "your cart changed during checkout and was kept")
	default:
		c.notes = append(c.notes, "your cart will be cleared shortly")
	}
	if err := c.advance(d.CheckoutStatusCompleted); err != nil {
		return c.broken(ctx, err)
	}

	return &d.CheckoutResult{
		Success:  true,
		OrderID:  orderID,
		Message:  c.message("order placed"),
		Status:   c.status,
		Total:    c.total,
		Discount: c.discount,
	}
}

func (c *checkout) fail(status d.CheckoutStatus, err error, msg string) *d.CheckoutResult {
	if d.CanTransitionTo(c.status, status) {
		c.status = status
	}
	return &d.CheckoutResult{
		Success:  false,
		Message:  c.message(msg),
		Reason:   string(apperr.ReasonOf(err)),
		Status:   c.status,
		Total:    decimal.Zero,
		Discount: decimal.Zero,
	}
}

// broken reports a saga that tried to skip a step. It cannot happen unless
// the step order above is changed.
func (c *checkout) broken(ctx context.Context, err error) *d.CheckoutResult {
	logger.FromContext(ctx).Error("checkout state machine violated", zap.Error(err))
	return &d.CheckoutResult{
		Success: false,
		Message: "checkout failed",
		Reason:  string(apperr.ReasonInternal),
		Status:  c.status,
	}
}

func (c *checkout) message(head string) string {
	if len(c.notes) == 0 {
		return head
	}
	return head + "; " + strings.Join(c.notes, "; ")
}
