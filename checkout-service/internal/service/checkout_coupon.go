package service

import (
	"context"
	"errors"
	"fmt"

	d "github.com/fjod/go_bookstore/checkout-service/domain"
	"github.com/fjod/go_bookstore/pkg/apperr"
	"github.com/fjod/go_bookstore/pkg/logger"
	"github.com/fjod/go_bookstore/pricing-service/pkg/pricingapi"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var hundred = decimal.NewFromInt(100)

// applyCoupon returns the discount for the snapshot's coupon, capped at the
// subtotal, plus a note when the code was rejected. Only an unreachable
// pricing service is an error.
func (s *CheckoutServiceImpl) applyCoupon(ctx context.Context, snapshot *d.CartSnapshot) (decimal.Decimal, string, error) {
	if snapshot.CouponCode == "" {
		return decimal.Zero, "", nil
	}

	ctx, span := tracer.Start(ctx, "checkout.apply_coupon")
	defer span.End()

	resp, err := s.pricing.validateCoupon(ctx, snapshot.CouponCode)
	if errors.Is(err, apperr.ErrUpstreamUnavailable) {
		return decimal.Zero, "", apperr.Upstream(err, "validate coupon")
	}
	if err != nil || !resp.Valid {
		logger.FromContext(ctx).Info("coupon rejected at checkout",
			zap.String("coupon", snapshot.CouponCode),
			zap.Error(err))
		return decimal.Zero, fmt.Sprintf("coupon %s is not valid, no discount applied", snapshot.CouponCode), nil
	}

	discount := resp.DiscountAmount
	if resp.Kind == pricingapi.CouponKindPercent {
		discount = snapshot.Subtotal.
			Mul(decimal.NewFromInt32(resp.DiscountPercent)).
			Div(hundred).
			Round(2)
	}
	return decimal.Min(discount, snapshot.Subtotal), "", nil
}
