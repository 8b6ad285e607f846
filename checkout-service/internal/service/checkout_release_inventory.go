package service

import (
	"context"
	"time"

	"github.com/fjod/go_bookstore/pkg/logger"
	"go.uber.org/zap"
)

const compensationTimeout = 5 * time.Second

// releaseInventory undoes a reservation after the order could not be
// written. It runs even when the caller's context is already done.
func (s *CheckoutServiceImpl) releaseInventory(ctx context.Context, reservationID string) {
	if reservationID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()
	ctx, span := tracer.Start(ctx, "checkout.release")
	defer span.End()

	if err := s.inventory.release(ctx, reservationID); err != nil {
		logger.FromContext(ctx).Error("failed to release reservation, it will expire on its own",
			zap.String("reservation_id", reservationID),
			zap.Error(err))
	}
}
