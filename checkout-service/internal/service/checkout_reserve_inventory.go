package service

import (
	"context"
	"errors"

	d "github.com/fjod/go_bookstore/checkout-service/domain"
	"github.com/fjod/go_bookstore/inventory-service/pkg/inventoryapi"
	"github.com/fjod/go_bookstore/pkg/apperr"
	"github.com/fjod/go_bookstore/pkg/logger"
	"go.uber.org/zap"
)

// reserveInventory holds stock for the snapshot under checkoutID. It returns
// an empty reservation id when the oracle could not be asked or held nothing.
func (s *CheckoutServiceImpl) reserveInventory(ctx context.Context, checkoutID string, items []d.CartSnapshotItem) (string, error) {
	ctx, span := tracer.Start(ctx, "checkout.reserve")
	defer span.End()

	result, err := s.inventory.reserve(ctx, &inventoryapi.ReserveRequest{
		CheckoutID: checkoutID,
		Items:      mapItems(items),
	})
	if errors.Is(err, apperr.ErrStockInsufficient) {
		return "", err
	}
	if err != nil {
		logger.FromContext(ctx).Warn("reservation failed open, continuing without a hold",
			zap.String("checkout_id", checkoutID),
			zap.Error(err))
		return "", nil
	}
	if len(result.Skipped) > 0 {
		logger.FromContext(ctx).Info("books without a stock record were not held",
			zap.String("checkout_id", checkoutID),
			zap.Strings("skipped", result.Skipped))
	}
	return result.ReservationID, nil
}

func mapItems(items []d.CartSnapshotItem) []inventoryapi.ReserveItem {
	resItems := make([]inventoryapi.ReserveItem, len(items))
	for i, item := range items {
		resItems[i] = inventoryapi.ReserveItem{
			BookID:   item.BookID,
			Quantity: item.Quantity,
		}
	}
	return resItems
}
