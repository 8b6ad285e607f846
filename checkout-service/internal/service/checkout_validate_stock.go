package service

import (
	"context"
	"sort"
	"strings"

	d "github.com/fjod/go_bookstore/checkout-service/domain"
	"github.com/fjod/go_bookstore/inventory-service/pkg/inventoryapi"
	"github.com/fjod/go_bookstore/pkg/apperr"
	"github.com/fjod/go_bookstore/pkg/circuitbreaker"
	"github.com/fjod/go_bookstore/pkg/logger"
	"github.com/fjod/go_bookstore/pkg/metrics"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// FailOpenAvailable is the quantity assumed when the stock oracle cannot be
// asked.
const FailOpenAvailable = 100

const maxStockCalls = 8

// validateStock checks every line against the stock oracle concurrently. An
// unreachable oracle never blocks a checkout: the line is assumed in stock.
// A short line reports the total requested from its SKU.
func (s *CheckoutServiceImpl) validateStock(ctx context.Context, items []d.CartSnapshotItem) ([]d.InsufficientItem, error) {
	ctx, span := tracer.Start(ctx, "checkout.validate_stock")
	defer span.End()
	span.SetAttributes(attribute.Int("checkout.lines", len(items)))

	answers := make([]*inventoryapi.CheckForCartResponse, len(items))
	var g errgroup.Group
	g.SetLimit(maxStockCalls)
	for i, item := range items {
		g.Go(func() error {
			resp, err := s.inventory.checkForCart(ctx, item.BookID, item.Quantity)
			if err != nil {
				cause := metrics.FailOpenUnreachable
				if circuitbreaker.IsOpen(err) {
					cause = metrics.FailOpenBreakerOpen
				}
				metrics.StockFailOpen.WithLabelValues(cause).Inc()
				logger.FromContext(ctx).Warn("stock check failed open",
					zap.String("book_id", item.BookID),
					zap.String("cause", cause),
					zap.Error(err))
				resp = &inventoryapi.CheckForCartResponse{
					BookID:            item.BookID,
					InStock:           true,
					AvailableQuantity: FailOpenAvailable,
					Source:            inventoryapi.SourceDefaultAssumed,
				}
			}
			answers[i] = resp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Lines whose books resolve to the same ledger SKU draw on one pool, so
	// they are judged on their summed quantity.
	perSKU := make(map[string]int32)
	for i, item := range items {
		if sku := answers[i].SKU; sku != "" {
			perSKU[sku] += item.Quantity
		}
	}

	var short []d.InsufficientItem
	for i, item := range items {
		answer := answers[i]
		requested := item.Quantity
		if answer.SKU != "" {
			requested = perSKU[answer.SKU]
		}
		if !answer.InStock || answer.AvailableQuantity < requested {
			short = append(short, d.InsufficientItem{
				BookID:    item.BookID,
				Requested: requested,
				Available: answer.AvailableQuantity,
			})
		}
	}
	if len(short) > 0 {
		return short, apperr.StockInsufficient("insufficient stock for %s", joinBookIDs(short))
	}
	return nil, nil
}

func joinBookIDs(items []d.InsufficientItem) string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.BookID)
	}
	sort.Strings(ids)
	return strings.Join(ids, ", ")
}
