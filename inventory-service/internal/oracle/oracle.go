// Package oracle answers stock questions about books. It reconciles book ids
// with ledger SKUs and fails open for books the ledger has never heard of.
package oracle

import (
	"context"
	"errors"
	"strings"

	"github.com/fjod/go_bookstore/inventory-service/internal/domain"
	"github.com/fjod/go_bookstore/inventory-service/internal/store"
	"github.com/fjod/go_bookstore/pkg/apperr"
	"github.com/fjod/go_bookstore/pkg/logger"
	"github.com/fjod/go_bookstore/pkg/metrics"
	"go.uber.org/zap"
)

// LineRequest asks for quantity units of a book.
type LineRequest struct {
	BookID   string
	Quantity int32
}

// ReserveResult is a reservation plus the books that were not held because
// the ledger has no record for them.
type ReserveResult struct {
	Reservation *domain.Reservation
	Skipped     []string
}

type Oracle struct {
	store    store.InventoryStore
	resolver *Resolver
}

func New(st store.InventoryStore, resolver *Resolver) *Oracle {
	if resolver == nil {
		resolver = NewResolver(nil)
	}
	return &Oracle{store: st, resolver: resolver}
}

// lookupAll resolves every id in one ledger read. The returned map is keyed
// by the id as given.
func (o *Oracle) lookupAll(ctx context.Context, ids []string) (map[string]domain.StockLookup, map[string]string, error) {
	var all []string
	candidates := make(map[string][]string, len(ids))
	for _, id := range ids {
		if _, done := candidates[id]; done {
			continue
		}
		c := o.resolver.Candidates(id)
		candidates[id] = c
		all = append(all, c...)
	}

	records, err := o.store.GetStock(ctx, all)
	if err != nil {
		return nil, nil, apperr.Upstream(err, "read stock ledger")
	}
	bySKU := make(map[string]domain.StockRecord, len(records))
	for _, rec := range records {
		bySKU[rec.SKU] = rec
	}

	lookups := make(map[string]domain.StockLookup, len(candidates))
	skus := make(map[string]string, len(candidates))
	for id, cands := range candidates {
		lookups[id] = domain.DefaultAssumed()
		for _, sku := range cands {
			if rec, ok := bySKU[sku]; ok {
				lookups[id] = domain.Found(rec)
				skus[id] = sku
				break
			}
		}
	}
	return lookups, skus, nil
}

// CheckBatch reports in-stock status for each code that resolves to a ledger
// record. Codes with no record are omitted, never reported out of stock.
func (o *Oracle) CheckBatch(ctx context.Context, skuCodes []string) ([]domain.SKUStatus, error) {
	if len(skuCodes) == 0 {
		return []domain.SKUStatus{}, nil
	}
	lookups, _, err := o.lookupAll(ctx, skuCodes)
	if err != nil {
		return nil, err
	}

	out := make([]domain.SKUStatus, 0, len(skuCodes))
	for _, code := range skuCodes {
		l := lookups[code]
		if l.Source != domain.SourceFound {
			continue
		}
		out = append(out, domain.SKUStatus{SKU: code, IsInStock: l.Available() > 0})
	}
	return out, nil
}

// CheckForCart answers whether requested units of bookID can be sold. A book
// the ledger does not know is assumed in stock with DefaultAssumedQuantity.
func (o *Oracle) CheckForCart(ctx context.Context, bookID string, requested int32) (domain.CartStockCheck, error) {
	if strings.TrimSpace(bookID) == "" {
		return domain.CartStockCheck{}, apperr.Validation("bookId is required")
	}
	if requested <= 0 {
		return domain.CartStockCheck{}, apperr.Validation("quantity must be positive, got %d", requested)
	}

	lookups, skus, err := o.lookupAll(ctx, []string{bookID})
	if err != nil {
		return domain.CartStockCheck{}, err
	}
	l := lookups[bookID]

	if l.Source == domain.SourceDefaultAssumed {
		metrics.StockFailOpen.WithLabelValues(metrics.FailOpenMissingRecord).Inc()
		logger.FromContext(ctx).Debug("no stock record, assuming available",
			zap.String("book_id", bookID))
		return domain.CartStockCheck{
			BookID:            bookID,
			InStock:           true,
			AvailableQuantity: domain.DefaultAssumedQuantity,
			Source:            domain.SourceDefaultAssumed,
		}, nil
	}

	available := l.Available()
	return domain.CartStockCheck{
		BookID:            bookID,
		SKU:               skus[bookID],
		InStock:           available >= requested,
		AvailableQuantity: available,
		Source:            domain.SourceFound,
	}, nil
}

// Reserve holds stock for every line whose book resolves to a ledger record.
// Lines without a record are skipped and returned in Skipped. When nothing can
// be held the result carries no reservation.
func (o *Oracle) Reserve(ctx context.Context, checkoutID string, lines []LineRequest) (*ReserveResult, error) {
	if checkoutID == "" {
		return nil, apperr.Validation("checkoutId is required")
	}
	if len(lines) == 0 {
		return nil, apperr.Validation("at least one item is required")
	}
	ids := make([]string, len(lines))
	for i, line := range lines {
		if strings.TrimSpace(line.BookID) == "" {
			return nil, apperr.Validation("bookId is required")
		}
		if line.Quantity <= 0 {
			return nil, apperr.Validation("quantity must be positive for %s", line.BookID)
		}
		ids[i] = line.BookID
	}

	_, skus, err := o.lookupAll(ctx, ids)
	if err != nil {
		return nil, err
	}

	result := &ReserveResult{}
	items := make([]domain.ReservationItem, 0, len(lines))
	for _, line := range lines {
		sku, ok := skus[line.BookID]
		if !ok {
			result.Skipped = append(result.Skipped, line.BookID)
			continue
		}
		items = append(items, domain.ReservationItem{SKU: sku, Quantity: line.Quantity})
	}
	if len(items) == 0 {
		return result, nil
	}

	res, err := o.store.Reserve(ctx, checkoutID, items)
	if err != nil {
		return nil, mapStoreError(err)
	}
	result.Reservation = res

	logger.FromContext(ctx).Info("stock reserved",
		zap.String("reservation_id", res.ID),
		zap.String("checkout_id", checkoutID),
		zap.Int("items", len(items)),
		zap.Int("skipped", len(result.Skipped)))
	return result, nil
}

func (o *Oracle) Confirm(ctx context.Context, reservationID string) error {
	if reservationID == "" {
		return apperr.Validation("reservationId is required")
	}
	if err := o.store.Confirm(ctx, reservationID); err != nil {
		return mapStoreError(err)
	}
	return nil
}

func (o *Oracle) Release(ctx context.Context, reservationID string) error {
	if reservationID == "" {
		return apperr.Validation("reservationId is required")
	}
	if err := o.store.Release(ctx, reservationID); err != nil {
		return mapStoreError(err)
	}
	return nil
}

// mapStoreError converts store errors to the shared taxonomy
func mapStoreError(err error) error {
	switch {
	case errors.Is(err, store.ErrInsufficientStock):
		return apperr.StockInsufficient("insufficient stock")
	case errors.Is(err, store.ErrSKUNotFound):
		return apperr.NotFound("sku not found")
	case errors.Is(err, store.ErrReservationNotFound):
		return apperr.NotFound("reservation not found")
	case errors.Is(err, store.ErrReservationExpired):
		return apperr.StockInsufficient("reservation has expired")
	case errors.Is(err, store.ErrInvalidStatus):
		return apperr.StockInsufficient("reservation is no longer open")
	default:
		return apperr.Upstream(err, "stock ledger")
	}
}
