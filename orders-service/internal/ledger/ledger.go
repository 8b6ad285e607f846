// Package ledger records orders. Each checkout yields at most one order.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/fjod/go_bookstore/orders-service/internal/domain"
	"github.com/fjod/go_bookstore/orders-service/internal/repository"
	"github.com/fjod/go_bookstore/orders-service/pkg/ordersapi"
	"github.com/fjod/go_bookstore/pkg/apperr"
	"github.com/fjod/go_bookstore/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Ledger struct {
	repo repository.OrderRepository
	now  func() time.Time
}

func New(repo repository.OrderRepository) *Ledger {
	return &Ledger{repo: repo, now: time.Now}
}

type CreateInput struct {
	CheckoutID  string
	UserID      string
	Items       []domain.OrderItem
	Discount    decimal.Decimal
	CouponCode  string
	TotalAmount decimal.Decimal
	CartVersion int64
}

func (in CreateInput) validate() (uuid.UUID, error) {
	checkoutID, err := uuid.Parse(in.CheckoutID)
	if err != nil {
		return uuid.Nil, apperr.Validation("checkoutId %q is not a uuid", in.CheckoutID)
	}
	if strings.TrimSpace(in.UserID) == "" {
		return uuid.Nil, apperr.Validation("userId is required")
	}
	if len(in.Items) == 0 {
		return uuid.Nil, apperr.Validation("an order needs at least one item")
	}
	for _, item := range in.Items {
		if strings.TrimSpace(item.BookID) == "" {
			return uuid.Nil, apperr.Validation("item without bookId")
		}
		if item.Quantity <= 0 {
			return uuid.Nil, apperr.Validation("quantity for %s must be positive, got %d", item.BookID, item.Quantity)
		}
		if item.UnitPrice.IsNegative() {
			return uuid.Nil, apperr.Validation("unit price for %s is negative", item.BookID)
		}
	}
	if in.Discount.IsNegative() {
		return uuid.Nil, apperr.Validation("discount is negative")
	}
	if in.TotalAmount.IsNegative() {
		return uuid.Nil, apperr.Validation("total amount is negative")
	}
	return checkoutID, nil
}

// Create records the order and queues its orders.created event. Repeating
// a create for the same checkout returns the order already recorded, with
// created false.
func (l *Ledger) Create(ctx context.Context, in CreateInput) (*domain.Order, bool, error) {
	checkoutID, err := in.validate()
	if err != nil {
		return nil, false, err
	}

	order := &domain.Order{
		ID:          uuid.New(),
		CheckoutID:  checkoutID,
		UserID:      in.UserID,
		Items:       append([]domain.OrderItem(nil), in.Items...),
		Subtotal:    domain.SubtotalOf(in.Items),
		Discount:    in.Discount,
		CouponCode:  in.CouponCode,
		TotalAmount: in.TotalAmount,
		Currency:    domain.DefaultCurrency,
		Status:      domain.OrderStatusConfirmed,
		CreatedAt:   l.now().UTC().Truncate(time.Microsecond),
	}

	payload, err := json.Marshal(ordersapi.OrderCreatedEvent{
		OrderID:     order.ID.String(),
		CheckoutID:  order.CheckoutID.String(),
		UserID:      order.UserID,
		CartVersion: in.CartVersion,
		TotalAmount: order.TotalAmount,
		Currency:    order.Currency,
		CreatedAt:   order.CreatedAt,
	})
	if err != nil {
		return nil, false, err
	}
	event := &repository.OutboxEvent{
		AggregateID: order.UserID,
		EventType:   ordersapi.EventTypeOrderCreated,
		Payload:     payload,
	}

	err = l.repo.CreateOrder(ctx, order, event)
	if errors.Is(err, repository.ErrDuplicateCheckout) {
		existing, errGet := l.repo.GetOrderByCheckoutID(ctx, checkoutID)
		if errGet != nil {
			return nil, false, apperr.Upstream(errGet, "load order for checkout %s", checkoutID)
		}
		logger.FromContext(ctx).Info("order already recorded for checkout",
			zap.String("checkout_id", checkoutID.String()),
			zap.String("order_id", existing.ID.String()))
		return existing, false, nil
	}
	if err != nil {
		return nil, false, apperr.Upstream(err, "store order")
	}

	logger.FromContext(ctx).Info("order recorded",
		zap.String("order_id", order.ID.String()),
		zap.String("checkout_id", checkoutID.String()),
		zap.String("user_id", order.UserID),
		zap.String("total", order.TotalAmount.StringFixed(2)))
	return order, true, nil
}

func (l *Ledger) GetByID(ctx context.Context, orderID string) (*domain.Order, error) {
	id, err := uuid.Parse(orderID)
	if err != nil {
		return nil, apperr.Validation("orderId %q is not a uuid", orderID)
	}
	order, err := l.repo.GetOrderByID(ctx, id)
	if errors.Is(err, repository.ErrOrderNotFound) {
		return nil, apperr.NotFound("order %s not found", orderID)
	}
	if err != nil {
		return nil, apperr.Upstream(err, "load order")
	}
	return order, nil
}

// ListByUser returns the user's orders, newest first.
func (l *Ledger) ListByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperr.Validation("userId is required")
	}
	orders, err := l.repo.ListOrdersByUserID(ctx, userID)
	if err != nil {
		return nil, apperr.Upstream(err, "list orders")
	}
	return orders, nil
}
