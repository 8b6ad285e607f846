package grpc

import (
	"context"
	"time"

	"github.com/fjod/go_bookstore/orders-service/internal/domain"
	"github.com/fjod/go_bookstore/orders-service/internal/ledger"
	"github.com/fjod/go_bookstore/orders-service/pkg/ordersapi"
)

type OrdersHandler struct {
	ledger *ledger.Ledger
}

func NewOrdersHandler(l *ledger.Ledger) *OrdersHandler {
	return &OrdersHandler{ledger: l}
}

var _ ordersapi.OrdersServiceServer = (*OrdersHandler)(nil)

func (h *OrdersHandler) CreateOrder(ctx context.Context, req *ordersapi.CreateOrderRequest) (*ordersapi.CreateOrderResponse, error) {
	items := make([]domain.OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, domain.OrderItem{
			BookID:    item.BookID,
			Title:     item.Title,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	order, created, err := h.ledger.Create(ctx, ledger.CreateInput{
		CheckoutID:  req.CheckoutID,
		UserID:      req.UserID,
		Items:       items,
		Discount:    req.Discount,
		CouponCode:  req.CouponCode,
		TotalAmount: req.TotalAmount,
		CartVersion: req.CartVersion,
	})
	if err != nil {
		return nil, err
	}
	return &ordersapi.CreateOrderResponse{Order: convertOrder(order), Created: created}, nil
}

func (h *OrdersHandler) GetOrder(ctx context.Context, req *ordersapi.GetOrderRequest) (*ordersapi.GetOrderResponse, error) {
	order, err := h.ledger.GetByID(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	return &ordersapi.GetOrderResponse{Order: convertOrder(order)}, nil
}

func (h *OrdersHandler) ListOrders(ctx context.Context, req *ordersapi.ListOrdersRequest) (*ordersapi.ListOrdersResponse, error) {
	orders, err := h.ledger.ListByUser(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	out := make([]*ordersapi.Order, 0, len(orders))
	for _, o := range orders {
		out = append(out, convertOrder(o))
	}
	return &ordersapi.ListOrdersResponse{Orders: out}, nil
}

func convertOrder(order *domain.Order) *ordersapi.Order {
	items := make([]ordersapi.OrderItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, ordersapi.OrderItem{
			BookID:    item.BookID,
			Title:     item.Title,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	return &ordersapi.Order{
		OrderID:     order.ID.String(),
		CheckoutID:  order.CheckoutID.String(),
		UserID:      order.UserID,
		Items:       items,
		Subtotal:    order.Subtotal,
		Discount:    order.Discount,
		CouponCode:  order.CouponCode,
		TotalAmount: order.TotalAmount,
		Currency:    order.Currency,
		Status:      string(order.Status),
		CreatedAt:   order.CreatedAt.Format(time.RFC3339),
	}
}
