package service

import (
	"context"

	"github.com/fjod/go_bookstore/orders-service/pkg/ordersapi"
	"github.com/fjod/go_bookstore/pkg/apperr"
	"go.opentelemetry.io/otel/attribute"
)

func (s *CheckoutServiceImpl) createOrder(ctx context.Context, c *checkout) (string, error) {
	ctx, span := tracer.Start(ctx, "checkout.create_order")
	defer span.End()
	span.SetAttributes(attribute.String("checkout.id", c.id))

	items := make([]ordersapi.OrderItem, 0, len(c.snapshot.Items))
	for _, item := range c.snapshot.Items {
		items = append(items, ordersapi.OrderItem{
			BookID:    item.BookID,
			Title:     item.Title,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	couponCode := ""
	if c.discount.IsPositive() {
		couponCode = c.snapshot.CouponCode
	}

	resp, err := s.orders.create(ctx, &ordersapi.CreateOrderRequest{
		CheckoutID:  c.id,
		UserID:      c.userID,
		Items:       items,
		Discount:    c.discount,
		CouponCode:  couponCode,
		TotalAmount: c.total,
		CartVersion: c.snapshot.Version,
	})
	if err != nil {
		return "", apperr.OrderCreation(err, "create order")
	}
	if resp.Order == nil {
		return "", apperr.OrderCreation(nil, "order service returned no order")
	}
	return resp.Order.OrderID, nil
}
