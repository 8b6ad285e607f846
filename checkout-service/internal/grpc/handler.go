package grpc

import (
	"context"

	d "github.com/fjod/go_bookstore/checkout-service/domain"
	s "github.com/fjod/go_bookstore/checkout-service/internal/service"
	"github.com/fjod/go_bookstore/checkout-service/pkg/checkoutapi"
)

type CheckoutServiceServer struct {
	service s.CheckoutService
}

func NewCheckoutServiceServer(service s.CheckoutService) *CheckoutServiceServer {
	return &CheckoutServiceServer{
		service: service,
	}
}

var _ checkoutapi.CheckoutServiceServer = (*CheckoutServiceServer)(nil)

func (h *CheckoutServiceServer) Checkout(ctx context.Context, req *checkoutapi.CheckoutRequest) (*checkoutapi.CheckoutResponse, error) {
	res, err := h.service.Checkout(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	return convertResult(res), nil
}

func convertResult(res *d.CheckoutResult) *checkoutapi.CheckoutResponse {
	var short []checkoutapi.InsufficientItem
	for _, item := range res.InsufficientItems {
		short = append(short, checkoutapi.InsufficientItem{
			BookID:    item.BookID,
			Requested: item.Requested,
			Available: item.Available,
		})
	}
	return &checkoutapi.CheckoutResponse{
		Success:           res.Success,
		OrderID:           res.OrderID,
		Message:           res.Message,
		Reason:            res.Reason,
		Status:            res.Status.String(),
		Total:             res.Total,
		Discount:          res.Discount,
		InsufficientItems: short,
	}
}
