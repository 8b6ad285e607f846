package grpc

import (
	"context"

	"github.com/fjod/go_bookstore/cart-service/internal/domain"
	s "github.com/fjod/go_bookstore/cart-service/internal/service"
	"github.com/fjod/go_bookstore/cart-service/pkg/cartapi"
)

const timeFormat string = "2006-01-02T15:04:05Z07:00"

type CartServiceServer struct {
	service *s.CartService
}

func NewCartServiceServer(service *s.CartService) *CartServiceServer {
	return &CartServiceServer{service: service}
}

var _ cartapi.CartServiceServer = (*CartServiceServer)(nil)

func convertCart(c *domain.Cart) *cartapi.Cart {
	cart := &cartapi.Cart{
		UserID:     c.UserID,
		Items:      make([]cartapi.CartItem, len(c.Items)),
		CouponCode: c.CouponCode,
		TotalItems: c.TotalItems(),
		TotalPrice: c.TotalPrice(),
		Version:    c.Version,
		CreatedAt:  c.CreatedAt.Format(timeFormat),
		UpdatedAt:  c.UpdatedAt.Format(timeFormat),
	}

	for i, item := range c.Items {
		cart.Items[i] = cartapi.CartItem{
			BookID:    item.BookID,
			Title:     item.Title,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Subtotal:  item.Subtotal(),
			AddedAt:   item.AddedAt.Format(timeFormat),
		}
	}

	return cart
}

func respond(c *domain.Cart, err error) (*cartapi.CartResponse, error) {
	if err != nil {
		return nil, err
	}
	return &cartapi.CartResponse{Cart: convertCart(c)}, nil
}

func (h *CartServiceServer) GetCart(ctx context.Context, req *cartapi.GetCartRequest) (*cartapi.CartResponse, error) {
	return respond(h.service.GetCart(ctx, req.UserID))
}

func (h *CartServiceServer) AddItem(ctx context.Context, req *cartapi.AddItemRequest) (*cartapi.CartResponse, error) {
	return respond(h.service.AddItem(ctx, req.UserID, s.AddItemInput{
		BookID:    req.BookID,
		Title:     req.Title,
		Quantity:  req.Quantity,
		UnitPrice: req.UnitPrice,
	}))
}

func (h *CartServiceServer) UpdateItem(ctx context.Context, req *cartapi.UpdateItemRequest) (*cartapi.CartResponse, error) {
	return respond(h.service.UpdateItem(ctx, req.UserID, s.UpdateItemInput{
		BookID:    req.BookID,
		Quantity:  req.Quantity,
		Title:     req.Title,
		UnitPrice: req.UnitPrice,
	}))
}

func (h *CartServiceServer) RemoveItem(ctx context.Context, req *cartapi.RemoveItemRequest) (*cartapi.CartResponse, error) {
	return respond(h.service.RemoveItem(ctx, req.UserID, req.BookID))
}

func (h *CartServiceServer) ClearCart(ctx context.Context, req *cartapi.ClearCartRequest) (*cartapi.CartResponse, error) {
	return respond(h.service.ClearCart(ctx, req.UserID))
}

func (h *CartServiceServer) ApplyCoupon(ctx context.Context, req *cartapi.ApplyCouponRequest) (*cartapi.CartResponse, error) {
	return respond(h.service.ApplyCoupon(ctx, req.UserID, req.Code))
}

func (h *CartServiceServer) RemoveCoupon(ctx context.Context, req *cartapi.RemoveCouponRequest) (*cartapi.CartResponse, error) {
	return respond(h.service.RemoveCoupon(ctx, req.UserID))
}

func (h *CartServiceServer) ClearIfVersion(ctx context.Context, req *cartapi.ClearIfVersionRequest) (*cartapi.ClearIfVersionResponse, error) {
	cleared, err := h.service.ClearIfVersion(ctx, req.UserID, req.Version)
	if err != nil {
		return nil, err
	}
	return &cartapi.ClearIfVersionResponse{Cleared: cleared}, nil
}
