// Package cartapi is the wire contract of the cart store. Money travels as
// decimal strings.
package cartapi

import (
	"context"

	"github.com/fjod/go_bookstore/pkg/rpc"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
)

const ServiceName = "bookstore.cart.v1.CartService"

type CartItem struct {
	BookID    string          `json:"bookId"`
	Title     string          `json:"title"`
	Quantity  int32           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	AddedAt   string          `json:"addedAt"`
}

// Cart is a cart with its derived totals. Version is 0 for a cart that has
// never been saved.
type Cart struct {
	UserID     string          `json:"userId"`
	Items      []CartItem      `json:"items"`
	CouponCode string          `json:"couponCode,omitempty"`
	TotalItems int64           `json:"totalItems"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	Version    int64           `json:"version"`
	CreatedAt  string          `json:"createdAt"`
	UpdatedAt  string          `json:"updatedAt"`
}

type CartResponse struct {
	Cart *Cart `json:"cart"`
}

type GetCartRequest struct {
	UserID string `json:"userId"`
}

type AddItemRequest struct {
	UserID    string          `json:"userId"`
	BookID    string          `json:"bookId"`
	Title     string          `json:"title"`
	Quantity  int32           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

type UpdateItemRequest struct {
	UserID    string           `json:"userId"`
	BookID    string           `json:"bookId"`
	Quantity  int32            `json:"quantity"`
	Title     *string          `json:"title,omitempty"`
	UnitPrice *decimal.Decimal `json:"unitPrice,omitempty"`
}

type RemoveItemRequest struct {
	UserID string `json:"userId"`
	BookID string `json:"bookId"`
}

type ClearCartRequest struct {
	UserID string `json:"userId"`
}

type ApplyCouponRequest struct {
	UserID string `json:"userId"`
	Code   string `json:"code"`
}

type RemoveCouponRequest struct {
	UserID string `json:"userId"`
}

type ClearIfVersionRequest struct {
	UserID  string `json:"userId"`
	Version int64  `json:"version"`
}

type ClearIfVersionResponse struct {
	Cleared bool `json:"cleared"`
}

type CartServiceServer interface {
	GetCart(context.Context, *GetCartRequest) (*CartResponse, error)
	AddItem(context.Context, *AddItemRequest) (*CartResponse, error)
	UpdateItem(context.Context, *UpdateItemRequest) (*CartResponse, error)
	RemoveItem(context.Context, *RemoveItemRequest) (*CartResponse, error)
	ClearCart(context.Context, *ClearCartRequest) (*CartResponse, error)
	ApplyCoupon(context.Context, *ApplyCouponRequest) (*CartResponse, error)
	RemoveCoupon(context.Context, *RemoveCouponRequest) (*CartResponse, error)
	ClearIfVersion(context.Context, *ClearIfVersionRequest) (*ClearIfVersionResponse, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CartServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		rpc.Unary(ServiceName, "GetCart", CartServiceServer.GetCart),
		rpc.Unary(ServiceName, "AddItem", CartServiceServer.AddItem),
		rpc.Unary(ServiceName, "UpdateItem", CartServiceServer.UpdateItem),
		rpc.Unary(ServiceName, "RemoveItem", CartServiceServer.RemoveItem),
		rpc.Unary(ServiceName, "ClearCart", CartServiceServer.ClearCart),
		rpc.Unary(ServiceName, "ApplyCoupon", CartServiceServer.ApplyCoupon),
		rpc.Unary(ServiceName, "RemoveCoupon", CartServiceServer.RemoveCoupon),
		rpc.Unary(ServiceName, "ClearIfVersion", CartServiceServer.ClearIfVersion),
	},
}

func RegisterCartServiceServer(s grpc.ServiceRegistrar, srv CartServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

type CartServiceClient interface {
	GetCart(ctx context.Context, in *GetCartRequest, opts ...grpc.CallOption) (*CartResponse, error)
	AddItem(ctx context.Context, in *AddItemRequest, opts ...grpc.CallOption) (*CartResponse, error)
	UpdateItem(ctx context.Context, in *UpdateItemRequest, opts ...grpc.CallOption) (*CartResponse, error)
	RemoveItem(ctx context.Context, in *RemoveItemRequest, opts ...grpc.CallOption) (*CartResponse, error)
	ClearCart(ctx context.Context, in *ClearCartRequest, opts ...grpc.CallOption) (*CartResponse, error)
	ApplyCoupon(ctx context.Context, in *ApplyCouponRequest, opts ...grpc.CallOption) (*CartResponse, error)
	RemoveCoupon(ctx context.Context, in *RemoveCouponRequest, opts ...grpc.CallOption) (*CartResponse, error)
	ClearIfVersion(ctx context.Context, in *ClearIfVersionRequest, opts ...grpc.CallOption) (*ClearIfVersionResponse, error)
}

type cartServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewCartServiceClient(cc grpc.ClientConnInterface) CartServiceClient {
	return &cartServiceClient{cc: cc}
}

func (c *cartServiceClient) GetCart(ctx context.Context, in *GetCartRequest, opts ...grpc.CallOption) (*CartResponse, error) {
	return rpc.Invoke[GetCartRequest, CartResponse](ctx, c.cc, ServiceName, "GetCart", in, opts...)
}

func (c *cartServiceClient) AddItem(ctx context.Context, in *AddItemRequest, opts ...grpc.CallOption) (*CartResponse, error) {
	return rpc.Invoke[AddItemRequest, CartResponse](ctx, c.cc, ServiceName, "AddItem", in, opts...)
}

func (c *cartServiceClient) UpdateItem(ctx context.Context, in *UpdateItemRequest, opts ...grpc.CallOption) (*CartResponse, error) {
	return rpc.Invoke[UpdateItemRequest, CartResponse](ctx, c.cc, ServiceName, "UpdateItem", in, opts...)
}

func (c *cartServiceClient) RemoveItem(ctx context.Context, in *RemoveItemRequest, opts ...grpc.CallOption) (*CartResponse, error) {
	return rpc.Invoke[RemoveItemRequest, CartResponse](ctx, c.cc, ServiceName, "RemoveItem", in, opts...)
}

func (c *cartServiceClient) ClearCart(ctx context.Context, in *ClearCartRequest, opts ...grpc.CallOption) (*CartResponse, error) {
	return rpc.Invoke[ClearCartRequest, CartResponse](ctx, c.cc, ServiceName, "ClearCart", in, opts...)
}

func (c *cartServiceClient) ApplyCoupon(ctx context.Context, in *ApplyCouponRequest, opts ...grpc.CallOption) (*CartResponse, error) {
	return rpc.Invoke[ApplyCouponRequest, CartResponse](ctx, c.cc, ServiceName, "ApplyCoupon", in, opts...)
}

func (c *cartServiceClient) RemoveCoupon(ctx context.Context, in *RemoveCouponRequest, opts ...grpc.CallOption) (*CartResponse, error) {
	return rpc.Invoke[RemoveCouponRequest, CartResponse](ctx, c.cc, ServiceName, "RemoveCoupon", in, opts...)
}

func (c *cartServiceClient) ClearIfVersion(ctx context.Context, in *ClearIfVersionRequest, opts ...grpc.CallOption) (*ClearIfVersionResponse, error) {
	return rpc.Invoke[ClearIfVersionRequest, ClearIfVersionResponse](ctx, c.cc, ServiceName, "ClearIfVersion", in, opts...)
}
