// Package ordersapi is the wire contract of the order ledger and the payload
// of the events it publishes. Money travels as decimal strings.
package ordersapi

import (
	"context"
	"time"

	"github.com/fjod/go_bookstore/pkg/rpc"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
)

const ServiceName = "bookstore.orders.v1.OrdersService"

// TopicOrdersCreated carries OrderCreatedEvent values keyed by user id.
const TopicOrdersCreated = "orders.created"

const EventTypeOrderCreated = "orders.created"

type OrderCreatedEvent struct {
	OrderID     string          `json:"orderId"`
	CheckoutID  string          `json:"checkoutId"`
	UserID      string          `json:"userId"`
	CartVersion int64           `json:"cartVersion"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Currency    string          `json:"currency"`
	CreatedAt   time.Time       `json:"createdAt"`
}

type OrderItem struct {
	BookID    string          `json:"bookId"`
	Title     string          `json:"title"`
	Quantity  int32           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

type Order struct {
	OrderID     string          `json:"orderId"`
	CheckoutID  string          `json:"checkoutId"`
	UserID      string          `json:"userId"`
	Items       []OrderItem     `json:"items"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Discount    decimal.Decimal `json:"discount"`
	CouponCode  string          `json:"couponCode,omitempty"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Currency    string          `json:"currency"`
	Status      string          `json:"status"`
	CreatedAt   string          `json:"createdAt"`
}

// CreateOrderRequest is idempotent on CheckoutID. CartVersion is the cart
// version the snapshot was taken at; it is passed on in the created event.
type CreateOrderRequest struct {
	CheckoutID  string          `json:"checkoutId"`
	UserID      string          `json:"userId"`
	Items       []OrderItem     `json:"items"`
	Discount    decimal.Decimal `json:"discount"`
	CouponCode  string          `json:"couponCode,omitempty"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	CartVersion int64           `json:"cartVersion,omitempty"`
}

// CreateOrderResponse has Created false when the checkout already had an order.
type CreateOrderResponse struct {
	Order   *Order `json:"order"`
	Created bool   `json:"created"`
}

type GetOrderRequest struct {
	OrderID string `json:"orderId"`
}

type GetOrderResponse struct {
	Order *Order `json:"order"`
}

type ListOrdersRequest struct {
	UserID string `json:"userId"`
}

type ListOrdersResponse struct {
	Orders []*Order `json:"orders"`
}

type OrdersServiceServer interface {
	CreateOrder(context.Context, *CreateOrderRequest) (*CreateOrderResponse, error)
	GetOrder(context.Context, *GetOrderRequest) (*GetOrderResponse, error)
	ListOrders(context.Context, *ListOrdersRequest) (*ListOrdersResponse, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*OrdersServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		rpc.Unary(ServiceName, "CreateOrder", OrdersServiceServer.CreateOrder),
		rpc.Unary(ServiceName, "GetOrder", OrdersServiceServer.GetOrder),
		rpc.Unary(ServiceName, "ListOrders", OrdersServiceServer.ListOrders),
	},
}

func RegisterOrdersServiceServer(s grpc.ServiceRegistrar, srv OrdersServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

type OrdersServiceClient interface {
	CreateOrder(ctx context.Context, in *CreateOrderRequest, opts ...grpc.CallOption) (*CreateOrderResponse, error)
	GetOrder(ctx context.Context, in *GetOrderRequest, opts ...grpc.CallOption) (*GetOrderResponse, error)
	ListOrders(ctx context.Context, in *ListOrdersRequest, opts ...grpc.CallOption) (*ListOrdersResponse, error)
}

type ordersServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewOrdersServiceClient(cc grpc.ClientConnInterface) OrdersServiceClient {
	return &ordersServiceClient{cc: cc}
}

func (c *ordersServiceClient) CreateOrder(ctx context.Context, in *CreateOrderRequest, opts ...grpc.CallOption) (*CreateOrderResponse, error) {
	return rpc.Invoke[CreateOrderRequest, CreateOrderResponse](ctx, c.cc, ServiceName, "CreateOrder", in, opts...)
}

func (c *ordersServiceClient) GetOrder(ctx context.Context, in *GetOrderRequest, opts ...grpc.CallOption) (*GetOrderResponse, error) {
	return rpc.Invoke[GetOrderRequest, GetOrderResponse](ctx, c.cc, ServiceName, "GetOrder", in, opts...)
}

func (c *ordersServiceClient) ListOrders(ctx context.Context, in *ListOrdersRequest, opts ...grpc.CallOption) (*ListOrdersResponse, error) {
	return rpc.Invoke[ListOrdersRequest, ListOrdersResponse](ctx, c.cc, ServiceName, "ListOrders", in, opts...)
}
