// Package checkoutapi is the wire contract of the checkout orchestrator.
package checkoutapi

import (
	"context"

	"github.com/fjod/go_bookstore/pkg/rpc"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
)

const ServiceName = "bookstore.checkout.v1.CheckoutService"

type CheckoutRequest struct {
	UserID string `json:"userId"`
}

type InsufficientItem struct {
	BookID    string `json:"bookId"`
	Requested int32  `json:"requested"`
	Available int32  `json:"available"`
}

// CheckoutResponse reports business failures with Success false and a
// stable Reason rather than as an RPC error.
type CheckoutResponse struct {
	Success           bool               `json:"success"`
	OrderID           string             `json:"orderId,omitempty"`
	Message           string             `json:"message"`
	Reason            string             `json:"reason,omitempty"`
	Status            string             `json:"status"`
	Total             decimal.Decimal    `json:"total"`
	Discount          decimal.Decimal    `json:"discount"`
	InsufficientItems []InsufficientItem `json:"insufficientItems,omitempty"`
}

type CheckoutServiceServer interface {
	Checkout(context.Context, *CheckoutRequest) (*CheckoutResponse, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CheckoutServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		rpc.Unary(ServiceName, "Checkout", CheckoutServiceServer.Checkout),
	},
}

func RegisterCheckoutServiceServer(s grpc.ServiceRegistrar, srv CheckoutServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

type CheckoutServiceClient interface {
	Checkout(ctx context.Context, in *CheckoutRequest, opts ...grpc.CallOption) (*CheckoutResponse, error)
}

type checkoutServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewCheckoutServiceClient(cc grpc.ClientConnInterface) CheckoutServiceClient {
	return &checkoutServiceClient{cc: cc}
}

func (c *checkoutServiceClient) Checkout(ctx context.Context, in *CheckoutRequest, opts ...grpc.CallOption) (*CheckoutResponse, error) {
	return rpc.Invoke[CheckoutRequest, CheckoutResponse](ctx, c.cc, ServiceName, "Checkout", in, opts...)
}
