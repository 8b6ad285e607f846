// Package pricingapi is the wire contract of the coupon and pricing evaluator.
// Money travels as decimal strings.
package pricingapi

import (
	"context"

	"github.com/fjod/go_bookstore/pkg/rpc"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
)

const ServiceName = "bookstore.pricing.v1.PricingService"

// Coupon kinds. A PERCENT coupon discounts DiscountPercent of the subtotal,
// any other valid coupon discounts DiscountAmount.
const (
	CouponKindFlat    = "FLAT"
	CouponKindPercent = "PERCENT"
)

type ValidateCouponRequest struct {
	Code string `json:"code"`
}

type ValidateCouponResponse struct {
	Code            string          `json:"code"`
	Valid           bool            `json:"valid"`
	Kind            string          `json:"kind,omitempty"`
	DiscountAmount  decimal.Decimal `json:"discountAmount"`
	DiscountPercent int32           `json:"discountPercent"`
}

type QuoteRequest struct {
	BookID     string           `json:"bookId"`
	Quantity   int32            `json:"quantity"`
	CouponCode string           `json:"couponCode,omitempty"`
	UnitPrice  *decimal.Decimal `json:"unitPrice,omitempty"`
}

type QuoteResponse struct {
	BookID      string          `json:"bookId"`
	Quantity    int32           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Price       decimal.Decimal `json:"price"`
	Discount    decimal.Decimal `json:"discount"`
	Total       decimal.Decimal `json:"total"`
	CouponCode  string          `json:"couponCode,omitempty"`
	CouponValid bool            `json:"couponValid"`
}

type PricingServiceServer interface {
	ValidateCoupon(context.Context, *ValidateCouponRequest) (*ValidateCouponResponse, error)
	Quote(context.Context, *QuoteRequest) (*QuoteResponse, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PricingServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		rpc.Unary(ServiceName, "ValidateCoupon", PricingServiceServer.ValidateCoupon),
		rpc.Unary(ServiceName, "Quote", PricingServiceServer.Quote),
	},
}

func RegisterPricingServiceServer(s grpc.ServiceRegistrar, srv PricingServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

type PricingServiceClient interface {
	ValidateCoupon(ctx context.Context, in *ValidateCouponRequest, opts ...grpc.CallOption) (*ValidateCouponResponse, error)
	Quote(ctx context.Context, in *QuoteRequest, opts ...grpc.CallOption) (*QuoteResponse, error)
}

type pricingServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewPricingServiceClient(cc grpc.ClientConnInterface) PricingServiceClient {
	return &pricingServiceClient{cc: cc}
}

func (c *pricingServiceClient) ValidateCoupon(ctx context.Context, in *ValidateCouponRequest, opts ...grpc.CallOption) (*ValidateCouponResponse, error) {
	return rpc.Invoke[ValidateCouponRequest, ValidateCouponResponse](ctx, c.cc, ServiceName, "ValidateCoupon", in, opts...)
}

func (c *pricingServiceClient) Quote(ctx context.Context, in *QuoteRequest, opts ...grpc.CallOption) (*QuoteResponse, error) {
	return rpc.Invoke[QuoteRequest, QuoteResponse](ctx, c.cc, ServiceName, "Quote", in, opts...)
}
