package grpc

import (
	"context"

	"github.com/fjod/go_bookstore/pricing-service/internal/evaluator"
	"github.com/fjod/go_bookstore/pricing-service/pkg/pricingapi"
)

// PricingServiceServer implements the gRPC PricingService
type PricingServiceServer struct {
	evaluator *evaluator.Evaluator
}

func NewPricingServiceServer(e *evaluator.Evaluator) *PricingServiceServer {
	return &PricingServiceServer{evaluator: e}
}

var _ pricingapi.PricingServiceServer = (*PricingServiceServer)(nil)

func (s *PricingServiceServer) ValidateCoupon(_ context.Context, req *pricingapi.ValidateCouponRequest) (*pricingapi.ValidateCouponResponse, error) {
	v, err := s.evaluator.Validate(req.Code)
	if err != nil {
		return nil, err
	}
	return &pricingapi.ValidateCouponResponse{
		Code:            v.Code,
		Valid:           v.Valid,
		Kind:            string(v.Kind),
		DiscountAmount:  v.DiscountAmount,
		DiscountPercent: v.DiscountPercent,
	}, nil
}

func (s *PricingServiceServer) Quote(ctx context.Context, req *pricingapi.QuoteRequest) (*pricingapi.QuoteResponse, error) {
	q, err := s.evaluator.Quote(ctx, evaluator.QuoteRequest{
		BookID:     req.BookID,
		Quantity:   req.Quantity,
		CouponCode: req.CouponCode,
		UnitPrice:  req.UnitPrice,
	})
	if err != nil {
		return nil, err
	}
	return &pricingapi.QuoteResponse{
		BookID:      q.BookID,
		Quantity:    q.Quantity,
		UnitPrice:   q.UnitPrice,
		Price:       q.Price,
		Discount:    q.Discount,
		Total:       q.Total,
		CouponCode:  q.CouponCode,
		CouponValid: q.CouponValid,
	}, nil
}
