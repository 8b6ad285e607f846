// Package evaluator validates coupons and prices books.
package evaluator

import (
	"context"
	"errors"
	"strings"

	"github.com/fjod/go_bookstore/pkg/apperr"
	"github.com/fjod/go_bookstore/pricing-service/internal/domain"
	"github.com/fjod/go_bookstore/pricing-service/internal/repository"
	"github.com/shopspring/decimal"
)

// PriceList looks up list prices.
type PriceList interface {
	GetPrice(ctx context.Context, bookID string) (*domain.BookPrice, error)
}

type Evaluator struct {
	prices  PriceList
	coupons map[string]domain.Coupon
}

func New(prices PriceList) *Evaluator {
	return &Evaluator{prices: prices, coupons: domain.Coupons}
}

// Validate looks a coupon up. An unknown code is invalid, not an error.
func (e *Evaluator) Validate(code string) (domain.CouponValidation, error) {
	normalized := domain.NormalizeCode(code)
	if normalized == "" {
		return domain.CouponValidation{}, apperr.Validation("coupon code is required")
	}

	c, ok := e.coupons[normalized]
	if !ok {
		return domain.CouponValidation{
			Code:           normalized,
			DiscountAmount: decimal.Zero,
		}, nil
	}
	return domain.CouponValidation{
		Code:            c.Code,
		Valid:           true,
		Kind:            c.Kind,
		DiscountAmount:  c.Amount,
		DiscountPercent: c.Percent,
	}, nil
}

// QuoteRequest prices Quantity units of BookID. UnitPrice, when set, replaces
// the list price; CouponCode is optional.
type QuoteRequest struct {
	BookID     string
	Quantity   int32
	CouponCode string
	UnitPrice  *decimal.Decimal
}

func (e *Evaluator) Quote(ctx context.Context, req QuoteRequest) (domain.Quote, error) {
	if strings.TrimSpace(req.BookID) == "" {
		return domain.Quote{}, apperr.Validation("bookId is required")
	}
	if req.Quantity <= 0 {
		return domain.Quote{}, apperr.Validation("quantity must be positive, got %d", req.Quantity)
	}

	var unit decimal.Decimal
	if req.UnitPrice != nil {
		if req.UnitPrice.IsNegative() {
			return domain.Quote{}, apperr.Validation("unitPrice must not be negative")
		}
		unit = *req.UnitPrice
	} else {
		listed, err := e.prices.GetPrice(ctx, req.BookID)
		if errors.Is(err, repository.ErrPriceNotFound) {
			return domain.Quote{}, apperr.NotFound("no price for book %s", req.BookID)
		}
		if err != nil {
			return domain.Quote{}, apperr.Upstream(err, "price list")
		}
		unit = listed.Price
	}

	q := domain.Quote{
		BookID:    req.BookID,
		Quantity:  req.Quantity,
		UnitPrice: unit,
		Price:     unit.Mul(decimal.NewFromInt32(req.Quantity)),
		Discount:  decimal.Zero,
	}
	q.Total = q.Price

	if strings.TrimSpace(req.CouponCode) != "" {
		v, err := e.Validate(req.CouponCode)
		if err != nil {
			return domain.Quote{}, err
		}
		q.CouponCode = v.Code
		q.CouponValid = v.Valid
		if v.Valid {
			q.Discount, q.Total = v.Apply(q.Price)
		}
	}
	return q, nil
}
