package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/fjod/go_bookstore/pkg/apperr"
	"github.com/fjod/go_bookstore/pricing-service/pkg/pricingapi"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type PricingHandler struct {
	pricingClient pricingapi.PricingServiceClient
	timeout       time.Duration
}

func NewPricingHandler(client pricingapi.PricingServiceClient, timeout time.Duration) *PricingHandler {
	return &PricingHandler{
		pricingClient: client,
		timeout:       timeout,
	}
}

// GET /api/v1/coupons/{code}
func (h *PricingHandler) ValidateCoupon(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := outgoing(r, h.timeout)
	defer cancel()

	resp, err := h.pricingClient.ValidateCoupon(ctx, &pricingapi.ValidateCouponRequest{Code: chi.URLParam(r, "code")})
	if err != nil {
		handleGRPCError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// GET /api/v1/pricing/quote?bookId=&quantity=&coupon=&unitPrice=
func (h *PricingHandler) Quote(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := &pricingapi.QuoteRequest{
		BookID:     q.Get("bookId"),
		Quantity:   1,
		CouponCode: q.Get("coupon"),
	}
	if s := q.Get("quantity"); s != "" {
		n, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			respondError(w, http.StatusBadRequest, string(apperr.ReasonValidation), "quantity must be an integer")
			return
		}
		req.Quantity = int32(n)
	}
	if s := q.Get("unitPrice"); s != "" {
		price, err := decimal.NewFromString(s)
		if err != nil {
			respondError(w, http.StatusBadRequest, string(apperr.ReasonValidation), "unitPrice must be a decimal")
			return
		}
		req.UnitPrice = &price
	}

	ctx, cancel := outgoing(r, h.timeout)
	defer cancel()

	resp, err := h.pricingClient.Quote(ctx, req)
	if err != nil {
		handleGRPCError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}
