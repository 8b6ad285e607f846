package http

import (
	"net/http"
	"time"

	"github.com/fjod/go_bookstore/checkout-service/pkg/checkoutapi"
	"github.com/fjod/go_bookstore/pkg/apperr"
)

type CheckoutHandler struct {
	checkoutClient checkoutapi.CheckoutServiceClient
	timeout        time.Duration
}

func NewCheckoutHandler(client checkoutapi.CheckoutServiceClient, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutClient: client,
		timeout:        timeout,
	}
}

// CheckoutFailureDTO is the error body of an unsuccessful checkout. It keeps
// the {error, code, details} shape and adds the checkout outcome.
type CheckoutFailureDTO struct {
	ErrorResponse
	Success           bool                           `json:"success"`
	Reason            string                         `json:"reason"`
	Message           string                         `json:"message"`
	Status            string                         `json:"status"`
	InsufficientItems []checkoutapi.InsufficientItem `json:"insufficientItems,omitempty"`
}

// POST /api/v1/cart/checkout
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	ctx, cancel := outgoing(r, h.timeout)
	defer cancel()

	resp, err := h.checkoutClient.Checkout(ctx, &checkoutapi.CheckoutRequest{UserID: userID})
	if err != nil {
		handleGRPCError(w, err)
		return
	}

	if resp.Success {
		respondJSON(w, http.StatusCreated, resp)
		return
	}

	respondJSON(w, statusForReason(apperr.Reason(resp.Reason)), CheckoutFailureDTO{
		ErrorResponse: ErrorResponse{
			Error:   resp.Message,
			Code:    resp.Reason,
			Details: resp.Status,
		},
		Success:           false,
		Reason:            resp.Reason,
		Message:           resp.Message,
		Status:            resp.Status,
		InsufficientItems: resp.InsufficientItems,
	})
}
