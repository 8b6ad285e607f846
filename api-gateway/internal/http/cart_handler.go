package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/fjod/go_bookstore/cart-service/pkg/cartapi"
	"github.com/fjod/go_bookstore/pkg/apperr"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type CartHandler struct {
	cartClient cartapi.CartServiceClient
	timeout    time.Duration
}

func NewCartHandler(cartClient cartapi.CartServiceClient, timeout time.Duration) *CartHandler {
	return &CartHandler{
		cartClient: cartClient,
		timeout:    timeout,
	}
}

type AddItemRequestDTO struct {
	BookID    string          `json:"bookId"`
	Title     string          `json:"title"`
	Quantity  int32           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

type UpdateItemRequestDTO struct {
	Quantity  int32            `json:"quantity"`
	Title     *string          `json:"title,omitempty"`
	UnitPrice *decimal.Decimal `json:"unitPrice,omitempty"`
}

type ApplyCouponRequestDTO struct {
	Code string `json:"code"`
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	ctx, cancel := outgoing(r, h.timeout)
	defer cancel()

	resp, err := h.cartClient.GetCart(ctx, &cartapi.GetCartRequest{UserID: userID})
	if err != nil {
		handleGRPCError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp.Cart)
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req AddItemRequestDTO
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.BookID) == "" {
		respondError(w, http.StatusBadRequest, string(apperr.ReasonValidation), "bookId is required")
		return
	}
	if req.Quantity <= 0 {
		respondError(w, http.StatusBadRequest, string(apperr.ReasonValidation), "quantity must be positive")
		return
	}

	ctx, cancel := outgoing(r, h.timeout)
	defer cancel()

	resp, err := h.cartClient.AddItem(ctx, &cartapi.AddItemRequest{
		UserID:    userID,
		BookID:    req.BookID,
		Title:     req.Title,
		Quantity:  req.Quantity,
		UnitPrice: req.UnitPrice,
	})
	if err != nil {
		handleGRPCError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, resp.Cart)
}

// PUT /api/v1/cart/items/{bookId}
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req UpdateItemRequestDTO
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Quantity < 0 {
		respondError(w, http.StatusBadRequest, string(apperr.ReasonValidation), "quantity must not be negative")
		return
	}

	ctx, cancel := outgoing(r, h.timeout)
	defer cancel()

	resp, err := h.cartClient.UpdateItem(ctx, &cartapi.UpdateItemRequest{
		UserID:    userID,
		BookID:    chi.URLParam(r, "bookId"),
		Quantity:  req.Quantity,
		Title:     req.Title,
		UnitPrice: req.UnitPrice,
	})
	if err != nil {
		handleGRPCError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp.Cart)
}

// DELETE /api/v1/cart/items/{bookId}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	ctx, cancel := outgoing(r, h.timeout)
	defer cancel()

	resp, err := h.cartClient.RemoveItem(ctx, &cartapi.RemoveItemRequest{
		UserID: userID,
		BookID: chi.URLParam(r, "bookId"),
	})
	if err != nil {
		handleGRPCError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp.Cart)
}

// DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	ctx, cancel := outgoing(r, h.timeout)
	defer cancel()

	resp, err := h.cartClient.ClearCart(ctx, &cartapi.ClearCartRequest{UserID: userID})
	if err != nil {
		handleGRPCError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp.Cart)
}

// PUT /api/v1/cart/coupon
func (h *CartHandler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req ApplyCouponRequestDTO
	if !decodeBody(w, r, &req) {
		return
	}

	ctx, cancel := outgoing(r, h.timeout)
	defer cancel()

	resp, err := h.cartClient.ApplyCoupon(ctx, &cartapi.ApplyCouponRequest{UserID: userID, Code: req.Code})
	if err != nil {
		handleGRPCError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp.Cart)
}

// DELETE /api/v1/cart/coupon
func (h *CartHandler) RemoveCoupon(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	ctx, cancel := outgoing(r, h.timeout)
	defer cancel()

	resp, err := h.cartClient.RemoveCoupon(ctx, &cartapi.RemoveCouponRequest{UserID: userID})
	if err != nil {
		handleGRPCError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp.Cart)
}
