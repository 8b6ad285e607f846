package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/fjod/go_bookstore/inventory-service/pkg/inventoryapi"
	"github.com/fjod/go_bookstore/pkg/apperr"
	"github.com/go-chi/chi/v5"
)

type StockHandler struct {
	inventoryClient inventoryapi.InventoryServiceClient
	timeout         time.Duration
}

func NewStockHandler(client inventoryapi.InventoryServiceClient, timeout time.Duration) *StockHandler {
	return &StockHandler{
		inventoryClient: client,
		timeout:         timeout,
	}
}

// GET /api/v1/stock?sku=a&sku=b
func (h *StockHandler) CheckBatch(w http.ResponseWriter, r *http.Request) {
	skus := r.URL.Query()["sku"]
	if len(skus) == 0 {
		respondError(w, http.StatusBadRequest, string(apperr.ReasonValidation), "at least one sku is required")
		return
	}
	ctx, cancel := outgoing(r, h.timeout)
	defer cancel()

	resp, err := h.inventoryClient.CheckBatch(ctx, &inventoryapi.CheckBatchRequest{SkuCodes: skus})
	if err != nil {
		handleGRPCError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// GET /api/v1/stock/{bookId}?quantity=n
func (h *StockHandler) CheckForCart(w http.ResponseWriter, r *http.Request) {
	quantity := int64(1)
	if q := r.URL.Query().Get("quantity"); q != "" {
		var err error
		quantity, err = strconv.ParseInt(q, 10, 32)
		if err != nil {
			respondError(w, http.StatusBadRequest, string(apperr.ReasonValidation), "quantity must be an integer")
			return
		}
	}
	ctx, cancel := outgoing(r, h.timeout)
	defer cancel()

	resp, err := h.inventoryClient.CheckForCart(ctx, &inventoryapi.CheckForCartRequest{
		BookID:   chi.URLParam(r, "bookId"),
		Quantity: int32(quantity),
	})
	if err != nil {
		handleGRPCError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}
