package http

import (
	"net/http"
	"time"

	"github.com/fjod/go_bookstore/orders-service/pkg/ordersapi"
	"github.com/fjod/go_bookstore/pkg/apperr"
	"github.com/go-chi/chi/v5"
)

type OrdersHandler struct {
	ordersClient ordersapi.OrdersServiceClient
	timeout      time.Duration
}

func NewOrdersHandler(client ordersapi.OrdersServiceClient, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{
		ordersClient: client,
		timeout:      timeout,
	}
}

type OrdersResponseDTO struct {
	Orders []*ordersapi.Order `json:"orders"`
}

// GET /api/v1/orders
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	ctx, cancel := outgoing(r, h.timeout)
	defer cancel()

	resp, err := h.ordersClient.ListOrders(ctx, &ordersapi.ListOrdersRequest{UserID: userID})
	if err != nil {
		handleGRPCError(w, err)
		return
	}

	orders := resp.Orders
	if orders == nil {
		orders = make([]*ordersapi.Order, 0)
	}
	respondJSON(w, http.StatusOK, OrdersResponseDTO{Orders: orders})
}

// GET /api/v1/orders/{orderId}
//
// Another user's order answers 404, same as an unknown id.
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	orderID := chi.URLParam(r, "orderId")

	ctx, cancel := outgoing(r, h.timeout)
	defer cancel()

	resp, err := h.ordersClient.GetOrder(ctx, &ordersapi.GetOrderRequest{OrderID: orderID})
	if err != nil {
		handleGRPCError(w, err)
		return
	}
	if resp.Order == nil || resp.Order.UserID != userID {
		respondError(w, http.StatusNotFound, string(apperr.ReasonNotFound), "order "+orderID+" not found")
		return
	}
	respondJSON(w, http.StatusOK, resp.Order)
}
