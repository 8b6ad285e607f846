package service

import (
	"context"
	"time"

	"github.com/fjod/go_bookstore/cart-service/pkg/cartapi"
	"github.com/fjod/go_bookstore/inventory-service/pkg/inventoryapi"
	"github.com/fjod/go_bookstore/orders-service/pkg/ordersapi"
	"github.com/fjod/go_bookstore/pkg/apperr"
	"github.com/fjod/go_bookstore/pkg/circuitbreaker"
	"github.com/fjod/go_bookstore/pkg/metrics"
	"github.com/fjod/go_bookstore/pricing-service/pkg/pricingapi"
	"go.uber.org/zap"
)

// Upstream labels used in metrics and breaker names.
const (
	upstreamCart      = "cart"
	upstreamInventory = "inventory"
	upstreamPricing   = "pricing"
	upstreamOrders    = "orders"
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

func (h *CartHandler) get(ctx context.Context, userID string) (*cartapi.Cart, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	resp, err := h.cartClient.GetCart(ctx, &cartapi.GetCartRequest{UserID: userID})
	observe(upstreamCart, err)
	if err != nil {
		return nil, apperr.FromStatus(err)
	}
	return resp.Cart, nil
}

// clearIfVersion empties the cart only while it still holds the given version.
func (h *CartHandler) clearIfVersion(ctx context.Context, userID string, version int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	resp, err := h.cartClient.ClearIfVersion(ctx, &cartapi.ClearIfVersionRequest{UserID: userID, Version: version})
	observe(upstreamCart, err)
	if err != nil {
		return false, apperr.FromStatus(err)
	}
	return resp.Cleared, nil
}

type InventoryHandler struct {
	inventoryClient inventoryapi.InventoryServiceClient
	timeout         time.Duration
	breaker         *circuitbreaker.Breaker[*inventoryapi.CheckForCartResponse]
}

// NewInventoryHandler guards stock checks with a breaker. Reservation calls
// only carry the timeout.
func NewInventoryHandler(inventoryClient inventoryapi.InventoryServiceClient, timeout time.Duration, cb circuitbreaker.Config, log *zap.Logger) *InventoryHandler {
	return &InventoryHandler{
		inventoryClient: inventoryClient,
		timeout:         timeout,
		breaker:         circuitbreaker.New[*inventoryapi.CheckForCartResponse](upstreamInventory, cb, log),
	}
}

func (h *InventoryHandler) checkForCart(ctx context.Context, bookID string, quantity int32) (*inventoryapi.CheckForCartResponse, error) {
	return h.breaker.Execute(func() (*inventoryapi.CheckForCartResponse, error) {
		ctx, cancel := context.WithTimeout(ctx, h.timeout)
		defer cancel()
		resp, err := h.inventoryClient.CheckForCart(ctx, &inventoryapi.CheckForCartRequest{BookID: bookID, Quantity: quantity})
		observe(upstreamInventory, err)
		if err != nil {
			return nil, apperr.FromStatus(err)
		}
		return resp, nil
	})
}

func (h *InventoryHandler) reserve(ctx context.Context, req *inventoryapi.ReserveRequest) (*inventoryapi.ReserveResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	resp, err := h.inventoryClient.Reserve(ctx, req)
	observe(upstreamInventory, err)
	if err != nil {
		return nil, apperr.FromStatus(err)
	}
	return resp, nil
}

func (h *InventoryHandler) confirm(ctx context.Context, reservationID string) error {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	_, err := h.inventoryClient.Confirm(ctx, &inventoryapi.ConfirmRequest{ReservationID: reservationID})
	observe(upstreamInventory, err)
	return apperr.FromStatus(err)
}

func (h *InventoryHandler) release(ctx context.Context, reservationID string) error {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	_, err := h.inventoryClient.Release(ctx, &inventoryapi.ReleaseRequest{ReservationID: reservationID})
	observe(upstreamInventory, err)
	return apperr.FromStatus(err)
}

type PricingHandler struct {
	pricingClient pricingapi.PricingServiceClient
	timeout       time.Duration
}

func NewPricingHandler(pricingClient pricingapi.PricingServiceClient, timeout time.Duration) *PricingHandler {
	return &PricingHandler{
		pricingClient: pricingClient,
		timeout:       timeout,
	}
}

func (h *PricingHandler) validateCoupon(ctx context.Context, code string) (*pricingapi.ValidateCouponResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	resp, err := h.pricingClient.ValidateCoupon(ctx, &pricingapi.ValidateCouponRequest{Code: code})
	observe(upstreamPricing, err)
	if err != nil {
		return nil, apperr.FromStatus(err)
	}
	return resp, nil
}

type OrdersHandler struct {
	ordersClient ordersapi.OrdersServiceClient
	timeout      time.Duration
	breaker      *circuitbreaker.Breaker[*ordersapi.CreateOrderResponse]
}

func NewOrdersHandler(ordersClient ordersapi.OrdersServiceClient, timeout time.Duration, cb circuitbreaker.Config, log *zap.Logger) *OrdersHandler {
	return &OrdersHandler{
		ordersClient: ordersClient,
		timeout:      timeout,
		breaker:      circuitbreaker.New[*ordersapi.CreateOrderResponse](upstreamOrders, cb, log),
	}
}

func (h *OrdersHandler) create(ctx context.Context, req *ordersapi.CreateOrderRequest) (*ordersapi.CreateOrderResponse, error) {
	return h.breaker.Execute(func() (*ordersapi.CreateOrderResponse, error) {
		ctx, cancel := context.WithTimeout(ctx, h.timeout)
		defer cancel()
		resp, err := h.ordersClient.CreateOrder(ctx, req)
		observe(upstreamOrders, err)
		if err != nil {
			return nil, apperr.FromStatus(err)
		}
		return resp, nil
	})
}

func observe(upstream string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.UpstreamCalls.WithLabelValues(upstream, result).Inc()
}
