package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fjod/go_bookstore/cart-service/pkg/cartapi"
	"github.com/fjod/go_bookstore/inventory-service/pkg/inventoryapi"
	"github.com/fjod/go_bookstore/orders-service/pkg/ordersapi"
	"github.com/fjod/go_bookstore/pkg/apperr"
	"github.com/fjod/go_bookstore/pkg/circuitbreaker"
	"github.com/fjod/go_bookstore/pricing-service/pkg/pricingapi"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
)

// MockCartServiceClient serves carts from a map and records clears.
type MockCartServiceClient struct {
	cartapi.CartServiceClient

	mu          sync.Mutex
	Carts       map[string]*cartapi.Cart
	GetErr      error
	ClearErr    error
	Gate        chan struct{} // GetCart waits on it when set
	BeforeClear func()        // runs before ClearIfVersion takes the lock
	Gets        int
	Cleared     []string
}

func newMockCart() *MockCartServiceClient {
	return &MockCartServiceClient{Carts: map[string]*cartapi.Cart{}}
}

func (m *MockCartServiceClient) put(userID string, version int64, coupon string, items ...cartapi.CartItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Carts[userID] = &cartapi.Cart{UserID: userID, Items: items, CouponCode: coupon, Version: version}
}

func (m *MockCartServiceClient) GetCart(ctx context.Context, in *cartapi.GetCartRequest, _ ...grpc.CallOption) (*cartapi.CartResponse, error) {
	if m.Gate != nil {
		select {
		case <-m.Gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Gets++
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	cart, ok := m.Carts[in.UserID]
	if !ok {
		return &cartapi.CartResponse{Cart: &cartapi.Cart{UserID: in.UserID}}, nil
	}
	return &cartapi.CartResponse{Cart: cart}, nil
}

func (m *MockCartServiceClient) ClearIfVersion(_ context.Context, in *cartapi.ClearIfVersionRequest, _ ...grpc.CallOption) (*cartapi.ClearIfVersionResponse, error) {
	if m.BeforeClear != nil {
		m.BeforeClear()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ClearErr != nil {
		return nil, m.ClearErr
	}
	if cart, ok := m.Carts[in.UserID]; ok && cart.Version != in.Version {
		return &cartapi.ClearIfVersionResponse{Cleared: false}, nil
	}
	m.Cleared = append(m.Cleared, in.UserID)
	delete(m.Carts, in.UserID)
	return &cartapi.ClearIfVersionResponse{Cleared: true}, nil
}

func (m *MockCartServiceClient) cart(userID string) *cartapi.Cart {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Carts[userID]
}

func (m *MockCartServiceClient) clearedUsers() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Cleared...)
}

// MockInventoryServiceClient keeps a tiny stock ledger so reservations
// compete the way the real oracle's do.
type MockInventoryServiceClient struct {
	inventoryapi.InventoryServiceClient

	mu           sync.Mutex
	Stock        map[string]int32
	Aliases      map[string]string // book id -> SKU for CheckForCart
	CheckErr     error
	CheckBlocks  bool
	ReserveErr   error
	ConfirmErr   error
	Checks       int
	Reservations map[string][]inventoryapi.ReserveItem
	Confirmed    []string
	Released     []string
}

func newMockInventory(stock map[string]int32) *MockInventoryServiceClient {
	return &MockInventoryServiceClient{
		Stock:        stock,
		Reservations: map[string][]inventoryapi.ReserveItem{},
	}
}

func (m *MockInventoryServiceClient) CheckForCart(ctx context.Context, in *inventoryapi.CheckForCartRequest, _ ...grpc.CallOption) (*inventoryapi.CheckForCartResponse, error) {
	if m.CheckBlocks {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Checks++
	if m.CheckErr != nil {
		return nil, m.CheckErr
	}
	sku := in.BookID
	if alias, ok := m.Aliases[in.BookID]; ok {
		sku = alias
	}
	available := m.Stock[sku]
	return &inventoryapi.CheckForCartResponse{
		BookID:            in.BookID,
		SKU:               sku,
		InStock:           available >= in.Quantity,
		AvailableQuantity: available,
		Source:            inventoryapi.SourceFound,
	}, nil
}

func (m *MockInventoryServiceClient) Reserve(_ context.Context, in *inventoryapi.ReserveRequest, _ ...grpc.CallOption) (*inventoryapi.ReserveResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReserveErr != nil {
		return nil, m.ReserveErr
	}
	for _, item := range in.Items {
		if m.Stock[item.BookID] < item.Quantity {
			return nil, apperr.ToStatus(apperr.StockInsufficient("insufficient stock for %s", item.BookID))
		}
	}
	for _, item := range in.Items {
		m.Stock[item.BookID] -= item.Quantity
	}
	id := "res-" + in.CheckoutID
	m.Reservations[id] = in.Items
	return &inventoryapi.ReserveResponse{ReservationID: id, ExpiresAt: time.Now().Add(15 * time.Minute).Format(time.RFC3339)}, nil
}

func (m *MockInventoryServiceClient) Confirm(_ context.Context, in *inventoryapi.ConfirmRequest, _ ...grpc.CallOption) (*inventoryapi.ConfirmResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ConfirmErr != nil {
		return nil, m.ConfirmErr
	}
	m.Confirmed = append(m.Confirmed, in.ReservationID)
	return &inventoryapi.ConfirmResponse{Success: true}, nil
}

func (m *MockInventoryServiceClient) Release(_ context.Context, in *inventoryapi.ReleaseRequest, _ ...grpc.CallOption) (*inventoryapi.ReleaseResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range m.Reservations[in.ReservationID] {
		m.Stock[item.BookID] += item.Quantity
	}
	delete(m.Reservations, in.ReservationID)
	m.Released = append(m.Released, in.ReservationID)
	return &inventoryapi.ReleaseResponse{Success: true}, nil
}

// MockPricingServiceClient knows a fixed set of coupons.
type MockPricingServiceClient struct {
	pricingapi.PricingServiceClient

	Coupons map[string]*pricingapi.ValidateCouponResponse
	Err     error
}

func (m *MockPricingServiceClient) ValidateCoupon(_ context.Context, in *pricingapi.ValidateCouponRequest, _ ...grpc.CallOption) (*pricingapi.ValidateCouponResponse, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if c, ok := m.Coupons[in.Code]; ok {
		return c, nil
	}
	return &pricingapi.ValidateCouponResponse{Code: in.Code, Valid: false}, nil
}

// MockOrdersServiceClient records every order it is asked to create.
type MockOrdersServiceClient struct {
	ordersapi.OrdersServiceClient

	mu       sync.Mutex
	Err      error
	Requests []*ordersapi.CreateOrderRequest
}

func (m *MockOrdersServiceClient) CreateOrder(_ context.Context, in *ordersapi.CreateOrderRequest, _ ...grpc.CallOption) (*ordersapi.CreateOrderResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	m.Requests = append(m.Requests, in)
	return &ordersapi.CreateOrderResponse{
		Order: &ordersapi.Order{
			OrderID:     uuid.NewString(),
			CheckoutID:  in.CheckoutID,
			UserID:      in.UserID,
			TotalAmount: in.TotalAmount,
			Discount:    in.Discount,
			Status:      "CONFIRMED",
		},
		Created: true,
	}, nil
}

func (m *MockOrdersServiceClient) created() []*ordersapi.CreateOrderRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*ordersapi.CreateOrderRequest(nil), m.Requests...)
}

type testDeps struct {
	cart      *MockCartServiceClient
	inventory *MockInventoryServiceClient
	pricing   *MockPricingServiceClient
	orders    *MockOrdersServiceClient

	stockTimeout time.Duration
	breaker      circuitbreaker.Config
}

func newTestDeps(stock map[string]int32) *testDeps {
	return &testDeps{
		cart:         newMockCart(),
		inventory:    newMockInventory(stock),
		pricing:      &MockPricingServiceClient{Coupons: map[string]*pricingapi.ValidateCouponResponse{}},
		orders:       &MockOrdersServiceClient{},
		stockTimeout: time.Second,
	}
}

// newTestCheckoutService creates a fully wired CheckoutService for testing
func newTestCheckoutService(deps *testDeps, policy Policy) *CheckoutServiceImpl {
	cartHandler := NewCartHandler(deps.cart, time.Second)
	inventoryHandler := NewInventoryHandler(deps.inventory, deps.stockTimeout, deps.breaker, nil)
	pricingHandler := NewPricingHandler(deps.pricing, time.Second)
	ordersHandler := NewOrdersHandler(deps.orders, time.Second, circuitbreaker.Config{}, nil)
	return NewCheckoutService(cartHandler, inventoryHandler, pricingHandler, ordersHandler, policy)
}

func line(bookID string, qty int32, price string) cartapi.CartItem {
	p := decimal.RequireFromString(price)
	return cartapi.CartItem{
		BookID:    bookID,
		Title:     fmt.Sprintf("Book %s", bookID),
		Quantity:  qty,
		UnitPrice: p,
		Subtotal:  p.Mul(decimal.NewFromInt32(qty)),
	}
}
