package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_bookstore/cart-service/pkg/cartapi"
	"github.com/fjod/go_bookstore/checkout-service/pkg/checkoutapi"
	"github.com/fjod/go_bookstore/inventory-service/pkg/inventoryapi"
	"github.com/fjod/go_bookstore/orders-service/pkg/ordersapi"
	"github.com/fjod/go_bookstore/pricing-service/pkg/pricingapi"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// cartMock records the last request of each kind and answers with cart or err.
type cartMock struct {
	cartapi.CartServiceClient

	cart *cartapi.Cart
	err  error

	lastUser   string
	lastMD     metadata.MD
	lastAdd    *cartapi.AddItemRequest
	lastUpdate *cartapi.UpdateItemRequest
	lastRemove *cartapi.RemoveItemRequest
	lastCoupon *cartapi.ApplyCouponRequest
	cleared    bool
}

func (c *cartMock) reply() (*cartapi.CartResponse, error) {
	if c.err != nil {
		return nil, c.err
	}
	return &cartapi.CartResponse{Cart: c.cart}, nil
}

func (c *cartMock) GetCart(ctx context.Context, in *cartapi.GetCartRequest, _ ...grpc.CallOption) (*cartapi.CartResponse, error) {
	c.lastUser = in.UserID
	c.lastMD, _ = metadata.FromOutgoingContext(ctx)
	return c.reply()
}

func (c *cartMock) AddItem(_ context.Context, in *cartapi.AddItemRequest, _ ...grpc.CallOption) (*cartapi.CartResponse, error) {
	c.lastUser, c.lastAdd = in.UserID, in
	return c.reply()
}

func (c *cartMock) UpdateItem(_ context.Context, in *cartapi.UpdateItemRequest, _ ...grpc.CallOption) (*cartapi.CartResponse, error) {
	c.lastUser, c.lastUpdate = in.UserID, in
	return c.reply()
}

func (c *cartMock) RemoveItem(_ context.Context, in *cartapi.RemoveItemRequest, _ ...grpc.CallOption) (*cartapi.CartResponse, error) {
	c.lastUser, c.lastRemove = in.UserID, in
	return c.reply()
}

func (c *cartMock) ClearCart(_ context.Context, in *cartapi.ClearCartRequest, _ ...grpc.CallOption) (*cartapi.CartResponse, error) {
	c.lastUser, c.cleared = in.UserID, true
	return c.reply()
}

func (c *cartMock) ApplyCoupon(_ context.Context, in *cartapi.ApplyCouponRequest, _ ...grpc.CallOption) (*cartapi.CartResponse, error) {
	c.lastUser, c.lastCoupon = in.UserID, in
	return c.reply()
}

func (c *cartMock) RemoveCoupon(_ context.Context, in *cartapi.RemoveCouponRequest, _ ...grpc.CallOption) (*cartapi.CartResponse, error) {
	c.lastUser = in.UserID
	return c.reply()
}

type checkoutMock struct {
	resp     *checkoutapi.CheckoutResponse
	err      error
	lastUser string
}

func (c *checkoutMock) Checkout(_ context.Context, in *checkoutapi.CheckoutRequest, _ ...grpc.CallOption) (*checkoutapi.CheckoutResponse, error) {
	c.lastUser = in.UserID
	return c.resp, c.err
}

type ordersMock struct {
	ordersapi.OrdersServiceClient

	orders []*ordersapi.Order
	err    error
}

func (o *ordersMock) ListOrders(_ context.Context, in *ordersapi.ListOrdersRequest, _ ...grpc.CallOption) (*ordersapi.ListOrdersResponse, error) {
	if o.err != nil {
		return nil, o.err
	}
	var out []*ordersapi.Order
	for _, order := range o.orders {
		if order.UserID == in.UserID {
			out = append(out, order)
		}
	}
	return &ordersapi.ListOrdersResponse{Orders: out}, nil
}

func (o *ordersMock) GetOrder(_ context.Context, in *ordersapi.GetOrderRequest, _ ...grpc.CallOption) (*ordersapi.GetOrderResponse, error) {
	if o.err != nil {
		return nil, o.err
	}
	for _, order := range o.orders {
		if order.OrderID == in.OrderID {
			return &ordersapi.GetOrderResponse{Order: order}, nil
		}
	}
	return nil, notFound
}

type inventoryMock struct {
	inventoryapi.InventoryServiceClient

	lastBatch *inventoryapi.CheckBatchRequest
	lastCheck *inventoryapi.CheckForCartRequest
}

func (i *inventoryMock) CheckBatch(_ context.Context, in *inventoryapi.CheckBatchRequest, _ ...grpc.CallOption) (*inventoryapi.CheckBatchResponse, error) {
	i.lastBatch = in
	out := &inventoryapi.CheckBatchResponse{}
	for _, sku := range in.SkuCodes {
		out.Statuses = append(out.Statuses, inventoryapi.SkuStatus{SkuCode: sku, IsInStock: true})
	}
	return out, nil
}

func (i *inventoryMock) CheckForCart(_ context.Context, in *inventoryapi.CheckForCartRequest, _ ...grpc.CallOption) (*inventoryapi.CheckForCartResponse, error) {
	i.lastCheck = in
	return &inventoryapi.CheckForCartResponse{
		BookID:            in.BookID,
		InStock:           true,
		AvailableQuantity: 7,
		Source:            inventoryapi.SourceFound,
	}, nil
}

type pricingMock struct {
	pricingapi.PricingServiceClient

	lastQuote *pricingapi.QuoteRequest
}

func (p *pricingMock) ValidateCoupon(_ context.Context, in *pricingapi.ValidateCouponRequest, _ ...grpc.CallOption) (*pricingapi.ValidateCouponResponse, error) {
	return &pricingapi.ValidateCouponResponse{Code: in.Code, Valid: in.Code == "SAVE10"}, nil
}

func (p *pricingMock) Quote(_ context.Context, in *pricingapi.QuoteRequest, _ ...grpc.CallOption) (*pricingapi.QuoteResponse, error) {
	p.lastQuote = in
	return &pricingapi.QuoteResponse{BookID: in.BookID, Quantity: in.Quantity}, nil
}

type testGateway struct {
	cart      *cartMock
	checkout  *checkoutMock
	orders    *ordersMock
	inventory *inventoryMock
	pricing   *pricingMock
	router    http.Handler
}

func newTestGateway() *testGateway {
	g := &testGateway{
		cart:      &cartMock{cart: &cartapi.Cart{}},
		checkout:  &checkoutMock{},
		orders:    &ordersMock{},
		inventory: &inventoryMock{},
		pricing:   &pricingMock{},
	}
	g.router = NewRouter(Handlers{
		Cart:     NewCartHandler(g.cart, 5*time.Second),
		Checkout: NewCheckoutHandler(g.checkout, 5*time.Second),
		Orders:   NewOrdersHandler(g.orders, 5*time.Second),
		Stock:    NewStockHandler(g.inventory, 5*time.Second),
		Pricing:  NewPricingHandler(g.pricing, 5*time.Second),
	}, zap.NewNop(), 10*time.Second)
	return g
}
