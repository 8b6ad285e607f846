package grpc

import (
	"context"
	"testing"

	"github.com/fjod/go_bookstore/orders-service/internal/ledger"
	"github.com/fjod/go_bookstore/orders-service/internal/repository"
	"github.com/fjod/go_bookstore/orders-service/pkg/ordersapi"
	"github.com/fjod/go_bookstore/pkg/apperr"
	"github.com/fjod/go_bookstore/pkg/rpc/rpctest"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func newTestClient(t *testing.T) ordersapi.OrdersServiceClient {
	t.Helper()
	handler := NewOrdersHandler(ledger.New(repository.NewMemoryRepository()))
	conn := rpctest.Serve(t, func(r grpc.ServiceRegistrar) {
		ordersapi.RegisterOrdersServiceServer(r, handler)
	})
	return ordersapi.NewOrdersServiceClient(conn)
}

func createRequest(userID string) *ordersapi.CreateOrderRequest {
	return &ordersapi.CreateOrderRequest{
		CheckoutID: uuid.NewString(),
		UserID:     userID,
		Items: []ordersapi.OrderItem{
			{BookID: "12", Title: "Design Patterns", Quantity: 1, UnitPrice: decimal.RequireFromString("29.99")},
		},
		Discount:    decimal.RequireFromString("10"),
		CouponCode:  "WELCOME",
		TotalAmount: decimal.RequireFromString("19.99"),
		CartVersion: 2,
	}
}

func TestCreateThenGet(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	created, err := client.CreateOrder(ctx, createRequest("user-1"))
	require.NoError(t, err)
	assert.True(t, created.Created)
	assert.Equal(t, "CONFIRMED", created.Order.Status)
	assert.True(t, decimal.RequireFromString("29.99").Equal(created.Order.Subtotal))

	got, err := client.GetOrder(ctx, &ordersapi.GetOrderRequest{OrderID: created.Order.OrderID})
	require.NoError(t, err)
	assert.Equal(t, created.Order.OrderID, got.Order.OrderID)
	assert.True(t, decimal.RequireFromString("19.99").Equal(got.Order.TotalAmount))
	require.Len(t, got.Order.Items, 1)
	assert.Equal(t, "Design Patterns", got.Order.Items[0].Title)
}

func TestCreate_RepeatReturnsSameOrder(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	req := createRequest("user-1")

	first, err := client.CreateOrder(ctx, req)
	require.NoError(t, err)
	second, err := client.CreateOrder(ctx, req)
	require.NoError(t, err)

	assert.False(t, second.Created)
	assert.Equal(t, first.Order.OrderID, second.Order.OrderID)
}

func TestCreate_EmptyItemsIsInvalid(t *testing.T) {
	client := newTestClient(t)
	req := createRequest("user-1")
	req.Items = nil

	_, err := client.CreateOrder(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestGetOrder_Errors(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	_, err := client.GetOrder(ctx, &ordersapi.GetOrderRequest{OrderID: "nope"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.GetOrder(ctx, &ordersapi.GetOrderRequest{OrderID: uuid.NewString()})
	assert.Equal(t, codes.NotFound, status.Code(err))
	assert.ErrorIs(t, apperr.FromStatus(err), apperr.ErrNotFound)
}

func TestListOrders(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := client.CreateOrder(ctx, createRequest("user-1"))
		require.NoError(t, err)
	}
	_, err := client.CreateOrder(ctx, createRequest("user-2"))
	require.NoError(t, err)

	resp, err := client.ListOrders(ctx, &ordersapi.ListOrdersRequest{UserID: "user-1"})
	require.NoError(t, err)
	assert.Len(t, resp.Orders, 2)
	for _, o := range resp.Orders {
		assert.Equal(t, "user-1", o.UserID)
	}
}
