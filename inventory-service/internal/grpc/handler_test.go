package grpc

import (
	"context"
	"testing"

	"github.com/fjod/go_bookstore/inventory-service/internal/oracle"
	"github.com/fjod/go_bookstore/inventory-service/internal/store"
	"github.com/fjod/go_bookstore/inventory-service/pkg/inventoryapi"
	"github.com/fjod/go_bookstore/pkg/apperr"
	"github.com/fjod/go_bookstore/pkg/rpc/rpctest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func newTestClient(t *testing.T) (inventoryapi.InventoryServiceClient, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	t.Cleanup(func() { st.Close() })
	require.NoError(t, oracle.Seed(context.Background(), st, oracle.SeedStock))

	server := NewInventoryServiceServer(oracle.New(st, oracle.NewResolver(oracle.SeedAliases)))
	conn := rpctest.Serve(t, func(r grpc.ServiceRegistrar) {
		inventoryapi.RegisterInventoryServiceServer(r, server)
	})
	return inventoryapi.NewInventoryServiceClient(conn), st
}

func TestCheckForCart(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		bookID    string
		quantity  int32
		inStock   bool
		available int32
		source    string
	}{
		{"stocked title", "clean_code", 1, true, 100, inventoryapi.SourceFound},
		{"zero stock", "mythical_man_month", 1, false, 0, inventoryapi.SourceFound},
		{"unknown book fails open", "unknown_xyz", 5, true, 100, inventoryapi.SourceDefaultAssumed},
		{"more than available", "refactoring", 101, false, 100, inventoryapi.SourceFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := client.CheckForCart(ctx, &inventoryapi.CheckForCartRequest{BookID: tt.bookID, Quantity: tt.quantity})
			require.NoError(t, err)
			assert.Equal(t, tt.bookID, resp.BookID)
			assert.Equal(t, tt.inStock, resp.InStock)
			assert.Equal(t, tt.available, resp.AvailableQuantity)
			assert.Equal(t, tt.source, resp.Source)
		})
	}
}

func TestCheckForCart_ReportsResolvedSKU(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	resp, err := client.CheckForCart(ctx, &inventoryapi.CheckForCartRequest{BookID: "gof", Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, "gof", resp.BookID)
	assert.Equal(t, "design_patterns_gof", resp.SKU)

	resp, err = client.CheckForCart(ctx, &inventoryapi.CheckForCartRequest{BookID: "unknown_xyz", Quantity: 1})
	require.NoError(t, err)
	assert.Empty(t, resp.SKU)
}

func TestCheckForCart_InvalidQuantity(t *testing.T) {
	client, _ := newTestClient(t)

	_, err := client.CheckForCart(context.Background(), &inventoryapi.CheckForCartRequest{BookID: "clean_code", Quantity: 0})
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.ErrorIs(t, apperr.FromStatus(err), apperr.ErrValidation)
}

func TestCheckBatch(t *testing.T) {
	client, _ := newTestClient(t)

	resp, err := client.CheckBatch(context.Background(), &inventoryapi.CheckBatchRequest{
		SkuCodes: []string{"clean_code", "unknown", "mythical_man_month"},
	})
	require.NoError(t, err)
	assert.Equal(t, []inventoryapi.SkuStatus{
		{SkuCode: "clean_code", IsInStock: true},
		{SkuCode: "mythical_man_month", IsInStock: false},
	}, resp.Statuses)
}

func TestCheckBatch_EmptyRequest(t *testing.T) {
	client, _ := newTestClient(t)

	resp, err := client.CheckBatch(context.Background(), &inventoryapi.CheckBatchRequest{})
	require.NoError(t, err)
	assert.Empty(t, resp.Statuses)
}

func TestReserveConfirmRelease(t *testing.T) {
	client, st := newTestClient(t)
	ctx := context.Background()

	resp, err := client.Reserve(ctx, &inventoryapi.ReserveRequest{
		CheckoutID: "checkout-1",
		Items: []inventoryapi.ReserveItem{
			{BookID: "clean_code", Quantity: 2},
			{BookID: "unknown_xyz", Quantity: 1},
		},
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.ReservationID)
	assert.NotEmpty(t, resp.ExpiresAt)
	assert.Equal(t, []string{"unknown_xyz"}, resp.Skipped)

	confirmed, err := client.Confirm(ctx, &inventoryapi.ConfirmRequest{ReservationID: resp.ReservationID})
	require.NoError(t, err)
	assert.True(t, confirmed.Success)

	recs, err := st.GetStock(ctx, []string{"clean_code"})
	require.NoError(t, err)
	assert.Equal(t, int32(98), recs[0].Total)

	_, err = client.Release(ctx, &inventoryapi.ReleaseRequest{ReservationID: resp.ReservationID})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
}

func TestReserve_InsufficientStock(t *testing.T) {
	client, _ := newTestClient(t)

	_, err := client.Reserve(context.Background(), &inventoryapi.ReserveRequest{
		CheckoutID: "checkout-1",
		Items:      []inventoryapi.ReserveItem{{BookID: "mythical_man_month", Quantity: 1}},
	})
	require.Error(t, err)
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
	assert.ErrorIs(t, apperr.FromStatus(err), apperr.ErrStockInsufficient)
}

func TestRelease_UnknownReservation(t *testing.T) {
	client, _ := newTestClient(t)

	_, err := client.Release(context.Background(), &inventoryapi.ReleaseRequest{ReservationID: "nonexistent"})
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = client.Release(context.Background(), &inventoryapi.ReleaseRequest{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}
