package grpc

import (
	"context"
	"time"

	"github.com/fjod/go_bookstore/inventory-service/internal/oracle"
	"github.com/fjod/go_bookstore/inventory-service/pkg/inventoryapi"
)

// InventoryServiceServer implements the gRPC inventory service on top of the
// stock oracle. Errors are taxonomy errors; the server interceptor turns them
// into statuses.
type InventoryServiceServer struct {
	oracle *oracle.Oracle
}

// NewInventoryServiceServer creates a new gRPC handler
func NewInventoryServiceServer(o *oracle.Oracle) *InventoryServiceServer {
	return &InventoryServiceServer{oracle: o}
}

var _ inventoryapi.InventoryServiceServer = (*InventoryServiceServer)(nil)

func (s *InventoryServiceServer) CheckBatch(ctx context.Context, req *inventoryapi.CheckBatchRequest) (*inventoryapi.CheckBatchResponse, error) {
	statuses, err := s.oracle.CheckBatch(ctx, req.SkuCodes)
	if err != nil {
		return nil, err
	}

	out := make([]inventoryapi.SkuStatus, len(statuses))
	for i, st := range statuses {
		out[i] = inventoryapi.SkuStatus{SkuCode: st.SKU, IsInStock: st.IsInStock}
	}
	return &inventoryapi.CheckBatchResponse{Statuses: out}, nil
}

func (s *InventoryServiceServer) CheckForCart(ctx context.Context, req *inventoryapi.CheckForCartRequest) (*inventoryapi.CheckForCartResponse, error) {
	check, err := s.oracle.CheckForCart(ctx, req.BookID, req.Quantity)
	if err != nil {
		return nil, err
	}
	return &inventoryapi.CheckForCartResponse{
		BookID:            check.BookID,
		SKU:               check.SKU,
		InStock:           check.InStock,
		AvailableQuantity: check.AvailableQuantity,
		Source:            string(check.Source),
	}, nil
}

// Reserve creates a stock reservation for checkout
func (s *InventoryServiceServer) Reserve(ctx context.Context, req *inventoryapi.ReserveRequest) (*inventoryapi.ReserveResponse, error) {
	lines := make([]oracle.LineRequest, len(req.Items))
	for i, item := range req.Items {
		lines[i] = oracle.LineRequest{BookID: item.BookID, Quantity: item.Quantity}
	}

	res, err := s.oracle.Reserve(ctx, req.CheckoutID, lines)
	if err != nil {
		return nil, err
	}

	resp := &inventoryapi.ReserveResponse{Skipped: res.Skipped}
	if res.Reservation != nil {
		resp.ReservationID = res.Reservation.ID
		resp.ExpiresAt = res.Reservation.ExpiresAt.Format(time.RFC3339)
	}
	return resp, nil
}

// Confirm finalizes a reservation once the order is recorded
func (s *InventoryServiceServer) Confirm(ctx context.Context, req *inventoryapi.ConfirmRequest) (*inventoryapi.ConfirmResponse, error) {
	if err := s.oracle.Confirm(ctx, req.ReservationID); err != nil {
		return nil, err
	}
	return &inventoryapi.ConfirmResponse{Success: true}, nil
}

// Release returns held stock when the checkout is abandoned
func (s *InventoryServiceServer) Release(ctx context.Context, req *inventoryapi.ReleaseRequest) (*inventoryapi.ReleaseResponse, error) {
	if err := s.oracle.Release(ctx, req.ReservationID); err != nil {
		return nil, err
	}
	return &inventoryapi.ReleaseResponse{Success: true}, nil
}
