// Package inventoryapi is the wire contract of the stock oracle.
package inventoryapi

import (
	"context"

	"github.com/fjod/go_bookstore/pkg/rpc"
	"google.golang.org/grpc"
)

const ServiceName = "bookstore.inventory.v1.InventoryService"

// Source values of CheckForCartResponse.
const (
	SourceFound          = "FOUND"
	SourceDefaultAssumed = "DEFAULT_ASSUMED"
)

type CheckBatchRequest struct {
	SkuCodes []string `json:"skuCodes"`
}

type SkuStatus struct {
	SkuCode   string `json:"skuCode"`
	IsInStock bool   `json:"isInStock"`
}

type CheckBatchResponse struct {
	Statuses []SkuStatus `json:"statuses"`
}

type CheckForCartRequest struct {
	BookID   string `json:"bookId"`
	Quantity int32  `json:"quantity"`
}

// CheckForCartResponse reports availability for one line. SKU is the ledger
// code the book resolved to and is empty when Source is DEFAULT_ASSUMED.
type CheckForCartResponse struct {
	BookID            string `json:"bookId"`
	SKU               string `json:"sku,omitempty"`
	InStock           bool   `json:"inStock"`
	AvailableQuantity int32  `json:"availableQuantity"`
	Source            string `json:"source"`
}

type ReserveItem struct {
	BookID   string `json:"bookId"`
	Quantity int32  `json:"quantity"`
}

type ReserveRequest struct {
	CheckoutID string        `json:"checkoutId"`
	Items      []ReserveItem `json:"items"`
}

// ReserveResponse has an empty ReservationID when none of the items could be
// held because the ledger has no record for them.
type ReserveResponse struct {
	ReservationID string   `json:"reservationId,omitempty"`
	ExpiresAt     string   `json:"expiresAt,omitempty"`
	Skipped       []string `json:"skipped,omitempty"`
}

type ConfirmRequest struct {
	ReservationID string `json:"reservationId"`
}

type ConfirmResponse struct {
	Success bool `json:"success"`
}

type ReleaseRequest struct {
	ReservationID string `json:"reservationId"`
}

type ReleaseResponse struct {
	Success bool `json:"success"`
}

// InventoryServiceServer is implemented by the inventory gRPC handler.
type InventoryServiceServer interface {
	CheckBatch(context.Context, *CheckBatchRequest) (*CheckBatchResponse, error)
	CheckForCart(context.Context, *CheckForCartRequest) (*CheckForCartResponse, error)
	Reserve(context.Context, *ReserveRequest) (*ReserveResponse, error)
	Confirm(context.Context, *ConfirmRequest) (*ConfirmResponse, error)
	Release(context.Context, *ReleaseRequest) (*ReleaseResponse, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*InventoryServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		rpc.Unary(ServiceName, "CheckBatch", InventoryServiceServer.CheckBatch),
		rpc.Unary(ServiceName, "CheckForCart", InventoryServiceServer.CheckForCart),
		rpc.Unary(ServiceName, "Reserve", InventoryServiceServer.Reserve),
		rpc.Unary(ServiceName, "Confirm", InventoryServiceServer.Confirm),
		rpc.Unary(ServiceName, "Release", InventoryServiceServer.Release),
	},
}

func RegisterInventoryServiceServer(s grpc.ServiceRegistrar, srv InventoryServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// InventoryServiceClient is the client API of the stock oracle.
type InventoryServiceClient interface {
	CheckBatch(ctx context.Context, in *CheckBatchRequest, opts ...grpc.CallOption) (*CheckBatchResponse, error)
	CheckForCart(ctx context.Context, in *CheckForCartRequest, opts ...grpc.CallOption) (*CheckForCartResponse, error)
	Reserve(ctx context.Context, in *ReserveRequest, opts ...grpc.CallOption) (*ReserveResponse, error)
	Confirm(ctx context.Context, in *ConfirmRequest, opts ...grpc.CallOption) (*ConfirmResponse, error)
	Release(ctx context.Context, in *ReleaseRequest, opts ...grpc.CallOption) (*ReleaseResponse, error)
}

type inventoryServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewInventoryServiceClient(cc grpc.ClientConnInterface) InventoryServiceClient {
	return &inventoryServiceClient{cc: cc}
}

func (c *inventoryServiceClient) CheckBatch(ctx context.Context, in *CheckBatchRequest, opts ...grpc.CallOption) (*CheckBatchResponse, error) {
	return rpc.Invoke[CheckBatchRequest, CheckBatchResponse](ctx, c.cc, ServiceName, "CheckBatch", in, opts...)
}

func (c *inventoryServiceClient) CheckForCart(ctx context.Context, in *CheckForCartRequest, opts ...grpc.CallOption) (*CheckForCartResponse, error) {
	return rpc.Invoke[CheckForCartRequest, CheckForCartResponse](ctx, c.cc, ServiceName, "CheckForCart", in, opts...)
}

func (c *inventoryServiceClient) Reserve(ctx context.Context, in *ReserveRequest, opts ...grpc.CallOption) (*ReserveResponse, error) {
	return rpc.Invoke[ReserveRequest, ReserveResponse](ctx, c.cc, ServiceName, "Reserve", in, opts...)
}

func (c *inventoryServiceClient) Confirm(ctx context.Context, in *ConfirmRequest, opts ...grpc.CallOption) (*ConfirmResponse, error) {
	return rpc.Invoke[ConfirmRequest, ConfirmResponse](ctx, c.cc, ServiceName, "Confirm", in, opts...)
}

func (c *inventoryServiceClient) Release(ctx context.Context, in *ReleaseRequest, opts ...grpc.CallOption) (*ReleaseResponse, error) {
	return rpc.Invoke[ReleaseRequest, ReleaseResponse](ctx, c.cc, ServiceName, "Release", in, opts...)
}
