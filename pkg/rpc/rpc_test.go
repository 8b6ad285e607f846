package rpc

import (
	"context"
	"net"
	"testing"

	"github.com/fjod/go_bookstore/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

const echoService = "bookstore.test.v1.Echo"

type echoRequest struct {
	Text string `json:"text"`
}

type echoResponse struct {
	Text string `json:"text"`
}

type echoServer interface {
	Echo(context.Context, *echoRequest) (*echoResponse, error)
}

type echoImpl struct{}

func (echoImpl) Echo(_ context.Context, req *echoRequest) (*echoResponse, error) {
	switch req.Text {
	case "":
		return nil, apperr.Validation("text is required")
	case "panic":
		panic("boom")
	}
	return &echoResponse{Text: req.Text}, nil
}

var echoDesc = grpc.ServiceDesc{
	ServiceName: echoService,
	HandlerType: (*echoServer)(nil),
	Methods: []grpc.MethodDesc{
		Unary(echoService, "Echo", echoServer.Echo),
	},
}

func startEcho(t *testing.T) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv, _ := NewServer("echo", zap.NewNop())
	srv.RegisterService(&echoDesc, echoImpl{})
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestInvoke_JSONRoundTrip(t *testing.T) {
	conn := startEcho(t)

	resp, err := Invoke[echoRequest, echoResponse](context.Background(), conn, echoService, "Echo", &echoRequest{Text: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "hello", resp.Text)
}

func TestInvoke_ErrorsKeepTheirReason(t *testing.T) {
	conn := startEcho(t)

	_, err := Invoke[echoRequest, echoResponse](context.Background(), conn, echoService, "Echo", &echoRequest{})
	require.Error(t, err)
	assert.ErrorIs(t, apperr.FromStatus(err), apperr.ErrValidation)
}

func TestInvoke_PanicBecomesUpstreamFailure(t *testing.T) {
	conn := startEcho(t)

	_, err := Invoke[echoRequest, echoResponse](context.Background(), conn, echoService, "Echo", &echoRequest{Text: "panic"})
	require.Error(t, err)
	assert.ErrorIs(t, apperr.FromStatus(err), apperr.ErrUpstreamUnavailable)

	// server survives
	resp, err := Invoke[echoRequest, echoResponse](context.Background(), conn, echoService, "Echo", &echoRequest{Text: "again"})
	require.NoError(t, err)
	assert.Equal(t, "again", resp.Text)
}

func TestNewServer_RegistersHealth(t *testing.T) {
	conn := startEcho(t)

	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)
}
