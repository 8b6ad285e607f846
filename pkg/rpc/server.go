package rpc

import (
	"context"
	"fmt"
	"path"
	"runtime/debug"
	"time"

	"github.com/fjod/go_bookstore/pkg/apperr"
	"github.com/fjod/go_bookstore/pkg/logger"
	"github.com/fjod/go_bookstore/pkg/metrics"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// NewServer builds a gRPC server with tracing, panic recovery, request
// logging, RED metrics and error translation installed. The returned health
// server reports SERVING for the empty service name.
func NewServer(service string, log *zap.Logger, opts ...grpc.ServerOption) (*grpc.Server, *health.Server) {
	base := []grpc.ServerOption{
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			recoverInterceptor(log),
			observeInterceptor(service, log),
			errorInterceptor(),
		),
	}
	srv := grpc.NewServer(append(base, opts...)...)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	return srv, hs
}

// Dial opens a client connection that speaks the JSON codec and propagates
// trace context.
func Dial(target string, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	base := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(ContentSubtype)),
	}
	conn, err := grpc.NewClient(target, append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", target, err)
	}
	return conn, nil
}

func recoverInterceptor(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic in handler",
					zap.String("method", info.FullMethod),
					zap.Any("panic", r),
					zap.ByteString("stack", debug.Stack()))
				err = status.Error(codes.Internal, "internal error")
			}
		}()
		return handler(ctx, req)
	}
}

func observeInterceptor(service string, log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		ctx = logger.WithContext(ctx, log)
		resp, err := handler(ctx, req)

		method := path.Base(info.FullMethod)
		code := status.Code(err)
		elapsed := time.Since(start)
		metrics.RPCRequests.WithLabelValues(service, method, code.String()).Inc()
		metrics.RPCDuration.WithLabelValues(service, method).Observe(elapsed.Seconds())

		fields := []zap.Field{
			zap.String("method", method),
			zap.String("code", code.String()),
			zap.Duration("duration", elapsed),
		}
		switch code {
		case codes.OK:
			logger.FromContext(ctx).Debug("rpc handled", fields...)
		case codes.Internal, codes.Unknown:
			logger.FromContext(ctx).Error("rpc failed", append(fields, zap.Error(err))...)
		default:
			logger.FromContext(ctx).Info("rpc rejected", append(fields, zap.Error(err))...)
		}
		return resp, err
	}
}

// errorInterceptor is innermost so the observe interceptor sees final codes.
func errorInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		resp, err := handler(ctx, req)
		if err != nil {
			return nil, apperr.ToStatus(err)
		}
		return resp, nil
	}
}
