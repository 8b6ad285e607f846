package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/go_bookstore/pkg/logger"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"google.golang.org/grpc/metadata"
)

const (
	// HeaderUserID is set by the identity provider in front of the gateway.
	HeaderUserID = "X-User-ID"
	// HeaderGuestToken carries the opaque token a guest client keeps.
	HeaderGuestToken = "X-Guest-Token"

	maxIdentityLength = 256
)

type identityKey struct{}

// IdentityMiddleware resolves the cart key of the caller. An authenticated
// subject wins over a guest token. Requests without either pass through;
// handlers that need a key answer 401.
func IdentityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(HeaderUserID))
		if id == "" {
			id = strings.TrimSpace(r.Header.Get(HeaderGuestToken))
		}
		if id == "" || len(id) > maxIdentityLength {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), id)))
	})
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, identityKey{}, userID)
}

func getUserIDFromContext(ctx context.Context) string {
	if userID, ok := ctx.Value(identityKey{}).(string); ok {
		return userID
	}
	return ""
}

// requireUser writes a 401 and returns false when the request has no cart key.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "missing user identity")
		return "", false
	}
	return userID, true
}

// outgoing bounds ctx by timeout and forwards the caller's identity and
// request id to the service being called.
func outgoing(r *http.Request, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	pairs := []string{"request-id", middleware.GetReqID(r.Context())}
	if userID := getUserIDFromContext(r.Context()); userID != "" {
		pairs = append(pairs, "user-id", userID)
	}
	return metadata.AppendToOutgoingContext(ctx, pairs...), cancel
}

// AccessLog writes one zap line per request and puts a request-scoped logger
// into the context.
func AccessLog(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			reqLog := log.With(zap.String("request_id", middleware.GetReqID(r.Context())))
			r = r.WithContext(logger.WithContext(r.Context(), reqLog))

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", status),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
			}
			switch {
			case status >= 500:
				logger.FromContext(r.Context()).Error("request failed", fields...)
			case status >= 400:
				logger.FromContext(r.Context()).Info("request rejected", fields...)
			default:
				logger.FromContext(r.Context()).Debug("request served", fields...)
			}
		})
	}
}
