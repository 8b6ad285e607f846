package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const Namespace = "bookstore"

var (
	RPCRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "rpc_requests_total",
		Help:      "Unary RPCs handled, by service, method and status code.",
	}, []string{"service", "method", "code"})

	RPCDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "rpc_duration_seconds",
		Help:      "Unary RPC handling latency.",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"service", "method"})

	// StockFailOpen counts stock answers that were assumed rather than read
	// from the ledger. cause is missing_record, unreachable or breaker_open.
	StockFailOpen = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "stock_fail_open_total",
		Help:      "Stock checks answered with the fail-open default.",
	}, []string{"cause"})

	UpstreamCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "upstream_calls_total",
		Help:      "Calls made to other services, by upstream and result.",
	}, []string{"upstream", "result"})

	// CheckoutOutcomes counts finished checkouts by terminal status.
	CheckoutOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "checkout_outcomes_total",
		Help:      "Checkouts finished, by terminal status.",
	}, []string{"status"})

	CheckoutDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "checkout_duration_seconds",
		Help:      "End to end checkout latency.",
		Buckets:   prometheus.DefBuckets,
	})
)

const (
	FailOpenMissingRecord = "missing_record"
	FailOpenUnreachable   = "unreachable"
	FailOpenBreakerOpen   = "breaker_open"
)

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve runs a side HTTP server with /metrics and /healthz until ctx is done.
func Serve(ctx context.Context, addr string, log *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("metrics listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("metrics server failed", zap.Error(err))
	}
}
