package http

import (
	"net/http"
	"time"

	"github.com/fjod/go_bookstore/pkg/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

type Handlers struct {
	Cart     *CartHandler
	Checkout *CheckoutHandler
	Orders   *OrdersHandler
	Stock    *StockHandler
	Pricing  *PricingHandler
}

// NewRouter wires every public route. requestTimeout bounds each request
// end to end.
func NewRouter(h Handlers, log *zap.Logger, requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(AccessLog(log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(IdentityMiddleware)

		r.Post("/session/guest", NewGuestSession)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.Cart.GetCart)
			r.Delete("/", h.Cart.ClearCart)
			r.Post("/items", h.Cart.AddItem)
			r.Put("/items/{bookId}", h.Cart.UpdateItem)
			r.Delete("/items/{bookId}", h.Cart.RemoveItem)
			r.Put("/coupon", h.Cart.ApplyCoupon)
			r.Delete("/coupon", h.Cart.RemoveCoupon)
			r.Post("/checkout", h.Checkout.Checkout)
		})

		r.Get("/stock", h.Stock.CheckBatch)
		r.Get("/stock/{bookId}", h.Stock.CheckForCart)
		r.Get("/coupons/{code}", h.Pricing.ValidateCoupon)
		r.Get("/pricing/quote", h.Pricing.Quote)

		r.Get("/orders", h.Orders.ListOrders)
		r.Get("/orders/{orderId}", h.Orders.GetOrder)
	})

	return otelhttp.NewHandler(r, "api-gateway",
		otelhttp.WithSpanNameFormatter(func(_ string, req *http.Request) string {
			return req.Method + " " + req.URL.Path
		}))
}
