package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	h "github.com/fjod/go_bookstore/api-gateway/internal/http"
	"github.com/fjod/go_bookstore/cart-service/pkg/cartapi"
	"github.com/fjod/go_bookstore/checkout-service/pkg/checkoutapi"
	"github.com/fjod/go_bookstore/inventory-service/pkg/inventoryapi"
	"github.com/fjod/go_bookstore/orders-service/pkg/ordersapi"
	"github.com/fjod/go_bookstore/pkg/config"
	"github.com/fjod/go_bookstore/pkg/logger"
	"github.com/fjod/go_bookstore/pkg/rpc"
	"github.com/fjod/go_bookstore/pricing-service/pkg/pricingapi"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

type Config struct {
	Env      string `envconfig:"ENV" default:"development"`
	HTTPPort string `envconfig:"HTTP_PORT" default:"8080"`

	CartAddr      string `envconfig:"CART_ADDR" default:"localhost:50052"`
	InventoryAddr string `envconfig:"INVENTORY_ADDR" default:"localhost:50053"`
	OrdersAddr    string `envconfig:"ORDERS_ADDR" default:"localhost:50054"`
	PricingAddr   string `envconfig:"PRICING_ADDR" default:"localhost:50055"`
	CheckoutAddr  string `envconfig:"CHECKOUT_ADDR" default:"localhost:50056"`

	RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`
	UpstreamTimeout time.Duration `envconfig:"UPSTREAM_TIMEOUT" default:"5s"`
	CheckoutTimeout time.Duration `envconfig:"CHECKOUT_TIMEOUT" default:"20s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

func main() {
	var cfg Config
	if err := config.Load("GATEWAY", &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.Must("api-gateway", cfg.Env)
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cartConn := mustDial(log, "cart", cfg.CartAddr)
	defer cartConn.Close()
	inventoryConn := mustDial(log, "inventory", cfg.InventoryAddr)
	defer inventoryConn.Close()
	ordersConn := mustDial(log, "orders", cfg.OrdersAddr)
	defer ordersConn.Close()
	pricingConn := mustDial(log, "pricing", cfg.PricingAddr)
	defer pricingConn.Close()
	checkoutConn := mustDial(log, "checkout", cfg.CheckoutAddr)
	defer checkoutConn.Close()

	router := h.NewRouter(h.Handlers{
		Cart:     h.NewCartHandler(cartapi.NewCartServiceClient(cartConn), cfg.UpstreamTimeout),
		Checkout: h.NewCheckoutHandler(checkoutapi.NewCheckoutServiceClient(checkoutConn), cfg.CheckoutTimeout),
		Orders:   h.NewOrdersHandler(ordersapi.NewOrdersServiceClient(ordersConn), cfg.UpstreamTimeout),
		Stock:    h.NewStockHandler(inventoryapi.NewInventoryServiceClient(inventoryConn), cfg.UpstreamTimeout),
		Pricing:  h.NewPricingHandler(pricingapi.NewPricingServiceClient(pricingConn), cfg.UpstreamTimeout),
	}, log, cfg.RequestTimeout)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api gateway listening", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down api gateway")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("forced shutdown", zap.Error(err))
	}
	log.Info("api gateway stopped")
}

func mustDial(log *zap.Logger, name, addr string) *grpc.ClientConn {
	conn, err := rpc.Dial(addr)
	if err != nil {
		log.Fatal("failed to create client", zap.String("upstream", name), zap.Error(err))
	}
	return conn
}
