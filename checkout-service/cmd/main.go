package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjod/go_bookstore/cart-service/pkg/cartapi"
	checkoutgrpc "github.com/fjod/go_bookstore/checkout-service/internal/grpc"
	"github.com/fjod/go_bookstore/checkout-service/internal/service"
	"github.com/fjod/go_bookstore/checkout-service/pkg/checkoutapi"
	"github.com/fjod/go_bookstore/inventory-service/pkg/inventoryapi"
	"github.com/fjod/go_bookstore/orders-service/pkg/ordersapi"
	"github.com/fjod/go_bookstore/pkg/circuitbreaker"
	"github.com/fjod/go_bookstore/pkg/config"
	"github.com/fjod/go_bookstore/pkg/logger"
	"github.com/fjod/go_bookstore/pkg/metrics"
	"github.com/fjod/go_bookstore/pkg/rpc"
	"github.com/fjod/go_bookstore/pricing-service/pkg/pricingapi"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

type Config struct {
	Env         string `envconfig:"ENV" default:"development"`
	Port        string `envconfig:"PORT" default:"50056"`
	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9096"`

	// Policy is advisory or reserve.
	Policy string `envconfig:"POLICY" default:"advisory"`

	CartAddr      string `envconfig:"CART_ADDR" default:"localhost:50052"`
	InventoryAddr string `envconfig:"INVENTORY_ADDR" default:"localhost:50053"`
	OrdersAddr    string `envconfig:"ORDERS_ADDR" default:"localhost:50054"`
	PricingAddr   string `envconfig:"PRICING_ADDR" default:"localhost:50055"`

	CartTimeout    time.Duration `envconfig:"CART_TIMEOUT" default:"2s"`
	StockTimeout   time.Duration `envconfig:"STOCK_TIMEOUT" default:"500ms"`
	PricingTimeout time.Duration `envconfig:"PRICING_TIMEOUT" default:"1s"`
	OrdersTimeout  time.Duration `envconfig:"ORDERS_TIMEOUT" default:"3s"`

	// CheckoutTimeout bounds a whole saga run.
	CheckoutTimeout time.Duration `envconfig:"CHECKOUT_TIMEOUT" default:"15s"`

	BreakerFailures    uint32        `envconfig:"BREAKER_FAILURES" default:"5"`
	BreakerOpenTimeout time.Duration `envconfig:"BREAKER_OPEN_TIMEOUT" default:"10s"`
}

func main() {
	var cfg Config
	if err := config.Load("CHECKOUT", &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.Must("checkout-service", cfg.Env)
	defer func() { _ = log.Sync() }()

	policy, err := service.ParsePolicy(cfg.Policy)
	if err != nil {
		log.Fatal("invalid checkout policy", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cartConn := mustDial(log, "cart", cfg.CartAddr)
	defer cartConn.Close()
	inventoryConn := mustDial(log, "inventory", cfg.InventoryAddr)
	defer inventoryConn.Close()
	pricingConn := mustDial(log, "pricing", cfg.PricingAddr)
	defer pricingConn.Close()
	ordersConn := mustDial(log, "orders", cfg.OrdersAddr)
	defer ordersConn.Close()

	breaker := circuitbreaker.Config{
		ConsecutiveFailures: cfg.BreakerFailures,
		OpenTimeout:         cfg.BreakerOpenTimeout,
	}

	checkoutService := service.NewCheckoutService(
		service.NewCartHandler(cartapi.NewCartServiceClient(cartConn), cfg.CartTimeout),
		service.NewInventoryHandler(inventoryapi.NewInventoryServiceClient(inventoryConn), cfg.StockTimeout, breaker, log),
		service.NewPricingHandler(pricingapi.NewPricingServiceClient(pricingConn), cfg.PricingTimeout),
		service.NewOrdersHandler(ordersapi.NewOrdersServiceClient(ordersConn), cfg.OrdersTimeout, breaker, log),
		policy,
	).WithTimeout(cfg.CheckoutTimeout)
	checkoutServer := checkoutgrpc.NewCheckoutServiceServer(checkoutService)

	lis, err := net.Listen("tcp", ":"+cfg.Port)
	if err != nil {
		log.Fatal("failed to listen", zap.Error(err))
	}

	grpcServer, _ := rpc.NewServer("checkout-service", log)
	checkoutapi.RegisterCheckoutServiceServer(grpcServer, checkoutServer)

	go metrics.Serve(ctx, cfg.MetricsAddr, log)
	go func() {
		log.Info("checkout service listening", zap.String("port", cfg.Port), zap.String("policy", string(policy)))
		if err := grpcServer.Serve(lis); err != nil {
			log.Error("grpc server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down checkout service")
	grpcServer.GracefulStop()
	log.Info("checkout service stopped")
}

func mustDial(log *zap.Logger, name, addr string) *grpc.ClientConn {
	conn, err := rpc.Dial(addr)
	if err != nil {
		log.Fatal("failed to create client", zap.String("upstream", name), zap.Error(err))
	}
	log.Info("upstream client ready", zap.String("upstream", name), zap.String("addr", addr))
	return conn
}
