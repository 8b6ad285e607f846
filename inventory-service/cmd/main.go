package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	inventorygrpc "github.com/fjod/go_bookstore/inventory-service/internal/grpc"
	"github.com/fjod/go_bookstore/inventory-service/internal/oracle"
	"github.com/fjod/go_bookstore/inventory-service/internal/store"
	"github.com/fjod/go_bookstore/inventory-service/pkg/inventoryapi"
	"github.com/fjod/go_bookstore/pkg/config"
	"github.com/fjod/go_bookstore/pkg/logger"
	"github.com/fjod/go_bookstore/pkg/metrics"
	"github.com/fjod/go_bookstore/pkg/rpc"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Config struct {
	Env         string `envconfig:"ENV" default:"development"`
	Port        string `envconfig:"PORT" default:"50053"`
	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9093"`

	// Store is memory or redis.
	Store         string `envconfig:"STORE" default:"memory"`
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`

	// Seed provisions the starter ledger on boot.
	Seed bool `envconfig:"SEED" default:"true"`
	// SKUAliases extends the built-in alias table, e.g. "gof:design_patterns_gof".
	SKUAliases map[string]string `envconfig:"SKU_ALIASES"`
}

func main() {
	var cfg Config
	if err := config.Load("INVENTORY", &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.Must("inventory-service", cfg.Env)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	inv, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal("failed to open stock store", zap.String("store", cfg.Store), zap.Error(err))
	}
	defer closeStore()

	if cfg.Seed {
		if err := oracle.Seed(ctx, inv, oracle.SeedStock); err != nil {
			log.Fatal("failed to seed stock", zap.Error(err))
		}
		log.Info("initialized stock", zap.Int("skus", len(oracle.SeedStock)))
	}

	aliases := make(map[string]string, len(oracle.SeedAliases)+len(cfg.SKUAliases))
	for k, v := range oracle.SeedAliases {
		aliases[k] = v
	}
	for k, v := range cfg.SKUAliases {
		aliases[k] = v
	}
	server := inventorygrpc.NewInventoryServiceServer(oracle.New(inv, oracle.NewResolver(aliases)))

	lis, err := net.Listen("tcp", ":"+cfg.Port)
	if err != nil {
		log.Fatal("failed to listen", zap.Error(err))
	}

	grpcServer, _ := rpc.NewServer("inventory-service", log)
	inventoryapi.RegisterInventoryServiceServer(grpcServer, server)

	go metrics.Serve(ctx, cfg.MetricsAddr, log)
	go func() {
		log.Info("inventory service listening", zap.String("port", cfg.Port), zap.String("store", cfg.Store))
		if err := grpcServer.Serve(lis); err != nil {
			log.Error("grpc server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down inventory service")
	grpcServer.GracefulStop()
	log.Info("inventory service stopped")
}

func openStore(ctx context.Context, cfg Config) (store.InventoryStore, func(), error) {
	switch cfg.Store {
	case "memory":
		s := store.NewMemoryStore()
		return s, func() { _ = s.Close() }, nil
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		s := store.NewRedisStore(client)
		return s, func() {
			_ = s.Close()
			_ = client.Close()
		}, nil
	default:
		return nil, nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}
