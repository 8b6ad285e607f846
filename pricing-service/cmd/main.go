package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/fjod/go_bookstore/pkg/config"
	"github.com/fjod/go_bookstore/pkg/logger"
	"github.com/fjod/go_bookstore/pkg/metrics"
	"github.com/fjod/go_bookstore/pkg/rpc"
	"github.com/fjod/go_bookstore/pricing-service/internal/evaluator"
	grpcHandler "github.com/fjod/go_bookstore/pricing-service/internal/grpc"
	"github.com/fjod/go_bookstore/pricing-service/internal/repository"
	"github.com/fjod/go_bookstore/pricing-service/pkg/pricingapi"
	"go.uber.org/zap"
)

type Config struct {
	Env         string `envconfig:"ENV" default:"development"`
	Port        string `envconfig:"PORT" default:"50055"`
	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9095"`
	DBPath      string `envconfig:"DB_PATH" default:"./prices.db"`
}

func main() {
	var cfg Config
	if err := config.Load("PRICING", &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.Must("pricing-service", cfg.Env)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, err := repository.NewRepository(cfg.DBPath)
	if err != nil {
		log.Fatal("failed to open price list", zap.Error(err))
	}
	defer repo.Close()

	if err := repo.RunMigrations(); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}
	log.Info("migrations completed", zap.String("db", cfg.DBPath))

	grpcServer, _ := rpc.NewServer("pricing-service", log)
	pricingapi.RegisterPricingServiceServer(grpcServer, grpcHandler.NewPricingServiceServer(evaluator.New(repo)))

	lis, err := net.Listen("tcp", ":"+cfg.Port)
	if err != nil {
		log.Fatal("failed to listen", zap.Error(err))
	}

	go metrics.Serve(ctx, cfg.MetricsAddr, log)
	go func() {
		log.Info("pricing service listening", zap.String("port", cfg.Port))
		if err := grpcServer.Serve(lis); err != nil {
			log.Error("grpc server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down pricing service")
	grpcServer.GracefulStop()
}
