package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	ordersgrpc "github.com/fjod/go_bookstore/orders-service/internal/grpc"
	"github.com/fjod/go_bookstore/orders-service/internal/ledger"
	"github.com/fjod/go_bookstore/orders-service/internal/publisher"
	"github.com/fjod/go_bookstore/orders-service/internal/repository"
	"github.com/fjod/go_bookstore/orders-service/pkg/ordersapi"
	"github.com/fjod/go_bookstore/pkg/config"
	"github.com/fjod/go_bookstore/pkg/logger"
	"github.com/fjod/go_bookstore/pkg/metrics"
	"github.com/fjod/go_bookstore/pkg/rpc"
	"go.uber.org/zap"
)

type Config struct {
	Env         string `envconfig:"ENV" default:"development"`
	Port        string `envconfig:"PORT" default:"50054"`
	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9094"`

	// Repository is memory or postgres.
	Repository string `envconfig:"REPOSITORY" default:"memory"`
	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"postgres"`
	DBPassword string `envconfig:"DB_PASSWORD" default:"postgres"`
	DBName     string `envconfig:"DB_NAME" default:"bookstore"`

	// KafkaBrokers enables the outbox publisher when set.
	KafkaBrokers []string      `envconfig:"KAFKA_BROKERS"`
	OutboxTick   time.Duration `envconfig:"OUTBOX_TICK" default:"1s"`
}

type store interface {
	repository.OrderRepository
	repository.OutboxStore
}

func main() {
	var cfg Config
	if err := config.Load("ORDERS", &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.Must("orders-service", cfg.Env)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, err := openRepository(cfg)
	if err != nil {
		log.Fatal("failed to open order repository", zap.String("repository", cfg.Repository), zap.Error(err))
	}
	defer repo.Close()

	var wg sync.WaitGroup
	pollerCtx, pollerCancel := context.WithCancel(logger.WithContext(context.Background(), log))
	if len(cfg.KafkaBrokers) > 0 {
		poller := publisher.NewOutboxPoller(repo, log.Named("outbox"), cfg.KafkaBrokers...)
		defer poller.Close()
		wg.Add(1)
		go func() {
			defer wg.Done()
			poller.Run(pollerCtx)
		}()
		log.Info("outbox publisher started", zap.Strings("brokers", cfg.KafkaBrokers))
	} else {
		log.Warn("no kafka brokers configured, orders.created events stay in the outbox")
	}

	lis, err := net.Listen("tcp", ":"+cfg.Port)
	if err != nil {
		log.Fatal("failed to listen", zap.Error(err))
	}

	grpcServer, _ := rpc.NewServer("orders-service", log)
	ordersapi.RegisterOrdersServiceServer(grpcServer, ordersgrpc.NewOrdersHandler(ledger.New(repo)))

	go metrics.Serve(ctx, cfg.MetricsAddr, log)
	go func() {
		log.Info("orders service listening", zap.String("port", cfg.Port), zap.String("repository", cfg.Repository))
		if err := grpcServer.Serve(lis); err != nil {
			log.Error("grpc server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down orders service")
	grpcServer.GracefulStop()
	pollerCancel()

	doneChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(doneChan)
	}()

	select {
	case <-doneChan:
		log.Info("outbox publisher stopped cleanly")
	case <-time.After(5 * time.Second):
		log.Warn("outbox publisher didn't stop in time")
	}
	log.Info("orders service stopped")
}

func openRepository(cfg Config) (store, error) {
	switch cfg.Repository {
	case "memory":
		return repository.NewMemoryRepository(), nil
	case "postgres":
		repo, err := repository.NewRepository(&repository.Credentials{
			Host:     cfg.DBHost,
			Port:     cfg.DBPort,
			User:     cfg.DBUser,
			Password: cfg.DBPassword,
			DBName:   cfg.DBName,
		})
		if err != nil {
			return nil, err
		}
		if err := repo.RunMigrations(); err != nil {
			_ = repo.Close()
			return nil, err
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown repository %q", cfg.Repository)
	}
}
