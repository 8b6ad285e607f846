package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	c "github.com/fjod/go_bookstore/cart-service/internal/cache"
	cartgrpc "github.com/fjod/go_bookstore/cart-service/internal/grpc"
	"github.com/fjod/go_bookstore/cart-service/internal/poller"
	"github.com/fjod/go_bookstore/cart-service/internal/repository"
	s "github.com/fjod/go_bookstore/cart-service/internal/service"
	"github.com/fjod/go_bookstore/cart-service/pkg/cartapi"
	"github.com/fjod/go_bookstore/pkg/config"
	"github.com/fjod/go_bookstore/pkg/logger"
	"github.com/fjod/go_bookstore/pkg/metrics"
	"github.com/fjod/go_bookstore/pkg/rpc"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Config struct {
	Env         string `envconfig:"ENV" default:"development"`
	Port        string `envconfig:"PORT" default:"50052"`
	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9092"`

	// Repository is memory or mongo.
	Repository  string `envconfig:"REPOSITORY" default:"memory"`
	MongoURI    string `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
	MongoDBName string `envconfig:"MONGO_DB_NAME" default:"cartdb"`

	// RedisAddr enables the read-through cache when set.
	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`

	// KafkaBrokers enables the orders.created backstop consumer when set.
	KafkaBrokers []string `envconfig:"KAFKA_BROKERS"`
}

func main() {
	var cfg Config
	if err := config.Load("CART", &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.Must("cart-service", cfg.Env)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, closeRepo, err := openRepository(ctx, cfg)
	if err != nil {
		log.Fatal("failed to open cart repository", zap.String("repository", cfg.Repository), zap.Error(err))
	}
	defer closeRepo()

	var cache c.CartCache
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatal("redis connection failed", zap.Error(err))
		}
		log.Info("redis ping succeeded", zap.String("addr", cfg.RedisAddr))
		cache = c.NewRedisCache(redisClient)
	}

	service := s.NewCartService(repo, cache)
	cartServer := cartgrpc.NewCartServiceServer(service)

	if len(cfg.KafkaBrokers) > 0 {
		backstop := poller.NewPoller(service, log.Named("backstop"), cfg.KafkaBrokers...)
		defer backstop.Close()
		go backstop.Run(logger.WithContext(ctx, log))
		log.Info("backstop consumer started", zap.Strings("brokers", cfg.KafkaBrokers))
	}

	lis, err := net.Listen("tcp", ":"+cfg.Port)
	if err != nil {
		log.Fatal("failed to listen", zap.Error(err))
	}

	grpcServer, _ := rpc.NewServer("cart-service", log)
	cartapi.RegisterCartServiceServer(grpcServer, cartServer)

	go metrics.Serve(ctx, cfg.MetricsAddr, log)
	go func() {
		log.Info("cart service listening", zap.String("port", cfg.Port), zap.String("repository", cfg.Repository))
		if err := grpcServer.Serve(lis); err != nil {
			log.Error("grpc server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down cart service")
	grpcServer.GracefulStop()
	log.Info("cart service stopped")
}

func openRepository(ctx context.Context, cfg Config) (repository.CartRepository, func(), error) {
	switch cfg.Repository {
	case "memory":
		return repository.NewMemoryRepository(), func() {}, nil
	case "mongo":
		db, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			return nil, nil, err
		}
		repo := repository.NewMongoRepository(db)
		if err := repo.CreateIndexes(ctx); err != nil {
			_ = db.Client().Disconnect(context.Background())
			return nil, nil, err
		}
		return repo, func() { _ = db.Client().Disconnect(context.Background()) }, nil
	default:
		return nil, nil, fmt.Errorf("unknown repository %q", cfg.Repository)
	}
}
