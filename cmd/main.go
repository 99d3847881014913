package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjod/go_cart/marketplace/internal/auth"
	"github.com/fjod/go_cart/marketplace/internal/cache"
	"github.com/fjod/go_cart/marketplace/internal/config"
	h "github.com/fjod/go_cart/marketplace/internal/http"
	"github.com/fjod/go_cart/marketplace/internal/logger"
	"github.com/fjod/go_cart/marketplace/internal/publisher"
	"github.com/fjod/go_cart/marketplace/internal/repository"
	s "github.com/fjod/go_cart/marketplace/internal/service"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type eventPublisher interface {
	s.Publisher
	Close() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.New(logger.Options{
		Service:   "marketplace",
		Env:       cfg.AppEnv,
		Level:     cfg.LogLevel,
		AddSource: !cfg.IsDevelopment(),
	})

	ctx := context.Background()

	mongoDB, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		fatal("failed to connect to MongoDB", err)
	}
	slog.Info("connected to MongoDB", "database", cfg.MongoDB)

	if err := repository.RunMigrations(cfg.MongoURI, cfg.MongoDB, cfg.MigrationsPath); err != nil {
		fatal("failed to run migrations", err)
	}
	store := repository.NewStore(mongoDB)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		fatal("redis connection failed", err)
	}
	slog.Info("redis ping succeeded", "addr", cfg.RedisAddr)

	var events eventPublisher = publisher.Noop{}
	if len(cfg.KafkaBrokers) > 0 {
		events = publisher.NewKafkaPublisher(cfg.KafkaTopic, cfg.KafkaBrokers...)
		slog.Info("publishing order events", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	} else {
		slog.Warn("KAFKA_BROKERS not set, order events are disabled")
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	cartCache := cache.NewRedisCache(redisClient)

	catalog := s.NewCatalogService(store.Products)
	carts := s.NewCartService(store.Carts, store.Products, cartCache)
	orders := s.NewOrderService(store.Orders, store.Products, store.Carts, store, carts, events, cfg.Currency)
	accounts := s.NewAuthService(store.Users, tokens)

	router := h.NewRouter(h.RouterConfig{
		RequestTimeout: cfg.RequestTimeout,
		MaxBodyBytes:   cfg.MaxBodyBytes,
		CORSOrigins:    cfg.CORSOrigins,
		Tokens:         tokens,
		HealthChecks: map[string]func(context.Context) error{
			"mongo": func(ctx context.Context) error { return mongoDB.Client().Ping(ctx, readpref.Primary()) },
			"redis": func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		},
	}, h.Handlers{
		Auth:     h.NewAuthHandler(accounts, cfg.RequestTimeout),
		Products: h.NewProductHandler(catalog, cfg.RequestTimeout),
		Cart:     h.NewCartHandler(carts, cfg.RequestTimeout),
		Orders:   h.NewOrdersHandler(orders, cfg.RequestTimeout),
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("marketplace API starting", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal("server error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}
	if err := events.Close(); err != nil {
		slog.Error("failed to close publisher", "error", err)
	}
	if err := redisClient.Close(); err != nil {
		slog.Error("failed to close redis", "error", err)
	}
	if err := store.Close(shutdownCtx); err != nil {
		slog.Error("failed to disconnect MongoDB", "error", err)
	}

	slog.Info("server exited")
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}
