package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"metitejidos.com.ar/storefront/internal/router"
	"metitejidos.com.ar/storefront/pkg/ai"
	"metitejidos.com.ar/storefront/pkg/auth"
	"metitejidos.com.ar/storefront/pkg/checkout"
	"metitejidos.com.ar/storefront/pkg/events"
	"metitejidos.com.ar/storefront/pkg/global"
	"metitejidos.com.ar/storefront/pkg/mongo"
	"metitejidos.com.ar/storefront/pkg/payment"
	"metitejidos.com.ar/storefront/pkg/redis"
)

const idempotencyTTL = 24 * time.Hour

func main() {
	cfg, err := global.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	logger, err := global.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Error building logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *global.Config, logger *zap.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// MongoDB
	startCtx, startCancel := global.GetDefaultTimer()
	db, err := mongo.Connect(startCtx, cfg.Mongo, logger)
	if err != nil {
		startCancel()
		return err
	}
	defer func() { _ = db.Disconnect(context.Background()) }()

	if err := db.EnsureIndexes(startCtx); err != nil {
		startCancel()
		return err
	}

	// Redis
	redisClient, err := redis.Connect(startCtx, cfg.Redis)
	startCancel()
	if err != nil {
		return err
	}
	defer func() { _ = redisClient.Close() }()
	logger.Info("connected to Redis", zap.String("addr", cfg.Redis.Addr))

	unit, err := cfg.Store.CurrencyUnit()
	if err != nil {
		return err
	}

	// Stores
	productStore := mongo.NewProductStore(db)
	orderStore := mongo.NewOrderStore(db, productStore, unit.String())
	userStore := mongo.NewUserStore(db)
	movementStore := mongo.NewStockMovementStore(db)

	health := []router.HealthCheck{
		{Name: "database", Check: db.Ping},
		{Name: "redis", Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }},
	}

	// RabbitMQ is optional; without it orders are created without events
	var creator checkout.OrderCreator = orderStore
	var worker *events.Worker
	if cfg.RabbitMQ.URL != "" {
		conn, err := amqp.Dial(cfg.RabbitMQ.URL)
		if err != nil {
			return fmt.Errorf("connect to RabbitMQ: %w", err)
		}
		defer conn.Close()

		pubCh, err := conn.Channel()
		if err != nil {
			return fmt.Errorf("open RabbitMQ channel: %w", err)
		}
		defer pubCh.Close()
		if err := events.SetupTopology(pubCh); err != nil {
			return err
		}

		consumeCh, err := conn.Channel()
		if err != nil {
			return fmt.Errorf("open RabbitMQ channel: %w", err)
		}
		defer consumeCh.Close()
		if err := consumeCh.Qos(1, 0, false); err != nil {
			return fmt.Errorf("set QoS: %w", err)
		}

		creator = events.NewPublishingOrders(orderStore, events.NewPublisher(pubCh), logger)
		worker = events.NewWorker(redis.NewIdempotency(redisClient, "order_stock", idempotencyTTL), movementStore, logger)
		if err := worker.Consume(ctx, consumeCh); err != nil {
			return err
		}

		health = append(health, router.HealthCheck{Name: "rabbitmq", Check: func(context.Context) error {
			if conn.IsClosed() {
				return amqp.ErrClosed
			}
			return nil
		}})
		logger.Info("connected to RabbitMQ")
	} else {
		logger.Info("RabbitMQ not configured, order events disabled")
	}

	// Checkout collaborators
	var gateway checkout.PaymentGateway
	if cfg.MercadoPago.AccessToken != "" {
		mp, err := payment.NewMercadoPago(cfg.MercadoPago, unit.String(), logger)
		if err != nil {
			return err
		}
		gateway = mp
	} else {
		logger.Info("MercadoPago not configured, gateway checkout disabled")
	}

	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Expiration)
	handler := router.NewHandler(router.Deps{
		Products:   productStore,
		Cache:      redis.NewProductCache(redisClient, cfg.Redis.CacheTTL),
		Carts:      redis.NewCartStore(redisClient, cfg.Redis.CartTTL),
		Orders:     orderStore,
		Creator:    creator,
		Movements:  movementStore,
		Users:      auth.NewService(userStore, tokens),
		Tokens:     tokens,
		Dispatcher: checkout.NewDispatcher(creator, gateway, logger),
		Insights:   ai.NewClient(cfg.AI, unit, logger),
		Health:     health,
		Logger:     logger,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router.NewEngine(cfg, logger, handler),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server is running", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	}

	logger.Info("shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	if worker != nil {
		worker.Stop()
	}
	logger.Info("server stopped")
	return nil
}
