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

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/application"
	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/common/auth"
	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/common/cache"
	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/common/database"
	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/common/health"
	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/common/kafka"
	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/common/logger"
	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/common/middleware"
	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/config"
	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/events"
	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/handler"
	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/mail"
	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/repository"
)

const serviceName = "service-marketplace"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting "+serviceName,
		zap.String("port", cfg.Port),
		zap.String("hall_id", cfg.HallID),
	)

	// Connect to database
	dbConfig := database.PostgresConfig{
		Host:     cfg.DBConfig.Host,
		Port:     cfg.DBConfig.Port,
		User:     cfg.DBConfig.User,
		Password: cfg.DBConfig.Password,
		DBName:   cfg.DBConfig.DBName,
		SSLMode:  cfg.DBConfig.SSLMode,
	}
	db, err := database.Connect(dbConfig, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	if err := database.RunMigrations(dbConfig.DatabaseURL(), "migrations", log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Idempotency keys live in Redis when configured, otherwise in process memory.
	var store cache.Store = cache.NewMemoryStore()
	if cfg.RedisConfig.Addr != "" {
		redisClient, err := cache.NewRedisClient(ctx, cfg.RedisConfig.Addr, cfg.RedisConfig.Password, cfg.RedisConfig.DB)
		if err != nil {
			log.Warn("redis unavailable, using in-memory idempotency store", zap.Error(err))
		} else {
			defer func() { _ = redisClient.Close() }()
			store = cache.NewRedisStore(redisClient)
		}
	}

	// Outbound mail goes through the AMQP relay when configured.
	var mailer mail.Mailer = mail.NewLogMailer(log)
	if cfg.AMQPConfig.URL != "" {
		amqpMailer, err := mail.NewAMQPMailer(cfg.AMQPConfig.URL, cfg.AMQPConfig.Exchange, cfg.AMQPConfig.Queue, log)
		if err != nil {
			log.Warn("mail relay unavailable, logging mail instead", zap.Error(err))
		} else {
			defer func() { _ = amqpMailer.Close() }()
			mailer = amqpMailer
		}
	}

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg.JWTConfig.Secret, cfg.JWTConfig.AccessTTL, cfg.JWTConfig.RefreshTTL)

	// Initialize Kafka producer
	kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
	defer func() { _ = kafkaProducer.Close() }()

	// Initialize repositories
	orderRepo := repository.NewGormOrderRepository(db)
	transportRepo := repository.NewGormTransportRepository(db)
	partyHallRepo := repository.NewGormPartyHallRepository(db)
	notificationRepo := repository.NewGormNotificationRepository(db)

	// Initialize application services
	orderService := application.NewOrderService(orderRepo, kafkaProducer, store, log)
	transportService := application.NewTransportService(transportRepo, cfg.Pricing.TransportRatePerKm, kafkaProducer, store, log)
	partyHallService := application.NewPartyHallService(partyHallRepo, cfg.HallID, cfg.Pricing.PartyHall, kafkaProducer, store, log)
	notificationService := application.NewNotificationService(notificationRepo)

	// Start the side-effect worker in a goroutine
	groupID := cfg.KafkaConfig.GroupPrefix + "marketplace-side-effects"
	sideEffects := events.NewSideEffectConsumer(
		kafka.NewConsumer(cfg.KafkaConfig.Brokers, groupID, events.TopicMarketplaceEvents, log),
		notificationRepo,
		mailer,
		events.Recipients{
			AdminUserID:    cfg.Admin.UserID,
			AdminEmail:     cfg.Admin.Email,
			SupportContact: cfg.Admin.SupportContact,
		},
		log,
	)
	defer func() { _ = sideEffects.Close() }()

	go func() {
		log.Info("starting side-effect consumer")
		if err := sideEffects.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("side-effect consumer error", zap.Error(err))
		}
	}()

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.MetricsMiddleware())

	// Register health check and metrics routes
	health.NewHandler(db, serviceName).RegisterRoutes(router)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Register routes
	handler.NewOrderHandler(orderService).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewTransportHandler(transportService).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewPartyHallHandler(partyHallService).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewNotificationHandler(notificationService).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewAdminHandler(orderService, transportService).RegisterRoutes(&router.RouterGroup, jwtManager)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down " + serviceName + "...")

	// Cancel the consumer context
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info(serviceName + " stopped")
}
