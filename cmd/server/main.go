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

	"github.com/DriveNow-Rental/service-booking/internal/application"
	"github.com/DriveNow-Rental/service-booking/internal/cache"
	"github.com/DriveNow-Rental/service-booking/internal/config"
	bookingDomain "github.com/DriveNow-Rental/service-booking/internal/domain/booking"
	bookingEvents "github.com/DriveNow-Rental/service-booking/internal/events"
	"github.com/DriveNow-Rental/service-booking/internal/handler"
	"github.com/DriveNow-Rental/service-booking/internal/repository"
	"github.com/DriveNow-Rental/service-booking/pkg/database"
	"github.com/DriveNow-Rental/service-booking/pkg/health"
	"github.com/DriveNow-Rental/service-booking/pkg/kafka"
	"github.com/DriveNow-Rental/service-booking/pkg/logger"
	"github.com/DriveNow-Rental/service-booking/pkg/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const serviceName = "service-booking"

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
		zap.Bool("advance_reservations", cfg.Booking.AdvanceReservations),
	)

	// Connect to database
	db, err := database.Connect(database.PostgresConfig{
		Host:            cfg.DBConfig.Host,
		Port:            cfg.DBConfig.Port,
		User:            cfg.DBConfig.User,
		Password:        cfg.DBConfig.Password,
		DBName:          cfg.DBConfig.DBName,
		SSLMode:         cfg.DBConfig.SSLMode,
		MaxIdleConns:    cfg.DBConfig.MaxIdleConns,
		MaxOpenConns:    cfg.DBConfig.MaxOpenConns,
		ConnMaxLifetime: cfg.DBConfig.ConnMaxLifetime,
	}, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	store := repository.NewGormStore(db)
	if cfg.AppEnv == "development" {
		if err := store.AutoMigrate(); err != nil {
			log.Fatal("failed to run auto-migration", zap.Error(err))
		}
		log.Info("database migration completed (dev auto-migrate)")
	}

	// Booking events go to Kafka when enabled
	var notifier application.NotificationSink = application.NoopNotificationSink
	if cfg.KafkaConfig.Enabled {
		producer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
		defer func() { _ = producer.Close() }()
		notifier = bookingEvents.NewKafkaNotifier(producer, cfg.KafkaConfig.BookingTopic, log)
	}

	// Statistics cache is optional; a nil interface disables it
	var statsCache application.StatsCache
	if cfg.RedisConfig.Enabled {
		client, err := cache.NewClient(cfg.RedisConfig.URL)
		if err != nil {
			log.Fatal("failed to configure redis", zap.Error(err))
		}
		defer func() { _ = client.Close() }()
		redisCache := cache.NewRedisStatsCache(client, cfg.RedisConfig.StatsTTL)
		if err := redisCache.Ping(context.Background()); err != nil {
			log.Warn("redis unreachable, statistics will be computed uncached until it recovers", zap.Error(err))
		}
		statsCache = redisCache
	}

	// Initialize application services
	statisticsService := application.NewStatisticsService(store, statsCache, cfg.Booking.DriverCommissionRate, log)
	// Committed changes drop stale statistics before they are published
	notifier = application.FanOutSink{statisticsService, notifier}

	guard := application.NewAvailabilityGuard(cfg.Booking.AdvanceReservations, log)
	bookingService := application.NewBookingService(
		store,
		guard,
		bookingDomain.NewRentalPricingStrategy(),
		notifier,
		log,
		application.WithNumberAttempts(cfg.Booking.BookingNumberAttempts),
	)
	assignmentService := application.NewAssignmentService(store, guard, notifier, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Payment events settle bookings
	if cfg.KafkaConfig.Enabled && cfg.KafkaConfig.ConsumePayment {
		paymentConsumer := bookingEvents.NewPaymentEventConsumer(
			cfg.KafkaConfig.Brokers,
			cfg.KafkaConfig.GroupPrefix+serviceName,
			cfg.KafkaConfig.PaymentTopic,
			bookingService,
			log,
		)
		defer func() { _ = paymentConsumer.Close() }()

		go func() {
			log.Info("starting payment event consumer", zap.String("topic", cfg.KafkaConfig.PaymentTopic))
			if err := paymentConsumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("payment event consumer error", zap.Error(err))
			}
		}()
	}

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware(log))

	health.NewHandler(db, serviceName).RegisterRoutes(router)

	handler.NewBookingHandler(bookingService, assignmentService).RegisterRoutes(&router.RouterGroup)
	handler.NewDriverTripHandler(bookingService).RegisterRoutes(&router.RouterGroup)
	handler.NewStatsHandler(statisticsService).RegisterRoutes(&router.RouterGroup)

	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down " + serviceName + "...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info(serviceName + " stopped")
}
