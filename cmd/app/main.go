package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/seatbooking/api"
	"github.com/Domenick1991/seatbooking/config"
	"github.com/Domenick1991/seatbooking/internal/bootstrap"
	"github.com/Domenick1991/seatbooking/internal/cache"
	"github.com/Domenick1991/seatbooking/internal/kafka"
	"github.com/Domenick1991/seatbooking/internal/logging"
	"github.com/Domenick1991/seatbooking/internal/middleware"
	"github.com/Domenick1991/seatbooking/internal/service/booking"
	"github.com/Domenick1991/seatbooking/internal/service/seats"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := logging.New(os.Stdout, logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	slog.SetDefault(logger)

	loc, err := cfg.Booking.Location()
	if err != nil {
		log.Fatalf("load timezone: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, pingStore, err := bootstrap.OpenStore(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("open storage: %v", err)
	}
	defer store.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, cfg.Booking.LayoutCacheTTL())
	defer redisCache.Close()
	if err := redisCache.Ping(ctx); err != nil {
		logger.Warn("redis unavailable, running without date locks and layout cache", slog.Any("error", err))
	}

	producer := kafka.NewProducer(cfg.Kafka.Brokers, logger)
	defer producer.Close()

	seatService := seats.NewSeatService(store.SeatsConf, store.Overrides,
		seats.WithLayoutCache(redisCache),
		seats.WithLogger(logger),
	)
	bookingService := booking.NewBookingService(store.Bookings, store.Users, seatService,
		booking.WithLocker(redisCache, cfg.Booking.LockTTL(), cfg.Booking.LockWait()),
		booking.WithProducer(producer, cfg.Kafka.BookingTopic),
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
		booking.WithLocation(loc),
		booking.WithRecurringHorizon(cfg.Booking.RecurringHorizonDays),
		booking.WithLogger(logger),
	)

	router := bootstrap.NewRouter(cfg, logger,
		middleware.NewJWTValidator(cfg.Auth.JWTSecret, cfg.Auth.AdminRole),
		bootstrap.Handlers{
			Bookings: api.NewBookingHandler(bookingService),
			Seats:    api.NewSeatHandler(seatService, bookingService),
			Health: api.NewHealthHandler(map[string]api.Pinger{
				"storage": pingStore,
				"redis":   redisCache,
				"kafka":   api.PingFunc(producer.CheckConnection),
			}),
		},
	)

	if err := bootstrap.Run(ctx, cfg, logger, router); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
