package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/seatbooking/config"
	"github.com/Domenick1991/seatbooking/internal/bootstrap"
	"github.com/Domenick1991/seatbooking/internal/email"
	"github.com/Domenick1991/seatbooking/internal/kafka"
	"github.com/Domenick1991/seatbooking/internal/logging"
	"github.com/Domenick1991/seatbooking/internal/service/notifications"
	kafkaGo "github.com/segmentio/kafka-go"
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

	loc, err := cfg.Booking.Location()
	if err != nil {
		log.Fatalf("load timezone: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, _, err := bootstrap.OpenStore(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("open storage: %v", err)
	}
	defer store.Close()

	emailSender := email.NewSender(logger)
	meals := notifications.NewMealService(store.Bookings, store.Users, emailSender,
		notifications.WithLocation(loc),
		notifications.WithSendHour(cfg.Worker.MealNotifyHour),
		notifications.WithLogger(logger),
	)

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic)
	defer consumer.Close()

	go func() {
		err := consumer.Consume(ctx, func(ctx context.Context, msg kafkaGo.Message) error {
			event, err := kafka.DecodeBookingEvent(msg)
			if err != nil {
				logger.Warn("decode event", slog.Any("error", err))
				return nil
			}
			return emailSender.Send(ctx, event)
		})
		if err != nil {
			logger.Error("consumer stopped", slog.Any("error", err))
			stop()
		}
	}()

	ticker := time.NewTicker(time.Duration(cfg.Worker.MealNotifyIntervalMinutes) * time.Minute)
	defer ticker.Stop()

	logger.Info("worker started",
		slog.String("topic", cfg.Kafka.NotificationsTopic),
		slog.Int("meal_notify_hour", cfg.Worker.MealNotifyHour),
	)
	for {
		select {
		case <-ticker.C:
			due, sent, err := meals.RunDue(ctx)
			if err != nil {
				logger.Error("meal notifications", slog.Any("error", err))
				continue
			}
			if due {
				logger.Info("meal notifications done", slog.Int("sent", sent))
			}
		case <-ctx.Done():
			logger.Info("shutting down worker")
			return
		}
	}
}
