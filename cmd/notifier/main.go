// cmd/notifier/main.go
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/agrimarket-backend/internal/config"
	"github.com/javajoker/agrimarket-backend/internal/database"
	"github.com/javajoker/agrimarket-backend/internal/messaging"
	"github.com/javajoker/agrimarket-backend/internal/services"
	"github.com/javajoker/agrimarket-backend/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatal("Failed to load configuration: ", err)
	}
	cfg.ConfigureLogger()

	if len(cfg.Kafka.Brokers) == 0 {
		logrus.Fatal("KAFKA_BROKERS is required for the notifier")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, cfg.Telemetry.ServiceName+"-notifier", cfg.Telemetry.ServiceVersion, cfg.Telemetry.OTLPEndpoint)
	if err != nil {
		logrus.Fatal("Failed to initialize tracer provider: ", err)
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	db, err := database.Initialize(cfg.Database)
	if err != nil {
		logrus.Fatal("Failed to initialize database: ", err)
	}
	defer database.Close(db)

	notifications := services.NewNotificationService(db, services.NewSendersFromConfig(cfg)...)

	consumer := messaging.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.NotificationsTopic, cfg.Kafka.ConsumerGroup,
		messaging.WithStartOffset(kafka.FirstOffset))
	defer func() { _ = consumer.Close() }()

	logrus.WithFields(logrus.Fields{
		"topic": cfg.Kafka.NotificationsTopic,
		"group": cfg.Kafka.ConsumerGroup,
	}).Info("Starting notification consumer")

	if err := consumer.Consume(ctx, messaging.NotificationHandler(notifications)); err != nil && !errors.Is(err, context.Canceled) {
		logrus.WithError(err).Error("Consumer stopped")
		os.Exit(1)
	}

	logrus.Info("Notifier exited")
}
