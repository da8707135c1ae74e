// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/javajoker/agrimarket-backend/internal/config"
	"github.com/javajoker/agrimarket-backend/internal/database"
	"github.com/javajoker/agrimarket-backend/internal/i18n"
	"github.com/javajoker/agrimarket-backend/internal/messaging"
	"github.com/javajoker/agrimarket-backend/internal/router"
	"github.com/javajoker/agrimarket-backend/internal/services"
	"github.com/javajoker/agrimarket-backend/internal/telemetry"
	"github.com/javajoker/agrimarket-backend/internal/utils"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatal("Failed to load configuration: ", err)
	}
	cfg.ConfigureLogger()

	ctx := context.Background()

	// Initialize telemetry
	shutdownTracer, err := telemetry.InitTracerProvider(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.ServiceVersion, cfg.Telemetry.OTLPEndpoint)
	if err != nil {
		logrus.Fatal("Failed to initialize tracer provider: ", err)
	}

	var metricsHandler http.Handler
	shutdownMeter := func(context.Context) error { return nil }
	if cfg.Telemetry.MetricsEnabled {
		metricsHandler, shutdownMeter, err = telemetry.InitMeterProvider(cfg.Telemetry.ServiceName, cfg.Telemetry.ServiceVersion)
		if err != nil {
			logrus.Fatal("Failed to initialize meter provider: ", err)
		}
	}

	// Run database migrations
	if cfg.Database.AutoMigrate {
		if err := database.RunMigrations(cfg.Database.URL()); err != nil {
			logrus.Fatal("Failed to run migrations: ", err)
		}
	}

	// Initialize database
	db, err := database.Initialize(cfg.Database)
	if err != nil {
		logrus.Fatal("Failed to initialize database: ", err)
	}
	defer database.Close(db)

	// Initialize i18n
	if err := i18n.Initialize(cfg.I18n.DefaultLocale); err != nil {
		logrus.Fatal("Failed to initialize i18n: ", err)
	}

	utils.SetJWTSecret(cfg.JWT.SecretKey)
	utils.SetJWTIssuer(cfg.JWT.Issuer)

	// Notifications go to Kafka when brokers are configured, otherwise to an
	// in-process worker pool.
	notifications := services.NewNotificationService(db, services.NewSendersFromConfig(cfg)...)
	drainNotifications := func(context.Context) error { return nil }
	if len(cfg.Kafka.Brokers) > 0 {
		// The pool keeps broker writes off the request path.
		publisher := messaging.NewNotificationPublisher(messaging.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.NotificationsTopic))
		pool := services.NewWorkerPool(notifications.Forward(publisher), cfg.Notification.Workers, cfg.Notification.QueueSize)
		notifications.UseQueue(pool)
		drainNotifications = func(ctx context.Context) error {
			drainErr := pool.Shutdown(ctx)
			if err := publisher.Close(); err != nil {
				return err
			}
			return drainErr
		}
		logrus.WithField("topic", cfg.Kafka.NotificationsTopic).Info("Publishing notifications to Kafka")
	} else {
		pool := services.NewWorkerPool(notifications.Deliver, cfg.Notification.Workers, cfg.Notification.QueueSize)
		notifications.UseQueue(pool)
		drainNotifications = pool.Shutdown
		logrus.WithField("workers", cfg.Notification.Workers).Info("Delivering notifications in-process")
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize router
	r := router.Initialize(cfg, router.NewServices(db, cfg, notifications), metricsHandler)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      otelhttp.NewHandler(r, cfg.Telemetry.ServiceName),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logrus.WithField("port", cfg.Server.Port).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatal("Failed to start server: ", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	// Create a deadline for shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	// Shutdown server
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("Server forced to shutdown")
	}

	if err := drainNotifications(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("Pending notifications were not drained")
	}
	if err := shutdownMeter(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("Failed to shut down meter provider")
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("Failed to shut down tracer provider")
	}

	logrus.Info("Server exited")
}
