// internal/config/config_test.go
package config

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "AGT", cfg.Orders.NumberPrefix)
	assert.Equal(t, "Nigeria", cfg.Orders.DefaultCountry)
	assert.Equal(t, "Cash on Delivery", cfg.Orders.DefaultPaymentMethod)
	assert.Equal(t, 4, cfg.Notification.Workers)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, "order.notifications", cfg.Kafka.NotificationsTopic)
	assert.False(t, cfg.IsProduction())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("DB_AUTO_MIGRATE", "FALSE")
	t.Setenv("NOTIFICATION_WORKERS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 2.5, cfg.RateLimit.RequestsPerSecond)
	assert.False(t, cfg.Database.AutoMigrate)
	assert.Equal(t, 4, cfg.Notification.Workers)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Environment:  "production",
			JWT:          JWTConfig{SecretKey: "s3cret"},
			Database:     DatabaseConfig{Password: "pw"},
			Notification: NotificationConfig{Workers: 1},
			Orders:       OrdersConfig{NumberPrefix: "AGT"},
		}
	}
	assert.NoError(t, valid().Validate())

	cfg := valid()
	cfg.JWT.SecretKey = "your-secret-key-change-in-production"
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Database.Password = ""
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Notification.Workers = 0
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Orders.NumberPrefix = ""
	assert.Error(t, cfg.Validate())
}

func TestDatabaseURL(t *testing.T) {
	db := DatabaseConfig{
		Host:     "db",
		Port:     "5432",
		User:     "agri",
		Password: "p@ss word",
		Database: "agrimarket",
		SSLMode:  "disable",
	}

	assert.Equal(t, "postgres://agri:p%40ss%20word@db:5432/agrimarket?sslmode=disable", db.URL())
	assert.Equal(t, "host=db port=5432 user=agri password=p@ss word dbname=agrimarket sslmode=disable", db.DSN())
}

func TestConfigureLogger(t *testing.T) {
	original := logrus.StandardLogger().Formatter
	originalLevel := logrus.GetLevel()
	t.Cleanup(func() {
		logrus.SetFormatter(original)
		logrus.SetLevel(originalLevel)
	})

	(&Config{Environment: "production", LogLevel: "warn"}).ConfigureLogger()
	assert.IsType(t, &logrus.JSONFormatter{}, logrus.StandardLogger().Formatter)
	assert.Equal(t, logrus.WarnLevel, logrus.GetLevel())

	(&Config{Environment: "development", LogLevel: "bogus"}).ConfigureLogger()
	assert.IsType(t, &logrus.TextFormatter{}, logrus.StandardLogger().Formatter)
	assert.Equal(t, logrus.InfoLevel, logrus.GetLevel())
}
