// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment  string
	LogLevel     string
	Server       ServerConfig
	Database     DatabaseConfig
	JWT          JWTConfig
	SMS          SMSConfig
	Email        EmailConfig
	Kafka        KafkaConfig
	Notification NotificationConfig
	Telemetry    TelemetryConfig
	Orders       OrdersConfig
	RateLimit    RateLimitConfig
	I18n         I18nConfig
}

type ServerConfig struct {
	Port            string
	Host            string
	ReadTimeout     int
	WriteTimeout    int
	IdleTimeout     int
	ShutdownTimeout int
	AllowedOrigins  []string
}

type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
	LogLevel     string
	AutoMigrate  bool
}

type JWTConfig struct {
	SecretKey string
	Issuer    string
}

// SMSConfig holds the Africa's Talking gateway credentials. An empty APIKey
// disables real delivery and messages are only logged.
type SMSConfig struct {
	Username string
	APIKey   string
	SenderID string
	BaseURL  string
	Timeout  int // in seconds
}

type EmailConfig struct {
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
	FromName     string
}

type KafkaConfig struct {
	Brokers            []string
	NotificationsTopic string
	ConsumerGroup      string
}

type NotificationConfig struct {
	Workers   int
	QueueSize int
}

type TelemetryConfig struct {
	ServiceName    string
	ServiceVersion string
	OTLPEndpoint   string
	MetricsEnabled bool
}

type OrdersConfig struct {
	NumberPrefix         string
	DefaultCountry       string
	DefaultPaymentMethod string
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
	OrdersPerMinute   int
}

type I18nConfig struct {
	DefaultLocale string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			Host:            getEnv("SERVER_HOST", "localhost"),
			ReadTimeout:     getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout:    getEnvAsInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:     getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
			ShutdownTimeout: getEnvAsInt("SERVER_SHUTDOWN_TIMEOUT", 30),
			AllowedOrigins:  getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://localhost:3000"}),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "agrimarket"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsInt("DB_MAX_LIFETIME", 300),
			LogLevel:     getEnv("DB_LOG_LEVEL", "warn"),
			AutoMigrate:  getEnvAsBool("DB_AUTO_MIGRATE", true),
		},
		JWT: JWTConfig{
			SecretKey: getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
			Issuer:    getEnv("JWT_ISSUER", "agrimarket"),
		},
		SMS: SMSConfig{
			Username: getEnv("AFRICASTALKING_USERNAME", ""),
			APIKey:   getEnv("AFRICASTALKING_API_KEY", ""),
			SenderID: getEnv("AFRICASTALKING_SENDER_ID", "AgriTech"),
			BaseURL:  getEnv("AFRICASTALKING_BASE_URL", "https://api.africastalking.com"),
			Timeout:  getEnvAsInt("AFRICASTALKING_TIMEOUT", 10),
		},
		Email: EmailConfig{
			SMTPHost:     getEnv("SMTP_HOST", ""),
			SMTPPort:     getEnv("SMTP_PORT", "587"),
			SMTPUsername: getEnv("SMTP_USERNAME", ""),
			SMTPPassword: getEnv("SMTP_PASSWORD", ""),
			FromEmail:    getEnv("FROM_EMAIL", "orders@agrimarket.ng"),
			FromName:     getEnv("FROM_NAME", "AgriMarket"),
		},
		Kafka: KafkaConfig{
			Brokers:            getEnvAsSlice("KAFKA_BROKERS", nil),
			NotificationsTopic: getEnv("KAFKA_NOTIFICATIONS_TOPIC", "order.notifications"),
			ConsumerGroup:      getEnv("KAFKA_CONSUMER_GROUP", "agrimarket-notifier"),
		},
		Notification: NotificationConfig{
			Workers:   getEnvAsInt("NOTIFICATION_WORKERS", 4),
			QueueSize: getEnvAsInt("NOTIFICATION_QUEUE_SIZE", 256),
		},
		Telemetry: TelemetryConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "agrimarket-api"),
			ServiceVersion: getEnv("SERVICE_VERSION", "1.0.0"),
			OTLPEndpoint:   getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
		},
		Orders: OrdersConfig{
			NumberPrefix:         getEnv("ORDER_NUMBER_PREFIX", "AGT"),
			DefaultCountry:       getEnv("DEFAULT_COUNTRY", "Nigeria"),
			DefaultPaymentMethod: getEnv("DEFAULT_PAYMENT_METHOD", "Cash on Delivery"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getEnvAsFloat("RATE_LIMIT_RPS", 10),
			Burst:             getEnvAsInt("RATE_LIMIT_BURST", 20),
			OrdersPerMinute:   getEnvAsInt("RATE_LIMIT_ORDERS_PER_MINUTE", 10),
		},
		I18n: I18nConfig{
			DefaultLocale: getEnv("DEFAULT_LOCALE", "en"),
		},
	}

	return config, config.Validate()
}

func (c *Config) Validate() error {
	if c.JWT.SecretKey == "your-secret-key-change-in-production" && c.Environment == "production" {
		return fmt.Errorf("JWT secret key must be changed in production")
	}

	if c.Database.Password == "" && c.Environment == "production" {
		return fmt.Errorf("database password is required in production")
	}

	if c.Notification.Workers < 1 {
		return fmt.Errorf("NOTIFICATION_WORKERS must be at least 1")
	}

	if c.Orders.NumberPrefix == "" {
		return fmt.Errorf("ORDER_NUMBER_PREFIX must not be empty")
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.ToLower(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
