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
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	Redis       RedisConfig
	Kafka       KafkaConfig
	AWS         AWSConfig
	Storage     StorageConfig
	Payment     PaymentConfig
	Rules       RulesConfig
	I18n        I18nConfig
	Metrics     MetricsConfig
	Log         LogConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  int
	WriteTimeout int
	IdleTimeout  int
}

type DatabaseConfig struct {
	Host           string
	Port           string
	User           string
	Password       string
	Database       string
	SSLMode        string
	MaxOpenConns   int
	MaxIdleConns   int
	MaxLifetime    int
	LogLevel       string
	MigrationsPath string
}

type JWTConfig struct {
	SecretKey      string
	Issuer         string
	AccessTokenTTL int // in hours
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	CacheTTL int // in seconds
}

func (r RedisConfig) Enabled() bool {
	return r.Host != ""
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	S3Bucket        string
	CloudFrontURL   string
}

type StorageConfig struct {
	LocalPath     string
	PublicBaseURL string
	MaxUploadSize int64 // in bytes
}

type PaymentConfig struct {
	StripeSecretKey      string
	StripePublishableKey string
	StripeWebhookSecret  string
	Currency             string
	ReferencePrefix      string
}

type RulesConfig struct {
	Path string
}

type I18nConfig struct {
	DefaultLocale string
	LocalesPath   string
}

type MetricsConfig struct {
	Enabled bool
	Port    string
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "localhost"),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:  getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			Host:           getEnv("DB_HOST", "localhost"),
			Port:           getEnv("DB_PORT", "5432"),
			User:           getEnv("DB_USER", "postgres"),
			Password:       getEnv("DB_PASSWORD", ""),
			Database:       getEnv("DB_NAME", "evisa"),
			SSLMode:        getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns:   getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:   getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:    getEnvAsInt("DB_MAX_LIFETIME", 300),
			LogLevel:       getEnv("DB_LOG_LEVEL", "silent"),
			MigrationsPath: getEnv("DB_MIGRATIONS_PATH", ""),
		},
		JWT: JWTConfig{
			SecretKey:      getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
			Issuer:         getEnv("JWT_ISSUER", "e-visa"),
			AccessTokenTTL: getEnvAsInt("JWT_ACCESS_TTL", 24),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", ""),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			CacheTTL: getEnvAsInt("REDIS_CACHE_TTL", 300),
		},
		Kafka: KafkaConfig{
			Brokers: getEnvAsList("KAFKA_BROKERS"),
			Topic:   getEnv("KAFKA_TOPIC", "evisa.application-events"),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			S3Bucket:        getEnv("AWS_S3_BUCKET", "evisa-documents"),
			CloudFrontURL:   getEnv("AWS_CLOUDFRONT_URL", ""),
		},
		Storage: StorageConfig{
			LocalPath:     getEnv("STORAGE_LOCAL_PATH", "./uploads"),
			PublicBaseURL: getEnv("STORAGE_PUBLIC_BASE_URL", "http://localhost:8080/uploads"),
			MaxUploadSize: int64(getEnvAsInt("STORAGE_MAX_UPLOAD_MB", 10)) * 1024 * 1024,
		},
		Payment: PaymentConfig{
			StripeSecretKey:      getEnv("STRIPE_SECRET_KEY", ""),
			StripePublishableKey: getEnv("STRIPE_PUBLISHABLE_KEY", ""),
			StripeWebhookSecret:  getEnv("STRIPE_WEBHOOK_SECRET", ""),
			Currency:             getEnv("PAYMENT_CURRENCY", "usd"),
			ReferencePrefix:      getEnv("PAYMENT_REFERENCE_PREFIX", "EVS"),
		},
		Rules: RulesConfig{
			Path: getEnv("RULES_PATH", "./internal/rules/visa_rules.json"),
		},
		I18n: I18nConfig{
			DefaultLocale: getEnv("DEFAULT_LOCALE", "en"),
			LocalesPath:   getEnv("LOCALES_PATH", ""),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvAsBool("METRICS_ENABLED", true),
			Port:    getEnv("METRICS_PORT", "9090"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
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

	if c.Payment.StripeSecretKey != "" && c.Payment.StripeWebhookSecret == "" && c.Environment == "production" {
		return fmt.Errorf("stripe webhook secret is required when stripe is enabled in production")
	}

	if c.Storage.MaxUploadSize <= 0 {
		return fmt.Errorf("storage max upload size must be positive")
	}

	return nil
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

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.ToLower(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated value, dropping blanks.
func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
