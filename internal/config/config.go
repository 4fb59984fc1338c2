package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// JWT configuration
	JWT JWTConfig

	// Payment gateway configuration
	Gateway GatewayConfig

	// Notification channel configuration
	Notification NotificationConfig

	// Cron scheduler configuration
	Scheduler SchedulerConfig

	// Redis configuration (optional, used for the payout run lock)
	Redis RedisConfig

	// Per-caller request limits (enforced only when Redis is configured)
	RateLimit RateLimitConfig

	// CORS configuration
	CORS CORSConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port        string
	Environment string // development, staging, production
	LogLevel    string // debug, info, warn, error
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	URL                string
	MaxConnections     int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
}

// JWTConfig holds JWT-related configuration
type JWTConfig struct {
	Secret            string
	AccessTokenExpiry time.Duration
}

// GatewayConfig holds payment gateway configuration
type GatewayConfig struct {
	BaseURL            string        // REST API base, e.g. https://api.razorpay.com/v1
	KeyID              string        // API key id (basic auth user)
	KeySecret          string        // API key secret (SECRET - never expose to client)
	WebhookSecret      string        // Shared secret for x-gateway-signature HMAC
	Timeout            time.Duration // Per-call timeout for outbound gateway requests
	PlatformFeePercent string        // Decimal string, e.g. "8"
	DefaultCurrency    string
}

// FeePercent parses the platform fee percentage
func (g GatewayConfig) FeePercent() (decimal.Decimal, error) {
	return decimal.NewFromString(g.PlatformFeePercent)
}

// NotificationConfig holds email and SMS channel configuration
type NotificationConfig struct {
	SendgridAPIKey string
	FromEmail      string
	FromName       string
	SandboxMode    bool

	SMSMode     string // "dev" logs messages, "production" sends them
	SMSAPIURL   string
	SMSUsername string
	SMSPassword string
	SMSSenderID string // DLT-registered sender header
}

// SchedulerConfig holds in-process cron configuration
type SchedulerConfig struct {
	Enabled       bool
	PayoutSpec    string // cron spec with seconds, the payout engine enforces the weekday itself
	SweepSpec     string
	SweepLimit    int
	TriggerSecret string // shared secret for the external scheduler (X-Cron-Secret)
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	URL     string
	LockTTL time.Duration
}

// RateLimitConfig holds per-caller limits for gateway-backed endpoints.
// Zero disables a limit.
type RateLimitConfig struct {
	ReconcilePerMinute int
	RefundsPerHour     int
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			URL:                getEnv("DATABASE_URL", ""),
			MaxConnections:     getEnvAsInt("DATABASE_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
			ConnMaxLifetime:    getEnvAsSeconds("DATABASE_CONN_MAX_LIFETIME", 300),
		},
		JWT: JWTConfig{
			Secret:            getEnv("JWT_SECRET", ""),
			AccessTokenExpiry: getEnvAsSeconds("JWT_ACCESS_TOKEN_EXPIRY", 3600),
		},
		Gateway: GatewayConfig{
			BaseURL:            getEnv("GATEWAY_BASE_URL", "https://api.razorpay.com/v1"),
			KeyID:              getEnv("GATEWAY_KEY_ID", ""),
			KeySecret:          getEnv("GATEWAY_KEY_SECRET", ""),
			WebhookSecret:      getEnv("GATEWAY_WEBHOOK_SECRET", ""),
			Timeout:            getEnvAsSeconds("GATEWAY_TIMEOUT_SECONDS", 30),
			PlatformFeePercent: getEnv("PLATFORM_FEE_PERCENT", "8"),
			DefaultCurrency:    getEnv("DEFAULT_CURRENCY", "INR"),
		},
		Notification: NotificationConfig{
			SendgridAPIKey: getEnv("SENDGRID_API_KEY", ""),
			FromEmail:      getEnv("SENDGRID_FROM_EMAIL", "no-reply@glamspot.in"),
			FromName:       getEnv("SENDGRID_FROM_NAME", "GlamSpot"),
			SandboxMode:    getEnvAsBool("SENDGRID_SANDBOX", false),
			SMSMode:        getEnv("SMS_MODE", "dev"),
			SMSAPIURL:      getEnv("SMS_API_URL", ""),
			SMSUsername:    getEnv("SMS_USERNAME", ""),
			SMSPassword:    getEnv("SMS_PASSWORD", ""),
			SMSSenderID:    getEnv("SMS_SENDER_ID", "GLMSPT"),
		},
		Scheduler: SchedulerConfig{
			Enabled:       getEnvAsBool("CRON_ENABLED", true),
			PayoutSpec:    getEnv("PAYOUT_CRON_SPEC", "0 30 2 * * *"),
			SweepSpec:     getEnv("SWEEP_CRON_SPEC", "0 0 4 * * *"),
			SweepLimit:    getEnvAsInt("SWEEP_LIMIT", 200),
			TriggerSecret: getEnv("CRON_TRIGGER_SECRET", ""),
		},
		Redis: RedisConfig{
			URL:     getEnv("REDIS_URL", ""),
			LockTTL: getEnvAsSeconds("PAYOUT_LOCK_TTL_SECONDS", 900),
		},
		RateLimit: RateLimitConfig{
			ReconcilePerMinute: getEnvAsInt("RATE_LIMIT_RECONCILE_PER_MINUTE", 20),
			RefundsPerHour:     getEnvAsInt("RATE_LIMIT_REFUNDS_PER_HOUR", 10),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			AllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type", "Authorization", "X-Gateway-Signature", "X-Cron-Secret"}),
		},
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.Gateway.WebhookSecret == "" {
		return fmt.Errorf("GATEWAY_WEBHOOK_SECRET is required")
	}

	fee, err := c.Gateway.FeePercent()
	if err != nil || !fee.IsPositive() || fee.GreaterThanOrEqual(decimal.NewFromInt(100)) {
		return fmt.Errorf("invalid PLATFORM_FEE_PERCENT: %q (must be between 0 and 100)", c.Gateway.PlatformFeePercent)
	}

	if c.Notification.SMSMode == "production" {
		if c.Notification.SMSAPIURL == "" || c.Notification.SMSUsername == "" || c.Notification.SMSPassword == "" {
			return fmt.Errorf("SMS_API_URL, SMS_USERNAME and SMS_PASSWORD are required in production SMS mode")
		}
	}

	return nil
}

// Helper functions to get environment variables

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid integer value for %s, using default: %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsSeconds(key string, defaultSeconds int) time.Duration {
	return time.Duration(getEnvAsInt(key, defaultSeconds)) * time.Second
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Invalid boolean value for %s, using default: %t", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var result []string
	for _, v := range strings.Split(valueStr, ",") {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
