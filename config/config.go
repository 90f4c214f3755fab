package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server configuration
	Environment string
	PublicURL   string

	// Redis configuration
	RedisURL string

	// Telegram configuration
	TelegramToken   string
	TelegramAPIBase string

	// Payment configuration
	PaymentProvider string // "stripe" or "fake"
	StripeSecretKey string
	Currency        string

	// Dialogue configuration
	DefaultPhoneRegion string
	SessionTTL         time.Duration
	MaxQuantity        int
	PhoneMaxRetries    int

	// Admin dashboard
	AdminUser         string
	AdminPasswordHash string // bcrypt

	// AI promo copy
	GeminiAPIKey string
	GeminiModel  string

	// PubNub ops feed
	PubNubPublishKey   string
	PubNubSubscribeKey string
	PubNubSecretKey    string
	OpsChannel         string

	// Reminders
	ReminderCron string

	// Monitoring
	EnableMetrics bool
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment only")
	}

	return &Config{
		// Server
		Environment: getEnv("ENVIRONMENT", "development"),
		PublicURL:   getEnv("PUBLIC_URL", "http://127.0.0.1:8090"),

		// Redis
		RedisURL: getEnv("REDIS_URL", "localhost:6379"),

		// Telegram
		TelegramToken:   getEnv("TELEGRAM_TOKEN", ""),
		TelegramAPIBase: getEnv("TELEGRAM_API_BASE", "https://api.telegram.org"),

		// Payments
		PaymentProvider: getEnv("PAYMENT_PROVIDER", "stripe"),
		StripeSecretKey: getEnv("STRIPE_SECRET_KEY", ""),
		Currency:        getEnv("CURRENCY", "ils"),

		// Dialogue
		DefaultPhoneRegion: getEnv("DEFAULT_PHONE_REGION", "IL"),
		SessionTTL:         getEnvAsDuration("SESSION_TTL", "15m"),
		MaxQuantity:        getEnvAsInt("MAX_QUANTITY", 5),
		PhoneMaxRetries:    getEnvAsInt("PHONE_MAX_RETRIES", 3),

		// Admin
		AdminUser:         getEnv("ADMIN_USER", "admin"),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),

		// AI
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),

		// PubNub
		PubNubPublishKey:   getEnv("PUBNUB_PUBLISH_KEY", ""),
		PubNubSubscribeKey: getEnv("PUBNUB_SUBSCRIBE_KEY", ""),
		PubNubSecretKey:    getEnv("PUBNUB_SECRET_KEY", ""),
		OpsChannel:         getEnv("OPS_CHANNEL", "partyflow-ops"),

		// Reminders: 10:00 every day
		ReminderCron: getEnv("REMINDER_CRON", "0 10 * * *"),

		// Monitoring
		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	// If parsing fails, try to parse default value
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
