package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DatabaseURL string
	Env         string

	LockTimeout time.Duration

	// Notification dispatcher.
	NotifyQueueSize int
	NotifyWorkers   int

	// SMTP email channel; disabled when the host is empty.
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	// HTTP SMS gateway; disabled when the URL is empty.
	SMSGatewayURL string
	SMSAPIKey     string
	SMSSender     string
}

// Load reads the optional .env file and builds the config from the
// environment.
func Load() *Config {
	// Missing .env is fine in production; everything can come from the
	// process environment.
	_ = godotenv.Load()

	return &Config{
		Port:        getEnv("PORT", "3000"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		Env:         getEnv("ENV", "development"),

		LockTimeout: getDuration("TRANSFER_LOCK_TIMEOUT", 3*time.Second),

		NotifyQueueSize: getInt("NOTIFY_QUEUE_SIZE", 256),
		NotifyWorkers:   getInt("NOTIFY_WORKERS", 4),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnv("SMTP_PORT", "465"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", ""),

		SMSGatewayURL: getEnv("SMS_GATEWAY_URL", ""),
		SMSAPIKey:     getEnv("SMS_API_KEY", ""),
		SMSSender:     getEnv("SMS_SENDER", "OrbitBank"),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
