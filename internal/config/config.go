package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	Port           string
	AllowedOrigins string
	LogLevel       string

	MongoURI      string
	MongoDatabase string
	RedisURL      string

	JWTSecret string

	MessageRateLimit          time.Duration
	NotificationRetentionDays int
	CleanupSchedule           string
}

func Load() (*Config, error) {
	// Don't fail if .env doesn't exist (might be prod env vars)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),

		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGO_DATABASE", "tunehive"),
		RedisURL:      os.Getenv("REDIS_URL"),

		JWTSecret: getEnv("JWT_SECRET", "12345"),

		CleanupSchedule: getEnv("CLEANUP_SCHEDULE", "0 3 * * *"),
	}

	var err error
	cfg.MessageRateLimit, err = time.ParseDuration(getEnv("RATE_LIMIT_MESSAGE", "1s"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_MESSAGE: %w", err)
	}

	cfg.NotificationRetentionDays, err = strconv.Atoi(getEnv("NOTIFICATION_RETENTION_DAYS", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid NOTIFICATION_RETENTION_DAYS: %w", err)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
