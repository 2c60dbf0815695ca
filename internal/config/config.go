package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Settings holds the process-level configuration read from the environment.
type Settings struct {
	Port           string
	AllowedOrigin  string
	TaskTimeBudget time.Duration
	TaskRetention  time.Duration
}

func Load() Settings {
	return Settings{
		Port:           envOr("PORT", "8080"),
		AllowedOrigin:  envOr("ALLOWED_ORIGIN", "http://localhost:3000"),
		TaskTimeBudget: envDuration("TASK_TIME_BUDGET_SECONDS", 300*time.Second),
		TaskRetention:  envDuration("TASK_RETENTION_SECONDS", 24*time.Hour),
	}
}

func InitDB() (*gorm.DB, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
			envOr("DB_HOST", "localhost"),
			envOr("DB_USER", "postgres"),
			envOr("DB_PASSWORD", "postgres"),
			envOr("DB_NAME", "reconciliation"),
			envOr("DB_PORT", "5432"),
		)
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return db, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	seconds, err := strconv.Atoi(v)
	if err != nil || seconds <= 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}
