package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/IMRiesen/avitolike/pkg/database"
	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	Port           string
	AllowedOrigins []string
	LogLevel       string
	RequestTimeout time.Duration

	Database database.Options
	RedisURL string

	MeiliSearchHost string
	MeiliMasterKey  string

	CloudinaryURL          string
	CloudinaryUploadFolder string

	JWTSecret   string
	JWTIssuer   string
	JWTAudience string
	JWTTTL      time.Duration

	CategoryCacheTTL time.Duration
	AdPostCooldown   time.Duration

	AgentsEnabled         bool
	SearchReindexSchedule string
	ViewPruneSchedule     string
	ViewHistoryRetention  time.Duration
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func Load() (*Config, error) {
	// Don't fail if .env doesn't exist (might be prod env vars)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		LogLevel:       getEnv("LOG_LEVEL", "info"),

		Database: database.Options{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: os.Getenv("DB_PASS"),
			Name:     getEnv("DB_NAME", "avitolike"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		RedisURL: os.Getenv("REDIS_URL"),

		MeiliSearchHost: os.Getenv("MEILISEARCH_HOST"),
		MeiliMasterKey:  os.Getenv("MEILI_MASTER_KEY"),

		CloudinaryURL:          os.Getenv("CLOUDINARY_URL"),
		CloudinaryUploadFolder: getEnv("CLOUDINARY_UPLOAD_FOLDER", "ads"),

		JWTSecret:   os.Getenv("JWT_SECRET"),
		JWTIssuer:   getEnv("JWT_ISSUER", "avitolike"),
		JWTAudience: getEnv("JWT_AUDIENCE", "avitolike-clients"),

		SearchReindexSchedule: getEnv("SEARCH_REINDEX_SCHEDULE", "0 4 * * *"),
		ViewPruneSchedule:     getEnv("VIEW_PRUNE_SCHEDULE", "30 3 * * *"),
	}
	cfg.Database.Debug = cfg.AppEnv == "development" && cfg.LogLevel == "debug"

	var err error
	if cfg.RequestTimeout, err = time.ParseDuration(getEnv("REQUEST_TIMEOUT", "15s")); err != nil {
		return nil, fmt.Errorf("invalid REQUEST_TIMEOUT: %w", err)
	}
	if cfg.CategoryCacheTTL, err = time.ParseDuration(getEnv("CATEGORY_CACHE_TTL", "10m")); err != nil {
		return nil, fmt.Errorf("invalid CATEGORY_CACHE_TTL: %w", err)
	}

	if cfg.AdPostCooldown, err = time.ParseDuration(getEnv("AD_POST_COOLDOWN", "10s")); err != nil {
		return nil, fmt.Errorf("invalid AD_POST_COOLDOWN: %w", err)
	}
	if cfg.ViewHistoryRetention, err = time.ParseDuration(getEnv("VIEW_HISTORY_RETENTION", "2160h")); err != nil {
		return nil, fmt.Errorf("invalid VIEW_HISTORY_RETENTION: %w", err)
	}
	if cfg.AgentsEnabled, err = strconv.ParseBool(getEnv("AGENTS_ENABLED", "true")); err != nil {
		return nil, fmt.Errorf("invalid AGENTS_ENABLED: %w", err)
	}

	minutes, err := strconv.Atoi(getEnv("JWT_TTL_MINUTES", "1440"))
	if err != nil || minutes <= 0 {
		return nil, fmt.Errorf("invalid JWT_TTL_MINUTES %q", os.Getenv("JWT_TTL_MINUTES"))
	}
	cfg.JWTTTL = time.Duration(minutes) * time.Minute

	if cfg.JWTSecret == "" {
		if cfg.AppEnv != "development" && cfg.AppEnv != "test" {
			return nil, errors.New("JWT_SECRET must be set outside development")
		}
		cfg.JWTSecret = "dev-secret-change-me"
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
