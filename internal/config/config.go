package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	Port        int
	LogLevel    string
	LogFormat   string
	ServiceName string
	Version     string
	Environment string

	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string

	DBMaxConns        int
	DBMaxConnIdleTime time.Duration
	DBMaxConnLifetime time.Duration

	// TikTokUsername is the live-stream identity to attach to. Required.
	TikTokUsername string
	// FeedURL is the websocket endpoint of the live-feed bridge.
	FeedURL string
	// AdminToken gates the administrative control surface. Required.
	AdminToken string

	// CooldownMs is the initial per-user cooldown window.
	CooldownMs int
	// StreakMode is the initial gift-streak policy: repeatEnd, first or every.
	StreakMode string
	// SpawnEnabled is the initial state of the global spawn gate.
	SpawnEnabled bool
}

// Load loads the configuration from environment variables.
// Missing required identity or credentials is fatal: the caller must exit
// rather than run a half-configured system.
func Load() (*Config, error) {
	// Load .env file if it exists, but don't fail if it doesn't (could be real env vars)
	_ = godotenv.Load()

	cfg := &Config{
		LogLevel:    getEnv("LOG_LEVEL", "INFO"),
		LogFormat:   getEnv("LOG_FORMAT", "text"),
		ServiceName: getEnv("SERVICE_NAME", "droppit"),
		Version:     getEnv("VERSION", "dev"),
		Environment: getEnv("ENVIRONMENT", "dev"),

		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBName:     getEnv("DB_NAME", "droppit"),

		TikTokUsername: getEnv("TIKTOK_USERNAME", ""),
		FeedURL:        getEnv("FEED_URL", DefaultFeedURL),
		AdminToken:     getEnv("ADMIN_TOKEN", ""),

		StreakMode: getEnv("STREAK_MODE", "repeatEnd"),
	}

	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT value: %w", err)
	}
	cfg.Port = port

	cooldownStr := getEnv("COOLDOWN_MS", strconv.Itoa(DefaultCooldownMs))
	cooldown, err := strconv.Atoi(cooldownStr)
	if err != nil {
		return nil, fmt.Errorf("invalid COOLDOWN_MS value: %w", err)
	}
	cfg.CooldownMs = cooldown

	cfg.DBMaxConns = getEnvInt("DB_MAX_CONNS", DefaultDBMaxConns)
	cfg.DBMaxConnIdleTime = getEnvDuration("DB_MAX_CONN_IDLE_TIME", DefaultDBMaxConnIdleTime)
	cfg.DBMaxConnLifetime = getEnvDuration("DB_MAX_CONN_LIFETIME", DefaultDBMaxConnLifetime)

	spawnStr := getEnv("SPAWN_ENABLED", "true")
	spawnEnabled, err := strconv.ParseBool(spawnStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SPAWN_ENABLED value: %w", err)
	}
	cfg.SpawnEnabled = spawnEnabled

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable, falling back to the
// default on absence or parse failure.
func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable, falling back to
// the default on absence or parse failure.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// GetDBConnString returns the PostgreSQL connection string
func (c *Config) GetDBConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser,
		c.DBPassword,
		c.DBHost,
		c.DBPort,
		c.DBName,
	)
}

// CooldownWindow returns the configured cooldown as a duration.
func (c *Config) CooldownWindow() time.Duration {
	return time.Duration(c.CooldownMs) * time.Millisecond
}
