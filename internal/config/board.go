package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// BoardConfig holds the viewer-client configuration. Board clients are
// read-mostly: they consume the spawn log and write back only their own
// leaderboard contributions.
type BoardConfig struct {
	LogLevel    string
	LogFormat   string
	ServiceName string
	Version     string
	Environment string

	// StoreURL is the base URL of the shared store server.
	StoreURL string
	// ConsumerMode selects the transport: "polling" or "streaming".
	ConsumerMode string
}

type validatedBoardConfig struct {
	StoreURL     string `validate:"required,url"`
	ConsumerMode string `validate:"oneof=polling streaming"`
}

// LoadBoard loads the board configuration from environment variables.
func LoadBoard() (*BoardConfig, error) {
	_ = godotenv.Load()

	cfg := &BoardConfig{
		LogLevel:    getEnv("LOG_LEVEL", "INFO"),
		LogFormat:   getEnv("LOG_FORMAT", "text"),
		ServiceName: getEnv("SERVICE_NAME", "droppit-board"),
		Version:     getEnv("VERSION", "dev"),
		Environment: getEnv("ENVIRONMENT", "dev"),

		StoreURL:     getEnv("STORE_URL", DefaultStoreURL),
		ConsumerMode: getEnv("CONSUMER_MODE", "streaming"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks transport selection and the store endpoint.
func (c *BoardConfig) Validate() error {
	v := validator.New()
	if err := v.Struct(validatedBoardConfig{
		StoreURL:     c.StoreURL,
		ConsumerMode: c.ConsumerMode,
	}); err != nil {
		return fmt.Errorf("invalid board configuration: %w", err)
	}
	return nil
}
