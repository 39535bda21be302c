package main

import (
	"github.com/mkrencik/droppit/internal/config"
	"github.com/mkrencik/droppit/internal/logger"
)

// initLogger initializes the logger using the board configuration
func initLogger(cfg *config.BoardConfig) {
	addSource := cfg.Environment == "dev" || cfg.Environment == "development"

	loggerConfig := logger.NewConfig(
		cfg.LogLevel,
		cfg.LogFormat,
		cfg.ServiceName,
		cfg.Version,
		cfg.Environment,
		addSource,
	)

	logger.InitLogger(loggerConfig)
}
