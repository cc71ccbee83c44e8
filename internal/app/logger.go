package app

import "github.com/Natan-Asrat/digital-attendance-backend/pkg/logger"

// ConfigureLogging installs the global logger described by cfg.
func ConfigureLogging(cfg LogConfig) error {
	return logger.Init(logger.Options{Level: cfg.Level, Format: cfg.Format})
}
