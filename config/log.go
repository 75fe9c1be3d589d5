package config

import (
	"github.com/rs/zerolog"

	"github.com/kilianp07/trackauction/infra/logger"
)

// LogConfig defines process log output.
type LogConfig struct {
	// Level is a zerolog level name.
	Level      string `json:"level"`
	File       string `json:"file"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
}

// SetDefaults applies sane defaults.
func (c *LogConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = zerolog.InfoLevel.String()
	}
}

// Validate checks the level is known to zerolog.
func (c LogConfig) Validate() error {
	_, err := zerolog.ParseLevel(c.Level)
	return err
}

// Options converts the configuration for logger.Configure.
func (c LogConfig) Options() logger.Options {
	return logger.Options{
		Level:      c.Level,
		File:       c.File,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
	}
}
