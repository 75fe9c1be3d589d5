package config

import (
	"fmt"
)

// Ledger backends.
const (
	LedgerJSONL         = "jsonl"
	LedgerJSONLRotating = "jsonl_rotating"
	LedgerSQLite        = "sqlite"
	LedgerNone          = "none"
)

// LedgerConfig defines settings for auction record storage and rotation.
type LedgerConfig struct {
	// Backend selects the store type: "jsonl", "jsonl_rotating", "sqlite" or "none".
	Backend string `json:"backend"`
	// Path is the file location of the store.
	Path string `json:"path"`
	// MaxSizeMB triggers rotation when the file exceeds this size in megabytes.
	MaxSizeMB int `json:"max_size_mb"`
	// MaxBackups limits the number of rotated files to keep.
	MaxBackups int `json:"max_backups"`
	// MaxAgeDays removes rotated files older than this number of days.
	MaxAgeDays int `json:"max_age_days"`
}

// SetDefaults applies sane defaults.
func (c *LedgerConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = LedgerNone
	}
	if c.Path == "" && c.Backend != LedgerNone {
		if c.Backend == LedgerSQLite {
			c.Path = "auctions.db"
		} else {
			c.Path = "auctions.jsonl"
		}
	}
}

// Validate checks mandatory fields.
func (c LedgerConfig) Validate() error {
	switch c.Backend {
	case LedgerNone:
		return nil
	case LedgerJSONL, LedgerJSONLRotating, LedgerSQLite:
	default:
		return fmt.Errorf("unknown backend %s", c.Backend)
	}
	if c.Path == "" {
		return fmt.Errorf("path is required")
	}
	return nil
}

// Module returns the ledger as a raw module configuration for the store
// factory registry.
func (c LedgerConfig) Module() map[string]any {
	return map[string]any{
		"path":         c.Path,
		"max_size_mb":  c.MaxSizeMB,
		"max_backups":  c.MaxBackups,
		"max_age_days": c.MaxAgeDays,
	}
}
