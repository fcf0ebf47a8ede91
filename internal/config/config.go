// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath          string
	FormatCacheSize int
}

// Load reads configuration from environment variables and returns a validated Config.
// Optional variables with defaults: KEYNAI_DB_PATH (keynai.db),
// KEYNAI_FORMAT_CACHE_SIZE (256).
func Load() (*Config, error) {
	dbPath := "keynai.db"
	if v, ok := os.LookupEnv("KEYNAI_DB_PATH"); ok {
		dbPath = v
	}

	cacheSize := 256
	if v, ok := os.LookupEnv("KEYNAI_FORMAT_CACHE_SIZE"); ok {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("KEYNAI_FORMAT_CACHE_SIZE has invalid value %q: %w", v, err)
		}
		if parsed <= 0 {
			return nil, fmt.Errorf("KEYNAI_FORMAT_CACHE_SIZE must be positive, got %d", parsed)
		}
		cacheSize = parsed
	}

	return &Config{
		DBPath:          dbPath,
		FormatCacheSize: cacheSize,
	}, nil
}
