package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/lei-rs/midas-go/logger"
)

// Error reports an invalid configuration value.
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("config: %s %s", e.Field, e.Reason)
}

// Config holds process-wide settings for ingestion runs. Job-specific
// arguments (date, ticker, skip set) come from the jobs manifest instead.
type Config struct {
	// BaseDir is the root of the date/ticker/symbol output tree.
	BaseDir string `json:"base_dir"`
	// Workers bounds how many jobs run concurrently.
	Workers int `json:"workers"`
	// Capacity is the default per-symbol row count per flushed batch.
	Capacity int `json:"capacity"`
	// CaptureRaw tees each job's consumed stream into a compressed
	// capture file next to its output directory.
	CaptureRaw bool `json:"capture_raw"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		BaseDir:  "data",
		Workers:  4,
		Capacity: 10000,
	}
}

// Load reads the JSON config at path, applies environment overrides
// (a .env file is honored when present) and validates the result.
func Load(path string) (*Config, error) {
	log := logger.L()
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := json.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// .env is optional; ignore a missing file.
	_ = godotenv.Load()
	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Info("Loaded configuration", map[string]interface{}{
		"path":        path,
		"base_dir":    cfg.BaseDir,
		"workers":     cfg.Workers,
		"capacity":    cfg.Capacity,
		"capture_raw": cfg.CaptureRaw,
	})
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("MIDAS_BASE_DIR"); v != "" {
		cfg.BaseDir = v
	}
	if v := os.Getenv("MIDAS_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Workers = n
		}
	}
	if v := os.Getenv("MIDAS_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Capacity = n
		}
	}
	if v := os.Getenv("MIDAS_CAPTURE_RAW"); v != "" {
		cfg.CaptureRaw = v == "1" || v == "true"
	}
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	if c.BaseDir == "" {
		return &Error{Field: "base_dir", Reason: "must not be empty"}
	}
	if c.Workers <= 0 {
		return &Error{Field: "workers", Reason: "must be positive"}
	}
	if c.Capacity <= 0 {
		return &Error{Field: "capacity", Reason: "must be positive"}
	}
	return nil
}
