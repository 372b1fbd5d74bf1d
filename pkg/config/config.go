package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the settings of the watch daemon mode.
type Config struct {
	WatchDir string // directory monitored for new album folders
	DestDir  string // optional output root; empty means sibling output folders
	DataDir  string // directory holding the ledger database
	DBPath   string // full ledger database path

	SoxPath  string // sox binary, resolved from PATH when bare
	Encoding string // default Cue Sheet encoding, empty for UTF-8

	// File stability gating: a directory is only processed once its
	// files stopped changing for the quiet duration.
	StabilityCheckInterval time.Duration
	StabilityQuietDuration time.Duration
	StabilityMaxWait       time.Duration
}

const (
	defaultWatchDir = "/app/incoming"
	defaultDataDir  = "/app/data"

	dbFileName = "cuesplit.db"

	defaultCheckInterval = 5 * time.Second
	defaultQuietDuration = 1 * time.Minute
	defaultMaxWait       = 12 * time.Hour
)

// Load reads configuration from the environment (a .env file is honored
// when present), applies defaults and makes sure the watch and data
// directories exist.
func Load(logger *log.Logger) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		WatchDir:               os.Getenv("WATCH_DIR"),
		DestDir:                os.Getenv("DEST_DIR"),
		DataDir:                os.Getenv("DATA_DIR"),
		SoxPath:                os.Getenv("SOX_PATH"),
		Encoding:               os.Getenv("CUE_ENCODING"),
		StabilityCheckInterval: parseDurationOrDefault(logger, os.Getenv("STABILITY_CHECK_INTERVAL"), defaultCheckInterval),
		StabilityQuietDuration: parseDurationOrDefault(logger, os.Getenv("STABILITY_QUIET_DURATION"), defaultQuietDuration),
		StabilityMaxWait:       parseDurationOrDefault(logger, os.Getenv("STABILITY_MAX_WAIT"), defaultMaxWait),
	}

	if cfg.WatchDir == "" {
		cfg.WatchDir = defaultWatchDir
	}
	if cfg.DataDir == "" {
		cfg.DataDir = defaultDataDir
	}
	cfg.DBPath = filepath.Join(cfg.DataDir, dbFileName)

	if err := os.MkdirAll(cfg.WatchDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create watch directory %s: %w", cfg.WatchDir, err)
	}
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", cfg.DataDir, err)
	}

	logger.Printf("Configuration loaded: WatchDir=%s, DestDir=%s, DBPath=%s",
		cfg.WatchDir, cfg.DestDir, cfg.DBPath)
	return cfg, nil
}

func parseDurationOrDefault(logger *log.Logger, s string, defaultValue time.Duration) time.Duration {
	if s == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		logger.Printf("Warning: could not parse duration %q, using default %v. Error: %v", s, defaultValue, err)
		return defaultValue
	}
	return d
}
