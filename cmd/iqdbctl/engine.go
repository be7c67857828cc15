package main

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"

	iqdb "github.com/honooru/iqdb"
	"github.com/honooru/iqdb/internal/config"
)

// openEngine loads the on-disk config and opens the Engine it describes.
// Every subcommand that touches the Catalog goes through this so they
// all agree on log level, ingest rate limiting, and db path.
func openEngine(ctx context.Context) (*iqdb.Engine, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("cannot load config: %w\nRun 'iqdbctl init' first.", err)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}

	var logger *iqdb.Logger
	if cfg.LogFormat == "json" {
		logger = iqdb.NewJSONLogger(level)
	} else {
		logger = iqdb.NewTextLogger(level)
	}

	opts := []iqdb.Option{iqdb.WithLogger(logger)}
	if cfg.IngestRateLimit > 0 {
		opts = append(opts, iqdb.WithIngestRateLimit(rate.Limit(cfg.IngestRateLimit), cfg.IngestBurst))
	}

	eng, err := iqdb.Open(ctx, cfg.DBPath, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot open catalog %s: %w", cfg.DBPath, err)
	}
	return eng, cfg, nil
}
