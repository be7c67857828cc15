// Package config loads and saves the iqdbctl configuration file,
// grounded on axon-cli's internal/config package: a small YAML file
// under a dotdir in the user's home, with home-relative path expansion.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// BackupConfig configures where `iqdbctl backup` pushes and pulls
// Catalog snapshots.
type BackupConfig struct {
	Provider    string `yaml:"provider,omitempty"` // "s3" or "minio"
	Bucket      string `yaml:"bucket,omitempty"`
	Prefix      string `yaml:"prefix,omitempty"`
	Endpoint    string `yaml:"endpoint,omitempty"` // minio only
	Region      string `yaml:"region,omitempty"`
	DynamoTable string `yaml:"dynamo_table,omitempty"`
	ManifestKey string `yaml:"manifest_key,omitempty"` // DynamoDB partition key for the manifest
}

// Config is the in-memory representation of ~/.iqdb/config.yaml.
type Config struct {
	DBPath          string       `yaml:"db_path"`
	LogLevel        string       `yaml:"log_level,omitempty"`
	LogFormat       string       `yaml:"log_format,omitempty"` // "json" or "text"
	IngestRateLimit float64      `yaml:"ingest_rate_limit,omitempty"`
	IngestBurst     int          `yaml:"ingest_burst,omitempty"`
	Backup          BackupConfig `yaml:"backup,omitempty"`
}

// IqdbDir returns the absolute path to ~/.iqdb/.
func IqdbDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".iqdb"), nil
}

// ConfigPath returns the absolute path to ~/.iqdb/config.yaml.
func ConfigPath() (string, error) {
	dir, err := IqdbDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(p string) (string, error) {
	if !strings.HasPrefix(p, "~") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot expand ~: %w", err)
	}
	return filepath.Join(home, p[1:]), nil
}

// DefaultConfig returns the default Config written on first `iqdbctl init`.
func DefaultConfig() (*Config, error) {
	dir, err := IqdbDir()
	if err != nil {
		return nil, err
	}
	return &Config{
		DBPath:          filepath.Join(dir, "catalog.db"),
		LogLevel:        "info",
		LogFormat:       "text",
		IngestRateLimit: 0,
		IngestBurst:     0,
		Backup: BackupConfig{
			Provider:    "s3",
			Prefix:      "iqdb-backups/",
			ManifestKey: "catalog",
		},
	}, nil
}

// Load reads and parses ~/.iqdb/config.yaml.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}
	cfg.DBPath, err = ExpandPath(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save marshals cfg and writes it to ~/.iqdb/config.yaml, creating the
// parent directory if needed.
func Save(cfg *Config) error {
	dir, err := IqdbDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create %s: %w", dir, err)
	}
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("cannot write config %s: %w", path, err)
	}
	return nil
}
