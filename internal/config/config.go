// Package config reads and writes the optional per-repository configuration
// at <root>/.timemachine/config.toml. A missing file means defaults; the
// fixed metadata.json and contents/ layout never depends on config values.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Defaults mirrored by the content store.
const (
	DefaultCompressionLevel = 3
	DefaultCleanupThreshold = 100 * 1024 * 1024
)

// FileName is the config file inside the metadata directory.
const FileName = "config.toml"

// Config is the per-repository configuration.
type Config struct {
	// RepositoryID is assigned once at init and identifies the repository
	// in logs and diagnostics.
	RepositoryID string `toml:"repository_id"`

	// CompressionLevel is the zstd level for new blobs. Changing it never
	// invalidates existing blobs: hashing happens before compression.
	CompressionLevel int `toml:"compression_level"`

	// CleanupThresholdBytes is the orphaned-content size above which
	// auto-cleanup sweeps the store.
	CleanupThresholdBytes uint64 `toml:"cleanup_threshold_bytes"`

	// Ignore lists glob patterns excluded from directory scans, merged with
	// the root's .tmignore file.
	Ignore []string `toml:"ignore"`

	// LogDir overrides the log location; empty means <root>/.timemachine/log.
	LogDir string `toml:"log_dir"`
}

// NewConfig returns a Config with defaults and the given repository id.
func NewConfig(repositoryID string) *Config {
	return &Config{
		RepositoryID:          repositoryID,
		CompressionLevel:      DefaultCompressionLevel,
		CleanupThresholdBytes: DefaultCleanupThreshold,
	}
}

// applyDefaults fills zero values left by an older or hand-edited file.
func (c *Config) applyDefaults() {
	if c.CompressionLevel == 0 {
		c.CompressionLevel = DefaultCompressionLevel
	}
	if c.CleanupThresholdBytes == 0 {
		c.CleanupThresholdBytes = DefaultCleanupThreshold
	}
}

// Path returns the config file location for a repository root.
func Path(root string) string {
	return filepath.Join(root, ".timemachine", FileName)
}

// Read decodes a Config from the provided reader.
func Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// Load reads the config for a repository root. A missing file yields the
// defaults with no error.
func Load(root string) (*Config, error) {
	f, err := os.Open(Path(root))
	if err != nil {
		if os.IsNotExist(err) {
			return NewConfig(""), nil
		}
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	cfg, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", Path(root), err)
	}
	return cfg, nil
}

// Init writes a fresh config file for a repository root unless one already
// exists, in which case the existing file is left untouched.
func Init(root string, cfg *Config) error {
	path := Path(root)
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	if err := Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}
