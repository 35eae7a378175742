// Package config loads zagent's configuration from its config directory
// (default ~/.config/zagent): config.yaml for tunables and settings.json for
// the provider catalog.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all zagent configuration.
type Config struct {
	// Memory tunes the conversation window's eviction policy.
	Memory MemoryConfig `yaml:"memory"`

	// Archive configures the SQLite turn archive.
	Archive ArchiveConfig `yaml:"archive"`
}

// MemoryConfig tunes the conversation memory subsystem.
type MemoryConfig struct {
	// MaxChars is the estimated-size budget of the live window.
	MaxChars int `yaml:"max_chars"`

	// KeepRecentTurns is how many recent turns always survive compaction.
	KeepRecentTurns int `yaml:"keep_recent_turns"`
}

// ArchiveConfig configures the cross-session turn archive.
type ArchiveConfig struct {
	Enabled bool `yaml:"enabled"`

	// DatabasePath is the SQLite file, relative paths resolving against the
	// config directory.
	DatabasePath string `yaml:"database_path"`
}

// DefaultConfig returns the configuration zagent ships with.
func DefaultConfig() Config {
	return Config{
		Memory: MemoryConfig{
			MaxChars:        32000,
			KeepRecentTurns: 20,
		},
		Archive: ArchiveConfig{
			Enabled:      true,
			DatabasePath: "archive.db",
		},
	}
}

// DefaultConfigDir returns ~/.config/zagent, the original config location.
func DefaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".config", "zagent"), nil
}

// Load reads config.yaml from dir. A missing file yields the defaults; a
// present but unparseable file is an error.
func Load(dir string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config.yaml: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("parse config.yaml: %w", err)
	}

	// Zero/negative values fall back to defaults rather than wedging the
	// window into a degenerate policy.
	def := DefaultConfig()
	if cfg.Memory.MaxChars <= 0 {
		cfg.Memory.MaxChars = def.Memory.MaxChars
	}
	if cfg.Memory.KeepRecentTurns <= 0 {
		cfg.Memory.KeepRecentTurns = def.Memory.KeepRecentTurns
	}
	if cfg.Archive.DatabasePath == "" {
		cfg.Archive.DatabasePath = def.Archive.DatabasePath
	}
	return cfg, nil
}

// ResolveArchivePath resolves the archive database path against dir when it
// is relative.
func (c Config) ResolveArchivePath(dir string) string {
	if filepath.IsAbs(c.Archive.DatabasePath) {
		return c.Archive.DatabasePath
	}
	return filepath.Join(dir, c.Archive.DatabasePath)
}
