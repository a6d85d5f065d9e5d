// Package config provides configuration loading and structs for the animerec server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug   bool          `yaml:"debug"`
	Server  ServerConfig  `yaml:"server"`
	Catalog CatalogConfig `yaml:"catalog"`
	Search  SearchConfig  `yaml:"search"`
	Lookup  LookupConfig  `yaml:"lookup"`
	Storage StorageConfig `yaml:"storage"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// CatalogConfig describes the dataset file and how it is cleaned.
type CatalogConfig struct {
	Path string `yaml:"path"`
	// Sheet selects the worksheet of an .xlsx dataset; empty means the first sheet.
	Sheet string `yaml:"sheet"`
	// Watch reloads the catalog when the dataset file changes.
	Watch *bool `yaml:"watch"`
	// Franchises are name tags that force titles into one series.
	Franchises []string `yaml:"franchises"`
}

// WatchOrDefault returns whether to watch the dataset; defaults to true when unset.
func (c *CatalogConfig) WatchOrDefault() bool {
	if c.Watch != nil {
		return *c.Watch
	}
	return true
}

// SearchConfig holds result limits and display policy.
type SearchConfig struct {
	DefaultLimit int `yaml:"default_limit"`
	MaxLimit     int `yaml:"max_limit"`
	// FilterSort is the sort key for filter requests that name none: "catalog", "rating" or "members".
	FilterSort     string   `yaml:"filter_sort"`
	ExcludedGenres []string `yaml:"excluded_genres"`
}

// LookupConfig holds settings for the image/synopsis lookup service.
type LookupConfig struct {
	Enabled           *bool         `yaml:"enabled"`
	BaseURL           string        `yaml:"base_url"`
	Timeout           time.Duration `yaml:"timeout"`
	RatePerSecond     float64       `yaml:"rate_per_second"`
	PlaceholderURL    string        `yaml:"placeholder_url"`
	CacheSize         int           `yaml:"cache_size"`
	CacheTTL          time.Duration `yaml:"cache_ttl"`
	EnrichConcurrency int           `yaml:"enrich_concurrency"`
}

// EnabledOrDefault returns whether lookups are enabled; defaults to true when unset.
func (l *LookupConfig) EnabledOrDefault() bool {
	if l.Enabled != nil {
		return *l.Enabled
	}
	return true
}

// StorageConfig holds the lookup database path.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	configDir := filepath.Dir(path)
	cfg.Catalog.Path = expandPath(cfg.Catalog.Path, configDir)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)

	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate rejects settings that cannot work.
func Validate(cfg *Config) error {
	switch cfg.Search.FilterSort {
	case "catalog", "rating", "members":
	default:
		return fmt.Errorf("invalid search.filter_sort %q", cfg.Search.FilterSort)
	}
	if cfg.Search.DefaultLimit > cfg.Search.MaxLimit {
		return fmt.Errorf("search.default_limit %d exceeds search.max_limit %d", cfg.Search.DefaultLimit, cfg.Search.MaxLimit)
	}
	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", cfg.Server.Port)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
