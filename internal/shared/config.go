package shared

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// EnvAPIURL overrides [APIConfig.BaseURL] when set.
const EnvAPIURL = "MOOVIE_API_URL"

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	API      APIConfig      `toml:"api"`
	Media    MediaConfig    `toml:"media"`
	Session  SessionConfig  `toml:"session"`
	Database DatabaseConfig `toml:"database"`
	Cache    CacheConfig    `toml:"cache"`
}

// APIConfig contains settings for the catalog API client.
type APIConfig struct {
	BaseURL            string  `toml:"base_url"`
	Timeout            string  `toml:"timeout"`
	RateLimit          float64 `toml:"rate_limit"`
	Burst              int     `toml:"burst"`
	ReconcileFavorites bool    `toml:"reconcile_favorites"`
}

// MediaConfig contains stock-media proxy query defaults for the trailer carousel.
type MediaConfig struct {
	Query       string `toml:"query"`
	PerPage     int    `toml:"per_page"`
	MinDuration int    `toml:"min_duration"`
	MaxDuration int    `toml:"max_duration"`
}

// SessionConfig controls where the bearer token is persisted.
type SessionConfig struct {
	Path string `toml:"path"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// CacheConfig contains local cache settings.
type CacheConfig struct {
	FavoritesTTL string `toml:"favorites_ttl"`
}

// RequestTimeout parses [APIConfig.Timeout], returning 15s when unset or malformed.
func (c APIConfig) RequestTimeout() time.Duration {
	return parseDuration(c.Timeout, 15*time.Second)
}

// TTL parses [CacheConfig.FavoritesTTL]. Zero disables the favorites cache.
func (c CacheConfig) TTL() time.Duration {
	return parseDuration(c.FavoritesTTL, 0)
}

// SessionPath returns the configured session file, defaulting to ~/.moovie/session.toml.
func (c SessionConfig) SessionPath() string {
	if c.Path != "" {
		return c.Path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".moovie", "session.toml")
	}
	return filepath.Join(home, ".moovie", "session.toml")
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.applyEnv()
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	config.applyEnv()
	return &config
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvAPIURL); v != "" {
		c.API.BaseURL = v
	}
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveConfig encodes config as TOML and writes it to path.
func SaveConfig(path string, config *Config) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}
