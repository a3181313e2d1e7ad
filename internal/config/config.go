// Package config loads the markets service configuration from YAML and
// watches the file so feature flags can change without a restart.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default configuration values.
const (
	DefaultAddr            = ":8080"
	DefaultRefreshInterval = 60 * time.Second
	DefaultCoinGeckoURL    = "https://api.coingecko.com/api/v3"
	DefaultPortalsURL      = "https://api.portals.fi/v2"
	DefaultThornodeURL     = "https://thornode.ninerealms.com"
	DefaultMidgardURL      = "https://midgard.ninerealms.com/v2"
)

// ErrInvalidConfig is returned when a loaded config fails validation.
var ErrInvalidConfig = errors.New("invalid config")

// FeatureFlags toggles chains and rows.
type FeatureFlags struct {
	ArbitrumNova bool `yaml:"arbitrum_nova"`
	Solana       bool `yaml:"solana"`
}

// Endpoints are the upstream market data APIs.
type Endpoints struct {
	CoinGecko string `yaml:"coingecko"`
	Portals   string `yaml:"portals"`
	Thornode  string `yaml:"thornode"`
	Midgard   string `yaml:"midgard"`
}

// Storage selects persistence backends. Empty DSNs select in-memory stores.
type Storage struct {
	PostgresDSN   string `yaml:"postgres_dsn"`
	ClickhouseDSN string `yaml:"clickhouse_dsn"`
}

// Config is the full service configuration.
type Config struct {
	Addr            string        `yaml:"addr"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	Endpoints       Endpoints     `yaml:"endpoints"`
	Storage         Storage       `yaml:"storage"`
	FeatureFlags    FeatureFlags  `yaml:"feature_flags"`
}

// Default returns a config with every field populated.
func Default() *Config {
	return &Config{
		Addr:            DefaultAddr,
		RefreshInterval: DefaultRefreshInterval,
		Endpoints: Endpoints{
			CoinGecko: DefaultCoinGeckoURL,
			Portals:   DefaultPortalsURL,
			Thornode:  DefaultThornodeURL,
			Midgard:   DefaultMidgardURL,
		},
	}
}

// Load reads path over Default. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := Parse(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML into cfg, keeping fields the document omits.
func Parse(data []byte, cfg *Config) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return cfg.Validate()
}

// Validate checks the config for unusable values.
func (c *Config) Validate() error {
	if c.RefreshInterval <= 0 {
		return fmt.Errorf("%w: refresh_interval must be positive, got %s", ErrInvalidConfig, c.RefreshInterval)
	}
	if c.Addr == "" {
		return fmt.Errorf("%w: addr is empty", ErrInvalidConfig)
	}
	for name, url := range map[string]string{
		"coingecko": c.Endpoints.CoinGecko,
		"portals":   c.Endpoints.Portals,
		"thornode":  c.Endpoints.Thornode,
		"midgard":   c.Endpoints.Midgard,
	} {
		if url == "" {
			return fmt.Errorf("%w: endpoints.%s is empty", ErrInvalidConfig, name)
		}
	}
	return nil
}
