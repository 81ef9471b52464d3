// Package config loads node configuration from TOML files.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config is the top-level node configuration.
type Config struct {
	// DataDir holds the LevelDB state database.
	DataDir     string            `toml:"data_dir"`
	Logging     LoggingConfig     `toml:"logging"`
	Marketplace MarketplaceConfig `toml:"marketplace"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// MarketplaceConfig tunes the marketplace engines.
type MarketplaceConfig struct {
	// RoyaltyCeilingBps caps accepted royalty rates, in basis points
	// against a 10000 denominator.
	RoyaltyCeilingBps uint32 `toml:"royalty_ceiling_bps"`
}

// Default returns the configuration used when no file is supplied.
func Default() Config {
	return Config{
		DataDir: "./data",
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Marketplace: MarketplaceConfig{
			RoyaltyCeilingBps: 10000,
		},
	}
}

// Load reads a TOML configuration file, applying defaults for absent fields.
// A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects configurations the engines cannot honor.
func (c Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("config: data_dir must not be empty")
	}
	if c.Marketplace.RoyaltyCeilingBps == 0 || c.Marketplace.RoyaltyCeilingBps > 10000 {
		return fmt.Errorf("config: royalty_ceiling_bps must be in [1, 10000], got %d", c.Marketplace.RoyaltyCeilingBps)
	}
	return nil
}
