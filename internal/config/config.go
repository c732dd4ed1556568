// Package config loads and saves stockledger.yaml.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/simonvc/stockledger/internal/inventory"
	"github.com/simonvc/stockledger/internal/valuation"
)

// DefaultPath is where the CLI looks for its config file.
const DefaultPath = "stockledger.yaml"

// Config represents the top-level stockledger.yaml configuration.
type Config struct {
	Database   DatabaseConfig   `yaml:"database"`
	Server     ServerConfig     `yaml:"server"`
	Accounting AccountingConfig `yaml:"accounting"`
	Reports    ReportsConfig    `yaml:"reports"`
	Log        LogConfig        `yaml:"log"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig holds the listen address for serve and the URL clients use.
type ServerConfig struct {
	Addr string `yaml:"addr"`
	URL  string `yaml:"url"`
}

type AccountingConfig struct {
	BusinessID int64  `yaml:"business_id"`
	Method     string `yaml:"method"` // fifo, lifo or avco
}

type ReportsConfig struct {
	Epsilon            string `yaml:"epsilon"`
	LowMarginThreshold string `yaml:"low_margin_threshold"` // percent
	TrendGranularity   string `yaml:"trend_granularity"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// Load reads a stockledger.yaml file from disk. Missing keys keep their
// defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault is Load, falling back to Default when path does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "stockledger.db"},
		Server: ServerConfig{
			Addr: ":8080",
			URL:  "http://localhost:8080",
		},
		Accounting: AccountingConfig{
			BusinessID: 1,
			Method:     string(inventory.FIFO),
		},
		Reports: ReportsConfig{
			Epsilon:            "0.01",
			LowMarginThreshold: "20",
			TrendGranularity:   string(valuation.Monthly),
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// Validate checks values that the services parse later, so a bad file
// fails at startup.
func (c *Config) Validate() error {
	if _, err := inventory.ParseMethod(c.Accounting.Method); err != nil {
		return fmt.Errorf("accounting.method: %w", err)
	}
	if _, err := valuation.ParseGranularity(c.Reports.TrendGranularity); err != nil {
		return fmt.Errorf("reports.trend_granularity: %w", err)
	}
	if _, err := c.Epsilon(); err != nil {
		return err
	}
	if _, err := c.LowMarginThreshold(); err != nil {
		return err
	}
	return nil
}

func (c *Config) Method() inventory.Method {
	m, _ := inventory.ParseMethod(c.Accounting.Method)
	return m
}

func (c *Config) Epsilon() (decimal.Decimal, error) {
	if c.Reports.Epsilon == "" {
		return decimal.New(1, -2), nil
	}
	d, err := decimal.NewFromString(c.Reports.Epsilon)
	if err != nil || !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("reports.epsilon: %q is not a positive number", c.Reports.Epsilon)
	}
	return d, nil
}

func (c *Config) LowMarginThreshold() (decimal.Decimal, error) {
	if c.Reports.LowMarginThreshold == "" {
		return decimal.NewFromInt(20), nil
	}
	d, err := decimal.NewFromString(c.Reports.LowMarginThreshold)
	if err != nil {
		return decimal.Zero, fmt.Errorf("reports.low_margin_threshold: %w", err)
	}
	return d, nil
}
