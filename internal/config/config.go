//-------------------------------------------------------------------------
//
// pgEdge Revenue Report
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package config handles configuration management for pgedge-revreport.
// Configuration is loaded from config files and CLI flags (no environment variables).
// CLI flags take precedence over config file values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/pgEdge/pgedge-revreport/internal/report"
)

// DateLayout is the layout of date values in the config file.
const DateLayout = "2006-01-02"

// Config holds all configuration for pgedge-revreport.
type Config struct {
	// Connection is the PostgreSQL connection string.
	Connection string `mapstructure:"connection"`

	// Source names the data source (postgres, synthetic).
	Source string `mapstructure:"source"`

	// LogLevel controls logging verbosity (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level"`

	// Report holds configuration for the revenue pipeline and its output.
	Report ReportConfig `mapstructure:"report"`

	// Synthetic holds configuration for the synthetic source.
	Synthetic SyntheticConfig `mapstructure:"synthetic"`
}

// ReportConfig holds pipeline and rendering settings.
type ReportConfig struct {
	// Workers is the number of parallel partitions (0 = number of CPUs).
	Workers int `mapstructure:"workers"`

	// MaxPrecision is the total number of decimal digits, at scale 2,
	// allowed for a line total or a bucket's gross revenue.
	MaxPrecision int `mapstructure:"max_precision"`

	// DefectSampleSize is how many skipped rows are kept as samples.
	DefectSampleSize int `mapstructure:"defect_sample_size"`

	// Format is the output format: table, json, yaml or csv.
	Format string `mapstructure:"format"`

	// MaxConns caps the PostgreSQL pool used to read the relations.
	MaxConns int `mapstructure:"max_conns"`
}

// SyntheticConfig holds configuration for generated datasets.
type SyntheticConfig struct {
	Seed             uint64  `mapstructure:"seed"`
	Customers        int     `mapstructure:"customers"`
	Products         int     `mapstructure:"products"`
	Orders           int     `mapstructure:"orders"`
	MaxLinesPerOrder int     `mapstructure:"max_lines_per_order"`
	ReturnRate       float64 `mapstructure:"return_rate"`
	DefectRate       float64 `mapstructure:"defect_rate"`

	// StartDate and EndDate bound order dates (YYYY-MM-DD).
	StartDate string `mapstructure:"start_date"`
	EndDate   string `mapstructure:"end_date"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Source:   "postgres",
		LogLevel: "info",
		Report: ReportConfig{
			Workers:          0,
			MaxPrecision:     18, // NUMERIC(18,2)
			DefectSampleSize: 10,
			Format:           "table",
			MaxConns:         4,
		},
		Synthetic: SyntheticConfig{
			Seed:             1,
			Customers:        200,
			Products:         50,
			Orders:           1000,
			MaxLinesPerOrder: 4,
			ReturnRate:       0.1,
			DefectRate:       0,
			StartDate:        "2023-01-01",
			EndDate:          "2023-12-31",
		},
	}
}

// Load reads configuration from config files.
// Config file locations (in order of precedence):
// 1. Path specified by configFile parameter
// 2. ./pgedge-revreport.yaml
// 3. ~/.config/pgedge-revreport/config.yaml
func Load(configFile string) (*Config, error) {
	v := viper.New()

	// Set config name and type
	v.SetConfigName("pgedge-revreport")
	v.SetConfigType("yaml")

	// Add config paths
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "pgedge-revreport"))
	}

	// Use specific config file if provided
	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Start with defaults
	cfg := DefaultConfig()

	// Unmarshal config file values
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// Validate checks that the source is usable.
func (c *Config) Validate() error {
	switch c.Source {
	case "postgres":
		if c.Connection == "" {
			return fmt.Errorf("connection string is required for the postgres source")
		}
	case "synthetic":
		if _, _, err := c.Synthetic.Dates(); err != nil {
			return err
		}
	case "":
		return fmt.Errorf("source is required")
	}
	return nil
}

// ValidateReport checks configuration required for the report command.
func (c *Config) ValidateReport() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Report.Workers < 0 {
		return fmt.Errorf("workers must be non-negative")
	}
	if c.Report.MaxPrecision < 3 || c.Report.MaxPrecision > 1000 {
		return fmt.Errorf("max_precision must be between 3 and 1000")
	}
	if c.Report.DefectSampleSize < 0 {
		return fmt.Errorf("defect_sample_size must be non-negative")
	}
	if !report.ValidFormat(c.Report.Format) {
		return fmt.Errorf("format must be one of %v", report.Formats)
	}
	if c.Report.MaxConns < 1 {
		return fmt.Errorf("max_conns must be at least 1")
	}
	return nil
}

// ValidateVerify checks configuration required for the verify command.
func (c *Config) ValidateVerify() error {
	if c.Source != "postgres" {
		return fmt.Errorf("verify requires the postgres source, got '%s'", c.Source)
	}
	return c.ValidateReport()
}

// Dates parses StartDate and EndDate.
func (s SyntheticConfig) Dates() (time.Time, time.Time, error) {
	start, err := time.Parse(DateLayout, s.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid synthetic start_date: %w", err)
	}
	end, err := time.Parse(DateLayout, s.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid synthetic end_date: %w", err)
	}
	return start, end, nil
}
