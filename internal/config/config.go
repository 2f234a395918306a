package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/ivlev/forestwatch/internal/coverage"
	"github.com/ivlev/forestwatch/internal/grid"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "FORESTWATCH_"

type Config struct {
	Region       grid.Region     `yaml:"region" envPrefix:"REGION_"`
	CatalogRoot  string          `yaml:"catalog_root" env:"CATALOG_ROOT"`
	Area         string          `yaml:"area" env:"AREA"`
	DatabasePath string          `yaml:"database_path" env:"DATABASE_PATH"`
	OutputDir    string          `yaml:"output_dir" env:"OUTPUT_DIR"`
	Workers      int             `yaml:"workers" env:"WORKERS"`
	BandRows     int             `yaml:"band_rows" env:"BAND_ROWS"`
	Coverage     coverage.Policy `yaml:"coverage" envPrefix:"COVERAGE_"`
	ShowStats    bool            `yaml:"show_stats" env:"SHOW_STATS"`
	BuildVersion string          `yaml:"-"`
}

// Default is the Tay Son monitoring setup: a 3x3 grid of 0.005° cells.
func Default() *Config {
	return &Config{
		Region: grid.Region{
			CenterLat:       21.0245,
			CenterLng:       105.8412,
			Rows:            3,
			Cols:            3,
			CellSizeDegrees: 0.005,
		},
		CatalogRoot:  "input/masks",
		DatabasePath: "forestwatch.db",
		OutputDir:    "output",
		BandRows:     256,
		Coverage:     coverage.DefaultPolicy(),
	}
}

// Load layers defaults, the optional YAML file at path and FORESTWATCH_*
// environment variables, in that order.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	return cfg, nil
}

// Write stores cfg as YAML.
func Write(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	var errs []error
	if err := c.Region.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", c.Workers))
	}
	if c.BandRows < 0 {
		errs = append(errs, fmt.Errorf("band_rows must not be negative, got %d", c.BandRows))
	}
	return errors.Join(errs...)
}
