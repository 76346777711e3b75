// Package config handles loading and managing LetzGrade CLI configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/letzgrade/letzgrade/pkg/grades"
)

// Config is the top-level configuration for the letzgrade CLI.
type Config struct {
	Grades  GradesConfig  `yaml:"grades"`
	Output  OutputConfig  `yaml:"output"`
	Catalog CatalogConfig `yaml:"catalog"`
}

// GradesConfig controls how grades are read and combined.
type GradesConfig struct {
	Scale       grades.Scale    `yaml:"scale"`
	YearRule    grades.YearRule `yaml:"year_rule"`
	TotalWeight float64         `yaml:"total_weight"` // unit the entry weights are expressed in
	WeightMode  string          `yaml:"weight_mode"`  // "percent" or "fraction"
}

// OutputConfig controls rendering.
type OutputConfig struct {
	Format string `yaml:"format"` // "text" or "json"
}

// CatalogConfig points at the school-year catalog.
type CatalogConfig struct {
	Path string `yaml:"path"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Grades: GradesConfig{
			Scale:       grades.DefaultScale,
			YearRule:    grades.YearRuleCreditWeighted,
			TotalWeight: 100,
			WeightMode:  "percent",
		},
		Output: OutputConfig{
			Format: "text",
		},
	}
}

// Load reads a config file from the given path.
// If the file does not exist, it returns the default config.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks that the configured values can be used by the grade math.
func (c *Config) Validate() error {
	s := c.Grades.Scale
	if s.Max <= s.Min {
		return fmt.Errorf("grades.scale: max (%g) must be greater than min (%g)", s.Max, s.Min)
	}
	if !c.Grades.YearRule.OrDefault().Valid() {
		return fmt.Errorf("grades.year_rule: unknown rule %q", c.Grades.YearRule)
	}
	if c.Grades.TotalWeight <= 0 {
		return fmt.Errorf("grades.total_weight must be positive, got %g", c.Grades.TotalWeight)
	}
	if _, err := c.Grades.Mode(); err != nil {
		return err
	}
	switch c.Output.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("output.format: unknown format %q", c.Output.Format)
	}
	return nil
}

// Mode returns the configured weight parsing mode.
func (g GradesConfig) Mode() (grades.WeightMode, error) {
	switch g.WeightMode {
	case "", "percent":
		return grades.WeightPercent, nil
	case "fraction":
		return grades.WeightFraction, nil
	default:
		return 0, fmt.Errorf("grades.weight_mode: unknown mode %q", g.WeightMode)
	}
}

// FindConfigFile looks for .letzgrade/config.yaml in the given directory
// and its parents, returning the path if found, or "" if not.
func FindConfigFile(dir string) string {
	for {
		candidate := filepath.Join(dir, ".letzgrade", "config.yaml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// CacheDir returns the local LetzGrade data directory, ~/.cache/letzgrade.
func CacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to temp dir if HOME isn't available
		home = os.TempDir()
	}
	return filepath.Join(home, ".cache", "letzgrade")
}

// ReportDir returns the directory archived CLI reports are written to.
func ReportDir() string {
	return filepath.Join(CacheDir(), "reports")
}
