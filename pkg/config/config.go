// Package config provides configuration loading and management for dceaif.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Concentration mapping parameters
	Concentration struct {
		// BaselineSamples is the number of leading pre-contrast time samples
		BaselineSamples int `yaml:"baselineSamples"`

		// ScaleFactor multiplies the baseline-subtracted signal
		ScaleFactor float64 `yaml:"scaleFactor"`

		// Mode selects "abs" (k*(I-I0)) or "rel" (k*(I-I0)/I0) concentration
		Mode string `yaml:"mode"`
	} `yaml:"concentration"`

	// Candidate selection parameters
	Selection struct {
		// Window is the number of leading timesteps used for voxel selection
		// and temporal peak alignment
		Window int `yaml:"window"`

		// RetryWindow is the enlarged window used when peak alignment fails
		// on the primary window
		RetryWindow int `yaml:"retryWindow"`

		// Percentile selects the brightest voxels; a value of 2 keeps the
		// voxels above the 98th percentile of the early mean map
		Percentile float64 `yaml:"percentile"`

		// AreaThresholdML discards candidate regions whose physical volume
		// is at or below this threshold (in milliliters)
		AreaThresholdML float64 `yaml:"areaThresholdML"`
	} `yaml:"selection"`

	// Parker model fitting parameters
	Fit struct {
		// Tolerance is the absolute function convergence tolerance of the
		// optimizer. Loose on purpose: the cost is only a ranking signal.
		Tolerance float64 `yaml:"tolerance"`

		// MaxIterations bounds the optimizer's iteration count
		MaxIterations int `yaml:"maxIterations"`
	} `yaml:"fit"`

	// Mask refinement parameters
	Refine struct {
		// GrowWindow is the number of leading timesteps averaged to build
		// the seed map for region growing
		GrowWindow int `yaml:"growWindow"`

		// GrowQuantile restricts the flood-fill tolerance statistics to
		// mask-interior voxels above this quantile. Empirical constant,
		// tunable rather than fixed.
		GrowQuantile float64 `yaml:"growQuantile"`
	} `yaml:"refine"`

	// Temporal clustering parameters
	Cluster struct {
		// Count is the number of k-means clusters over voxel time courses
		Count int `yaml:"count"`

		// MaxIterations bounds the k-means refinement loop
		MaxIterations int `yaml:"maxIterations"`
	} `yaml:"cluster"`

	// Output parameters
	Output struct {
		// SaveMaskSlices determines whether the final mask's z-slices are
		// exported as PNG images for review
		SaveMaskSlices bool `yaml:"saveMaskSlices"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Set default concentration parameters
	cfg.Concentration.BaselineSamples = 5
	cfg.Concentration.ScaleFactor = 1.0
	cfg.Concentration.Mode = "abs"

	// Set default selection parameters
	cfg.Selection.Window = 20
	cfg.Selection.RetryWindow = 30
	cfg.Selection.Percentile = 2.0
	cfg.Selection.AreaThresholdML = 1.0

	// Set default fit parameters
	cfg.Fit.Tolerance = 1e-3
	cfg.Fit.MaxIterations = 1000

	// Set default refinement parameters
	cfg.Refine.GrowWindow = 10
	cfg.Refine.GrowQuantile = 0.8

	// Set default clustering parameters
	cfg.Cluster.Count = 1
	cfg.Cluster.MaxIterations = 100

	// Set default output parameters
	cfg.Output.SaveMaskSlices = false
	cfg.Output.Verbose = true

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
