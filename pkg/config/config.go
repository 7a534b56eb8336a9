// Package config provides configuration loading and management for gpastrain.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"gpastrain/internal/models"
	"gpastrain/pkg/gpa"
)

// GVector is one g-vector pick with the areas used to refine it
type GVector struct {
	// X and Y are measured in spectrum pixels from the spectrum centre
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`

	// Refine lists refinement rectangles in image coordinates centred on
	// the image middle, applied in order
	Refine []models.Rect `yaml:"refine,omitempty"`
}

// Config represents the application configuration loaded from YAML
type Config struct {
	// Processing parameters
	Processing struct {
		// Workers bounds the goroutines used for transforms and per-pixel work
		Workers int `yaml:"workers"`

		// Hann windows the image before analysis
		Hann bool `yaml:"hann"`
	} `yaml:"processing"`

	// GPA parameters
	GPA struct {
		// Radius is the g-vector search radius in spectrum pixels; 0 estimates it
		Radius float64 `yaml:"radius"`

		// Sigma is the mask width; 0 uses radius/6
		Sigma float64 `yaml:"sigma"`

		// Angle rotates the tensor axes, in degrees
		Angle float64 `yaml:"angle"`

		// Mode is one of Distortion, Strain, Rotation, Dilatation
		Mode string `yaml:"mode"`

		// SnapToPeak moves each g-vector onto the nearest detected Bragg peak
		SnapToPeak bool `yaml:"snapToPeak"`

		// SnapRadius is the farthest a g-vector may move when snapping
		SnapRadius float64 `yaml:"snapRadius"`
	} `yaml:"gpa"`

	// GVectors holds the two g-vector picks
	GVectors []GVector `yaml:"gvectors"`

	// Output parameters
	Output struct {
		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`

		// Report is the YAML report path; empty writes to stdout
		Report string `yaml:"report"`

		// FieldsDir receives one TIFF per tensor component when set
		FieldsDir string `yaml:"fieldsDir"`

		// Limit maps [-Limit, Limit] onto the grey range of exported fields;
		// 0 scales each field to its own range
		Limit float64 `yaml:"limit"`

		// Margin excludes border cells from the report statistics
		Margin int `yaml:"margin"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Processing.Workers = runtime.NumCPU()
	cfg.Processing.Hann = false

	cfg.GPA.Radius = 0
	cfg.GPA.Sigma = 0
	cfg.GPA.Angle = 0
	cfg.GPA.Mode = gpa.Strain.String()
	cfg.GPA.SnapToPeak = true
	cfg.GPA.SnapRadius = 3

	cfg.Output.Verbose = true
	cfg.Output.Limit = 0.1
	cfg.Output.Margin = 2

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// Validate checks that cfg describes a runnable analysis
func (cfg *Config) Validate() error {
	var errs []error

	if cfg.Processing.Workers < 1 {
		errs = append(errs, fmt.Errorf("processing.workers must be at least 1, got %d", cfg.Processing.Workers))
	}
	if cfg.GPA.Radius < 0 {
		errs = append(errs, fmt.Errorf("gpa.radius must not be negative, got %g", cfg.GPA.Radius))
	}
	if cfg.GPA.Sigma < 0 {
		errs = append(errs, fmt.Errorf("gpa.sigma must not be negative, got %g", cfg.GPA.Sigma))
	}
	if _, err := gpa.ParseMode(cfg.GPA.Mode); err != nil {
		errs = append(errs, err)
	}
	if cfg.GPA.SnapToPeak && cfg.GPA.SnapRadius <= 0 {
		errs = append(errs, fmt.Errorf("gpa.snapRadius must be positive when snapping, got %g", cfg.GPA.SnapRadius))
	}
	if len(cfg.GVectors) != 2 {
		errs = append(errs, fmt.Errorf("exactly 2 gvectors are required, got %d", len(cfg.GVectors)))
	}
	if cfg.Output.Limit < 0 {
		errs = append(errs, fmt.Errorf("output.limit must not be negative, got %g", cfg.Output.Limit))
	}
	if cfg.Output.Margin < 0 {
		errs = append(errs, fmt.Errorf("output.margin must not be negative, got %d", cfg.Output.Margin))
	}

	return errors.Join(errs...)
}

// Mode returns the parsed tensor mode
func (cfg *Config) Mode() (gpa.Mode, error) {
	return gpa.ParseMode(cfg.GPA.Mode)
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path.
// The g-vectors are placeholders to be replaced with picks from the spectrum.
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	cfg.GVectors = []GVector{
		{X: 10, Y: 0},
		{X: 0, Y: 10, Refine: []models.Rect{{Top: -20, Left: -20, Bottom: 20, Right: 20}}},
	}
	return SaveConfig(cfg, configPath)
}
