// Package config holds the harmonia engine configuration.
// Configuration is loaded from a YAML file with environment overrides and
// validated strictly: invalid combinations fail construction, they are
// never silently clamped.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every validation failure so callers can
// distinguish configuration errors from IO errors.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds all harmonia engine settings.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Periodic trigger intervals, in minutes
	EvolutionIntervalMin         int `yaml:"evolution_interval_min"`
	HarmonyAnalysisIntervalMin   int `yaml:"harmony_analysis_interval_min"`
	MissionAssignmentIntervalMin int `yaml:"mission_assignment_interval_min"`

	// Prediction window hint, in days
	PredictionHorizonDays int `yaml:"prediction_horizon_days"`

	// Weight applied to value alignment in mission scoring (0-1]
	PhilosophyWeight float64 `yaml:"philosophy_weight"`

	// Gates the evolution trigger
	AutoEvolutionEnabled bool `yaml:"auto_evolution_enabled"`

	// Gates verbose logging
	DebugMode bool `yaml:"debug_mode"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level      string          `yaml:"level"` // debug, info, warn, error
	Categories map[string]bool `yaml:"categories"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "harmonia",
		Version: "1.0.0",

		EvolutionIntervalMin:         60,
		HarmonyAnalysisIntervalMin:   30,
		MissionAssignmentIntervalMin: 120,
		PredictionHorizonDays:        30,
		PhilosophyWeight:             0.4,
		AutoEvolutionEnabled:         true,
		DebugMode:                    false,

		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file.
// A missing file yields defaults; a present but invalid file is an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, cfg.Validate()
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies HARMONIA_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("HARMONIA_EVOLUTION_INTERVAL_MIN"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.EvolutionIntervalMin = n
		}
	}
	if v := os.Getenv("HARMONIA_HARMONY_INTERVAL_MIN"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.HarmonyAnalysisIntervalMin = n
		}
	}
	if v := os.Getenv("HARMONIA_MISSION_INTERVAL_MIN"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MissionAssignmentIntervalMin = n
		}
	}
	if v := os.Getenv("HARMONIA_PREDICTION_HORIZON_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.PredictionHorizonDays = n
		}
	}
	if v := os.Getenv("HARMONIA_PHILOSOPHY_WEIGHT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.PhilosophyWeight = f
		}
	}
	if v := os.Getenv("HARMONIA_AUTO_EVOLUTION"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.AutoEvolutionEnabled = b
		}
	}
	if v := os.Getenv("HARMONIA_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.DebugMode = b
		}
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.EvolutionIntervalMin <= 0 {
		return fmt.Errorf("%w: evolution_interval_min must be positive, got %d",
			ErrInvalidConfig, c.EvolutionIntervalMin)
	}
	if c.HarmonyAnalysisIntervalMin <= 0 {
		return fmt.Errorf("%w: harmony_analysis_interval_min must be positive, got %d",
			ErrInvalidConfig, c.HarmonyAnalysisIntervalMin)
	}
	if c.MissionAssignmentIntervalMin <= 0 {
		return fmt.Errorf("%w: mission_assignment_interval_min must be positive, got %d",
			ErrInvalidConfig, c.MissionAssignmentIntervalMin)
	}
	if c.PredictionHorizonDays < 1 {
		return fmt.Errorf("%w: prediction_horizon_days must be at least 1, got %d",
			ErrInvalidConfig, c.PredictionHorizonDays)
	}
	if c.PhilosophyWeight <= 0 || c.PhilosophyWeight > 1 {
		return fmt.Errorf("%w: philosophy_weight must be in (0,1], got %g",
			ErrInvalidConfig, c.PhilosophyWeight)
	}
	return nil
}

// EvolutionInterval returns the evolution trigger interval as a duration.
func (c *Config) EvolutionInterval() time.Duration {
	return time.Duration(c.EvolutionIntervalMin) * time.Minute
}

// HarmonyInterval returns the harmony analysis interval as a duration.
func (c *Config) HarmonyInterval() time.Duration {
	return time.Duration(c.HarmonyAnalysisIntervalMin) * time.Minute
}

// MissionInterval returns the mission assignment interval as a duration.
func (c *Config) MissionInterval() time.Duration {
	return time.Duration(c.MissionAssignmentIntervalMin) * time.Minute
}

// PredictionHorizon returns the prediction window hint as a duration.
func (c *Config) PredictionHorizon() time.Duration {
	return time.Duration(c.PredictionHorizonDays) * 24 * time.Hour
}
