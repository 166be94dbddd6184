// Package config carries the run configuration for the fletcher binary.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/23skdu/longbow-fletcher/internal/translate"
)

type Config struct {
	ModelPath      string `yaml:"model_path"`
	Device         string `yaml:"device"`
	DeviceIndex    int    `yaml:"device_index"`
	Workers        int    `yaml:"workers"`
	ComputeThreads int    `yaml:"compute_threads"`
	MaxBatchSize   int    `yaml:"max_batch_size"`

	BeamSize          int     `yaml:"beam_size"`
	NumHypotheses     int     `yaml:"num_hypotheses"`
	LengthPenalty     float64 `yaml:"length_penalty"`
	MaxDecodingLength int     `yaml:"max_decoding_length"`
	MinDecodingLength int     `yaml:"min_decoding_length"`
	UseVMap           bool    `yaml:"use_vmap"`
	WithScores        bool    `yaml:"with_scores"`

	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	MetricsAddr string `yaml:"metrics_addr"`
	// FlightAddr enables Arrow Flight export of finished translations when
	// non-empty, e.g. "localhost:3000".
	FlightAddr string `yaml:"flight_addr"`
}

// Default mirrors the translator surface defaults: cpu device index 0, one
// worker, decoding beam 4 / 1 hypothesis / penalty 0.6 / length in [1, 250].
func Default() Config {
	return Config{
		Device:         "cpu",
		DeviceIndex:    0,
		Workers:        1,
		ComputeThreads: 4,
		MaxBatchSize:   32,

		BeamSize:          4,
		NumHypotheses:     1,
		LengthPenalty:     0.6,
		MaxDecodingLength: 250,
		MinDecodingLength: 1,

		LogLevel:    "info",
		LogFormat:   "console",
		MetricsAddr: ":9090",
	}
}

// Load reads a YAML config file over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.ModelPath == "" {
		return fmt.Errorf("model_path is required")
	}
	if c.Device == "" {
		return fmt.Errorf("device is required")
	}
	if c.DeviceIndex < 0 {
		return fmt.Errorf("invalid device_index: %d (must be non-negative)", c.DeviceIndex)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("invalid workers: %d (must be positive)", c.Workers)
	}
	if c.ComputeThreads <= 0 {
		return fmt.Errorf("invalid compute_threads: %d (must be positive)", c.ComputeThreads)
	}
	if c.MaxBatchSize <= 0 {
		return fmt.Errorf("invalid max_batch_size: %d (must be positive)", c.MaxBatchSize)
	}
	return c.Options().Validate()
}

// Options assembles the decoding options carried by this configuration.
func (c *Config) Options() translate.Options {
	return translate.Options{
		BeamSize:          c.BeamSize,
		NumHypotheses:     c.NumHypotheses,
		LengthPenalty:     c.LengthPenalty,
		MaxDecodingLength: c.MaxDecodingLength,
		MinDecodingLength: c.MinDecodingLength,
		UseVMap:           c.UseVMap,
		WithScores:        c.WithScores,
	}
}
