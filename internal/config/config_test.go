package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Device != "cpu" {
		t.Errorf("expected device cpu, got %q", cfg.Device)
	}
	if cfg.Workers != 1 {
		t.Errorf("expected 1 worker, got %d", cfg.Workers)
	}
	if cfg.ComputeThreads != 4 {
		t.Errorf("expected 4 compute threads, got %d", cfg.ComputeThreads)
	}
	if cfg.BeamSize != 4 {
		t.Errorf("expected beam size 4, got %d", cfg.BeamSize)
	}
	if cfg.NumHypotheses != 1 {
		t.Errorf("expected 1 hypothesis, got %d", cfg.NumHypotheses)
	}
	if cfg.LengthPenalty != 0.6 {
		t.Errorf("expected length penalty 0.6, got %v", cfg.LengthPenalty)
	}
	if cfg.MaxDecodingLength != 250 {
		t.Errorf("expected max decoding length 250, got %d", cfg.MaxDecodingLength)
	}
	if cfg.MinDecodingLength != 1 {
		t.Errorf("expected min decoding length 1, got %d", cfg.MinDecodingLength)
	}
	if cfg.MetricsAddr != ":9090" {
		t.Errorf("expected metrics addr :9090, got %q", cfg.MetricsAddr)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing model", func(c *Config) { c.ModelPath = "" }, true},
		{"missing device", func(c *Config) { c.Device = "" }, true},
		{"negative device index", func(c *Config) { c.DeviceIndex = -1 }, true},
		{"zero workers", func(c *Config) { c.Workers = 0 }, true},
		{"zero compute threads", func(c *Config) { c.ComputeThreads = 0 }, true},
		{"zero batch size", func(c *Config) { c.MaxBatchSize = 0 }, true},
		{"bad decoding bounds", func(c *Config) { c.MinDecodingLength = 9; c.MaxDecodingLength = 3 }, true},
		{"hypotheses exceed beam", func(c *Config) { c.NumHypotheses = 8 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.ModelPath = "model.bin"
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fletcher.yaml")
	content := `
model_path: /models/ende.bin
device: cuda
device_index: 1
workers: 4
max_batch_size: 64
beam_size: 8
num_hypotheses: 2
with_scores: true
log_level: debug
flight_addr: "localhost:3000"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.ModelPath != "/models/ende.bin" {
		t.Errorf("model_path: got %q", cfg.ModelPath)
	}
	if cfg.Device != "cuda" || cfg.DeviceIndex != 1 {
		t.Errorf("device: got %s:%d", cfg.Device, cfg.DeviceIndex)
	}
	if cfg.Workers != 4 {
		t.Errorf("workers: got %d", cfg.Workers)
	}
	if cfg.BeamSize != 8 || cfg.NumHypotheses != 2 {
		t.Errorf("decoding: got beam=%d hyp=%d", cfg.BeamSize, cfg.NumHypotheses)
	}
	if !cfg.WithScores {
		t.Error("with_scores: expected true")
	}
	// Unset keys keep their defaults.
	if cfg.LengthPenalty != 0.6 {
		t.Errorf("length_penalty default lost: got %v", cfg.LengthPenalty)
	}
	if cfg.ComputeThreads != 4 {
		t.Errorf("compute_threads default lost: got %d", cfg.ComputeThreads)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("loaded config should validate: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestOptions(t *testing.T) {
	cfg := Default()
	cfg.BeamSize = 6
	cfg.NumHypotheses = 3
	cfg.UseVMap = true
	cfg.WithScores = true

	opts := cfg.Options()
	if opts.BeamSize != 6 || opts.NumHypotheses != 3 {
		t.Errorf("options mismatch: %+v", opts)
	}
	if !opts.UseVMap || !opts.WithScores {
		t.Errorf("flags lost in translation options: %+v", opts)
	}
	if err := opts.Validate(); err != nil {
		t.Errorf("options should validate: %v", err)
	}
}
