package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Limits.MaxLinesChanged != 500 || cfg.Limits.MaxFilesChanged != 20 {
		t.Errorf("limits = %+v, want defaults", cfg.Limits)
	}
	if cfg.Confidence.High != 0.8 || cfg.Confidence.Low != 0.5 {
		t.Errorf("confidence = %+v, want defaults", cfg.Confidence)
	}
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := writeConfig(t, `
limits:
  maxLinesChanged: 250
reasoning:
  maxAttempts: 5
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Limits.MaxLinesChanged != 250 {
		t.Errorf("maxLinesChanged = %d, want 250", cfg.Limits.MaxLinesChanged)
	}
	// Keys absent from the file keep their defaults.
	if cfg.Limits.MaxFilesChanged != 20 {
		t.Errorf("maxFilesChanged = %d, want default 20", cfg.Limits.MaxFilesChanged)
	}
	if cfg.Reasoning.MaxAttempts != 5 {
		t.Errorf("maxAttempts = %d, want 5", cfg.Reasoning.MaxAttempts)
	}
	if cfg.Reasoning.MaxOutputTokens != 4096 {
		t.Errorf("maxOutputTokens = %d, want default", cfg.Reasoning.MaxOutputTokens)
	}
}

func TestLoadExplicitZeroBeatsDefault(t *testing.T) {
	path := writeConfig(t, `
linting:
  failThreshold: 0
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Linting.FailThreshold != 0 {
		t.Errorf("failThreshold = %d, want explicit 0", cfg.Linting.FailThreshold)
	}
}

func TestLoadMalformedFileFails(t *testing.T) {
	path := writeConfig(t, "limits: [not: a: mapping")
	if _, err := Load(path); err == nil {
		t.Fatal("malformed config did not fail")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults are valid", func(*Config) {}, ""},
		{
			"zero line limit",
			func(c *Config) { c.Limits.MaxLinesChanged = 0 },
			"maxLinesChanged",
		},
		{
			"negative lint threshold",
			func(c *Config) { c.Linting.FailThreshold = -1 },
			"failThreshold",
		},
		{
			"zero attempts",
			func(c *Config) { c.Reasoning.MaxAttempts = 0 },
			"maxAttempts",
		},
		{
			"confidence out of range",
			func(c *Config) { c.Confidence.High = 1.5 },
			"confidence.high",
		},
		{
			"inverted thresholds",
			func(c *Config) { c.Confidence.Low = 0.9 },
			"confidence.low",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}
