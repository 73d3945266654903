// Package config loads and validates revq configuration.
//
// Configuration comes from a .ai-review.yaml file in the working
// directory (or a path given with --config). Every threshold the
// pipeline uses lives here; components receive the loaded Config as a
// plain value and never read ambient state.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file revq looks for when --config is not given.
const DefaultPath = ".ai-review.yaml"

// Limits bounds the size of change-sets the pipeline will review.
type Limits struct {
	MaxLinesChanged int `yaml:"maxLinesChanged"`
	MaxFilesChanged int `yaml:"maxFilesChanged"`
}

// Linting configures the lint gate.
type Linting struct {
	Enabled       bool   `yaml:"enabled"`
	Tool          string `yaml:"tool"`
	FileSuffix    string `yaml:"fileSuffix"`
	FailOnError   bool   `yaml:"failOnError"`
	FailThreshold int    `yaml:"failThreshold"`
}

// Security configures the security-scan gate.
type Security struct {
	Enabled        bool   `yaml:"enabled"`
	Tool           string `yaml:"tool"`
	FailOnSeverity string `yaml:"failOnSeverity"`
	MaxFindings    int    `yaml:"maxFindings"`
}

// Dependencies configures the dependency-audit gate.
type Dependencies struct {
	Enabled             bool   `yaml:"enabled"`
	Tool                string `yaml:"tool"`
	FailOnVulnerability bool   `yaml:"failOnVulnerability"`
}

// Coverage configures the coverage gate.
type Coverage struct {
	Enabled        bool    `yaml:"enabled"`
	MinCoverage    float64 `yaml:"minCoverage"`
	FailOnDecrease bool    `yaml:"failOnDecrease"`
	ReportPath     string  `yaml:"reportPath"`
	BaselinePath   string  `yaml:"baselinePath"`
}

// Reasoning configures the reasoning-provider calls.
type Reasoning struct {
	CapableModel         string  `yaml:"capableModel"`
	CheapModel           string  `yaml:"cheapModel"`
	SimpleThresholdLines int     `yaml:"simpleThresholdLines"`
	MaxOutputTokens      int     `yaml:"maxOutputTokens"`
	RetryTemperature     float64 `yaml:"retryTemperature"`
	MaxAttempts          int     `yaml:"maxAttempts"`
	TimeoutSeconds       int     `yaml:"timeoutSeconds"`
}

// Confidence holds the two thresholds that split scores into
// high/medium/low bands.
type Confidence struct {
	High float64 `yaml:"high"`
	Low  float64 `yaml:"low"`
}

// Escalation configures the low-confidence webhook.
type Escalation struct {
	Enabled                bool    `yaml:"enabled"`
	WebhookURL             string  `yaml:"webhookUrl"`
	SlackFormat            bool    `yaml:"slackFormat"`
	TriggerBelowConfidence float64 `yaml:"triggerBelowConfidence"`
}

// History configures the local sqlite review-history store.
type History struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Config is the full revq configuration.
type Config struct {
	Limits       Limits       `yaml:"limits"`
	Linting      Linting      `yaml:"linting"`
	Security     Security     `yaml:"security"`
	Dependencies Dependencies `yaml:"dependencies"`
	Coverage     Coverage     `yaml:"coverage"`
	Reasoning    Reasoning    `yaml:"reasoning"`
	Confidence   Confidence   `yaml:"confidence"`
	Escalation   Escalation   `yaml:"escalation"`
	History      History      `yaml:"history"`
	Ignore       []string     `yaml:"ignore"`
}

// rawConfig mirrors Config with pointer fields so a key that is absent
// from the YAML can be told apart from one explicitly set to zero.
type rawConfig struct {
	Limits *struct {
		MaxLinesChanged *int `yaml:"maxLinesChanged"`
		MaxFilesChanged *int `yaml:"maxFilesChanged"`
	} `yaml:"limits"`
	Linting *struct {
		Enabled       *bool   `yaml:"enabled"`
		Tool          *string `yaml:"tool"`
		FileSuffix    *string `yaml:"fileSuffix"`
		FailOnError   *bool   `yaml:"failOnError"`
		FailThreshold *int    `yaml:"failThreshold"`
	} `yaml:"linting"`
	Security *struct {
		Enabled        *bool   `yaml:"enabled"`
		Tool           *string `yaml:"tool"`
		FailOnSeverity *string `yaml:"failOnSeverity"`
		MaxFindings    *int    `yaml:"maxFindings"`
	} `yaml:"security"`
	Dependencies *struct {
		Enabled             *bool   `yaml:"enabled"`
		Tool                *string `yaml:"tool"`
		FailOnVulnerability *bool   `yaml:"failOnVulnerability"`
	} `yaml:"dependencies"`
	Coverage *struct {
		Enabled        *bool    `yaml:"enabled"`
		MinCoverage    *float64 `yaml:"minCoverage"`
		FailOnDecrease *bool    `yaml:"failOnDecrease"`
		ReportPath     *string  `yaml:"reportPath"`
		BaselinePath   *string  `yaml:"baselinePath"`
	} `yaml:"coverage"`
	Reasoning *struct {
		CapableModel         *string  `yaml:"capableModel"`
		CheapModel           *string  `yaml:"cheapModel"`
		SimpleThresholdLines *int     `yaml:"simpleThresholdLines"`
		MaxOutputTokens      *int     `yaml:"maxOutputTokens"`
		RetryTemperature     *float64 `yaml:"retryTemperature"`
		MaxAttempts          *int     `yaml:"maxAttempts"`
		TimeoutSeconds       *int     `yaml:"timeoutSeconds"`
	} `yaml:"reasoning"`
	Confidence *struct {
		High *float64 `yaml:"high"`
		Low  *float64 `yaml:"low"`
	} `yaml:"confidence"`
	Escalation *struct {
		Enabled                *bool    `yaml:"enabled"`
		WebhookURL             *string  `yaml:"webhookUrl"`
		SlackFormat            *bool    `yaml:"slackFormat"`
		TriggerBelowConfidence *float64 `yaml:"triggerBelowConfidence"`
	} `yaml:"escalation"`
	History *struct {
		Enabled *bool   `yaml:"enabled"`
		Path    *string `yaml:"path"`
	} `yaml:"history"`
	Ignore []string `yaml:"ignore"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Limits: Limits{
			MaxLinesChanged: 500,
			MaxFilesChanged: 20,
		},
		Linting: Linting{
			Enabled:       true,
			Tool:          "ruff",
			FileSuffix:    ".py",
			FailOnError:   true,
			FailThreshold: 10,
		},
		Security: Security{
			Enabled:        true,
			Tool:           "bandit",
			FailOnSeverity: "high",
			MaxFindings:    0,
		},
		Dependencies: Dependencies{
			Enabled:             true,
			Tool:                "pip-audit",
			FailOnVulnerability: true,
		},
		Coverage: Coverage{
			Enabled:        false,
			MinCoverage:    80.0,
			FailOnDecrease: true,
			ReportPath:     "coverage.xml",
		},
		Reasoning: Reasoning{
			CapableModel:         "claude-sonnet-4-20250514",
			CheapModel:           "claude-haiku-4-5-20251001",
			SimpleThresholdLines: 50,
			MaxOutputTokens:      4096,
			RetryTemperature:     0.3,
			MaxAttempts:          3,
			TimeoutSeconds:       120,
		},
		Confidence: Confidence{
			High: 0.8,
			Low:  0.5,
		},
		Escalation: Escalation{
			Enabled:                false,
			SlackFormat:            false,
			TriggerBelowConfidence: 0.5,
		},
		History: History{
			Enabled: false,
			Path:    ".revq/history.db",
		},
	}
}

// Load reads configuration from path, merging over defaults. A missing
// file returns the defaults; a malformed file or an invalid threshold
// is an error, so the pipeline fails fast before any gate runs.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("reading config: %w", err)
	}

	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("parsing %s: %w", path, err)
	}

	merge(&cfg, &raw)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func merge(cfg *Config, raw *rawConfig) {
	if raw.Limits != nil {
		setInt(&cfg.Limits.MaxLinesChanged, raw.Limits.MaxLinesChanged)
		setInt(&cfg.Limits.MaxFilesChanged, raw.Limits.MaxFilesChanged)
	}
	if raw.Linting != nil {
		setBool(&cfg.Linting.Enabled, raw.Linting.Enabled)
		setString(&cfg.Linting.Tool, raw.Linting.Tool)
		setString(&cfg.Linting.FileSuffix, raw.Linting.FileSuffix)
		setBool(&cfg.Linting.FailOnError, raw.Linting.FailOnError)
		setInt(&cfg.Linting.FailThreshold, raw.Linting.FailThreshold)
	}
	if raw.Security != nil {
		setBool(&cfg.Security.Enabled, raw.Security.Enabled)
		setString(&cfg.Security.Tool, raw.Security.Tool)
		setString(&cfg.Security.FailOnSeverity, raw.Security.FailOnSeverity)
		setInt(&cfg.Security.MaxFindings, raw.Security.MaxFindings)
	}
	if raw.Dependencies != nil {
		setBool(&cfg.Dependencies.Enabled, raw.Dependencies.Enabled)
		setString(&cfg.Dependencies.Tool, raw.Dependencies.Tool)
		setBool(&cfg.Dependencies.FailOnVulnerability, raw.Dependencies.FailOnVulnerability)
	}
	if raw.Coverage != nil {
		setBool(&cfg.Coverage.Enabled, raw.Coverage.Enabled)
		setFloat(&cfg.Coverage.MinCoverage, raw.Coverage.MinCoverage)
		setBool(&cfg.Coverage.FailOnDecrease, raw.Coverage.FailOnDecrease)
		setString(&cfg.Coverage.ReportPath, raw.Coverage.ReportPath)
		setString(&cfg.Coverage.BaselinePath, raw.Coverage.BaselinePath)
	}
	if raw.Reasoning != nil {
		setString(&cfg.Reasoning.CapableModel, raw.Reasoning.CapableModel)
		setString(&cfg.Reasoning.CheapModel, raw.Reasoning.CheapModel)
		setInt(&cfg.Reasoning.SimpleThresholdLines, raw.Reasoning.SimpleThresholdLines)
		setInt(&cfg.Reasoning.MaxOutputTokens, raw.Reasoning.MaxOutputTokens)
		setFloat(&cfg.Reasoning.RetryTemperature, raw.Reasoning.RetryTemperature)
		setInt(&cfg.Reasoning.MaxAttempts, raw.Reasoning.MaxAttempts)
		setInt(&cfg.Reasoning.TimeoutSeconds, raw.Reasoning.TimeoutSeconds)
	}
	if raw.Confidence != nil {
		setFloat(&cfg.Confidence.High, raw.Confidence.High)
		setFloat(&cfg.Confidence.Low, raw.Confidence.Low)
	}
	if raw.Escalation != nil {
		setBool(&cfg.Escalation.Enabled, raw.Escalation.Enabled)
		setString(&cfg.Escalation.WebhookURL, raw.Escalation.WebhookURL)
		setBool(&cfg.Escalation.SlackFormat, raw.Escalation.SlackFormat)
		setFloat(&cfg.Escalation.TriggerBelowConfidence, raw.Escalation.TriggerBelowConfidence)
	}
	if raw.History != nil {
		setBool(&cfg.History.Enabled, raw.History.Enabled)
		setString(&cfg.History.Path, raw.History.Path)
	}
	if len(raw.Ignore) > 0 {
		cfg.Ignore = raw.Ignore
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setFloat(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}

// Validate checks that all thresholds are coherent.
func (c Config) Validate() error {
	if c.Limits.MaxLinesChanged <= 0 {
		return fmt.Errorf("limits.maxLinesChanged must be greater than 0")
	}
	if c.Limits.MaxFilesChanged <= 0 {
		return fmt.Errorf("limits.maxFilesChanged must be greater than 0")
	}
	if c.Linting.FailThreshold < 0 {
		return fmt.Errorf("linting.failThreshold must not be negative")
	}
	if c.Reasoning.MaxAttempts <= 0 {
		return fmt.Errorf("reasoning.maxAttempts must be greater than 0")
	}
	if c.Reasoning.MaxOutputTokens <= 0 {
		return fmt.Errorf("reasoning.maxOutputTokens must be greater than 0")
	}
	if c.Confidence.High < 0 || c.Confidence.High > 1 {
		return fmt.Errorf("confidence.high must be in [0,1]")
	}
	if c.Confidence.Low < 0 || c.Confidence.Low > 1 {
		return fmt.Errorf("confidence.low must be in [0,1]")
	}
	if c.Confidence.Low > c.Confidence.High {
		return fmt.Errorf("confidence.low must not exceed confidence.high")
	}
	if c.Coverage.MinCoverage < 0 || c.Coverage.MinCoverage > 100 {
		return fmt.Errorf("coverage.minCoverage must be in [0,100]")
	}
	return nil
}
