package gate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/revqlabs/revq/internal/changeset"
	"github.com/revqlabs/revq/internal/config"
)

// SecurityFinding is one result from the external security scanner.
type SecurityFinding struct {
	File     string
	Line     int
	Severity string // low, medium, high
	TestID   string
	Message  string
}

// Scanner runs an external security scan over a set of files.
type Scanner interface {
	Scan(ctx context.Context, files []string) ([]SecurityFinding, error)
}

// SecurityGate scans changed files with the configured tool and fails
// when findings at or above the configured severity exceed the allowed
// count.
type SecurityGate struct {
	scanner Scanner
}

// NewSecurityGate builds a security gate backed by the configured tool.
func NewSecurityGate(cfg config.Config) *SecurityGate {
	return &SecurityGate{scanner: &banditScanner{tool: cfg.Security.Tool}}
}

// NewSecurityGateWith injects a Scanner, for tests.
func NewSecurityGateWith(s Scanner) *SecurityGate {
	return &SecurityGate{scanner: s}
}

func (*SecurityGate) Name() string { return "security-scan" }

func (g *SecurityGate) Check(ctx context.Context, cs *changeset.ChangeSet, cfg config.Config) Outcome {
	if !cfg.Security.Enabled {
		return Outcome{Passed: true, Reason: "security scan disabled"}
	}

	files := filterFiles(cs.Files, cfg.Linting.FileSuffix, cfg.Ignore)
	if len(files) == 0 {
		return Outcome{Passed: true, Reason: "no scannable files changed"}
	}

	findings, err := g.scanner.Scan(ctx, files)
	if err != nil {
		if errors.Is(err, ErrToolUnavailable) {
			return Outcome{
				Passed: true,
				Reason: fmt.Sprintf("%s not installed, security scan skipped", cfg.Security.Tool),
			}
		}
		return Outcome{
			Passed: true,
			Reason: fmt.Sprintf("security scan failed, check skipped: %v", err),
		}
	}

	threshold := scanSeverityRank(cfg.Security.FailOnSeverity)
	blocking := 0
	for _, f := range findings {
		if scanSeverityRank(f.Severity) >= threshold {
			blocking++
		}
	}

	metrics := map[string]float64{
		"findings":          float64(len(findings)),
		"blocking_findings": float64(blocking),
	}

	if blocking > cfg.Security.MaxFindings {
		return Outcome{
			Passed: false,
			Reason: fmt.Sprintf("%d security findings at or above %s severity (max %d)",
				blocking, cfg.Security.FailOnSeverity, cfg.Security.MaxFindings),
			Metrics:        metrics,
			Recommendation: "Resolve the flagged security findings before review",
		}
	}

	return Outcome{Passed: true, Metrics: metrics}
}

func scanSeverityRank(s string) int {
	switch strings.ToLower(s) {
	case "low":
		return 0
	case "medium":
		return 1
	case "high":
		return 2
	default:
		return 3
	}
}

// banditScanner shells out to bandit and parses its JSON report.
type banditScanner struct {
	tool string
}

type banditReport struct {
	Results []struct {
		Filename      string `json:"filename"`
		LineNumber    int    `json:"line_number"`
		IssueSeverity string `json:"issue_severity"`
		IssueText     string `json:"issue_text"`
		TestID        string `json:"test_id"`
	} `json:"results"`
}

func (s *banditScanner) Scan(ctx context.Context, files []string) ([]SecurityFinding, error) {
	if _, err := exec.LookPath(s.tool); err != nil {
		return nil, ErrToolUnavailable
	}

	args := append([]string{"-f", "json"}, files...)
	out, err := exec.CommandContext(ctx, s.tool, args...).Output()
	// bandit exits 1 when findings exist; parse stdout first.
	var report banditReport
	if jsonErr := json.Unmarshal(out, &report); jsonErr != nil {
		if err != nil {
			return nil, fmt.Errorf("running %s: %w", s.tool, err)
		}
		return nil, fmt.Errorf("parsing %s output: %w", s.tool, jsonErr)
	}

	findings := make([]SecurityFinding, 0, len(report.Results))
	for _, r := range report.Results {
		findings = append(findings, SecurityFinding{
			File:     r.Filename,
			Line:     r.LineNumber,
			Severity: strings.ToLower(r.IssueSeverity),
			TestID:   r.TestID,
			Message:  r.IssueText,
		})
	}
	return findings, nil
}
