package gate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/revqlabs/revq/internal/changeset"
	"github.com/revqlabs/revq/internal/config"
)

// ErrToolUnavailable reports that an external tool binary could not be
// found. Gates treat this as pass-with-warning, never a hard failure.
var ErrToolUnavailable = errors.New("tool unavailable")

// Finding is one structured result from an external lint tool.
type Finding struct {
	File    string
	Line    int
	Column  int
	Code    string
	Message string
}

// Linter runs an external lint tool over a set of files.
type Linter interface {
	Lint(ctx context.Context, files []string) ([]Finding, error)
}

// LintGate runs the configured linter over changed files of the linted
// file type and thresholds the finding count.
type LintGate struct {
	linter Linter
}

// NewLintGate builds a lint gate backed by the configured external tool.
func NewLintGate(cfg config.Config) *LintGate {
	return &LintGate{linter: &ruffLinter{tool: cfg.Linting.Tool}}
}

// NewLintGateWith injects a Linter, for tests.
func NewLintGateWith(l Linter) *LintGate {
	return &LintGate{linter: l}
}

func (*LintGate) Name() string { return "lint" }

func (g *LintGate) Check(ctx context.Context, cs *changeset.ChangeSet, cfg config.Config) Outcome {
	if !cfg.Linting.Enabled {
		return Outcome{Passed: true, Reason: "linting disabled"}
	}

	files := filterFiles(cs.Files, cfg.Linting.FileSuffix, cfg.Ignore)
	if len(files) == 0 {
		return Outcome{Passed: true, Reason: "no lintable files changed"}
	}

	findings, err := g.linter.Lint(ctx, files)
	if err != nil {
		if errors.Is(err, ErrToolUnavailable) {
			return Outcome{
				Passed: true,
				Reason: fmt.Sprintf("%s not installed, lint check skipped", cfg.Linting.Tool),
			}
		}
		// A broken lint run must not block review entirely.
		return Outcome{
			Passed: true,
			Reason: fmt.Sprintf("lint run failed, check skipped: %v", err),
		}
	}

	metrics := map[string]float64{
		"findings":      float64(len(findings)),
		"files_checked": float64(len(files)),
	}

	if cfg.Linting.FailOnError && len(findings) >= cfg.Linting.FailThreshold {
		return Outcome{
			Passed: false,
			Reason: fmt.Sprintf("%d lint findings, threshold is %d",
				len(findings), cfg.Linting.FailThreshold),
			Metrics:        metrics,
			Recommendation: "Fix lint findings before requesting review",
		}
	}

	return Outcome{Passed: true, Metrics: metrics}
}

// filterFiles keeps files with the linted suffix that do not match any
// ignore pattern.
func filterFiles(files []string, suffix string, ignore []string) []string {
	var out []string
	for _, f := range files {
		if suffix != "" && !strings.HasSuffix(f, suffix) {
			continue
		}
		if ignored(f, ignore) {
			continue
		}
		out = append(out, f)
	}
	return out
}

func ignored(path string, patterns []string) bool {
	for _, p := range patterns {
		if ok, _ := filepath.Match(p, path); ok {
			return true
		}
		if ok, _ := filepath.Match(p, filepath.Base(path)); ok {
			return true
		}
		if strings.HasSuffix(p, "/") && strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// ruffLinter shells out to ruff and parses its JSON report.
type ruffLinter struct {
	tool string
}

type ruffFinding struct {
	Filename string `json:"filename"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Location struct {
		Row    int `json:"row"`
		Column int `json:"column"`
	} `json:"location"`
}

func (l *ruffLinter) Lint(ctx context.Context, files []string) ([]Finding, error) {
	if _, err := exec.LookPath(l.tool); err != nil {
		return nil, ErrToolUnavailable
	}

	args := append([]string{"check", "--output-format", "json"}, files...)
	out, err := exec.CommandContext(ctx, l.tool, args...).Output()
	// ruff exits 1 when findings exist; the JSON report is still on
	// stdout, so parse before deciding the run failed.
	var parsed []ruffFinding
	if jsonErr := json.Unmarshal(out, &parsed); jsonErr != nil {
		if err != nil {
			return nil, fmt.Errorf("running %s: %w", l.tool, err)
		}
		return nil, fmt.Errorf("parsing %s output: %w", l.tool, jsonErr)
	}

	findings := make([]Finding, 0, len(parsed))
	for _, f := range parsed {
		findings = append(findings, Finding{
			File:    f.Filename,
			Line:    f.Location.Row,
			Column:  f.Location.Column,
			Code:    f.Code,
			Message: f.Message,
		})
	}
	return findings, nil
}
