package gate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/revqlabs/revq/internal/changeset"
	"github.com/revqlabs/revq/internal/config"
)

// Vulnerability is one known advisory against an installed package.
type Vulnerability struct {
	Package  string
	Version  string
	Advisory string
}

// Auditor checks installed dependencies for known vulnerabilities.
type Auditor interface {
	Audit(ctx context.Context) ([]Vulnerability, error)
}

// DependencyGate flags newly added dependencies with known advisories.
// It only acts when the diff touches a dependency manifest; a change
// that adds no packages always passes.
type DependencyGate struct {
	auditor Auditor
}

// NewDependencyGate builds the gate backed by the configured audit tool.
func NewDependencyGate(cfg config.Config) *DependencyGate {
	return &DependencyGate{auditor: &pipAuditor{tool: cfg.Dependencies.Tool}}
}

// NewDependencyGateWith injects an Auditor, for tests.
func NewDependencyGateWith(a Auditor) *DependencyGate {
	return &DependencyGate{auditor: a}
}

func (*DependencyGate) Name() string { return "dependency-audit" }

func (g *DependencyGate) Check(ctx context.Context, cs *changeset.ChangeSet, cfg config.Config) Outcome {
	if !cfg.Dependencies.Enabled {
		return Outcome{Passed: true, Reason: "dependency audit disabled"}
	}

	newDeps := newDependencies(cs.Diff)
	if len(newDeps) == 0 {
		return Outcome{Passed: true, Reason: "no new dependencies"}
	}

	vulns, err := g.auditor.Audit(ctx)
	if err != nil {
		if errors.Is(err, ErrToolUnavailable) {
			return Outcome{
				Passed: true,
				Reason: fmt.Sprintf("%s not installed, dependency audit skipped", cfg.Dependencies.Tool),
			}
		}
		return Outcome{
			Passed: true,
			Reason: fmt.Sprintf("dependency audit failed, check skipped: %v", err),
		}
	}

	added := make(map[string]bool, len(newDeps))
	for _, d := range newDeps {
		added[strings.ToLower(d)] = true
	}
	var flagged []Vulnerability
	for _, v := range vulns {
		if added[strings.ToLower(v.Package)] {
			flagged = append(flagged, v)
		}
	}

	metrics := map[string]float64{
		"new_dependencies":        float64(len(newDeps)),
		"vulnerable_dependencies": float64(len(flagged)),
	}

	if cfg.Dependencies.FailOnVulnerability && len(flagged) > 0 {
		names := make([]string, 0, len(flagged))
		seen := map[string]bool{}
		for _, v := range flagged {
			if !seen[v.Package] {
				seen[v.Package] = true
				names = append(names, v.Package)
			}
		}
		return Outcome{
			Passed: false,
			Reason: fmt.Sprintf("new dependencies have known vulnerabilities: %s",
				strings.Join(names, ", ")),
			Metrics:        metrics,
			Recommendation: "Update to patched versions or choose alternative packages",
		}
	}

	return Outcome{Passed: true, Metrics: metrics}
}

var (
	tomlDepRe = regexp.MustCompile(`^["']\s*([A-Za-z0-9_.-]+)`)
	reqDepRe  = regexp.MustCompile(`^([A-Za-z0-9_.-]+)\s*[><=!~]`)
)

type manifestKind int

const (
	manifestNone manifestKind = iota
	manifestToml
	manifestRequirements
)

// newDependencies extracts package names from added lines in dependency
// manifests. Lines in other files never count, so version comparisons
// in code are not mistaken for package specs. TOML manifests only
// contribute entries inside a dependencies table.
func newDependencies(diff string) []string {
	var deps []string
	seen := map[string]bool{}
	kind := manifestNone
	inDepsTable := false

	for _, raw := range strings.Split(diff, "\n") {
		if strings.HasPrefix(raw, "+++ ") {
			path := strings.TrimPrefix(strings.TrimPrefix(raw, "+++ "), "b/")
			kind = manifestKindOf(path)
			inDepsTable = false
			continue
		}
		if kind == manifestNone {
			continue
		}

		content := strings.TrimSpace(strings.TrimPrefix(raw, "+"))
		if kind == manifestToml {
			if strings.Contains(content, "dependencies]") {
				inDepsTable = true
				continue
			}
			if strings.HasPrefix(content, "[") {
				inDepsTable = false
				continue
			}
		}

		if !strings.HasPrefix(raw, "+") || strings.HasPrefix(raw, "+++") {
			continue
		}
		if content == "" || strings.HasPrefix(content, "#") {
			continue
		}

		var name string
		switch {
		case kind == manifestToml && inDepsTable:
			if m := tomlDepRe.FindStringSubmatch(content); m != nil {
				name = m[1]
			}
		case kind == manifestRequirements:
			if m := reqDepRe.FindStringSubmatch(content); m != nil {
				name = m[1]
			}
		}
		if name != "" && !seen[name] {
			seen[name] = true
			deps = append(deps, name)
		}
	}
	return deps
}

func manifestKindOf(path string) manifestKind {
	base := filepath.Base(path)
	switch {
	case base == "pyproject.toml", base == "Pipfile":
		return manifestToml
	case strings.HasPrefix(base, "requirements") && strings.HasSuffix(base, ".txt"):
		return manifestRequirements
	default:
		return manifestNone
	}
}

// pipAuditor shells out to pip-audit and parses its JSON report.
type pipAuditor struct {
	tool string
}

type pipAuditReport struct {
	Dependencies []struct {
		Name    string `json:"name"`
		Version string `json:"version"`
		Vulns   []struct {
			ID string `json:"id"`
		} `json:"vulns"`
	} `json:"dependencies"`
}

func (a *pipAuditor) Audit(ctx context.Context) ([]Vulnerability, error) {
	if _, err := exec.LookPath(a.tool); err != nil {
		return nil, ErrToolUnavailable
	}

	out, err := exec.CommandContext(ctx, a.tool, "--format=json", "--progress-spinner=off").Output()
	// pip-audit exits non-zero when vulnerabilities exist; the JSON
	// report is still on stdout, so parse before deciding the run failed.
	var report pipAuditReport
	if jsonErr := json.Unmarshal(out, &report); jsonErr != nil {
		if err != nil {
			return nil, fmt.Errorf("running %s: %w", a.tool, err)
		}
		return nil, fmt.Errorf("parsing %s output: %w", a.tool, jsonErr)
	}

	var vulns []Vulnerability
	for _, dep := range report.Dependencies {
		for _, v := range dep.Vulns {
			vulns = append(vulns, Vulnerability{
				Package:  dep.Name,
				Version:  dep.Version,
				Advisory: v.ID,
			})
		}
	}
	return vulns, nil
}
