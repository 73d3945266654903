package gate

import (
	"context"
	"strings"
	"testing"

	"github.com/revqlabs/revq/internal/changeset"
	"github.com/revqlabs/revq/internal/config"
)

// spyGate records whether it was invoked.
type spyGate struct {
	name   string
	passed bool
	called bool
}

func (s *spyGate) Name() string { return s.name }

func (s *spyGate) Check(context.Context, *changeset.ChangeSet, config.Config) Outcome {
	s.called = true
	return Outcome{Passed: s.passed, Reason: "spy"}
}

func TestChainShortCircuits(t *testing.T) {
	first := &spyGate{name: "first", passed: false}
	second := &spyGate{name: "second", passed: true}
	chain := NewChain(first, second)

	outcomes, passed := chain.Run(context.Background(), &changeset.ChangeSet{}, config.Default(), nil)

	if passed {
		t.Error("chain passed despite first gate failing")
	}
	if len(outcomes) != 1 {
		t.Fatalf("got %d outcomes, want 1", len(outcomes))
	}
	if second.called {
		t.Error("second gate ran after the first failed")
	}
}

func TestChainSkips(t *testing.T) {
	skipped := &spyGate{name: "optional", passed: false}
	chain := NewChain(skipped)

	outcomes, passed := chain.Run(context.Background(), &changeset.ChangeSet{}, config.Default(),
		map[string]bool{"optional": true})

	if !passed {
		t.Error("chain failed on a skipped gate")
	}
	if skipped.called {
		t.Error("skipped gate was invoked")
	}
	if outcomes[0].Reason != "skipped" {
		t.Errorf("reason = %q, want skipped", outcomes[0].Reason)
	}
}

func TestSizeGate(t *testing.T) {
	cfg := config.Default()
	cfg.Limits.MaxLinesChanged = 500
	cfg.Limits.MaxFilesChanged = 20

	manyFiles := func(n int) []string {
		files := make([]string, n)
		for i := range files {
			files[i] = "file.py"
		}
		return files
	}

	tests := []struct {
		name       string
		lines      int
		files      int
		wantPassed bool
	}{
		{"well under limits", 100, 3, true},
		{"exactly at line limit passes", 500, 3, true},
		{"one over line limit fails", 501, 3, false},
		{"exactly at file limit passes", 100, 20, true},
		{"one over file limit fails", 100, 21, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs := &changeset.ChangeSet{LinesAdded: tt.lines, Files: manyFiles(tt.files)}
			out := SizeGate{}.Check(context.Background(), cs, cfg)
			if out.Passed != tt.wantPassed {
				t.Errorf("passed = %v, want %v (reason: %s)", out.Passed, tt.wantPassed, out.Reason)
			}
			if !out.Passed && out.Recommendation == "" {
				t.Error("failed size gate carries no recommendation")
			}
		})
	}
}

// fakeLinter returns canned findings or a canned error.
type fakeLinter struct {
	findings []Finding
	err      error
}

func (f *fakeLinter) Lint(context.Context, []string) ([]Finding, error) {
	return f.findings, f.err
}

func TestLintGate(t *testing.T) {
	cfg := config.Default()
	cfg.Linting.FailThreshold = 3

	manyFindings := func(n int) []Finding {
		out := make([]Finding, n)
		for i := range out {
			out[i] = Finding{File: "a.py", Line: i + 1, Code: "E501", Message: "line too long"}
		}
		return out
	}

	cs := &changeset.ChangeSet{Files: []string{"a.py", "b.py", "README.md"}}

	tests := []struct {
		name       string
		linter     Linter
		wantPassed bool
	}{
		{"under threshold passes", &fakeLinter{findings: manyFindings(2)}, true},
		{"at threshold fails", &fakeLinter{findings: manyFindings(3)}, false},
		{"missing tool passes with warning", &fakeLinter{err: ErrToolUnavailable}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := NewLintGateWith(tt.linter).Check(context.Background(), cs, cfg)
			if out.Passed != tt.wantPassed {
				t.Errorf("passed = %v, want %v (reason: %s)", out.Passed, tt.wantPassed, out.Reason)
			}
		})
	}
}

func TestLintGateDisabledAlwaysPasses(t *testing.T) {
	cfg := config.Default()
	cfg.Linting.FailOnError = false
	cfg.Linting.FailThreshold = 1

	linter := &fakeLinter{findings: []Finding{{File: "a.py", Message: "bad"}}}
	cs := &changeset.ChangeSet{Files: []string{"a.py"}}

	if out := NewLintGateWith(linter).Check(context.Background(), cs, cfg); !out.Passed {
		t.Errorf("lint gate failed with failOnError disabled: %s", out.Reason)
	}
}

func TestLintGateNoLintableFiles(t *testing.T) {
	linter := &fakeLinter{findings: []Finding{{File: "a.go", Message: "bad"}}}
	cs := &changeset.ChangeSet{Files: []string{"main.go", "README.md"}}

	out := NewLintGateWith(linter).Check(context.Background(), cs, config.Default())
	if !out.Passed || !strings.Contains(out.Reason, "no lintable files") {
		t.Errorf("outcome = (%v, %q), want pass with no-files reason", out.Passed, out.Reason)
	}
}

type fakeScanner struct {
	findings []SecurityFinding
	err      error
}

func (f *fakeScanner) Scan(context.Context, []string) ([]SecurityFinding, error) {
	return f.findings, f.err
}

func TestSecurityGate(t *testing.T) {
	cfg := config.Default()
	cs := &changeset.ChangeSet{Files: []string{"a.py"}}

	tests := []struct {
		name       string
		scanner    Scanner
		wantPassed bool
	}{
		{
			"high finding blocks",
			&fakeScanner{findings: []SecurityFinding{{Severity: "high", Message: "exec used"}}},
			false,
		},
		{
			"low findings pass",
			&fakeScanner{findings: []SecurityFinding{{Severity: "low"}, {Severity: "medium"}}},
			true,
		},
		{
			"missing tool passes",
			&fakeScanner{err: ErrToolUnavailable},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := NewSecurityGateWith(tt.scanner).Check(context.Background(), cs, cfg)
			if out.Passed != tt.wantPassed {
				t.Errorf("passed = %v, want %v (reason: %s)", out.Passed, tt.wantPassed, out.Reason)
			}
		})
	}
}

func TestIgnorePatterns(t *testing.T) {
	files := []string{"gen/schema.py", "src/app.py", "vendor/lib.py"}
	got := filterFiles(files, ".py", []string{"gen/*", "vendor/"})
	if len(got) != 1 || got[0] != "src/app.py" {
		t.Errorf("filtered = %v, want [src/app.py]", got)
	}
}
