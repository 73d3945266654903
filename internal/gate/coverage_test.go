package gate

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/revqlabs/revq/internal/changeset"
	"github.com/revqlabs/revq/internal/config"
)

func writeCoverageReport(t *testing.T, lineRate string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "coverage.xml")
	content := `<?xml version="1.0"?><coverage line-rate="` + lineRate + `" branch-rate="0.5"></coverage>`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCoverageGate(t *testing.T) {
	cs := &changeset.ChangeSet{Files: []string{"a.py"}}

	tests := []struct {
		name       string
		lineRate   string
		minPercent float64
		wantPassed bool
	}{
		{"above minimum passes", "0.92", 80, true},
		{"below minimum fails", "0.60", 80, false},
		{"exactly at minimum passes", "0.80", 80, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Coverage.Enabled = true
			cfg.Coverage.MinCoverage = tt.minPercent
			cfg.Coverage.ReportPath = writeCoverageReport(t, tt.lineRate)

			out := CoverageGate{}.Check(context.Background(), cs, cfg)
			if out.Passed != tt.wantPassed {
				t.Errorf("passed = %v, want %v (reason: %s)", out.Passed, tt.wantPassed, out.Reason)
			}
		})
	}
}

func TestCoverageGateFailsOnDecrease(t *testing.T) {
	cfg := config.Default()
	cfg.Coverage.Enabled = true
	cfg.Coverage.MinCoverage = 50
	cfg.Coverage.FailOnDecrease = true
	cfg.Coverage.ReportPath = writeCoverageReport(t, "0.70")
	cfg.Coverage.BaselinePath = writeCoverageReport(t, "0.85")

	out := CoverageGate{}.Check(context.Background(), &changeset.ChangeSet{}, cfg)
	if out.Passed {
		t.Error("coverage decrease passed the gate")
	}
	if !strings.Contains(out.Reason, "decreased") {
		t.Errorf("reason = %q, want a decrease explanation", out.Reason)
	}
}

func TestCoverageGateDecreaseNeedsBaseline(t *testing.T) {
	cfg := config.Default()
	cfg.Coverage.Enabled = true
	cfg.Coverage.MinCoverage = 50
	cfg.Coverage.FailOnDecrease = true
	cfg.Coverage.ReportPath = writeCoverageReport(t, "0.70")

	out := CoverageGate{}.Check(context.Background(), &changeset.ChangeSet{}, cfg)
	if !out.Passed {
		t.Errorf("no baseline failed the gate: %s", out.Reason)
	}
}

func TestCoverageGateMissingReportPasses(t *testing.T) {
	cfg := config.Default()
	cfg.Coverage.Enabled = true
	cfg.Coverage.ReportPath = filepath.Join(t.TempDir(), "nope.xml")

	out := CoverageGate{}.Check(context.Background(), &changeset.ChangeSet{}, cfg)
	if !out.Passed {
		t.Errorf("missing report failed the gate: %s", out.Reason)
	}
}

func TestCoverageGateDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.Coverage.Enabled = false

	out := CoverageGate{}.Check(context.Background(), &changeset.ChangeSet{}, cfg)
	if !out.Passed {
		t.Error("disabled coverage gate failed")
	}
}
