package gate

import (
	"context"
	"encoding/xml"
	"fmt"
	"os"

	"github.com/revqlabs/revq/internal/changeset"
	"github.com/revqlabs/revq/internal/config"
)

// CoverageGate reads a Cobertura-format coverage report and fails when
// line coverage is below the configured minimum. A missing or unreadable
// report is a pass-with-warning, like any other absent optional tool.
type CoverageGate struct{}

func (CoverageGate) Name() string { return "coverage" }

// coberturaReport holds the one attribute the gate cares about.
type coberturaReport struct {
	LineRate float64 `xml:"line-rate,attr"`
}

func (CoverageGate) Check(_ context.Context, _ *changeset.ChangeSet, cfg config.Config) Outcome {
	if !cfg.Coverage.Enabled {
		return Outcome{Passed: true, Reason: "coverage check disabled"}
	}

	percent, ok := readLineCoverage(cfg.Coverage.ReportPath)
	if !ok {
		return Outcome{
			Passed: true,
			Reason: fmt.Sprintf("coverage report %s not readable, check skipped", cfg.Coverage.ReportPath),
		}
	}

	metrics := map[string]float64{"line_coverage": percent}

	if percent < cfg.Coverage.MinCoverage {
		return Outcome{
			Passed: false,
			Reason: fmt.Sprintf("line coverage %.1f%% is below minimum %.1f%%",
				percent, cfg.Coverage.MinCoverage),
			Metrics:        metrics,
			Recommendation: "Add tests covering the changed code",
		}
	}

	if cfg.Coverage.FailOnDecrease && cfg.Coverage.BaselinePath != "" {
		if base, ok := readLineCoverage(cfg.Coverage.BaselinePath); ok {
			metrics["baseline_line_coverage"] = base
			if percent < base {
				return Outcome{
					Passed: false,
					Reason: fmt.Sprintf("line coverage %.1f%% decreased from baseline %.1f%%",
						percent, base),
					Metrics:        metrics,
					Recommendation: "Add tests covering the changed code",
				}
			}
		}
	}

	return Outcome{Passed: true, Metrics: metrics}
}

// readLineCoverage parses a Cobertura report into a line-coverage
// percentage. A missing or malformed report reads as absent.
func readLineCoverage(path string) (float64, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	var report coberturaReport
	if err := xml.Unmarshal(data, &report); err != nil {
		return 0, false
	}
	return report.LineRate * 100, true
}
