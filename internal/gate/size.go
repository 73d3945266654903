package gate

import (
	"context"
	"fmt"

	"github.com/revqlabs/revq/internal/changeset"
	"github.com/revqlabs/revq/internal/config"
)

// SizeGate rejects change-sets that exceed the configured line or file
// limits. Limits are inclusive ceilings: a change-set exactly at the
// limit passes.
type SizeGate struct{}

func (SizeGate) Name() string { return "size" }

func (SizeGate) Check(_ context.Context, cs *changeset.ChangeSet, cfg config.Config) Outcome {
	lines := cs.LinesChanged()
	files := cs.FilesChanged()

	metrics := map[string]float64{
		"lines_changed": float64(lines),
		"files_changed": float64(files),
	}

	if lines > cfg.Limits.MaxLinesChanged {
		return Outcome{
			Passed: false,
			Reason: fmt.Sprintf("change-set has %d changed lines, limit is %d",
				lines, cfg.Limits.MaxLinesChanged),
			Metrics:        metrics,
			Recommendation: "Split this change into smaller, focused change-sets",
		}
	}
	if files > cfg.Limits.MaxFilesChanged {
		return Outcome{
			Passed: false,
			Reason: fmt.Sprintf("change-set touches %d files, limit is %d",
				files, cfg.Limits.MaxFilesChanged),
			Metrics:        metrics,
			Recommendation: "Split this change into smaller, focused change-sets",
		}
	}

	return Outcome{Passed: true, Metrics: metrics}
}
