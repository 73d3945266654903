// Package gate implements the deterministic pre-review checks that can
// reject a change-set before any reasoning call is made.
//
// Gates run cheapest-first and the chain short-circuits on the first
// failure, so a change-set that is too large never pays for a lint
// subprocess, and one that fails lint never pays for a reasoning call.
package gate

import (
	"context"

	"github.com/revqlabs/revq/internal/changeset"
	"github.com/revqlabs/revq/internal/config"
)

// Outcome is the result of one gate invocation.
type Outcome struct {
	Passed         bool
	Reason         string
	Metrics        map[string]float64
	Recommendation string
}

// Gate is a deterministic check over a change-set. Implementations must
// be side-effect free except for invoking a declared external tool.
type Gate interface {
	Name() string
	Check(ctx context.Context, cs *changeset.ChangeSet, cfg config.Config) Outcome
}

// StageOutcome pairs a gate's name with its outcome.
type StageOutcome struct {
	Gate string
	Outcome
}

// Chain runs gates strictly in order, stopping at the first failure.
type Chain struct {
	gates []Gate
}

// NewChain builds a chain over the given gates in order.
func NewChain(gates ...Gate) *Chain {
	return &Chain{gates: gates}
}

// Run executes each gate in order until one fails or the context is
// cancelled. Gates named in skip are recorded as skipped and never
// invoked. The second return is false as soon as any gate fails.
func (c *Chain) Run(ctx context.Context, cs *changeset.ChangeSet, cfg config.Config, skip map[string]bool) ([]StageOutcome, bool) {
	outcomes := make([]StageOutcome, 0, len(c.gates))

	for _, g := range c.gates {
		if err := ctx.Err(); err != nil {
			outcomes = append(outcomes, StageOutcome{
				Gate:    g.Name(),
				Outcome: Outcome{Passed: false, Reason: "cancelled: " + err.Error()},
			})
			return outcomes, false
		}
		if skip[g.Name()] {
			outcomes = append(outcomes, StageOutcome{
				Gate:    g.Name(),
				Outcome: Outcome{Passed: true, Reason: "skipped"},
			})
			continue
		}

		out := g.Check(ctx, cs, cfg)
		outcomes = append(outcomes, StageOutcome{Gate: g.Name(), Outcome: out})
		if !out.Passed {
			return outcomes, false
		}
	}
	return outcomes, true
}
