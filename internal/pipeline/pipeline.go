// Package pipeline sequences the review stages: gate chain, classifier,
// strategy selection, adaptive execution, and confidence scoring. The
// chain short-circuits on gate failure so unreviewable input never
// pays for a reasoning call.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/revqlabs/revq/internal/changeset"
	"github.com/revqlabs/revq/internal/classify"
	"github.com/revqlabs/revq/internal/confidence"
	"github.com/revqlabs/revq/internal/config"
	"github.com/revqlabs/revq/internal/executor"
	"github.com/revqlabs/revq/internal/gate"
	"github.com/revqlabs/revq/internal/model"
	"github.com/revqlabs/revq/internal/review"
	"github.com/revqlabs/revq/internal/sanitize"
	"github.com/revqlabs/revq/internal/strategy"
)

// Status of a finished pipeline run.
type Status string

const (
	// StatusGated: a gate rejected the change-set before any reasoning.
	StatusGated Status = "gated"
	// StatusCompleted: review ran and produced a confidence verdict.
	StatusCompleted Status = "completed"
	// StatusGatesOnly: gates and classification ran without a reasoning
	// call, the deepest degradation level.
	StatusGatesOnly Status = "gates_only"
	// StatusFailed: every reasoning attempt was exhausted.
	StatusFailed Status = "failed"
)

// Mode is the degradation level the pipeline operates at.
type Mode string

const (
	// ModeFull uses the classifier's suggested model tier.
	ModeFull Mode = "full"
	// ModeReduced forces the cheap tier for every reasoning call.
	ModeReduced Mode = "reduced"
	// ModeGatesOnly runs gates and classification without reasoning.
	ModeGatesOnly Mode = "gates_only"
)

// Outcome is the uniform record a run returns to its caller. Exactly
// one of the stage groups is populated depending on Status.
type Outcome struct {
	ChangeSet *changeset.ChangeSet
	Status    Status
	Mode      Mode

	Gates      []gate.StageOutcome
	FailedGate string

	Sanitization sanitize.Result

	Classification *classify.Classification
	Strategy       *strategy.Strategy
	Review         *review.Result
	Confidence     *confidence.Result
	Attempts       int

	Reason   string
	Duration time.Duration
}

// HistorySource supplies past-review context for the prompt. A nil
// source means no history is available.
type HistorySource interface {
	Summary(ctx context.Context, cs *changeset.ChangeSet) (string, error)
}

// Pipeline orchestrates one review run per change-set. It holds no
// cross-run state: every Run is independent.
type Pipeline struct {
	cfg      config.Config
	mode     Mode
	preGates *gate.Chain
	ctxGates *gate.Chain
	exec     *executor.Executor
	history  HistorySource
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithMode sets the degradation level.
func WithMode(m Mode) Option {
	return func(p *Pipeline) { p.mode = m }
}

// WithHistory attaches a past-review source.
func WithHistory(h HistorySource) Option {
	return func(p *Pipeline) { p.history = h }
}

// WithGates overrides the two gate chains, for tests. pre runs before
// classification, ctx runs after it with the classifier's skip set.
func WithGates(pre, ctx *gate.Chain) Option {
	return func(p *Pipeline) {
		p.preGates = pre
		p.ctxGates = ctx
	}
}

// New builds a pipeline. exec may be nil only in gates-only mode.
func New(cfg config.Config, exec *executor.Executor, opts ...Option) *Pipeline {
	gateTimeout := time.Duration(cfg.Reasoning.TimeoutSeconds) * time.Second

	p := &Pipeline{
		cfg:  cfg,
		mode: ModeFull,
		preGates: gate.NewChain(
			gate.SizeGate{},
			gate.WithTimeout(gate.NewLintGate(cfg), gateTimeout),
		),
		ctxGates: gate.NewChain(
			gate.WithTimeout(gate.NewSecurityGate(cfg), gateTimeout),
			gate.WithTimeout(gate.NewDependencyGate(cfg), gateTimeout),
			gate.CoverageGate{},
		),
		exec: exec,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run takes one change-set through the full stage chain and always
// returns a complete Outcome; gate rejections and exhausted retries are
// reported as outcomes, never as errors. The only error Run itself
// returns is context cancellation.
func (p *Pipeline) Run(ctx context.Context, cs *changeset.ChangeSet) (*Outcome, error) {
	start := time.Now()
	out := &Outcome{ChangeSet: cs, Mode: p.mode}

	defer func() { out.Duration = time.Since(start) }()

	// Neutralize injection attempts before the diff reaches any prompt.
	out.Sanitization = sanitize.Diff(cs.Diff)
	cleaned := *cs
	cleaned.Diff = out.Sanitization.Diff

	gates, passed := p.preGates.Run(ctx, &cleaned, p.cfg, nil)
	out.Gates = gates
	if !passed {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return p.gated(out), nil
	}

	cls := classify.Classify(&cleaned)
	out.Classification = &cls

	ctxOutcomes, passed := p.ctxGates.Run(ctx, &cleaned, p.cfg, skipSet(cls))
	out.Gates = append(out.Gates, ctxOutcomes...)
	if !passed {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return p.gated(out), nil
	}

	if p.mode == ModeGatesOnly || p.exec == nil {
		out.Status = StatusGatesOnly
		out.Reason = "reasoning disabled, gates and classification only"
		return out, nil
	}

	execCls := cls
	if p.mode == ModeReduced {
		execCls.SuggestedModelTier = model.TierCheap
	}

	in := review.PromptInput{
		Title:       cleaned.Title,
		Description: cleaned.Description,
		Diff:        cleaned.Diff,
		FocusAreas:  cls.FocusAreas,
		History:     p.historySummary(ctx, cs),
	}

	execOut, err := p.exec.Run(ctx, in, execCls, p.cfg)

	var exhausted *executor.ExhaustedError
	if errors.As(err, &exhausted) && p.mode == ModeFull {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// Degradation ladder: after exhausting the suggested tier, one
		// cheap-tier pass before giving up on reasoning entirely.
		out.Mode = ModeReduced
		out.Attempts = len(exhausted.Failures)

		reducedCls := cls
		reducedCls.SuggestedModelTier = model.TierCheap
		reducedCfg := p.cfg
		reducedCfg.Reasoning.MaxAttempts = 1

		execOut, err = p.exec.Run(ctx, in, reducedCls, reducedCfg)
	}

	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.As(err, &exhausted) {
			out.Attempts += len(exhausted.Failures)
			out.Reason = exhausted.Error()
			if out.Mode == ModeReduced && p.mode == ModeFull {
				// The ladder bottomed out. Report gates and
				// classification, never a guessed confidence.
				out.Mode = ModeGatesOnly
				out.Status = StatusGatesOnly
				return out, nil
			}
			out.Status = StatusFailed
			return out, nil
		}
		// Non-retryable provider error, e.g. bad credentials.
		out.Status = StatusFailed
		out.Reason = err.Error()
		return out, nil
	}

	conf := confidence.Score(execOut.Result, p.cfg.Confidence)

	out.Status = StatusCompleted
	out.Strategy = &execOut.Strategy
	out.Review = execOut.Result
	out.Confidence = &conf
	out.Attempts += execOut.Attempts
	return out, nil
}

func (p *Pipeline) gated(out *Outcome) *Outcome {
	last := out.Gates[len(out.Gates)-1]
	out.Status = StatusGated
	out.FailedGate = last.Gate
	out.Reason = last.Reason
	return out
}

// skipSet resolves the classifier's stage recommendations: a stage is
// skipped unless it is explicitly forced to run.
func skipSet(cls classify.Classification) map[string]bool {
	skip := make(map[string]bool, len(cls.StagesToSkip))
	for name := range cls.StagesToSkip {
		if !cls.StagesToRun[name] {
			skip[name] = true
		}
	}
	return skip
}

// historySummary is best-effort: an unavailable history store never
// blocks a review.
func (p *Pipeline) historySummary(ctx context.Context, cs *changeset.ChangeSet) string {
	if p.history == nil {
		return ""
	}
	summary, err := p.history.Summary(ctx, cs)
	if err != nil {
		return ""
	}
	return summary
}
