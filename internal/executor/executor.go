// Package executor runs the reasoning call under failure-aware
// adaptive retry. Each failed attempt mutates the next attempt's
// strategy through the selector rather than blindly repeating.
package executor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/revqlabs/revq/internal/classify"
	"github.com/revqlabs/revq/internal/config"
	"github.com/revqlabs/revq/internal/model"
	"github.com/revqlabs/revq/internal/provider"
	"github.com/revqlabs/revq/internal/review"
	"github.com/revqlabs/revq/internal/strategy"
)

// State of one executor run.
type State string

const (
	StateIdle       State = "idle"
	StateAttempting State = "attempting"
	StateRetrying   State = "retrying"
	StateSucceeded  State = "succeeded"
	StateExhausted  State = "exhausted"
)

// RetryContext is the immutable per-run retry state. Transitions
// produce a new value; the failure list never shrinks within a run.
type RetryContext struct {
	Attempt          int
	MaxAttempts      int
	ObservedFailures []model.FailureKind
}

// WithFailure returns a new context with the failure appended and the
// attempt counter advanced.
func (rc RetryContext) WithFailure(kind model.FailureKind) RetryContext {
	failures := make([]model.FailureKind, len(rc.ObservedFailures), len(rc.ObservedFailures)+1)
	copy(failures, rc.ObservedFailures)
	return RetryContext{
		Attempt:          rc.Attempt + 1,
		MaxAttempts:      rc.MaxAttempts,
		ObservedFailures: append(failures, kind),
	}
}

// ExhaustedError reports that every attempt failed. It carries the full
// observed failure list for diagnostics, never a partial result.
type ExhaustedError struct {
	Failures []model.FailureKind
}

func (e *ExhaustedError) Error() string {
	kinds := make([]string, len(e.Failures))
	for i, k := range e.Failures {
		kinds[i] = string(k)
	}
	return fmt.Sprintf("review exhausted after %d attempts: %s",
		len(e.Failures), strings.Join(kinds, ", "))
}

// Outcome is a successful executor run: the validated result plus the
// strategy that finally produced it.
type Outcome struct {
	Result   *review.Result
	Strategy strategy.Strategy
	Attempts int
	State    State
}

// Executor drives the attempt/retry state machine.
type Executor struct {
	provider provider.Provider
	sleep    func(ctx context.Context, d time.Duration) error
}

// New builds an executor over a reasoning provider.
func New(p provider.Provider) *Executor {
	return &Executor{provider: p, sleep: sleepCtx}
}

// NewWithSleep injects the backoff sleeper, for tests.
func NewWithSleep(p provider.Provider, sleep func(context.Context, time.Duration) error) *Executor {
	return &Executor{provider: p, sleep: sleep}
}

// Backoff returns the delay before the attempt after the given one:
// exponential with a 30 second ceiling.
func Backoff(attempt int) time.Duration {
	if attempt >= 5 {
		return 30 * time.Second
	}
	d := time.Duration(1<<attempt) * time.Second
	if d > 30*time.Second {
		return 30 * time.Second
	}
	return d
}

// Run executes the review under adaptive retry. Each attempt's strategy
// is recomputed from the failures observed so far; validation failures
// count as low_quality_response. After max attempts without a valid
// result, Run returns an ExhaustedError.
func (e *Executor) Run(ctx context.Context, in review.PromptInput, cls classify.Classification, cfg config.Config) (*Outcome, error) {
	rc := RetryContext{MaxAttempts: cfg.Reasoning.MaxAttempts}

	for {
		strat := strategy.Select(cls, rc.ObservedFailures, cfg)

		result, err := e.attempt(ctx, in, strat, cfg)
		if err == nil && review.Valid(result) {
			return &Outcome{
				Result:   result,
				Strategy: strat,
				Attempts: rc.Attempt + 1,
				State:    StateSucceeded,
			}, nil
		}

		kind := model.FailureLowQuality
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			kind = model.ClassifyFailure(err)
		}

		delay := Backoff(rc.Attempt)
		rc = rc.WithFailure(kind)

		if rc.Attempt >= rc.MaxAttempts {
			return nil, &ExhaustedError{Failures: rc.ObservedFailures}
		}
		if err := e.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

// attempt runs one reasoning call under the given strategy, including
// any input summarization or chunking the strategy enables.
func (e *Executor) attempt(ctx context.Context, in review.PromptInput, strat strategy.Strategy, cfg config.Config) (*review.Result, error) {
	inputs := []review.PromptInput{in}

	if strat.SummarizeInput {
		if summary, err := e.summarize(ctx, in.Diff, cfg); err == nil {
			condensed := in
			condensed.Diff = summary
			inputs = []review.PromptInput{condensed}
		} else if strat.ChunkInput {
			inputs = chunkInputs(in)
		}
	} else if strat.ChunkInput {
		inputs = chunkInputs(in)
	}

	results := make([]*review.Result, 0, len(inputs))
	for _, chunk := range inputs {
		r, err := e.reviewOne(ctx, chunk, strat, cfg)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return review.Merge(results), nil
}

func (e *Executor) reviewOne(ctx context.Context, in review.PromptInput, strat strategy.Strategy, cfg config.Config) (*review.Result, error) {
	modelName := strat.Model(cfg)

	resp, err := e.provider.Complete(ctx, provider.Request{
		Model:       modelName,
		System:      review.SystemPrompt,
		User:        review.BuildUserPrompt(in),
		MaxTokens:   strat.MaxOutputTokens,
		Temperature: strat.Temperature,
	})
	if err != nil {
		return nil, err
	}

	result, err := review.Parse(resp.Content)
	if err != nil {
		return nil, &model.FailureError{Kind: model.FailureLowQuality, Err: err}
	}

	result.TokensIn = resp.TokensIn
	result.TokensOut = resp.TokensOut
	result.TierUsed = strat.ModelTier
	result.ModelUsed = modelName
	result.CostUSD = provider.EstimateCost(modelName, resp.TokensIn, resp.TokensOut)
	return result, nil
}

// summarize condenses an oversized diff with a cheap-tier call.
func (e *Executor) summarize(ctx context.Context, diff string, cfg config.Config) (string, error) {
	resp, err := e.provider.Complete(ctx, provider.Request{
		Model:     cfg.Reasoning.CheapModel,
		User:      review.SummarizePrompt(diff),
		MaxTokens: cfg.Reasoning.MaxOutputTokens,
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(resp.Content) == "" {
		return "", fmt.Errorf("empty summary response")
	}
	return resp.Content, nil
}

func chunkInputs(in review.PromptInput) []review.PromptInput {
	chunks := review.SplitDiff(in.Diff, review.DefaultChunkLines)
	if len(chunks) == 0 {
		return []review.PromptInput{in}
	}
	inputs := make([]review.PromptInput, len(chunks))
	for i, c := range chunks {
		part := in
		part.Title = fmt.Sprintf("%s (part %d/%d)", in.Title, c.Index+1, c.TotalChunks)
		part.Diff = c.Content
		inputs[i] = part
	}
	return inputs
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
