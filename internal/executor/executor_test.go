package executor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/revqlabs/revq/internal/classify"
	"github.com/revqlabs/revq/internal/config"
	"github.com/revqlabs/revq/internal/model"
	"github.com/revqlabs/revq/internal/provider"
	"github.com/revqlabs/revq/internal/review"
)

const validReviewJSON = `{
	"summary": "Solid change with one small gap in error handling.",
	"issues": [
		{"severity": "minor", "category": "logic", "file": "a.py", "line": 12,
		 "description": "missing nil check", "suggestion": "guard the lookup"}
	],
	"strengths": ["clear naming"],
	"concerns": [],
	"questions": []
}`

// scriptedProvider returns canned responses in order and records every
// request it receives.
type scriptedProvider struct {
	script   []func() (provider.Response, error)
	requests []provider.Request
}

func (s *scriptedProvider) Complete(_ context.Context, req provider.Request) (provider.Response, error) {
	s.requests = append(s.requests, req)
	i := len(s.requests) - 1
	if i >= len(s.script) {
		i = len(s.script) - 1
	}
	return s.script[i]()
}

func ok(content string) func() (provider.Response, error) {
	return func() (provider.Response, error) {
		return provider.Response{Content: content, TokensIn: 100, TokensOut: 50}, nil
	}
}

func fail(kind model.FailureKind) func() (provider.Response, error) {
	return func() (provider.Response, error) {
		return provider.Response{}, &model.FailureError{Kind: kind, Err: errors.New("canned")}
	}
}

func noSleep(t *testing.T) (func(context.Context, time.Duration) error, *[]time.Duration) {
	t.Helper()
	var delays []time.Duration
	return func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}, &delays
}

func capableClassification() classify.Classification {
	return classify.Classification{SuggestedModelTier: model.TierCapable}
}

func testInput() review.PromptInput {
	return review.PromptInput{Title: "change", Diff: "diff --git a/a.py b/a.py\n+x = 1"}
}

func TestRunSucceedsFirstAttempt(t *testing.T) {
	p := &scriptedProvider{script: []func() (provider.Response, error){ok(validReviewJSON)}}
	sleep, delays := noSleep(t)
	exec := NewWithSleep(p, sleep)

	out, err := exec.Run(context.Background(), testInput(), capableClassification(), config.Default())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Attempts != 1 || out.State != StateSucceeded {
		t.Errorf("attempts/state = %d/%s, want 1/succeeded", out.Attempts, out.State)
	}
	if len(*delays) != 0 {
		t.Errorf("slept %v on a first-attempt success", *delays)
	}
	if out.Result.TierUsed != model.TierCapable {
		t.Errorf("tier used = %v, want capable", out.Result.TierUsed)
	}
	if out.Result.CostUSD <= 0 {
		t.Error("cost estimate missing")
	}
}

func TestRunDowngradesTierAfterRateLimit(t *testing.T) {
	cfg := config.Default()
	p := &scriptedProvider{script: []func() (provider.Response, error){
		fail(model.FailureRateLimited),
		ok(validReviewJSON),
	}}
	sleep, delays := noSleep(t)
	exec := NewWithSleep(p, sleep)

	out, err := exec.Run(context.Background(), testInput(), capableClassification(), cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Attempts != 2 {
		t.Errorf("attempts = %d, want 2", out.Attempts)
	}
	if out.Strategy.ModelTier != model.TierCheap {
		t.Errorf("final tier = %v, want cheap after rate limit", out.Strategy.ModelTier)
	}
	if got := p.requests[1].Model; got != cfg.Reasoning.CheapModel {
		t.Errorf("second attempt model = %q, want %q", got, cfg.Reasoning.CheapModel)
	}
	if len(*delays) != 1 || (*delays)[0] != 1*time.Second {
		t.Errorf("delays = %v, want [1s]", *delays)
	}
}

func TestRunExhaustsAfterMaxAttempts(t *testing.T) {
	cfg := config.Default()
	cfg.Reasoning.MaxAttempts = 3

	p := &scriptedProvider{script: []func() (provider.Response, error){
		fail(model.FailureTransientAPI),
	}}
	sleep, _ := noSleep(t)
	exec := NewWithSleep(p, sleep)

	_, err := exec.Run(context.Background(), testInput(), capableClassification(), cfg)

	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("error = %v, want ExhaustedError", err)
	}
	if len(exhausted.Failures) != cfg.Reasoning.MaxAttempts {
		t.Errorf("failure list length = %d, want %d", len(exhausted.Failures), cfg.Reasoning.MaxAttempts)
	}
	for _, kind := range exhausted.Failures {
		if kind != model.FailureTransientAPI {
			t.Errorf("failure kind = %v, want transient_api_error", kind)
		}
	}
	if len(p.requests) != cfg.Reasoning.MaxAttempts {
		t.Errorf("provider called %d times, want %d", len(p.requests), cfg.Reasoning.MaxAttempts)
	}
}

func TestRunRaisesTemperatureAfterLowQuality(t *testing.T) {
	cfg := config.Default()
	p := &scriptedProvider{script: []func() (provider.Response, error){
		ok("this is not json at all"),
		ok(validReviewJSON),
	}}
	sleep, _ := noSleep(t)
	exec := NewWithSleep(p, sleep)

	out, err := exec.Run(context.Background(), testInput(), capableClassification(), cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Attempts != 2 {
		t.Errorf("attempts = %d, want 2", out.Attempts)
	}
	if got := p.requests[1].Temperature; got != cfg.Reasoning.RetryTemperature {
		t.Errorf("retry temperature = %v, want %v", got, cfg.Reasoning.RetryTemperature)
	}
}

func TestRunTreatsInvalidResultAsLowQuality(t *testing.T) {
	cfg := config.Default()
	cfg.Reasoning.MaxAttempts = 1

	// Parses fine but the summary is too short to be a real review.
	p := &scriptedProvider{script: []func() (provider.Response, error){
		ok(`{"summary": "ok", "issues": []}`),
	}}
	sleep, _ := noSleep(t)
	exec := NewWithSleep(p, sleep)

	_, err := exec.Run(context.Background(), testInput(), capableClassification(), cfg)

	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("error = %v, want ExhaustedError", err)
	}
	if exhausted.Failures[0] != model.FailureLowQuality {
		t.Errorf("failure kind = %v, want low_quality_response", exhausted.Failures[0])
	}
}

func TestRunSummarizesAfterContextTooLong(t *testing.T) {
	cfg := config.Default()
	p := &scriptedProvider{script: []func() (provider.Response, error){
		fail(model.FailureContextTooLong),
		ok("a compact summary of the diff"),
		ok(validReviewJSON),
	}}
	sleep, _ := noSleep(t)
	exec := NewWithSleep(p, sleep)

	out, err := exec.Run(context.Background(), testInput(), capableClassification(), cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !out.Strategy.SummarizeInput || !out.Strategy.ChunkInput {
		t.Errorf("final strategy = %+v, want summarize and chunk enabled", out.Strategy)
	}
	// Second call is the cheap-tier summarization, third the review.
	if got := p.requests[1].Model; got != cfg.Reasoning.CheapModel {
		t.Errorf("summarize model = %q, want %q", got, cfg.Reasoning.CheapModel)
	}
	if len(p.requests) != 3 {
		t.Errorf("provider called %d times, want 3", len(p.requests))
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &scriptedProvider{script: []func() (provider.Response, error){
		func() (provider.Response, error) { return provider.Response{}, context.Canceled },
	}}
	sleep, _ := noSleep(t)
	exec := NewWithSleep(p, sleep)

	_, err := exec.Run(ctx, testInput(), capableClassification(), config.Default())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestBackoff(t *testing.T) {
	want := []time.Duration{
		1 * time.Second, 2 * time.Second, 4 * time.Second,
		8 * time.Second, 16 * time.Second,
	}
	for attempt, expected := range want {
		if got := Backoff(attempt); got != expected {
			t.Errorf("Backoff(%d) = %v, want %v", attempt, got, expected)
		}
	}
	for _, attempt := range []int{5, 6, 10, 63} {
		if got := Backoff(attempt); got != 30*time.Second {
			t.Errorf("Backoff(%d) = %v, want the 30s ceiling", attempt, got)
		}
	}
}

func TestRetryContextImmutable(t *testing.T) {
	rc := RetryContext{MaxAttempts: 3}
	next := rc.WithFailure(model.FailureTimeout)

	if rc.Attempt != 0 || len(rc.ObservedFailures) != 0 {
		t.Errorf("original context mutated: %+v", rc)
	}
	if next.Attempt != 1 || len(next.ObservedFailures) != 1 {
		t.Errorf("next context = %+v, want attempt 1 with one failure", next)
	}

	third := next.WithFailure(model.FailureRateLimited)
	if len(next.ObservedFailures) != 1 {
		t.Errorf("intermediate context mutated: %+v", next)
	}
	if len(third.ObservedFailures) != 2 {
		t.Errorf("failure list = %v, want length 2", third.ObservedFailures)
	}
}
