package confidence

import (
	"math"
	"testing"

	"github.com/revqlabs/revq/internal/config"
	"github.com/revqlabs/revq/internal/model"
	"github.com/revqlabs/revq/internal/review"
)

var defaultThresholds = config.Confidence{High: 0.8, Low: 0.5}

func issues(severities ...model.Severity) []review.Issue {
	out := make([]review.Issue, len(severities))
	for i, s := range severities {
		out[i] = review.Issue{Severity: s, Description: "finding"}
	}
	return out
}

func TestScore(t *testing.T) {
	tests := []struct {
		name       string
		result     review.Result
		wantScore  float64
		wantLevel  Level
		wantAction Recommendation
	}{
		{
			name:       "clean review clamps to one",
			result:     review.Result{Strengths: []string{"clear naming"}},
			wantScore:  1.0,
			wantLevel:  LevelHigh,
			wantAction: AutoAccept,
		},
		{
			name:       "one critical lands in the comment band",
			result:     review.Result{Issues: issues(model.SeverityCritical)},
			wantScore:  0.60,
			wantLevel:  LevelMedium,
			wantAction: CommentOnly,
		},
		{
			name:       "two criticals escalate",
			result:     review.Result{Issues: issues(model.SeverityCritical, model.SeverityCritical)},
			wantScore:  0.20,
			wantLevel:  LevelLow,
			wantAction: Escalate,
		},
		{
			name:      "major and minor penalties stack",
			result:    review.Result{Issues: issues(model.SeverityMajor, model.SeverityMinor)},
			wantScore: 0.75,
			wantLevel: LevelMedium, wantAction: CommentOnly,
		},
		{
			name:      "suggestion barely dents the score",
			result:    review.Result{Issues: issues(model.SeveritySuggestion)},
			wantScore: 0.98,
			wantLevel: LevelHigh, wantAction: AutoAccept,
		},
		{
			name: "strength bonus is capped",
			result: review.Result{
				Issues:    issues(model.SeverityMajor),
				Strengths: []string{"a", "b", "c", "d", "e", "f"},
			},
			// 1 - 0.20 + min(0.18, 0.10)
			wantScore: 0.90,
			wantLevel: LevelHigh, wantAction: AutoAccept,
		},
		{
			name: "concern penalty is capped",
			result: review.Result{
				Issues:   issues(model.SeverityMinor),
				Concerns: []string{"a", "b", "c", "d", "e", "f", "g"},
			},
			// 1 - 0.05 - min(0.35, 0.20)
			wantScore: 0.75,
			wantLevel: LevelMedium, wantAction: CommentOnly,
		},
		{
			name: "question penalty is capped",
			result: review.Result{
				OpenQuestions: []string{"a", "b", "c", "d", "e"},
			},
			wantScore: 0.85,
			wantLevel: LevelHigh, wantAction: AutoAccept,
		},
		{
			name: "score never goes below zero",
			result: review.Result{
				Issues: issues(model.SeverityCritical, model.SeverityCritical,
					model.SeverityCritical, model.SeverityCritical),
			},
			wantScore: 0.0,
			wantLevel: LevelLow, wantAction: Escalate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(&tt.result, defaultThresholds)
			if math.Abs(got.Score-tt.wantScore) > 1e-9 {
				t.Errorf("score = %v, want %v", got.Score, tt.wantScore)
			}
			if got.Level != tt.wantLevel {
				t.Errorf("level = %v, want %v", got.Level, tt.wantLevel)
			}
			if got.Recommendation != tt.wantAction {
				t.Errorf("recommendation = %v, want %v", got.Recommendation, tt.wantAction)
			}
		})
	}
}

func TestScoreMonotonicInSevereIssues(t *testing.T) {
	prev := 2.0
	for n := 0; n < 6; n++ {
		sevs := make([]model.Severity, n)
		for i := range sevs {
			sevs[i] = model.SeverityCritical
		}
		got := Score(&review.Result{Issues: issues(sevs...)}, defaultThresholds)
		if got.Score > prev {
			t.Fatalf("score increased from %v to %v at %d critical issues", prev, got.Score, n)
		}
		prev = got.Score
	}
}

func TestScoreThresholdBoundaries(t *testing.T) {
	// A score exactly at a threshold belongs to the upper band.
	r := Score(&review.Result{}, config.Confidence{High: 1.0, Low: 0.5})
	if r.Level != LevelHigh || r.Recommendation != AutoAccept {
		t.Errorf("score at high threshold = (%v, %v), want (high, auto_accept)", r.Level, r.Recommendation)
	}

	r = Score(&review.Result{Issues: issues(model.SeverityCritical)},
		config.Confidence{High: 0.8, Low: 0.6})
	if r.Level != LevelMedium {
		t.Errorf("score at low threshold = %v, want medium", r.Level)
	}
}
