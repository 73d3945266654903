// Package confidence converts a structured review result into a
// calibrated score and an accept/escalate recommendation.
package confidence

import (
	"github.com/revqlabs/revq/internal/config"
	"github.com/revqlabs/revq/internal/model"
	"github.com/revqlabs/revq/internal/review"
)

// Level is the discrete confidence band a score falls into.
type Level string

const (
	LevelHigh   Level = "high"
	LevelMedium Level = "medium"
	LevelLow    Level = "low"
)

// Recommendation is the action derived from the confidence level.
type Recommendation string

const (
	AutoAccept  Recommendation = "auto_accept"
	CommentOnly Recommendation = "comment_only"
	Escalate    Recommendation = "escalate"
)

// Result is the scored verdict for one review.
type Result struct {
	Score          float64
	Level          Level
	Recommendation Recommendation
}

// Scoring constants. These are calibrated values, not tunables: tests
// depend on them bit-for-bit.
const (
	penaltyCritical   = 0.40
	penaltyMajor      = 0.20
	penaltyMinor      = 0.05
	penaltySuggestion = 0.02

	strengthBonus    = 0.03
	strengthBonusCap = 0.10

	concernPenalty     = 0.05
	concernPenaltyCap  = 0.20
	questionPenalty    = 0.05
	questionPenaltyCap = 0.15
)

// Score computes the confidence verdict for a review result. The score
// starts at 1.0, accumulates unclamped penalties and bonuses, and is
// clamped to [0,1] exactly once at the end.
func Score(r *review.Result, thresholds config.Confidence) Result {
	score := 1.0

	for _, issue := range r.Issues {
		switch issue.Severity {
		case model.SeverityCritical:
			score -= penaltyCritical
		case model.SeverityMajor:
			score -= penaltyMajor
		case model.SeverityMinor:
			score -= penaltyMinor
		case model.SeveritySuggestion:
			score -= penaltySuggestion
		}
	}

	bonus := strengthBonus * float64(len(r.Strengths))
	if bonus > strengthBonusCap {
		bonus = strengthBonusCap
	}
	score += bonus

	score -= capped(concernPenalty*float64(len(r.Concerns)), concernPenaltyCap)
	score -= capped(questionPenalty*float64(len(r.OpenQuestions)), questionPenaltyCap)

	score = clamp(score)

	level, rec := band(score, thresholds)
	return Result{Score: score, Level: level, Recommendation: rec}
}

func band(score float64, t config.Confidence) (Level, Recommendation) {
	switch {
	case score >= t.High:
		return LevelHigh, AutoAccept
	case score >= t.Low:
		return LevelMedium, CommentOnly
	default:
		return LevelLow, Escalate
	}
}

func capped(v, limit float64) float64 {
	if v > limit {
		return limit
	}
	return v
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
