// Package review defines the structured result of a reasoning review
// and the machinery around it: prompt construction, response parsing,
// structural validation, chunking, and issue fingerprinting.
package review

import (
	"github.com/revqlabs/revq/internal/model"
)

// Issue is a single finding attached to a file and optional line.
type Issue struct {
	Severity     model.Severity `json:"severity"`
	Category     string         `json:"category"`
	File         string         `json:"file"`
	Line         int            `json:"line,omitempty"`
	Description  string         `json:"description"`
	SuggestedFix string         `json:"suggestion,omitempty"`
	Fingerprint  string         `json:"fingerprint,omitempty"`
}

// Result is the parsed outcome of one (possibly chunked) review call.
type Result struct {
	Summary       string     `json:"summary"`
	Issues        []Issue    `json:"issues"`
	Strengths     []string   `json:"strengths"`
	Concerns      []string   `json:"concerns"`
	OpenQuestions []string   `json:"open_questions"`
	TokensIn      int        `json:"tokens_in"`
	TokensOut     int        `json:"tokens_out"`
	TierUsed      model.Tier `json:"tier_used"`
	ModelUsed     string     `json:"model_used"`
	CostUSD       float64    `json:"cost_usd"`
}

// CountBySeverity returns how many issues carry the given severity.
func (r *Result) CountBySeverity(sev model.Severity) int {
	n := 0
	for _, is := range r.Issues {
		if is.Severity == sev {
			n++
		}
	}
	return n
}
