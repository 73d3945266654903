// Package model defines the core enums and values shared across revq.
package model

import (
	"context"
	"errors"
)

// Tier selects how much reasoning capability a review attempt buys.
type Tier string

const (
	TierCheap   Tier = "cheap"
	TierCapable Tier = "capable"
)

// RiskLevel categorizes the risk of a change-set.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// AtLeast reports whether r is at or above the given level.
func (r RiskLevel) AtLeast(min RiskLevel) bool {
	return riskRank(r) >= riskRank(min)
}

func riskRank(r RiskLevel) int {
	switch r {
	case RiskLow:
		return 0
	case RiskMedium:
		return 1
	case RiskHigh:
		return 2
	case RiskCritical:
		return 3
	default:
		return -1
	}
}

// Complexity is a coarse size/effort tier for a change-set.
type Complexity string

const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

// ChangeType categorizes what kind of change a change-set is.
type ChangeType string

const (
	ChangeFeature    ChangeType = "feature"
	ChangeBugfix     ChangeType = "bugfix"
	ChangeRefactor   ChangeType = "refactor"
	ChangeTest       ChangeType = "test"
	ChangeDocs       ChangeType = "docs"
	ChangeSecurity   ChangeType = "security"
	ChangeDependency ChangeType = "dependency"
	ChangeConfig     ChangeType = "config"
)

// Severity of a single review issue.
type Severity string

const (
	SeverityCritical   Severity = "critical"
	SeverityMajor      Severity = "major"
	SeverityMinor      Severity = "minor"
	SeveritySuggestion Severity = "suggestion"
)

// Known reports whether s is one of the defined severities.
func (s Severity) Known() bool {
	switch s {
	case SeverityCritical, SeverityMajor, SeverityMinor, SeveritySuggestion:
		return true
	}
	return false
}

// FailureKind categorizes why a reasoning attempt failed. The adaptive
// executor maps each kind to a strategy mutation on retry.
type FailureKind string

const (
	FailureRateLimited    FailureKind = "rate_limited"
	FailureContextTooLong FailureKind = "context_too_long"
	FailureTransientAPI   FailureKind = "transient_api_error"
	FailureTimeout        FailureKind = "timeout"
	FailureLowQuality     FailureKind = "low_quality_response"
)

// FailureError tags an error with a FailureKind so the executor can
// adapt its strategy without knowing the provider's error surface.
type FailureError struct {
	Kind FailureKind
	Err  error
}

func (e *FailureError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return string(e.Kind) + ": " + e.Err.Error()
}

func (e *FailureError) Unwrap() error { return e.Err }

// ClassifyFailure extracts the FailureKind from an error chain.
// Unclassified errors are treated as transient API errors, the
// conservative default for a remote call.
func ClassifyFailure(err error) FailureKind {
	var fe *FailureError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}
	return FailureTransientAPI
}
