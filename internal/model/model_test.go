package model

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestRiskAtLeast(t *testing.T) {
	if !RiskCritical.AtLeast(RiskHigh) {
		t.Error("critical should be at least high")
	}
	if !RiskHigh.AtLeast(RiskHigh) {
		t.Error("high should be at least high")
	}
	if RiskMedium.AtLeast(RiskHigh) {
		t.Error("medium should not be at least high")
	}
	if RiskLevel("bogus").AtLeast(RiskLow) {
		t.Error("unknown level should rank below everything")
	}
}

func TestSeverityKnown(t *testing.T) {
	for _, s := range []Severity{SeverityCritical, SeverityMajor, SeverityMinor, SeveritySuggestion} {
		if !s.Known() {
			t.Errorf("%s should be known", s)
		}
	}
	if Severity("fatal").Known() {
		t.Error("fatal should not be known")
	}
}

func TestClassifyFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want FailureKind
	}{
		{
			"tagged failure",
			&FailureError{Kind: FailureRateLimited, Err: errors.New("429")},
			FailureRateLimited,
		},
		{
			"wrapped tagged failure",
			fmt.Errorf("calling provider: %w", &FailureError{Kind: FailureContextTooLong}),
			FailureContextTooLong,
		},
		{
			"deadline exceeded",
			fmt.Errorf("call: %w", context.DeadlineExceeded),
			FailureTimeout,
		},
		{
			"unknown error defaults to transient",
			errors.New("something odd"),
			FailureTransientAPI,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyFailure(tt.err); got != tt.want {
				t.Errorf("ClassifyFailure = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFailureErrorUnwrap(t *testing.T) {
	inner := errors.New("boom")
	err := &FailureError{Kind: FailureTimeout, Err: inner}
	if !errors.Is(err, inner) {
		t.Error("FailureError does not unwrap to its cause")
	}
	if err.Error() != "timeout: boom" {
		t.Errorf("Error = %q", err.Error())
	}
}
