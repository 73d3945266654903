// Package provider wraps the reasoning service behind a narrow
// interface. Failures are classified into model.FailureKind so the
// adaptive executor can mutate strategy without knowing the provider's
// error surface.
package provider

import "context"

// Request is one completion call to the reasoning provider.
type Request struct {
	Model       string
	System      string
	User        string
	MaxTokens   int
	Temperature float64
}

// Response is the raw provider output before review parsing.
type Response struct {
	Content   string
	TokensIn  int
	TokensOut int
}

// Provider executes completion requests against a reasoning service.
type Provider interface {
	Complete(ctx context.Context, req Request) (Response, error)
}
