package gate

import (
	"context"
	"fmt"
	"time"

	"github.com/revqlabs/revq/internal/changeset"
	"github.com/revqlabs/revq/internal/config"
)

// WithTimeout wraps a gate with a per-invocation deadline. A gate that
// runs past its budget resolves to pass-with-warning: a hung external
// tool must never block review entirely.
func WithTimeout(g Gate, limit time.Duration) Gate {
	return &timeoutGate{inner: g, limit: limit}
}

type timeoutGate struct {
	inner Gate
	limit time.Duration
}

func (t *timeoutGate) Name() string { return t.inner.Name() }

func (t *timeoutGate) Check(ctx context.Context, cs *changeset.ChangeSet, cfg config.Config) Outcome {
	ctx, cancel := context.WithTimeout(ctx, t.limit)
	defer cancel()

	done := make(chan Outcome, 1)
	go func() {
		done <- t.inner.Check(ctx, cs, cfg)
	}()

	select {
	case out := <-done:
		return out
	case <-ctx.Done():
		return Outcome{
			Passed: true,
			Reason: fmt.Sprintf("%s gate timed out after %s, check skipped", t.inner.Name(), t.limit),
		}
	}
}
