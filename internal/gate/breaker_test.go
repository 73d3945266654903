package gate

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/revqlabs/revq/internal/changeset"
	"github.com/revqlabs/revq/internal/config"
)

// blockingGate waits for its context before answering.
type blockingGate struct{}

func (blockingGate) Name() string { return "slow" }

func (blockingGate) Check(ctx context.Context, _ *changeset.ChangeSet, _ config.Config) Outcome {
	<-ctx.Done()
	return Outcome{Passed: false, Reason: "should never surface"}
}

func TestWithTimeoutPassesThrough(t *testing.T) {
	inner := &spyGate{name: "fast", passed: true}
	g := WithTimeout(inner, time.Second)

	out := g.Check(context.Background(), &changeset.ChangeSet{}, config.Default())
	if !out.Passed || out.Reason != "spy" {
		t.Errorf("outcome = %+v, want the inner gate's", out)
	}
	if g.Name() != "fast" {
		t.Errorf("name = %q, want the inner gate's", g.Name())
	}
}

func TestWithTimeoutDegradesToPass(t *testing.T) {
	g := WithTimeout(blockingGate{}, 10*time.Millisecond)

	out := g.Check(context.Background(), &changeset.ChangeSet{}, config.Default())
	if !out.Passed {
		t.Error("timed-out gate blocked the pipeline")
	}
	if !strings.Contains(out.Reason, "timed out") {
		t.Errorf("reason = %q, want a timeout warning", out.Reason)
	}
}
