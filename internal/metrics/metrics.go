// Package metrics persists pipeline outcomes to a Postgres table for
// dashboarding. Recording is best-effort: a failed insert is reported
// to the caller, who logs a warning and moves on, and never blocks or
// fails a review.
package metrics

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/revqlabs/revq/internal/pipeline"
)

// Sink accepts finished pipeline outcomes.
type Sink interface {
	Record(ctx context.Context, out *pipeline.Outcome) error
	Close()
}

// Nop discards every outcome, used when no metrics DSN is configured.
type Nop struct{}

func (Nop) Record(context.Context, *pipeline.Outcome) error { return nil }
func (Nop) Close()                                          {}

const eventsSchema = `
CREATE TABLE IF NOT EXISTS review_events (
	id             BIGSERIAL PRIMARY KEY,
	owner          TEXT NOT NULL,
	repo           TEXT NOT NULL,
	number         INTEGER NOT NULL,
	status         TEXT NOT NULL,
	change_type    TEXT,
	risk_level     TEXT,
	model_tier     TEXT,
	attempts       INTEGER,
	issue_count    INTEGER,
	confidence     DOUBLE PRECISION,
	recommendation TEXT,
	tokens_in      INTEGER,
	tokens_out     INTEGER,
	cost_usd       DOUBLE PRECISION,
	duration_ms    BIGINT,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Postgres is a pgx-backed sink.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to the given DSN and ensures the events table
// exists.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting metrics db: %w", err)
	}
	if _, err := pool.Exec(ctx, eventsSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating review_events table: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Close() { p.pool.Close() }

func (p *Postgres) Record(ctx context.Context, out *pipeline.Outcome) error {
	cs := out.ChangeSet

	var changeType, risk, tier, recommendation string
	var attempts, issueCount, tokensIn, tokensOut int
	var conf, cost float64

	if out.Classification != nil {
		changeType = string(out.Classification.ChangeType)
		risk = string(out.Classification.RiskLevel)
	}
	if out.Strategy != nil {
		tier = string(out.Strategy.ModelTier)
	}
	if out.Review != nil {
		issueCount = len(out.Review.Issues)
		tokensIn = out.Review.TokensIn
		tokensOut = out.Review.TokensOut
		cost = out.Review.CostUSD
	}
	if out.Confidence != nil {
		conf = out.Confidence.Score
		recommendation = string(out.Confidence.Recommendation)
	}
	attempts = out.Attempts

	_, err := p.pool.Exec(ctx,
		`INSERT INTO review_events
		 (owner, repo, number, status, change_type, risk_level, model_tier,
		  attempts, issue_count, confidence, recommendation, tokens_in,
		  tokens_out, cost_usd, duration_ms)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		cs.Owner, cs.Repo, cs.Number, string(out.Status), changeType, risk, tier,
		attempts, issueCount, conf, recommendation, tokensIn, tokensOut, cost,
		out.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("recording review event: %w", err)
	}
	return nil
}
