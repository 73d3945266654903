// Package history persists past review outcomes in a local sqlite
// database and summarizes them as prompt context for new reviews.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/revqlabs/revq/internal/changeset"
	"github.com/revqlabs/revq/internal/pipeline"
)

// Hot-file thresholds: a file this frequently reviewed or flagged gets
// called out in the prompt history.
const (
	hotReviewCount = 3
	hotIssueCount  = 5
)

const schema = `
CREATE TABLE IF NOT EXISTS reviews (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	owner          TEXT NOT NULL,
	repo           TEXT NOT NULL,
	number         INTEGER NOT NULL,
	title          TEXT NOT NULL,
	status         TEXT NOT NULL,
	change_type    TEXT,
	risk_level     TEXT,
	confidence     REAL,
	recommendation TEXT,
	cost_usd       REAL,
	created_at     TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS review_files (
	review_id INTEGER NOT NULL REFERENCES reviews(id),
	file      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS issues (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	review_id   INTEGER NOT NULL REFERENCES reviews(id),
	fingerprint TEXT NOT NULL,
	severity    TEXT NOT NULL,
	category    TEXT,
	file        TEXT,
	line        INTEGER,
	description TEXT
);

CREATE INDEX IF NOT EXISTS idx_issues_fingerprint ON issues(fingerprint);
CREATE INDEX IF NOT EXISTS idx_review_files_file ON review_files(file);
`

// Store is the sqlite-backed review history.
type Store struct {
	db *sql.DB
}

// Open creates or opens the history database at path, creating parent
// directories and the schema as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating history schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Record persists one pipeline outcome. Gated and failed runs are
// recorded too so hot-file counts reflect every touch.
func (s *Store) Record(ctx context.Context, out *pipeline.Outcome) error {
	cs := out.ChangeSet

	var changeType, risk, recommendation string
	var conf, cost float64
	if out.Classification != nil {
		changeType = string(out.Classification.ChangeType)
		risk = string(out.Classification.RiskLevel)
	}
	if out.Confidence != nil {
		conf = out.Confidence.Score
		recommendation = string(out.Confidence.Recommendation)
	}
	if out.Review != nil {
		cost = out.Review.CostUSD
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO reviews (owner, repo, number, title, status, change_type, risk_level, confidence, recommendation, cost_usd)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		cs.Owner, cs.Repo, cs.Number, cs.Title, string(out.Status),
		changeType, risk, conf, recommendation, cost)
	if err != nil {
		return fmt.Errorf("inserting review: %w", err)
	}
	reviewID, err := res.LastInsertId()
	if err != nil {
		return err
	}

	for _, f := range cs.Files {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO review_files (review_id, file) VALUES (?, ?)`, reviewID, f); err != nil {
			return fmt.Errorf("inserting review file: %w", err)
		}
	}

	if out.Review != nil {
		for _, issue := range out.Review.Issues {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO issues (review_id, fingerprint, severity, category, file, line, description)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				reviewID, issue.Fingerprint, string(issue.Severity),
				issue.Category, issue.File, issue.Line, issue.Description); err != nil {
				return fmt.Errorf("inserting issue: %w", err)
			}
		}
	}

	return tx.Commit()
}

// HotFile is a file with enough review traffic to warn about.
type HotFile struct {
	File    string
	Reviews int
	Issues  int
}

// HotFiles returns files among the given paths that have been reviewed
// or flagged often enough to cross the hot thresholds.
func (s *Store) HotFiles(ctx context.Context, files []string) ([]HotFile, error) {
	if len(files) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(files)), ",")
	args := make([]any, len(files))
	for i, f := range files {
		args[i] = f
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT rf.file,
		        COUNT(DISTINCT rf.review_id) AS reviews,
		        COUNT(DISTINCT i.id)         AS issues
		 FROM review_files rf
		 LEFT JOIN issues i ON i.file = rf.file
		 WHERE rf.file IN (%s)
		 GROUP BY rf.file
		 HAVING reviews >= %d OR issues >= %d`,
		placeholders, hotReviewCount, hotIssueCount), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hot []HotFile
	for rows.Next() {
		var h HotFile
		if err := rows.Scan(&h.File, &h.Reviews, &h.Issues); err != nil {
			return nil, err
		}
		hot = append(hot, h)
	}
	return hot, rows.Err()
}

// Summary builds the prompt-history section for a change-set: hot files
// among its paths and issues that have recurred across past reviews.
func (s *Store) Summary(ctx context.Context, cs *changeset.ChangeSet) (string, error) {
	hot, err := s.HotFiles(ctx, cs.Files)
	if err != nil {
		return "", err
	}

	recurring, err := s.recurringIssues(ctx, cs.Files)
	if err != nil {
		return "", err
	}

	if len(hot) == 0 && len(recurring) == 0 {
		return "", nil
	}

	var b strings.Builder
	if len(hot) > 0 {
		b.WriteString("Frequently reviewed files in this change:\n")
		for _, h := range hot {
			fmt.Fprintf(&b, "- %s: %d past reviews, %d past issues\n", h.File, h.Reviews, h.Issues)
		}
	}
	if len(recurring) > 0 {
		b.WriteString("Issues that have recurred in these files before:\n")
		for _, r := range recurring {
			b.WriteString("- " + r + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

// recurringIssues lists descriptions of issues whose fingerprint was
// reported in more than one past review of the given files.
func (s *Store) recurringIssues(ctx context.Context, files []string) ([]string, error) {
	if len(files) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(files)), ",")
	args := make([]any, len(files))
	for i, f := range files {
		args[i] = f
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT i.file, i.description, COUNT(DISTINCT i.review_id) AS seen
		 FROM issues i
		 WHERE i.file IN (%s)
		 GROUP BY i.fingerprint
		 HAVING seen > 1
		 ORDER BY seen DESC
		 LIMIT 10`, placeholders), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var file, desc string
		var seen int
		if err := rows.Scan(&file, &desc, &seen); err != nil {
			return nil, err
		}
		out = append(out, fmt.Sprintf("%s: %s (seen %d times)", file, desc, seen))
	}
	return out, rows.Err()
}
