package tracker

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	file       TEXT NOT NULL UNIQUE,
	timestamp  DATETIME NOT NULL,
	model      TEXT NOT NULL DEFAULT '',
	git_commit TEXT NOT NULL DEFAULT '',
	git_branch TEXT NOT NULL DEFAULT '',
	git_dirty  BOOLEAN NOT NULL DEFAULT 0,
	suite      TEXT NOT NULL DEFAULT '',
	total      INTEGER NOT NULL,
	passed     INTEGER NOT NULL,
	failed     INTEGER NOT NULL,
	skipped    INTEGER NOT NULL,
	pass_rate  REAL NOT NULL,
	cost_usd   REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON runs(timestamp DESC);
`

// Run is one row of the runs table.
type Run struct {
	ID        int64     `db:"id"`
	File      string    `db:"file"`
	Timestamp time.Time `db:"timestamp"`
	Model     string    `db:"model"`
	GitCommit string    `db:"git_commit"`
	GitBranch string    `db:"git_branch"`
	GitDirty  bool      `db:"git_dirty"`
	Suite     string    `db:"suite"`
	Total     int       `db:"total"`
	Passed    int       `db:"passed"`
	Failed    int       `db:"failed"`
	Skipped   int       `db:"skipped"`
	PassRate  float64   `db:"pass_rate"`
	CostUSD   float64   `db:"cost_usd"`
}

// Store mirrors saved records into a SQLite database so run
// summaries can be queried without parsing every JSON file.
type Store struct {
	dbPath string
	db     *sqlx.DB
}

// OpenStore opens or creates the database at dbPath.
func OpenStore(ctx context.Context, dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create database directory")
	}

	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, errors.Wrapf(err, "failed to execute pragma: %s", pragma)
		}
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to initialize schema")
	}
	return &Store{dbPath: dbPath, db: db}, nil
}

// Insert adds rec's summary. A record already mirrored is ignored.
func (s *Store) Insert(ctx context.Context, rec *Record) error {
	res := rec.Results
	run := Run{
		File:      rec.File,
		Timestamp: rec.Metadata.Timestamp.UTC(),
		Model:     rec.Metadata.Model,
		GitCommit: rec.Metadata.GitCommit,
		GitBranch: rec.Metadata.GitBranch,
		GitDirty:  rec.Metadata.GitDirty,
		Suite:     string(res.Suite),
		Total:     res.Total,
		Passed:    res.Passed,
		Failed:    res.Failed,
		Skipped:   res.Skipped,
		PassRate:  res.PassRate,
		CostUSD:   summarize(res.Details).cost,
	}

	_, err := s.db.NamedExecContext(ctx, `
		INSERT OR IGNORE INTO runs (
			file, timestamp, model, git_commit, git_branch, git_dirty,
			suite, total, passed, failed, skipped, pass_rate, cost_usd
		) VALUES (
			:file, :timestamp, :model, :git_commit, :git_branch, :git_dirty,
			:suite, :total, :passed, :failed, :skipped, :pass_rate, :cost_usd
		)`, run)
	return errors.Wrap(err, "failed to insert run")
}

// Recent returns up to n runs, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]Run, error) {
	var runs []Run
	err := s.db.SelectContext(ctx, &runs,
		"SELECT * FROM runs ORDER BY timestamp DESC, id DESC LIMIT ?", n)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query runs")
	}
	return runs, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
