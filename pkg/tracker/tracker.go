// Package tracker persists run results as timestamped JSON records,
// keeps a human-readable HISTORY.md and summarises trends across
// recent runs.
package tracker

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"github.com/pkg/errors"

	"digital.vasic.skilleval/pkg/logging"
	"digital.vasic.skilleval/pkg/runner"
)

// HistoryFile is the markdown log kept next to the records.
const HistoryFile = "HISTORY.md"

// recordName matches the files Save writes; ad hoc JSON files in
// the results directory are ignored.
var recordName = regexp.MustCompile(`^\d{8}_\d{6}\.json$`)

// Metadata describes the circumstances of one run.
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
	Model     string    `json:"model"`
	GitCommit string    `json:"git_commit"`
	GitBranch string    `json:"git_branch"`
	GitDirty  bool      `json:"git_dirty"`
}

// Record is one persisted run. Records are written once and never
// rewritten.
type Record struct {
	// File is the record's base name; it is not serialized.
	File     string             `json:"-"`
	Metadata Metadata           `json:"metadata"`
	Results  runner.SuiteResult `json:"results"`
}

// GitInfoFunc reports the repository state recorded with a run.
type GitInfoFunc func(ctx context.Context) GitInfo

// Tracker reads and writes records in one results directory.
type Tracker struct {
	dir    string
	model  string
	git    GitInfoFunc
	store  *Store
	logger logging.Logger
	now    func() time.Time
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithModel sets the model name recorded with every run.
func WithModel(model string) Option {
	return func(t *Tracker) { t.model = model }
}

// WithGitInfo replaces the git lookup.
func WithGitInfo(fn GitInfoFunc) Option {
	return func(t *Tracker) { t.git = fn }
}

// WithStore mirrors every saved record into s.
func WithStore(s *Store) Option {
	return func(t *Tracker) { t.store = s }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(t *Tracker) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// New returns a Tracker for dir, creating it if needed.
func New(dir string, opts ...Option) (*Tracker, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create results directory")
	}
	t := &Tracker{
		dir:    dir,
		logger: logging.NullLogger{},
		now:    time.Now,
	}
	t.git = func(ctx context.Context) GitInfo { return ReadGitInfo(ctx, dir) }
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Dir returns the results directory.
func (t *Tracker) Dir() string { return t.dir }

// HistoryPath returns the path of HISTORY.md.
func (t *Tracker) HistoryPath() string { return filepath.Join(t.dir, HistoryFile) }

// Save writes result to <dir>/YYYYMMDD_HHMMSS.json (UTC) with run
// metadata and returns the record.
func (t *Tracker) Save(ctx context.Context, result *runner.SuiteResult) (*Record, error) {
	ts := t.now().UTC()
	git := t.git(ctx)

	rec := &Record{
		File: ts.Format("20060102_150405") + ".json",
		Metadata: Metadata{
			Timestamp: ts,
			Model:     t.model,
			GitCommit: git.Commit,
			GitBranch: git.Branch,
			GitDirty:  git.Dirty,
		},
		Results: *result,
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal record")
	}
	path := filepath.Join(t.dir, rec.File)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, errors.Wrap(err, "failed to write record")
	}

	if t.store != nil {
		if err := t.store.Insert(ctx, rec); err != nil {
			t.logger.Warn("store_insert_failed", logging.String("file", rec.File), logging.Err(err))
		}
	}

	t.logger.Info("results_saved",
		logging.String("file", path),
		logging.String("commit", git.Commit),
		logging.Float("pass_rate", result.PassRate),
	)
	return rec, nil
}

// RecentResults loads up to n of the newest records, newest first.
// Files that fail to parse are skipped.
func (t *Tracker) RecentResults(n int) ([]*Record, error) {
	entries, err := os.ReadDir(t.dir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read results directory")
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && recordName.MatchString(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	if n >= 0 && len(names) > n {
		names = names[:n]
	}

	records := make([]*Record, 0, len(names))
	for _, name := range names {
		rec, err := readRecord(filepath.Join(t.dir, name))
		if err != nil {
			t.logger.Debug("record_skipped", logging.String("file", name), logging.Err(err))
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// readRecord accepts both the {metadata, results} wrapper and a
// bare results object.
func readRecord(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, errors.Wrap(err, "invalid record")
	}

	rec := &Record{File: filepath.Base(path)}
	if raw, ok := probe["results"]; ok {
		if meta, ok := probe["metadata"]; ok {
			if err := json.Unmarshal(meta, &rec.Metadata); err != nil {
				return nil, errors.Wrap(err, "invalid metadata")
			}
		}
		data = raw
	}
	if err := json.Unmarshal(data, &rec.Results); err != nil {
		return nil, errors.Wrap(err, "invalid results")
	}
	return rec, nil
}
