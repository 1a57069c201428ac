// Package fixture resolves a test case's fixture reference into
// the spec text and extra files that seed its workspace. Fixtures
// come from a local spec file or from a pinned commit of a git
// repository, optionally with a GitHub issue attached.
package fixture

import (
	"context"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"digital.vasic.skilleval/pkg/bank"
	"digital.vasic.skilleval/pkg/httpclient"
	"digital.vasic.skilleval/pkg/logging"
)

// DefaultSpecPath is used when a git source names no spec_path.
const DefaultSpecPath = "openapi.yaml"

// ErrNoSource is returned when a git source lacks its repository or
// commit.
var ErrNoSource = errors.New("source missing repository or commit")

// Fixture is the resolved content for one test.
type Fixture struct {
	Spec string
	// Files maps paths relative to the fixtures root's parent to
	// their content.
	Files map[string]string
}

// Loader resolves fixtures for test cases.
type Loader struct {
	fixturesDir string
	cacheDir    string
	ghBinary    string
	github      *httpclient.APIClient
	logger      logging.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithCacheDir overrides the repository cache directory.
func WithCacheDir(dir string) Option {
	return func(l *Loader) { l.cacheDir = dir }
}

// WithGitHubClient sets the REST client used when the gh CLI cannot
// fetch an issue.
func WithGitHubClient(c *httpclient.APIClient) Option {
	return func(l *Loader) { l.github = c }
}

// WithGHBinary overrides the gh executable.
func WithGHBinary(bin string) Option {
	return func(l *Loader) { l.ghBinary = bin }
}

// WithLogger sets the loader's logger.
func WithLogger(logger logging.Logger) Option {
	return func(l *Loader) { l.logger = logger }
}

// NewLoader returns a Loader for fixturesDir. The repository cache
// defaults to ~/.cache/skill-eval/repos.
func NewLoader(fixturesDir string, opts ...Option) *Loader {
	l := &Loader{
		fixturesDir: fixturesDir,
		ghBinary:    "gh",
		logger:      logging.NullLogger{},
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.cacheDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = os.TempDir()
		}
		l.cacheDir = filepath.Join(home, ".cache", "skill-eval", "repos")
	}
	if l.github == nil {
		l.github = httpclient.NewGitHubClient("", httpclient.WithLogger(l.logger))
	}
	return l
}

// CacheDir returns the repository cache directory.
func (l *Loader) CacheDir() string { return l.cacheDir }

// root is the directory fixture paths in test files are relative to.
func (l *Loader) root() string { return filepath.Dir(l.fixturesDir) }

// Load resolves c's fixture. A case with neither source nor
// spec_file has an empty fixture. Errors mean the test cannot run
// and should be reported as skipped.
func (l *Loader) Load(ctx context.Context, c *bank.Case) (*Fixture, error) {
	switch {
	case c.Source != nil:
		return l.loadGit(ctx, c)
	case c.SpecFile != "":
		return l.loadFile(c.SpecFile)
	}
	return &Fixture{Files: map[string]string{}}, nil
}

func (l *Loader) loadFile(specFile string) (*Fixture, error) {
	specPath := filepath.Join(l.root(), specFile)
	spec, err := os.ReadFile(specPath)
	if err != nil {
		return nil, errors.Errorf("Spec file not found: %s", specFile)
	}

	files, err := l.collect(filepath.Dir(specPath), filepath.Base(specPath))
	if err != nil {
		return nil, err
	}
	return &Fixture{Spec: string(spec), Files: files}, nil
}

func (l *Loader) loadGit(ctx context.Context, c *bank.Case) (*Fixture, error) {
	src := c.Source
	if src.Repository == "" || src.Commit == "" {
		return nil, ErrNoSource
	}
	specPath := src.SpecPath
	if specPath == "" {
		specPath = DefaultSpecPath
	}

	repoDir, err := l.ensureRepo(ctx, src.Repository, src.Commit)
	if err != nil {
		return nil, errors.Errorf("Failed to clone repo: %v", err)
	}

	spec, err := os.ReadFile(filepath.Join(repoDir, specPath))
	if err != nil {
		return nil, errors.Errorf("Spec not found in repo: %s", specPath)
	}

	fx := &Fixture{Spec: string(spec), Files: map[string]string{}}
	if c.FixtureDir != "" {
		dir := filepath.Join(l.root(), c.FixtureDir)
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			if fx.Files, err = l.collect(dir, ""); err != nil {
				return nil, err
			}
		}
	}

	if src.Issue != nil {
		if md, ok := l.FetchIssue(ctx, src.Issue.Repo, src.Issue.Number); ok {
			issueDir := c.FixtureDir
			if issueDir == "" {
				issueDir = "fixtures"
			}
			fx.Files[filepath.ToSlash(filepath.Join(issueDir, "issue.md"))] = md
		}
	}
	return fx, nil
}

// collect reads the regular files directly inside dir, keyed by
// their path relative to the fixtures root's parent.
func (l *Loader) collect(dir, skip string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "read fixture dir %s", dir)
	}

	files := make(map[string]string)
	var result *multierror.Error
	for _, e := range entries {
		if !e.Type().IsRegular() || e.Name() == skip {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		rel, err := filepath.Rel(l.root(), path)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		files[filepath.ToSlash(rel)] = string(data)
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, errors.Wrap(err, "read fixture files")
	}
	return files, nil
}

// ClearCache removes every cached repository and recreates the
// empty cache directory.
func (l *Loader) ClearCache() error {
	if err := os.RemoveAll(l.cacheDir); err != nil {
		return errors.Wrap(err, "clear repo cache")
	}
	return errors.Wrap(os.MkdirAll(l.cacheDir, 0o755), "recreate repo cache")
}
