// Package workspace provides disposable sandbox directories for a
// single evaluation run. A Workspace is populated with fixture
// content, snapshotted, mutated by the agent and then diffed
// against that snapshot.
package workspace

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
)

// ErrUninitialized is returned by Changes when Setup has not run.
var ErrUninitialized = errors.New("no initial state captured")

// Well-known workspace paths, relative to the root.
const (
	SpecFile     = "openapi.yaml"
	WorkflowFile = ".speakeasy/workflow.yaml"
	GenYAMLFile  = "gen.yaml"
	OverlayDir   = "overlays"
	SDKDir       = "sdk"
)

// Changes is the set difference between the baseline snapshot and
// the current disk state. Every list is sorted.
type Changes struct {
	Added     []string `json:"added"`
	Removed   []string `json:"removed"`
	Modified  []string `json:"modified"`
	Unchanged []string `json:"unchanged"`
}

// Empty reports whether nothing was added, removed or modified.
func (c Changes) Empty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0 &&
		len(c.Modified) == 0
}

// Workspace is an isolated directory owned by one test run.
type Workspace struct {
	root     string
	baseline map[string]string
	fixtures map[string]string
}

// New creates a workspace rooted at dir, creating it if needed.
// An empty dir allocates a fresh temporary directory.
func New(dir string) (*Workspace, error) {
	if dir == "" {
		tmp, err := os.MkdirTemp("", "skill-eval-")
		if err != nil {
			return nil, errors.Wrap(err, "create workspace")
		}
		dir = tmp
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create workspace %s", dir)
	}
	return &Workspace{root: dir}, nil
}

// Root returns the workspace directory.
func (w *Workspace) Root() string { return w.root }

// SetupOption adds optional fixture content during Setup.
type SetupOption func(*setupConfig)

type setupConfig struct {
	genYAML  string
	overlays map[string]string
	files    map[string]string
}

// WithGenConfig writes gen.yaml at the workspace root.
func WithGenConfig(content string) SetupOption {
	return func(c *setupConfig) { c.genYAML = content }
}

// WithOverlays writes each named overlay under overlays/.
func WithOverlays(overlays map[string]string) SetupOption {
	return func(c *setupConfig) { c.overlays = overlays }
}

// WithFiles writes arbitrary fixture files keyed by relative path.
func WithFiles(files map[string]string) SetupOption {
	return func(c *setupConfig) { c.files = files }
}

// Setup materializes the fixture content and captures the
// baseline snapshot. It must be called once before Changes.
func (w *Workspace) Setup(spec string, opts ...SetupOption) error {
	var cfg setupConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	w.fixtures = make(map[string]string)
	write := func(rel, content string) error {
		w.fixtures[filepath.ToSlash(rel)] = content
		return w.WriteFile(rel, content)
	}

	if err := write(SpecFile, spec); err != nil {
		return err
	}
	if cfg.genYAML != "" {
		if err := write(GenYAMLFile, cfg.genYAML); err != nil {
			return err
		}
	}
	for name, content := range cfg.overlays {
		if err := write(filepath.Join(OverlayDir, name), content); err != nil {
			return err
		}
	}
	for rel, content := range cfg.files {
		if err := write(rel, content); err != nil {
			return err
		}
	}

	snap, err := w.snapshot()
	if err != nil {
		return err
	}
	w.baseline = snap
	return nil
}

// snapshot maps every regular file's relative path to the hex
// SHA-256 of its content.
func (w *Workspace) snapshot() (map[string]string, error) {
	state := make(map[string]string)
	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(w.root, path)
		if err != nil {
			return err
		}
		sum, err := hashFile(path)
		if err != nil {
			return err
		}
		state[filepath.ToSlash(rel)] = sum
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "snapshot workspace")
	}
	return state, nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Changes diffs the current disk state against the baseline.
func (w *Workspace) Changes() (Changes, error) {
	if w.baseline == nil {
		return Changes{}, ErrUninitialized
	}
	current, err := w.snapshot()
	if err != nil {
		return Changes{}, err
	}

	c := Changes{
		Added:     []string{},
		Removed:   []string{},
		Modified:  []string{},
		Unchanged: []string{},
	}
	for path, sum := range current {
		before, ok := w.baseline[path]
		switch {
		case !ok:
			c.Added = append(c.Added, path)
		case before != sum:
			c.Modified = append(c.Modified, path)
		default:
			c.Unchanged = append(c.Unchanged, path)
		}
	}
	for path := range w.baseline {
		if _, ok := current[path]; !ok {
			c.Removed = append(c.Removed, path)
		}
	}

	sort.Strings(c.Added)
	sort.Strings(c.Removed)
	sort.Strings(c.Modified)
	sort.Strings(c.Unchanged)
	return c, nil
}

// FileExists reports whether rel exists (file or directory).
func (w *Workspace) FileExists(rel string) bool {
	_, err := os.Stat(w.path(rel))
	return err == nil
}

// ReadFile returns the content of rel.
func (w *Workspace) ReadFile(rel string) (string, error) {
	data, err := os.ReadFile(w.path(rel))
	if err != nil {
		return "", errors.Wrapf(err, "read %s", rel)
	}
	return string(data), nil
}

// WriteFile writes rel, creating parent directories as needed.
func (w *Workspace) WriteFile(rel, content string) error {
	path := w.path(rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "create parent of %s", rel)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return errors.Wrapf(err, "write %s", rel)
	}
	return nil
}

// ListFiles returns the sorted relative paths of regular files
// matching a doublestar pattern. An empty pattern matches all.
func (w *Workspace) ListFiles(pattern string) ([]string, error) {
	if pattern == "" {
		pattern = "**/*"
	}
	matches, err := doublestar.Glob(
		os.DirFS(w.root), pattern, doublestar.WithFilesOnly(),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "glob %s", pattern)
	}
	sort.Strings(matches)
	return matches, nil
}

// Cleanup removes the workspace directory. It is safe to call
// more than once.
func (w *Workspace) Cleanup() error {
	if err := os.RemoveAll(w.root); err != nil {
		return errors.Wrapf(err, "remove workspace %s", w.root)
	}
	return nil
}

func (w *Workspace) path(rel string) string {
	return filepath.Join(w.root, filepath.FromSlash(rel))
}
