package workspace

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// Manager owns a base directory holding several named
// workspaces, one per concurrent test.
type Manager struct {
	mu         sync.Mutex
	base       string
	workspaces map[string]*Workspace
}

// NewManager creates a manager under base. An empty base
// allocates a temporary directory.
func NewManager(base string) (*Manager, error) {
	if base == "" {
		tmp, err := os.MkdirTemp("", "skill-eval-workspaces-")
		if err != nil {
			return nil, errors.Wrap(err, "create workspace base")
		}
		base = tmp
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create workspace base %s", base)
	}
	return &Manager{base: base, workspaces: make(map[string]*Workspace)}, nil
}

// Base returns the manager's base directory.
func (m *Manager) Base() string { return m.base }

// Create allocates a workspace under the base directory. An empty
// name is replaced by a random UUID, which keeps concurrent
// workspaces distinct.
func (m *Manager) Create(name string) (*Workspace, error) {
	if name == "" {
		name = uuid.NewString()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.workspaces[name]; exists {
		return nil, errors.Errorf("workspace already exists: %s", name)
	}

	ws, err := New(filepath.Join(m.base, name))
	if err != nil {
		return nil, err
	}
	m.workspaces[name] = ws
	return ws, nil
}

// Release removes one workspace and forgets it.
func (m *Manager) Release(name string) error {
	m.mu.Lock()
	ws, ok := m.workspaces[name]
	delete(m.workspaces, name)
	m.mu.Unlock()
	if !ok {
		return nil
	}
	return ws.Cleanup()
}

// CleanupAll removes every workspace and the base directory.
func (m *Manager) CleanupAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result *multierror.Error
	for name, ws := range m.workspaces {
		if err := ws.Cleanup(); err != nil {
			result = multierror.Append(result, err)
		}
		delete(m.workspaces, name)
	}
	if err := os.RemoveAll(m.base); err != nil {
		result = multierror.Append(result, errors.Wrap(err, "remove workspace base"))
	}
	return result.ErrorOrNil()
}
