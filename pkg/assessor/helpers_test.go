package assessor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func mkdir(t *testing.T, root, rel string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(root, filepath.FromSlash(rel)), 0o755))
}

func requireCheck(t *testing.T, r *Result, name string, passed bool) {
	t.Helper()
	c, ok := r.Check(name)
	require.True(t, ok, "check %q not recorded; have %v", name, checkNames(r))
	assert.Equal(t, passed, c.Passed, "check %q: %s", name, c.Details)
}

func checkNames(r *Result) []string {
	names := make([]string, 0, len(r.Checks))
	for _, c := range r.Checks {
		names = append(names, c.Name)
	}
	return names
}
