package workspace

import (
	"os"
	"sort"

	"github.com/aymanbagabas/go-udiff"
)

// FixtureDiff returns a unified diff for every fixture file the
// run modified or deleted, keyed by relative path. Files the
// fixture did not provide are not reported.
func (w *Workspace) FixtureDiff() map[string]string {
	diffs := make(map[string]string)
	paths := make([]string, 0, len(w.fixtures))
	for p := range w.fixtures {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, rel := range paths {
		before := w.fixtures[rel]
		after := ""
		if data, err := os.ReadFile(w.path(rel)); err == nil {
			after = string(data)
		}
		if before == after {
			continue
		}
		diffs[rel] = udiff.Unified("a/"+rel, "b/"+rel, before, after)
	}
	return diffs
}
