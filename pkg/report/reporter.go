// Package report renders suite results as console tables, JSON and
// HTML, and streams agent events to a terminal.
package report

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"digital.vasic.skilleval/pkg/runner"
)

// Reporter renders suite results.
type Reporter interface {
	// WriteReport renders one suite run.
	WriteReport(w io.Writer, result *runner.SuiteResult) error

	// WriteComparison renders a run without skills next to a run
	// with skills.
	WriteComparison(w io.Writer, c *Comparison) error
}

// WriteFile creates path, with its parent directories, and hands
// it to render.
func WriteFile(path string, render func(io.Writer) error) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "create report directory")
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create report")
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = errors.Wrap(cerr, "close report")
		}
	}()
	return render(f)
}
