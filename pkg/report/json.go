package report

import (
	"encoding/json"
	"io"

	"digital.vasic.skilleval/pkg/runner"
)

// JSONReporter writes results as JSON documents.
type JSONReporter struct {
	pretty bool
}

// NewJSONReporter creates a JSON reporter. When pretty is true,
// output is indented for readability.
func NewJSONReporter(pretty bool) *JSONReporter {
	return &JSONReporter{pretty: pretty}
}

// WriteReport writes result as JSON.
func (r *JSONReporter) WriteReport(w io.Writer, result *runner.SuiteResult) error {
	return r.encode(w, result)
}

// WriteComparison writes both runs and their deltas as JSON.
func (r *JSONReporter) WriteComparison(w io.Writer, c *Comparison) error {
	return r.encode(w, c)
}

func (r *JSONReporter) encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	if r.pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
