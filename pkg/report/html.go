package report

import (
	"fmt"
	"html"
	"io"
	"strings"
	"time"

	"digital.vasic.skilleval/pkg/evaluator"
	"digital.vasic.skilleval/pkg/runner"
)

// HTMLReporter renders results as a standalone HTML page.
type HTMLReporter struct {
	now func() time.Time
}

// NewHTMLReporter creates an HTML reporter.
func NewHTMLReporter() *HTMLReporter {
	return &HTMLReporter{now: time.Now}
}

// WriteReport writes an HTML report of one suite run.
func (r *HTMLReporter) WriteReport(
	w io.Writer,
	result *runner.SuiteResult,
) error {
	title := "Evaluation Results: " + string(result.Suite)
	r.writeHeader(w, title)

	fmt.Fprintf(w, "<h1>%s</h1>\n", html.EscapeString(title))
	fmt.Fprintf(
		w,
		"<p><strong>Generated:</strong> %s</p>\n",
		r.now().Format(time.RFC3339),
	)

	r.writeSummaryTable(w, result)
	if len(result.Details) > 0 {
		fmt.Fprintln(w, "<h2>Tests</h2>")
		r.writeTestsTable(w, result.Details)
	}
	r.writeFailures(w, result.Details)

	r.writeFooter(w)
	return nil
}

// WriteComparison writes an HTML table of the two runs.
func (r *HTMLReporter) WriteComparison(
	w io.Writer,
	c *Comparison,
) error {
	title := "Comparison: Without Skills vs With Skills"
	r.writeHeader(w, title)
	fmt.Fprintf(w, "<h1>%s</h1>\n", title)
	fmt.Fprintf(
		w,
		"<p><strong>Suite:</strong> %s</p>\n",
		html.EscapeString(string(c.WithSkills.Suite)),
	)

	fmt.Fprintln(w, "<table>")
	fmt.Fprintln(
		w,
		"<tr><th>Metric</th><th>Without Skills</th>"+
			"<th>With Skills</th><th>Delta</th></tr>",
	)
	for _, d := range c.Deltas {
		cls := ""
		switch {
		case d.Improved():
			cls = "delta-better"
		case d.Regressed():
			cls = "delta-worse"
		}
		fmt.Fprintf(
			w,
			"<tr><td>%s</td><td>%s</td><td>%s</td>"+
				"<td class=\"%s\">%s</td></tr>\n",
			d.Metric, d.format(d.Without), d.format(d.With),
			cls, d.formatDelta(),
		)
	}
	fmt.Fprintln(w, "</table>")

	fmt.Fprintln(w, "<h2>Without Skills</h2>")
	r.writeTestsTable(w, c.WithoutSkills.Details)
	fmt.Fprintln(w, "<h2>With Skills</h2>")
	r.writeTestsTable(w, c.WithSkills.Details)

	r.writeFooter(w)
	return nil
}

func (r *HTMLReporter) writeSummaryTable(
	w io.Writer,
	result *runner.SuiteResult,
) {
	fmt.Fprintln(w, "<h2>Summary</h2>")
	fmt.Fprintln(w, "<table>")
	fmt.Fprintln(w, "<tr><th>Metric</th><th>Value</th></tr>")
	fmt.Fprintf(w, "<tr><td>Total Tests</td><td>%d</td></tr>\n", result.Total)
	fmt.Fprintf(
		w,
		"<tr><td>Passed</td><td class=\"status-passed\">%d</td></tr>\n",
		result.Passed,
	)
	fmt.Fprintf(
		w,
		"<tr><td>Failed</td><td class=\"status-failed\">%d</td></tr>\n",
		result.Failed,
	)
	if result.Skipped > 0 {
		fmt.Fprintf(
			w,
			"<tr><td>Skipped</td><td class=\"status-skipped\">%d</td></tr>\n",
			result.Skipped,
		)
	}
	fmt.Fprintf(
		w,
		"<tr><td>Pass Rate</td><td>%.1f%%</td></tr>\n",
		result.PassRate*100,
	)
	fmt.Fprintf(
		w,
		"<tr><td>Cost</td><td>$%.4f</td></tr>\n",
		result.CostUSD,
	)
	fmt.Fprintln(w, "</table>")
}

func (r *HTMLReporter) writeTestsTable(
	w io.Writer,
	details []*evaluator.Detail,
) {
	if len(details) == 0 {
		return
	}

	fmt.Fprintln(w, "<table>")
	fmt.Fprintln(
		w,
		"<tr><th>Test</th><th>Skill</th><th>Status</th>"+
			"<th>Summary</th><th>Turns</th><th>Cost</th></tr>",
	)
	for _, d := range details {
		fmt.Fprintf(
			w,
			"<tr><td>%s</td><td>%s</td>"+
				"<td class=\"%s\">%s</td><td>%s</td>"+
				"<td>%d</td><td>$%.4f</td></tr>\n",
			html.EscapeString(d.Name),
			html.EscapeString(d.Skill),
			statusClass(d.Status), strings.ToUpper(d.Status),
			html.EscapeString(d.Summary),
			d.TurnsUsed, d.CostUSD,
		)
	}
	fmt.Fprintln(w, "</table>")
}

// writeFailures lists every check of each unsuccessful test, failed
// checks highlighted.
func (r *HTMLReporter) writeFailures(
	w io.Writer,
	details []*evaluator.Detail,
) {
	var failed []*evaluator.Detail
	for _, d := range details {
		if !d.Passed {
			failed = append(failed, d)
		}
	}
	if len(failed) == 0 {
		return
	}

	fmt.Fprintln(w, "<h2>Failed Tests</h2>")
	for _, d := range failed {
		fmt.Fprintf(
			w,
			"<h3>%s <code>%s</code></h3>\n",
			html.EscapeString(d.Name),
			html.EscapeString(string(d.Suite)),
		)
		if d.Prompt != "" {
			fmt.Fprintf(
				w,
				"<p><strong>Prompt:</strong> %s</p>\n",
				html.EscapeString(d.Prompt),
			)
		}
		if d.Error != "" {
			fmt.Fprintf(
				w,
				"<p><strong>Error:</strong> "+
					"<span class=\"status-failed\">%s</span></p>\n",
				html.EscapeString(d.Error),
			)
		}
		if len(d.Checks) == 0 {
			continue
		}

		fmt.Fprintln(w, "<table>")
		fmt.Fprintln(
			w,
			"<tr><th>Check</th><th>Passed</th><th>Details</th></tr>",
		)
		for _, c := range d.Checks {
			passedStr, cls, row := "Yes", "status-passed", ""
			if !c.Passed {
				passedStr, cls, row = "No", "status-failed", " class=\"check-failed\""
			}
			fmt.Fprintf(
				w,
				"<tr%s><td>%s</td><td class=\"%s\">%s</td>"+
					"<td>%s</td></tr>\n",
				row, html.EscapeString(c.Name),
				cls, passedStr,
				html.EscapeString(c.Details),
			)
		}
		fmt.Fprintln(w, "</table>")
	}
}

func statusClass(status string) string {
	switch status {
	case evaluator.StatusPassed:
		return "status-passed"
	case evaluator.StatusSkipped:
		return "status-skipped"
	}
	return "status-failed"
}

func (r *HTMLReporter) writeHeader(w io.Writer, title string) {
	fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>%s</title>
<style>
body {
  font-family: -apple-system, BlinkMacSystemFont,
    "Segoe UI", Roboto, sans-serif;
  max-width: 960px;
  margin: 0 auto;
  padding: 20px;
  color: #333;
  background: #f9f9f9;
}
h1 { color: #2c3e50; border-bottom: 2px solid #3498db; padding-bottom: 10px; }
h2 { color: #2c3e50; margin-top: 30px; }
h3 { color: #34495e; }
table {
  border-collapse: collapse;
  width: 100%%;
  margin: 10px 0;
  background: #fff;
}
th, td {
  border: 1px solid #ddd;
  padding: 8px 12px;
  text-align: left;
}
th { background: #3498db; color: #fff; }
tr:nth-child(even) { background: #f2f2f2; }
.status-passed { color: #27ae60; font-weight: bold; }
.status-failed { color: #e74c3c; font-weight: bold; }
.status-skipped { color: #7f8c8d; font-weight: bold; }
tr.check-failed td { background: #fdecea; }
.delta-better { color: #27ae60; }
.delta-worse { color: #e74c3c; }
code {
  background: #ecf0f1;
  padding: 2px 6px;
  border-radius: 3px;
  font-size: 0.9em;
}
footer {
  margin-top: 40px;
  padding-top: 10px;
  border-top: 1px solid #ddd;
  color: #7f8c8d;
  font-size: 0.9em;
}
</style>
</head>
<body>
`, html.EscapeString(title))
}

func (r *HTMLReporter) writeFooter(w io.Writer) {
	fmt.Fprintln(w, "<footer>")
	fmt.Fprintln(
		w, "<p>Generated by skilleval</p>",
	)
	fmt.Fprintln(w, "</footer>")
	fmt.Fprintln(w, "</body>")
	fmt.Fprintln(w, "</html>")
}
