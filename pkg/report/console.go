package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"digital.vasic.skilleval/pkg/bank"
	"digital.vasic.skilleval/pkg/runner"
	"digital.vasic.skilleval/pkg/tracker"
)

// listLimit is how many cases List shows per suite.
const listLimit = 5

// ConsoleReporter renders results as terminal tables. Colour is
// decided per writer: plain writers get plain text.
type ConsoleReporter struct{}

// NewConsoleReporter creates a console reporter.
func NewConsoleReporter() *ConsoleReporter {
	return &ConsoleReporter{}
}

type palette struct {
	title, label, value, good, bad, dim lipgloss.Style
}

func newPalette(w io.Writer) palette {
	re := lipgloss.NewRenderer(w)
	return palette{
		title: re.NewStyle().Bold(true),
		label: re.NewStyle().Foreground(lipgloss.Color("6")),
		value: re.NewStyle().Foreground(lipgloss.Color("2")),
		good:  re.NewStyle().Foreground(lipgloss.Color("2")),
		bad:   re.NewStyle().Foreground(lipgloss.Color("1")),
		dim:   re.NewStyle().Faint(true),
	}
}

func newTable(p palette, headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(p.dim).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return p.title.Padding(0, 1)
			case col == 0:
				return p.label.Padding(0, 1)
			}
			return p.value.Padding(0, 1)
		})
}

// WriteReport prints the summary table, then the failing checks of
// every unsuccessful test.
func (r *ConsoleReporter) WriteReport(w io.Writer, result *runner.SuiteResult) error {
	p := newPalette(w)

	t := newTable(p, "Metric", "Value").
		Row("Total Tests", fmt.Sprint(result.Total)).
		Row("Passed", fmt.Sprint(result.Passed)).
		Row("Failed", fmt.Sprint(result.Failed))
	if result.Skipped > 0 {
		t.Row("Skipped", fmt.Sprint(result.Skipped))
	}
	t.Row("Pass Rate", fmt.Sprintf("%.1f%%", result.PassRate*100))
	if result.CostUSD > 0 {
		t.Row("Cost", fmt.Sprintf("$%.4f", result.CostUSD))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, p.title.Render("Evaluation Results: "+string(result.Suite)))
	fmt.Fprintln(w, t.Render())

	var failed []string
	for _, d := range result.Details {
		if d.Passed {
			continue
		}
		failed = append(failed, fmt.Sprintf("  • %s (%s)", d.Name, d.Suite))
		if d.Error != "" {
			failed = append(failed, p.dim.Render("    Error: "+d.Error))
		}
		for _, c := range d.Checks {
			if !c.Passed {
				failed = append(failed, p.dim.Render(fmt.Sprintf("    - %s: %s", c.Name, c.Details)))
			}
		}
	}
	if len(failed) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, p.bad.Bold(true).Render("Failed Tests:"))
		fmt.Fprintln(w, strings.Join(failed, "\n"))
	}
	return nil
}

// WriteComparison prints the compared metrics with signed deltas,
// green when the change is an improvement and red otherwise.
func (r *ConsoleReporter) WriteComparison(w io.Writer, c *Comparison) error {
	p := newPalette(w)

	t := newTable(p, "Metric", "Without Skills", "With Skills", "Delta")
	for _, d := range c.Deltas {
		delta := d.formatDelta()
		switch {
		case d.Improved():
			delta = p.good.Render(delta)
		case d.Regressed():
			delta = p.bad.Render(delta)
		}
		t.Row(d.Metric, d.format(d.Without), d.format(d.With), delta)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, p.title.Render("Comparison: Without Skills vs With Skills"))
	fmt.Fprintln(w, t.Render())
	return nil
}

// WriteTrend prints the latest value, window average and history of
// every tracked metric.
func (r *ConsoleReporter) WriteTrend(w io.Writer, tr *tracker.Trend) error {
	p := newPalette(w)

	t := newTable(p, "Metric", "Latest", "Average", "Trend")
	rate := func(v float64) string { return fmt.Sprintf("%.1f%%", v*100) }
	usd := func(v float64) string { return fmt.Sprintf("$%.4f", v) }
	turns := func(v float64) string { return fmt.Sprintf("%.1f", v) }
	addSeries(t, "Pass Rate", tr.PassRate, rate)
	addSeries(t, "Cost", tr.CostUSD, usd)
	addSeries(t, "Skill Invocation", tr.SkillRate, rate)
	if len(tr.AvgTurns.Values) > 0 {
		addSeries(t, "Avg Turns", tr.AvgTurns, turns)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, p.title.Render(fmt.Sprintf("Trend over %d runs", tr.Count)))
	fmt.Fprintln(w, t.Render())
	return nil
}

func addSeries(t *table.Table, label string, s tracker.Series, format func(float64) string) {
	values := make([]string, len(s.Values))
	for i, v := range s.Values {
		values[i] = format(v)
	}
	t.Row(label, format(s.Latest), format(s.Avg), strings.Join(values, " "))
}

// WriteList prints up to five cases of each suite, in suite order.
func (r *ConsoleReporter) WriteList(w io.Writer, b *bank.Bank) error {
	p := newPalette(w)
	grouped := b.Grouped()
	for _, suite := range b.Suites() {
		cases := grouped[suite]
		fmt.Fprintf(w, "\n%s (%d tests)\n", p.title.Render(string(suite)), len(cases))
		for i, c := range cases {
			if i == listLimit {
				fmt.Fprintf(w, "  ... and %d more\n", len(cases)-listLimit)
				break
			}
			fmt.Fprintf(w, "  - %s: %s...\n", c.Skill, truncate(c.Preview(), 50))
		}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
