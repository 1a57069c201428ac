package report

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digital.vasic.skilleval/pkg/assessor"
	"digital.vasic.skilleval/pkg/bank"
	"digital.vasic.skilleval/pkg/evaluator"
	"digital.vasic.skilleval/pkg/runner"
	"digital.vasic.skilleval/pkg/tracker"
)

func makeSuiteResult() *runner.SuiteResult {
	return &runner.SuiteResult{
		Suite:    bank.SuiteOverlay,
		Total:    3,
		Passed:   1,
		Failed:   1,
		Skipped:  1,
		PassRate: 1.0 / 3,
		CostUSD:  0.5,
		Details: []*evaluator.Detail{
			{
				ID: "overlay/rename", Name: "rename", Skill: "speakeasy-overlay",
				Suite: bank.SuiteOverlay, Status: evaluator.StatusPassed, Passed: true,
				Summary: "2/2 checks passed", TurnsUsed: 4, CostUSD: 0.25,
				Checks: []assessor.Check{{Name: "overlay_exists", Passed: true, Details: "found"}},
			},
			{
				ID: "overlay/paginate", Name: "paginate", Skill: "speakeasy-overlay",
				Suite: bank.SuiteOverlay, Status: evaluator.StatusFailed,
				Prompt:  "Add <pagination> to the list endpoint",
				Summary: "1/2 checks passed", TurnsUsed: 6, CostUSD: 0.25,
				Checks: []assessor.Check{
					{Name: "overlay_exists", Passed: true, Details: "found"},
					{Name: "extension_x-speakeasy-pagination", Passed: false, Details: "x-speakeasy-pagination not found"},
				},
			},
			{
				ID: "overlay/broken", Name: "broken", Skill: "speakeasy-overlay",
				Suite: bank.SuiteOverlay, Status: evaluator.StatusSkipped,
				Error:  "Spec file not found: fixtures/missing/openapi.yaml",
				Checks: []assessor.Check{},
			},
		},
	}
}

func TestCompare_Deltas(t *testing.T) {
	without := &runner.SuiteResult{Suite: bank.SuiteCorrectness, Passed: 2, Failed: 3, PassRate: 0.4}
	with := &runner.SuiteResult{Suite: bank.SuiteCorrectness, Passed: 4, Failed: 1, PassRate: 0.8}

	c := Compare(without, with)
	require.Len(t, c.Deltas, 3)

	assert.Equal(t, "Pass Rate", c.Deltas[0].Metric)
	assert.InDelta(t, 0.4, c.Deltas[0].Delta, 1e-9)
	assert.True(t, c.Deltas[0].Improved())
	assert.Equal(t, "+40.0%", c.Deltas[0].formatDelta())

	assert.Equal(t, 2.0, c.Deltas[1].Delta)
	assert.True(t, c.Deltas[1].Improved())
	assert.Equal(t, "+2", c.Deltas[1].formatDelta())

	assert.Equal(t, -2.0, c.Deltas[2].Delta)
	assert.True(t, c.Deltas[2].Improved(), "fewer failures is better")
	assert.False(t, c.Deltas[2].Regressed())
}

func TestDelta_Regressed(t *testing.T) {
	d := newDelta("Failed", 1, 3, false, false)
	assert.False(t, d.Improved())
	assert.True(t, d.Regressed())

	unchanged := newDelta("Passed", 2, 2, true, false)
	assert.False(t, unchanged.Improved())
	assert.False(t, unchanged.Regressed())
	assert.Equal(t, "+0", unchanged.formatDelta())
}

func TestReporters_ImplementInterface(t *testing.T) {
	var _ Reporter = &JSONReporter{}
	var _ Reporter = &HTMLReporter{}
	var _ Reporter = &ConsoleReporter{}
}

func TestJSONReporter_WriteReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONReporter(true).WriteReport(&buf, makeSuiteResult()))

	assert.Contains(t, buf.String(), "\n  \"suite\": \"overlay\"")

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, float64(3), decoded["total"])
	details, ok := decoded["details"].([]any)
	require.True(t, ok)
	assert.Len(t, details, 3)
}

func TestJSONReporter_WriteComparison(t *testing.T) {
	res := makeSuiteResult()
	var buf bytes.Buffer
	require.NoError(t, NewJSONReporter(false).WriteComparison(&buf, Compare(res, res)))

	var decoded struct {
		WithoutSkills map[string]any   `json:"without_skills"`
		WithSkills    map[string]any   `json:"with_skills"`
		Deltas        []map[string]any `json:"deltas"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "overlay", decoded.WithSkills["suite"])
	require.Len(t, decoded.Deltas, 3)
	assert.Equal(t, "Failed", decoded.Deltas[2]["metric"])
	assert.Equal(t, false, decoded.Deltas[2]["higher_is_better"])
}

func TestHTMLReporter_WriteReport(t *testing.T) {
	r := NewHTMLReporter()
	r.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	var buf bytes.Buffer
	require.NoError(t, r.WriteReport(&buf, makeSuiteResult()))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Contains(t, out, "<title>Evaluation Results: overlay</title>")
	assert.Contains(t, out, "2026-01-02T03:04:05Z")
	assert.Contains(t, out, "<tr><td>Pass Rate</td><td>33.3%</td></tr>")
	assert.Contains(t, out, "<tr><td>Skipped</td>")
	assert.Contains(t, out, `<td class="status-skipped">SKIPPED</td>`)
	assert.Contains(t, out, "<h2>Failed Tests</h2>")
	assert.Contains(t, out, `<tr class="check-failed"><td>extension_x-speakeasy-pagination</td>`)
	assert.Contains(t, out, "Add &lt;pagination&gt; to the list endpoint")
	assert.Contains(t, out, "Spec file not found")
	assert.NotContains(t, out, "<h3>rename")
	assert.Contains(t, out, "Generated by skilleval")
	assert.True(t, strings.HasSuffix(out, "</html>\n"))
}

func TestHTMLReporter_WriteComparison(t *testing.T) {
	without := &runner.SuiteResult{Suite: bank.SuiteCorrectness, Passed: 3, Failed: 1, PassRate: 0.75}
	with := &runner.SuiteResult{Suite: bank.SuiteCorrectness, Passed: 2, Failed: 2, PassRate: 0.5}

	var buf bytes.Buffer
	require.NoError(t, NewHTMLReporter().WriteComparison(&buf, Compare(without, with)))
	out := buf.String()

	assert.Contains(t, out, "<h1>Comparison: Without Skills vs With Skills</h1>")
	assert.Contains(t, out, `<td class="delta-worse">-25.0%</td>`)
	assert.Contains(t, out, `<td class="delta-worse">+1</td>`)
	assert.Contains(t, out, "<tr><td>Passed</td><td>3</td><td>2</td>")
}

func TestConsoleReporter_WriteReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewConsoleReporter().WriteReport(&buf, makeSuiteResult()))
	out := buf.String()

	assert.Contains(t, out, "Evaluation Results: overlay")
	assert.Contains(t, out, "Total Tests")
	assert.Contains(t, out, "33.3%")
	assert.Contains(t, out, "$0.5000")
	assert.Contains(t, out, "Failed Tests:")
	assert.Contains(t, out, "  • paginate (overlay)")
	assert.Contains(t, out, "    - extension_x-speakeasy-pagination: x-speakeasy-pagination not found")
	assert.Contains(t, out, "  • broken (overlay)")
	assert.Contains(t, out, "    Error: Spec file not found")
	assert.NotContains(t, out, "• rename")
	assert.NotContains(t, out, "\x1b[", "plain writers get no escape codes")
}

func TestConsoleReporter_WriteReport_AllPassed(t *testing.T) {
	res := &runner.SuiteResult{Suite: bank.SuiteActivation, Total: 1, Passed: 1, PassRate: 1}

	var buf bytes.Buffer
	require.NoError(t, NewConsoleReporter().WriteReport(&buf, res))

	assert.Contains(t, buf.String(), "100.0%")
	assert.NotContains(t, buf.String(), "Failed Tests:")
	assert.NotContains(t, buf.String(), "Skipped")
}

func TestConsoleReporter_WriteComparison(t *testing.T) {
	without := &runner.SuiteResult{Passed: 2, Failed: 3, PassRate: 0.4}
	with := &runner.SuiteResult{Passed: 4, Failed: 1, PassRate: 0.8}

	var buf bytes.Buffer
	require.NoError(t, NewConsoleReporter().WriteComparison(&buf, Compare(without, with)))
	out := buf.String()

	assert.Contains(t, out, "Comparison: Without Skills vs With Skills")
	assert.Contains(t, out, "Without Skills")
	assert.Contains(t, out, "40.0%")
	assert.Contains(t, out, "80.0%")
	assert.Contains(t, out, "+40.0%")
	assert.Contains(t, out, "-2")
}

func TestConsoleReporter_WriteTrend(t *testing.T) {
	tr := &tracker.Trend{
		Count:     2,
		PassRate:  tracker.Series{Latest: 1, Avg: 0.9, Values: []float64{1, 0.8}},
		CostUSD:   tracker.Series{Latest: 0.2, Avg: 0.15, Values: []float64{0.2, 0.1}},
		SkillRate: tracker.Series{Values: []float64{}},
		AvgTurns:  tracker.Series{Values: []float64{}},
	}

	var buf bytes.Buffer
	require.NoError(t, NewConsoleReporter().WriteTrend(&buf, tr))
	out := buf.String()

	assert.Contains(t, out, "Trend over 2 runs")
	assert.Contains(t, out, "100.0% 80.0%")
	assert.Contains(t, out, "90.0%")
	assert.Contains(t, out, "$0.2000 $0.1000")
	assert.NotContains(t, out, "Avg Turns")
}

func TestConsoleReporter_WriteList(t *testing.T) {
	dir := t.TempDir()
	var yaml strings.Builder
	yaml.WriteString("tests:\n")
	for i := 0; i < 7; i++ {
		yaml.WriteString("  - name: case" + string(rune('a'+i)) + "\n")
		yaml.WriteString("    skill: speakeasy-correctness\n")
		yaml.WriteString("    prompt: How do I configure retries for every operation in my generated SDK?\n")
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "correctness.yaml"), []byte(yaml.String()), 0o644))

	b := bank.New()
	require.NoError(t, b.LoadDir(dir))

	var buf bytes.Buffer
	require.NoError(t, NewConsoleReporter().WriteList(&buf, b))
	out := buf.String()

	assert.Contains(t, out, "correctness (7 tests)")
	assert.Contains(t, out, "  - speakeasy-correctness: How do I configure retries for every operation in ...")
	assert.Equal(t, 5, strings.Count(out, "  - speakeasy-correctness:"))
	assert.Contains(t, out, "  ... and 2 more")
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "results.json")

	err := WriteFile(path, func(w io.Writer) error {
		return NewJSONReporter(false).WriteReport(w, makeSuiteResult())
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"suite":"overlay"`)
}
