package evaluator

import (
	"time"

	"digital.vasic.skilleval/pkg/assessor"
	"digital.vasic.skilleval/pkg/bank"
	"digital.vasic.skilleval/pkg/workspace"
)

// Status constants for test outcomes.
const (
	StatusPassed   = "passed"
	StatusFailed   = "failed"
	StatusSkipped  = "skipped"
	StatusTimedOut = "timed_out"
	StatusError    = "error"
)

// Detail captures the complete outcome of one test case.
type Detail struct {
	// ID is the bank identifier, "<suite>/<name>".
	ID string `json:"id"`

	// Name is the human-readable test name.
	Name string `json:"name"`

	Skill string     `json:"skill"`
	Suite bank.Suite `json:"suite"`

	// Status is one of the Status* constants.
	Status string `json:"status"`
	Passed bool   `json:"passed"`

	// Prompt is a truncated copy of the prompt, for reports.
	Prompt string `json:"prompt,omitempty"`

	// Error is set when the test could not be evaluated: a fixture
	// failed to resolve, the agent or model call failed, or the
	// workspace could not be prepared.
	Error string `json:"error,omitempty"`

	// Checks holds every check in evaluation order.
	Checks  []assessor.Check `json:"checks"`
	Summary string           `json:"summary,omitempty"`

	CostUSD              float64 `json:"cost_usd"`
	TurnsUsed            int     `json:"turns_used"`
	ExpectedSkillInvoked bool    `json:"expected_skill_invoked"`

	// Changes is the workspace diff after an agent run.
	Changes *workspace.Changes `json:"changes,omitempty"`

	// FixtureDiff holds unified diffs of fixture files the agent
	// modified.
	FixtureDiff map[string]string `json:"fixture_diff,omitempty"`

	StartTime time.Time     `json:"start_time"`
	Duration  time.Duration `json:"duration"`
}

// Skipped returns the detail of a test that was never attempted.
func Skipped(c *bank.Case, id, reason string) *Detail {
	d := newDetail(c, id)
	d.Status = StatusSkipped
	d.Error = reason
	return d
}

// Errored returns the detail of a test whose evaluation aborted
// before producing a verdict.
func Errored(c *bank.Case, id, reason string) *Detail {
	d := newDetail(c, id)
	d.Error = reason
	return d.finalize()
}

func newDetail(c *bank.Case, id string) *Detail {
	return &Detail{
		ID:        id,
		Name:      c.Label(),
		Skill:     c.Skill,
		Suite:     c.Suite,
		Checks:    []assessor.Check{},
		StartTime: time.Now(),
	}
}

// finalize sets the status from the verdict and the error.
func (d *Detail) finalize() *Detail {
	d.Duration = time.Since(d.StartTime)
	switch {
	case d.Status == StatusTimedOut || d.Status == StatusSkipped:
		d.Passed = false
	case d.Error != "":
		d.Passed = false
		d.Status = StatusError
	case d.Passed:
		d.Status = StatusPassed
	default:
		d.Status = StatusFailed
	}
	return d
}

// FailedChecks returns the names of the failed checks.
func (d *Detail) FailedChecks() []string {
	var names []string
	for _, c := range d.Checks {
		if !c.Passed {
			names = append(names, c.Name)
		}
	}
	return names
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
