// Package assessor inspects a post-execution workspace and decides
// whether an SDK generation, overlay, diagnosis or workflow task
// succeeded. Every assessment returns a Result built from ordered
// Check records and never returns an error: missing files,
// malformed documents and failed subprocesses all become failed
// checks.
package assessor

import "fmt"

// Check is a single named verification inside a Result.
type Check struct {
	Name    string         `json:"name"`
	Passed  bool           `json:"passed"`
	Details string         `json:"details"`
	Extra   map[string]any `json:"extra,omitempty"`
}

// Result is the verdict of one assessment call.
type Result struct {
	Passed  bool    `json:"passed"`
	Checks  []Check `json:"checks"`
	Summary string  `json:"summary"`
}

// NewResult returns a passing, empty result.
func NewResult() *Result {
	return &Result{Passed: true, Checks: []Check{}}
}

// Add records an informational check that never changes the
// verdict.
func (r *Result) Add(name string, passed bool, details string) *Check {
	r.Checks = append(r.Checks, Check{
		Name:    name,
		Passed:  passed,
		Details: details,
	})
	return &r.Checks[len(r.Checks)-1]
}

// Require records a check whose failure fails the verdict.
func (r *Result) Require(name string, passed bool, details string) *Check {
	if !passed {
		r.Passed = false
	}
	return r.Add(name, passed, details)
}

// Fail records a failed required check.
func (r *Result) Fail(name, details string) *Check {
	return r.Require(name, false, details)
}

// PassedCount returns the number of passing checks.
func (r *Result) PassedCount() int {
	n := 0
	for _, c := range r.Checks {
		if c.Passed {
			n++
		}
	}
	return n
}

// FailedCount returns the number of failing checks.
func (r *Result) FailedCount() int {
	return len(r.Checks) - r.PassedCount()
}

// Check returns the named check.
func (r *Result) Check(name string) (Check, bool) {
	for _, c := range r.Checks {
		if c.Name == name {
			return c, true
		}
	}
	return Check{}, false
}

// FailedChecks returns the names of failing checks in order.
func (r *Result) FailedChecks() []string {
	var names []string
	for _, c := range r.Checks {
		if !c.Passed {
			names = append(names, c.Name)
		}
	}
	return names
}

// finish sets the default "<passed>/<total> checks passed" summary.
func (r *Result) finish() *Result {
	return r.finishWith("checks passed")
}

func (r *Result) finishWith(noun string) *Result {
	r.Summary = fmt.Sprintf(
		"%d/%d %s", r.PassedCount(), len(r.Checks), noun,
	)
	return r
}

// Merge appends the child's checks to parent with every name
// prefixed, and fails the parent when the child failed.
func Merge(parent, child *Result, prefix string) {
	if child == nil {
		return
	}
	parent.Checks = append(parent.Checks, Prefixed(child, prefix)...)
	if !child.Passed {
		parent.Passed = false
	}
}

// Prefixed returns a copy of the child's checks with prefix
// prepended to each name.
func Prefixed(child *Result, prefix string) []Check {
	out := make([]Check, 0, len(child.Checks))
	for _, c := range child.Checks {
		c.Name = prefix + c.Name
		out = append(out, c)
	}
	return out
}
