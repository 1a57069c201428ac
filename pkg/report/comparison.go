package report

import (
	"fmt"

	"digital.vasic.skilleval/pkg/runner"
)

// Delta is one compared metric.
type Delta struct {
	Metric         string  `json:"metric"`
	Without        float64 `json:"without_skills"`
	With           float64 `json:"with_skills"`
	Delta          float64 `json:"delta"`
	HigherIsBetter bool    `json:"higher_is_better"`
	// Percent marks rates, rendered as percentages.
	Percent bool `json:"-"`
}

// Improved reports whether the change is for the better.
func (d Delta) Improved() bool {
	return (d.Delta > 0 && d.HigherIsBetter) || (d.Delta < 0 && !d.HigherIsBetter)
}

// Regressed reports whether the change is for the worse.
func (d Delta) Regressed() bool {
	return d.Delta != 0 && !d.Improved()
}

func (d Delta) format(v float64) string {
	if d.Percent {
		return fmt.Sprintf("%.1f%%", v*100)
	}
	return fmt.Sprintf("%d", int(v))
}

func (d Delta) formatDelta() string {
	if d.Percent {
		return fmt.Sprintf("%+.1f%%", d.Delta*100)
	}
	return fmt.Sprintf("%+d", int(d.Delta))
}

// Comparison pairs a suite run without skills with one with skills.
type Comparison struct {
	WithoutSkills *runner.SuiteResult `json:"without_skills"`
	WithSkills    *runner.SuiteResult `json:"with_skills"`
	Deltas        []Delta             `json:"deltas"`
}

// Compare computes the deltas between two runs of the same suite.
func Compare(without, with *runner.SuiteResult) *Comparison {
	return &Comparison{
		WithoutSkills: without,
		WithSkills:    with,
		Deltas: []Delta{
			newDelta("Pass Rate", without.PassRate, with.PassRate, true, true),
			newDelta("Passed", float64(without.Passed), float64(with.Passed), true, false),
			newDelta("Failed", float64(without.Failed), float64(with.Failed), false, false),
		},
	}
}

func newDelta(metric string, without, with float64, higher, percent bool) Delta {
	return Delta{
		Metric:         metric,
		Without:        without,
		With:           with,
		Delta:          with - without,
		HigherIsBetter: higher,
		Percent:        percent,
	}
}
