// Package metrics records per-run evaluation counters: test
// outcomes by suite, check results, spend and concurrency.
package metrics

import "time"

// EvalMetrics defines the interface for recording evaluation metrics.
type EvalMetrics interface {
	// RecordTest records a finished test.
	RecordTest(suite, status string, duration time.Duration)
	// RecordCheck records one check outcome.
	RecordCheck(suite, check string, passed bool)
	// RecordCost adds model spend to the suite total.
	RecordCost(suite string, usd float64)
	// IncrementRunTotal increments the total run counter.
	IncrementRunTotal()
	// SetActiveTests sets the gauge of tests in flight.
	SetActiveTests(count int)
}

// NoopMetrics is a no-op implementation of EvalMetrics
// useful for testing or when metrics collection is disabled.
type NoopMetrics struct{}

func (NoopMetrics) RecordTest(_, _ string, _ time.Duration) {}
func (NoopMetrics) RecordCheck(_, _ string, _ bool)         {}
func (NoopMetrics) RecordCost(_ string, _ float64)          {}
func (NoopMetrics) IncrementRunTotal()                      {}
func (NoopMetrics) SetActiveTests(_ int)                    {}
