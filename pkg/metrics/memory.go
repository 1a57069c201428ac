package metrics

import (
	"sort"
	"sync"
	"time"
)

// MemoryMetrics implements EvalMetrics with in-memory counters.
// It is safe for concurrent use.
type MemoryMetrics struct {
	mu        sync.Mutex
	tests     map[string]int
	checks    map[string]int
	durations map[string][]time.Duration
	costs     map[string]float64
	runTotal  int
	active    int
}

// NewMemoryMetrics creates a new MemoryMetrics instance.
func NewMemoryMetrics() *MemoryMetrics {
	return &MemoryMetrics{
		tests:     make(map[string]int),
		checks:    make(map[string]int),
		durations: make(map[string][]time.Duration),
		costs:     make(map[string]float64),
	}
}

func (m *MemoryMetrics) RecordTest(suite, status string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tests[suite+":"+status]++
	m.durations[suite] = append(m.durations[suite], duration)
}

func (m *MemoryMetrics) RecordCheck(suite, check string, passed bool) {
	status := "failed"
	if passed {
		status = "passed"
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checks[suite+":"+check+":"+status]++
}

func (m *MemoryMetrics) RecordCost(suite string, usd float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.costs[suite] += usd
}

func (m *MemoryMetrics) IncrementRunTotal() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runTotal++
}

func (m *MemoryMetrics) SetActiveTests(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = count
}

// TestCount returns the count for a suite+status combination.
func (m *MemoryMetrics) TestCount(suite, status string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tests[suite+":"+status]
}

// CheckCount returns how often check ended with the given verdict.
func (m *MemoryMetrics) CheckCount(suite, check string, passed bool) int {
	status := "failed"
	if passed {
		status = "passed"
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.checks[suite+":"+check+":"+status]
}

// Cost returns the spend recorded for suite.
func (m *MemoryMetrics) Cost(suite string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.costs[suite]
}

// TotalCost returns the spend across all suites.
func (m *MemoryMetrics) TotalCost() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0.0
	for _, c := range m.costs {
		total += c
	}
	return total
}

// MeanDuration returns the average test duration of suite, or 0.
func (m *MemoryMetrics) MeanDuration(suite string) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	ds := m.durations[suite]
	if len(ds) == 0 {
		return 0
	}
	var sum time.Duration
	for _, d := range ds {
		sum += d
	}
	return sum / time.Duration(len(ds))
}

// Suites returns the suites with recorded tests, sorted.
func (m *MemoryMetrics) Suites() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	suites := make([]string, 0, len(m.durations))
	for s := range m.durations {
		suites = append(suites, s)
	}
	sort.Strings(suites)
	return suites
}

// RunTotal returns the total number of runs.
func (m *MemoryMetrics) RunTotal() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runTotal
}

// ActiveTests returns the current active tests gauge.
func (m *MemoryMetrics) ActiveTests() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}
