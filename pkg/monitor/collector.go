package monitor

import (
	"context"
	"sync"
	"time"

	"digital.vasic.skilleval/pkg/agent"
	"digital.vasic.skilleval/pkg/bank"
	"digital.vasic.skilleval/pkg/evaluator"
	"digital.vasic.skilleval/pkg/runner"
)

// DefaultMaxEvents bounds the events an EventCollector retains.
const DefaultMaxEvents = 2048

// EventCollector captures test events and timing data.
type EventCollector struct {
	mu        sync.RWMutex
	events    []TestEvent
	maxEvents int
	handlers  []func(TestEvent)
	stats     CollectorStats
}

// CollectorStats holds aggregate statistics over finished tests.
type CollectorStats struct {
	Total     int           `json:"total"`
	Passed    int           `json:"passed"`
	Failed    int           `json:"failed"`
	Skipped   int           `json:"skipped"`
	TimedOut  int           `json:"timed_out"`
	Errored   int           `json:"errored"`
	CostUSD   float64       `json:"cost_usd"`
	StartTime time.Time     `json:"start_time"`
	Duration  time.Duration `json:"duration"`
}

// NewEventCollector creates a new event collector.
func NewEventCollector() *EventCollector {
	return &EventCollector{
		events:    make([]TestEvent, 0, 64),
		maxEvents: DefaultMaxEvents,
		stats:     CollectorStats{StartTime: time.Now()},
	}
}

// OnEvent registers a handler to be called for each event.
func (c *EventCollector) OnEvent(handler func(TestEvent)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = append(c.handlers, handler)
}

// Emit records an event and notifies all handlers. The oldest
// events are dropped once the retention bound is reached.
func (c *EventCollector) Emit(event TestEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	c.mu.Lock()
	if len(c.events) >= c.maxEvents {
		c.events = append(c.events[:0], c.events[1:]...)
	}
	c.events = append(c.events, event)
	if event.Type.Terminal() {
		c.stats.Total++
		c.stats.CostUSD += event.CostUSD
	}
	switch event.Type {
	case EventCompleted:
		c.stats.Passed++
	case EventFailed:
		c.stats.Failed++
	case EventSkipped:
		c.stats.Skipped++
	case EventTimedOut:
		c.stats.TimedOut++
	case EventError:
		c.stats.Errored++
	}
	c.stats.Duration = time.Since(c.stats.StartTime)
	handlers := make([]func(TestEvent), len(c.handlers))
	copy(handlers, c.handlers)
	c.mu.Unlock()

	for _, h := range handlers {
		h(event)
	}
}

// EmitStarted emits a test started event.
func (c *EventCollector) EmitStarted(tc *bank.Case, id string) {
	c.Emit(TestEvent{
		Type:   EventStarted,
		TestID: id,
		Name:   tc.Label(),
		Suite:  tc.Suite,
		Skill:  tc.Skill,
		Status: "running",
	})
}

// EmitDetail emits the terminal event matching d's status.
func (c *EventCollector) EmitDetail(d *evaluator.Detail) {
	event := TestEvent{
		Type:     detailEvent(d.Status),
		TestID:   d.ID,
		Name:     d.Name,
		Suite:    d.Suite,
		Skill:    d.Skill,
		Status:   d.Status,
		Message:  d.Error,
		Duration: d.Duration,
		CostUSD:  d.CostUSD,
	}
	if event.Message == "" {
		event.Message = d.Summary
	}
	c.Emit(event)
}

func detailEvent(status string) EventType {
	switch status {
	case evaluator.StatusPassed:
		return EventCompleted
	case evaluator.StatusSkipped:
		return EventSkipped
	case evaluator.StatusTimedOut:
		return EventTimedOut
	case evaluator.StatusError:
		return EventError
	}
	return EventFailed
}

// OnAgentEvent records an agent event. The event's TestName is the
// test ID, as stamped by a runner event sink.
func (c *EventCollector) OnAgentEvent(e agent.Event) {
	c.Emit(TestEvent{
		Type:      EventAgent,
		TestID:    e.TestName,
		Timestamp: e.Timestamp,
		Agent:     &e,
	})
}

// RunnerOptions wires the collector into a runner: test starts,
// agent events and finished details all become events.
func (c *EventCollector) RunnerOptions() []runner.RunnerOption {
	return []runner.RunnerOption{
		runner.WithPreHook(func(_ context.Context, tc *bank.Case, id string) {
			c.EmitStarted(tc, id)
		}),
		runner.WithEventSink(agent.ObserverFunc(c.OnAgentEvent)),
		runner.WithPostHook(func(_ context.Context, d *evaluator.Detail) {
			c.EmitDetail(d)
		}),
	}
}

// Events returns a copy of all collected events.
func (c *EventCollector) Events() []TestEvent {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]TestEvent, len(c.events))
	copy(result, c.events)
	return result
}

// Stats returns the current aggregate statistics.
func (c *EventCollector) Stats() CollectorStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := c.stats
	s.Duration = time.Since(s.StartTime)
	return s
}

// Reset clears all collected events and statistics.
func (c *EventCollector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = c.events[:0]
	c.stats = CollectorStats{StartTime: time.Now()}
}
