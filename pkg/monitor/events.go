package monitor

import (
	"time"

	"digital.vasic.skilleval/pkg/agent"
	"digital.vasic.skilleval/pkg/bank"
)

// EventType represents the type of a monitor event.
type EventType string

const (
	EventStarted   EventType = "started"
	EventCompleted EventType = "completed"
	EventFailed    EventType = "failed"
	EventSkipped   EventType = "skipped"
	EventTimedOut  EventType = "timed_out"
	EventError     EventType = "error"
	// EventAgent carries one agent event of a running test.
	EventAgent EventType = "agent"
)

// Terminal reports whether t ends a test.
func (t EventType) Terminal() bool {
	switch t {
	case EventCompleted, EventFailed, EventSkipped, EventTimedOut, EventError:
		return true
	}
	return false
}

// TestEvent is a lifecycle or agent event of one test.
type TestEvent struct {
	Type      EventType     `json:"type"`
	TestID    string        `json:"test_id"`
	Name      string        `json:"name,omitempty"`
	Suite     bank.Suite    `json:"suite,omitempty"`
	Skill     string        `json:"skill,omitempty"`
	Status    string        `json:"status,omitempty"`
	Message   string        `json:"message,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
	CostUSD   float64       `json:"cost_usd,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	Agent     *agent.Event  `json:"agent,omitempty"`
}
