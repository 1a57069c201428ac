package agent

import (
	"sync"
	"time"
)

// EventType classifies an agent event.
type EventType string

const (
	EventTurn         EventType = "turn"
	EventThinking     EventType = "thinking"
	EventText         EventType = "text"
	EventToolUse      EventType = "tool_use"
	EventInputRequest EventType = "input_request"
	EventResult       EventType = "result"
)

// Question is one clarifying question the agent asked, with the
// answer the harness chose on its behalf.
type Question struct {
	Header      string   `json:"header,omitempty"`
	Question    string   `json:"question"`
	Options     []string `json:"options,omitempty"`
	MultiSelect bool     `json:"multi_select,omitempty"`
	AutoAnswer  string   `json:"auto_answer"`
}

// Event is one observable step of an agent execution. Only the
// fields relevant to Type are set.
type Event struct {
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	TestName  string         `json:"test_name,omitempty"`
	Turn      int            `json:"turn,omitempty"`
	MaxTurns  int            `json:"max_turns,omitempty"`
	Text      string         `json:"text,omitempty"`
	Tool      string         `json:"tool,omitempty"`
	Input     map[string]any `json:"input,omitempty"`
	Questions []Question     `json:"questions,omitempty"`
	CostUSD   float64        `json:"cost_usd,omitempty"`
	TurnsUsed int            `json:"turns_used,omitempty"`
	Elapsed   time.Duration  `json:"elapsed,omitempty"`
}

// Observer receives agent events as they happen.
type Observer interface {
	OnEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// OnEvent calls f.
func (f ObserverFunc) OnEvent(e Event) { f(e) }

// Observers fans events out to several observers.
type Observers []Observer

// OnEvent forwards e to every non-nil observer.
func (o Observers) OnEvent(e Event) {
	for _, obs := range o {
		if obs != nil {
			obs.OnEvent(e)
		}
	}
}

// Tag returns an observer that stamps TestName on every event.
func Tag(obs Observer, testName string) Observer {
	if obs == nil {
		return nil
	}
	return ObserverFunc(func(e Event) {
		e.TestName = testName
		obs.OnEvent(e)
	})
}

// Emit sends e to obs if obs is non-nil, filling the timestamp.
func Emit(obs Observer, e Event) {
	if obs == nil {
		return
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	obs.OnEvent(e)
}

// Recorder is an Observer that keeps every event. It is safe for
// concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// OnEvent appends e.
func (r *Recorder) OnEvent(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Types returns the recorded event types in order.
func (r *Recorder) Types() []EventType {
	events := r.Events()
	out := make([]EventType, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}
