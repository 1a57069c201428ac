package monitor

import (
	"sync"
	"time"

	"digital.vasic.skilleval/pkg/agent"
	"digital.vasic.skilleval/pkg/bank"
)

// DashboardData holds the live state of a suite run.
type DashboardData struct {
	mu        sync.RWMutex
	runID     string
	startTime time.Time
	status    string
	tests     map[string]TestState
}

// Dashboard is a point-in-time copy of DashboardData.
type Dashboard struct {
	RunID     string               `json:"run_id"`
	StartTime time.Time            `json:"start_time"`
	Status    string               `json:"status"` // running, completed, failed
	Tests     map[string]TestState `json:"tests"`
	Summary   DashboardSummary     `json:"summary"`
}

// TestState represents the current state of a test in the dashboard.
type TestState struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Suite     bank.Suite    `json:"suite"`
	Skill     string        `json:"skill"`
	Status    string        `json:"status"`
	StartTime *time.Time    `json:"start_time,omitempty"`
	EndTime   *time.Time    `json:"end_time,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
	Message   string        `json:"message,omitempty"`
	Turn      int           `json:"turn,omitempty"`
	MaxTurns  int           `json:"max_turns,omitempty"`
	LastTool  string        `json:"last_tool,omitempty"`
	CostUSD   float64       `json:"cost_usd,omitempty"`
}

// DashboardSummary holds aggregate stats for the dashboard.
type DashboardSummary struct {
	Total    int     `json:"total"`
	Passed   int     `json:"passed"`
	Failed   int     `json:"failed"`
	Skipped  int     `json:"skipped"`
	Running  int     `json:"running"`
	Pending  int     `json:"pending"`
	PassRate float64 `json:"pass_rate"`
	CostUSD  float64 `json:"cost_usd"`
	Elapsed  string  `json:"elapsed"`
}

// NewDashboardData creates a new dashboard data instance.
func NewDashboardData(runID string) *DashboardData {
	return &DashboardData{
		runID:     runID,
		startTime: time.Now(),
		status:    "running",
		tests:     make(map[string]TestState),
	}
}

// UpdateFromEvent updates dashboard state from a test event.
func (d *DashboardData) UpdateFromEvent(event TestEvent) {
	if event.TestID == "" {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	now := event.Timestamp
	if now.IsZero() {
		now = time.Now()
	}
	state, exists := d.tests[event.TestID]
	if !exists {
		state = TestState{ID: event.TestID}
	}
	if event.Name != "" {
		state.Name = event.Name
	}
	if event.Suite != "" {
		state.Suite = event.Suite
	}
	if event.Skill != "" {
		state.Skill = event.Skill
	}

	switch event.Type {
	case EventStarted:
		state.Status = "running"
		state.StartTime = &now
	case EventAgent:
		applyAgentEvent(&state, event.Agent)
	default:
		if !event.Type.Terminal() {
			break
		}
		state.Status = event.Status
		if state.Status == "" {
			state.Status = string(event.Type)
		}
		state.EndTime = &now
		state.Duration = event.Duration
		state.Message = event.Message
		state.CostUSD = event.CostUSD
	}

	d.tests[event.TestID] = state
}

func applyAgentEvent(state *TestState, e *agent.Event) {
	if e == nil {
		return
	}
	if state.Status == "" {
		state.Status = "running"
	}
	switch e.Type {
	case agent.EventTurn:
		state.Turn, state.MaxTurns = e.Turn, e.MaxTurns
	case agent.EventToolUse:
		state.LastTool = e.Tool
	case agent.EventResult:
		state.CostUSD = e.CostUSD
	}
}

func summarize(tests map[string]TestState, start time.Time) DashboardSummary {
	s := DashboardSummary{}
	for _, t := range tests {
		s.Total++
		s.CostUSD += t.CostUSD
		switch t.Status {
		case "passed":
			s.Passed++
		case "failed", "error", "timed_out":
			s.Failed++
		case "skipped":
			s.Skipped++
		case "running":
			s.Running++
		default:
			s.Pending++
		}
	}
	if completed := s.Passed + s.Failed; completed > 0 {
		s.PassRate = float64(s.Passed) / float64(completed) * 100
	}
	s.Elapsed = time.Since(start).Round(time.Millisecond).String()
	return s
}

// Snapshot returns a copy of the current dashboard state.
func (d *DashboardData) Snapshot() Dashboard {
	d.mu.RLock()
	defer d.mu.RUnlock()
	snap := Dashboard{
		RunID:     d.runID,
		StartTime: d.startTime,
		Status:    d.status,
		Tests:     make(map[string]TestState, len(d.tests)),
		Summary:   summarize(d.tests, d.startTime),
	}
	for k, v := range d.tests {
		snap.Tests[k] = v
	}
	return snap
}

// SetStatus sets the overall run status.
func (d *DashboardData) SetStatus(status string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.status = status
}

// BuildDashboardData creates a DashboardData snapshot from an
// EventCollector by replaying all collected events.
func BuildDashboardData(
	collector *EventCollector,
) *DashboardData {
	data := NewDashboardData("snapshot")
	for _, event := range collector.Events() {
		data.UpdateFromEvent(event)
	}
	return data
}
