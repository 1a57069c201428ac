package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digital.vasic.skilleval/pkg/agent"
	"digital.vasic.skilleval/pkg/bank"
)

func TestDashboardData_UpdateFromEvent(t *testing.T) {
	d := NewDashboardData("run-1")

	d.UpdateFromEvent(TestEvent{Type: EventStarted, TestID: "overlay/rename", Name: "rename", Suite: bank.SuiteOverlay})
	d.UpdateFromEvent(TestEvent{Type: EventAgent, TestID: "overlay/rename",
		Agent: &agent.Event{Type: agent.EventTurn, Turn: 2, MaxTurns: 20}})
	d.UpdateFromEvent(TestEvent{Type: EventAgent, TestID: "overlay/rename",
		Agent: &agent.Event{Type: agent.EventToolUse, Tool: "Write"}})

	snap := d.Snapshot()
	state := snap.Tests["overlay/rename"]
	assert.Equal(t, "running", state.Status)
	assert.Equal(t, 2, state.Turn)
	assert.Equal(t, 20, state.MaxTurns)
	assert.Equal(t, "Write", state.LastTool)
	require.NotNil(t, state.StartTime)
	assert.Equal(t, 1, snap.Summary.Running)

	d.UpdateFromEvent(TestEvent{Type: EventCompleted, TestID: "overlay/rename", Status: "passed", CostUSD: 0.3})
	d.UpdateFromEvent(TestEvent{Type: EventTimedOut, TestID: "overlay/slow", Status: "timed_out", Message: "no agent progress"})
	d.UpdateFromEvent(TestEvent{Type: EventSkipped, TestID: "overlay/broken", Status: "skipped"})

	snap = d.Snapshot()
	assert.Equal(t, "passed", snap.Tests["overlay/rename"].Status)
	assert.Equal(t, "rename", snap.Tests["overlay/rename"].Name, "later events keep earlier fields")
	require.NotNil(t, snap.Tests["overlay/rename"].EndTime)
	assert.Equal(t, "no agent progress", snap.Tests["overlay/slow"].Message)

	s := snap.Summary
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 1, s.Passed)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 1, s.Skipped)
	assert.Equal(t, 0, s.Running)
	assert.InDelta(t, 50.0, s.PassRate, 1e-9)
	assert.InDelta(t, 0.3, s.CostUSD, 1e-9)
	assert.NotEmpty(t, s.Elapsed)
}

func TestDashboardData_IgnoresEventsWithoutTest(t *testing.T) {
	d := NewDashboardData("run-1")
	d.UpdateFromEvent(TestEvent{Type: EventAgent})
	assert.Empty(t, d.Snapshot().Tests)
}

func TestDashboardData_SnapshotIsACopy(t *testing.T) {
	d := NewDashboardData("run-1")
	d.UpdateFromEvent(TestEvent{Type: EventStarted, TestID: "x"})

	snap := d.Snapshot()
	snap.Tests["y"] = TestState{ID: "y"}
	d.SetStatus("completed")

	assert.Len(t, d.Snapshot().Tests, 1)
	assert.Equal(t, "running", snap.Status)
	assert.Equal(t, "completed", d.Snapshot().Status)
	assert.Equal(t, "run-1", snap.RunID)
}

func TestBuildDashboardData(t *testing.T) {
	c := NewEventCollector()
	c.Emit(TestEvent{Type: EventStarted, TestID: "a"})
	c.Emit(TestEvent{Type: EventCompleted, TestID: "a", Status: "passed"})
	c.Emit(TestEvent{Type: EventStarted, TestID: "b"})

	snap := BuildDashboardData(c).Snapshot()
	assert.Equal(t, "snapshot", snap.RunID)
	assert.Equal(t, 1, snap.Summary.Passed)
	assert.Equal(t, 1, snap.Summary.Running)
}
