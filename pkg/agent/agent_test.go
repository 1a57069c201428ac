package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTask_Defaults(t *testing.T) {
	task := Task{}
	assert.Equal(t, DefaultTools, task.AllowedTools())
	assert.Equal(t, DefaultMaxTurns, task.Turns())

	task = Task{Tools: []string{ToolBash}, MaxTurns: 4}
	assert.Equal(t, []string{ToolBash}, task.AllowedTools())
	assert.Equal(t, 4, task.Turns())
}

func TestExecution_SkillInvoked(t *testing.T) {
	e := &Execution{ToolCalls: []ToolCall{
		{Name: ToolBash, Input: map[string]any{"command": "speakeasy-overlay"}},
		{Name: ToolSkill, Input: map[string]any{"skill": "speakeasy-overlay"}},
	}}
	assert.True(t, e.SkillInvoked("speakeasy-overlay"))
	assert.False(t, e.SkillInvoked("other"))
	assert.False(t, e.SkillInvoked(""))

	var nilExec *Execution
	assert.False(t, nilExec.SkillInvoked("speakeasy-overlay"))
}

func TestExecution_Commands(t *testing.T) {
	e := &Execution{
		Transcript: "done",
		ToolCalls: []ToolCall{
			{Name: ToolBash, Input: map[string]any{"command": "speakeasy lint openapi -s openapi.yaml"}},
			{Name: ToolRead, Input: map[string]any{"path": "openapi.yaml"}},
			{Name: ToolBash, Input: map[string]any{"command": "speakeasy run -y"}},
		},
	}
	assert.Equal(t, []string{
		"speakeasy lint openapi -s openapi.yaml",
		"speakeasy run -y",
	}, e.Commands())
	assert.Equal(t, "done\nspeakeasy lint openapi -s openapi.yaml\nspeakeasy run -y", e.Evidence())
}

func TestObservers_FanOutAndTag(t *testing.T) {
	var a, b Recorder
	obs := Tag(Observers{&a, nil, &b}, "overlay/pagination")

	Emit(obs, Event{Type: EventTurn, Turn: 1, MaxTurns: 3})
	Emit(nil, Event{Type: EventText})

	require.Len(t, a.Events(), 1)
	require.Len(t, b.Events(), 1)
	e := a.Events()[0]
	assert.Equal(t, "overlay/pagination", e.TestName)
	assert.False(t, e.Timestamp.IsZero())
	assert.Equal(t, []EventType{EventTurn}, b.Types())
	assert.Nil(t, Tag(nil, "x"))
}
