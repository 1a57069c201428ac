// Package agent defines the contract between the evaluation harness
// and the LLM agent runtime it drives. The harness supplies a task
// prompt, a working directory, a tool allow-list and a turn budget;
// the agent returns a transcript, the ordered tool calls it made,
// its cost and the number of turns used.
package agent

import (
	"context"
	"strings"
)

// Tool names understood by agent implementations.
const (
	ToolBash            = "Bash"
	ToolRead            = "Read"
	ToolWrite           = "Write"
	ToolGlob            = "Glob"
	ToolGrep            = "Grep"
	ToolSkill           = "Skill"
	ToolAskUserQuestion = "AskUserQuestion"
)

// DefaultTools is the allow-list given to agent suites.
var DefaultTools = []string{
	ToolSkill, ToolBash, ToolRead, ToolWrite, ToolGlob, ToolGrep,
	ToolAskUserQuestion,
}

// DefaultMaxTurns bounds a task that does not set its own budget.
const DefaultMaxTurns = 30

// Task is one unit of agent work.
type Task struct {
	// Prompt is the user message that starts the conversation.
	Prompt string
	// Dir is the working directory every tool is confined to.
	Dir string
	// System is an optional system prompt.
	System string
	// Tools is the allow-list. Empty means DefaultTools.
	Tools []string
	// MaxTurns bounds the number of model round trips.
	MaxTurns int
	// Skills maps skill names to their instructional content,
	// loadable through the Skill tool. Nil disables skills.
	Skills map[string]string
}

// AllowedTools returns the effective allow-list.
func (t Task) AllowedTools() []string {
	if len(t.Tools) == 0 {
		return DefaultTools
	}
	return t.Tools
}

// Turns returns the effective turn budget.
func (t Task) Turns() int {
	if t.MaxTurns <= 0 {
		return DefaultMaxTurns
	}
	return t.MaxTurns
}

// ToolCall is one tool invocation made by the agent.
type ToolCall struct {
	Name  string         `json:"name"`
	Input map[string]any `json:"input"`
}

// Execution is what the harness receives back from a task.
type Execution struct {
	Transcript string     `json:"transcript"`
	ToolCalls  []ToolCall `json:"tool_calls"`
	CostUSD    float64    `json:"cost_usd"`
	Turns      int        `json:"turns_used"`
}

// SkillInvoked reports whether the agent loaded the named skill.
func (e *Execution) SkillInvoked(name string) bool {
	if e == nil || name == "" {
		return false
	}
	for _, c := range e.ToolCalls {
		if c.Name != ToolSkill {
			continue
		}
		if s, _ := c.Input["skill"].(string); s == name {
			return true
		}
		if s, _ := c.Input["command"].(string); s == name {
			return true
		}
	}
	return false
}

// Commands returns the shell commands the agent ran, in order.
func (e *Execution) Commands() []string {
	if e == nil {
		return nil
	}
	var cmds []string
	for _, c := range e.ToolCalls {
		if c.Name != ToolBash {
			continue
		}
		if s, ok := c.Input["command"].(string); ok {
			cmds = append(cmds, s)
		}
	}
	return cmds
}

// Evidence joins the transcript with every shell command so that
// text checks see both what the agent said and what it ran.
func (e *Execution) Evidence() string {
	if e == nil {
		return ""
	}
	parts := append([]string{e.Transcript}, e.Commands()...)
	return strings.Join(parts, "\n")
}

// Agent runs a task to completion. Implementations must honor ctx
// cancellation and Task.MaxTurns, and should emit events to obs
// when it is non-nil.
type Agent interface {
	Execute(ctx context.Context, task Task, obs Observer) (*Execution, error)
}

// Completion is a single-shot prompt used by the text suites.
type Completion struct {
	System    string
	Prompt    string
	MaxTokens int
}

// CompletionResult is the text and cost of one Completion.
type CompletionResult struct {
	Text    string
	CostUSD float64
}

// Completer answers a single prompt without tools.
type Completer interface {
	Complete(ctx context.Context, c Completion) (*CompletionResult, error)
}
