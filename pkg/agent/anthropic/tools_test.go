package anthropic

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digital.vasic.skilleval/pkg/agent"
)

func newSession(t *testing.T) (*session, []tool) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".speakeasy"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".speakeasy", "workflow.yaml"), []byte("workflowVersion: 1.0.0\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "openapi.yaml"), []byte("openapi: 3.0.0\npaths: {}\n"), 0o644))
	task := agent.Task{Dir: dir, Skills: map[string]string{"speakeasy-lint": "lint body"}}
	return &session{dir: dir, skills: task.Skills}, toolset(task)
}

func call(t *testing.T, s *session, tools []tool, name string, input any) (string, bool) {
	t.Helper()
	raw, err := json.Marshal(input)
	require.NoError(t, err)
	return s.call(testContext(t), tools, name, raw)
}

func TestTools_ReadWrite(t *testing.T) {
	s, tools := newSession(t)

	out, isErr := call(t, s, tools, agent.ToolWrite, WriteInput{Path: "sdk/README.md", Content: "# SDK"})
	require.False(t, isErr, out)

	out, isErr = call(t, s, tools, agent.ToolRead, ReadInput{Path: "sdk/README.md"})
	require.False(t, isErr)
	assert.Equal(t, "# SDK", out)

	out, isErr = call(t, s, tools, agent.ToolRead, ReadInput{Path: "../outside"})
	assert.True(t, isErr)
	assert.Contains(t, out, "outside the working directory")
}

func TestTools_Bash(t *testing.T) {
	s, tools := newSession(t)

	out, isErr := call(t, s, tools, agent.ToolBash, BashInput{Command: "cat openapi.yaml | head -1"})
	require.False(t, isErr)
	assert.Equal(t, "openapi: 3.0.0", out)

	out, isErr = call(t, s, tools, agent.ToolBash, BashInput{Command: "echo boom >&2; exit 3"})
	assert.True(t, isErr)
	assert.Contains(t, out, "exit code 3")
	assert.Contains(t, out, "boom")
}

func TestTools_GlobAndGrep(t *testing.T) {
	s, tools := newSession(t)

	out, isErr := call(t, s, tools, agent.ToolGlob, GlobInput{Pattern: "**/*.yaml"})
	require.False(t, isErr)
	assert.Equal(t, ".speakeasy/workflow.yaml\nopenapi.yaml", out)

	out, isErr = call(t, s, tools, agent.ToolGrep, GrepInput{Pattern: `^openapi:`})
	require.False(t, isErr)
	assert.Equal(t, "openapi.yaml:1: openapi: 3.0.0", out)

	out, isErr = call(t, s, tools, agent.ToolGrep, GrepInput{Pattern: "("})
	assert.True(t, isErr)
	assert.Contains(t, out, "invalid pattern")
}

func TestTools_Skill(t *testing.T) {
	s, tools := newSession(t)

	out, isErr := call(t, s, tools, agent.ToolSkill, SkillInput{Skill: "speakeasy-lint"})
	require.False(t, isErr)
	assert.Equal(t, "lint body", out)

	_, isErr = call(t, s, tools, agent.ToolSkill, SkillInput{Skill: "nope"})
	assert.True(t, isErr)
}

func TestTools_AskUserQuestion(t *testing.T) {
	s, tools := newSession(t)
	var rec agent.Recorder
	s.obs = &rec

	out, isErr := call(t, s, tools, agent.ToolAskUserQuestion, AskUserQuestionInput{
		Questions: []QuestionInput{{
			Question: "Which target?",
			Options:  []QuestionOption{{Label: "typescript"}, {Label: "python"}},
		}},
	})
	require.False(t, isErr)
	assert.Contains(t, out, "typescript")

	events := rec.Events()
	require.Len(t, events, 1)
	assert.Equal(t, agent.EventInputRequest, events[0].Type)
	assert.Equal(t, "typescript", events[0].Questions[0].AutoAnswer)
}

func TestTools_UnavailableTool(t *testing.T) {
	s := &session{dir: t.TempDir()}
	tools := toolset(agent.Task{Tools: []string{agent.ToolRead}})

	out, isErr := call(t, s, tools, agent.ToolBash, BashInput{Command: "true"})
	assert.True(t, isErr)
	assert.Equal(t, "tool Bash is not available", out)
}

func TestGenerateSchema(t *testing.T) {
	schema := GenerateSchema[BashInput]()
	require.NotNil(t, schema.Properties)
	_, ok := schema.Properties.Get("command")
	assert.True(t, ok)
}
