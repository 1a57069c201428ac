package evaluator

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digital.vasic.skilleval/pkg/agent"
	"digital.vasic.skilleval/pkg/assertion"
	"digital.vasic.skilleval/pkg/assessor"
	"digital.vasic.skilleval/pkg/bank"
	"digital.vasic.skilleval/pkg/fixture"
	"digital.vasic.skilleval/pkg/logging"
	"digital.vasic.skilleval/pkg/skill"
	"digital.vasic.skilleval/pkg/workspace"
)

// fakeCompleter answers every prompt with a fixed text.
type fakeCompleter struct {
	mu      sync.Mutex
	text    string
	err     error
	systems []string
}

func (f *fakeCompleter) Complete(_ context.Context, c agent.Completion) (*agent.CompletionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.systems = append(f.systems, c.System)
	if f.err != nil {
		return nil, f.err
	}
	return &agent.CompletionResult{Text: f.text, CostUSD: 0.01}, nil
}

// scriptedAgent writes files into the task directory and reports a
// fixed set of tool calls.
type scriptedAgent struct {
	files  map[string]string
	calls  []agent.ToolCall
	text   string
	err    error
	sawDir string
	task   agent.Task
}

func (s *scriptedAgent) Execute(_ context.Context, task agent.Task, obs agent.Observer) (*agent.Execution, error) {
	s.task = task
	s.sawDir = task.Dir
	for rel, content := range s.files {
		path := filepath.Join(task.Dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return nil, err
		}
	}
	agent.Emit(obs, agent.Event{Type: agent.EventResult, TurnsUsed: 3})
	exec := &agent.Execution{Transcript: s.text, ToolCalls: s.calls, CostUSD: 0.25, Turns: 3}
	return exec, s.err
}

var overlaySkill = &skill.Skill{
	Name:        "speakeasy-overlay",
	Description: "Create OpenAPI overlays that add Speakeasy pagination and retries",
	Raw:         "---\nname: speakeasy-overlay\n---\nUse x-speakeasy-pagination.",
}

func textCase(suite bank.Suite) *bank.Case {
	return &bank.Case{Name: "case", Skill: "speakeasy-overlay", Suite: suite}
}

func TestEvaluator_Activation(t *testing.T) {
	c := textCase(bank.SuiteActivation)
	c.ShouldActivate = []string{"add pagination to my API", "do it"}
	c.ShouldNotActivate = []string{"write a poem", "speakeasy pagination"}

	d := New().Evaluate(testContext(t), Input{Case: c, ID: "activation/case", Skill: overlaySkill})

	require.Len(t, d.Checks, 4)
	assert.True(t, d.Checks[0].Passed)
	// no word longer than three characters
	assert.False(t, d.Checks[1].Passed)
	assert.True(t, d.Checks[2].Passed)
	assert.False(t, d.Checks[3].Passed)
	assert.False(t, d.Passed)
	assert.Equal(t, StatusFailed, d.Status)
	assert.Equal(t, "2/4 checks passed", d.Summary)
}

func TestEvaluator_Activation_NoSkillPassesVacuously(t *testing.T) {
	c := textCase(bank.SuiteActivation)
	c.ShouldActivate = []string{"add pagination"}

	d := New().Evaluate(testContext(t), Input{Case: c})

	assert.True(t, d.Passed)
	assert.Empty(t, d.Checks)
	assert.Equal(t, StatusPassed, d.Status)
}

func TestEvaluator_Correctness(t *testing.T) {
	fc := &fakeCompleter{text: "Run `speakeasy run` after adding x-speakeasy-pagination."}
	c := textCase(bank.SuiteCorrectness)
	c.Prompt = strings.Repeat("p", 150)
	c.Assertions = []assertion.Definition{
		{Type: "contains", Value: "speakeasy run"},
		{Type: "not_contains", Value: "openapi-generator"},
		{Type: "matches", Value: `x-speakeasy-\w+`},
	}

	d := New(WithCompleter(fc)).Evaluate(testContext(t), Input{Case: c, Skill: overlaySkill})

	assert.True(t, d.Passed, d.FailedChecks())
	assert.Len(t, d.Prompt, 100)
	assert.InDelta(t, 0.01, d.CostUSD, 1e-9)
	assert.Equal(t, "assertion_0_contains", d.Checks[0].Name)
	require.Len(t, fc.systems, 1)
	assert.True(t, strings.HasPrefix(fc.systems[0], expertPrompt+"\n\nHere is your skill context:\n\n"))
}

func TestEvaluator_Correctness_WithoutSkillUsesBarePrompt(t *testing.T) {
	fc := &fakeCompleter{text: "nothing useful"}
	c := textCase(bank.SuiteCorrectness)
	c.Assertions = []assertion.Definition{{Type: "contains", Value: "speakeasy run"}}

	d := New(WithCompleter(fc)).Evaluate(testContext(t), Input{Case: c})

	assert.False(t, d.Passed)
	assert.Equal(t, []string{expertPrompt}, fc.systems)
}

func TestEvaluator_Correctness_ModelError(t *testing.T) {
	fc := &fakeCompleter{err: errors.New("rate limited")}
	d := New(WithCompleter(fc)).Evaluate(testContext(t), Input{Case: textCase(bank.SuiteCorrectness)})

	assert.False(t, d.Passed)
	assert.Equal(t, StatusError, d.Status)
	assert.Equal(t, "rate limited", d.Error)
}

func TestEvaluator_Completeness(t *testing.T) {
	fc := &fakeCompleter{text: "1. Validate the OpenAPI document\n2. Generate the SDK"}
	c := textCase(bank.SuiteCompleteness)
	c.RequiredSteps = []string{
		"Validate the OpenAPI spec",   // validate, openapi, spec: 2 of 3 >= 1
		"Generate the TypeScript SDK", // generate, typescript: 1 of 2 >= 1
		"Publish package to npm registry",
	}

	d := New(WithCompleter(fc)).Evaluate(testContext(t), Input{Case: c})

	require.Len(t, d.Checks, 3)
	assert.True(t, d.Checks[0].Passed)
	assert.True(t, d.Checks[1].Passed)
	assert.False(t, d.Checks[2].Passed)
	// 2 of 3 is below the 80% threshold
	assert.False(t, d.Passed)
	assert.Equal(t, "2/3 steps covered", d.Summary)
	assert.True(t, strings.HasPrefix(fc.systems[0], stepsPrompt))
}

func TestStepCovered(t *testing.T) {
	assert.True(t, stepCovered("anything", "do it"))
	assert.True(t, stepCovered("run lint", "lint the spec"))
	assert.False(t, stepCovered("nothing", "validate spec document"))
}

func TestEvaluator_Hallucination(t *testing.T) {
	fc := &fakeCompleter{text: "Add x-speakeasy-magic and run speakeasy deploy."}
	c := textCase(bank.SuiteHallucination)
	c.Prompts = []string{"How do I paginate?"}
	c.ValidExtensions = []string{"x-speakeasy-pagination"}
	c.ValidCommands = []string{"run", "lint"}

	d := New(WithCompleter(fc)).Evaluate(testContext(t), Input{Case: c})

	assert.False(t, d.Passed)
	require.Len(t, d.Checks, 1)
	assert.Equal(t, "prompt_0", d.Checks[0].Name)
	assert.Equal(t, []string{"x-speakeasy-magic"}, d.Checks[0].Extra["invalid_extensions"])
	assert.NotEmpty(t, d.Checks[0].Extra["invalid_commands"])
}

func TestEvaluator_Hallucination_CleanAnswer(t *testing.T) {
	fc := &fakeCompleter{text: "Use x-speakeasy-pagination then speakeasy run."}
	c := textCase(bank.SuiteHallucination)
	c.Prompts = []string{"a", "b"}
	c.ValidExtensions = []string{"x-speakeasy-pagination"}
	c.ValidCommands = []string{"run"}

	d := New(WithCompleter(fc)).Evaluate(testContext(t), Input{Case: c})

	assert.True(t, d.Passed, d.FailedChecks())
	assert.Len(t, d.Checks, 2)
	assert.InDelta(t, 0.02, d.CostUSD, 1e-9)
}

func TestEvaluator_NoCompleter(t *testing.T) {
	d := New().Evaluate(testContext(t), Input{Case: textCase(bank.SuiteCompleteness)})
	assert.Equal(t, StatusError, d.Status)
	assert.Contains(t, d.Error, "no model configured")
}

func TestEvaluator_UnknownSuite(t *testing.T) {
	d := New().Evaluate(testContext(t), Input{Case: textCase("bogus")})
	assert.Equal(t, "Unknown suite: bogus", d.Error)
	assert.False(t, d.Passed)
}

const paginationOverlay = `overlay: 1.0.0
info: {title: pagination, version: 0.0.1}
actions:
  - target: $.paths["/pets"].get
    update:
      x-speakeasy-pagination:
        type: cursor
        inputs:
          - name: cursor
            in: parameters
            type: cursor
        outputs:
          nextCursor: $.next
          results: $.data
`

func TestEvaluator_Overlay_DefaultChecks(t *testing.T) {
	workDir := t.TempDir()
	ag := &scriptedAgent{
		files: map[string]string{"overlays/pagination-overlay.yaml": paginationOverlay},
		calls: []agent.ToolCall{
			{Name: agent.ToolSkill, Input: map[string]any{"skill": "speakeasy-overlay"}},
			{Name: agent.ToolBash, Input: map[string]any{"command": "speakeasy overlay validate -o overlays/pagination-overlay.yaml"}},
		},
		text: "Added cursor pagination.",
	}
	c := &bank.Case{
		Name:               "pagination",
		Skill:              "speakeasy-overlay",
		Suite:              bank.SuiteOverlay,
		Prompt:             "Add pagination to GET /pets",
		ExpectedExtensions: []string{"x-speakeasy-pagination"},
		ExpectedSkill:      "speakeasy-overlay",
		Assertions:         []assertion.Definition{{Type: "contains", Value: "overlay validate"}},
	}

	var rec agent.Recorder
	d := New(WithAgent(ag), WithWorkDir(workDir)).Evaluate(testContext(t), Input{
		Case:     c,
		ID:       "overlay/pagination",
		Skill:    overlaySkill,
		Fixture:  &fixture.Fixture{Spec: "openapi: 3.0.0\n"},
		Observer: &rec,
	})

	assert.True(t, d.Passed, d.FailedChecks())
	assert.Equal(t, StatusPassed, d.Status)
	assert.True(t, d.ExpectedSkillInvoked)
	assert.Equal(t, 3, d.TurnsUsed)
	assert.InDelta(t, 0.25, d.CostUSD, 1e-9)
	require.NotNil(t, d.Changes)
	assert.Equal(t, []string{"overlays/pagination-overlay.yaml"}, d.Changes.Added)

	names := make([]string, 0, len(d.Checks))
	for _, ch := range d.Checks {
		names = append(names, ch.Name)
	}
	assert.Contains(t, names, "overlay_exists")
	assert.Contains(t, names, "extension_x-speakeasy-pagination")
	assert.Contains(t, names, "assertion_0_contains")
	assert.Contains(t, names, "skill_invoked")

	assert.Equal(t, map[string]string{"speakeasy-overlay": overlaySkill.Raw}, ag.task.Skills)
	assert.Len(t, rec.Events(), 1)

	// workspace removed after the run
	_, err := os.Stat(ag.sawDir)
	assert.True(t, os.IsNotExist(err))
}

func TestEvaluator_Generation_DeclaredChecks(t *testing.T) {
	ag := &scriptedAgent{files: map[string]string{
		".speakeasy/workflow.yaml":    "workflowVersion: 1.0.0\nsources: {a: {inputs: [{location: openapi.yaml}]}}\ntargets: {ts: {target: typescript, source: a, output: ./sdk}}\n",
		"sdk/typescript/package.json": "{}",
		"sdk/typescript/src/index.ts": "export {}",
	}}
	c := &bank.Case{
		Name:              "ts",
		Skill:             "speakeasy-generate",
		Suite:             bank.SuiteGeneration,
		Prompt:            "Generate a TypeScript SDK",
		Target:            "typescript",
		ExpectedArtifacts: []string{"package.json"},
		Checks: []bank.Assessment{
			{Kind: "generation"},
			{Kind: "workflow_structure"},
			{Kind: "command_success", Command: "true"},
			{Kind: "command_success", Command: "false"},
		},
	}

	d := New(WithAgent(ag)).Evaluate(testContext(t), Input{Case: c, Fixture: &fixture.Fixture{Spec: "openapi: 3.0.0\n"}})

	assert.False(t, d.Passed)
	assert.Equal(t, []string{"command_success2_exit_code"}, d.FailedChecks())
	assert.False(t, d.ExpectedSkillInvoked)
}

func TestEvaluator_Diagnosis(t *testing.T) {
	ag := &scriptedAgent{
		text: "The spec has a Missing operationId on GET /pets and an invalid $ref.",
		calls: []agent.ToolCall{
			{Name: agent.ToolBash, Input: map[string]any{"command": "speakeasy lint openapi -s openapi.yaml"}},
		},
	}
	c := &bank.Case{
		Name:           "lint",
		Skill:          "speakeasy-diagnose",
		Suite:          bank.SuiteDiagnosis,
		Prompt:         "Why does generation fail?",
		ExpectedIssues: []string{"missing operationId", "circular reference"},
	}

	d := New(WithAgent(ag)).Evaluate(testContext(t), Input{Case: c})

	assert.False(t, d.Passed)
	assert.Equal(t, []string{"identified_circular_reference"}, d.FailedChecks())
}

func TestEvaluator_Workflow_RequiredSteps(t *testing.T) {
	ag := &scriptedAgent{
		files: map[string]string{".speakeasy/workflow.yaml": "workflowVersion: 1.0.0\nsources: {a: {inputs: [{location: openapi.yaml}]}}\ntargets: {t: {target: python, source: a}}\n"},
		calls: []agent.ToolCall{
			{Name: agent.ToolBash, Input: map[string]any{"command": "speakeasy lint openapi -s openapi.yaml"}},
			{Name: agent.ToolBash, Input: map[string]any{"command": "speakeasy run -y"}},
		},
	}
	c := &bank.Case{
		Name:          "lint-then-generate",
		Skill:         "speakeasy-workflow",
		Suite:         bank.SuiteWorkflow,
		Prompt:        "Lint then generate",
		RequiredSteps: []string{"speakeasy lint", "speakeasy run"},
	}

	d := New(WithAgent(ag)).Evaluate(testContext(t), Input{Case: c})

	assert.True(t, d.Passed, d.FailedChecks())
}

func TestEvaluator_AgentError(t *testing.T) {
	ag := &scriptedAgent{err: errors.New("authentication failed")}
	c := &bank.Case{Name: "x", Skill: "s", Suite: bank.SuiteGeneration, Prompt: "go"}

	d := New(WithAgent(ag)).Evaluate(testContext(t), Input{Case: c})

	assert.Equal(t, StatusError, d.Status)
	assert.Contains(t, d.Error, "authentication failed")
	assert.InDelta(t, 0.25, d.CostUSD, 1e-9)
}

func TestEvaluator_NoAgent(t *testing.T) {
	c := &bank.Case{Name: "x", Skill: "s", Suite: bank.SuiteOverlay}
	d := New().Evaluate(testContext(t), Input{Case: c})
	assert.Equal(t, StatusError, d.Status)
}

// blockingAgent waits for cancellation.
type blockingAgent struct{}

func (blockingAgent) Execute(ctx context.Context, _ agent.Task, _ agent.Observer) (*agent.Execution, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestEvaluator_Timeout(t *testing.T) {
	c := &bank.Case{Name: "slow", Skill: "s", Suite: bank.SuiteGeneration}
	d := New(WithAgent(blockingAgent{}), WithTimeout(50*time.Millisecond)).Evaluate(testContext(t), Input{Case: c})

	assert.Equal(t, StatusTimedOut, d.Status)
	assert.False(t, d.Passed)
}

func TestEvaluator_Assess(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "overlays"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "overlays", "overlay.yaml"), []byte(paginationOverlay), 0o644))

	r, err := New().Assess(testContext(t), root, bank.Assessment{Kind: "pagination_config"}, nil)
	require.NoError(t, err)
	assert.True(t, r.Passed, r.FailedChecks())

	r, err = New().Assess(testContext(t), root, bank.Assessment{Kind: "nope"}, nil)
	require.NoError(t, err)
	assert.False(t, r.Passed)

	_, err = New().Assess(testContext(t), filepath.Join(root, "missing"), bank.Assessment{Kind: "overlay"}, nil)
	assert.Error(t, err)
}

func TestEvaluator_Close_RemovesRunDirectory(t *testing.T) {
	workDir := t.TempDir()
	ag := &scriptedAgent{files: map[string]string{"out.txt": "x"}}
	c := &bank.Case{Name: "x", Skill: "s", Suite: bank.SuiteGeneration, Prompt: "go"}
	e := New(WithAgent(ag), WithWorkDir(workDir))

	e.Evaluate(testContext(t), Input{Case: c})
	e.Evaluate(testContext(t), Input{Case: c})

	entries, err := os.ReadDir(workDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "run-"))
	assert.Equal(t, filepath.Join(workDir, entries[0].Name()), filepath.Dir(ag.sawDir))

	require.NoError(t, e.Close())
	entries, err = os.ReadDir(workDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NoError(t, e.Close())
}

func TestEvaluator_WithWorkspace_ReleasesOnPanic(t *testing.T) {
	e := New(WithWorkDir(t.TempDir()))
	t.Cleanup(func() { _ = e.Close() })

	var dir string
	assert.Panics(t, func() {
		_ = e.withWorkspace(func(ws *workspace.Workspace) error {
			dir = ws.Root()
			panic("agent crashed")
		})
	})
	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err))

	sentinel := errors.New("boom")
	err = e.withWorkspace(func(ws *workspace.Workspace) error {
		dir = ws.Root()
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)
	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

// wipingAgent deletes its working directory.
type wipingAgent struct{}

func (wipingAgent) Execute(_ context.Context, task agent.Task, _ agent.Observer) (*agent.Execution, error) {
	return &agent.Execution{}, os.RemoveAll(task.Dir)
}

func TestEvaluator_Agentic_LogsUnreadableChanges(t *testing.T) {
	base, hook := logtest.NewNullLogger()
	base.SetLevel(logrus.DebugLevel)
	c := &bank.Case{Name: "x", Skill: "s", Suite: bank.SuiteGeneration, Prompt: "go"}

	e := New(WithAgent(wipingAgent{}), WithWorkDir(t.TempDir()),
		WithLogger(logging.FromEntry(logrus.NewEntry(base))))
	t.Cleanup(func() { _ = e.Close() })
	d := e.Evaluate(testContext(t), Input{Case: c, ID: "generation/x"})

	assert.Nil(t, d.Changes)
	var logged *logrus.Entry
	for _, entry := range hook.AllEntries() {
		if entry.Message == "workspace_changes_failed" {
			logged = entry
		}
	}
	require.NotNil(t, logged)
	assert.Equal(t, logrus.DebugLevel, logged.Level)
	assert.Equal(t, "generation/x", logged.Data["test"])
}

func TestEvaluator_Assess_LintOutput(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "openapi.yaml"), []byte("openapi: 3.1.0\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "lint.txt"), []byte("Linting complete. 0 issues.\n"), 0o644))

	bin := filepath.Join(t.TempDir(), "speakeasy")
	script := "#!/bin/sh\n[ \"$1\" = lint ] && echo 'error: invalid $ref' && exit 1\nexit 0\n"
	require.NoError(t, os.WriteFile(bin, []byte(script), 0o755))
	e := New(WithAssessorOptions(assessor.WithGenerator(bin)))

	r, err := e.Assess(testContext(t), root, bank.Assessment{Kind: "lint_output", Path: "openapi.yaml"}, nil)
	require.NoError(t, err)
	assert.False(t, r.Passed)
	assert.Contains(t, r.FailedChecks(), "invalid_refs")

	r, err = e.Assess(testContext(t), root, bank.Assessment{Kind: "lint_output", Path: "lint.txt"}, nil)
	require.NoError(t, err)
	assert.True(t, r.Passed, r.FailedChecks())
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "missing_operationid", slug("Missing operationId"))
	assert.Equal(t, "invalid_ref", slug("invalid $ref!"))
}
