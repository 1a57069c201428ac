package evaluator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"

	"digital.vasic.skilleval/pkg/agent"
	"digital.vasic.skilleval/pkg/assessor"
	"digital.vasic.skilleval/pkg/bank"
	"digital.vasic.skilleval/pkg/logging"
	"digital.vasic.skilleval/pkg/workspace"
)

const agentSystem = "You are working in an isolated workspace. The OpenAPI " +
	"document is at openapi.yaml. Use the speakeasy CLI through the Bash tool " +
	"and keep every file you create inside the working directory."

// run is the state of one agent-suite evaluation.
type run struct {
	c       *bank.Case
	ws      *workspace.Workspace
	exec    *agent.Execution
	changes workspace.Changes
}

// agentic runs the agent in a fresh workspace seeded with the
// fixture, then assesses the workspace. The workspace is removed
// on every exit path.
func (e *Evaluator) agentic(ctx context.Context, in Input, d *Detail) {
	d.Prompt = truncate(in.Case.Prompt, 100)
	if e.agent == nil {
		d.Error = "no agent configured for agent suites"
		return
	}

	err := e.withWorkspace(func(ws *workspace.Workspace) error {
		spec, files := "", map[string]string(nil)
		if in.Fixture != nil {
			spec, files = in.Fixture.Spec, in.Fixture.Files
		}
		opts := []workspace.SetupOption{workspace.WithFiles(files)}
		if in.Case.GenYAML != "" {
			opts = append(opts, workspace.WithGenConfig(in.Case.GenYAML))
		}
		if err := ws.Setup(spec, opts...); err != nil {
			return errors.Wrap(err, "setup workspace")
		}

		task := agent.Task{
			Prompt:   in.Case.Prompt,
			Dir:      ws.Root(),
			System:   agentSystem,
			MaxTurns: e.turns(in.Case),
		}
		if in.Skill != nil {
			task.Skills = map[string]string{in.Skill.Name: in.Skill.Raw}
		}

		e.logger.Debug("agent_started",
			logging.String("test", d.ID),
			logging.String("workspace", ws.Root()),
		)
		exec, err := e.agent.Execute(ctx, task, in.Observer)
		if exec != nil {
			d.CostUSD = exec.CostUSD
			d.TurnsUsed = exec.Turns
			d.ExpectedSkillInvoked = exec.SkillInvoked(expectedSkill(in.Case))
		}
		if err != nil {
			return errors.Wrap(err, "agent execution")
		}

		r := &run{c: in.Case, ws: ws, exec: exec}
		if changes, err := ws.Changes(); err == nil {
			r.changes = changes
			d.Changes = &changes
		} else {
			e.logger.Debug("workspace_changes_failed",
				logging.String("test", d.ID),
				logging.Err(err),
			)
		}
		if diff := ws.FixtureDiff(); len(diff) > 0 {
			d.FixtureDiff = diff
		}

		result := e.assess(ctx, r)
		if in.Skill != nil && in.Case.ExpectedSkill != "" {
			result.Require("skill_invoked", d.ExpectedSkillInvoked,
				fmt.Sprintf("expected skill %s", in.Case.ExpectedSkill))
		}
		d.Checks = result.Checks
		d.Passed = result.Passed
		d.Summary = fmt.Sprintf("%d/%d checks passed", result.PassedCount(), len(result.Checks))
		return nil
	})
	if err != nil {
		d.Error = err.Error()
	}
}

func expectedSkill(c *bank.Case) string {
	if c.ExpectedSkill != "" {
		return c.ExpectedSkill
	}
	return c.Skill
}

// assess runs the case's declared assessments, or the defaults of
// its task type, then its transcript assertions.
func (e *Evaluator) assess(ctx context.Context, r *run) *assessor.Result {
	a := assessor.New(r.ws.Root(), e.assessorOpts...)
	result := assessor.NewResult()

	if len(r.c.Checks) > 0 {
		seen := make(map[string]int)
		for _, spec := range r.c.Checks {
			seen[spec.Kind]++
			prefix := spec.Kind + "_"
			if n := seen[spec.Kind]; n > 1 {
				prefix = fmt.Sprintf("%s%d_", spec.Kind, n)
			}
			assessor.Merge(result, e.dispatch(ctx, a, spec, r), prefix)
		}
	} else {
		defaults(a, r, result)
	}

	evidence := r.exec.Evidence()
	for i, res := range e.engine.Check(evidence, r.c.Assertions) {
		result.Require(fmt.Sprintf("assertion_%d_%s", i, res.Type), res.Passed, res.Message)
	}
	return result
}

// defaults applies the standard assessment of each task type.
func defaults(a *assessor.Assessor, r *run, result *assessor.Result) {
	switch r.c.TaskType() {
	case bank.SuiteGeneration:
		assessor.Merge(result, a.Generation(r.c.Target, r.c.ExpectedArtifacts), "")

	case bank.SuiteOverlay:
		path := r.overlayPath()
		assessor.Merge(result, a.Overlay(path), "")
		if len(r.c.ExpectedExtensions) > 0 {
			content, _ := os.ReadFile(filepath.Join(r.ws.Root(), filepath.FromSlash(path)))
			for _, ext := range r.c.ExpectedExtensions {
				ok := strings.Contains(string(content), ext)
				result.Require("extension_"+ext, ok, found(ok, ext))
			}
		}

	case bank.SuiteDiagnosis:
		transcript := strings.ToLower(r.exec.Evidence())
		for _, issue := range r.c.ExpectedIssues {
			ok := strings.Contains(transcript, strings.ToLower(issue))
			result.Require("identified_"+slug(issue), ok, found(ok, issue))
		}

	case bank.SuiteWorkflow:
		assessor.Merge(result, a.WorkflowStructure(""), "")
		evidence := strings.ToLower(r.exec.Evidence())
		for i, step := range r.c.RequiredSteps {
			ok := stepCovered(evidence, step)
			result.Require(fmt.Sprintf("step_%d", i), ok, step)
		}

	default:
		result.Fail("task_type", fmt.Sprintf("unknown task type %s", r.c.TaskType()))
	}
}

// Assess runs one declared assessment against an existing
// directory, outside of any agent run. c supplies the defaults a
// declaration leaves out and may be nil.
func (e *Evaluator) Assess(ctx context.Context, root string, spec bank.Assessment, c *bank.Case) (*assessor.Result, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, errors.Wrap(err, "workspace")
	}
	ws, err := workspace.New(root)
	if err != nil {
		return nil, err
	}
	if c == nil {
		c = &bank.Case{}
	}
	r := &run{c: c, ws: ws}
	return e.dispatch(ctx, assessor.New(root, e.assessorOpts...), spec, r), nil
}

// dispatch runs one declared assessment. Case fields fill in the
// arguments the declaration leaves out.
func (e *Evaluator) dispatch(ctx context.Context, a *assessor.Assessor, spec bank.Assessment, r *run) *assessor.Result {
	language := spec.Language
	if language == "" {
		language = r.c.Target
	}
	docPath := spec.Path
	if docPath == "" {
		docPath = r.overlayPath()
	}

	switch spec.Kind {
	case "generation":
		return a.Generation(language, r.c.ExpectedArtifacts)
	case "overlay":
		return a.Overlay(docPath)
	case "lint_output":
		if isDocument(spec.Path) {
			return a.LintDocument(ctx, spec.Path)
		}
		text := r.exec.Evidence()
		if spec.Path != "" {
			data, err := os.ReadFile(filepath.Join(r.ws.Root(), filepath.FromSlash(spec.Path)))
			if err != nil {
				res := assessor.NewResult()
				res.Fail("lint_output_exists", fmt.Sprintf("%s missing", spec.Path))
				return res
			}
			text = string(data)
		}
		return a.LintOutput(text)
	case "naming":
		return a.Naming(spec.Path, spec.Methods)
	case "sdk_compilation":
		mode := assessor.Mode(spec.Mode)
		if mode == "" {
			mode = e.compileMode
		}
		return a.SDKCompilation(ctx, language, mode)
	case "command_success":
		return a.CommandSuccess(ctx, spec.Command, spec.Args...)
	case "overlay_validation":
		return a.OverlayValidation(ctx, docPath)
	case "pagination_config":
		return a.PaginationConfig(r.documentPath(spec.Path))
	case "workflow_structure":
		return a.WorkflowStructure(spec.Path)
	case "gen_yaml":
		return a.GenYAML(language, spec.Path)
	case "hooks_preserved":
		return a.HooksPreserved(language, spec.Path)
	case "retries_config":
		return a.RetriesConfig(r.documentPath(spec.Path))
	case "terraform_annotations":
		return a.TerraformAnnotations(r.documentPath(spec.Path))
	case "mcp_config":
		return a.MCPConfig(spec.Path)
	case "test_generation":
		return a.TestGeneration(spec.Path)
	case "multi_target_workflow":
		return a.MultiTargetWorkflow(spec.Path)
	case "naming_overlay":
		return a.NamingOverlay(docPath)
	}
	res := assessor.NewResult()
	res.Fail("known_kind", fmt.Sprintf("unknown assessment kind %q", spec.Kind))
	return res
}

// overlayPath is the case's declared output, else the first overlay
// the agent added or modified, else the conventional location.
func (r *run) overlayPath() string {
	if r.c.Output != "" {
		return r.c.Output
	}
	for _, list := range [][]string{r.changes.Added, r.changes.Modified} {
		for _, p := range list {
			if ok, _ := doublestar.Match("**/*overlay*.{yaml,yml}", p); ok {
				return p
			}
		}
	}
	return workspace.OverlayDir + "/overlay.yaml"
}

// documentPath picks the document carrying vendor extensions: the
// declared path, the overlay the agent wrote, or the spec itself.
func (r *run) documentPath(path string) string {
	if path != "" {
		return path
	}
	overlay := r.overlayPath()
	if r.ws.FileExists(overlay) {
		return overlay
	}
	return workspace.SpecFile
}

// isDocument reports whether path names an OpenAPI document rather
// than saved linter output.
func isDocument(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

func found(ok bool, what string) string {
	if ok {
		return what + " found"
	}
	return what + " not found"
}

func slug(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			if b.Len() > 0 && !strings.HasSuffix(b.String(), "_") {
				b.WriteByte('_')
			}
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
