package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"

	"digital.vasic.skilleval/pkg/agent"
	"digital.vasic.skilleval/pkg/command"
)

const (
	maxToolOutput  = 30_000
	maxGrepMatches = 200
	bashTimeout    = 10 * time.Minute
)

// BashInput runs a shell command in the workspace.
type BashInput struct {
	Command string `json:"command" jsonschema:"description=The shell command to execute"`
	Timeout int    `json:"timeout,omitempty" jsonschema:"description=Timeout in seconds (default 600)"`
}

// ReadInput reads a workspace file.
type ReadInput struct {
	Path string `json:"path" jsonschema:"description=File path relative to the working directory"`
}

// WriteInput writes a workspace file.
type WriteInput struct {
	Path    string `json:"path" jsonschema:"description=File path relative to the working directory"`
	Content string `json:"content" jsonschema:"description=The full file content"`
}

// GlobInput lists workspace files matching a pattern.
type GlobInput struct {
	Pattern string `json:"pattern" jsonschema:"description=The glob pattern, e.g. **/*.yaml"`
}

// GrepInput searches workspace files with a regular expression.
type GrepInput struct {
	Pattern string `json:"pattern" jsonschema:"description=The regular expression to search for"`
	Include string `json:"include,omitempty" jsonschema:"description=Optional glob restricting the files searched"`
}

// SkillInput loads a named skill.
type SkillInput struct {
	Skill string `json:"skill" jsonschema:"description=The name of the skill to load"`
}

// QuestionOption is one selectable answer.
type QuestionOption struct {
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
}

// QuestionInput is one clarifying question.
type QuestionInput struct {
	Question    string           `json:"question"`
	Header      string           `json:"header,omitempty"`
	Options     []QuestionOption `json:"options,omitempty"`
	MultiSelect bool             `json:"multiSelect,omitempty"`
}

// AskUserQuestionInput asks the user one or more questions. The
// harness answers automatically.
type AskUserQuestionInput struct {
	Questions []QuestionInput `json:"questions" jsonschema:"description=The questions to ask"`
}

// GenerateSchema reflects T into an inline JSON schema.
func GenerateSchema[T any]() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

// tool is one agent tool bound to a session.
type tool struct {
	name        string
	description string
	schema      *jsonschema.Schema
	run         func(ctx context.Context, s *session, input json.RawMessage) (string, error)
}

var toolRegistry = map[string]tool{
	agent.ToolBash: {
		name:        agent.ToolBash,
		description: "Run a shell command in the working directory and return its combined output.",
		schema:      GenerateSchema[BashInput](),
		run:         runBash,
	},
	agent.ToolRead: {
		name:        agent.ToolRead,
		description: "Read a file from the working directory.",
		schema:      GenerateSchema[ReadInput](),
		run:         runRead,
	},
	agent.ToolWrite: {
		name:        agent.ToolWrite,
		description: "Write a file in the working directory, creating parent directories.",
		schema:      GenerateSchema[WriteInput](),
		run:         runWrite,
	},
	agent.ToolGlob: {
		name:        agent.ToolGlob,
		description: "List files in the working directory matching a glob pattern.",
		schema:      GenerateSchema[GlobInput](),
		run:         runGlob,
	},
	agent.ToolGrep: {
		name:        agent.ToolGrep,
		description: "Search file contents in the working directory with a regular expression.",
		schema:      GenerateSchema[GrepInput](),
		run:         runGrep,
	},
	agent.ToolSkill: {
		name:        agent.ToolSkill,
		description: "Load the instructions of an available skill by name.",
		schema:      GenerateSchema[SkillInput](),
		run:         runSkill,
	},
	agent.ToolAskUserQuestion: {
		name:        agent.ToolAskUserQuestion,
		description: "Ask the user clarifying questions with selectable options.",
		schema:      GenerateSchema[AskUserQuestionInput](),
		run:         runAskUserQuestion,
	},
}

// session is the per-task state shared by the tools.
type session struct {
	dir    string
	skills map[string]string
	obs    agent.Observer
}

// toolset returns the tools allowed for task. Skill is dropped
// when the task carries no skills.
func toolset(task agent.Task) []tool {
	var tools []tool
	for _, name := range task.AllowedTools() {
		t, ok := toolRegistry[name]
		if !ok {
			continue
		}
		if name == agent.ToolSkill && len(task.Skills) == 0 {
			continue
		}
		tools = append(tools, t)
	}
	return tools
}

func toAnthropicTools(tools []tool) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, len(tools))
	for i, t := range tools {
		out[i] = anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        t.name,
				Description: anthropic.String(t.description),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: t.schema.Properties,
				},
			},
		}
	}
	return out
}

// call runs the named tool and returns its output and whether it
// failed.
func (s *session) call(ctx context.Context, tools []tool, name string, input json.RawMessage) (string, bool) {
	for _, t := range tools {
		if t.name != name {
			continue
		}
		out, err := t.run(ctx, s, input)
		if err != nil {
			return err.Error(), true
		}
		return truncate(out, maxToolOutput), false
	}
	return fmt.Sprintf("tool %s is not available", name), true
}

// resolve maps a tool path onto the workspace, rejecting paths
// that escape it.
func (s *session) resolve(p string) (string, error) {
	if p == "" {
		return "", errors.New("path is required")
	}
	full := p
	if !filepath.IsAbs(full) {
		full = filepath.Join(s.dir, p)
	}
	full = filepath.Clean(full)
	rel, err := filepath.Rel(s.dir, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.Errorf("path %s is outside the working directory", p)
	}
	return full, nil
}

func decode[T any](input json.RawMessage) (T, error) {
	var v T
	if err := json.Unmarshal(input, &v); err != nil {
		return v, errors.Wrap(err, "invalid tool input")
	}
	return v, nil
}

func runBash(ctx context.Context, s *session, input json.RawMessage) (string, error) {
	in, err := decode[BashInput](input)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(in.Command) == "" {
		return "", errors.New("command is required")
	}
	timeout := bashTimeout
	if in.Timeout > 0 {
		timeout = time.Duration(in.Timeout) * time.Second
	}
	res := command.Run(ctx, command.Spec{
		Name:    "sh",
		Args:    []string{"-c", in.Command},
		Dir:     s.dir,
		Timeout: timeout,
	})
	out := res.Output()
	if !res.Success {
		return "", errors.Errorf("exit code %d\n%s", res.ExitCode, out)
	}
	return out, nil
}

func runRead(_ context.Context, s *session, input json.RawMessage) (string, error) {
	in, err := decode[ReadInput](input)
	if err != nil {
		return "", err
	}
	path, err := s.resolve(in.Path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrapf(err, "read %s", in.Path)
	}
	return string(data), nil
}

func runWrite(_ context.Context, s *session, input json.RawMessage) (string, error) {
	in, err := decode[WriteInput](input)
	if err != nil {
		return "", err
	}
	path, err := s.resolve(in.Path)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", errors.Wrapf(err, "create parent of %s", in.Path)
	}
	if err := os.WriteFile(path, []byte(in.Content), 0o644); err != nil {
		return "", errors.Wrapf(err, "write %s", in.Path)
	}
	return fmt.Sprintf("wrote %d bytes to %s", len(in.Content), in.Path), nil
}

func runGlob(_ context.Context, s *session, input json.RawMessage) (string, error) {
	in, err := decode[GlobInput](input)
	if err != nil {
		return "", err
	}
	if !doublestar.ValidatePattern(in.Pattern) {
		return "", errors.Errorf("invalid glob pattern %q", in.Pattern)
	}
	matches, err := doublestar.Glob(os.DirFS(s.dir), in.Pattern, doublestar.WithFilesOnly())
	if err != nil {
		return "", errors.Wrap(err, "glob")
	}
	if len(matches) == 0 {
		return "no files found", nil
	}
	sort.Strings(matches)
	return strings.Join(matches, "\n"), nil
}

func runGrep(_ context.Context, s *session, input json.RawMessage) (string, error) {
	in, err := decode[GrepInput](input)
	if err != nil {
		return "", err
	}
	re, err := regexp.Compile(in.Pattern)
	if err != nil {
		return "", errors.Wrap(err, "invalid pattern")
	}
	include := in.Include
	if include == "" {
		include = "**/*"
	}

	fsys := os.DirFS(s.dir)
	files, err := doublestar.Glob(fsys, include, doublestar.WithFilesOnly())
	if err != nil {
		return "", errors.Wrap(err, "glob")
	}
	sort.Strings(files)

	var lines []string
	for _, f := range files {
		data, err := fs.ReadFile(fsys, f)
		if err != nil {
			continue
		}
		for i, line := range strings.Split(string(data), "\n") {
			if !re.MatchString(line) {
				continue
			}
			lines = append(lines, fmt.Sprintf("%s:%d: %s", f, i+1, line))
			if len(lines) >= maxGrepMatches {
				return strings.Join(lines, "\n"), nil
			}
		}
	}
	if len(lines) == 0 {
		return "no matches", nil
	}
	return strings.Join(lines, "\n"), nil
}

func runSkill(_ context.Context, s *session, input json.RawMessage) (string, error) {
	in, err := decode[SkillInput](input)
	if err != nil {
		return "", err
	}
	content, ok := s.skills[in.Skill]
	if !ok {
		return "", errors.Errorf("unknown skill %q", in.Skill)
	}
	return content, nil
}

// runAskUserQuestion answers every question with its first option,
// or tells the agent to proceed on its own judgement.
func runAskUserQuestion(_ context.Context, s *session, input json.RawMessage) (string, error) {
	in, err := decode[AskUserQuestionInput](input)
	if err != nil {
		return "", err
	}

	questions := make([]agent.Question, 0, len(in.Questions))
	var answers []string
	for _, q := range in.Questions {
		answer := "Use your best judgement"
		opts := make([]string, 0, len(q.Options))
		for _, o := range q.Options {
			opts = append(opts, o.Label)
		}
		if len(opts) > 0 {
			answer = opts[0]
		}
		questions = append(questions, agent.Question{
			Header:      q.Header,
			Question:    q.Question,
			Options:     opts,
			MultiSelect: q.MultiSelect,
			AutoAnswer:  answer,
		})
		answers = append(answers, fmt.Sprintf("%q: %s", q.Question, answer))
	}
	agent.Emit(s.obs, agent.Event{Type: agent.EventInputRequest, Questions: questions})

	if len(answers) == 0 {
		return "No questions asked. Proceed.", nil
	}
	return "User answered:\n" + strings.Join(answers, "\n"), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "\n... (truncated)"
}
