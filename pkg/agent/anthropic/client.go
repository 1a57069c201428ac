// Package anthropic implements agent.Agent and agent.Completer on
// the Anthropic Messages API. The agent runs a tool-use loop whose
// tools are confined to the task's working directory.
package anthropic

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/avast/retry-go/v4"
	"github.com/pkg/errors"

	"digital.vasic.skilleval/pkg/agent"
	"digital.vasic.skilleval/pkg/logging"
)

// DefaultModel is used when no model is configured.
const DefaultModel = anthropic.ModelClaudeSonnet4_20250514

// DefaultMaxTokens bounds each agent turn.
const DefaultMaxTokens = 8192

// Client talks to the Messages API.
type Client struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
	attempts  uint
	delay     time.Duration
	logger    logging.Logger
	reqOpts   []option.RequestOption
}

// Option configures a Client.
type Option func(*Client)

// WithModel selects the model id.
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = anthropic.Model(model)
		}
	}
}

// WithMaxTokens bounds the tokens generated per turn.
func WithMaxTokens(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxTokens = int64(n)
		}
	}
}

// WithRetry sets how often a rate-limited or failed request is
// attempted and the initial backoff delay.
func WithRetry(attempts uint, delay time.Duration) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.attempts = attempts
		}
		c.delay = delay
	}
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRequestOptions passes extra options to the SDK client.
func WithRequestOptions(opts ...option.RequestOption) Option {
	return func(c *Client) {
		c.reqOpts = append(c.reqOpts, opts...)
	}
}

// New creates a Client authenticated with apiKey.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		model:     DefaultModel,
		maxTokens: DefaultMaxTokens,
		attempts:  4,
		delay:     2 * time.Second,
		logger:    logging.NullLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	reqOpts := append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}, c.reqOpts...)
	c.client = anthropic.NewClient(reqOpts...)
	return c
}

// Model returns the configured model id.
func (c *Client) Model() string { return string(c.model) }

// Complete answers one prompt without tools.
func (c *Client) Complete(ctx context.Context, req agent.Completion) (*agent.CompletionResult, error) {
	maxTokens := c.maxTokens
	if req.MaxTokens > 0 {
		maxTokens = int64(req.MaxTokens)
	}
	resp, err := c.send(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: maxTokens,
		System:    systemBlocks(req.System),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	})
	if err != nil {
		return nil, err
	}

	var parts []string
	for _, block := range resp.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			parts = append(parts, text.Text)
		}
	}
	return &agent.CompletionResult{
		Text:    strings.Join(parts, "\n"),
		CostUSD: Cost(c.model, resp.Usage),
	}, nil
}

// Execute runs the tool-use loop until the model stops calling
// tools or the turn budget is spent. An API failure is returned
// together with the partial execution.
func (c *Client) Execute(ctx context.Context, task agent.Task, obs agent.Observer) (*agent.Execution, error) {
	start := time.Now()
	tools := toolset(task)
	sess := &session{dir: task.Dir, skills: task.Skills, obs: obs}
	maxTurns := task.Turns()

	messages := []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(task.Prompt)),
	}
	exec := &agent.Execution{ToolCalls: []agent.ToolCall{}}
	var transcript []string

	finish := func() {
		exec.Transcript = strings.Join(transcript, "\n")
		agent.Emit(obs, agent.Event{
			Type:      agent.EventResult,
			CostUSD:   exec.CostUSD,
			TurnsUsed: exec.Turns,
			Elapsed:   time.Since(start),
		})
	}

	for turn := 1; turn <= maxTurns; turn++ {
		agent.Emit(obs, agent.Event{Type: agent.EventTurn, Turn: turn, MaxTurns: maxTurns})

		resp, err := c.send(ctx, anthropic.MessageNewParams{
			Model:     c.model,
			MaxTokens: c.maxTokens,
			System:    systemBlocks(systemPrompt(task)),
			Messages:  messages,
			Tools:     toAnthropicTools(tools),
		})
		if err != nil {
			finish()
			return exec, errors.Wrapf(err, "turn %d", turn)
		}
		exec.Turns = turn
		exec.CostUSD += Cost(c.model, resp.Usage)
		messages = append(messages, resp.ToParam())

		var results []anthropic.ContentBlockParamUnion
		for _, block := range resp.Content {
			switch variant := block.AsAny().(type) {
			case anthropic.TextBlock:
				transcript = append(transcript, variant.Text)
				agent.Emit(obs, agent.Event{Type: agent.EventText, Text: variant.Text})
			case anthropic.ThinkingBlock:
				agent.Emit(obs, agent.Event{Type: agent.EventThinking, Text: variant.Thinking})
			case anthropic.ToolUseBlock:
				input := map[string]any{}
				if err := json.Unmarshal(variant.Input, &input); err != nil {
					input = map[string]any{"raw": string(variant.Input)}
				}
				exec.ToolCalls = append(exec.ToolCalls, agent.ToolCall{Name: variant.Name, Input: input})
				agent.Emit(obs, agent.Event{Type: agent.EventToolUse, Tool: variant.Name, Input: input})

				out, isErr := sess.call(ctx, tools, variant.Name, variant.Input)
				c.logger.Debug("agent_tool_call",
					logging.String("tool", variant.Name),
					logging.Bool("error", isErr),
					logging.Int("turn", turn),
				)
				results = append(results, anthropic.NewToolResultBlock(variant.ID, out, isErr))
			}
		}
		if len(results) == 0 {
			break
		}
		messages = append(messages, anthropic.NewUserMessage(results...))
	}

	finish()
	c.logger.Info("agent_finished",
		logging.Int("turns", exec.Turns),
		logging.Float("cost_usd", exec.CostUSD),
		logging.Int("tool_calls", len(exec.ToolCalls)),
		logging.Duration("elapsed", time.Since(start)),
	)
	return exec, nil
}

// send calls the Messages API, retrying rate limits and server
// errors with exponential backoff.
func (c *Client) send(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error) {
	var resp *anthropic.Message
	err := retry.Do(
		func() error {
			var err error
			resp, err = c.client.Messages.New(ctx, params)
			if err != nil && !retryable(err) {
				return retry.Unrecoverable(err)
			}
			return err
		},
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.MaxDelay(30*time.Second),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("anthropic_retry",
				logging.Int("attempt", int(n)+1),
				logging.Err(err),
			)
		}),
	)
	if err != nil {
		return nil, errors.Wrap(err, "anthropic messages")
	}
	return resp, nil
}

func retryable(err error) bool {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}
	return false
}

func systemBlocks(system string) []anthropic.TextBlockParam {
	if system == "" {
		return nil
	}
	return []anthropic.TextBlockParam{{Text: system}}
}

// systemPrompt lists the loadable skills after the task's own
// system prompt.
func systemPrompt(task agent.Task) string {
	if len(task.Skills) == 0 {
		return task.System
	}
	names := make([]string, 0, len(task.Skills))
	for name := range task.Skills {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	if task.System != "" {
		b.WriteString(task.System)
		b.WriteString("\n\n")
	}
	b.WriteString("Available skills (load one with the Skill tool before starting):\n")
	for _, name := range names {
		b.WriteString("- ")
		b.WriteString(name)
		if desc := skillDescription(task.Skills[name]); desc != "" {
			b.WriteString(": ")
			b.WriteString(desc)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// skillDescription pulls the description line out of SKILL.md
// frontmatter.
func skillDescription(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, "description:"); ok {
			return strings.Trim(strings.TrimSpace(rest), `"'`)
		}
	}
	return ""
}
