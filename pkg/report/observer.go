package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"

	"digital.vasic.skilleval/pkg/agent"
)

const (
	thinkingLimit = 500
	textLimit     = 300
	toolLimit     = 400
)

var toolColors = map[string]color.Attribute{
	"Skill": color.FgMagenta,
	"Bash":  color.FgYellow,
	"Read":  color.FgBlue,
	"Write": color.FgGreen,
	"Glob":  color.FgCyan,
	"Grep":  color.FgCyan,
}

// ConsoleObserver streams agent events to a terminal as they
// happen. It is safe for concurrent use, though interleaved tests
// make for unreadable output.
type ConsoleObserver struct {
	mu      sync.Mutex
	w       io.Writer
	noColor bool
	start   time.Time
}

// ObserverOption configures a ConsoleObserver.
type ObserverOption func(*ConsoleObserver)

// WithoutColor disables colour regardless of the terminal.
func WithoutColor() ObserverOption {
	return func(o *ConsoleObserver) { o.noColor = true }
}

// NewConsoleObserver creates an observer writing to w.
func NewConsoleObserver(w io.Writer, opts ...ObserverOption) *ConsoleObserver {
	o := &ConsoleObserver{w: w}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *ConsoleObserver) color(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if o.noColor {
		c.DisableColor()
	}
	return c
}

// OnEvent renders e.
func (o *ConsoleObserver) OnEvent(e agent.Event) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.start.IsZero() {
		o.start = e.Timestamp
	}
	ts := o.color(color.Faint).Sprint(e.Timestamp.Format("15:04:05"))
	if e.TestName != "" {
		ts += " " + o.color(color.Faint).Sprintf("[%s]", e.TestName)
	}

	switch e.Type {
	case agent.EventTurn:
		fmt.Fprintln(o.w)
		fmt.Fprintf(o.w, "%s %s\n", ts,
			o.color(color.FgBlue, color.Bold).Sprintf("Turn %d/%d", e.Turn, e.MaxTurns))

	case agent.EventThinking:
		fmt.Fprintf(o.w, "%s %s\n", ts, o.color(color.FgCyan).Sprint("Thinking..."))
		o.panel(clip(e.Text, thinkingLimit, "..."), color.Faint)

	case agent.EventText:
		if strings.TrimSpace(e.Text) == "" {
			return
		}
		fmt.Fprintf(o.w, "%s %s %s\n", ts,
			o.color(color.FgGreen).Sprint("Agent:"), clip(e.Text, textLimit, "..."))

	case agent.EventToolUse:
		attr, ok := toolColors[e.Tool]
		if !ok {
			attr = color.FgWhite
		}
		fmt.Fprintf(o.w, "%s %s\n", ts, o.color(attr).Sprintf("Tool: %s", e.Tool))
		o.panel(toolInput(e.Input), attr)

	case agent.EventInputRequest:
		fmt.Fprintln(o.w)
		fmt.Fprintf(o.w, "%s %s\n", ts,
			o.color(color.FgYellow, color.Bold).Sprint("Clarifying Question (AskUserQuestion)"))
		for _, q := range e.Questions {
			o.panel(o.question(q), color.FgYellow)
		}

	case agent.EventResult:
		elapsed := e.Elapsed
		if elapsed == 0 {
			elapsed = e.Timestamp.Sub(o.start)
		}
		fmt.Fprintln(o.w)
		fmt.Fprintf(o.w, "%s %s - Turns: %d, Cost: $%.4f, Elapsed: %.1fs\n", ts,
			o.color(color.Bold).Sprint("Complete"), e.TurnsUsed, e.CostUSD, elapsed.Seconds())
		o.start = time.Time{}
	}
}

func (o *ConsoleObserver) question(q agent.Question) string {
	var lines []string
	if q.Header != "" {
		lines = append(lines, o.color(color.Bold).Sprint(q.Header)+": "+q.Question)
	} else {
		lines = append(lines, o.color(color.Bold).Sprint(q.Question))
	}
	if q.MultiSelect {
		lines = append(lines, o.color(color.Faint).Sprint("(multi-select)"))
	}
	lines = append(lines, "")
	for i, opt := range q.Options {
		if opt == q.AutoAnswer {
			lines = append(lines, o.color(color.FgGreen).Sprintf("  → %d. %s (auto-selected)", i+1, opt))
			continue
		}
		lines = append(lines, o.color(color.Faint).Sprintf("  %d. %s", i+1, opt))
	}
	return strings.Join(lines, "\n")
}

func (o *ConsoleObserver) panel(body string, attr color.Attribute) {
	bar := o.color(attr).Sprint("│")
	for _, line := range strings.Split(body, "\n") {
		fmt.Fprintf(o.w, "  %s %s\n", bar, line)
	}
}

func toolInput(input map[string]any) string {
	data, err := json.MarshalIndent(input, "", "  ")
	if err != nil {
		return clip(fmt.Sprint(input), toolLimit, "")
	}
	return clip(string(data), toolLimit, "\n... (truncated)")
}

func clip(s string, n int, suffix string) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + suffix
}
