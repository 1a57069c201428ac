// Package evaluator grades one test case. Text suites ask the model
// a question and check the answer; agent suites run the agent in a
// fresh workspace and assess what it left behind.
package evaluator

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"digital.vasic.skilleval/pkg/agent"
	"digital.vasic.skilleval/pkg/assertion"
	"digital.vasic.skilleval/pkg/assessor"
	"digital.vasic.skilleval/pkg/bank"
	"digital.vasic.skilleval/pkg/fixture"
	"digital.vasic.skilleval/pkg/logging"
	"digital.vasic.skilleval/pkg/skill"
	"digital.vasic.skilleval/pkg/workspace"
)

// Input is everything needed to evaluate one case.
type Input struct {
	Case *bank.Case
	ID   string
	// Skill is the skill context, nil when running without skills.
	Skill *skill.Skill
	// Fixture seeds the workspace of agent suites.
	Fixture  *fixture.Fixture
	Observer agent.Observer
}

// Evaluator grades test cases. It is safe for concurrent use.
type Evaluator struct {
	completer    agent.Completer
	agent        agent.Agent
	engine       assertion.Engine
	workDir      string
	maxTurns     int
	timeout      time.Duration
	compileMode  assessor.Mode
	assessorOpts []assessor.Option
	logger       logging.Logger

	mu         sync.Mutex
	workspaces *workspace.Manager
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithCompleter sets the model used by the text suites.
func WithCompleter(c agent.Completer) Option {
	return func(e *Evaluator) { e.completer = c }
}

// WithAgent sets the agent used by the agent suites.
func WithAgent(a agent.Agent) Option {
	return func(e *Evaluator) { e.agent = a }
}

// WithEngine replaces the assertion engine.
func WithEngine(engine assertion.Engine) Option {
	return func(e *Evaluator) { e.engine = engine }
}

// WithWorkDir sets the parent directory of agent workspaces.
// Empty means the system temporary directory.
func WithWorkDir(dir string) Option {
	return func(e *Evaluator) { e.workDir = dir }
}

// WithMaxTurns sets the turn budget of cases that set none.
func WithMaxTurns(n int) Option {
	return func(e *Evaluator) { e.maxTurns = n }
}

// WithTimeout bounds each evaluation.
func WithTimeout(d time.Duration) Option {
	return func(e *Evaluator) { e.timeout = d }
}

// WithCompileMode sets the default sdk_compilation mode.
func WithCompileMode(mode assessor.Mode) Option {
	return func(e *Evaluator) {
		if mode != "" {
			e.compileMode = mode
		}
	}
}

// WithAssessorOptions passes options to every Assessor created.
func WithAssessorOptions(opts ...assessor.Option) Option {
	return func(e *Evaluator) {
		e.assessorOpts = append(e.assessorOpts, opts...)
	}
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(e *Evaluator) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an Evaluator.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{
		engine:      assertion.NewEngine(),
		maxTurns:    agent.DefaultMaxTurns,
		timeout:     15 * time.Minute,
		compileMode: assessor.ModeQuick,
		logger:      logging.NullLogger{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate grades in.Case. It never returns nil and never panics
// on bad input: every failure is recorded in the Detail.
func (e *Evaluator) Evaluate(ctx context.Context, in Input) *Detail {
	d := newDetail(in.Case, in.ID)

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	switch in.Case.Suite {
	case bank.SuiteActivation:
		e.activation(in, d)
	case bank.SuiteCorrectness:
		e.correctness(ctx, in, d)
	case bank.SuiteCompleteness:
		e.completeness(ctx, in, d)
	case bank.SuiteHallucination:
		e.hallucination(ctx, in, d)
	case bank.SuiteGeneration, bank.SuiteOverlay, bank.SuiteDiagnosis, bank.SuiteWorkflow:
		e.agentic(ctx, in, d)
	default:
		d.Error = fmt.Sprintf("Unknown suite: %s", in.Case.Suite)
	}

	if ctx.Err() == context.DeadlineExceeded {
		d.Status = StatusTimedOut
		if d.Error == "" {
			d.Error = fmt.Sprintf("timed out after %s", e.timeout)
		}
	}
	return d.finalize()
}

// manager returns the run's workspace manager, creating its base
// directory on first use.
func (e *Evaluator) manager() (*workspace.Manager, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.workspaces != nil {
		return e.workspaces, nil
	}
	base := ""
	if e.workDir != "" {
		base = filepath.Join(e.workDir, "run-"+uuid.NewString())
	}
	m, err := workspace.NewManager(base)
	if err != nil {
		return nil, err
	}
	e.workspaces = m
	e.logger.Debug("workspace_base_created", logging.String("dir", m.Base()))
	return m, nil
}

// withWorkspace runs fn in a fresh workspace and releases it on
// every exit path, including a panic in fn.
func (e *Evaluator) withWorkspace(fn func(*workspace.Workspace) error) (err error) {
	m, err := e.manager()
	if err != nil {
		return err
	}
	name := "ws-" + uuid.NewString()
	ws, err := m.Create(name)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := m.Release(name); rerr != nil && err == nil {
			err = rerr
		}
	}()
	return fn(ws)
}

// Close removes every workspace the evaluator allocated, along with
// their base directory.
func (e *Evaluator) Close() error {
	e.mu.Lock()
	m := e.workspaces
	e.workspaces = nil
	e.mu.Unlock()
	if m == nil {
		return nil
	}
	return m.CleanupAll()
}

func (e *Evaluator) turns(c *bank.Case) int {
	if c.MaxTurns > 0 {
		return c.MaxTurns
	}
	return e.maxTurns
}
