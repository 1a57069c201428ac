// Package runner drives test cases end to end: it selects cases
// from the bank, resolves fixtures and skills, evaluates each case
// under bounded concurrency and folds the details into suite
// statistics.
package runner

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"

	"digital.vasic.skilleval/pkg/agent"
	"digital.vasic.skilleval/pkg/bank"
	"digital.vasic.skilleval/pkg/evaluator"
	"digital.vasic.skilleval/pkg/fixture"
	"digital.vasic.skilleval/pkg/logging"
	"digital.vasic.skilleval/pkg/metrics"
	"digital.vasic.skilleval/pkg/skill"
	"digital.vasic.skilleval/pkg/telemetry"
)

// DefaultConcurrency is the number of tests run at once when
// neither the runner nor the request sets one.
const DefaultConcurrency = 3

// Runner defines the interface for suite execution.
type Runner interface {
	// Run evaluates the cases selected by req. Per-test failures
	// are reported in the result; the error is reserved for an
	// unusable request.
	Run(ctx context.Context, req Request) (*SuiteResult, error)
}

// Request selects the cases of one run.
type Request struct {
	// Suite is a known suite or bank.SuiteAll.
	Suite bank.Suite
	// Skill and Name narrow the selection; empty matches all.
	Skill string
	Name  string
	// Concurrency overrides the runner default when positive.
	Concurrency int
	// WithSkills loads each case's skill as context.
	WithSkills bool
	// Observer receives live agent events. Setting it forces
	// concurrency to 1 so streams do not interleave.
	Observer agent.Observer
}

// SuiteResult aggregates the details of one run.
type SuiteResult struct {
	Suite    bank.Suite          `json:"suite"`
	Total    int                 `json:"total"`
	Passed   int                 `json:"passed"`
	Failed   int                 `json:"failed"`
	Skipped  int                 `json:"skipped"`
	PassRate float64             `json:"pass_rate"`
	CostUSD  float64             `json:"cost_usd"`
	Details  []*evaluator.Detail `json:"details"`
}

// Hook is called with every finished detail.
type Hook func(ctx context.Context, d *evaluator.Detail)

// StartHook is called when a case is about to be evaluated.
type StartHook func(ctx context.Context, c *bank.Case, id string)

// DefaultRunner is the standard Runner implementation.
type DefaultRunner struct {
	bank           *bank.Bank
	evaluator      *evaluator.Evaluator
	fixtures       *fixture.Loader
	skills         *skill.Loader
	logger         logging.Logger
	metrics        metrics.EvalMetrics
	concurrency    int
	staleThreshold time.Duration
	preHooks       []StartHook
	postHooks      []Hook
	sinks          agent.Observers
	active         atomic.Int64
}

// NewRunner creates a DefaultRunner with the supplied options.
func NewRunner(opts ...RunnerOption) *DefaultRunner {
	r := &DefaultRunner{
		bank:        bank.New(),
		evaluator:   evaluator.New(),
		logger:      logging.NullLogger{},
		metrics:     metrics.NoopMetrics{},
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Select returns the cases req names, in bank order.
func (r *DefaultRunner) Select(req Request) ([]*bank.Case, error) {
	var cases []*bank.Case
	switch {
	case req.Suite == "" || req.Suite == bank.SuiteAll:
		cases = r.bank.All()
	case req.Suite.IsKnown():
		cases = r.bank.BySuite(req.Suite)
	default:
		return nil, errors.Errorf("unknown suite %q", req.Suite)
	}
	return bank.Filter(cases, req.Skill, req.Name), nil
}

// Run evaluates the selected cases and aggregates their details.
func (r *DefaultRunner) Run(ctx context.Context, req Request) (*SuiteResult, error) {
	cases, err := r.Select(req)
	if err != nil {
		return nil, err
	}

	concurrency := req.Concurrency
	if concurrency <= 0 {
		concurrency = r.concurrency
	}
	if req.Observer != nil {
		concurrency = 1
	}

	suite := req.Suite
	if suite == "" {
		suite = bank.SuiteAll
	}

	ctx, span := telemetry.Start(ctx, "suite.run",
		attribute.String("suite", string(suite)),
		attribute.Int("cases", len(cases)),
		attribute.Int("concurrency", concurrency),
		attribute.Bool("with_skills", req.WithSkills),
	)
	defer span.End()

	r.metrics.IncrementRunTotal()
	r.logEvent("suite_started",
		logging.String("suite", string(suite)),
		logging.Int("cases", len(cases)),
		logging.Int("concurrency", concurrency),
		logging.Bool("with_skills", req.WithSkills),
	)

	details := runParallel(ctx, r, cases, req, concurrency)
	result := Aggregate(suite, details)

	telemetry.SetAttributes(ctx,
		attribute.Int("passed", result.Passed),
		attribute.Int("failed", result.Failed),
		attribute.Int("skipped", result.Skipped),
		attribute.Float64("pass_rate", result.PassRate),
	)
	r.logEvent("suite_completed",
		logging.String("suite", string(suite)),
		logging.Int("total", result.Total),
		logging.Int("passed", result.Passed),
		logging.Int("failed", result.Failed),
		logging.Int("skipped", result.Skipped),
		logging.Float("cost_usd", result.CostUSD),
	)
	return result, nil
}

// Aggregate folds details into suite statistics. Skipped tests
// count toward the total but are neither passed nor failed.
func Aggregate(suite bank.Suite, details []*evaluator.Detail) *SuiteResult {
	result := &SuiteResult{
		Suite:   suite,
		Total:   len(details),
		Details: details,
	}
	if result.Details == nil {
		result.Details = []*evaluator.Detail{}
	}
	for _, d := range details {
		result.CostUSD += d.CostUSD
		switch {
		case d.Status == evaluator.StatusSkipped:
			result.Skipped++
		case d.Passed:
			result.Passed++
		default:
			result.Failed++
		}
	}
	if result.Total > 0 {
		result.PassRate = float64(result.Passed) / float64(result.Total)
	}
	return result
}

// runTest resolves one case's fixture and skill and evaluates it.
// It never returns nil; a panic during evaluation becomes an error
// detail for this case only.
func (r *DefaultRunner) runTest(
	ctx context.Context,
	c *bank.Case,
	index int,
	req Request,
) (d *evaluator.Detail) {
	id := c.ID(index)
	ctx, span := telemetry.Start(ctx, "test.run",
		attribute.String("test", id),
		attribute.String("skill", c.Skill),
	)
	defer span.End()
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("test_panicked",
				logging.String("test", id),
				logging.Any("panic", p),
			)
			d = r.finish(ctx, evaluator.Errored(c, id, fmt.Sprintf("panic: %v", p)))
		}
	}()

	in := evaluator.Input{Case: c, ID: id}

	if c.Suite.IsAgent() && r.fixtures != nil {
		fx, err := r.fixtures.Load(ctx, c)
		if err != nil {
			d = evaluator.Skipped(c, id, err.Error())
			r.logEvent("test_skipped",
				logging.String("test", id),
				logging.String("reason", d.Error),
			)
			return r.finish(ctx, d)
		}
		in.Fixture = fx
	}

	if req.WithSkills {
		in.Skill = r.loadSkill(c.Skill)
	}

	r.logEvent("test_started",
		logging.String("test", id),
		logging.String("suite", string(c.Suite)),
		logging.String("skill", c.Skill),
	)
	for _, hook := range r.preHooks {
		hook(ctx, c, id)
	}
	r.metrics.SetActiveTests(int(r.active.Add(1)))
	defer func() { r.metrics.SetActiveTests(int(r.active.Add(-1))) }()

	testCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var live *progress
	if c.Suite.IsAgent() && r.staleThreshold > 0 {
		live = newProgress()
	}
	stop, stuck := startLivenessMonitor(live, r.staleThreshold, cancel, r.logger, id)
	defer stop()

	var observers agent.Observers
	if req.Observer != nil {
		observers = append(observers, agent.Tag(req.Observer, c.Label()))
	}
	for _, sink := range r.sinks {
		observers = append(observers, agent.Tag(sink, id))
	}
	if live != nil {
		observers = append(observers, live)
	}
	if len(observers) > 0 {
		in.Observer = observers
	}

	d = r.evaluator.Evaluate(testCtx, in)
	stop()

	if stuck != nil {
		select {
		case <-stuck:
			d.Status = evaluator.StatusTimedOut
			d.Passed = false
			d.Error = fmt.Sprintf("no agent progress within %s", r.staleThreshold)
		default:
		}
	}

	r.logEvent("test_completed",
		logging.String("test", id),
		logging.String("status", d.Status),
		logging.Float("cost_usd", d.CostUSD),
		logging.Int("turns", d.TurnsUsed),
		logging.Float("duration_seconds", d.Duration.Seconds()),
	)
	return r.finish(ctx, d)
}

func (r *DefaultRunner) finish(ctx context.Context, d *evaluator.Detail) *evaluator.Detail {
	suite := string(d.Suite)
	r.metrics.RecordTest(suite, d.Status, d.Duration)
	r.metrics.RecordCost(suite, d.CostUSD)
	for _, c := range d.Checks {
		r.metrics.RecordCheck(suite, c.Name, c.Passed)
	}
	telemetry.SetAttributes(ctx,
		attribute.String("status", d.Status),
		attribute.Float64("cost_usd", d.CostUSD),
	)
	for _, hook := range r.postHooks {
		hook(ctx, d)
	}
	return d
}

// loadSkill returns the case's skill, or nil when it cannot be
// loaded: the case then runs without skill context.
func (r *DefaultRunner) loadSkill(name string) *skill.Skill {
	if r.skills == nil || name == "" {
		return nil
	}
	s, err := r.skills.Load(name)
	if err != nil {
		r.logger.Warn("skill_unavailable",
			logging.String("skill", name),
			logging.Err(err),
		)
		return nil
	}
	return s
}

// logEvent emits a structured lifecycle entry.
func (r *DefaultRunner) logEvent(event string, fields ...logging.Field) {
	r.logger.Info(event, fields...)
}
