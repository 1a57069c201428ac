package runner

import (
	"time"

	"digital.vasic.skilleval/pkg/agent"
	"digital.vasic.skilleval/pkg/bank"
	"digital.vasic.skilleval/pkg/evaluator"
	"digital.vasic.skilleval/pkg/fixture"
	"digital.vasic.skilleval/pkg/logging"
	"digital.vasic.skilleval/pkg/metrics"
	"digital.vasic.skilleval/pkg/skill"
)

// RunnerOption configures a DefaultRunner.
type RunnerOption func(*DefaultRunner)

// WithBank sets the test bank the runner selects cases from.
func WithBank(b *bank.Bank) RunnerOption {
	return func(r *DefaultRunner) {
		r.bank = b
	}
}

// WithEvaluator sets the evaluator that grades each case.
func WithEvaluator(e *evaluator.Evaluator) RunnerOption {
	return func(r *DefaultRunner) {
		r.evaluator = e
	}
}

// WithFixtures sets the loader resolving agent-suite fixtures.
// Without one, agent cases run against an empty workspace.
func WithFixtures(l *fixture.Loader) RunnerOption {
	return func(r *DefaultRunner) {
		r.fixtures = l
	}
}

// WithSkills sets the loader providing skill context.
func WithSkills(l *skill.Loader) RunnerOption {
	return func(r *DefaultRunner) {
		r.skills = l
	}
}

// WithLogger sets the logger used by the runner.
func WithLogger(logger logging.Logger) RunnerOption {
	return func(r *DefaultRunner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithConcurrency sets the default number of tests run at once.
func WithConcurrency(n int) RunnerOption {
	return func(r *DefaultRunner) {
		r.concurrency = n
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m metrics.EvalMetrics) RunnerOption {
	return func(r *DefaultRunner) {
		if m != nil {
			r.metrics = m
		}
	}
}

// WithStaleThreshold cancels an agent test that reports no event
// for d. Zero disables liveness detection.
func WithStaleThreshold(d time.Duration) RunnerOption {
	return func(r *DefaultRunner) {
		r.staleThreshold = d
	}
}

// WithPostHook adds a hook called with every finished detail,
// skipped ones included.
func WithPostHook(h Hook) RunnerOption {
	return func(r *DefaultRunner) {
		r.postHooks = append(r.postHooks, h)
	}
}

// WithPreHook adds a hook called before each attempted case.
// Cases skipped for a broken fixture never reach it.
func WithPreHook(h StartHook) RunnerOption {
	return func(r *DefaultRunner) {
		r.preHooks = append(r.preHooks, h)
	}
}

// WithEventSink streams the agent events of every test to obs,
// tagged with the test ID. Unlike Request.Observer it does not
// limit concurrency.
func WithEventSink(obs agent.Observer) RunnerOption {
	return func(r *DefaultRunner) {
		if obs != nil {
			r.sinks = append(r.sinks, obs)
		}
	}
}
