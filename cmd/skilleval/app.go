package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"digital.vasic.skilleval/pkg/agent/anthropic"
	"digital.vasic.skilleval/pkg/assessor"
	"digital.vasic.skilleval/pkg/bank"
	"digital.vasic.skilleval/pkg/config"
	"digital.vasic.skilleval/pkg/env"
	"digital.vasic.skilleval/pkg/evaluator"
	"digital.vasic.skilleval/pkg/fixture"
	"digital.vasic.skilleval/pkg/httpclient"
	"digital.vasic.skilleval/pkg/logging"
	"digital.vasic.skilleval/pkg/runner"
	"digital.vasic.skilleval/pkg/skill"
	"digital.vasic.skilleval/pkg/speakeasy"
	"digital.vasic.skilleval/pkg/telemetry"
	"digital.vasic.skilleval/pkg/tracker"
)

// flagKeys maps command-line flags onto configuration keys.
var flagKeys = map[string]string{
	"model":           "model",
	"log-level":       "log.level",
	"log-format":      "log.format",
	"tracing-enabled": "tracing.enabled",
	"concurrency":     "concurrency",
}

// app is the state shared by every command of one invocation.
type app struct {
	cfg      config.Config
	env      *env.DefaultLoader
	logger   logging.Logger
	shutdown func(context.Context) error
	span     trace.Span
	closers  []func() error
}

// setup loads configuration, credentials, logging and tracing.
func (a *app) setup(cmd *cobra.Command) error {
	root, _ := cmd.Flags().GetString("root")
	v := config.NewViper(root)
	if err := bindFlags(v, cmd.Flags()); err != nil {
		return err
	}
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.env = env.NewLoader()
	envFile, _ := cmd.Flags().GetString("env-file")
	if err := a.env.LoadOptional(envFile); err != nil {
		return errors.Wrap(err, "failed to load env file")
	}

	base, err := newLogger(cfg.Log, cmd)
	if err != nil {
		return errors.Wrap(err, "failed to create logger")
	}
	a.closers = append(a.closers, base.Close)
	a.logger = logging.NewRedactingLogger(base, a.env.Secrets()...)

	ctx := cmd.Context()
	a.shutdown, err = telemetry.InitTracer(ctx, telemetry.Config{
		Enabled:        cfg.Tracing.Enabled,
		ServiceName:    "skilleval",
		ServiceVersion: version,
		SamplerType:    cfg.Tracing.Sampler,
		SamplerRatio:   cfg.Tracing.Ratio,
	})
	if err != nil {
		return errors.Wrap(err, "failed to initialise tracing")
	}

	ctx, a.span = telemetry.Start(ctx, "skilleval."+cmd.Name(), flagAttributes(cmd.Flags())...)
	cmd.SetContext(logging.WithLogger(ctx, a.logger))
	return nil
}

// newLogger logs to stderr and, when a log file is configured, also
// appends JSON entries to it.
func newLogger(cfg config.LogConfig, cmd *cobra.Command) (logging.Logger, error) {
	console, err := logging.New(logging.Config{Level: cfg.Level, Format: cfg.Format, Output: cmd.ErrOrStderr()})
	if err != nil {
		return nil, err
	}
	if cfg.File == "" {
		return console, nil
	}
	file, err := logging.NewFile(logging.Config{Level: cfg.Level, Format: "json"}, cfg.File)
	if err != nil {
		return nil, err
	}
	return logging.NewMultiLogger(console, file), nil
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var result *multierror.Error
	flags.VisitAll(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok {
			return
		}
		if err := v.BindPFlag(key, f); err != nil {
			result = multierror.Append(result, errors.Wrapf(err, "bind flag %s", f.Name))
		}
	})
	return result.ErrorOrNil()
}

// flagAttributes records the flags set on the command line.
func flagAttributes(flags *pflag.FlagSet) []attribute.KeyValue {
	var attrs []attribute.KeyValue
	flags.Visit(func(f *pflag.Flag) {
		if f.Name == "env-file" {
			return
		}
		attrs = append(attrs, attribute.String("flag."+f.Name, f.Value.String()))
	})
	return attrs
}

// close ends the command span, flushes traces and releases the log
// file. It is safe to call more than once.
func (a *app) close(ctx context.Context) error {
	var result *multierror.Error
	if a.span != nil {
		a.span.End()
		a.span = nil
	}
	if a.shutdown != nil {
		if err := a.shutdown(ctx); err != nil {
			result = multierror.Append(result, errors.Wrap(err, "flush traces"))
		}
		a.shutdown = nil
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			result = multierror.Append(result, err)
		}
	}
	a.closers = nil
	return result.ErrorOrNil()
}

// loadBank reads the suite files of suite from the tests directory.
func (a *app) loadBank(suite bank.Suite) (*bank.Bank, error) {
	if suite != bank.SuiteAll && !suite.IsKnown() {
		return nil, errors.Errorf("unknown suite %q", suite)
	}
	b := bank.New()
	if err := b.LoadSuite(a.cfg.TestsDir, suite); err != nil {
		return nil, err
	}
	return b, nil
}

// newClient returns the Anthropic client, or nil without an API
// key: tests needing the model then fail individually.
func (a *app) newClient() *anthropic.Client {
	key := a.env.GetAPIKey("anthropic")
	if key == "" {
		a.logger.Warn("anthropic_key_missing",
			logging.String("hint", "set ANTHROPIC_API_KEY to run model-backed suites"))
		return nil
	}
	if !env.ValidateAPIKeyFormat(key) {
		a.logger.Warn("anthropic_key_unrecognised", logging.String("key", env.RedactAPIKey(key)))
	}
	return anthropic.New(key,
		anthropic.WithModel(a.cfg.Model),
		anthropic.WithMaxTokens(a.cfg.MaxTokens),
		anthropic.WithLogger(a.logger),
	)
}

// newEvaluator builds the evaluator; its workspaces are removed
// when the app closes.
func (a *app) newEvaluator(ctx context.Context, client *anthropic.Client) *evaluator.Evaluator {
	opts := []evaluator.Option{
		evaluator.WithWorkDir(a.cfg.WorkDir),
		evaluator.WithMaxTurns(a.cfg.MaxTurns),
		evaluator.WithTimeout(a.cfg.TestTimeout),
		evaluator.WithCompileMode(assessor.Mode(a.cfg.CompileMode)),
		evaluator.WithAssessorOptions(assessor.WithGenerator(a.generator(ctx))),
		evaluator.WithLogger(a.logger),
	}
	if client != nil {
		opts = append(opts, evaluator.WithCompleter(client), evaluator.WithAgent(client))
	}
	ev := evaluator.New(opts...)
	a.closers = append(a.closers, ev.Close)
	return ev
}

// generator resolves the generator binary. The default name is
// looked up on PATH and in the usual install locations; any other
// configured value is used as given.
func (a *app) generator(ctx context.Context) string {
	bin := a.cfg.Generator
	if bin != "" && bin != assessor.DefaultGenerator {
		return bin
	}
	found, err := speakeasy.Find()
	if err != nil {
		a.logger.Warn("generator_not_found", logging.Err(err))
		return assessor.DefaultGenerator
	}
	res := speakeasy.New("", speakeasy.WithBinary(found)).Version(ctx)
	a.logger.Debug("generator_resolved",
		logging.String("binary", found),
		logging.String("version", res.Output()),
	)
	return found
}

func (a *app) newFixtures() *fixture.Loader {
	gh := httpclient.NewGitHubClient(a.env.GetAPIKey("github"), httpclient.WithLogger(a.logger))
	return fixture.NewLoader(a.cfg.FixturesDir,
		fixture.WithCacheDir(a.cfg.CacheDir),
		fixture.WithGitHubClient(gh),
		fixture.WithLogger(a.logger),
	)
}

func (a *app) newRunner(b *bank.Bank, ev *evaluator.Evaluator, extra ...runner.RunnerOption) *runner.DefaultRunner {
	opts := []runner.RunnerOption{
		runner.WithBank(b),
		runner.WithEvaluator(ev),
		runner.WithFixtures(a.newFixtures()),
		runner.WithSkills(skill.NewLoader(a.cfg.SkillsDir)),
		runner.WithLogger(a.logger),
		runner.WithConcurrency(a.cfg.Concurrency),
		runner.WithStaleThreshold(a.cfg.StaleAfter),
	}
	return runner.NewRunner(append(opts, extra...)...)
}

// newTracker opens the results tracker, mirrored into SQLite when a
// store path is configured.
func (a *app) newTracker(ctx context.Context) (*tracker.Tracker, error) {
	opts := []tracker.Option{
		tracker.WithModel(a.cfg.Model),
		tracker.WithLogger(a.logger),
	}
	if a.cfg.StorePath != "" {
		if err := os.MkdirAll(filepath.Dir(a.cfg.StorePath), 0o755); err != nil {
			return nil, errors.Wrap(err, "create store directory")
		}
		store, err := tracker.OpenStore(ctx, a.cfg.StorePath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		opts = append(opts, tracker.WithStore(store))
	}
	return tracker.New(a.cfg.ResultsDir, opts...)
}
