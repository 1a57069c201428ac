// Package config holds the harness configuration record and its
// viper-backed loader.
package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, so
// "concurrency" is read from SKILLEVAL_CONCURRENCY.
const EnvPrefix = "SKILLEVAL"

// DefaultModel is the agent model used when none is configured.
const DefaultModel = "claude-sonnet-4-20250514"

// Config is passed explicitly to every constructor that needs a
// directory, a budget or a collaborator setting.
type Config struct {
	ResultsDir  string `mapstructure:"results_dir"`
	TestsDir    string `mapstructure:"tests_dir"`
	SkillsDir   string `mapstructure:"skills_dir"`
	FixturesDir string `mapstructure:"fixtures_dir"`
	CacheDir    string `mapstructure:"cache_dir"`
	WorkDir     string `mapstructure:"work_dir"`

	Model       string        `mapstructure:"model"`
	Concurrency int           `mapstructure:"concurrency"`
	MaxTurns    int           `mapstructure:"max_turns"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	TestTimeout time.Duration `mapstructure:"test_timeout"`
	// StaleAfter cancels an agent test that emits no event for this
	// long. Zero disables the check.
	StaleAfter time.Duration `mapstructure:"stale_after"`

	Generator   string `mapstructure:"generator"`
	CompileMode string `mapstructure:"compile_mode"`

	MonitorAddr string `mapstructure:"monitor_addr"`
	StorePath   string `mapstructure:"store_path"`

	Log     LogConfig     `mapstructure:"log"`
	Tracing TracingConfig `mapstructure:"tracing"`
}

// LogConfig configures pkg/logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// TracingConfig configures pkg/telemetry.
type TracingConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	Sampler string  `mapstructure:"sampler"`
	Ratio   float64 `mapstructure:"ratio"`
}

// NewConfig returns the defaults, with every directory rooted at
// base ("evals" layout: tests/, fixtures/, results/, .cache/repos).
func NewConfig(base string) Config {
	return Config{
		ResultsDir:  filepath.Join(base, "results"),
		TestsDir:    filepath.Join(base, "tests"),
		SkillsDir:   filepath.Join(base, "..", "skills"),
		FixturesDir: filepath.Join(base, "fixtures"),
		CacheDir:    filepath.Join(base, ".cache", "repos"),
		Model:       DefaultModel,
		Concurrency: 3,
		MaxTurns:    30,
		MaxTokens:   8192,
		TestTimeout: 15 * time.Minute,
		StaleAfter:  5 * time.Minute,
		Generator:   "speakeasy",
		CompileMode: "quick",
		MonitorAddr: "127.0.0.1:8787",
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Tracing: TracingConfig{
			Sampler: "ratio",
			Ratio:   1,
		},
	}
}

// NewViper returns a viper instance seeded with the defaults for
// base, reading SKILLEVAL_* variables and an optional config.yaml in
// $HOME/.skilleval or the working directory.
func NewViper(base string) *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME/.skilleval")
	v.AddConfigPath(".")

	d := NewConfig(base)
	v.SetDefault("results_dir", d.ResultsDir)
	v.SetDefault("tests_dir", d.TestsDir)
	v.SetDefault("skills_dir", d.SkillsDir)
	v.SetDefault("fixtures_dir", d.FixturesDir)
	v.SetDefault("cache_dir", d.CacheDir)
	v.SetDefault("work_dir", d.WorkDir)
	v.SetDefault("model", d.Model)
	v.SetDefault("concurrency", d.Concurrency)
	v.SetDefault("max_turns", d.MaxTurns)
	v.SetDefault("max_tokens", d.MaxTokens)
	v.SetDefault("test_timeout", d.TestTimeout)
	v.SetDefault("stale_after", d.StaleAfter)
	v.SetDefault("generator", d.Generator)
	v.SetDefault("compile_mode", d.CompileMode)
	v.SetDefault("monitor_addr", d.MonitorAddr)
	v.SetDefault("store_path", d.StorePath)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.sampler", d.Tracing.Sampler)
	v.SetDefault("tracing.ratio", d.Tracing.Ratio)
	return v
}

// Load reads the optional config file into v and decodes the result.
// A missing config file is not an error.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return cfg, errors.Wrap(err, "failed to read config file")
		}
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, errors.Wrap(err, "failed to unmarshal configuration")
	}
	return cfg, cfg.Validate()
}

// Validate rejects budgets and modes the runner cannot honour.
func (c Config) Validate() error {
	if c.Concurrency < 1 {
		return errors.Errorf("concurrency must be positive, got %d", c.Concurrency)
	}
	if c.MaxTurns < 1 {
		return errors.Errorf("max_turns must be positive, got %d", c.MaxTurns)
	}
	if c.MaxTokens < 1 {
		return errors.Errorf("max_tokens must be positive, got %d", c.MaxTokens)
	}
	switch c.CompileMode {
	case "quick", "full":
	default:
		return errors.Errorf("compile_mode must be quick or full, got %q", c.CompileMode)
	}
	if c.ResultsDir == "" || c.TestsDir == "" {
		return errors.New("results_dir and tests_dir are required")
	}
	return nil
}
