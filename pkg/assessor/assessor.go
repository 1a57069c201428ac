package assessor

import (
	"time"

	"digital.vasic.skilleval/pkg/command"
)

// Mode selects the thoroughness of the compilation check.
type Mode string

const (
	// ModeQuick runs a typecheck or syntax pass only.
	ModeQuick Mode = "quick"
	// ModeFull installs dependencies and builds.
	ModeFull Mode = "full"
)

// DefaultGenerator is the generator CLI binary.
const DefaultGenerator = "speakeasy"

// Assessor runs assessments against one workspace root. It holds
// no per-call state; every method returns a fresh Result.
type Assessor struct {
	root           string
	generator      string
	commandTimeout time.Duration
	tolerate       map[Mode]bool
	steps          map[string]map[Mode][]Step
	probes         []Probe
}

// Option configures an Assessor.
type Option func(*Assessor)

// WithGenerator sets the generator binary used by
// OverlayValidation.
func WithGenerator(bin string) Option {
	return func(a *Assessor) {
		if bin != "" {
			a.generator = bin
		}
	}
}

// WithCommandTimeout overrides the CommandSuccess timeout.
func WithCommandTimeout(d time.Duration) Option {
	return func(a *Assessor) {
		if d > 0 {
			a.commandTimeout = d
		}
	}
}

// WithToolchainTolerance sets whether a missing toolchain
// executable is a benign skip for the given compilation mode.
func WithToolchainTolerance(mode Mode, tolerate bool) Option {
	return func(a *Assessor) {
		a.tolerate[mode] = tolerate
	}
}

// WithCompileSteps replaces the compilation steps for one
// language and mode.
func WithCompileSteps(language string, mode Mode, steps []Step) Option {
	return func(a *Assessor) {
		lang := NormalizeTarget(language)
		if a.steps[lang] == nil {
			a.steps[lang] = make(map[Mode][]Step)
		}
		a.steps[lang][mode] = steps
	}
}

// WithProbes replaces the SDK directory location strategies.
func WithProbes(probes ...Probe) Option {
	return func(a *Assessor) {
		a.probes = probes
	}
}

// New creates an Assessor for the workspace at root.
func New(root string, opts ...Option) *Assessor {
	a := &Assessor{
		root:           root,
		generator:      DefaultGenerator,
		commandTimeout: command.DefaultTimeout,
		tolerate: map[Mode]bool{
			ModeQuick: true,
			ModeFull:  false,
		},
		steps:  defaultSteps(),
		probes: DefaultProbes(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Root returns the workspace root.
func (a *Assessor) Root() string { return a.root }

// NormalizeTarget maps target aliases onto canonical language
// names.
func NormalizeTarget(target string) string {
	switch target {
	case "ts":
		return "typescript"
	case "py":
		return "python"
	case "golang":
		return "go"
	case "tf":
		return "terraform"
	case "cs", "c#", "dotnet":
		return "csharp"
	}
	return target
}
