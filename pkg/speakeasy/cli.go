// Package speakeasy wraps the Speakeasy generator CLI. Every call
// runs the binary in a working directory with a bounded timeout and
// returns the captured command.Result.
package speakeasy

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"digital.vasic.skilleval/pkg/command"
)

// DefaultTimeout bounds every generator invocation.
const DefaultTimeout = 120 * time.Second

// ErrNotInstalled is returned by Find when no binary is located.
var ErrNotInstalled = errors.New(
	"speakeasy CLI not found; install it with: " +
		"curl -fsSL https://raw.githubusercontent.com/speakeasy-api/speakeasy/main/install.sh | sh",
)

// CLI runs generator commands in one working directory.
type CLI struct {
	bin     string
	dir     string
	timeout time.Duration
}

// Option configures a CLI.
type Option func(*CLI)

// WithBinary uses an explicit binary path instead of discovery.
func WithBinary(bin string) Option {
	return func(c *CLI) { c.bin = bin }
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *CLI) { c.timeout = d }
}

// New creates a CLI rooted at dir. Without WithBinary the binary
// is located with Find; an undiscoverable binary falls back to the
// bare name so that calls fail as not-found results.
func New(dir string, opts ...Option) *CLI {
	c := &CLI{dir: dir, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(c)
	}
	if c.bin == "" {
		if bin, err := Find(); err == nil {
			c.bin = bin
		} else {
			c.bin = "speakeasy"
		}
	}
	return c
}

// Find locates the speakeasy binary on PATH or in the usual
// install locations.
func Find() (string, error) {
	if bin, err := exec.LookPath("speakeasy"); err == nil {
		return bin, nil
	}
	candidates := []string{"/usr/local/bin/speakeasy", "/opt/homebrew/bin/speakeasy"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append([]string{filepath.Join(home, ".speakeasy", "bin", "speakeasy")}, candidates...)
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c, nil
		}
	}
	return "", ErrNotInstalled
}

// Run executes the binary with args.
func (c *CLI) Run(ctx context.Context, args ...string) *command.Result {
	return command.Run(ctx, command.Spec{
		Name:    c.bin,
		Args:    args,
		Dir:     c.dir,
		Timeout: c.timeout,
	})
}

// Lint lints an OpenAPI document.
func (c *CLI) Lint(ctx context.Context, spec string) *command.Result {
	return c.Run(ctx, "lint", "openapi", "--non-interactive", "-s", spec)
}

// OverlayValidate validates an overlay document.
func (c *CLI) OverlayValidate(ctx context.Context, overlay string) *command.Result {
	return c.Run(ctx, "overlay", "validate", "-o", overlay)
}

// Version reports the CLI version.
func (c *CLI) Version(ctx context.Context) *command.Result {
	return c.Run(ctx, "--version")
}
