package assessor

import (
	"context"
	"fmt"

	"digital.vasic.skilleval/pkg/command"
	"digital.vasic.skilleval/pkg/speakeasy"
)

// CommandSuccess runs name with args in the workspace root and
// passes iff it exits zero. Captured output is attached to the
// exit_code check.
func (a *Assessor) CommandSuccess(
	ctx context.Context,
	name string,
	args ...string,
) *Result {
	res := command.Run(ctx, command.Spec{
		Name:    name,
		Args:    args,
		Dir:     a.root,
		Timeout: a.commandTimeout,
	})
	return a.commandResult(name, res)
}

func (a *Assessor) commandResult(name string, res *command.Result) *Result {
	r := NewResult()

	var details string
	switch {
	case res.Success:
		details = "exit code 0"
		r.Summary = "command succeeded"
	case res.TimedOut:
		details = fmt.Sprintf("timed out after %s", a.commandTimeout)
		r.Summary = "command timed out"
	case res.NotFound:
		details = fmt.Sprintf("%s not found", name)
		r.Summary = "command not found"
	default:
		details = fmt.Sprintf("exit code %d", res.ExitCode)
		r.Summary = fmt.Sprintf("command failed with exit code %d", res.ExitCode)
	}

	c := r.Require("exit_code", res.Success, details)
	c.Extra = map[string]any{
		"command":   res.Command,
		"exit_code": res.ExitCode,
		"stdout":    truncate(res.Stdout, 2000),
		"stderr":    truncate(res.Stderr, 2000),
	}
	return r
}

// cli drives the configured generator binary from the workspace
// root.
func (a *Assessor) cli() *speakeasy.CLI {
	return speakeasy.New(a.root,
		speakeasy.WithBinary(a.generator),
		speakeasy.WithTimeout(a.commandTimeout),
	)
}

// OverlayValidation runs the generator's own overlay validator
// against the overlay at path.
func (a *Assessor) OverlayValidation(ctx context.Context, path string) *Result {
	return a.commandResult(a.generator, a.cli().OverlayValidate(ctx, a.resolve(path)))
}
