// Package command runs external programs with a bounded timeout
// and classifies the outcome as success, non-zero exit, timeout
// or missing executable. It never returns an error: every failure
// mode is recorded in the Result.
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout bounds a command when the caller passes zero.
const DefaultTimeout = 60 * time.Second

// ExitNotFound is the shell convention for a missing executable.
const ExitNotFound = 127

// commandFunc is swapped out in tests.
var commandFunc = exec.CommandContext

// Result captures the outcome of one command invocation.
type Result struct {
	Command  string        `json:"command"`
	ExitCode int           `json:"exit_code"`
	Stdout   string        `json:"stdout"`
	Stderr   string        `json:"stderr"`
	Success  bool          `json:"success"`
	TimedOut bool          `json:"timed_out,omitempty"`
	NotFound bool          `json:"not_found,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Output joins the trimmed, non-empty stdout and stderr with a
// newline.
func (r *Result) Output() string {
	var parts []string
	if s := strings.TrimSpace(r.Stdout); s != "" {
		parts = append(parts, s)
	}
	if s := strings.TrimSpace(r.Stderr); s != "" {
		parts = append(parts, s)
	}
	return strings.Join(parts, "\n")
}

// Spec describes a command to run.
type Spec struct {
	Name    string
	Args    []string
	Dir     string
	Env     map[string]string
	Timeout time.Duration
}

// String renders the command line.
func (s Spec) String() string {
	return strings.TrimSpace(s.Name + " " + strings.Join(s.Args, " "))
}

// Run executes the command described by spec.
func Run(ctx context.Context, spec Spec) *Result {
	timeout := spec.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result := &Result{Command: spec.String()}
	start := time.Now()
	defer func() { result.Duration = time.Since(start) }()

	cmd := commandFunc(ctx, spec.Name, spec.Args...)
	cmd.WaitDelay = 2 * time.Second
	if spec.Dir != "" {
		cmd.Dir = spec.Dir
	}
	if len(spec.Env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range spec.Env {
			cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
		}
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result.Stdout = stdout.String()
	result.Stderr = stderr.String()

	if err == nil {
		result.Success = true
		return result
	}

	var exitErr *exec.ExitError
	switch {
	case ctx.Err() == context.DeadlineExceeded:
		result.TimedOut = true
		result.ExitCode = -1
		result.Stderr = fmt.Sprintf("Command timed out after %s", timeout)
	case errors.As(err, &exitErr):
		// 127 from a script means a tool it calls is missing; the
		// program itself ran, so that is an ordinary failure.
		result.ExitCode = exitErr.ExitCode()
	case isNotFound(err):
		result.NotFound = true
		result.ExitCode = ExitNotFound
		result.Stderr = fmt.Sprintf("command not found: %s", spec.Name)
	default:
		result.ExitCode = -1
		result.Stderr = fmt.Sprintf("execution error: %v", err)
	}
	return result
}

// RunIn is shorthand for Run with a working directory.
func RunIn(
	ctx context.Context,
	dir string,
	timeout time.Duration,
	name string,
	args ...string,
) *Result {
	return Run(ctx, Spec{Name: name, Args: args, Dir: dir, Timeout: timeout})
}

func isNotFound(err error) bool {
	return errors.Is(err, exec.ErrNotFound) ||
		errors.Is(err, os.ErrNotExist)
}
