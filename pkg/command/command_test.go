package command

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_Success(t *testing.T) {
	r := Run(context.Background(), Spec{
		Name: "sh",
		Args: []string{"-c", "echo hello; echo warn >&2"},
	})

	assert.True(t, r.Success)
	assert.Equal(t, 0, r.ExitCode)
	assert.Equal(t, "hello\nwarn", r.Output())
	assert.Equal(t, "sh -c echo hello; echo warn >&2", r.Command)
}

func TestRun_NonZeroExit(t *testing.T) {
	r := Run(context.Background(), Spec{
		Name: "sh", Args: []string{"-c", "exit 3"},
	})

	assert.False(t, r.Success)
	assert.Equal(t, 3, r.ExitCode)
	assert.False(t, r.TimedOut)
	assert.False(t, r.NotFound)
}

func TestRun_Timeout(t *testing.T) {
	r := Run(context.Background(), Spec{
		Name:    "sleep",
		Args:    []string{"5"},
		Timeout: 100 * time.Millisecond,
	})

	assert.False(t, r.Success)
	assert.True(t, r.TimedOut)
	assert.Equal(t, -1, r.ExitCode)
	assert.Contains(t, r.Stderr, "timed out after")
}

func TestRun_NotFound(t *testing.T) {
	r := Run(context.Background(), Spec{
		Name: "definitely-not-a-real-binary-xyz",
	})

	assert.False(t, r.Success)
	assert.True(t, r.NotFound)
	assert.Equal(t, ExitNotFound, r.ExitCode)
}

func TestRun_NestedMissingToolIsFailure(t *testing.T) {
	r := Run(context.Background(), Spec{
		Name: "sh", Args: []string{"-c", "no-such-nested-tool-xyz --build"},
	})

	assert.False(t, r.Success)
	assert.False(t, r.NotFound)
	assert.Equal(t, ExitNotFound, r.ExitCode)
	assert.Contains(t, r.Stderr, "no-such-nested-tool-xyz")
}

func TestRun_DirAndEnv(t *testing.T) {
	dir := t.TempDir()
	r := Run(context.Background(), Spec{
		Name: "sh",
		Args: []string{"-c", "pwd; echo $SKILLEVAL_MARKER"},
		Dir:  dir,
		Env:  map[string]string{"SKILLEVAL_MARKER": "marker-value"},
	})

	require.True(t, r.Success)
	assert.Contains(t, r.Stdout, "marker-value")
}

func TestRun_InjectedCommand(t *testing.T) {
	orig := commandFunc
	defer func() { commandFunc = orig }()

	var gotName string
	commandFunc = func(
		ctx context.Context, name string, args ...string,
	) *exec.Cmd {
		gotName = name
		return exec.CommandContext(ctx, "true")
	}

	r := RunIn(context.Background(), "", 0, "speakeasy", "--version")
	assert.True(t, r.Success)
	assert.Equal(t, "speakeasy", gotName)
	assert.Equal(t, "speakeasy --version", r.Command)
}

func TestResult_Output_Empty(t *testing.T) {
	r := &Result{Stdout: "  \n", Stderr: ""}
	assert.Equal(t, "", r.Output())
}
