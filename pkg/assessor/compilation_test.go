package assessor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sdkWorkspace(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "sdk/python/pyproject.toml", "")
	return root
}

var missingTool = []Step{
	{Name: "compileall", Command: []string{"no-such-python-toolchain-xyz", "-m", "compileall"}, Timeout: 5 * time.Second},
	{Name: "never", Command: []string{"false"}, Timeout: 5 * time.Second},
}

func TestAssessor_SDKCompilation_QuickModeToleratesMissingToolchain(t *testing.T) {
	a := New(sdkWorkspace(t), WithCompileSteps("python", ModeQuick, missingTool))

	r := a.SDKCompilation(context.Background(), "python", ModeQuick)

	assert.True(t, r.Passed)
	c, ok := r.Check("compile_compileall")
	require.True(t, ok)
	assert.True(t, c.Passed)
	assert.Contains(t, c.Details, "skipped")
	assert.Equal(t, true, c.Extra["skipped"])
	_, ran := r.Check("compile_never")
	assert.False(t, ran)
}

func TestAssessor_SDKCompilation_FullModeFailsMissingToolchain(t *testing.T) {
	a := New(sdkWorkspace(t), WithCompileSteps("python", ModeFull, missingTool))

	r := a.SDKCompilation(context.Background(), "python", ModeFull)

	assert.False(t, r.Passed)
	requireCheck(t, r, "compile_compileall", false)
	assert.Equal(t, "compilation failed at compileall", r.Summary)
}

func TestAssessor_SDKCompilation_TolerancePolicyIsConfigurable(t *testing.T) {
	a := New(sdkWorkspace(t),
		WithCompileSteps("python", ModeQuick, missingTool),
		WithToolchainTolerance(ModeQuick, false),
	)

	r := a.SDKCompilation(context.Background(), "python", ModeQuick)
	assert.False(t, r.Passed)
}

func TestAssessor_SDKCompilation_QuickModeFailsNestedMissingTool(t *testing.T) {
	a := New(sdkWorkspace(t), WithCompileSteps("python", ModeQuick, []Step{
		{Name: "build", Command: []string{"sh", "-c", "no-such-nested-compiler-xyz"}, Timeout: 5 * time.Second},
	}))

	r := a.SDKCompilation(context.Background(), "python", ModeQuick)

	assert.False(t, r.Passed)
	requireCheck(t, r, "compile_build", false)
}

func TestAssessor_SDKCompilation_ShortCircuitsOnFailure(t *testing.T) {
	a := New(sdkWorkspace(t), WithCompileSteps("python", ModeFull, []Step{
		{Name: "ok", Command: []string{"true"}, Timeout: 5 * time.Second},
		{Name: "broken", Command: []string{"sh", "-c", "echo boom >&2; exit 2"}, Timeout: 5 * time.Second},
		{Name: "after", Command: []string{"true"}, Timeout: 5 * time.Second},
	}))

	r := a.SDKCompilation(context.Background(), "python", ModeFull)

	assert.False(t, r.Passed)
	requireCheck(t, r, "compile_ok", true)
	requireCheck(t, r, "compile_broken", false)
	c, _ := r.Check("compile_broken")
	assert.Contains(t, c.Details, "boom")
	_, ran := r.Check("compile_after")
	assert.False(t, ran)
}

func TestAssessor_SDKCompilation_Timeout(t *testing.T) {
	a := New(sdkWorkspace(t), WithCompileSteps("python", ModeQuick, []Step{
		{Name: "slow", Command: []string{"sleep", "5"}, Timeout: 100 * time.Millisecond},
	}))

	r := a.SDKCompilation(context.Background(), "python", ModeQuick)
	assert.False(t, r.Passed)
	c, _ := r.Check("compile_slow")
	assert.Contains(t, c.Details, "timed out")
}

func TestAssessor_SDKCompilation_NoSDK(t *testing.T) {
	r := New(t.TempDir()).SDKCompilation(context.Background(), "go", ModeQuick)
	assert.False(t, r.Passed)
	requireCheck(t, r, "sdk_directory_exists", false)
}

func TestAssessor_SDKCompilation_UnsupportedLanguage(t *testing.T) {
	root := t.TempDir()
	mkdir(t, root, "sdk")

	r := New(root).SDKCompilation(context.Background(), "cobol", ModeQuick)
	assert.True(t, r.Passed)
	requireCheck(t, r, "compile_supported", true)
}

func TestAssessor_CommandSuccess(t *testing.T) {
	a := New(t.TempDir())

	r := a.CommandSuccess(context.Background(), "sh", "-c", "echo out; echo err >&2")
	assert.True(t, r.Passed)
	c, _ := r.Check("exit_code")
	assert.Equal(t, "out\n", c.Extra["stdout"])
	assert.Equal(t, "err\n", c.Extra["stderr"])
	assert.Equal(t, "command succeeded", r.Summary)

	r = a.CommandSuccess(context.Background(), "sh", "-c", "exit 4")
	assert.False(t, r.Passed)
	assert.Equal(t, "command failed with exit code 4", r.Summary)
}

func TestAssessor_OverlayValidation_UsesGenerator(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "o.yaml", "overlay: 1.0.0\n")

	r := New(root, WithGenerator("true")).OverlayValidation(context.Background(), "o.yaml")
	assert.True(t, r.Passed)

	r = New(root, WithGenerator("false")).OverlayValidation(context.Background(), "o.yaml")
	assert.False(t, r.Passed)

	c, _ := r.Check("exit_code")
	assert.Contains(t, c.Extra["command"], "overlay validate -o")
}
