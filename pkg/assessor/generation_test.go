package assessor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssessor_Generation_EmptyWorkspaceShortCircuits(t *testing.T) {
	a := New(t.TempDir())

	r := a.Generation("typescript", []string{"package.json"})

	assert.False(t, r.Passed)
	require.Len(t, r.Checks, 1)
	assert.Equal(t, "workflow_exists", r.Checks[0].Name)
	assert.False(t, r.Checks[0].Passed)
}

func TestAssessor_Generation_TypeScriptSuccess(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".speakeasy/workflow.yaml", "workflowVersion: 1.0.0\n")
	writeFile(t, root, "sdk/typescript/package.json", "{}")
	writeFile(t, root, "sdk/typescript/src/index.ts", "export {}")

	r := New(root).Generation("ts", []string{"package.json"})

	assert.True(t, r.Passed, r.FailedChecks())
	requireCheck(t, r, "sdk_directory_exists", true)
	requireCheck(t, r, "artifact_package.json", true)
	requireCheck(t, r, "has_sdk_entrypoint", true)
	assert.Equal(t, "6/6 checks passed", r.Summary)
}

func TestAssessor_Generation_MissingArtifactsReportedIndividually(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".speakeasy/workflow.yaml", "workflowVersion: 1.0.0\n")
	writeFile(t, root, "sdk/python/pyproject.toml", "")
	writeFile(t, root, "sdk/python/src/petstore/__init__.py", "")

	r := New(root).Generation("python", []string{"README.md", "pyproject.toml", "USAGE.md"})

	assert.False(t, r.Passed)
	requireCheck(t, r, "artifact_README.md", false)
	requireCheck(t, r, "artifact_pyproject.toml", true)
	requireCheck(t, r, "artifact_USAGE.md", false)
	requireCheck(t, r, "has_init_py", true)
}

func TestAssessor_Generation_NoSDKDirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".speakeasy/workflow.yaml", "workflowVersion: 1.0.0\n")

	r := New(root).Generation("go", nil)

	assert.False(t, r.Passed)
	requireCheck(t, r, "sdk_directory_exists", false)
	assert.Len(t, r.Checks, 2)
}

func TestAssessor_LocateSDK_ProbeOrder(t *testing.T) {
	root := t.TempDir()
	mkdir(t, root, "sdk")
	mkdir(t, root, "go")

	dir, ok := New(root).LocateSDK("golang")
	require.True(t, ok)
	assert.Equal(t, "go", dir)

	mkdir(t, root, "sdks/go")
	dir, _ = New(root).LocateSDK("go")
	assert.Equal(t, "sdks/go", dir)
}

func TestAssessor_LocateSDK_RootMarkerFallback(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "go.mod", "module example.com/sdk\n")

	dir, ok := New(root).LocateSDK("go")
	require.True(t, ok)
	assert.Equal(t, ".", dir)

	_, ok = New(root).LocateSDK("typescript")
	assert.False(t, ok)
}

func TestAssessor_LocateSDK_CustomProbes(t *testing.T) {
	root := t.TempDir()
	mkdir(t, root, "out/client")

	a := New(root, WithProbes(DirProbe("out/client")))
	dir, ok := a.LocateSDK("typescript")
	require.True(t, ok)
	assert.Equal(t, "out/client", dir)
}
