package env

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoader(t *testing.T) {
	l := NewLoader()
	assert.NotNil(t, l.vars)
	assert.Contains(t, l.mappings, "anthropic")
	assert.Contains(t, l.mappings, "github")
}

func TestDefaultLoader_Load(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	content := `# Comment
FOO=bar
BAZ="quoted value"
EMPTY=
export SINGLE_QUOTE='single'
not a pair
`
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o644))

	l := NewLoader()
	require.NoError(t, l.Load(envFile))
	assert.True(t, l.loaded)
	assert.Equal(t, "bar", l.vars["FOO"])
	assert.Equal(t, "quoted value", l.vars["BAZ"])
	assert.Equal(t, "", l.vars["EMPTY"])
	assert.Equal(t, "single", l.vars["SINGLE_QUOTE"])
	assert.Len(t, l.vars, 4)
}

func TestDefaultLoader_Load_FileNotFound(t *testing.T) {
	l := NewLoader()
	assert.Error(t, l.Load("/nonexistent/.env"))
	assert.NoError(t, l.LoadOptional("/nonexistent/.env"))
}

func TestDefaultLoader_Get_OSWins(t *testing.T) {
	l := NewLoader()
	l.vars["SKILLEVAL_TEST_KEY"] = "from_file"
	assert.Equal(t, "from_file", l.Get("SKILLEVAL_TEST_KEY"))

	t.Setenv("SKILLEVAL_TEST_KEY", "from_os")
	assert.Equal(t, "from_os", l.Get("SKILLEVAL_TEST_KEY"))
	assert.Equal(t, "", l.Get("SKILLEVAL_NONEXISTENT"))
}

func TestDefaultLoader_GetRequired(t *testing.T) {
	l := NewLoader()
	l.vars["SKILLEVAL_REQ"] = "v"

	v, err := l.GetRequired("SKILLEVAL_REQ")
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	_, err = l.GetRequired("SKILLEVAL_MISSING")
	assert.Error(t, err)
	assert.Equal(t, "fallback", l.GetWithDefault("SKILLEVAL_MISSING", "fallback"))
}

func TestDefaultLoader_GetAPIKey(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("GH_TOKEN", "gho_from_gh")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test-key")

	l := NewLoader()
	assert.Equal(t, "sk-ant-test-key", l.GetAPIKey("Claude"))
	assert.Equal(t, "gho_from_gh", l.GetAPIKey("github"))

	l.vars["CUSTOM_API_KEY"] = "custom"
	assert.Equal(t, "custom", l.GetAPIKey("custom"))
}

func TestDefaultLoader_Secrets(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-secret")
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("GH_TOKEN", "")
	t.Setenv("SPEAKEASY_API_KEY", "")

	l := NewLoader()
	l.vars["GITHUB_TOKEN"] = "ghp_file_token"

	assert.Equal(t, []string{"ghp_file_token", "sk-ant-secret"}, l.Secrets())
}
