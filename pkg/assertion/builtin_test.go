package assertion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateContains(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		value  any
		passed bool
	}{
		{"present", "run speakeasy run -y", "speakeasy run", true},
		{"absent", "run the generator", "speakeasy run", false},
		{"case sensitive", "SPEAKEASY RUN", "speakeasy run", false},
		{"empty value", "anything", "", true},
		{"numeric value", "retries: 3", 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, _, _ := evaluateContains(Definition{Value: tt.value}, tt.text)
			assert.Equal(t, tt.passed, ok)

			notOk, _, _ := evaluateNotContains(Definition{Value: tt.value}, tt.text)
			assert.Equal(t, !tt.passed, notOk)
		})
	}
}

func TestEvaluateMatches(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		pattern string
		passed  bool
	}{
		{"search not full match", "use x-speakeasy-retries here", `x-speakeasy-\w+`, true},
		{"anchored miss", "prefix workflow.yaml", `^workflow`, false},
		{"no match", "plain text", `\d+`, false},
		{"invalid pattern", "anything", `([`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, msg, _ := evaluateMatches(Definition{Value: tt.pattern}, tt.text)
			assert.Equal(t, tt.passed, ok, msg)
		})
	}

	_, msg, _ := evaluateMatches(Definition{Value: `([`}, "x")
	assert.Contains(t, msg, "invalid pattern")
}

func TestEvaluateValidYAML(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		passed bool
	}{
		{"no blocks", "just prose, no code", false},
		{"json block only", "```json\n{}\n```", false},
		{"valid yaml", "Here:\n\n```yaml\noverlay: 1.0.0\nactions: []\n```\n", true},
		{"yml info string", "```yml\na: 1\n```\n", true},
		{"one invalid of two", "```yaml\na: 1\n```\n\n```yaml\na: [1, 2\n```\n", false},
		{"empty block", "```yaml\n```\n", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, msg, _ := evaluateValidYAML(Definition{}, tt.text)
			assert.Equal(t, tt.passed, ok, msg)
		})
	}
}

func TestEvaluateValidJSON(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		passed bool
	}{
		{"no blocks", "nothing", false},
		{"valid", "```json\n{\"a\": [1, 2]}\n```\n", true},
		{"invalid", "```json\n{\"a\": }\n```\n", false},
		{"yaml block ignored", "```yaml\na: 1\n```\n", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, msg, _ := evaluateValidJSON(Definition{}, tt.text)
			assert.Equal(t, tt.passed, ok, msg)
		})
	}
}

func TestEvaluateNoInvalidExtensions(t *testing.T) {
	def := Definition{ValidList: []string{
		"x-speakeasy-retries", "x-speakeasy-pagination",
	}}

	ok, _, invalid := evaluateNoInvalidExtensions(
		def, "add x-speakeasy-retries and x-speakeasy-pagination",
	)
	assert.True(t, ok)
	assert.Empty(t, invalid)

	ok, msg, invalid := evaluateNoInvalidExtensions(
		def, "add x-speakeasy-magic-sauce and x-speakeasy-retries",
	)
	assert.False(t, ok)
	assert.Equal(t, []string{"x-speakeasy-magic-sauce"}, invalid)
	assert.Contains(t, msg, "x-speakeasy-magic-sauce")

	ok, _, _ = evaluateNoInvalidExtensions(Definition{}, "no extensions at all")
	assert.True(t, ok)
}

func TestNoInvalidCommands_TokenPrefix(t *testing.T) {
	eval := commandEvaluator(MatchTokenPrefix)
	def := Definition{ValidList: []string{"run", "overlay validate", "speakeasy lint"}}

	ok, _, _ := eval(def, "Run `speakeasy run` then `speakeasy overlay validate`.")
	assert.True(t, ok)

	ok, _, invalid := eval(def, "Try speakeasy runner and speakeasy lint.")
	assert.False(t, ok)
	assert.Equal(t, []string{"speakeasy runner"}, invalid)

	ok, _, invalid = eval(def, "speakeasy generate sdk")
	assert.False(t, ok)
	assert.Equal(t, []string{"speakeasy generate"}, invalid)
}

func TestNoInvalidCommands_Substring(t *testing.T) {
	eval := commandEvaluator(MatchSubstring)
	def := Definition{ValidList: []string{"run", "overlay validate"}}

	// substring containment accepts "runner" because "run" is inside it
	ok, _, _ := eval(def, "speakeasy runner")
	assert.True(t, ok)

	// and rejects the first two words of a multi-word whitelist entry
	ok, _, invalid := eval(def, "speakeasy overlay validate -o x.yaml")
	assert.False(t, ok)
	assert.Equal(t, []string{"speakeasy overlay"}, invalid)
}

func TestEngine_WithCommandMatching(t *testing.T) {
	def := Definition{Type: "no_invalid_commands", ValidList: []string{"run"}}

	strict := NewEngine()
	loose := NewEngine(WithCommandMatching(MatchSubstring))

	assert.False(t, strict.Evaluate(def, "speakeasy runner").Passed)
	assert.True(t, loose.Evaluate(def, "speakeasy runner").Passed)
}

func TestInvalidCommands_ThreeWordMatches(t *testing.T) {
	invalid := InvalidCommands(
		[]string{"speakeasy overlay apply", "speakeasy quickstart now"},
		[]string{"overlay", "quickstart"},
		MatchTokenPrefix,
	)
	require.Empty(t, invalid)
}
