package assertion

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	extensionPattern = regexp.MustCompile(`x-speakeasy-[\w-]+`)
	commandPattern   = regexp.MustCompile(`speakeasy\s+[\w-]+`)
)

// evaluateContains checks that the text contains the expected
// literal substring (case-sensitive).
func evaluateContains(
	assertion Definition,
	text string,
) (bool, string, []string) {
	want := assertion.stringValue()
	if strings.Contains(text, want) {
		return true, fmt.Sprintf("output contains %q", want), nil
	}
	return false, fmt.Sprintf("output does not contain %q", want), nil
}

// evaluateNotContains is the negation of evaluateContains.
func evaluateNotContains(
	assertion Definition,
	text string,
) (bool, string, []string) {
	unwanted := assertion.stringValue()
	if strings.Contains(text, unwanted) {
		return false, fmt.Sprintf("output contains %q", unwanted), nil
	}
	return true, fmt.Sprintf("output does not contain %q", unwanted), nil
}

// evaluateMatches runs a regular-expression search over the text.
// A pattern that does not compile fails the assertion.
func evaluateMatches(
	assertion Definition,
	text string,
) (bool, string, []string) {
	pattern := assertion.stringValue()
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false, fmt.Sprintf("invalid pattern %q: %v", pattern, err), nil
	}
	if re.MatchString(text) {
		return true, fmt.Sprintf("output matches %q", pattern), nil
	}
	return false, fmt.Sprintf("output does not match %q", pattern), nil
}

// evaluateValidYAML requires at least one fenced yaml block and
// that every such block parses.
func evaluateValidYAML(
	_ Definition,
	text string,
) (bool, string, []string) {
	blocks := FencedBlocks(text, "yaml", "yml")
	if len(blocks) == 0 {
		return false, "no yaml code blocks found", nil
	}
	for i, block := range blocks {
		var doc any
		if err := yaml.Unmarshal([]byte(block), &doc); err != nil {
			return false, fmt.Sprintf("yaml block %d invalid: %v", i+1, err), nil
		}
	}
	return true, fmt.Sprintf("%d yaml blocks valid", len(blocks)), nil
}

// evaluateValidJSON requires at least one fenced json block and
// that every such block parses.
func evaluateValidJSON(
	_ Definition,
	text string,
) (bool, string, []string) {
	blocks := FencedBlocks(text, "json")
	if len(blocks) == 0 {
		return false, "no json code blocks found", nil
	}
	for i, block := range blocks {
		var doc any
		if err := json.Unmarshal([]byte(block), &doc); err != nil {
			return false, fmt.Sprintf("json block %d invalid: %v", i+1, err), nil
		}
	}
	return true, fmt.Sprintf("%d json blocks valid", len(blocks)), nil
}

// evaluateNoInvalidExtensions fails when the text mentions an
// x-speakeasy-* extension outside the whitelist.
func evaluateNoInvalidExtensions(
	assertion Definition,
	text string,
) (bool, string, []string) {
	valid := make(map[string]struct{}, len(assertion.ValidList))
	for _, v := range assertion.ValidList {
		valid[v] = struct{}{}
	}

	var invalid []string
	for _, ext := range extensionPattern.FindAllString(text, -1) {
		if _, ok := valid[ext]; !ok {
			invalid = append(invalid, ext)
		}
	}
	if len(invalid) > 0 {
		return false, fmt.Sprintf(
			"invalid extensions: %s", strings.Join(unique(invalid), ", "),
		), invalid
	}
	return true, "no invalid extensions", nil
}

// commandEvaluator builds the no_invalid_commands evaluator for
// the given matching mode.
func commandEvaluator(mode CommandMatching) Evaluator {
	return func(
		assertion Definition,
		text string,
	) (bool, string, []string) {
		invalid := InvalidCommands(
			commandPattern.FindAllString(text, -1),
			assertion.ValidList,
			mode,
		)
		if len(invalid) > 0 {
			return false, fmt.Sprintf(
				"invalid commands: %s", strings.Join(unique(invalid), ", "),
			), invalid
		}
		return true, "no invalid commands", nil
	}
}

// InvalidCommands returns the found commands not accepted by the
// whitelist under the given matching mode.
func InvalidCommands(
	found, validList []string,
	mode CommandMatching,
) []string {
	var invalid []string
	for _, cmd := range found {
		if !commandAllowed(cmd, validList, mode) {
			invalid = append(invalid, cmd)
		}
	}
	return invalid
}

func commandAllowed(
	cmd string,
	validList []string,
	mode CommandMatching,
) bool {
	if mode == MatchSubstring {
		for _, v := range validList {
			if strings.Contains(cmd, v) {
				return true
			}
		}
		return false
	}

	got := strings.Fields(cmd)
	for _, v := range validList {
		want := strings.Fields(v)
		if len(want) == 0 {
			continue
		}
		if want[0] != "speakeasy" {
			want = append([]string{"speakeasy"}, want...)
		}
		if tokenPrefix(got, want) || tokenPrefix(want, got) {
			return true
		}
	}
	return false
}

// tokenPrefix reports whether a is a prefix of b.
func tokenPrefix(a, b []string) bool {
	if len(a) > len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func unique(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it]; ok {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	return out
}

func fmtAny(v any) string {
	return fmt.Sprintf("%v", v)
}
