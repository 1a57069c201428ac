// Package assertion provides the declarative text assertion engine
// used to grade agent and model output. It ships with the built-in
// skill-evaluation assertion kinds and supports custom evaluator
// registration.
package assertion

// Definition describes a single assertion to evaluate against a
// text blob such as a model response or an agent transcript.
type Definition struct {
	// Type is the evaluator type (e.g., "contains", "matches",
	// "valid_yaml", "no_invalid_extensions").
	Type string `json:"type" yaml:"type"`

	// Target names the value the assertion is checked against
	// when evaluating a map of named values. Empty means the
	// default "output" target.
	Target string `json:"target,omitempty" yaml:"target,omitempty"`

	// Value is the expected literal or pattern.
	Value any `json:"value,omitempty" yaml:"value,omitempty"`

	// ValidList is the whitelist used by the
	// no_invalid_extensions and no_invalid_commands kinds.
	ValidList []string `json:"valid_list,omitempty" yaml:"valid_list,omitempty"`

	// Message is a human-readable description shown on
	// failure.
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
}

// Result captures the outcome of evaluating a single assertion.
type Result struct {
	Type     string `json:"type"`
	Target   string `json:"target,omitempty"`
	Expected any    `json:"expected,omitempty"`
	Passed   bool   `json:"passed"`
	Message  string `json:"message"`

	// Invalid lists offending tokens for the whitelist kinds.
	Invalid []string `json:"invalid,omitempty"`
}

// DefaultTarget is the target used when a Definition leaves
// Target empty.
const DefaultTarget = "output"

func (d Definition) target() string {
	if d.Target == "" {
		return DefaultTarget
	}
	return d.Target
}

// stringValue renders Value as a string. Non-string scalars are
// formatted; a nil Value yields "".
func (d Definition) stringValue() string {
	switch v := d.Value.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmtAny(v)
	}
}
