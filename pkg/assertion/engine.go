package assertion

import (
	"fmt"
	"sync"
)

// Engine defines the interface for assertion evaluation engines.
type Engine interface {
	// Evaluate checks a single assertion against the given
	// value.
	Evaluate(assertion Definition, value any) Result

	// EvaluateAll checks multiple assertions against a map of
	// named values. Each assertion's Target is used as the key
	// into the values map.
	EvaluateAll(
		assertions []Definition,
		values map[string]any,
	) []Result

	// Check evaluates every assertion against one text blob.
	Check(text string, assertions []Definition) []Result

	// Register adds a custom evaluator for the given assertion
	// type. Returns an error if the type is already registered.
	Register(assertionType string, evaluator Evaluator) error
}

// CommandMatching selects how no_invalid_commands compares a
// found command against the whitelist.
type CommandMatching int

const (
	// MatchTokenPrefix accepts a found command when its tokens
	// and a whitelist entry's tokens share a full prefix.
	MatchTokenPrefix CommandMatching = iota
	// MatchSubstring accepts a found command when any whitelist
	// entry is a substring of it.
	MatchSubstring
)

// Option configures a DefaultEngine.
type Option func(*DefaultEngine)

// WithCommandMatching overrides the no_invalid_commands matching
// mode.
func WithCommandMatching(m CommandMatching) Option {
	return func(e *DefaultEngine) {
		e.commandMatching = m
	}
}

// DefaultEngine is the standard Engine implementation. It is
// safe for concurrent use.
type DefaultEngine struct {
	mu              sync.RWMutex
	evaluators      map[string]Evaluator
	commandMatching CommandMatching
}

// NewEngine creates a DefaultEngine with the built-in evaluators
// pre-registered.
func NewEngine(opts ...Option) *DefaultEngine {
	e := &DefaultEngine{
		evaluators: make(map[string]Evaluator),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.registerDefaults()
	return e
}

func (e *DefaultEngine) registerDefaults() {
	e.evaluators["contains"] = evaluateContains
	e.evaluators["not_contains"] = evaluateNotContains
	e.evaluators["matches"] = evaluateMatches
	e.evaluators["valid_yaml"] = evaluateValidYAML
	e.evaluators["valid_json"] = evaluateValidJSON
	e.evaluators["no_invalid_extensions"] = evaluateNoInvalidExtensions
	e.evaluators["no_invalid_commands"] = commandEvaluator(e.commandMatching)
}

// Register adds a custom evaluator for the given assertion type.
func (e *DefaultEngine) Register(
	assertionType string,
	evaluator Evaluator,
) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.evaluators[assertionType]; exists {
		return fmt.Errorf(
			"assertion type already registered: %s",
			assertionType,
		)
	}

	e.evaluators[assertionType] = evaluator
	return nil
}

// Evaluate runs a single assertion against the provided value.
// It never panics; unknown types and non-text values fail.
func (e *DefaultEngine) Evaluate(
	assertion Definition,
	value any,
) Result {
	result := Result{
		Type:     assertion.Type,
		Target:   assertion.target(),
		Expected: expected(assertion),
	}

	e.mu.RLock()
	evaluator, exists := e.evaluators[assertion.Type]
	e.mu.RUnlock()

	if !exists {
		result.Message = fmt.Sprintf(
			"unknown assertion type: %s", assertion.Type,
		)
		return result
	}

	text, ok := asText(value)
	if !ok {
		result.Message = "value is not a string"
		return result
	}

	result.Passed, result.Message, result.Invalid = evaluator(
		assertion, text,
	)
	if !result.Passed && assertion.Message != "" {
		result.Message = assertion.Message + ": " + result.Message
	}
	return result
}

// EvaluateAll runs multiple assertions against a map of named
// values. If a target is missing, the assertion fails.
func (e *DefaultEngine) EvaluateAll(
	assertions []Definition,
	values map[string]any,
) []Result {
	results := make([]Result, 0, len(assertions))

	for _, a := range assertions {
		value, exists := values[a.target()]
		if !exists {
			results = append(results, Result{
				Type:   a.Type,
				Target: a.target(),
				Passed: false,
				Message: fmt.Sprintf(
					"target not found: %s", a.target(),
				),
			})
			continue
		}

		results = append(results, e.Evaluate(a, value))
	}

	return results
}

// Check evaluates all assertions against a single text blob,
// ignoring their Target fields.
func (e *DefaultEngine) Check(
	text string,
	assertions []Definition,
) []Result {
	results := make([]Result, 0, len(assertions))
	for _, a := range assertions {
		results = append(results, e.Evaluate(a, text))
	}
	return results
}

// HasEvaluator returns true if the given assertion type has a
// registered evaluator.
func (e *DefaultEngine) HasEvaluator(
	assertionType string,
) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, exists := e.evaluators[assertionType]
	return exists
}

func expected(d Definition) any {
	if len(d.ValidList) > 0 {
		return d.ValidList
	}
	return d.Value
}

func asText(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case []byte:
		return string(t), true
	case fmt.Stringer:
		return t.String(), true
	}
	return "", false
}
