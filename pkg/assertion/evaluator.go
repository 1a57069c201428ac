package assertion

// Evaluator is a function that evaluates a single assertion type
// against a text value. It returns whether the assertion passed, a
// human-readable explanation and, for whitelist kinds, the offending
// tokens.
type Evaluator func(assertion Definition, text string) (bool, string, []string)
