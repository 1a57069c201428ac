package assertion

import "fmt"

// AllPassed folds a list of results into a single all_pass result.
// An empty list passes.
func AllPassed(results []Result) Result {
	for _, r := range results {
		if !r.Passed {
			return Result{
				Type:   "all_pass",
				Passed: false,
				Message: fmt.Sprintf(
					"assertion '%s' failed: %s",
					r.Type, r.Message,
				),
			}
		}
	}

	return Result{
		Type:   "all_pass",
		Passed: true,
		Message: fmt.Sprintf(
			"all %d assertions passed", len(results),
		),
	}
}

// AnyPassed folds a list of results into a single any_pass result.
func AnyPassed(results []Result) Result {
	for _, r := range results {
		if r.Passed {
			return Result{
				Type:   "any_pass",
				Passed: true,
				Message: fmt.Sprintf(
					"assertion '%s' passed", r.Type,
				),
			}
		}
	}

	return Result{
		Type:   "any_pass",
		Passed: false,
		Message: fmt.Sprintf(
			"none of %d assertions passed",
			len(results),
		),
	}
}

// CompositeAllPass returns an Evaluator that runs a fixed set of
// sub-assertions against the same text and requires all to pass.
func CompositeAllPass(
	engine Engine,
	subAssertions []Definition,
) Evaluator {
	return func(_ Definition, text string) (bool, string, []string) {
		r := AllPassed(engine.Check(text, subAssertions))
		return r.Passed, r.Message, nil
	}
}

// CompositeAnyPass returns an Evaluator that runs a fixed set of
// sub-assertions and requires at least one to pass.
func CompositeAnyPass(
	engine Engine,
	subAssertions []Definition,
) Evaluator {
	return func(_ Definition, text string) (bool, string, []string) {
		r := AnyPassed(engine.Check(text, subAssertions))
		return r.Passed, r.Message, nil
	}
}
