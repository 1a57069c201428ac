package bank

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ValidationError represents a validation issue found in a suite file.
type ValidationError struct {
	Field   string
	Message string
	Index   int // -1 if not applicable
}

func (e ValidationError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("tests[%d].%s: %s", e.Index, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateFile validates a suite file and returns all errors found.
func ValidateFile(path string) []ValidationError {
	data, err := os.ReadFile(path)
	if err != nil {
		return []ValidationError{{Field: "file", Message: err.Error(), Index: -1}}
	}

	var file SuiteFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return []ValidationError{{Field: "yaml", Message: err.Error(), Index: -1}}
	}

	suite := Suite(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	var errs []ValidationError
	if !suite.IsKnown() {
		errs = append(errs, ValidationError{
			Field: "suite", Message: fmt.Sprintf("unknown suite %q", suite), Index: -1,
		})
	}
	if len(file.Tests) == 0 {
		errs = append(errs, ValidationError{
			Field: "tests", Message: "at least one test is required", Index: -1,
		})
	}

	names := make(map[string]bool)
	for i, c := range file.Tests {
		if c.Skill == "" {
			errs = append(errs, ValidationError{
				Field: "skill", Message: "skill is required", Index: i,
			})
		}
		if c.Name != "" {
			if names[c.Name] {
				errs = append(errs, ValidationError{
					Field: "name", Message: fmt.Sprintf("duplicate name: %s", c.Name), Index: i,
				})
			}
			names[c.Name] = true
		}
		errs = append(errs, validateCase(suite, i, c)...)
	}
	return errs
}

func validateCase(suite Suite, i int, c Case) []ValidationError {
	var errs []ValidationError
	add := func(field, msg string) {
		errs = append(errs, ValidationError{Field: field, Message: msg, Index: i})
	}

	switch suite {
	case SuiteActivation:
		if len(c.ShouldActivate)+len(c.ShouldNotActivate) == 0 {
			add("should_activate", "activation tests need trigger phrases")
		}
	case SuiteCorrectness, SuiteCompleteness:
		if c.Prompt == "" {
			add("prompt", "prompt is required")
		}
	case SuiteHallucination:
		if len(c.Prompts) == 0 {
			add("prompts", "at least one prompt is required")
		}
	}

	if suite.IsAgent() {
		if c.Prompt == "" {
			add("prompt", "agent tasks need a prompt")
		}
		if c.Type != "" && !c.Type.IsAgent() {
			add("type", fmt.Sprintf("unknown task type %q", c.Type))
		}
		if c.Source != nil && (c.Source.Repository == "" || c.Source.Commit == "") {
			add("source", "source needs repository and commit")
		}
	}

	for j, a := range c.Checks {
		if !knownKind(a.Kind) {
			add(fmt.Sprintf("checks[%d].kind", j), fmt.Sprintf("unknown assessment %q", a.Kind))
		}
	}
	return errs
}

func knownKind(kind string) bool {
	for _, k := range AssessmentKinds {
		if k == kind {
			return true
		}
	}
	return false
}
