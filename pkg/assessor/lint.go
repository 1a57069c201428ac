package assessor

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

var (
	errorWord   = regexp.MustCompile(`(?i)\berror\b`)
	warningWord = regexp.MustCompile(`(?i)\bwarning\b`)
)

// lintIssues are the known problem signatures reported by the
// generator's linter.
var lintIssues = []struct {
	name    string
	pattern *regexp.Regexp
}{
	{"missing_operation_ids", regexp.MustCompile(`(?i)missing operationId`)},
	{"missing_descriptions", regexp.MustCompile(`(?i)missing description`)},
	{"invalid_refs", regexp.MustCompile(`(?i)invalid.*\$ref`)},
}

// LintOutput grades raw linter output. Any error fails; warnings
// and the known issue signatures are reported only.
func (a *Assessor) LintOutput(output string) *Result {
	r := NewResult()

	errors := len(errorWord.FindAllStringIndex(output, -1))
	warnings := len(warningWord.FindAllStringIndex(output, -1))

	r.Require("no_errors", errors == 0, fmt.Sprintf("%d errors found", errors))
	r.Add("warnings_only", true, fmt.Sprintf("%d warnings found", warnings))

	for _, issue := range lintIssues {
		hit := issue.pattern.MatchString(output)
		state := "not found"
		if hit {
			state = "found"
		}
		r.Add(issue.name, !hit, strings.ReplaceAll(issue.name, "_", " ")+" "+state)
	}

	r.Summary = fmt.Sprintf("%d errors, %d warnings", errors, warnings)
	return r
}

// LintDocument runs the generator's linter on the OpenAPI document
// at path and grades its output. A linter that cannot run fails the
// no_errors check outright.
func (a *Assessor) LintDocument(ctx context.Context, path string) *Result {
	res := a.cli().Lint(ctx, a.resolve(path))
	if res.NotFound || res.TimedOut {
		r := a.commandResult(a.generator, res)
		r.Require("no_errors", false, r.Summary)
		return r
	}
	return a.LintOutput(res.Output())
}
