package assessor

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// sourceSample bounds how many generated files are scanned.
const sourceSample = 20

// poorNaming are signatures of identifiers derived from paths or
// numbered placeholders rather than meaningful operation names.
var poorNaming = []struct {
	name    string
	pattern *regexp.Regexp
}{
	{"versioned_path_names", regexp.MustCompile(`(?i)api_v\d+_\w+_\w+`)},
	{"numbered_endpoints", regexp.MustCompile(`(?i)endpoint\d+`)},
	{"numbered_operations", regexp.MustCompile(`(?i)operation\d+`)},
}

// Naming scans generated sources under dir for poor naming
// signatures and, optionally, for expected method names.
func (a *Assessor) Naming(dir string, expectedMethods []string) *Result {
	r := NewResult()
	base := a.resolve(dir)

	files := globFiles(base, "**/*.{ts,py,go}")
	if len(files) == 0 {
		r.Fail("has_source_files", "No source files found")
		return r.finishWith("naming checks passed")
	}
	r.Require("has_source_files", true, fmt.Sprintf("Found %d source files", len(files)))

	if len(files) > sourceSample {
		files = files[:sourceSample]
	}
	var sb strings.Builder
	for _, f := range files {
		data, err := os.ReadFile(filepath.Join(base, f))
		if err != nil {
			continue
		}
		sb.Write(data)
		sb.WriteByte('\n')
	}
	content := sb.String()

	poor := false
	for _, sig := range poorNaming {
		if m := sig.pattern.FindString(content); m != "" {
			poor = true
			r.Fail("no_"+sig.name, fmt.Sprintf("Poor naming pattern found: %s (e.g. %s)", sig.pattern, m))
		}
	}
	if !poor {
		r.Require("good_naming", true, "No poor naming patterns detected")
	}

	for _, method := range expectedMethods {
		ok := strings.Contains(content, method)
		state := "not found"
		if ok {
			state = "found"
		}
		r.Require("has_method_"+method, ok, fmt.Sprintf("Method %s %s", method, state))
	}

	return r.finishWith("naming checks passed")
}
