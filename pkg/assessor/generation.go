package assessor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// languageCheck verifies one structural marker inside the SDK
// directory.
type languageCheck struct {
	name string
	fn   func(sdkDir string) (bool, string)
}

func languageChecks(target string) []languageCheck {
	switch target {
	case "typescript":
		return []languageCheck{
			{"has_package_json", fileCheck("package.json")},
			{"has_src_directory", dirCheck("src")},
			{"has_sdk_entrypoint", anyFileCheck("src/index.ts", "src/sdk.ts")},
		}
	case "python":
		return []languageCheck{
			{"has_pyproject", anyFileCheck("pyproject.toml", "setup.py")},
			{"has_src_directory", dirCheck("src")},
			{"has_init_py", patternCheck("**/__init__.py")},
		}
	case "go":
		return []languageCheck{
			{"has_go_mod", fileCheck("go.mod")},
			{"has_go_files", patternCheck("*.go")},
		}
	case "java":
		return []languageCheck{
			{"has_pom_or_gradle", anyFileCheck("pom.xml", "build.gradle")},
			{"has_src_main", dirCheck("src/main")},
		}
	case "terraform":
		return []languageCheck{
			{"has_provider_go", patternCheck("**/provider.go")},
			{"has_go_mod", fileCheck("go.mod")},
		}
	}
	return nil
}

// Generation checks that a generation run produced a workflow
// manifest, a locatable SDK directory, the requested artifacts and
// the target language's structural markers. A missing manifest or
// SDK directory ends the assessment.
func (a *Assessor) Generation(target string, artifacts []string) *Result {
	r := NewResult()
	target = NormalizeTarget(target)

	workflow := exists(a.resolve(".speakeasy/workflow.yaml"))
	r.Require("workflow_exists", workflow, found(workflow, ".speakeasy/workflow.yaml"))
	if !workflow {
		return r.finish()
	}

	dir, ok := a.LocateSDK(target)
	if !ok {
		r.Fail("sdk_directory_exists", "SDK output directory not found")
		return r.finish()
	}
	r.Require("sdk_directory_exists", true, "SDK output directory found at "+dir)
	sdkDir := a.resolve(dir)

	for _, artifact := range artifacts {
		ok := exists(filepath.Join(sdkDir, filepath.FromSlash(artifact)))
		r.Require("artifact_"+artifact, ok, found(ok, artifact))
	}

	for _, lc := range languageChecks(target) {
		passed, details := lc.fn(sdkDir)
		r.Require(lc.name, passed, details)
	}

	return r.finish()
}

func fileCheck(rel string) func(string) (bool, string) {
	return func(base string) (bool, string) {
		ok := exists(filepath.Join(base, rel))
		return ok, found(ok, rel)
	}
}

func dirCheck(rel string) func(string) (bool, string) {
	return func(base string) (bool, string) {
		ok := isDir(filepath.Join(base, rel))
		return ok, found(ok, rel+"/")
	}
}

func anyFileCheck(rels ...string) func(string) (bool, string) {
	return func(base string) (bool, string) {
		for _, rel := range rels {
			if exists(filepath.Join(base, rel)) {
				return true, "Found " + rel
			}
		}
		return false, fmt.Sprintf("None of [%s] found", strings.Join(rels, ", "))
	}
}

func patternCheck(pattern string) func(string) (bool, string) {
	return func(base string) (bool, string) {
		matches := globFiles(base, pattern)
		if len(matches) > 0 {
			return true, fmt.Sprintf("Found %d files matching %s", len(matches), pattern)
		}
		return false, "No files matching " + pattern
	}
}

// globFiles returns the sorted files under base matching a
// doublestar pattern. A missing base yields nil.
func globFiles(base, pattern string) []string {
	matches, err := doublestar.Glob(
		os.DirFS(base), pattern, doublestar.WithFilesOnly(),
	)
	if err != nil {
		return nil
	}
	return matches
}

// globDirs returns directories under base matching pattern.
func globDirs(base, pattern string) []string {
	matches, err := doublestar.Glob(os.DirFS(base), pattern)
	if err != nil {
		return nil
	}
	var dirs []string
	for _, m := range matches {
		if isDir(filepath.Join(base, m)) {
			dirs = append(dirs, m)
		}
	}
	return dirs
}
