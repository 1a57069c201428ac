package assessor

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// hookFiles are the hook sources each generator target keeps
// across regenerations.
var hookFiles = map[string][]string{
	"typescript": {"src/hooks/hooks.ts", "src/hooks/registration.ts"},
	"python":     {"**/_hooks/registration.py"},
	"go":         {"internal/hooks/registration.go"},
	"java":       {"src/main/java/**/hooks/SDKHooks.java"},
	"csharp":     {"**/Hooks/HookRegistration.cs"},
	"terraform":  {"internal/sdk/internal/hooks/registration.go"},
}

// HooksPreserved checks the expected hook files under dir. Absent
// hooks pass since they are created on demand; a hook file that
// exists but is empty fails.
func (a *Assessor) HooksPreserved(language, dir string) *Result {
	language = NormalizeTarget(language)
	r := NewResult()

	if dir == "" {
		if located, ok := a.LocateSDK(language); ok {
			dir = located
		} else {
			dir = "."
		}
	}
	base := a.resolve(dir)

	patterns, known := hookFiles[language]
	if !known {
		r.Add("hooks", true, fmt.Sprintf("no hook conventions for %s", language))
		return r.finish()
	}

	for _, pattern := range patterns {
		name := "hook_" + path.Base(pattern)
		matches := globFiles(base, pattern)
		if len(matches) == 0 {
			r.Add(name, true, pattern+" not present (hooks are created on demand)")
			continue
		}
		for _, m := range matches {
			checkName := name
			if len(matches) > 1 {
				checkName = "hook_" + m
			}
			data, err := os.ReadFile(filepath.Join(base, m))
			nonEmpty := err == nil && strings.TrimSpace(string(data)) != ""
			details := m + " present"
			if !nonEmpty {
				details = m + " exists but is empty"
			}
			r.Require(checkName, nonEmpty, details)
		}
	}
	return r.finish()
}
