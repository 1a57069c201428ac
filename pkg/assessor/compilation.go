package assessor

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"digital.vasic.skilleval/pkg/command"
)

// Step is one build or typecheck command in a compilation check.
type Step struct {
	Name    string
	Command []string
	Timeout time.Duration
}

func defaultSteps() map[string]map[Mode][]Step {
	goFull := []Step{
		{"download", []string{"go", "mod", "download"}, 120 * time.Second},
		{"build", []string{"go", "build", "./..."}, 120 * time.Second},
		{"vet", []string{"go", "vet", "./..."}, 60 * time.Second},
	}
	return map[string]map[Mode][]Step{
		"typescript": {
			ModeQuick: {
				{"typecheck", []string{"npx", "--no-install", "tsc", "--noEmit"}, 60 * time.Second},
			},
			ModeFull: {
				{"install", []string{"npm", "install"}, 120 * time.Second},
				{"build", []string{"npm", "run", "build"}, 120 * time.Second},
			},
		},
		"python": {
			ModeQuick: {
				{"compileall", []string{"python3", "-m", "compileall", "-q", "."}, 30 * time.Second},
			},
			ModeFull: {
				{"install", []string{"pip", "install", "-e", "."}, 120 * time.Second},
				{"compileall", []string{"python3", "-m", "compileall", "-q", "."}, 30 * time.Second},
			},
		},
		"go": {
			ModeQuick: {
				{"vet", []string{"go", "vet", "./..."}, 60 * time.Second},
			},
			ModeFull: goFull,
		},
		"java": {
			ModeQuick: {
				{"compile", []string{"./gradlew", "compileJava", "-q"}, 120 * time.Second},
			},
			ModeFull: {
				{"build", []string{"./gradlew", "build", "-x", "test"}, 120 * time.Second},
			},
		},
		"terraform": {
			ModeQuick: {
				{"build", []string{"go", "build", "./..."}, 120 * time.Second},
			},
			ModeFull: goFull,
		},
		"csharp": {
			ModeQuick: {
				{"build", []string{"dotnet", "build"}, 120 * time.Second},
			},
			ModeFull: {
				{"build", []string{"dotnet", "build"}, 120 * time.Second},
			},
		},
	}
}

// SDKCompilation runs the language's build steps for mode inside
// the located SDK directory, stopping at the first failing step.
// A missing toolchain executable passes with a skip annotation
// when the mode tolerates it and fails otherwise.
func (a *Assessor) SDKCompilation(
	ctx context.Context,
	language string,
	mode Mode,
) *Result {
	r := NewResult()
	language = NormalizeTarget(language)

	dir, ok := a.LocateSDK(language)
	if !ok {
		r.Fail("sdk_directory_exists", "SDK output directory not found")
		r.Summary = "compilation not attempted"
		return r
	}
	r.Require("sdk_directory_exists", true, "SDK output directory found at "+dir)
	sdkDir := a.resolve(dir)

	steps := a.steps[language][mode]
	if len(steps) == 0 {
		r.Add("compile_supported", true, fmt.Sprintf("no %s compilation steps for %s", mode, language))
		r.Summary = "compilation skipped: unsupported language"
		return r
	}

	for _, step := range steps {
		name := "compile_" + step.Name
		res := command.Run(ctx, command.Spec{
			Name:    executable(sdkDir, step.Command[0]),
			Args:    step.Command[1:],
			Dir:     sdkDir,
			Timeout: step.Timeout,
		})
		var c *Check

		switch {
		case res.Success:
			c = r.Require(name, true, strings.Join(step.Command, " ")+" succeeded")
		case res.NotFound && a.tolerate[mode]:
			c = r.Add(name, true, fmt.Sprintf("skipped: %s not found", step.Command[0]))
			c.Extra = map[string]any{"skipped": true}
			r.Summary = fmt.Sprintf("compilation skipped: %s not available", step.Command[0])
			return r
		case res.NotFound:
			c = r.Fail(name, fmt.Sprintf("%s not found", step.Command[0]))
		case res.TimedOut:
			c = r.Fail(name, fmt.Sprintf("%s timed out after %s", step.Name, step.Timeout))
		default:
			c = r.Fail(name, fmt.Sprintf("exit code %d: %s", res.ExitCode, truncate(res.Output(), 500)))
		}
		c.Extra = map[string]any{"command": res.Command}

		if !c.Passed {
			r.Summary = "compilation failed at " + step.Name
			return r
		}
	}

	r.Summary = fmt.Sprintf("compilation succeeded (%d steps)", len(steps))
	return r
}

// executable anchors relative wrapper scripts such as ./gradlew
// to the SDK directory.
func executable(dir, name string) string {
	if strings.HasPrefix(name, "./") {
		return filepath.Join(dir, name[2:])
	}
	return name
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
