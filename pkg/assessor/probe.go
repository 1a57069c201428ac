package assessor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Probe is one strategy for locating an SDK output directory. It
// returns the directory relative to root, or ok=false.
type Probe func(root, target string) (dir string, ok bool)

// DefaultProbes returns the conventional probing order:
// sdk/<target>, sdks/<target>, <target>, sdk, then root-level
// language markers.
func DefaultProbes() []Probe {
	return []Probe{
		DirProbe("sdk/%s"),
		DirProbe("sdks/%s"),
		DirProbe("%s"),
		DirProbe("sdk"),
		RootMarkerProbe,
	}
}

// DirProbe matches a directory whose path is the pattern with %s
// replaced by the target. Patterns without a verb are used as-is.
func DirProbe(pattern string) Probe {
	return func(root, target string) (string, bool) {
		rel := pattern
		if strings.Contains(pattern, "%s") {
			rel = fmt.Sprintf(pattern, target)
		}
		if isDir(filepath.Join(root, rel)) {
			return rel, true
		}
		return "", false
	}
}

var rootMarkers = map[string][]string{
	"typescript": {"package.json"},
	"python":     {"pyproject.toml", "setup.py"},
	"go":         {"go.mod"},
	"terraform":  {"go.mod"},
	"java":       {"pom.xml", "build.gradle", "build.gradle.kts"},
	"csharp":     {"*.csproj", "*.sln"},
	"php":        {"composer.json"},
	"ruby":       {"Gemfile", "*.gemspec"},
}

// RootMarkerProbe matches the workspace root itself when a
// language manifest sits there, as happens when the generator
// writes the SDK in place.
func RootMarkerProbe(root, target string) (string, bool) {
	for _, marker := range rootMarkers[target] {
		matches, _ := filepath.Glob(filepath.Join(root, marker))
		if len(matches) > 0 {
			return ".", true
		}
	}
	return "", false
}

// LocateSDK runs the probes in order and returns the first match.
func (a *Assessor) LocateSDK(target string) (string, bool) {
	target = NormalizeTarget(target)
	for _, probe := range a.probes {
		if dir, ok := probe(a.root, target); ok {
			return dir, true
		}
	}
	return "", false
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
