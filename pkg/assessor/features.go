package assessor

import (
	"fmt"
	"strings"
)

// MCPConfig checks that gen.yaml enables the TypeScript MCP server
// and reports whether a server directory was generated.
func (a *Assessor) MCPConfig(file string) *Result {
	r := NewResult()
	doc, ok := a.load(r, a.genYAMLPath(file), "gen_yaml_exists")
	if !ok {
		return r.finish()
	}

	v, _ := doc.path("typescript", "enableMCPServer")
	enabled := truthy(v)
	r.Require("mcp_enabled", enabled, fmt.Sprintf("typescript.enableMCPServer = %v", v))

	dirs := globDirs(a.root, "**/mcp-server")
	r.Add("mcp_server_directory", len(dirs) > 0, found(len(dirs) > 0, "mcp-server directory"))

	return r.finish()
}

// TestGeneration reports whether test generation is enabled and a
// tests directory exists. It never fails.
func (a *Assessor) TestGeneration(file string) *Result {
	r := NewResult()

	enabled := false
	if doc, ok := a.load(NewResult(), a.genYAMLPath(file), "gen_yaml_exists"); ok {
		v, _ := doc.path("generation", "tests", "generateTests")
		enabled = truthy(v)
	}
	r.Add("tests_enabled", enabled, fmt.Sprintf("generation.tests.generateTests = %v", enabled))

	dirs := globDirs(a.root, "**/{tests,test,__tests__}")
	details := "no tests directory"
	if len(dirs) > 0 {
		details = "tests directory: " + strings.Join(dirs, ", ")
	}
	r.Add("tests_directory", len(dirs) > 0, details)

	r.Summary = fmt.Sprintf("%d/%d checks passed", r.PassedCount(), len(r.Checks))
	r.Passed = true
	return r
}

// naming holds the naming-extension counts for an overlay.
type naming struct {
	result *Result
	hasAny bool
}

func namingChecks(doc document) naming {
	r := NewResult()
	overrides := len(collect(doc, "x-speakeasy-name-override"))
	groups := len(collect(doc, "x-speakeasy-group"))

	r.Add("name_overrides", overrides > 0, fmt.Sprintf("%d name overrides", overrides))
	r.Add("group_extensions", groups > 0, fmt.Sprintf("%d group extensions", groups))
	hasAny := overrides+groups > 0
	r.Require("has_naming_extensions", hasAny, presence(hasAny, "naming extensions"))
	return naming{result: r.finish(), hasAny: hasAny}
}

// NamingOverlay counts x-speakeasy-name-override and
// x-speakeasy-group extensions in the overlay at path. It fails
// iff neither appears.
func (a *Assessor) NamingOverlay(path string) *Result {
	r := NewResult()
	doc, ok := a.load(r, path, "overlay_exists")
	if !ok {
		return r.finish()
	}
	Merge(r, namingChecks(doc).result, "")
	return r.finish()
}
