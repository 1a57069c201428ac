package bank

import (
	"strconv"

	"digital.vasic.skilleval/pkg/assertion"
)

// Suite names a group of test cases stored in tests/<suite>.yaml.
type Suite string

// Text suites grade a single model completion.
const (
	SuiteActivation    Suite = "activation"
	SuiteCorrectness   Suite = "correctness"
	SuiteCompleteness  Suite = "completeness"
	SuiteHallucination Suite = "hallucination"
)

// Agent suites run the agent in a workspace and assess the result.
const (
	SuiteGeneration Suite = "generation"
	SuiteOverlay    Suite = "overlay"
	SuiteDiagnosis  Suite = "diagnosis"
	SuiteWorkflow   Suite = "workflow"
)

// SuiteAll selects every known suite.
const SuiteAll Suite = "all"

// TextSuites and AgentSuites list the known suites in load order.
var (
	TextSuites  = []Suite{SuiteActivation, SuiteCorrectness, SuiteCompleteness, SuiteHallucination}
	AgentSuites = []Suite{SuiteGeneration, SuiteOverlay, SuiteDiagnosis, SuiteWorkflow}
)

// KnownSuites returns text suites followed by agent suites.
func KnownSuites() []Suite {
	return append(append([]Suite{}, TextSuites...), AgentSuites...)
}

// IsAgent reports whether cases of s run the agent.
func (s Suite) IsAgent() bool {
	for _, a := range AgentSuites {
		if a == s {
			return true
		}
	}
	return false
}

// IsKnown reports whether s is a text or agent suite.
func (s Suite) IsKnown() bool {
	for _, k := range KnownSuites() {
		if k == s {
			return true
		}
	}
	return false
}

// SuiteFile is the YAML structure of tests/<suite>.yaml.
type SuiteFile struct {
	Tests []Case `yaml:"tests"`
}

// Case is one test definition. Text-suite fields and agent-suite
// fields share the struct; each suite reads the ones it needs.
type Case struct {
	Name  string `yaml:"name,omitempty" json:"name,omitempty"`
	Skill string `yaml:"skill" json:"skill"`
	Suite Suite  `yaml:"-" json:"suite"`

	// activation
	ShouldActivate    []string `yaml:"should_activate,omitempty" json:"should_activate,omitempty"`
	ShouldNotActivate []string `yaml:"should_not_activate,omitempty" json:"should_not_activate,omitempty"`

	// correctness, completeness, hallucination
	Prompt          string                 `yaml:"prompt,omitempty" json:"prompt,omitempty"`
	Prompts         []string               `yaml:"prompts,omitempty" json:"prompts,omitempty"`
	Assertions      []assertion.Definition `yaml:"assertions,omitempty" json:"assertions,omitempty"`
	RequiredSteps   []string               `yaml:"required_steps,omitempty" json:"required_steps,omitempty"`
	ValidExtensions []string               `yaml:"valid_extensions,omitempty" json:"valid_extensions,omitempty"`
	ValidCommands   []string               `yaml:"valid_commands,omitempty" json:"valid_commands,omitempty"`

	// agent suites
	Type               Suite        `yaml:"type,omitempty" json:"type,omitempty"`
	Target             string       `yaml:"target,omitempty" json:"target,omitempty"`
	Output             string       `yaml:"output,omitempty" json:"output,omitempty"`
	ExpectedArtifacts  []string     `yaml:"expected_artifacts,omitempty" json:"expected_artifacts,omitempty"`
	ExpectedExtensions []string     `yaml:"expected_extensions,omitempty" json:"expected_extensions,omitempty"`
	ExpectedIssues     []string     `yaml:"expected_issues,omitempty" json:"expected_issues,omitempty"`
	ExpectedSkill      string       `yaml:"expected_skill,omitempty" json:"expected_skill,omitempty"`
	MaxTurns           int          `yaml:"max_turns,omitempty" json:"max_turns,omitempty"`
	Checks             []Assessment `yaml:"checks,omitempty" json:"checks,omitempty"`

	// fixtures
	SpecFile   string  `yaml:"spec_file,omitempty" json:"spec_file,omitempty"`
	Source     *Source `yaml:"source,omitempty" json:"source,omitempty"`
	FixtureDir string  `yaml:"fixture_dir,omitempty" json:"fixture_dir,omitempty"`
	GenYAML    string  `yaml:"gen_yaml,omitempty" json:"gen_yaml,omitempty"`
}

// Source is an inline git fixture reference.
type Source struct {
	Repository string    `yaml:"repository" json:"repository"`
	Commit     string    `yaml:"commit" json:"commit"`
	SpecPath   string    `yaml:"spec_path,omitempty" json:"spec_path,omitempty"`
	Issue      *IssueRef `yaml:"issue,omitempty" json:"issue,omitempty"`
}

// IssueRef points at a GitHub issue attached to a diagnosis fixture.
type IssueRef struct {
	Repo   string `yaml:"repo" json:"repo"`
	Number int    `yaml:"number" json:"number"`
}

// Assessment selects one workspace assessment and its arguments.
type Assessment struct {
	Kind     string   `yaml:"kind" json:"kind"`
	Path     string   `yaml:"path,omitempty" json:"path,omitempty"`
	Language string   `yaml:"language,omitempty" json:"language,omitempty"`
	Mode     string   `yaml:"mode,omitempty" json:"mode,omitempty"`
	Command  string   `yaml:"command,omitempty" json:"command,omitempty"`
	Args     []string `yaml:"args,omitempty" json:"args,omitempty"`
	Methods  []string `yaml:"methods,omitempty" json:"methods,omitempty"`
}

// AssessmentKinds lists every kind an Assessment may name.
var AssessmentKinds = []string{
	"generation",
	"overlay",
	"lint_output",
	"naming",
	"sdk_compilation",
	"command_success",
	"overlay_validation",
	"pagination_config",
	"workflow_structure",
	"gen_yaml",
	"hooks_preserved",
	"retries_config",
	"terraform_annotations",
	"mcp_config",
	"test_generation",
	"multi_target_workflow",
	"naming_overlay",
}

// ID identifies a case within a bank: "<suite>/<name>", falling
// back to the skill and position when the case is unnamed.
func (c Case) ID(index int) string {
	if c.Name != "" {
		return string(c.Suite) + "/" + c.Name
	}
	return string(c.Suite) + "/" + c.Skill + "#" + strconv.Itoa(index)
}

// Label is the human-readable name used in reports.
func (c Case) Label() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Skill
}

// TaskType returns the agent task shape, defaulting to the suite.
func (c Case) TaskType() Suite {
	if c.Type != "" {
		return c.Type
	}
	return c.Suite
}

// Preview is the first prompt-like text of the case, used by list.
func (c Case) Preview() string {
	switch {
	case c.Prompt != "":
		return c.Prompt
	case len(c.Prompts) > 0:
		return c.Prompts[0]
	case len(c.ShouldActivate) > 0:
		return c.ShouldActivate[0]
	}
	return "..."
}
