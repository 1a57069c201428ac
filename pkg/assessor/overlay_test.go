package assessor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cursorOverlay = `overlay: 1.0.0
info:
  title: pagination
  version: 0.0.1
actions:
  - target: $.paths
    update:
      x-speakeasy-pagination:
        type: cursor
        inputs: [cursor]
        outputs:
          results: $.data
`

func TestAssessor_Overlay_Valid(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "overlays/fix.yaml", `overlay: 1.0.0
info: {title: fix, version: 1.0.0}
actions:
  - target: $.info
    update: {description: better}
  - target: $.paths["/old"]
    remove: true
`)

	r := New(root).Overlay("overlays/fix.yaml")

	assert.True(t, r.Passed, r.FailedChecks())
	assert.Equal(t, []string{
		"overlay_exists", "valid_yaml", "has_overlay_version",
		"has_info", "has_actions", "action_0_valid", "action_1_valid",
	}, checkNames(r))
}

func TestAssessor_Overlay_MissingActions(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.yaml", "overlay: 1.0.0\ninfo: {}\n")
	writeFile(t, root, "b.yaml", "overlay: 1.0.0\ninfo: {}\nactions: []\n")

	for _, file := range []string{"a.yaml", "b.yaml"} {
		r := New(root).Overlay(file)
		assert.False(t, r.Passed, file)
		requireCheck(t, r, "has_actions", false)
	}
}

func TestAssessor_Overlay_InvalidAction(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "o.yaml", `overlay: 1.0.0
info: {}
actions:
  - target: $.info
  - update: {x: 1}
`)

	r := New(root).Overlay("o.yaml")
	assert.False(t, r.Passed)
	requireCheck(t, r, "action_0_valid", false)
	requireCheck(t, r, "action_1_valid", false)
}

func TestAssessor_Overlay_StructuralPreconditions(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "bad.yaml", "overlay: [unclosed\n")

	r := New(root).Overlay("missing.yaml")
	assert.False(t, r.Passed)
	assert.Equal(t, []string{"overlay_exists"}, checkNames(r))

	r = New(root).Overlay("bad.yaml")
	assert.False(t, r.Passed)
	assert.Equal(t, []string{"overlay_exists", "valid_yaml"}, checkNames(r))
}

func TestAssessor_Overlay_MergesEmbeddedPagination(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "o.yaml", cursorOverlay)

	r := New(root).Overlay("o.yaml")

	assert.False(t, r.Passed)
	requireCheck(t, r, "has_actions", true)
	requireCheck(t, r, "pagination_has_type", true)
	requireCheck(t, r, "pagination_cursor_has_next", false)
}

func TestAssessor_PaginationConfig_CursorMissingNext(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "o.yaml", cursorOverlay)

	r := New(root).PaginationConfig("o.yaml")

	assert.False(t, r.Passed)
	requireCheck(t, r, "has_type", true)
	requireCheck(t, r, "valid_type", true)
	requireCheck(t, r, "has_inputs", true)
	requireCheck(t, r, "has_outputs", true)
	requireCheck(t, r, "cursor_has_next", false)
	assert.Equal(t, []string{"cursor_has_next"}, r.FailedChecks())
}

func TestAssessor_PaginationConfig_MultipleBlocks(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "o.yaml", `overlay: 1.0.0
info: {}
actions:
  - target: $.paths["/a"].get
    update:
      x-speakeasy-pagination:
        type: offsetLimit
        inputs:
          - {name: offset, in: parameters, type: offset}
        outputs: {results: $.items}
  - target: $.paths["/b"].get
    update:
      x-speakeasy-pagination:
        type: pages
        inputs: [page]
        outputs: {results: $.items}
`)

	r := New(root).PaginationConfig("o.yaml")

	assert.False(t, r.Passed)
	requireCheck(t, r, "valid_type", true)
	requireCheck(t, r, "block_2_valid_type", false)
}

func TestAssessor_PaginationConfig_None(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "o.yaml", "overlay: 1.0.0\ninfo: {}\nactions: []\n")

	r := New(root).PaginationConfig("o.yaml")
	assert.False(t, r.Passed)
	requireCheck(t, r, "has_pagination", false)
}

func TestAssessor_PaginationConfig_Malformed(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "o.yaml", "x-speakeasy-pagination:\n  type: cursor\n  inputs: cursor\n")

	r := New(root).PaginationConfig("o.yaml")
	assert.False(t, r.Passed)
	requireCheck(t, r, "well_formed", false)
}

func TestAssessor_RetriesConfig(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "good.yaml", `x-speakeasy-retries:
  strategy: backoff
  backoff:
    initialInterval: 500
    maxInterval: 60000
    exponent: 1.5
  statusCodes: [429, 5XX]
`)
	writeFile(t, root, "nobackoff.yaml", "x-speakeasy-retries:\n  strategy: backoff\n")
	writeFile(t, root, "nostrategy.yaml", "x-speakeasy-retries:\n  statusCodes: [503]\n")

	r := New(root).RetriesConfig("good.yaml")
	assert.True(t, r.Passed, r.FailedChecks())
	requireCheck(t, r, "backoff_has_exponent", true)
	requireCheck(t, r, "has_status_codes", true)

	r = New(root).RetriesConfig("nobackoff.yaml")
	assert.False(t, r.Passed)
	requireCheck(t, r, "has_backoff", false)
	requireCheck(t, r, "has_status_codes", false)

	r = New(root).RetriesConfig("nostrategy.yaml")
	assert.False(t, r.Passed)
	requireCheck(t, r, "has_strategy", false)
}

func TestAssessor_NamingOverlay(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "named.yaml", `overlay: 1.0.0
info: {}
actions:
  - target: $.paths["/pets"].get
    update:
      x-speakeasy-name-override: list
      x-speakeasy-group: pets
`)
	writeFile(t, root, "plain.yaml", "overlay: 1.0.0\ninfo: {}\nactions: []\n")

	r := New(root).NamingOverlay("named.yaml")
	assert.True(t, r.Passed)
	requireCheck(t, r, "name_overrides", true)
	requireCheck(t, r, "group_extensions", true)

	r = New(root).NamingOverlay("plain.yaml")
	assert.False(t, r.Passed)
	requireCheck(t, r, "has_naming_extensions", false)
}

func TestAssessor_Overlay_MergesNaming(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "o.yaml", `overlay: 1.0.0
info: {}
actions:
  - target: $.paths["/pets"].get
    update:
      x-speakeasy-group: pets
`)

	r := New(root).Overlay("o.yaml")
	require.True(t, r.Passed, r.FailedChecks())
	requireCheck(t, r, "naming_group_extensions", true)
	requireCheck(t, r, "naming_name_overrides", false)
}
