package assessor

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

const paginationKey = "x-speakeasy-pagination"

var paginationTypes = map[string]bool{
	"cursor":      true,
	"offsetLimit": true,
	"offset":      true,
}

// PaginationBlock is the typed form of an x-speakeasy-pagination
// extension. Inputs entries are either parameter names or
// {name, in, type} mappings.
type PaginationBlock struct {
	Type    string         `mapstructure:"type"`
	Inputs  []any          `mapstructure:"inputs"`
	Outputs map[string]any `mapstructure:"outputs"`
}

// PaginationConfig validates every x-speakeasy-pagination block in
// the document at path.
func (a *Assessor) PaginationConfig(path string) *Result {
	r := NewResult()
	doc, ok := a.load(r, path, "document_exists")
	if !ok {
		return r.finish()
	}
	blocks := collect(doc, paginationKey)
	r.Require("has_pagination", len(blocks) > 0, fmt.Sprintf("%d pagination blocks found", len(blocks)))
	if len(blocks) == 0 {
		return r.finish()
	}
	Merge(r, paginationChecks(blocks), "")
	return r.finish()
}

// paginationChecks validates blocks. A single block uses plain
// check names; later blocks are prefixed block_<n>_.
func paginationChecks(blocks []any) *Result {
	r := NewResult()
	for i, raw := range blocks {
		prefix := ""
		if i > 0 {
			prefix = fmt.Sprintf("block_%d_", i+1)
		}

		var block PaginationBlock
		if raw == nil {
			r.Fail(prefix+"well_formed", fmt.Sprintf("pagination block %d is empty", i+1))
			continue
		}
		if err := mapstructure.Decode(raw, &block); err != nil {
			r.Fail(prefix+"well_formed", fmt.Sprintf("pagination block %d malformed: %v", i+1, err))
			continue
		}

		r.Require(prefix+"has_type", block.Type != "", presence(block.Type != "", "type"))
		r.Require(prefix+"valid_type", paginationTypes[block.Type],
			fmt.Sprintf("type %q (expected cursor, offsetLimit or offset)", block.Type))
		r.Require(prefix+"has_inputs", len(block.Inputs) > 0, fmt.Sprintf("%d inputs", len(block.Inputs)))
		r.Require(prefix+"has_outputs", len(block.Outputs) > 0, fmt.Sprintf("%d outputs", len(block.Outputs)))

		if block.Type == "cursor" {
			_, next := block.Outputs["nextCursor"]
			r.Require(prefix+"cursor_has_next", next, presence(next, "outputs.nextCursor"))
		}
	}
	return r.finish()
}
