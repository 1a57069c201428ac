package assessor

import (
	"fmt"
	"sort"
	"strings"
)

const (
	entityKey          = "x-speakeasy-entity"
	entityOperationKey = "x-speakeasy-entity-operation"
)

var crudVerbs = []string{"create", "read", "update", "delete"}

// TerraformAnnotations counts entity and entity-operation
// annotations in the document at path and reports CRUD coverage.
func (a *Assessor) TerraformAnnotations(path string) *Result {
	r := NewResult()
	doc, ok := a.load(r, path, "document_exists")
	if !ok {
		return r.finish()
	}

	entities := collect(doc, entityKey)
	r.Require("has_entity_annotations", len(entities) > 0,
		fmt.Sprintf("%d entity annotations", len(entities)))

	operations := collect(doc, entityOperationKey)
	r.Require("has_entity_operations", len(operations) > 0,
		fmt.Sprintf("%d entity operations", len(operations)))

	covered := make(map[string]bool)
	for _, op := range operations {
		for _, verb := range entityVerbs(op) {
			covered[verb] = true
		}
	}
	var have, missing []string
	for _, v := range crudVerbs {
		if covered[v] {
			have = append(have, v)
		} else {
			missing = append(missing, v)
		}
	}
	details := "covered: " + strings.Join(have, ", ")
	if len(missing) > 0 {
		details += "; missing: " + strings.Join(missing, ", ")
	}
	c := r.Add("crud_coverage", true, details)
	c.Extra = map[string]any{"covered": have, "missing": missing}

	return r.finish()
}

// entityVerbs extracts the CRUD verbs from an entity-operation
// value such as "Pet#create", "Pet#get,update" or a list of them.
func entityVerbs(v any) []string {
	var values []string
	switch t := v.(type) {
	case string:
		values = []string{t}
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok {
				values = append(values, s)
			}
		}
	}

	var verbs []string
	for _, value := range values {
		_, ops, ok := strings.Cut(value, "#")
		if !ok {
			continue
		}
		for _, op := range strings.Split(ops, ",") {
			op = strings.ToLower(strings.TrimSpace(op))
			if op == "get" {
				op = "read"
			}
			verbs = append(verbs, op)
		}
	}
	sort.Strings(verbs)
	return verbs
}
