package assessor

import "fmt"

// Overlay validates an overlay document: required top-level keys
// and the shape of every action. Pagination, retries and naming
// extensions carried by the overlay are assessed too and merged
// under the pagination_, retries_ and naming_ prefixes.
func (a *Assessor) Overlay(path string) *Result {
	r := NewResult()
	doc, ok := a.load(r, path, "overlay_exists")
	if !ok {
		return r.finish()
	}

	r.Require("has_overlay_version", doc.has("overlay"), presence(doc.has("overlay"), "'overlay' field"))
	r.Require("has_info", doc.has("info"), presence(doc.has("info"), "'info' field"))

	actions, isSeq := doc.sequence("actions")
	hasActions := isSeq && len(actions) > 0
	details := "'actions' field present with entries"
	if !hasActions {
		details = "'actions' field missing or empty"
	}
	r.Require("has_actions", hasActions, details)

	for i, raw := range actions {
		action, _ := asMap(raw)
		valid := action.has("target") && (action.has("update") || action.has("remove"))
		msg := fmt.Sprintf("Action %d: valid", i)
		if !valid {
			msg = fmt.Sprintf("Action %d: missing target or update/remove", i)
		}
		r.Require(fmt.Sprintf("action_%d_valid", i), valid, msg)
	}

	if blocks := collect(doc, paginationKey); len(blocks) > 0 {
		Merge(r, paginationChecks(blocks), "pagination_")
	}
	if blocks := collect(doc, retriesKey); len(blocks) > 0 {
		Merge(r, retriesChecks(blocks), "retries_")
	}
	if n := namingChecks(doc); n.hasAny {
		Merge(r, n.result, "naming_")
	}

	return r.finish()
}
