package assessor

import (
	"fmt"
	"path"
	"sort"
	"strings"
)

// DefaultWorkflowPath is the generator's workflow manifest.
const DefaultWorkflowPath = ".speakeasy/workflow.yaml"

// WorkflowStructure validates the workflow manifest's top-level
// keys and every declared source and target.
func (a *Assessor) WorkflowStructure(file string) *Result {
	if file == "" {
		file = DefaultWorkflowPath
	}
	r := NewResult()
	doc, ok := a.load(r, file, "workflow_exists")
	if !ok {
		return r.finish()
	}

	for _, key := range []string{"workflowVersion", "sources", "targets"} {
		r.Require("has_"+key, doc.has(key), presence(doc.has(key), "'"+key+"'"))
	}

	if sources, ok := doc.mapping("sources"); ok {
		for _, name := range sources.sortedKeys() {
			src, _ := asMap(sources[name])
			r.Require("source_"+name+"_has_inputs", src.has("inputs"),
				presence(src.has("inputs"), "source "+name+" inputs"))
		}
	}
	if targets, ok := doc.mapping("targets"); ok {
		for _, name := range targets.sortedKeys() {
			tgt, _ := asMap(targets[name])
			r.Require("target_"+name+"_has_target", tgt.has("target"),
				presence(tgt.has("target"), "target "+name+" language"))
			r.Require("target_"+name+"_has_source", tgt.has("source"),
				presence(tgt.has("source"), "target "+name+" source"))
		}
	}

	return r.finish()
}

// MultiTargetWorkflow validates a workflow declaring several
// targets. Besides a missing or unparseable manifest, only colliding
// output paths fail.
func (a *Assessor) MultiTargetWorkflow(file string) *Result {
	if file == "" {
		file = DefaultWorkflowPath
	}
	r := NewResult()
	doc, ok := a.load(r, file, "workflow_exists")
	if !ok {
		return r.finish()
	}

	sources, _ := doc.mapping("sources")
	r.Add("has_sources", len(sources) > 0, fmt.Sprintf("%d sources declared", len(sources)))

	targets, _ := doc.mapping("targets")
	r.Add("multiple_targets", len(targets) > 1, fmt.Sprintf("%d targets declared", len(targets)))

	owners := make(map[string][]string)
	for _, name := range targets.sortedKeys() {
		tgt, _ := asMap(targets[name])
		out, ok := tgt.str("output")
		if !ok || out == "" {
			continue
		}
		key := path.Clean(out)
		owners[key] = append(owners[key], name)
	}

	var collisions []string
	for out, names := range owners {
		if len(names) > 1 {
			collisions = append(collisions, fmt.Sprintf("%s (%s)", out, strings.Join(names, ", ")))
		}
	}
	sort.Strings(collisions)
	if len(collisions) > 0 {
		r.Fail("unique_outputs", "output paths collide: "+strings.Join(collisions, "; "))
	} else {
		r.Require("unique_outputs", true, fmt.Sprintf("%d distinct output paths", len(owners)))
	}

	return r.finish()
}
