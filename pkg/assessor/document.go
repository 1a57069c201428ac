package assessor

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// document is a parsed YAML or JSON mapping. The accessors model
// optional schema fields: each returns ok=false when the key is
// absent or holds the wrong shape.
type document map[string]any

func (d document) has(key string) bool {
	_, ok := d[key]
	return ok
}

func (d document) mapping(key string) (document, bool) {
	return asMap(d[key])
}

func (d document) sequence(key string) ([]any, bool) {
	s, ok := d[key].([]any)
	return s, ok
}

func (d document) str(key string) (string, bool) {
	s, ok := d[key].(string)
	return s, ok
}

// path walks nested mappings by key.
func (d document) path(keys ...string) (any, bool) {
	var cur any = map[string]any(d)
	for _, k := range keys {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m[k]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func (d document) sortedKeys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func asMap(v any) (document, bool) {
	switch m := v.(type) {
	case map[string]any:
		return document(m), true
	case document:
		return m, true
	case map[any]any:
		out := make(document, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	}
	return nil, false
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return strings.EqualFold(t, "true")
	}
	return false
}

// resolve maps a workspace-relative path onto the root. Absolute
// paths are used as-is.
func (a *Assessor) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(a.root, filepath.FromSlash(path))
}

func (a *Assessor) rel(path string) string {
	if r, err := filepath.Rel(a.root, path); err == nil {
		return filepath.ToSlash(r)
	}
	return path
}

// load reads and parses a YAML (or JSON) document, recording the
// existence and validity checks under existsName and "valid_yaml".
// Both are structural preconditions: on failure the caller returns.
func (a *Assessor) load(
	r *Result,
	path, existsName string,
) (document, bool) {
	full := a.resolve(path)
	data, err := os.ReadFile(full)
	if err != nil {
		r.Fail(existsName, fmt.Sprintf("%s missing", a.rel(full)))
		return nil, false
	}
	r.Require(existsName, true, fmt.Sprintf("%s found", a.rel(full)))

	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		r.Fail("valid_yaml", fmt.Sprintf("Invalid YAML: %v", err))
		return nil, false
	}
	doc, ok := asMap(raw)
	if !ok {
		r.Fail("valid_yaml", "document is not a mapping")
		return nil, false
	}
	r.Require("valid_yaml", true, "Valid YAML syntax")
	return doc, true
}

// collect walks an arbitrary parsed document and returns every
// value stored under key. Mapping keys are visited in sorted
// order so the result is deterministic.
func collect(v any, key string) []any {
	var out []any
	var walk func(any)
	walk = func(node any) {
		if m, ok := asMap(node); ok {
			for _, k := range m.sortedKeys() {
				if k == key {
					out = append(out, m[k])
					continue
				}
				walk(m[k])
			}
			return
		}
		if s, ok := node.([]any); ok {
			for _, item := range s {
				walk(item)
			}
		}
	}
	walk(v)
	return out
}

func presence(ok bool, what string) string {
	if ok {
		return what + " present"
	}
	return what + " missing"
}

func found(ok bool, what string) string {
	if ok {
		return what + " found"
	}
	return what + " missing"
}
