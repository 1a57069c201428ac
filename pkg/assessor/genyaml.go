package assessor

import (
	"fmt"
	"os"
)

// genYAMLCandidates are tried in order when no path is given.
var genYAMLCandidates = []string{".speakeasy/gen.yaml", "gen.yaml"}

// requiredGenFields lists the per-language fields gen.yaml must
// declare.
var requiredGenFields = map[string][]string{
	"typescript": {"packageName"},
	"python":     {"packageName"},
	"go":         {"packageName"},
	"csharp":     {"packageName"},
	"terraform":  {"packageName"},
	"java":       {"groupID", "artifactID"},
	"php":        {"packageName", "namespace"},
	"ruby":       {"packageName", "module"},
}

// GenYAML validates the language section of the generator config
// and its required fields.
func (a *Assessor) GenYAML(language, file string) *Result {
	language = NormalizeTarget(language)
	r := NewResult()
	doc, ok := a.load(r, a.genYAMLPath(file), "gen_yaml_exists")
	if !ok {
		return r.finish()
	}

	section, ok := doc.mapping(language)
	r.Require("has_"+language+"_section", ok, presence(ok, "'"+language+"' section"))
	if !ok {
		return r.finish()
	}

	for _, field := range requiredGenFields[language] {
		v, present := section[field]
		ok := present && fmt.Sprint(v) != ""
		r.Require(fmt.Sprintf("%s_has_%s", language, field), ok, presence(ok, language+"."+field))
	}
	return r.finish()
}

func (a *Assessor) genYAMLPath(file string) string {
	if file != "" {
		return file
	}
	for _, c := range genYAMLCandidates {
		if _, err := os.Stat(a.resolve(c)); err == nil {
			return c
		}
	}
	return genYAMLCandidates[0]
}
