package assertion

import "strings"

// ParseAssertionString parses a compact assertion string of the
// form "type:value" into a Definition. If no colon is present the
// entire string is treated as the type.
//
// Examples:
//
//	"contains:speakeasy run" -> {Type: "contains", Value: "speakeasy run"}
//	"valid_yaml"             -> {Type: "valid_yaml"}
//	"matches:x-speakeasy-\w+" -> {Type: "matches", Value: "x-speakeasy-\w+"}
//
// Whitelist kinds take a comma-separated list:
//
//	"no_invalid_commands:run,lint,overlay validate"
func ParseAssertionString(s string) Definition {
	parts := strings.SplitN(s, ":", 2)
	def := Definition{Type: strings.TrimSpace(parts[0])}
	if len(parts) < 2 {
		return def
	}

	switch def.Type {
	case "no_invalid_extensions", "no_invalid_commands":
		for _, item := range strings.Split(parts[1], ",") {
			if item = strings.TrimSpace(item); item != "" {
				def.ValidList = append(def.ValidList, item)
			}
		}
	default:
		def.Value = parts[1]
	}
	return def
}

// UnmarshalYAML accepts either the compact "type:value" string
// form or a full mapping.
func (d *Definition) UnmarshalYAML(unmarshal func(any) error) error {
	var compact string
	if err := unmarshal(&compact); err == nil {
		*d = ParseAssertionString(compact)
		return nil
	}

	type plain Definition
	var p plain
	if err := unmarshal(&p); err != nil {
		return err
	}
	*d = Definition(p)
	return nil
}
