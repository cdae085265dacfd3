package tools

import (
	"encoding/json"
	"strings"

	"github.com/invopop/jsonschema"
)

// ParameterSchema renders specs as a JSON Schema object, keeping their order.
func ParameterSchema(specs []ParameterSpec) *jsonschema.Schema {
	s := &jsonschema.Schema{
		Type:       "object",
		Properties: jsonschema.NewProperties(),
	}
	for _, p := range specs {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			continue
		}
		typ := strings.TrimSpace(p.Type)
		if typ == "" {
			typ = "string"
		}
		s.Properties.Set(name, &jsonschema.Schema{
			Type:        typ,
			Description: strings.TrimSpace(p.Description),
		})
		if p.Required {
			s.Required = append(s.Required, name)
		}
	}
	return s
}

func ParameterSchemaJSON(specs []ParameterSpec) string {
	b, _ := json.MarshalIndent(ParameterSchema(specs), "", "  ")
	return string(b)
}

// Schema returns the parameter schema of a registered tool.
func (r *Registry) Schema(name string) (*jsonschema.Schema, bool) {
	t, ok := r.Get(name)
	if !ok {
		return nil, false
	}
	return ParameterSchema(t.Parameters()), true
}
