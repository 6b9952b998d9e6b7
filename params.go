package toolrun

import (
	"maps"
	"slices"
)

// Params builds an object parameters schema one property at a time.
//
//	schema := toolrun.NewParams().
//		Int("a", true).
//		Int("b", true).
//		Schema()
type Params struct {
	props    map[string]any
	required []string
}

// NewParams returns an empty object schema builder.
func NewParams() *Params {
	return &Params{props: make(map[string]any)}
}

// Add declares a property of the given JSON Schema type. An empty description is omitted.
// Declaring the same name twice replaces the earlier property.
func (p *Params) Add(name, jsonType, description string, required bool) *Params {
	prop := map[string]any{"type": jsonType}
	if description != "" {
		prop["description"] = description
	}
	p.props[name] = prop
	if required && !slices.Contains(p.required, name) {
		p.required = append(p.required, name)
	}
	return p
}

// Int declares an integer property.
func (p *Params) Int(name string, required bool) *Params {
	return p.Add(name, "integer", "", required)
}

// Number declares a number property.
func (p *Params) Number(name string, required bool) *Params {
	return p.Add(name, "number", "", required)
}

// String declares a string property.
func (p *Params) String(name string, required bool) *Params {
	return p.Add(name, "string", "", required)
}

// Bool declares a boolean property.
func (p *Params) Bool(name string, required bool) *Params {
	return p.Add(name, "boolean", "", required)
}

// Schema returns the object schema. Property maps are shared with the builder.
func (p *Params) Schema() map[string]any {
	props := maps.Clone(p.props)
	required := make([]any, len(p.required))
	for i, name := range p.required {
		required[i] = name
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}
