package toolrun

import "encoding/json"

// Schema describes one tool in the function-calling format: name, description and
// a JSON Schema for the arguments.
type Schema struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters"`
}

// OpenAITool is an entry of the "tools" array of a chat-completion request.
type OpenAITool struct {
	Type     string `json:"type"`
	Function Schema `json:"function"`
}

// Schemas returns the schema of every registered tool, ordered by name.
func (r *Registry) Schemas() []Schema {
	return schemasOf(r.GetAllTools())
}

// SchemasByTag returns the schemas of the tools tagged with tag, ordered by name.
// It lets a caller offer the model a subset of the registry.
func (r *Registry) SchemasByTag(tag string) []Schema {
	return schemasOf(r.FindByTag(tag))
}

// OpenAITools wraps Schemas as {"type":"function","function":{...}} entries.
func (r *Registry) OpenAITools() []OpenAITool {
	return openAITools(r.Schemas())
}

// OpenAIToolsByTag is OpenAITools restricted to the tools tagged with tag.
func (r *Registry) OpenAIToolsByTag(tag string) []OpenAITool {
	return openAITools(r.SchemasByTag(tag))
}

// OpenAIToolsJSON returns OpenAITools encoded as a JSON array.
func (r *Registry) OpenAIToolsJSON() ([]byte, error) {
	return json.Marshal(r.OpenAITools())
}

func schemasOf(tools []Tool) []Schema {
	out := make([]Schema, 0, len(tools))
	for _, t := range tools {
		out = append(out, Schema{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	return out
}

func openAITools(schemas []Schema) []OpenAITool {
	out := make([]OpenAITool, len(schemas))
	for i, s := range schemas {
		out[i] = OpenAITool{Type: "function", Function: s}
	}
	return out
}
