package models

import "context"

// ToolHandler executes a tool with arguments that have already passed schema validation.
// Handlers return model-readable text; a returned error is reported to the model as text too.
type ToolHandler func(ctx context.Context, args map[string]interface{}) (string, error)

type FunctionDeclaration struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  Parameters  `json:"parameters"`
	Handler     ToolHandler `json:"-"`
	// Mutating marks tools that write to the data store.
	Mutating bool `json:"-"`
}

// Parameters defines the JSON Schema for function parameters
type Parameters struct {
	Type       string                 `json:"type"`
	Properties map[string]interface{} `json:"properties"`
	Required   []string               `json:"required"`
}

// Property returns the schema map of a single property.
func (p Parameters) Property(name string) (map[string]interface{}, bool) {
	raw, ok := p.Properties[name]
	if !ok {
		return nil, false
	}
	prop, ok := raw.(map[string]interface{})
	return prop, ok
}
