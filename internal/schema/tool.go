package schema

import (
	"context"
	"encoding/json"
)

// Tool is the interface all LLM-callable tools must satisfy.
type Tool interface {
	Name() string
	Description() string
	// Parameters returns the JSON Schema (as raw JSON bytes) for this tool's parameters.
	Parameters() json.RawMessage
	// Execute runs the tool. The returned value is serialised to JSON and
	// handed back to the model as a tool message.
	Execute(ctx context.Context, args map[string]any) (any, error)
}

// SpecOf returns the provider-facing description of t.
func SpecOf(t Tool) ToolSpec {
	return ToolSpec{Name: t.Name(), Description: t.Description(), Parameters: t.Parameters()}
}
