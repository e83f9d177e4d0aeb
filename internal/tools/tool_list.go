package tools

import (
	"slices"
	"strings"

	"github.com/crystaldolphin/pillpal/internal/schema"
)

// ToolList holds a named set of tools and exposes them for LLM calls.
type ToolList struct {
	tools map[string]schema.Tool
}

func NewToolList(ts ...schema.Tool) *ToolList {
	list := ToolList{tools: make(map[string]schema.Tool, len(ts))}
	for _, t := range ts {
		list.tools[t.Name()] = t
	}

	return &list
}

// Get returns the tool with the given name, or nil if not found.
func (r *ToolList) Get(name string) schema.Tool {
	return r.tools[name]
}

func (r *ToolList) Len() int { return len(r.tools) }

// Names returns the tool names in sorted order.
func (r *ToolList) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Specs returns the provider-facing definitions sorted by name, so request
// bodies are stable across calls.
func (r *ToolList) Specs() []schema.ToolSpec {
	specs := make([]schema.ToolSpec, 0, len(r.tools))
	for _, t := range r.tools {
		specs = append(specs, schema.SpecOf(t))
	}
	slices.SortFunc(specs, func(a, b schema.ToolSpec) int { return strings.Compare(a.Name, b.Name) })
	return specs
}
