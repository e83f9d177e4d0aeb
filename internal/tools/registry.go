package tools

import (
	"github.com/crystaldolphin/pillpal/internal/schema"
)

// ToolName is the canonical name of a built-in tool.
type ToolName string

const (
	ToolMedSchedule ToolName = "get_med_schedule"
	ToolLogEvent    ToolName = "log_event"
)

// Registry holds the fixed set of named tools. It is built once at startup
// and never changes afterwards.
type Registry struct {
	tools map[string]schema.Tool
}

// GetTool returns the tool with the given name, or nil.
func (r *Registry) GetTool(name ToolName) schema.Tool {
	return r.tools[string(name)]
}

func (r *Registry) AllTools() *ToolList {
	list := ToolList{tools: make(map[string]schema.Tool, len(r.tools))}
	for k, t := range r.tools {
		list.tools[k] = t
	}
	return &list
}
