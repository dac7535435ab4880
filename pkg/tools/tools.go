package tools

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// ErrToolNotFound is returned when a tool is not found
var ErrToolNotFound = errors.New("tool not found")

// ToolInputSchema describes the JSON-schema-shaped input contract of a tool.
// It is documentation-as-data: enforcement happens inside the handlers.
type ToolInputSchema struct {
	Type       string                 `json:"type"`
	Properties map[string]interface{} `json:"properties,omitempty"`
	Required   []string               `json:"required,omitempty"`
}

// Handler executes a tool with already-decoded arguments.
type Handler func(ctx context.Context, args map[string]interface{}) (interface{}, error)

// Tool represents a tool that can be executed by the MCP server
type Tool struct {
	Name        string
	Description string
	InputSchema ToolInputSchema
	Handler     Handler
}

// Registry manages the available tools
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*Tool
}

// NewRegistry creates a new tool registry
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]*Tool),
	}
}

// Register registers a tool with the registry
func (r *Registry) Register(tool *Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[tool.Name] = tool
}

// Get gets a tool by name
func (r *Registry) Get(name string) (*Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	return tool, ok
}

// All returns every registered tool, sorted by name for a deterministic
// listing order.
func (r *Registry) All() []*Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]*Tool, 0, len(r.tools))
	for _, tool := range r.tools {
		tools = append(tools, tool)
	}
	sort.Slice(tools, func(i, j int) bool {
		return tools[i].Name < tools[j].Name
	})
	return tools
}

// Names returns the sorted tool names.
func (r *Registry) Names() []string {
	all := r.All()
	names := make([]string, len(all))
	for i, tool := range all {
		names[i] = tool.Name
	}
	return names
}

// Execute executes a tool with the given arguments.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]interface{}) (interface{}, error) {
	tool, ok := r.Get(name)
	if !ok {
		return nil, ErrToolNotFound
	}
	return tool.Handler(ctx, args)
}
