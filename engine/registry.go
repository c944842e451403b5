package engine

import (
	"sync"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/peacockclub/assistant/core"
)

// ToolRegistry holds the tools available to the agent.
type ToolRegistry struct {
	mu    sync.RWMutex
	tools map[string]core.Tool
	order []string
}

// NewToolRegistry creates an empty registry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{tools: make(map[string]core.Tool)}
}

// Register adds a tool. Registering the same name twice replaces the
// earlier tool but keeps its position.
func (r *ToolRegistry) Register(tool core.Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[tool.Name()]; !exists {
		r.order = append(r.order, tool.Name())
	}
	r.tools[tool.Name()] = tool
}

// RegisterAll adds multiple tools.
func (r *ToolRegistry) RegisterAll(tools []core.Tool) {
	for _, tool := range tools {
		r.Register(tool)
	}
}

// Get returns the tool with the given name.
func (r *ToolRegistry) Get(name string) (core.Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	return tool, ok
}

// Names returns all registered tool names in registration order.
func (r *ToolRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// ToAPITools converts the registered tools to Anthropic API tool params,
// in registration order.
func (r *ToolRegistry) ToAPITools() []anthropic.ToolUnionParam {
	r.mu.RLock()
	defer r.mu.RUnlock()

	apiTools := make([]anthropic.ToolUnionParam, 0, len(r.order))
	for _, name := range r.order {
		apiTools = append(apiTools, toAPITool(r.tools[name]))
	}
	return apiTools
}

func toAPITool(tool core.Tool) anthropic.ToolUnionParam {
	schema := tool.InputSchema()

	inputSchema := anthropic.ToolInputSchemaParam{}
	if props, ok := schema["properties"]; ok {
		inputSchema.Properties = props
	}
	if required, ok := schema["required"].([]string); ok {
		inputSchema.Required = required
	}

	return anthropic.ToolUnionParam{
		OfTool: &anthropic.ToolParam{
			Name:        tool.Name(),
			Description: anthropic.String(tool.Description()),
			InputSchema: inputSchema,
		},
	}
}
