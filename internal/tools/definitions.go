// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jeranaias/marketchat/internal/model"
)

// =============================================================================
// TOOL DEFINITION
// =============================================================================

// Tool is a function the completion server may call.
type Tool struct {
	// Name is the function name used in call payloads (e.g., "get_stock")
	Name string

	// Description explains what the tool does
	Description string

	// Parameters documents the expected arguments
	Parameters []Parameter

	// Executor handles the actual execution
	Executor ToolExecutor
}

// Parameter defines a single tool argument.
type Parameter struct {
	Name        string
	Type        string
	Required    bool
	Description string
}

// ToolExecutor is implemented by each tool to perform its side effect.
type ToolExecutor interface {
	Execute(ctx context.Context, call Call) (*model.ToolResult, error)
}

// ExecutorFunc adapts a function to ToolExecutor.
type ExecutorFunc func(ctx context.Context, call Call) (*model.ToolResult, error)

// Execute calls f.
func (f ExecutorFunc) Execute(ctx context.Context, call Call) (*model.ToolResult, error) {
	return f(ctx, call)
}

// =============================================================================
// TOOL REGISTRY
// =============================================================================

// Registry holds all available tools.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*Tool
}

// NewRegistry creates a registry holding the given tools.
func NewRegistry(tools ...*Tool) *Registry {
	r := &Registry{tools: make(map[string]*Tool)}
	for _, t := range tools {
		r.Register(t)
	}
	return r
}

// Register adds a tool, replacing any tool with the same name.
func (r *Registry) Register(tool *Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[tool.Name] = tool
}

// Get retrieves a tool by name, or nil.
func (r *Registry) Get(name string) *Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tools[name]
}

// Lookup retrieves a tool by name. It returns ErrUnknownTool when none
// is registered.
func (r *Registry) Lookup(name string) (*Tool, error) {
	if t := r.Get(name); t != nil {
		return t, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownTool, name)
}

// Has reports whether a tool with the given name is registered.
func (r *Registry) Has(name string) bool {
	return r.Get(name) != nil
}

// All returns all registered tools sorted by name.
func (r *Registry) All() []*Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*Tool, 0, len(r.tools))
	for _, tool := range r.tools {
		result = append(result, tool)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}
