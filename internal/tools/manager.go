package tools

import (
	"context"
	"fmt"
	"sort"
)

// ToolManager is the registry of tools offered to the model.
// It is filled once at startup and only read afterwards, so it is safe to
// share between concurrent requests.
type ToolManager struct {
	tools map[string]ToolExecutor
}

func NewToolManager() *ToolManager {
	return &ToolManager{
		tools: make(map[string]ToolExecutor),
	}
}

// Register adds a tool under the name from its definition.
// A later registration with the same name replaces the earlier one.
func (tm *ToolManager) Register(tool ToolExecutor) {
	name := tool.Definition().Function.Name
	tm.tools[name] = tool
}

// GetDefinitions returns every registered definition, ordered by name so the
// prompt sent to the model is deterministic.
func (tm *ToolManager) GetDefinitions() []Tool {
	names := tm.names()
	defs := make([]Tool, 0, len(names))
	for _, name := range names {
		defs = append(defs, tm.tools[name].Definition())
	}
	return defs
}

// Execute runs a tool by name. An unknown name is a failed Result, not an
// error, so a confused model can recover on its next round.
func (tm *ToolManager) Execute(ctx context.Context, name, arguments string) Result {
	tool, ok := tm.tools[name]
	if !ok {
		return Fail(FailureUnknownTool, name, fmt.Sprintf("Error: tool '%s' not found. Available tools: %v", name, tm.names()))
	}
	return tool.Execute(ctx, arguments)
}

// ToolCount returns the number of registered tools.
func (tm *ToolManager) ToolCount() int {
	return len(tm.tools)
}

func (tm *ToolManager) names() []string {
	names := make([]string, 0, len(tm.tools))
	for name := range tm.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
