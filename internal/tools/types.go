// Package tools holds the function-calling side of the assistant: the
// provider-neutral schema sent to the model, the calls it sends back, and the
// executors that answer them.
package tools

import "context"

// ToolTypeFunction is the only tool type the providers accept today.
const ToolTypeFunction = "function"

// Tool is a function description offered to the model.
type Tool struct {
	Type     string   `json:"type"`
	Function Function `json:"function"`
}

// Function names a callable and describes its arguments as a JSON Schema.
// The description is what the model reads when deciding whether to call it.
type Function struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Parameters  JSONSchema `json:"parameters"`
}

// JSONSchema is the subset of JSON Schema needed for tool parameters.
type JSONSchema struct {
	Type        string                 `json:"type"`
	Description string                 `json:"description,omitempty"`
	Properties  map[string]*JSONSchema `json:"properties,omitempty"`
	Required    []string               `json:"required,omitempty"`
}

// ToolCall is a request from the model to run a tool.
// ID ties the result message back to the call.
type ToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function ToolCallFunction `json:"function"`
}

// ToolCallFunction carries the function name and its raw JSON arguments.
type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolExecutor is implemented by every tool the agent can run.
//
// Execute never returns a Go error: anything that goes wrong is reported as
// a failed Result so the model sees it as ordinary tool output.
type ToolExecutor interface {
	Definition() Tool
	Execute(ctx context.Context, arguments string) Result
}

// NewFunctionTool builds a Tool of type "function".
func NewFunctionTool(name, description string, parameters JSONSchema) Tool {
	return Tool{
		Type: ToolTypeFunction,
		Function: Function{
			Name:        name,
			Description: description,
			Parameters:  parameters,
		},
	}
}
