// Package llm talks to hosted chat-completion providers. Every provider sits
// behind LLMClient so the agent loop never sees SDK types.
package llm

import (
	"context"
	"errors"

	"github.com/dileep-u-k/weather-assistant/internal/api"
	"github.com/dileep-u-k/weather-assistant/internal/tools"
)

// ErrEmptyResponse is returned when a provider answers without any choice or
// candidate to read.
var ErrEmptyResponse = errors.New("llm: provider returned no choices")

// Role is the author of a message in a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one entry of a conversation.
// Assistant messages may carry ToolCalls; tool messages answer one of them
// through ToolCallID and Name.
type Message struct {
	Role       Role              `json:"role"`
	Content    string            `json:"content"`
	Name       string            `json:"name,omitempty"`
	ToolCallID string            `json:"tool_call_id,omitempty"`
	ToolCalls  []*tools.ToolCall `json:"tool_calls,omitempty"`
}

// GenerationConfig controls a single completion.
type GenerationConfig struct {
	Model string
	// Temperature is a pointer so 0.0 can be told apart from unset.
	Temperature *float32
	MaxTokens   int
}

// GenerationResult is a complete, non-streamed completion.
// A non-empty ToolCalls means the model wants tools run before answering.
type GenerationResult struct {
	Content   string
	ToolCalls []*tools.ToolCall
	Usage     api.Usage
}

// LLMClient is implemented by every provider client. Implementations hold no
// per-request state and are shared by concurrent requests.
type LLMClient interface {
	Generate(
		ctx context.Context,
		messages []Message,
		config *GenerationConfig,
		availableTools []tools.Tool,
	) (*GenerationResult, error)
}

// Float32 returns a pointer to v, for GenerationConfig.Temperature.
func Float32(v float32) *float32 {
	return &v
}
