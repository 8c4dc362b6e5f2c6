// Package api defines the JSON bodies exchanged with clients of the gateway,
// plus the token usage counters shared by the llm and agent packages.
package api

// ChatRequest is the body of POST /chat.
// The message is forwarded to the agent as-is; an empty string is allowed.
type ChatRequest struct {
	Message *string `json:"message" binding:"required"`
}

// ChatResponse is the body of a successful POST /chat.
type ChatResponse struct {
	Response string `json:"response"`
}

// ErrorResponse is returned for any non-2xx answer.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// RootInfo is served on GET / as a liveness and discovery document.
type RootInfo struct {
	Message   string            `json:"message"`
	Status    string            `json:"status"`
	Endpoints map[string]string `json:"endpoints"`
	Version   string            `json:"version"`
}

// HealthResponse is served on GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// Usage holds token accounting reported by an LLM provider.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Add accumulates another usage record into u.
func (u *Usage) Add(other Usage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}
