package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dileep-u-k/weather-assistant/internal/api"
	"github.com/dileep-u-k/weather-assistant/internal/tools"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIConfig configures an OpenAI-compatible endpoint (OpenAI, OpenRouter,
// a local gateway, ...).
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	// HTTPClient replaces the default client; Timeout is ignored when set.
	HTTPClient *http.Client
}

// OpenAIClient implements LLMClient on top of the chat completions API.
type OpenAIClient struct {
	client *openai.Client
}

var _ LLMClient = (*OpenAIClient)(nil)

// NewOpenAIClient builds a client for cfg. An empty API key is accepted: the
// provider rejects the call later and that failure reaches the caller as an
// ordinary error.
func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	sdkCfg := openai.DefaultConfig(cfg.APIKey)
	sdkCfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	if sdkCfg.BaseURL == "" {
		sdkCfg.BaseURL = DefaultBaseURL
	}
	switch {
	case cfg.HTTPClient != nil:
		sdkCfg.HTTPClient = cfg.HTTPClient
	default:
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		sdkCfg.HTTPClient = &http.Client{Timeout: timeout}
	}
	return &OpenAIClient{client: openai.NewClientWithConfig(sdkCfg)}
}

// Generate sends the conversation and returns either text or tool calls.
// Errors are not retried.
func (c *OpenAIClient) Generate(
	ctx context.Context,
	messages []Message,
	config *GenerationConfig,
	availableTools []tools.Tool,
) (*GenerationResult, error) {
	if config == nil {
		config = &GenerationConfig{Model: DefaultModel}
	}
	req := openai.ChatCompletionRequest{
		Model:     config.Model,
		Messages:  toOpenAIMessages(messages),
		MaxTokens: config.MaxTokens,
		Tools:     toOpenAITools(availableTools),
	}
	if config.Temperature != nil {
		req.Temperature = *config.Temperature
	}
	if len(req.Tools) > 0 {
		req.ToolChoice = "auto"
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("openai-compatible API error (status %d): %w", apiErr.HTTPStatusCode, err)
		}
		return nil, fmt.Errorf("openai-compatible request failed: %w", err)
	}
	return fromOpenAIResponse(resp)
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		m := openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		}
		switch msg.Role {
		case RoleTool:
			m.ToolCallID = msg.ToolCallID
			m.Name = msg.Name
		case RoleAssistant:
			for _, tc := range msg.ToolCalls {
				m.ToolCalls = append(m.ToolCalls, openai.ToolCall{
					ID:   tc.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      tc.Function.Name,
						Arguments: tc.Function.Arguments,
					},
				})
			}
		}
		out = append(out, m)
	}
	return out
}

func toOpenAITools(availableTools []tools.Tool) []openai.Tool {
	if len(availableTools) == 0 {
		return nil
	}
	out := make([]openai.Tool, 0, len(availableTools))
	for _, t := range availableTools {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Function.Name,
				Description: t.Function.Description,
				Parameters:  t.Function.Parameters,
			},
		})
	}
	return out
}

func fromOpenAIResponse(resp openai.ChatCompletionResponse) (*GenerationResult, error) {
	if len(resp.Choices) == 0 {
		return nil, ErrEmptyResponse
	}
	msg := resp.Choices[0].Message
	result := &GenerationResult{
		Content: msg.Content,
		Usage: api.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}
	for i, tc := range msg.ToolCalls {
		id := tc.ID
		if id == "" {
			// Some OpenRouter backends omit ids; the tool message still needs one.
			id = fmt.Sprintf("call_%d", i)
		}
		result.ToolCalls = append(result.ToolCalls, &tools.ToolCall{
			ID:   id,
			Type: tools.ToolTypeFunction,
			Function: tools.ToolCallFunction{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			},
		})
	}
	return result, nil
}
