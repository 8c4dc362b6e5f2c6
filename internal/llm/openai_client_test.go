package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dileep-u-k/weather-assistant/internal/tools"
)

type capturedRequest struct {
	Path       string
	Auth       string
	Model      string          `json:"model"`
	Temp       float64         `json:"temperature"`
	ToolChoice any             `json:"tool_choice"`
	Tools      []tools.Tool    `json:"tools"`
	Messages   []openAIMessage `json:"messages"`
}

type openAIMessage struct {
	Role       string           `json:"role"`
	Content    string           `json:"content"`
	ToolCallID string           `json:"tool_call_id"`
	ToolCalls  []tools.ToolCall `json:"tool_calls"`
}

func newCompletionServer(t *testing.T, status int, body string, captured *capturedRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if captured != nil {
			if err := json.NewDecoder(r.Body).Decode(captured); err != nil {
				t.Errorf("decode request: %v", err)
			}
			captured.Path = r.URL.Path
			captured.Auth = r.Header.Get("Authorization")
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIClientFinalAnswer(t *testing.T) {
	var got capturedRequest
	srv := newCompletionServer(t, http.StatusOK, `{
		"id": "cmpl-1",
		"choices": [{"index": 0, "message": {"role": "assistant", "content": "Hello there!"}, "finish_reason": "stop"}],
		"usage": {"prompt_tokens": 12, "completion_tokens": 3, "total_tokens": 15}
	}`, &got)

	client := NewOpenAIClient(OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL + "/api/v1/"})
	res, err := client.Generate(context.Background(),
		[]Message{{Role: RoleSystem, Content: "be nice"}, {Role: RoleUser, Content: "hi"}},
		&GenerationConfig{Model: DefaultModel, Temperature: Float32(DefaultTemperature)},
		nil,
	)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if res.Content != "Hello there!" || len(res.ToolCalls) != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Usage.TotalTokens != 15 || res.Usage.PromptTokens != 12 {
		t.Fatalf("unexpected usage %+v", res.Usage)
	}
	if got.Path != "/api/v1/chat/completions" {
		t.Fatalf("unexpected path %q", got.Path)
	}
	if got.Auth != "Bearer sk-test" {
		t.Fatalf("unexpected auth header %q", got.Auth)
	}
	if got.Model != DefaultModel {
		t.Fatalf("unexpected model %q", got.Model)
	}
	if got.Temp < 0.29 || got.Temp > 0.31 {
		t.Fatalf("expected temperature 0.3, got %v", got.Temp)
	}
	if got.ToolChoice != nil || len(got.Tools) != 0 {
		t.Fatalf("no tools expected, got choice=%v tools=%d", got.ToolChoice, len(got.Tools))
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Content != "hi" {
		t.Fatalf("unexpected messages %+v", got.Messages)
	}
}

func TestOpenAIClientToolCallRoundTrip(t *testing.T) {
	var got capturedRequest
	srv := newCompletionServer(t, http.StatusOK, `{
		"choices": [{"index": 0, "message": {"role": "assistant", "content": "", "tool_calls": [
			{"id": "call_abc", "type": "function", "function": {"name": "get_weather", "arguments": "{\"city\":\"Paris\"}"}},
			{"type": "function", "function": {"name": "get_weather", "arguments": "{\"city\":\"Rome\"}"}}
		]}, "finish_reason": "tool_calls"}]
	}`, &got)

	weather := tools.NewWeatherTool()
	history := []Message{
		{Role: RoleUser, Content: "weather in Paris?"},
		{Role: RoleAssistant, ToolCalls: []*tools.ToolCall{{ID: "call_prev", Type: tools.ToolTypeFunction,
			Function: tools.ToolCallFunction{Name: "get_weather", Arguments: `{"city":"Lyon"}`}}}},
		{Role: RoleTool, Name: "get_weather", ToolCallID: "call_prev", Content: "Weather in Lyon: ..."},
	}

	client := NewOpenAIClient(OpenAIConfig{BaseURL: srv.URL})
	res, err := client.Generate(context.Background(), history, &GenerationConfig{Model: "m"}, []tools.Tool{weather.Definition()})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(res.ToolCalls) != 2 {
		t.Fatalf("expected 2 tool calls, got %d", len(res.ToolCalls))
	}
	if res.ToolCalls[0].ID != "call_abc" || res.ToolCalls[0].Function.Arguments != `{"city":"Paris"}` {
		t.Fatalf("unexpected first call %+v", res.ToolCalls[0])
	}
	if res.ToolCalls[1].ID == "" {
		t.Fatalf("missing ids must be filled in")
	}

	if got.ToolChoice != "auto" {
		t.Fatalf("expected tool_choice auto, got %v", got.ToolChoice)
	}
	if len(got.Tools) != 1 || got.Tools[0].Function.Name != "get_weather" {
		t.Fatalf("unexpected tools %+v", got.Tools)
	}
	if got.Tools[0].Function.Parameters.Required[0] != "city" {
		t.Fatalf("schema not forwarded: %+v", got.Tools[0].Function.Parameters)
	}
	if len(got.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(got.Messages))
	}
	if got.Messages[1].ToolCalls[0].ID != "call_prev" {
		t.Fatalf("assistant tool calls not forwarded: %+v", got.Messages[1])
	}
	if got.Messages[2].ToolCallID != "call_prev" || got.Messages[2].Role != "tool" {
		t.Fatalf("tool result not forwarded: %+v", got.Messages[2])
	}
}

func TestOpenAIClientErrors(t *testing.T) {
	t.Run("api error", func(t *testing.T) {
		srv := newCompletionServer(t, http.StatusUnauthorized,
			`{"error": {"message": "No auth credentials found", "type": "invalid_request_error", "code": 401}}`, nil)
		client := NewOpenAIClient(OpenAIConfig{BaseURL: srv.URL})

		_, err := client.Generate(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, &GenerationConfig{Model: "m"}, nil)
		if err == nil {
			t.Fatal("expected error")
		}
		if !strings.Contains(err.Error(), "status 401") || !strings.Contains(err.Error(), "No auth credentials found") {
			t.Fatalf("unexpected error text %q", err)
		}
	})

	t.Run("no choices", func(t *testing.T) {
		srv := newCompletionServer(t, http.StatusOK, `{"choices": []}`, nil)
		client := NewOpenAIClient(OpenAIConfig{BaseURL: srv.URL})

		_, err := client.Generate(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, &GenerationConfig{Model: "m"}, nil)
		if !errors.Is(err, ErrEmptyResponse) {
			t.Fatalf("expected ErrEmptyResponse, got %v", err)
		}
	})
}
