package llm

import (
	"testing"

	"github.com/google/generative-ai-go/genai"

	"github.com/dileep-u-k/weather-assistant/internal/tools"
)

func TestToGeminiContents(t *testing.T) {
	messages := []Message{
		{Role: RoleSystem, Content: "You are a weather assistant."},
		{Role: RoleUser, Content: "Paris and Rome?"},
		{Role: RoleAssistant, ToolCalls: []*tools.ToolCall{
			{ID: "a", Function: tools.ToolCallFunction{Name: "get_weather", Arguments: `{"city":"Paris"}`}},
			{ID: "b", Function: tools.ToolCallFunction{Name: "get_weather", Arguments: `not json`}},
		}},
		{Role: RoleTool, Name: "get_weather", ToolCallID: "a", Content: "sunny"},
		{Role: RoleTool, Name: "get_weather", ToolCallID: "b", Content: "rainy"},
	}

	system, contents := toGeminiContents(messages)
	if system != "You are a weather assistant." {
		t.Fatalf("unexpected system prompt %q", system)
	}
	if len(contents) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(contents))
	}
	if contents[0].Role != "user" || contents[1].Role != "model" || contents[2].Role != "user" {
		t.Fatalf("unexpected roles %s/%s/%s", contents[0].Role, contents[1].Role, contents[2].Role)
	}

	call, ok := contents[1].Parts[0].(genai.FunctionCall)
	if !ok || call.Name != "get_weather" || call.Args["city"] != "Paris" {
		t.Fatalf("unexpected function call part %#v", contents[1].Parts[0])
	}
	bad := contents[1].Parts[1].(genai.FunctionCall)
	if bad.Args["raw"] != "not json" {
		t.Fatalf("unparseable arguments should be kept raw, got %#v", bad.Args)
	}

	if len(contents[2].Parts) != 2 {
		t.Fatalf("tool results should share one turn, got %d parts", len(contents[2].Parts))
	}
	resp := contents[2].Parts[1].(genai.FunctionResponse)
	if resp.Name != "get_weather" || resp.Response["content"] != "rainy" {
		t.Fatalf("unexpected function response %#v", resp)
	}
}

func TestConvertSchema(t *testing.T) {
	def := tools.NewWeatherTool().Definition()
	schema := convertSchema(def.Function.Parameters)
	if schema.Type != genai.TypeObject {
		t.Fatalf("expected object schema, got %v", schema.Type)
	}
	city, ok := schema.Properties["city"]
	if !ok || city.Type != genai.TypeString {
		t.Fatalf("expected string city property, got %#v", schema.Properties)
	}
	if len(schema.Required) != 1 || schema.Required[0] != "city" {
		t.Fatalf("unexpected required %v", schema.Required)
	}
}

func TestParseGeminiResponse(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{
				genai.Text("Checking "),
				genai.FunctionCall{Name: "get_weather", Args: map[string]any{"city": "Paris"}},
			}},
		}},
		UsageMetadata: &genai.UsageMetadata{PromptTokenCount: 4, CandidatesTokenCount: 2, TotalTokenCount: 6},
	}

	res, err := parseGeminiResponse(resp)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if res.Content != "Checking" {
		t.Fatalf("unexpected content %q", res.Content)
	}
	if len(res.ToolCalls) != 1 || res.ToolCalls[0].Function.Arguments != `{"city":"Paris"}` {
		t.Fatalf("unexpected tool calls %+v", res.ToolCalls)
	}
	if res.Usage.TotalTokens != 6 {
		t.Fatalf("unexpected usage %+v", res.Usage)
	}

	if _, err := parseGeminiResponse(&genai.GenerateContentResponse{}); err != ErrEmptyResponse {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}
