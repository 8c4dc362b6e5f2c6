package llm

import "time"

const (
	// DefaultBaseURL is OpenRouter's OpenAI-compatible endpoint.
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	// DefaultModel is the model the assistant was tuned against.
	DefaultModel = "meta-llama/llama-3.1-8b-instruct"
	// DefaultGeminiModel is used when the Gemini provider is picked without a model.
	DefaultGeminiModel = "gemini-1.5-flash"
	// DefaultTemperature keeps answers focused but not robotic.
	DefaultTemperature float32 = 0.3

	defaultTimeout = 120 * time.Second
)
