package models

import (
	"context"
	"fmt"
)

// NewModelProvider returns a concrete Model for the named provider.
func NewModelProvider(ctx context.Context, provider string, params Params) (Model, error) {
	switch provider {
	case "openai":
		return NewOpenAIModel(params), nil
	case "gemini", "google":
		return NewGeminiModel(ctx, params)
	case "ollama":
		return NewOllamaModel(params)
	case "anthropic", "claude":
		return NewAnthropicModel(params), nil
	case "dummy":
		return NewDummyModel(""), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
}
