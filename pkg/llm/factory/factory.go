package factory

import (
	"fmt"

	"dyor-ai-be/pkg/llm"
	"dyor-ai-be/pkg/llm/anthropic"
	"dyor-ai-be/pkg/llm/gemini"
	"dyor-ai-be/pkg/llm/openai"
)

func NewLLMProvider(providerType, apiKey, baseURL, modelName string) (llm.Provider, error) {
	switch providerType {
	case "gemini", "google":
		return gemini.NewGeminiProvider(apiKey, baseURL, modelName), nil
	case "openai":
		return openai.NewOpenAIProvider(apiKey, baseURL, modelName), nil
	case "anthropic":
		return anthropic.NewAnthropicProvider(apiKey, baseURL, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
