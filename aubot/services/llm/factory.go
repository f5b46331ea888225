package llm

import (
	"fmt"

	"aubot/aubot/config"
)

// NewClient builds the client selected by cfg.LLMProvider.
func NewClient(cfg config.Config) (Client, error) {
	switch cfg.LLMProvider {
	case config.ProviderGemini:
		return NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiBaseURL, cfg.GeminiModel), nil
	case config.ProviderOpenAI:
		return NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel), nil
	case config.ProviderOllama:
		return NewOllamaClient(cfg.OllamaBaseURL, cfg.OllamaModel), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.LLMProvider)
	}
}

// Enabled reports whether the selected provider has the credentials it needs.
func Enabled(cfg config.Config) bool {
	switch cfg.LLMProvider {
	case config.ProviderGemini:
		return cfg.GeminiAPIKey != ""
	case config.ProviderOpenAI:
		return cfg.OpenAIAPIKey != ""
	case config.ProviderOllama:
		return true
	}
	return false
}
