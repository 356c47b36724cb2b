package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/agenthands/airwatch/internal/config"
)

// NewClient builds the provider named by config. Ollama is served through
// its OpenAI-compatible endpoint, so it shares the OpenAI client.
func NewClient(ctx context.Context, cfg config.LLMConfig) (LLMClient, error) {
	provider := strings.ToLower(cfg.Provider)

	switch provider {
	case "openai":
		return NewOpenAIClient(cfg.APIKey, cfg.Model, cfg.BaseURL), nil

	case "gemini":
		return NewGeminiClient(ctx, cfg.APIKey, cfg.Model)

	case "claude":
		return NewClaudeClient(cfg.APIKey, cfg.Model, cfg.BaseURL), nil

	case "ollama":
		baseURL := cfg.BaseURL
		if !strings.HasSuffix(baseURL, "/v1") {
			baseURL = fmt.Sprintf("%s/v1", strings.TrimRight(baseURL, "/"))
		}
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = "ollama" // ignored by Ollama but required by the client config
		}
		return NewOpenAIClient(apiKey, cfg.Model, baseURL), nil

	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", provider)
	}
}
