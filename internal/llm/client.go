package llm

import (
	"context"
)

// LLMClient generates text for a prompt. Implementations wrap one
// provider; the factory picks one based on config.
type LLMClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
