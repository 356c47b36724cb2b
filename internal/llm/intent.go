package llm

import (
	"context"
	"encoding/json"

	"github.com/agenthands/airwatch/internal/cache"
)

// Intent is the classifier's verdict on a query.
type Intent struct {
	Domain     string  `json:"domain"`     // "sensor_data" | "general"
	Confidence float64 `json:"confidence"` // clamped to [0, 1]
}

// IntentClassifier wraps an LLM call behind an explicit LRU memo keyed by
// exact query text, so repeated queries don't re-bill the model and the
// hit/miss behavior stays independently testable.
type IntentClassifier struct {
	client LLMClient
	memo   *cache.LRU
}

func NewIntentClassifier(client LLMClient, memo *cache.LRU) *IntentClassifier {
	return &IntentClassifier{client: client, memo: memo}
}

// Classify returns the cached or freshly generated intent. Any model or
// parse failure degrades to a zero-confidence "general" verdict rather
// than an error; routing treats that as "not sensor data".
func (c *IntentClassifier) Classify(ctx context.Context, query string) Intent {
	if c.memo != nil {
		if raw, ok := c.memo.Get(query); ok {
			var cached Intent
			if json.Unmarshal(raw, &cached) == nil {
				return cached
			}
		}
	}

	intent := c.classify(ctx, query)

	if c.memo != nil {
		if raw, err := json.Marshal(intent); err == nil {
			c.memo.Set(query, raw, 0)
		}
	}
	return intent
}

func (c *IntentClassifier) classify(ctx context.Context, query string) Intent {
	fallback := Intent{Domain: "general", Confidence: 0.0}

	text, err := c.client.Generate(ctx, BuildIntentPrompt(query))
	if err != nil {
		return fallback
	}
	out, err := ParseJSON[Intent](text)
	if err != nil {
		return fallback
	}
	if out.Domain != "sensor_data" && out.Domain != "general" {
		out.Domain = "general"
	}
	if out.Confidence < 0 {
		out.Confidence = 0
	}
	if out.Confidence > 1 {
		out.Confidence = 1
	}
	return out
}
