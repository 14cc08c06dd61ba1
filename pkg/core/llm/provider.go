// Package llm provides generation and embedding providers for the forecast
// pipeline. Providers wrap vendor SDKs behind small interfaces so pipeline
// stages can be tested with mocks.
package llm

import (
	"context"
)

// Provider is the interface for all LLM providers.
type Provider interface {
	GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error)
}

// Embedder produces vector embeddings for text. The same embedder instance
// must be used for index build and query so vectors share one scheme.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}
