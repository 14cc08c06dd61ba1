package agent

import (
	"context"

	"financial_forecast/pkg/core/llm"
)

// LLMAdapter bridges llm.Provider to the narrow Generate interfaces the
// extraction, qualitative and pipeline packages consume.
type LLMAdapter struct {
	provider llm.Provider
}

// NewLLMAdapter creates a new adapter wrapping an llm.Provider
func NewLLMAdapter(provider llm.Provider) *LLMAdapter {
	return &LLMAdapter{provider: provider}
}

// Generate calls the wrapped provider.
// llm.Provider.GenerateResponse has (prompt, systemPrompt) order;
// the consumer interfaces have (systemPrompt, userPrompt) order.
func (a *LLMAdapter) Generate(ctx context.Context, systemPrompt string, userPrompt string) (string, error) {
	return a.provider.GenerateResponse(ctx, userPrompt, systemPrompt, nil)
}
