package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"google.golang.org/genai"
)

// GeminiProvider implements the Provider interface for Google's Gemini models.
type GeminiProvider struct {
	Model string // e.g. "gemini-2.0-flash-exp"
}

// Ensure interface compliance
var _ Provider = (*GeminiProvider)(nil)

// GenerateResponse sends a generateContent request to the Gemini API using the
// official GenAI SDK. Set options["response_format"]["type"] = "json_object"
// to force JSON output.
func (p *GeminiProvider) GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return "", &CallError{Provider: "gemini", Err: fmt.Errorf("GEMINI_API_KEY environment variable not set")}
	}

	model := p.Model
	if model == "" {
		model = "gemini-2.0-flash-exp"
	}
	if val, ok := options["model"].(string); ok && val != "" {
		model = val
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", &CallError{Provider: "gemini", Err: fmt.Errorf("failed to create GenAI client: %w", err)}
	}

	// Low temperature: extraction and analysis must stick to the source text.
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(0.1)),
	}

	if val, ok := options["response_format"].(map[string]interface{}); ok {
		if val["type"] == "json_object" {
			config.ResponseMIMEType = "application/json"
		}
	}

	if systemPrompt != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{
				{Text: systemPrompt},
			},
		}
	}

	result, err := client.Models.GenerateContent(
		ctx,
		model,
		genai.Text(prompt),
		config,
	)
	if err != nil {
		return "", &CallError{
			Provider:  "gemini",
			Transient: isRetryableGeminiErr(err),
			Err:       fmt.Errorf("gemini generation failed: %w", err),
		}
	}

	text := result.Text()
	if strings.TrimSpace(text) == "" {
		return "", &CallError{Provider: "gemini", Err: fmt.Errorf("gemini returned empty response")}
	}

	return text, nil
}

// isRetryableGeminiErr classifies SDK errors by status text. The genai SDK
// surfaces HTTP status in the error string.
func isRetryableGeminiErr(err error) bool {
	msg := err.Error()
	for _, marker := range []string{"429", "500", "502", "503", "504", "deadline", "timeout", "RESOURCE_EXHAUSTED", "UNAVAILABLE"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
