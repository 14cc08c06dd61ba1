package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
)

// DeepSeekProvider implements Provider against the DeepSeek chat completions API.
type DeepSeekProvider struct{}

var _ Provider = (*DeepSeekProvider)(nil)

type deepSeekRequest struct {
	Messages       []deepSeekMessage  `json:"messages"`
	Model          string             `json:"model"`
	MaxTokens      int                `json:"max_tokens"`
	ResponseFormat deepSeekRespFormat `json:"response_format"`
	Stream         bool               `json:"stream"`
	Temperature    float64            `json:"temperature"`
	TopP           float64            `json:"top_p"`
}

type deepSeekMessage struct {
	Content string `json:"content"`
	Role    string `json:"role"`
}

type deepSeekRespFormat struct {
	Type string `json:"type"`
}

type deepSeekResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (p *DeepSeekProvider) GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error) {
	apiKey := os.Getenv("DEEPSEEK_API_KEY")
	if val, ok := options["api_key"].(string); ok && val != "" {
		apiKey = val
	}
	if apiKey == "" {
		return "", &CallError{Provider: "deepseek", Err: fmt.Errorf("DEEPSEEK_API_KEY_MISSING: Please set DEEPSEEK_API_KEY env var")}
	}

	model := "deepseek-chat"
	if val, ok := options["model"].(string); ok && val != "" {
		model = val
	}

	format := "text"
	if val, ok := options["response_format"].(map[string]interface{}); ok {
		if val["type"] == "json_object" {
			format = "json_object"
		}
	}

	reqBody := deepSeekRequest{
		Messages: []deepSeekMessage{
			{Content: systemPrompt, Role: "system"},
			{Content: prompt, Role: "user"},
		},
		Model:          model,
		MaxTokens:      4096,
		ResponseFormat: deepSeekRespFormat{Type: format},
		Stream:         false,
		Temperature:    0.1,
		TopP:           1.0,
	}

	jsonBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", &CallError{Provider: "deepseek", Err: fmt.Errorf("DEEPSEEK_MARSHAL_ERROR: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.deepseek.com/chat/completions", bytes.NewBuffer(jsonBytes))
	if err != nil {
		return "", &CallError{Provider: "deepseek", Err: fmt.Errorf("DEEPSEEK_REQ_CREATE_ERROR: %v", err)}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	client := &http.Client{}
	res, err := client.Do(req)
	if err != nil {
		return "", &CallError{Provider: "deepseek", Transient: true, Err: fmt.Errorf("DEEPSEEK_API_CALL_ERROR: %v", err)}
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", &CallError{Provider: "deepseek", Transient: true, Err: fmt.Errorf("DEEPSEEK_READ_BODY_ERROR: %v", err)}
	}

	if res.StatusCode != http.StatusOK {
		transient := res.StatusCode == http.StatusTooManyRequests || res.StatusCode >= 500
		return "", &CallError{
			Provider:  "deepseek",
			Transient: transient,
			Err:       fmt.Errorf("DEEPSEEK_API_ERROR: status=%d body=%s", res.StatusCode, string(body)),
		}
	}

	var response deepSeekResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", &CallError{Provider: "deepseek", Err: fmt.Errorf("DEEPSEEK_UNMARSHAL_ERROR: %v", err)}
	}

	if len(response.Choices) == 0 {
		return "", &CallError{Provider: "deepseek", Err: fmt.Errorf("DEEPSEEK_NO_CHOICES: %s", string(body))}
	}

	return response.Choices[0].Message.Content, nil
}
