package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/lorenco/sean/internal/common"
	"github.com/lorenco/sean/internal/service"
)

// chatCompletionsClient implements service.CompletionClient for APIs that
// speak the OpenAI chat completions protocol. Grok exposes the same wire
// format on a different base URL.
type chatCompletionsClient struct {
	httpClient *http.Client
	apiKey     string
	model      string
	url        string
	name       string
}

func newOpenAIClient(cfg Config) (service.CompletionClient, error) {
	return newChatCompletionsClient(cfg, "openai", "https://api.openai.com/v1/chat/completions", "gpt-4o-mini")
}

func newGrokClient(cfg Config) (service.CompletionClient, error) {
	return newChatCompletionsClient(cfg, "grok", "https://api.x.ai/v1/chat/completions", "grok-beta")
}

func newChatCompletionsClient(cfg Config, name, url, defaultModel string) (service.CompletionClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s API key is required: %w", name, common.ErrLLMNotConfigured)
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	return &chatCompletionsClient{
		apiKey: cfg.APIKey,
		model:  model,
		url:    url,
		name:   name,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}, nil
}

func (c *chatCompletionsClient) Name() string {
	return c.name
}

// Complete sends a completion request to the chat completions endpoint.
func (c *chatCompletionsClient) Complete(ctx context.Context, req service.CompletionRequest) (string, error) {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 500
	}

	messages := make([]map[string]string, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, map[string]string{
			"role":    "system",
			"content": req.SystemPrompt,
		})
	}
	messages = append(messages, map[string]string{
		"role":    "user",
		"content": req.UserPrompt,
	})

	requestBody := map[string]any{
		"model":      c.model,
		"messages":   messages,
		"max_tokens": maxTokens,
	}

	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(string(jsonBody)))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", fmt.Errorf("%s: %w", c.name, common.ErrRateLimit)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s API error (status %d): %s", c.name, resp.StatusCode, string(body))
	}

	var response chatCompletionsResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	return response.Choices[0].Message.Content, nil
}

// chatCompletionsResponse represents the chat completions response structure.
type chatCompletionsResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}
