package llm

import (
	"fmt"
	"strings"

	"github.com/lorenco/sean/internal/service"
)

// NewClient creates a completion client for the configured provider.
func NewClient(cfg Config) (service.CompletionClient, error) {
	switch strings.ToLower(cfg.Provider) {
	case "claude", "anthropic":
		return newAnthropicClient(cfg)
	case "openai":
		return newOpenAIClient(cfg)
	case "grok":
		return newGrokClient(cfg)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}

// NewResilientClient creates a completion client for the configured provider
// wrapped in a circuit breaker.
func NewResilientClient(cfg Config) (service.CompletionClient, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return WithBreaker(client), nil
}
