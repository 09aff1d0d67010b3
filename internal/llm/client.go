// Package llm provides text completion clients for the supported external
// LLM providers.
package llm

import "time"

// Config contains configuration for creating an LLM client.
type Config struct {
	Provider string
	APIKey   string
	Model    string
	Timeout  time.Duration
}

const defaultTimeout = 30 * time.Second
