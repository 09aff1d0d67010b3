package model

import "time"

// LLMCacheEntry is a permanently cached LLM allocation for one normalized
// pattern. Once stored, the same pattern never triggers another LLM call.
type LLMCacheEntry struct {
	CreatedAt         time.Time
	UpdatedAt         time.Time
	ID                string
	NormalizedPattern string
	Category          string
	Reasoning         string
	Provider          string
	Confidence        float64
	UsedCount         int
}
