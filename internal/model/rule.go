package model

import (
	"fmt"
	"strings"
	"time"
)

// AllocationRule is a learned mapping from a normalized transaction pattern
// to an allocation category. Rules are either global or scoped to one client.
type AllocationRule struct {
	CreatedAt        time.Time
	UpdatedAt        time.Time
	ID               string
	Pattern          string // Original description the rule was learned from
	NormalizedPattern string
	Category         string
	ClientID         string // Empty for global rules
	CreatedByUserID  string
	Confidence       float64
	LearnedFromCount int
	IsGlobal         bool
}

// Validate checks that the rule has all required fields and a sane confidence.
func (r *AllocationRule) Validate() error {
	if strings.TrimSpace(r.NormalizedPattern) == "" {
		return fmt.Errorf("allocation rule validation failed: normalized pattern is required")
	}
	if strings.TrimSpace(r.Category) == "" {
		return fmt.Errorf("allocation rule validation failed: category is required")
	}
	if r.Confidence < 0 || r.Confidence > 1 {
		return fmt.Errorf("allocation rule validation failed: confidence must be between 0 and 1, got %f", r.Confidence)
	}
	if !r.IsGlobal && strings.TrimSpace(r.ClientID) == "" {
		return fmt.Errorf("allocation rule validation failed: client-scoped rule requires a client ID")
	}
	return nil
}
