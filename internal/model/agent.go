package model

import (
	"fmt"
	"time"
)

// AgentStatus describes whether the background agent may act.
type AgentStatus string

// Valid agent statuses.
const (
	AgentActive   AgentStatus = "ACTIVE"
	AgentInactive AgentStatus = "INACTIVE"
	AgentPaused   AgentStatus = "PAUSED"
)

// Agent actions that can be authorized.
const (
	ActionAllocate = "ALLOCATE"
	ActionRespond  = "RESPOND"
	ActionLearn    = "LEARN"
)

// Agent is the singleton background worker configuration and run statistics.
type Agent struct {
	CreatedAt         time.Time
	UpdatedAt         time.Time
	LastRun           *time.Time
	NextRun           *time.Time
	ID                string
	Name              string
	Status            AgentStatus
	AuthorizedActions []string
	IntervalMinutes   int
	TotalAllocations  int
	TotalLLMCalls     int
	MinConfidence     float64
	Enabled           bool
	LLMFallback       bool
}

// IsAuthorized reports whether the agent may perform the given action.
// An agent that is not ACTIVE is never authorized.
func (a *Agent) IsAuthorized(action string) bool {
	if a.Status != AgentActive {
		return false
	}
	for _, allowed := range a.AuthorizedActions {
		if allowed == action {
			return true
		}
	}
	return false
}

// Validate checks agent configuration bounds.
func (a *Agent) Validate() error {
	switch a.Status {
	case AgentActive, AgentInactive, AgentPaused:
	default:
		return fmt.Errorf("agent validation failed: invalid status %q", a.Status)
	}
	if a.IntervalMinutes <= 0 {
		return fmt.Errorf("agent validation failed: interval must be positive, got %d", a.IntervalMinutes)
	}
	if a.MinConfidence < 0 || a.MinConfidence > 1 {
		return fmt.Errorf("agent validation failed: min confidence must be between 0 and 1, got %f", a.MinConfidence)
	}
	return nil
}
