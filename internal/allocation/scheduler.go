package allocation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/lorenco/sean/internal/model"
	"github.com/lorenco/sean/internal/service"
)

// AgentUpdate is a partial settings change for the allocation agent. Nil
// fields are left as they are.
type AgentUpdate struct {
	Status          *model.AgentStatus
	Enabled         *bool
	IntervalMinutes *int
	MinConfidence   *float64
	LLMFallback     *bool
}

// Summary aggregates the allocation state for status displays.
type Summary struct {
	Agent         *model.Agent
	Counts        *model.AllocationCounts
	RecentJobs    []model.JobRun
	LLMCacheSize  int
	ShouldRunNext bool
}

// Scheduler decides when the auto-allocation agent runs and applies
// settings changes to it.
type Scheduler struct {
	storage service.Storage
	logger  *slog.Logger
	now     func() time.Time
}

func NewScheduler(storage service.Storage, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{storage: storage, logger: logger, now: time.Now}
}

// ShouldRun reports whether the agent is due for an allocation run: it
// must be active, enabled, authorized to allocate, and past its next
// scheduled run time.
func (s *Scheduler) ShouldRun(ctx context.Context) (bool, error) {
	agent, err := s.storage.GetOrCreateAgent(ctx, DefaultAgentName)
	if err != nil {
		return false, fmt.Errorf("failed to load agent: %w", err)
	}
	return s.isDue(agent), nil
}

func (s *Scheduler) isDue(agent *model.Agent) bool {
	if agent.Status != model.AgentActive || !agent.Enabled {
		return false
	}
	if agent.NextRun != nil && s.now().Before(*agent.NextRun) {
		return false
	}
	return agent.IsAuthorized(model.ActionAllocate)
}

// UpdateAgent merges a partial settings change into the agent. Activating
// an enabled agent schedules its next run one interval out.
func (s *Scheduler) UpdateAgent(ctx context.Context, userID string, update AgentUpdate) (*model.Agent, error) {
	agent, err := s.storage.GetOrCreateAgent(ctx, DefaultAgentName)
	if err != nil {
		return nil, fmt.Errorf("failed to load agent: %w", err)
	}

	wasRunning := agent.Status == model.AgentActive && agent.Enabled
	prevInterval := agent.IntervalMinutes

	if update.Status != nil {
		agent.Status = *update.Status
	}
	if update.Enabled != nil {
		agent.Enabled = *update.Enabled
	}
	if update.IntervalMinutes != nil {
		agent.IntervalMinutes = *update.IntervalMinutes
	}
	if update.MinConfidence != nil {
		agent.MinConfidence = *update.MinConfidence
	}
	if update.LLMFallback != nil {
		agent.LLMFallback = *update.LLMFallback
	}

	if err := agent.Validate(); err != nil {
		return nil, fmt.Errorf("invalid agent settings: %w", err)
	}

	// Reschedule only when auto-allocation was just switched on or its
	// interval changed; unrelated settings tweaks keep the existing slot.
	running := agent.Status == model.AgentActive && agent.Enabled
	if running && (!wasRunning || agent.IntervalMinutes != prevInterval) {
		nextRun := s.now().UTC().Add(time.Duration(agent.IntervalMinutes) * time.Minute)
		agent.NextRun = &nextRun
	}

	if err := s.storage.UpdateAgent(ctx, agent); err != nil {
		return nil, fmt.Errorf("failed to update agent: %w", err)
	}

	s.audit(ctx, agent, userID)

	return agent, nil
}

// GetSummary assembles the agent, queue counts, cache size and recent job
// history in one call.
func (s *Scheduler) GetSummary(ctx context.Context) (*Summary, error) {
	agent, err := s.storage.GetOrCreateAgent(ctx, DefaultAgentName)
	if err != nil {
		return nil, fmt.Errorf("failed to load agent: %w", err)
	}

	counts, err := s.storage.GetAllocationCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get allocation counts: %w", err)
	}

	cacheSize, err := s.storage.CountLLMCacheEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count LLM cache entries: %w", err)
	}

	jobs, err := s.storage.GetRecentJobRuns(ctx, 5)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent job runs: %w", err)
	}

	return &Summary{
		Agent:         agent,
		Counts:        counts,
		RecentJobs:    jobs,
		LLMCacheSize:  cacheSize,
		ShouldRunNext: s.isDue(agent),
	}, nil
}

func (s *Scheduler) audit(ctx context.Context, agent *model.Agent, userID string) {
	details, _ := json.Marshal(map[string]any{
		"status":          agent.Status,
		"enabled":         agent.Enabled,
		"intervalMinutes": agent.IntervalMinutes,
		"minConfidence":   agent.MinConfidence,
		"llmFallback":     agent.LLMFallback,
	})
	err := s.storage.RecordAudit(ctx, &model.AuditEntry{
		ActionType: model.AuditAgentStatusChange,
		EntityType: "agent",
		EntityID:   agent.ID,
		UserID:     userID,
		Details:    string(details),
	})
	if err != nil {
		s.logger.Warn("failed to record audit entry", "action", model.AuditAgentStatusChange, "error", err)
	}
}
