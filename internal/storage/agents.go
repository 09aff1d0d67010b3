package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lorenco/sean/internal/common"
	"github.com/lorenco/sean/internal/model"
)

const agentColumns = `id, name, status, authorized_actions, enabled,
	interval_minutes, min_confidence, llm_fallback, total_allocations,
	total_llm_calls, last_run, next_run, created_at, updated_at`

// GetOrCreateAgent retrieves the named agent, creating it with safe defaults
// on first use: INACTIVE, disabled, hourly interval, 0.8 minimum confidence.
func (s *SQLiteStorage) GetOrCreateAgent(ctx context.Context, name string) (*model.Agent, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	agent, err := s.getAgentByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if agent != nil {
		return agent, nil
	}

	actions, err := json.Marshal([]string{model.ActionAllocate, model.ActionRespond, model.ActionLearn})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal agent actions: %w", err)
	}

	query := `
		INSERT INTO agents (id, name, status, authorized_actions, enabled,
			interval_minutes, min_confidence, llm_fallback)
		VALUES (?, ?, ?, ?, 0, 60, 0.8, 1)
	`
	if _, err := s.db.ExecContext(ctx, query, uuid.New().String(), name, string(model.AgentInactive), string(actions)); err != nil {
		return nil, fmt.Errorf("failed to create agent: %w", err)
	}

	return s.getAgentByName(ctx, name)
}

// UpdateAgent persists agent status and settings.
func (s *SQLiteStorage) UpdateAgent(ctx context.Context, agent *model.Agent) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := agent.Validate(); err != nil {
		return err
	}

	actions, err := json.Marshal(agent.AuthorizedActions)
	if err != nil {
		return fmt.Errorf("failed to marshal agent actions: %w", err)
	}

	query := `
		UPDATE agents SET
			status = ?, authorized_actions = ?, enabled = ?,
			interval_minutes = ?, min_confidence = ?, llm_fallback = ?,
			last_run = ?, next_run = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	result, err := s.db.ExecContext(ctx, query,
		string(agent.Status), string(actions), agent.Enabled,
		agent.IntervalMinutes, agent.MinConfidence, agent.LLMFallback,
		timeToNull(agent.LastRun), timeToNull(agent.NextRun),
		agent.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update agent: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("agent %s: %w", agent.ID, common.ErrNotFound)
	}
	return nil
}

// RecordAgentRun accumulates run statistics after a completed job.
func (s *SQLiteStorage) RecordAgentRun(ctx context.Context, agentID string, allocations, llmCalls int, lastRun, nextRun time.Time) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(agentID, "agentID"); err != nil {
		return err
	}

	query := `
		UPDATE agents SET
			total_allocations = total_allocations + ?,
			total_llm_calls = total_llm_calls + ?,
			last_run = ?, next_run = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	result, err := s.db.ExecContext(ctx, query, allocations, llmCalls, lastRun, nextRun, agentID)
	if err != nil {
		return fmt.Errorf("failed to record agent run: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("agent %s: %w", agentID, common.ErrNotFound)
	}
	return nil
}

func (s *SQLiteStorage) getAgentByName(ctx context.Context, name string) (*model.Agent, error) {
	query := fmt.Sprintf("SELECT %s FROM agents WHERE name = ?", agentColumns)

	var agent model.Agent
	var status, actions string
	var lastRun, nextRun sql.NullTime
	err := s.db.QueryRowContext(ctx, query, name).Scan(
		&agent.ID, &agent.Name, &status, &actions, &agent.Enabled,
		&agent.IntervalMinutes, &agent.MinConfidence, &agent.LLMFallback,
		&agent.TotalAllocations, &agent.TotalLLMCalls,
		&lastRun, &nextRun, &agent.CreatedAt, &agent.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get agent: %w", err)
	}

	agent.Status = model.AgentStatus(status)
	if err := json.Unmarshal([]byte(actions), &agent.AuthorizedActions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal agent actions: %w", err)
	}
	agent.LastRun = nullToTime(lastRun)
	agent.NextRun = nullToTime(nextRun)
	return &agent, nil
}

func timeToNull(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullToTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}
