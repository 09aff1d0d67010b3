package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lorenco/sean/internal/common"
	"github.com/lorenco/sean/internal/model"
)

// CreateJobRun starts a new job run record in RUNNING state.
func (s *SQLiteStorage) CreateJobRun(ctx context.Context, agentID string) (*model.JobRun, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(agentID, "agentID"); err != nil {
		return nil, err
	}

	job := &model.JobRun{
		ID:        uuid.New().String(),
		AgentID:   agentID,
		Status:    model.JobRunning,
		StartedAt: time.Now(),
	}

	query := `
		INSERT INTO allocation_job_runs (id, agent_id, status, started_at)
		VALUES (?, ?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, job.ID, job.AgentID, string(job.Status), job.StartedAt); err != nil {
		return nil, fmt.Errorf("failed to create job run: %w", err)
	}
	return job, nil
}

// CompleteJobRun marks a job COMPLETED and stores its counters.
func (s *SQLiteStorage) CompleteJobRun(ctx context.Context, job *model.JobRun) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(job.ID, "job.ID"); err != nil {
		return err
	}

	query := `
		UPDATE allocation_job_runs SET
			status = ?, completed_at = CURRENT_TIMESTAMP,
			processed = ?, auto_allocated = ?, llm_allocated = ?,
			needs_review = ?, errors = ?
		WHERE id = ?
	`
	result, err := s.db.ExecContext(ctx, query,
		string(model.JobCompleted), job.Processed, job.AutoAllocated,
		job.LLMAllocated, job.NeedsReview, job.Errors, job.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete job run: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("job run %s: %w", job.ID, common.ErrNotFound)
	}
	job.Status = model.JobCompleted
	return nil
}

// FailJobRun marks a job FAILED with its error message.
func (s *SQLiteStorage) FailJobRun(ctx context.Context, jobID, errorMessage string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(jobID, "jobID"); err != nil {
		return err
	}

	query := `
		UPDATE allocation_job_runs SET
			status = ?, completed_at = CURRENT_TIMESTAMP, error_message = ?
		WHERE id = ?
	`
	result, err := s.db.ExecContext(ctx, query, string(model.JobFailed), errorMessage, jobID)
	if err != nil {
		return fmt.Errorf("failed to mark job run failed: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("job run %s: %w", jobID, common.ErrNotFound)
	}
	return nil
}

// GetRecentJobRuns retrieves the most recent job runs, newest first.
func (s *SQLiteStorage) GetRecentJobRuns(ctx context.Context, limit int) ([]model.JobRun, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 5
	}

	query := `
		SELECT id, agent_id, status, started_at, completed_at,
			processed, auto_allocated, llm_allocated, needs_review,
			errors, error_message
		FROM allocation_job_runs
		ORDER BY started_at DESC LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent job runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var jobs []model.JobRun
	for rows.Next() {
		var job model.JobRun
		var status string
		var completedAt sql.NullTime
		err := rows.Scan(
			&job.ID, &job.AgentID, &status, &job.StartedAt, &completedAt,
			&job.Processed, &job.AutoAllocated, &job.LLMAllocated,
			&job.NeedsReview, &job.Errors, &job.ErrorMessage,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job run: %w", err)
		}
		job.Status = model.JobStatus(status)
		job.CompletedAt = nullToTime(completedAt)
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating job runs: %w", err)
	}
	return jobs, nil
}
