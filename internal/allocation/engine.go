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

// Default thresholds and limits for allocation runs.
const (
	DefaultAutoConfirm    = 0.9  // interactive single-transaction runs
	DefaultJobAutoConfirm = 0.85 // unattended batch jobs
	DefaultJobLimit       = 100

	// DefaultAgentName identifies the auto-allocation agent row.
	DefaultAgentName = "Sean"
)

// ProcessOptions tunes one transaction processing pass.
type ProcessOptions struct {
	AutoConfirmAbove float64
	UseLLMFallback   bool
}

// ProcessResult reports what happened to one transaction.
type ProcessResult struct {
	Category      string
	Confidence    float64
	Source        string
	AutoConfirmed bool
	NeedsReview   bool
	LLMUsed       bool
	Success       bool
}

// JobOptions tunes a batch allocation run. OnProgress, when set, is
// called after each transaction with the running count and batch size.
type JobOptions struct {
	OnProgress       func(done, total int)
	UserID           string
	Limit            int
	AutoConfirmAbove float64
	UseLLMFallback   bool
}

// Engine drives the full allocation pipeline for transactions: suggest,
// auto-confirm or queue for review, and optionally fall back to an LLM.
type Engine struct {
	storage   service.Storage
	suggester *Suggester
	learner   *Learner
	fallback  *Fallback
	logger    *slog.Logger
}

func NewEngine(storage service.Storage, suggester *Suggester, learner *Learner, fallback *Fallback, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		storage:   storage,
		suggester: suggester,
		learner:   learner,
		fallback:  fallback,
		logger:    logger,
	}
}

// ProcessTransaction categorizes one stored transaction. Transactions
// already confirmed are left untouched and reported as successes.
func (e *Engine) ProcessTransaction(ctx context.Context, transactionID string, opts ProcessOptions) (*ProcessResult, error) {
	if opts.AutoConfirmAbove == 0 {
		opts.AutoConfirmAbove = DefaultAutoConfirm
	}

	txn, err := e.storage.GetTransactionByID(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transaction: %w", err)
	}

	if txn.ConfirmedCategory != "" && txn.Processed {
		return &ProcessResult{
			Category:   txn.ConfirmedCategory,
			Confidence: 1.0,
			Source:     MatchExact,
			Success:    true,
		}, nil
	}

	suggestion, err := e.suggester.Suggest(ctx, txn.RawDescription, txn.ClientID)
	if err != nil {
		return nil, fmt.Errorf("failed to suggest category: %w", err)
	}

	if suggestion.MatchType != MatchNone {
		if suggestion.Confidence >= opts.AutoConfirmAbove {
			return e.autoConfirm(ctx, txn.ID, suggestion.Category, suggestion.Confidence, suggestion.MatchType, false)
		}
		return e.recordSuggestion(ctx, txn.ID, suggestion.Category, suggestion.Confidence, suggestion.MatchType, false)
	}

	if opts.UseLLMFallback && e.fallback != nil {
		if allocation := e.fallback.Allocate(ctx, txn.RawDescription); allocation != nil {
			return e.applyLLMAllocation(ctx, txn, allocation, opts.AutoConfirmAbove)
		}
	}

	return e.recordSuggestion(ctx, txn.ID, CategoryOther, 0.1, MatchNone, false)
}

func (e *Engine) applyLLMAllocation(ctx context.Context, txn *model.BankTransaction, allocation *LLMAllocation, threshold float64) (*ProcessResult, error) {
	if allocation.Confidence >= threshold {
		result, err := e.autoConfirm(ctx, txn.ID, allocation.Category, allocation.Confidence, MatchLLM, true)
		if err != nil {
			return nil, err
		}

		// A confident LLM answer becomes a global rule so the next
		// identical pattern never needs the provider, whichever client
		// book it lands in.
		_, learnErr := e.learner.LearnFromCorrection(ctx, txn.RawDescription, allocation.Category, LearnOptions{
			Feedback: fmt.Sprintf("Auto-learned from %s: %s", allocation.Provider, allocation.Reasoning),
			UserID:   "system",
		})
		if learnErr != nil {
			e.logger.Warn("failed to learn from LLM allocation", "transaction", txn.ID, "error", learnErr)
		}
		return result, nil
	}

	return e.recordSuggestion(ctx, txn.ID, allocation.Category, allocation.Confidence, MatchLLM, true)
}

func (e *Engine) autoConfirm(ctx context.Context, id, category string, confidence float64, source string, llmUsed bool) (*ProcessResult, error) {
	claimed, err := e.storage.AutoConfirmTransaction(ctx, id, category, confidence, llmUsed)
	if err != nil {
		return nil, fmt.Errorf("failed to auto-confirm transaction: %w", err)
	}
	return &ProcessResult{
		Category:      category,
		Confidence:    confidence,
		Source:        source,
		AutoConfirmed: claimed,
		LLMUsed:       llmUsed,
		Success:       true,
	}, nil
}

func (e *Engine) recordSuggestion(ctx context.Context, id, category string, confidence float64, source string, llmUsed bool) (*ProcessResult, error) {
	if _, err := e.storage.RecordSuggestion(ctx, id, category, confidence, llmUsed); err != nil {
		return nil, fmt.Errorf("failed to record suggestion: %w", err)
	}
	return &ProcessResult{
		Category:    category,
		Confidence:  confidence,
		Source:      source,
		NeedsReview: true,
		LLMUsed:     llmUsed,
		Success:     true,
	}, nil
}

// RunJob processes a batch of unallocated transactions under a tracked job
// run. Individual transaction failures are counted, not fatal.
func (e *Engine) RunJob(ctx context.Context, opts JobOptions) (*model.JobRun, error) {
	if opts.Limit == 0 {
		opts.Limit = DefaultJobLimit
	}
	if opts.AutoConfirmAbove == 0 {
		opts.AutoConfirmAbove = DefaultJobAutoConfirm
	}

	agent, err := e.storage.GetOrCreateAgent(ctx, DefaultAgentName)
	if err != nil {
		return nil, fmt.Errorf("failed to load agent: %w", err)
	}

	job, err := e.storage.CreateJobRun(ctx, agent.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create job run: %w", err)
	}

	txns, err := e.storage.GetUnprocessedTransactions(ctx, opts.UserID, opts.Limit)
	if err != nil {
		failErr := fmt.Errorf("failed to fetch unprocessed transactions: %w", err)
		if ferr := e.storage.FailJobRun(ctx, job.ID, failErr.Error()); ferr != nil {
			e.logger.Error("failed to mark job run failed", "job", job.ID, "error", ferr)
		}
		return nil, failErr
	}

	for i, txn := range txns {
		result, err := e.ProcessTransaction(ctx, txn.ID, ProcessOptions{
			AutoConfirmAbove: opts.AutoConfirmAbove,
			UseLLMFallback:   opts.UseLLMFallback,
		})
		if opts.OnProgress != nil {
			opts.OnProgress(i+1, len(txns))
		}
		if err != nil {
			job.Errors++
			e.logger.Warn("transaction processing failed", "transaction", txn.ID, "error", err)
			continue
		}

		job.Processed++
		switch {
		case result.AutoConfirmed && result.LLMUsed:
			job.LLMAllocated++
		case result.AutoConfirmed:
			job.AutoAllocated++
		case result.NeedsReview:
			job.NeedsReview++
		}
	}

	if err := e.storage.CompleteJobRun(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to complete job run: %w", err)
	}

	now := time.Now().UTC()
	nextRun := now.Add(time.Duration(agent.IntervalMinutes) * time.Minute)
	allocations := job.AutoAllocated + job.LLMAllocated
	if err := e.storage.RecordAgentRun(ctx, agent.ID, allocations, job.LLMAllocated, now, nextRun); err != nil {
		e.logger.Warn("failed to record agent run", "agent", agent.ID, "error", err)
	}

	e.auditJob(ctx, job)

	return job, nil
}

func (e *Engine) auditJob(ctx context.Context, job *model.JobRun) {
	details, _ := json.Marshal(map[string]any{
		"processed":     job.Processed,
		"autoAllocated": job.AutoAllocated,
		"llmAllocated":  job.LLMAllocated,
		"needsReview":   job.NeedsReview,
		"errors":        job.Errors,
	})
	err := e.storage.RecordAudit(ctx, &model.AuditEntry{
		ActionType: model.AuditJobComplete,
		EntityType: "job_run",
		EntityID:   job.ID,
		UserID:     "system",
		Details:    string(details),
	})
	if err != nil {
		e.logger.Warn("failed to record audit entry", "action", model.AuditJobComplete, "error", err)
	}
}
