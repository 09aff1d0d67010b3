// Package service defines the core interfaces that connect the allocation
// and knowledge engines to their dependencies.
package service

import (
	"context"
	"time"

	"github.com/lorenco/sean/internal/model"
)

// Storage defines the interface for data persistence.
type Storage interface {
	// Transaction operations
	SaveTransactions(ctx context.Context, txns []model.BankTransaction) error
	GetTransactionByID(ctx context.Context, id string) (*model.BankTransaction, error)
	GetUnprocessedTransactions(ctx context.Context, userID string, limit int) ([]model.BankTransaction, error)
	// RecordSuggestion stores a suggestion on a still unconfirmed transaction.
	// Returns false if the transaction was confirmed concurrently.
	RecordSuggestion(ctx context.Context, id, category string, confidence float64, llmUsed bool) (bool, error)
	// AutoConfirmTransaction confirms a still unconfirmed transaction in one
	// step. Returns false if another worker confirmed it first.
	AutoConfirmTransaction(ctx context.Context, id, category string, confidence float64, llmUsed bool) (bool, error)
	ConfirmTransaction(ctx context.Context, id, category, userID, feedback string) error
	GetAllocationCounts(ctx context.Context) (*model.AllocationCounts, error)

	// Allocation rule operations
	FindRule(ctx context.Context, normalizedPattern, clientID string) (*model.AllocationRule, error)
	FindClientRule(ctx context.Context, normalizedPattern, clientID string) (*model.AllocationRule, error)
	FindRuleByPatternCategory(ctx context.Context, normalizedPattern, category, clientID string, isGlobal bool) (*model.AllocationRule, error)
	FindRuleByPattern(ctx context.Context, normalizedPattern, clientID string, isGlobal bool) (*model.AllocationRule, error)
	GetRulesInScope(ctx context.Context, clientID string, limit int) ([]model.AllocationRule, error)
	CreateRule(ctx context.Context, rule *model.AllocationRule) error
	ReinforceRule(ctx context.Context, id string) error
	DemoteRule(ctx context.Context, id string) error
	GetAllRules(ctx context.Context) ([]model.AllocationRule, error)
	GetRuleStats(ctx context.Context) (*model.RuleStats, error)

	// Client category operations
	GetClientCategories(ctx context.Context, clientID string) ([]model.ClientCategory, error)
	CreateClientCategory(ctx context.Context, category *model.ClientCategory) error

	// LLM allocation cache operations
	GetLLMCacheEntry(ctx context.Context, normalizedPattern string) (*model.LLMCacheEntry, error)
	IncrementLLMCacheUse(ctx context.Context, id string) error
	SaveLLMCacheEntry(ctx context.Context, entry *model.LLMCacheEntry) error
	CountLLMCacheEntries(ctx context.Context) (int, error)

	// Agent operations
	GetOrCreateAgent(ctx context.Context, name string) (*model.Agent, error)
	UpdateAgent(ctx context.Context, agent *model.Agent) error
	RecordAgentRun(ctx context.Context, agentID string, allocations, llmCalls int, lastRun, nextRun time.Time) error

	// Job run operations
	CreateJobRun(ctx context.Context, agentID string) (*model.JobRun, error)
	CompleteJobRun(ctx context.Context, job *model.JobRun) error
	FailJobRun(ctx context.Context, jobID, errorMessage string) error
	GetRecentJobRuns(ctx context.Context, limit int) ([]model.JobRun, error)

	// Knowledge operations
	CreateKnowledgeItem(ctx context.Context, item *model.KnowledgeItem) error
	NextKnowledgeVersion(ctx context.Context, slug string) (int, error)
	FindApprovedBySlugFragment(ctx context.Context, fragment string) (*model.KnowledgeItem, error)
	GetApprovedByDomains(ctx context.Context, domains []string, limit int) ([]model.KnowledgeItem, error)
	GetApprovedItems(ctx context.Context, clientID, layer string) ([]model.KnowledgeItem, error)
	ListKnowledgeItems(ctx context.Context, status string) ([]model.KnowledgeItem, error)
	UpdateKnowledgeStatus(ctx context.Context, id, status string) error

	// Audit operations
	RecordAudit(ctx context.Context, entry *model.AuditEntry) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// CompletionClient defines the interface for LLM text completion.
type CompletionClient interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	Name() string
}

// CompletionRequest carries one prompt to an LLM provider.
type CompletionRequest struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
}

// RetryOptions configures retry behavior.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
