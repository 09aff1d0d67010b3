package model

import "time"

// Audit action types recorded for state-changing operations.
const (
	AuditAllocationLearn     = "ALLOCATION_LEARN"
	AuditAllocationReinforce = "ALLOCATION_REINFORCE"
	AuditLLMAllocation       = "LLM_ALLOCATION"
	AuditJobComplete         = "ALLOCATION_JOB_COMPLETE"
	AuditAgentStatusChange   = "AGENT_STATUS_CHANGE"
	AuditKnowledgeTeach      = "KNOWLEDGE_TEACH"
	AuditKnowledgeApprove    = "KNOWLEDGE_APPROVE"
	AuditLLMBootstrap        = "LLM_BOOTSTRAP"
	AuditReasonQuery         = "REASON_QUERY"
)

// AuditEntry is one append-only audit log row. Details carries a JSON blob
// describing the operation; writers never fail the operation on audit errors.
type AuditEntry struct {
	CreatedAt  time.Time
	ActionType string
	EntityType string
	EntityID   string
	UserID     string
	Details    string
	ID         int64
}
