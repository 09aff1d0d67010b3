package kb

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/lorenco/sean/internal/model"
	"github.com/lorenco/sean/internal/service"
)

// Service handles knowledge item submission and approval.
type Service struct {
	storage service.Storage
}

// NewService creates a knowledge base service.
func NewService(storage service.Storage) *Service {
	return &Service{storage: storage}
}

// Teach parses a teach message and stores it as a new PENDING knowledge item.
// Re-teaching an existing slug creates the next version rather than
// overwriting the previous one.
func (s *Service) Teach(ctx context.Context, userID, message string) (*model.KnowledgeItem, error) {
	input, err := ParseTeachMessage(message)
	if err != nil {
		return nil, fmt.Errorf("failed to parse teach message: %w", err)
	}

	slug := GenerateSlug(input.Title)
	version, err := s.storage.NextKnowledgeVersion(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to determine knowledge version: %w", err)
	}

	item := &model.KnowledgeItem{
		ID:               uuid.New().String(),
		Slug:             slug,
		KBVersion:        version,
		CitationID:       CitationID(input.Layer, slug, version),
		Layer:            input.Layer,
		ScopeType:        input.ScopeType,
		ScopeClientID:    input.ScopeClientID,
		Title:            input.Title,
		ContentText:      input.ContentText,
		Language:         input.Language,
		Tags:             input.Tags,
		PrimaryDomain:    input.PrimaryDomain,
		SecondaryDomains: input.SecondaryDomains,
		Status:           model.StatusPending,
		SubmittedBy:      userID,
		SourceType:       "teach",
	}

	if err := item.Validate(); err != nil {
		return nil, err
	}

	if err := s.storage.CreateKnowledgeItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to store knowledge item: %w", err)
	}

	s.audit(ctx, userID, model.AuditKnowledgeTeach, item.ID, map[string]any{
		"slug":    item.Slug,
		"version": item.KBVersion,
		"layer":   item.Layer,
		"domain":  item.PrimaryDomain,
	})

	return item, nil
}

// Approve marks a pending item APPROVED or REJECTED.
func (s *Service) Approve(ctx context.Context, userID, itemID, status string) error {
	if status != model.StatusApproved && status != model.StatusRejected {
		return fmt.Errorf("invalid approval status %q", status)
	}

	if err := s.storage.UpdateKnowledgeStatus(ctx, itemID, status); err != nil {
		return fmt.Errorf("failed to update knowledge status: %w", err)
	}

	s.audit(ctx, userID, model.AuditKnowledgeApprove, itemID, map[string]any{
		"status": status,
	})

	return nil
}

// audit records an audit entry; failures are logged and never propagated.
func (s *Service) audit(ctx context.Context, userID, action, entityID string, details map[string]any) {
	payload, _ := json.Marshal(details)
	entry := &model.AuditEntry{
		UserID:     userID,
		ActionType: action,
		EntityType: "KnowledgeItem",
		EntityID:   entityID,
		Details:    string(payload),
	}
	if err := s.storage.RecordAudit(ctx, entry); err != nil {
		slog.Warn("Failed to record audit entry", "action", action, "error", err)
	}
}
