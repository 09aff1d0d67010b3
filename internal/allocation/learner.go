package allocation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/lorenco/sean/internal/common"
	"github.com/lorenco/sean/internal/model"
	"github.com/lorenco/sean/internal/normalize"
	"github.com/lorenco/sean/internal/service"
)

// LearnOptions controls the scope of a learned rule.
type LearnOptions struct {
	ClientID string
	IsGlobal *bool // nil defaults to global when no client ID is given
	Feedback string
	UserID   string
}

// LearnResult describes what a correction did to the rule base.
type LearnResult struct {
	RuleID     string
	Confidence float64
	Reinforced bool
}

// Learner turns confirmed corrections into allocation rules. Repeated
// confirmations reinforce a rule, corrections to a different category
// demote the old rule before a new one is created.
type Learner struct {
	storage service.Storage
	logger  *slog.Logger
}

func NewLearner(storage service.Storage, logger *slog.Logger) *Learner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Learner{storage: storage, logger: logger}
}

// LearnFromCorrection records a confirmed (description, category) pair.
func (l *Learner) LearnFromCorrection(ctx context.Context, description, category string, opts LearnOptions) (*LearnResult, error) {
	normalized := normalize.Description(description)
	if normalized == "" {
		return nil, fmt.Errorf("description %q normalizes to nothing", description)
	}

	isGlobal := opts.ClientID == ""
	if opts.IsGlobal != nil {
		isGlobal = *opts.IsGlobal
	}
	clientID := opts.ClientID
	if isGlobal {
		clientID = ""
	}

	existing, err := l.storage.FindRuleByPatternCategory(ctx, normalized, category, clientID, isGlobal)
	if err != nil {
		return nil, fmt.Errorf("failed to look up existing rule: %w", err)
	}
	if existing != nil {
		return l.reinforce(ctx, existing, opts)
	}

	conflicting, err := l.storage.FindRuleByPattern(ctx, normalized, clientID, isGlobal)
	if err != nil {
		return nil, fmt.Errorf("failed to look up conflicting rule: %w", err)
	}
	if conflicting != nil && conflicting.Category != category {
		if err := l.storage.DemoteRule(ctx, conflicting.ID); err != nil {
			return nil, fmt.Errorf("failed to demote conflicting rule: %w", err)
		}
	}

	rule := &model.AllocationRule{
		ID:                uuid.New().String(),
		Pattern:           description,
		NormalizedPattern: normalized,
		Category:          category,
		Confidence:        0.7,
		LearnedFromCount:  1,
		IsGlobal:          isGlobal,
		ClientID:          clientID,
		CreatedByUserID:   opts.UserID,
	}
	if err := rule.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rule: %w", err)
	}

	if err := l.storage.CreateRule(ctx, rule); err != nil {
		// Lost a create race: the same rule now exists, reinforce it.
		if errors.Is(err, common.ErrDuplicateEntry) {
			existing, findErr := l.storage.FindRuleByPatternCategory(ctx, normalized, category, clientID, isGlobal)
			if findErr == nil && existing != nil {
				return l.reinforce(ctx, existing, opts)
			}
		}
		return nil, fmt.Errorf("failed to create rule: %w", err)
	}

	l.audit(ctx, model.AuditAllocationLearn, rule.ID, opts.UserID, map[string]any{
		"pattern":  normalized,
		"category": category,
		"isGlobal": isGlobal,
		"clientId": clientID,
		"feedback": opts.Feedback,
	})

	return &LearnResult{RuleID: rule.ID, Confidence: rule.Confidence}, nil
}

func (l *Learner) reinforce(ctx context.Context, rule *model.AllocationRule, opts LearnOptions) (*LearnResult, error) {
	if err := l.storage.ReinforceRule(ctx, rule.ID); err != nil {
		return nil, fmt.Errorf("failed to reinforce rule: %w", err)
	}

	confidence := rule.Confidence + 0.05
	if confidence > 1.0 {
		confidence = 1.0
	}

	l.audit(ctx, model.AuditAllocationReinforce, rule.ID, opts.UserID, map[string]any{
		"pattern":    rule.NormalizedPattern,
		"category":   rule.Category,
		"confidence": confidence,
		"feedback":   opts.Feedback,
	})

	return &LearnResult{RuleID: rule.ID, Confidence: confidence, Reinforced: true}, nil
}

// audit records a best-effort audit entry. Learning must not fail because
// the audit write did.
func (l *Learner) audit(ctx context.Context, action, entityID, userID string, details map[string]any) {
	payload, _ := json.Marshal(details)
	err := l.storage.RecordAudit(ctx, &model.AuditEntry{
		ActionType: action,
		EntityType: "allocation_rule",
		EntityID:   entityID,
		UserID:     userID,
		Details:    string(payload),
	})
	if err != nil {
		l.logger.Warn("failed to record audit entry", "action", action, "error", err)
	}
}
