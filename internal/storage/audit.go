package storage

import (
	"context"
	"fmt"

	"github.com/lorenco/sean/internal/model"
)

// RecordAudit appends an audit log entry.
func (s *SQLiteStorage) RecordAudit(ctx context.Context, entry *model.AuditEntry) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(entry.ActionType, "actionType"); err != nil {
		return err
	}

	query := `
		INSERT INTO audit_log (user_id, action_type, entity_type, entity_id, details_json)
		VALUES (?, ?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query,
		entry.UserID, entry.ActionType, entry.EntityType, entry.EntityID, entry.Details,
	)
	if err != nil {
		return fmt.Errorf("failed to record audit entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get audit entry ID: %w", err)
	}
	entry.ID = id
	return nil
}
