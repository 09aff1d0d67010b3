package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/lorenco/sean/internal/common"
	"github.com/lorenco/sean/internal/model"
	"github.com/mattn/go-sqlite3"
)

const knowledgeColumns = `id, slug, kb_version, citation_id, layer, scope_type,
	scope_client_id, title, content_text, language, tags, primary_domain,
	secondary_domains, status, submitted_by, source_type, source_ref,
	created_at, updated_at`

// CreateKnowledgeItem stores a new knowledge item version.
func (s *SQLiteStorage) CreateKnowledgeItem(ctx context.Context, item *model.KnowledgeItem) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := item.Validate(); err != nil {
		return err
	}

	tags, err := json.Marshal(item.Tags)
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}
	secondary, err := json.Marshal(item.SecondaryDomains)
	if err != nil {
		return fmt.Errorf("failed to marshal secondary domains: %w", err)
	}

	query := `
		INSERT INTO knowledge_items (
			id, slug, kb_version, citation_id, layer, scope_type,
			scope_client_id, title, content_text, language, tags,
			primary_domain, secondary_domains, status, submitted_by,
			source_type, source_ref
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.ExecContext(ctx, query,
		item.ID, item.Slug, item.KBVersion, item.CitationID, item.Layer,
		item.ScopeType, item.ScopeClientID, item.Title, item.ContentText,
		item.Language, string(tags), item.PrimaryDomain, string(secondary),
		item.Status, item.SubmittedBy, item.SourceType, item.SourceRef,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return fmt.Errorf("knowledge item %s v%d: %w", item.Slug, item.KBVersion, common.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to create knowledge item: %w", err)
	}
	return nil
}

// NextKnowledgeVersion returns the next free version number for a slug.
// Versions are monotonic per slug; re-teaching never overwrites.
func (s *SQLiteStorage) NextKnowledgeVersion(ctx context.Context, slug string) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateString(slug, "slug"); err != nil {
		return 0, err
	}

	var version int
	err := s.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(kb_version), 0) + 1 FROM knowledge_items WHERE slug = ?",
		slug).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to get next knowledge version: %w", err)
	}
	return version, nil
}

// FindApprovedBySlugFragment retrieves an approved item whose slug contains
// the given fragment. Used for bootstrap query-hash lookups.
func (s *SQLiteStorage) FindApprovedBySlugFragment(ctx context.Context, fragment string) (*model.KnowledgeItem, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(fragment, "fragment"); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT %s FROM knowledge_items
		WHERE slug LIKE '%%' || ? || '%%' AND status = ?
		LIMIT 1
	`, knowledgeColumns)
	item, err := scanKnowledgeItem(s.db.QueryRowContext(ctx, query, fragment, model.StatusApproved))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find knowledge item by slug: %w", err)
	}
	return item, nil
}

// GetApprovedByDomains retrieves approved items whose primary domain is one
// of the given domains, capped at limit.
func (s *SQLiteStorage) GetApprovedByDomains(ctx context.Context, domains []string, limit int) ([]model.KnowledgeItem, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if len(domains) == 0 {
		return nil, fmt.Errorf("%w: domains", ErrEmptySlice)
	}
	if limit <= 0 {
		limit = 200
	}

	placeholders := strings.Repeat("?,", len(domains))
	placeholders = placeholders[:len(placeholders)-1]

	query := fmt.Sprintf(`
		SELECT %s FROM knowledge_items
		WHERE status = ? AND primary_domain IN (%s)
		LIMIT ?
	`, knowledgeColumns, placeholders)

	args := make([]any, 0, len(domains)+2)
	args = append(args, model.StatusApproved)
	for _, d := range domains {
		args = append(args, d)
	}
	args = append(args, limit)

	return s.queryKnowledgeItems(ctx, query, args...)
}

// GetApprovedItems retrieves approved items visible for a reasoning query:
// all GLOBAL items, plus the client's own when clientID is set. A non-empty
// layer restricts results to that layer.
func (s *SQLiteStorage) GetApprovedItems(ctx context.Context, clientID, layer string) ([]model.KnowledgeItem, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT %s FROM knowledge_items
		WHERE status = ? AND (scope_type = ?`, knowledgeColumns)
	args := []any{model.StatusApproved, model.ScopeGlobal}
	if clientID != "" {
		query += " OR (scope_type = ? AND scope_client_id = ?)"
		args = append(args, model.ScopeClient, clientID)
	}
	query += ")"
	if layer != "" {
		query += " AND layer = ?"
		args = append(args, layer)
	}

	return s.queryKnowledgeItems(ctx, query, args...)
}

// ListKnowledgeItems retrieves items, optionally filtered by status,
// newest first.
func (s *SQLiteStorage) ListKnowledgeItems(ctx context.Context, status string) ([]model.KnowledgeItem, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM knowledge_items", knowledgeColumns)
	args := []any{}
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, status)
	}
	query += " ORDER BY created_at DESC"

	return s.queryKnowledgeItems(ctx, query, args...)
}

// UpdateKnowledgeStatus changes an item's approval status.
func (s *SQLiteStorage) UpdateKnowledgeStatus(ctx context.Context, id, status string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	if err := validateString(status, "status"); err != nil {
		return err
	}

	query := `
		UPDATE knowledge_items
		SET status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	result, err := s.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update knowledge status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("knowledge item %s: %w", id, common.ErrNotFound)
	}
	return nil
}

func (s *SQLiteStorage) queryKnowledgeItems(ctx context.Context, query string, args ...any) ([]model.KnowledgeItem, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query knowledge items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []model.KnowledgeItem
	for rows.Next() {
		item, err := scanKnowledgeItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan knowledge item: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating knowledge items: %w", err)
	}
	return items, nil
}

func scanKnowledgeItem(row scanner) (*model.KnowledgeItem, error) {
	var item model.KnowledgeItem
	var tags, secondary string
	err := row.Scan(
		&item.ID, &item.Slug, &item.KBVersion, &item.CitationID,
		&item.Layer, &item.ScopeType, &item.ScopeClientID, &item.Title,
		&item.ContentText, &item.Language, &tags, &item.PrimaryDomain,
		&secondary, &item.Status, &item.SubmittedBy, &item.SourceType,
		&item.SourceRef, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tags), &item.Tags); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
	}
	if err := json.Unmarshal([]byte(secondary), &item.SecondaryDomains); err != nil {
		return nil, fmt.Errorf("failed to unmarshal secondary domains: %w", err)
	}
	return &item, nil
}
