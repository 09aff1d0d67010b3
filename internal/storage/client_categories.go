package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lorenco/sean/internal/common"
	"github.com/lorenco/sean/internal/model"
	"github.com/mattn/go-sqlite3"
)

// CreateClientCategory stores a client-specific category.
func (s *SQLiteStorage) CreateClientCategory(ctx context.Context, category *model.ClientCategory) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := category.Validate(); err != nil {
		return err
	}

	keywords, err := json.Marshal(category.Keywords)
	if err != nil {
		return fmt.Errorf("failed to marshal keywords: %w", err)
	}

	query := `
		INSERT INTO client_categories (id, client_id, code, label, keywords, is_active)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.ExecContext(ctx, query,
		category.ID, category.ClientID, category.Code, category.Label,
		string(keywords), category.IsActive,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return fmt.Errorf("client category %s/%s: %w", category.ClientID, category.Code, common.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to create client category: %w", err)
	}
	return nil
}

// GetClientCategories retrieves the active categories for a client.
func (s *SQLiteStorage) GetClientCategories(ctx context.Context, clientID string) ([]model.ClientCategory, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(clientID, "clientID"); err != nil {
		return nil, err
	}

	query := `
		SELECT id, client_id, code, label, keywords, is_active, created_at, updated_at
		FROM client_categories
		WHERE client_id = ? AND is_active = 1
		ORDER BY code ASC
	`
	rows, err := s.db.QueryContext(ctx, query, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to get client categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var categories []model.ClientCategory
	for rows.Next() {
		var cat model.ClientCategory
		var keywords string
		err := rows.Scan(
			&cat.ID, &cat.ClientID, &cat.Code, &cat.Label, &keywords,
			&cat.IsActive, &cat.CreatedAt, &cat.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan client category: %w", err)
		}
		if err := json.Unmarshal([]byte(keywords), &cat.Keywords); err != nil {
			return nil, fmt.Errorf("failed to unmarshal keywords for category %s: %w", cat.Code, err)
		}
		categories = append(categories, cat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating client categories: %w", err)
	}
	return categories, nil
}
