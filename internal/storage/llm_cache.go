package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lorenco/sean/internal/common"
	"github.com/lorenco/sean/internal/model"
)

// GetLLMCacheEntry retrieves the cached allocation for a normalized pattern.
// Returns nil when the pattern has never been sent to an LLM.
func (s *SQLiteStorage) GetLLMCacheEntry(ctx context.Context, normalizedPattern string) (*model.LLMCacheEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(normalizedPattern, "normalizedPattern"); err != nil {
		return nil, err
	}

	query := `
		SELECT id, normalized_pattern, category, confidence, reasoning,
			provider, used_count, created_at, updated_at
		FROM allocation_llm_cache
		WHERE normalized_pattern = ?
	`
	var entry model.LLMCacheEntry
	err := s.db.QueryRowContext(ctx, query, normalizedPattern).Scan(
		&entry.ID, &entry.NormalizedPattern, &entry.Category,
		&entry.Confidence, &entry.Reasoning, &entry.Provider,
		&entry.UsedCount, &entry.CreatedAt, &entry.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get llm cache entry: %w", err)
	}
	return &entry, nil
}

// IncrementLLMCacheUse bumps the usage counter on a cache hit.
func (s *SQLiteStorage) IncrementLLMCacheUse(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	query := `
		UPDATE allocation_llm_cache
		SET used_count = used_count + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to increment llm cache use: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("llm cache entry: %w", common.ErrNotFound)
	}
	return nil
}

// SaveLLMCacheEntry stores an LLM allocation permanently. Concurrent writers
// for the same pattern collapse into one row via upsert.
func (s *SQLiteStorage) SaveLLMCacheEntry(ctx context.Context, entry *model.LLMCacheEntry) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(entry.NormalizedPattern, "normalizedPattern"); err != nil {
		return err
	}
	if err := validateString(entry.Category, "category"); err != nil {
		return err
	}

	query := `
		INSERT INTO allocation_llm_cache (
			id, normalized_pattern, category, confidence, reasoning, provider, used_count
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(normalized_pattern) DO UPDATE SET
			used_count = used_count + 1,
			updated_at = CURRENT_TIMESTAMP
	`
	_, err := s.db.ExecContext(ctx, query,
		entry.ID, entry.NormalizedPattern, entry.Category,
		entry.Confidence, entry.Reasoning, entry.Provider, entry.UsedCount,
	)
	if err != nil {
		return fmt.Errorf("failed to save llm cache entry: %w", err)
	}
	return nil
}

// CountLLMCacheEntries returns the total number of cached patterns.
func (s *SQLiteStorage) CountLLMCacheEntries(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM allocation_llm_cache").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count llm cache entries: %w", err)
	}
	return count, nil
}
