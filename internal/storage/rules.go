package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lorenco/sean/internal/common"
	"github.com/lorenco/sean/internal/model"
	"github.com/mattn/go-sqlite3"
)

const ruleColumns = `id, pattern, normalized_pattern, category, client_id,
	is_global, confidence, learned_from_count, created_by_user_id,
	created_at, updated_at`

// CreateRule stores a new allocation rule. A rule that already exists for
// the same pattern, category and scope returns common.ErrDuplicateEntry.
func (s *SQLiteStorage) CreateRule(ctx context.Context, rule *model.AllocationRule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := rule.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO allocation_rules (
			id, pattern, normalized_pattern, category, client_id,
			is_global, confidence, learned_from_count, created_by_user_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		rule.ID, rule.Pattern, rule.NormalizedPattern, rule.Category,
		rule.ClientID, rule.IsGlobal, rule.Confidence,
		rule.LearnedFromCount, rule.CreatedByUserID,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return fmt.Errorf("rule for pattern %q: %w", rule.NormalizedPattern, common.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to create allocation rule: %w", err)
	}
	return nil
}

// FindRule retrieves the strongest rule matching a normalized pattern in
// global scope plus, when clientID is set, that client's scope.
func (s *SQLiteStorage) FindRule(ctx context.Context, normalizedPattern, clientID string) (*model.AllocationRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT %s FROM allocation_rules
		WHERE normalized_pattern = ? AND (is_global = 1`, ruleColumns)
	args := []any{normalizedPattern}
	if clientID != "" {
		query += " OR client_id = ?"
		args = append(args, clientID)
	}
	query += ") ORDER BY learned_from_count DESC LIMIT 1"

	return s.findRule(ctx, query, args...)
}

// FindClientRule retrieves the strongest client-scoped rule for a pattern.
func (s *SQLiteStorage) FindClientRule(ctx context.Context, normalizedPattern, clientID string) (*model.AllocationRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(clientID, "clientID"); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT %s FROM allocation_rules
		WHERE normalized_pattern = ? AND client_id = ? AND is_global = 0
		ORDER BY learned_from_count DESC LIMIT 1
	`, ruleColumns)
	return s.findRule(ctx, query, normalizedPattern, clientID)
}

// FindRuleByPatternCategory retrieves the rule with the exact scope key.
func (s *SQLiteStorage) FindRuleByPatternCategory(ctx context.Context, normalizedPattern, category, clientID string, isGlobal bool) (*model.AllocationRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT %s FROM allocation_rules
		WHERE normalized_pattern = ? AND category = ? AND is_global = ? AND client_id = ?
		LIMIT 1
	`, ruleColumns)
	return s.findRule(ctx, query, normalizedPattern, category, isGlobal, clientID)
}

// FindRuleByPattern retrieves any rule for a pattern within one scope,
// regardless of category. Used to detect conflicting learnings.
func (s *SQLiteStorage) FindRuleByPattern(ctx context.Context, normalizedPattern, clientID string, isGlobal bool) (*model.AllocationRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT %s FROM allocation_rules
		WHERE normalized_pattern = ? AND is_global = ? AND client_id = ?
		LIMIT 1
	`, ruleColumns)
	return s.findRule(ctx, query, normalizedPattern, isGlobal, clientID)
}

// GetRulesInScope retrieves global rules plus the client's own, strongest
// first, capped at limit. Used by the fuzzy matching stage.
func (s *SQLiteStorage) GetRulesInScope(ctx context.Context, clientID string, limit int) ([]model.AllocationRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 500
	}

	query := fmt.Sprintf(`
		SELECT %s FROM allocation_rules
		WHERE is_global = 1`, ruleColumns)
	args := []any{}
	if clientID != "" {
		query += " OR client_id = ?"
		args = append(args, clientID)
	}
	query += " ORDER BY learned_from_count DESC LIMIT ?"
	args = append(args, limit)

	return s.queryRules(ctx, query, args...)
}

// ReinforceRule increments the learning counter and bumps confidence by
// 0.05, capped at 1.0.
func (s *SQLiteStorage) ReinforceRule(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	query := `
		UPDATE allocation_rules
		SET learned_from_count = learned_from_count + 1,
			confidence = MIN(1.0, confidence + 0.05),
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	return s.execRuleUpdate(ctx, query, id)
}

// DemoteRule lowers a conflicting rule's confidence by 0.1, floored at 0.1.
func (s *SQLiteStorage) DemoteRule(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	query := `
		UPDATE allocation_rules
		SET confidence = MAX(0.1, confidence - 0.1),
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	return s.execRuleUpdate(ctx, query, id)
}

// GetAllRules retrieves every rule for export, grouped by category with the
// strongest rules first.
func (s *SQLiteStorage) GetAllRules(ctx context.Context) ([]model.AllocationRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT %s FROM allocation_rules
		ORDER BY category ASC, learned_from_count DESC
	`, ruleColumns)
	return s.queryRules(ctx, query)
}

// GetRuleStats summarizes the learned rule base.
func (s *SQLiteStorage) GetRuleStats(ctx context.Context) (*model.RuleStats, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	stats := &model.RuleStats{}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM allocation_rules").Scan(&stats.TotalRules); err != nil {
		return nil, fmt.Errorf("failed to count rules: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT category, COUNT(*), SUM(learned_from_count)
		FROM allocation_rules
		GROUP BY category
		ORDER BY COUNT(*) DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get rule category stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var cs model.CategoryRuleStats
		if err := rows.Scan(&cs.Category, &cs.RuleCount, &cs.TotalLearnings); err != nil {
			return nil, fmt.Errorf("failed to scan category stats: %w", err)
		}
		stats.ByCategory = append(stats.ByCategory, cs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category stats: %w", err)
	}

	topQuery := fmt.Sprintf(`
		SELECT %s FROM allocation_rules
		ORDER BY learned_from_count DESC LIMIT 10
	`, ruleColumns)
	top, err := s.queryRules(ctx, topQuery)
	if err != nil {
		return nil, err
	}
	stats.TopRules = top

	return stats, nil
}

func (s *SQLiteStorage) findRule(ctx context.Context, query string, args ...any) (*model.AllocationRule, error) {
	rule, err := scanRule(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find allocation rule: %w", err)
	}
	return rule, nil
}

func (s *SQLiteStorage) queryRules(ctx context.Context, query string, args ...any) ([]model.AllocationRule, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query allocation rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rules []model.AllocationRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan allocation rule: %w", err)
		}
		rules = append(rules, *rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating allocation rules: %w", err)
	}
	return rules, nil
}

func (s *SQLiteStorage) execRuleUpdate(ctx context.Context, query string, args ...any) error {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update allocation rule: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("allocation rule: %w", common.ErrNotFound)
	}
	return nil
}

func scanRule(row scanner) (*model.AllocationRule, error) {
	var rule model.AllocationRule
	err := row.Scan(
		&rule.ID, &rule.Pattern, &rule.NormalizedPattern, &rule.Category,
		&rule.ClientID, &rule.IsGlobal, &rule.Confidence,
		&rule.LearnedFromCount, &rule.CreatedByUserID,
		&rule.CreatedAt, &rule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rule, nil
}
