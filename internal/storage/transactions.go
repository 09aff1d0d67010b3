package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lorenco/sean/internal/common"
	"github.com/lorenco/sean/internal/model"
)

const transactionColumns = `id, user_id, client_id, hash, date, raw_description,
	description, is_debit, normalized_pattern, amount, suggested_category,
	suggested_confidence, confirmed_category, confirmed_by_user_id, feedback,
	processed, llm_used, created_at, updated_at`

// SaveTransactions stores imported transactions, silently skipping duplicates
// that carry an already known hash.
func (s *SQLiteStorage) SaveTransactions(ctx context.Context, txns []model.BankTransaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransactions(txns); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
		INSERT OR IGNORE INTO bank_transactions (
			id, user_id, client_id, hash, date, raw_description,
			description, is_debit, normalized_pattern, amount,
			suggested_category, suggested_confidence, confirmed_category,
			processed, llm_used
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	for i := range txns {
		txn := &txns[i]
		if txn.Hash == "" {
			txn.Hash = txn.GenerateHash()
		}
		_, err := tx.ExecContext(ctx, query,
			txn.ID, txn.UserID, txn.ClientID, txn.Hash, txn.Date,
			txn.RawDescription, txn.Description, txn.IsDebit,
			txn.NormalizedPattern, txn.Amount,
			txn.SuggestedCategory, txn.SuggestedConfidence,
			txn.ConfirmedCategory, txn.Processed, txn.LLMUsed,
		)
		if err != nil {
			return fmt.Errorf("failed to save transaction %s: %w", txn.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transactions: %w", err)
	}
	return nil
}

// GetTransactionByID retrieves a single transaction.
func (s *SQLiteStorage) GetTransactionByID(ctx context.Context, id string) (*model.BankTransaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM bank_transactions WHERE id = ?", transactionColumns)
	txn, err := scanTransaction(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return txn, nil
}

// GetUnprocessedTransactions retrieves transactions awaiting allocation,
// newest first. An empty userID returns transactions for all users.
func (s *SQLiteStorage) GetUnprocessedTransactions(ctx context.Context, userID string, limit int) ([]model.BankTransaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}

	query := fmt.Sprintf(`
		SELECT %s FROM bank_transactions
		WHERE processed = 0 AND confirmed_category = ''
	`, transactionColumns)
	args := []any{}
	if userID != "" {
		query += " AND user_id = ?"
		args = append(args, userID)
	}
	query += " ORDER BY date DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get unprocessed transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var txns []model.BankTransaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return txns, nil
}

// RecordSuggestion stores a suggestion on a still unconfirmed transaction.
func (s *SQLiteStorage) RecordSuggestion(ctx context.Context, id, category string, confidence float64, llmUsed bool) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	if err := validateString(id, "id"); err != nil {
		return false, err
	}

	query := `
		UPDATE bank_transactions
		SET suggested_category = ?, suggested_confidence = ?, llm_used = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND processed = 0 AND confirmed_category = ''
	`
	result, err := s.db.ExecContext(ctx, query, category, confidence, llmUsed, id)
	if err != nil {
		return false, fmt.Errorf("failed to record suggestion: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected > 0, nil
}

// AutoConfirmTransaction confirms a still unconfirmed transaction in one
// step. The WHERE guard makes concurrent confirmation attempts lose cleanly.
func (s *SQLiteStorage) AutoConfirmTransaction(ctx context.Context, id, category string, confidence float64, llmUsed bool) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	if err := validateString(id, "id"); err != nil {
		return false, err
	}

	query := `
		UPDATE bank_transactions
		SET suggested_category = ?, suggested_confidence = ?,
			confirmed_category = ?, confirmed_by_user_id = 'system',
			processed = 1, llm_used = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND processed = 0 AND confirmed_category = ''
	`
	result, err := s.db.ExecContext(ctx, query, category, confidence, category, llmUsed, id)
	if err != nil {
		return false, fmt.Errorf("failed to auto-confirm transaction: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected > 0, nil
}

// ConfirmTransaction records a user confirmation, overriding any suggestion.
func (s *SQLiteStorage) ConfirmTransaction(ctx context.Context, id, category, userID, feedback string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	if err := validateString(category, "category"); err != nil {
		return err
	}

	query := `
		UPDATE bank_transactions
		SET confirmed_category = ?, confirmed_by_user_id = ?, feedback = ?,
			processed = 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	result, err := s.db.ExecContext(ctx, query, category, userID, feedback, id)
	if err != nil {
		return fmt.Errorf("failed to confirm transaction: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
	}
	return nil
}

// GetAllocationCounts summarizes transaction processing state.
func (s *SQLiteStorage) GetAllocationCounts(ctx context.Context) (*model.AllocationCounts, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var counts model.AllocationCounts
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(CASE WHEN processed = 0 AND confirmed_category = '' THEN 1 END),
			COUNT(CASE WHEN processed = 1 THEN 1 END),
			COUNT(CASE WHEN processed = 0 AND confirmed_category = '' AND suggested_category != '' THEN 1 END)
		FROM bank_transactions
	`).Scan(&counts.Pending, &counts.Processed, &counts.NeedsReview)
	if err != nil {
		return nil, fmt.Errorf("failed to count transactions: %w", err)
	}
	return &counts, nil
}

// scanner abstracts sql.Row and sql.Rows for shared scan code.
type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row scanner) (*model.BankTransaction, error) {
	var txn model.BankTransaction
	err := row.Scan(
		&txn.ID, &txn.UserID, &txn.ClientID, &txn.Hash, &txn.Date,
		&txn.RawDescription, &txn.Description, &txn.IsDebit,
		&txn.NormalizedPattern, &txn.Amount,
		&txn.SuggestedCategory, &txn.SuggestedConfidence,
		&txn.ConfirmedCategory, &txn.ConfirmedByUserID, &txn.Feedback,
		&txn.Processed, &txn.LLMUsed,
		&txn.CreatedAt, &txn.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &txn, nil
}
