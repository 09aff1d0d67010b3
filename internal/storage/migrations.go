package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
const ExpectedSchemaVersion = 4

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS bank_transactions (
					id TEXT PRIMARY KEY,
					user_id TEXT NOT NULL,
					client_id TEXT NOT NULL DEFAULT '',
					hash TEXT UNIQUE NOT NULL,
					date DATETIME NOT NULL,
					raw_description TEXT NOT NULL,
					normalized_pattern TEXT NOT NULL,
					amount REAL NOT NULL,
					suggested_category TEXT NOT NULL DEFAULT '',
					suggested_confidence REAL NOT NULL DEFAULT 0,
					confirmed_category TEXT NOT NULL DEFAULT '',
					processed INTEGER NOT NULL DEFAULT 0,
					llm_used INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_bank_transactions_date ON bank_transactions(date)`,
				`CREATE INDEX idx_bank_transactions_processed ON bank_transactions(processed, confirmed_category)`,

				`CREATE TABLE IF NOT EXISTS allocation_rules (
					id TEXT PRIMARY KEY,
					pattern TEXT NOT NULL,
					normalized_pattern TEXT NOT NULL,
					category TEXT NOT NULL,
					client_id TEXT NOT NULL DEFAULT '',
					is_global INTEGER NOT NULL DEFAULT 1,
					confidence REAL NOT NULL DEFAULT 0.7,
					learned_from_count INTEGER NOT NULL DEFAULT 1,
					created_by_user_id TEXT NOT NULL DEFAULT '',
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					UNIQUE(normalized_pattern, category, is_global, client_id)
				)`,
				`CREATE INDEX idx_allocation_rules_pattern ON allocation_rules(normalized_pattern)`,

				`CREATE TABLE IF NOT EXISTS client_categories (
					id TEXT PRIMARY KEY,
					client_id TEXT NOT NULL,
					code TEXT NOT NULL,
					label TEXT NOT NULL,
					keywords TEXT NOT NULL DEFAULT '[]',
					is_active INTEGER NOT NULL DEFAULT 1,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					UNIQUE(client_id, code)
				)`,

				`CREATE TABLE IF NOT EXISTS allocation_llm_cache (
					id TEXT PRIMARY KEY,
					normalized_pattern TEXT UNIQUE NOT NULL,
					category TEXT NOT NULL,
					confidence REAL NOT NULL,
					reasoning TEXT NOT NULL DEFAULT '',
					provider TEXT NOT NULL,
					used_count INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Agent and job run tables",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS agents (
					id TEXT PRIMARY KEY,
					name TEXT UNIQUE NOT NULL,
					status TEXT NOT NULL DEFAULT 'INACTIVE',
					authorized_actions TEXT NOT NULL DEFAULT '[]',
					enabled INTEGER NOT NULL DEFAULT 0,
					interval_minutes INTEGER NOT NULL DEFAULT 60,
					min_confidence REAL NOT NULL DEFAULT 0.8,
					llm_fallback INTEGER NOT NULL DEFAULT 1,
					total_allocations INTEGER NOT NULL DEFAULT 0,
					total_llm_calls INTEGER NOT NULL DEFAULT 0,
					last_run DATETIME,
					next_run DATETIME,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,

				`CREATE TABLE IF NOT EXISTS allocation_job_runs (
					id TEXT PRIMARY KEY,
					agent_id TEXT NOT NULL,
					status TEXT NOT NULL,
					started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					completed_at DATETIME,
					processed INTEGER NOT NULL DEFAULT 0,
					auto_allocated INTEGER NOT NULL DEFAULT 0,
					llm_allocated INTEGER NOT NULL DEFAULT 0,
					needs_review INTEGER NOT NULL DEFAULT 0,
					errors INTEGER NOT NULL DEFAULT 0,
					error_message TEXT NOT NULL DEFAULT '',
					FOREIGN KEY (agent_id) REFERENCES agents(id)
				)`,
				`CREATE INDEX idx_allocation_job_runs_started ON allocation_job_runs(started_at)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Knowledge base and audit log tables",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS knowledge_items (
					id TEXT PRIMARY KEY,
					slug TEXT NOT NULL,
					kb_version INTEGER NOT NULL DEFAULT 1,
					citation_id TEXT UNIQUE NOT NULL,
					layer TEXT NOT NULL,
					scope_type TEXT NOT NULL DEFAULT 'GLOBAL',
					scope_client_id TEXT NOT NULL DEFAULT '',
					title TEXT NOT NULL,
					content_text TEXT NOT NULL,
					language TEXT NOT NULL DEFAULT 'EN',
					tags TEXT NOT NULL DEFAULT '[]',
					primary_domain TEXT NOT NULL DEFAULT 'OTHER',
					secondary_domains TEXT NOT NULL DEFAULT '[]',
					status TEXT NOT NULL DEFAULT 'PENDING',
					submitted_by TEXT NOT NULL DEFAULT '',
					source_type TEXT NOT NULL DEFAULT '',
					source_ref TEXT NOT NULL DEFAULT '',
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					UNIQUE(slug, kb_version)
				)`,
				`CREATE INDEX idx_knowledge_items_status ON knowledge_items(status)`,
				`CREATE INDEX idx_knowledge_items_domain ON knowledge_items(primary_domain)`,

				`CREATE TABLE IF NOT EXISTS audit_log (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					user_id TEXT NOT NULL DEFAULT '',
					action_type TEXT NOT NULL,
					entity_type TEXT NOT NULL DEFAULT '',
					entity_id TEXT NOT NULL DEFAULT '',
					details_json TEXT NOT NULL DEFAULT '',
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_audit_log_action ON audit_log(action_type)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     4,
		Description: "Transaction display and confirmation provenance columns",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`ALTER TABLE bank_transactions ADD COLUMN description TEXT NOT NULL DEFAULT ''`,
				`ALTER TABLE bank_transactions ADD COLUMN is_debit INTEGER NOT NULL DEFAULT 0`,
				`ALTER TABLE bank_transactions ADD COLUMN confirmed_by_user_id TEXT NOT NULL DEFAULT ''`,
				`ALTER TABLE bank_transactions ADD COLUMN feedback TEXT NOT NULL DEFAULT ''`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
}

// Migrate applies all pending schema migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
