// Package testutil provides test fixtures shared across packages: an
// in-memory migrated database and builders for common domain objects.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lorenco/sean/internal/model"
	"github.com/lorenco/sean/internal/service"
	"github.com/lorenco/sean/internal/storage"
)

// TestDB wraps an in-memory migrated database for one test.
type TestDB struct {
	Storage service.Storage
	t       *testing.T
}

// SetupTestDB creates an in-memory database, runs migrations, and
// registers cleanup.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return &TestDB{Storage: store, t: t}
}

// SeedTransaction inserts one transaction and returns it. Zero-value
// fields get sensible defaults.
func (db *TestDB) SeedTransaction(txn model.BankTransaction) model.BankTransaction {
	db.t.Helper()

	if txn.ID == "" {
		txn.ID = uuid.New().String()
	}
	if txn.UserID == "" {
		txn.UserID = "test-user"
	}
	if txn.Date.IsZero() {
		txn.Date = time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	}
	if txn.RawDescription == "" {
		txn.RawDescription = "TEST TRANSACTION"
	}
	if txn.Hash == "" {
		txn.Hash = txn.GenerateHash()
	}

	if err := db.Storage.SaveTransactions(context.Background(), []model.BankTransaction{txn}); err != nil {
		db.t.Fatalf("failed to seed transaction: %v", err)
	}
	return txn
}

// SeedRule inserts one allocation rule and returns it.
func (db *TestDB) SeedRule(rule model.AllocationRule) model.AllocationRule {
	db.t.Helper()

	if rule.ID == "" {
		rule.ID = uuid.New().String()
	}
	if rule.Pattern == "" {
		rule.Pattern = rule.NormalizedPattern
	}
	if rule.Confidence == 0 {
		rule.Confidence = 0.7
	}
	if rule.LearnedFromCount == 0 {
		rule.LearnedFromCount = 1
	}

	if err := db.Storage.CreateRule(context.Background(), &rule); err != nil {
		db.t.Fatalf("failed to seed rule: %v", err)
	}
	return rule
}

// SeedKnowledgeItem inserts one knowledge item and returns it. Zero-value
// fields get sensible defaults for an approved firm-level entry.
func (db *TestDB) SeedKnowledgeItem(item model.KnowledgeItem) model.KnowledgeItem {
	db.t.Helper()

	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if item.Layer == "" {
		item.Layer = model.LayerFirm
	}
	if item.ScopeType == "" {
		item.ScopeType = model.ScopeGlobal
	}
	if item.Status == "" {
		item.Status = model.StatusApproved
	}
	if item.Language == "" {
		item.Language = "EN"
	}
	if item.PrimaryDomain == "" {
		item.PrimaryDomain = model.DomainOther
	}
	if item.KBVersion == 0 {
		item.KBVersion = 1
	}

	if err := db.Storage.CreateKnowledgeItem(context.Background(), &item); err != nil {
		db.t.Fatalf("failed to seed knowledge item: %v", err)
	}
	return item
}
