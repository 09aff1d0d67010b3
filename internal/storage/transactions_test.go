package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lorenco/sean/internal/common"
	"github.com/lorenco/sean/internal/model"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()

	store, err := NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test storage: %v", err)
	}
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testTransaction(id string) model.BankTransaction {
	return model.BankTransaction{
		ID:             id,
		UserID:         "user-1",
		Date:           time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
		RawDescription: "ENGEN FOURWAYS",
		Amount:         -450.00,
	}
}

func TestSaveTransactions_DeduplicatesByHash(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	txn := testTransaction("txn-1")
	if err := store.SaveTransactions(ctx, []model.BankTransaction{txn}); err != nil {
		t.Fatalf("first save failed: %v", err)
	}

	// Same hash, different ID: the duplicate row must be ignored.
	dup := testTransaction("txn-2")
	if err := store.SaveTransactions(ctx, []model.BankTransaction{dup}); err != nil {
		t.Fatalf("second save failed: %v", err)
	}

	txns, err := store.GetUnprocessedTransactions(ctx, "user-1", 10)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(txns) != 1 {
		t.Errorf("expected 1 transaction after duplicate import, got %d", len(txns))
	}
}

func TestGetTransactionByID_NotFound(t *testing.T) {
	store := newTestStorage(t)

	_, err := store.GetTransactionByID(context.Background(), "missing")
	if !errors.Is(err, common.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAutoConfirmTransaction_ClaimsOnce(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	txn := testTransaction("txn-1")
	if err := store.SaveTransactions(ctx, []model.BankTransaction{txn}); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	claimed, err := store.AutoConfirmTransaction(ctx, "txn-1", "FUEL", 0.92, false)
	if err != nil {
		t.Fatalf("auto-confirm failed: %v", err)
	}
	if !claimed {
		t.Fatal("first auto-confirm should claim the transaction")
	}

	// Second attempt hits the processed guard and loses cleanly.
	claimed, err = store.AutoConfirmTransaction(ctx, "txn-1", "GROCERIES", 0.95, false)
	if err != nil {
		t.Fatalf("second auto-confirm errored: %v", err)
	}
	if claimed {
		t.Error("second auto-confirm should not claim an already confirmed transaction")
	}

	got, err := store.GetTransactionByID(ctx, "txn-1")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if got.ConfirmedCategory != "FUEL" {
		t.Errorf("confirmed category = %q, want FUEL", got.ConfirmedCategory)
	}
	if !got.Processed {
		t.Error("transaction should be marked processed")
	}
}

func TestRecordSuggestion_SkipsConfirmedTransactions(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	txn := testTransaction("txn-1")
	if err := store.SaveTransactions(ctx, []model.BankTransaction{txn}); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	updated, err := store.RecordSuggestion(ctx, "txn-1", "FUEL", 0.6, false)
	if err != nil {
		t.Fatalf("record suggestion failed: %v", err)
	}
	if !updated {
		t.Fatal("suggestion on a fresh transaction should apply")
	}

	if err := store.ConfirmTransaction(ctx, "txn-1", "TRANSPORT", "user-1", ""); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}

	updated, err = store.RecordSuggestion(ctx, "txn-1", "FUEL", 0.9, false)
	if err != nil {
		t.Fatalf("record suggestion errored: %v", err)
	}
	if updated {
		t.Error("suggestion must not touch a confirmed transaction")
	}
}

func TestConfirmTransaction_RecordsUserAndFeedback(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	txn := testTransaction("txn-1")
	txn.Description = "Engen Fourways"
	txn.IsDebit = true
	if err := store.SaveTransactions(ctx, []model.BankTransaction{txn}); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if err := store.ConfirmTransaction(ctx, "txn-1", "FUEL", "user-7", "petrol, not repairs"); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}

	got, err := store.GetTransactionByID(ctx, "txn-1")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if got.ConfirmedByUserID != "user-7" {
		t.Errorf("confirmed by = %q, want user-7", got.ConfirmedByUserID)
	}
	if got.Feedback != "petrol, not repairs" {
		t.Errorf("feedback = %q, want the confirmation note", got.Feedback)
	}
	if got.Description != "Engen Fourways" {
		t.Errorf("description = %q, want Engen Fourways", got.Description)
	}
	if !got.IsDebit {
		t.Error("debit flag lost on round trip")
	}
}

func TestAutoConfirmTransaction_AttributesToSystem(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	txn := testTransaction("txn-1")
	if err := store.SaveTransactions(ctx, []model.BankTransaction{txn}); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	claimed, err := store.AutoConfirmTransaction(ctx, "txn-1", "FUEL", 0.92, false)
	if err != nil {
		t.Fatalf("auto-confirm failed: %v", err)
	}
	if !claimed {
		t.Fatal("auto-confirm should claim the transaction")
	}

	got, err := store.GetTransactionByID(ctx, "txn-1")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if got.ConfirmedByUserID != "system" {
		t.Errorf("confirmed by = %q, want system", got.ConfirmedByUserID)
	}
}

func TestConfirmTransaction_NotFound(t *testing.T) {
	store := newTestStorage(t)

	err := store.ConfirmTransaction(context.Background(), "missing", "FUEL", "user-1", "")
	if !errors.Is(err, common.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGetUnprocessedTransactions_FiltersAndOrders(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	older := testTransaction("txn-old")
	older.Date = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := testTransaction("txn-new")
	newer.RawDescription = "CHECKERS SANDTON"
	otherUser := testTransaction("txn-other")
	otherUser.UserID = "user-2"
	otherUser.RawDescription = "SPAR TOKAI"

	if err := store.SaveTransactions(ctx, []model.BankTransaction{older, newer, otherUser}); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	txns, err := store.GetUnprocessedTransactions(ctx, "user-1", 10)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(txns) != 2 {
		t.Fatalf("expected 2 transactions for user-1, got %d", len(txns))
	}
	if txns[0].ID != "txn-new" {
		t.Errorf("expected newest first, got %s", txns[0].ID)
	}

	// Empty user returns everything.
	all, err := store.GetUnprocessedTransactions(ctx, "", 10)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 transactions for all users, got %d", len(all))
	}
}

func TestGetAllocationCounts(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	pending := testTransaction("txn-pending")
	suggested := testTransaction("txn-suggested")
	suggested.RawDescription = "UNKNOWN VENDOR"
	confirmed := testTransaction("txn-confirmed")
	confirmed.RawDescription = "SHELL ULTRA CITY"

	if err := store.SaveTransactions(ctx, []model.BankTransaction{pending, suggested, confirmed}); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if _, err := store.RecordSuggestion(ctx, "txn-suggested", "OTHER", 0.1, false); err != nil {
		t.Fatalf("suggestion failed: %v", err)
	}
	if err := store.ConfirmTransaction(ctx, "txn-confirmed", "FUEL", "user-1", ""); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}

	counts, err := store.GetAllocationCounts(ctx)
	if err != nil {
		t.Fatalf("counts failed: %v", err)
	}
	if counts.Pending != 2 {
		t.Errorf("pending = %d, want 2", counts.Pending)
	}
	if counts.Processed != 1 {
		t.Errorf("processed = %d, want 1", counts.Processed)
	}
	if counts.NeedsReview != 1 {
		t.Errorf("needs review = %d, want 1", counts.NeedsReview)
	}
}
