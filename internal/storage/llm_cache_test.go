package storage

import (
	"context"
	"testing"

	"github.com/lorenco/sean/internal/model"
)

func TestLLMCache_MissReturnsNil(t *testing.T) {
	store := newTestStorage(t)

	entry, err := store.GetLLMCacheEntry(context.Background(), "never seen")
	if err != nil {
		t.Fatalf("lookup errored: %v", err)
	}
	if entry != nil {
		t.Errorf("expected nil on cache miss, got %+v", entry)
	}
}

func TestLLMCache_SaveAndHit(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	saved := &model.LLMCacheEntry{
		ID:                "cache-1",
		NormalizedPattern: "mystery vendor",
		Category:          "OTHER",
		Confidence:        0.5,
		Reasoning:         "No clear match",
		Provider:          "claude",
		UsedCount:         1,
	}
	if err := store.SaveLLMCacheEntry(ctx, saved); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	entry, err := store.GetLLMCacheEntry(ctx, "mystery vendor")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if entry == nil {
		t.Fatal("expected cache hit")
	}
	if entry.Category != "OTHER" || entry.Provider != "claude" {
		t.Errorf("unexpected entry: %+v", entry)
	}
	if entry.UsedCount != 1 {
		t.Errorf("used count = %d, want 1", entry.UsedCount)
	}

	if err := store.IncrementLLMCacheUse(ctx, entry.ID); err != nil {
		t.Fatalf("increment failed: %v", err)
	}
	entry, err = store.GetLLMCacheEntry(ctx, "mystery vendor")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if entry.UsedCount != 2 {
		t.Errorf("used count after hit = %d, want 2", entry.UsedCount)
	}
}

func TestLLMCache_ConcurrentSaveCollapses(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	first := &model.LLMCacheEntry{
		ID:                "cache-1",
		NormalizedPattern: "mystery vendor",
		Category:          "OTHER",
		Confidence:        0.5,
		Provider:          "claude",
		UsedCount:         1,
	}
	if err := store.SaveLLMCacheEntry(ctx, first); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	// A racing writer for the same pattern must not error or duplicate;
	// the existing row just gains a use.
	second := &model.LLMCacheEntry{
		ID:                "cache-2",
		NormalizedPattern: "mystery vendor",
		Category:          "BANK_CHARGES",
		Confidence:        0.7,
		Provider:          "openai",
		UsedCount:         1,
	}
	if err := store.SaveLLMCacheEntry(ctx, second); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	count, err := store.CountLLMCacheEntries(ctx)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("cache entries = %d, want 1", count)
	}

	entry, err := store.GetLLMCacheEntry(ctx, "mystery vendor")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if entry.ID != "cache-1" || entry.Category != "OTHER" {
		t.Errorf("first writer should win, got %+v", entry)
	}
	if entry.UsedCount != 2 {
		t.Errorf("used count = %d, want 2", entry.UsedCount)
	}
}
