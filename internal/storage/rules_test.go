package storage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/lorenco/sean/internal/common"
	"github.com/lorenco/sean/internal/model"
)

func testRule(id, pattern, category string) model.AllocationRule {
	return model.AllocationRule{
		ID:                id,
		Pattern:           pattern,
		NormalizedPattern: pattern,
		Category:          category,
		Confidence:        0.7,
		LearnedFromCount:  1,
		IsGlobal:          true,
	}
}

func TestCreateRule_DuplicateScopeKey(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	rule := testRule("rule-1", "engen fourways", "FUEL")
	if err := store.CreateRule(ctx, &rule); err != nil {
		t.Fatalf("first create failed: %v", err)
	}

	dup := testRule("rule-2", "engen fourways", "FUEL")
	err := store.CreateRule(ctx, &dup)
	if !errors.Is(err, common.ErrDuplicateEntry) {
		t.Errorf("expected ErrDuplicateEntry, got %v", err)
	}

	// Same pattern with a different category is a separate rule.
	other := testRule("rule-3", "engen fourways", "TRANSPORT")
	if err := store.CreateRule(ctx, &other); err != nil {
		t.Errorf("different category should not collide: %v", err)
	}
}

func TestFindRule_PrefersMostLearned(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	weak := testRule("rule-weak", "engen fourways", "TRANSPORT")
	strong := testRule("rule-strong", "engen fourways", "FUEL")
	strong.LearnedFromCount = 9

	if err := store.CreateRule(ctx, &weak); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := store.CreateRule(ctx, &strong); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	found, err := store.FindRule(ctx, "engen fourways", "")
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if found == nil || found.ID != "rule-strong" {
		t.Errorf("expected the most learned rule, got %+v", found)
	}
}

func TestFindRule_NoMatchReturnsNil(t *testing.T) {
	store := newTestStorage(t)

	found, err := store.FindRule(context.Background(), "unknown pattern", "")
	if err != nil {
		t.Fatalf("find errored: %v", err)
	}
	if found != nil {
		t.Errorf("expected nil for unknown pattern, got %+v", found)
	}
}

func TestFindClientRule_IgnoresGlobalRules(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	global := testRule("rule-global", "engen fourways", "FUEL")
	if err := store.CreateRule(ctx, &global); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	found, err := store.FindClientRule(ctx, "engen fourways", "acme")
	if err != nil {
		t.Fatalf("find errored: %v", err)
	}
	if found != nil {
		t.Errorf("client lookup must not return global rules, got %+v", found)
	}

	scoped := testRule("rule-client", "engen fourways", "TRANSPORT")
	scoped.IsGlobal = false
	scoped.ClientID = "acme"
	if err := store.CreateRule(ctx, &scoped); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	found, err = store.FindClientRule(ctx, "engen fourways", "acme")
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if found == nil || found.ID != "rule-client" {
		t.Errorf("expected client rule, got %+v", found)
	}
}

func TestReinforceRule_CapsAtOne(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	rule := testRule("rule-1", "engen fourways", "FUEL")
	rule.Confidence = 0.95
	if err := store.CreateRule(ctx, &rule); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := store.ReinforceRule(ctx, "rule-1"); err != nil {
			t.Fatalf("reinforce failed: %v", err)
		}
	}

	found, err := store.FindRuleByPatternCategory(ctx, "engen fourways", "FUEL", "", true)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if found.Confidence != 1.0 {
		t.Errorf("confidence = %f, want 1.0", found.Confidence)
	}
	if found.LearnedFromCount != 4 {
		t.Errorf("learned count = %d, want 4", found.LearnedFromCount)
	}
}

func TestDemoteRule_FloorsAtPointOne(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	rule := testRule("rule-1", "engen fourways", "FUEL")
	rule.Confidence = 0.25
	if err := store.CreateRule(ctx, &rule); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := store.DemoteRule(ctx, "rule-1"); err != nil {
			t.Fatalf("demote failed: %v", err)
		}
	}

	found, err := store.FindRuleByPatternCategory(ctx, "engen fourways", "FUEL", "", true)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if math.Abs(found.Confidence-0.1) > 1e-9 {
		t.Errorf("confidence = %f, want 0.1", found.Confidence)
	}
}

func TestReinforceRule_NotFound(t *testing.T) {
	store := newTestStorage(t)

	err := store.ReinforceRule(context.Background(), "missing")
	if !errors.Is(err, common.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGetRulesInScope(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	global := testRule("rule-global", "shell ultra city", "FUEL")
	acme := testRule("rule-acme", "acme supplier", "STOCK_PURCHASES")
	acme.IsGlobal = false
	acme.ClientID = "acme"
	other := testRule("rule-other", "other client rent", "RENT")
	other.IsGlobal = false
	other.ClientID = "someone-else"

	for _, r := range []*model.AllocationRule{&global, &acme, &other} {
		if err := store.CreateRule(ctx, r); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	rules, err := store.GetRulesInScope(ctx, "acme", 0)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("expected global + acme rules, got %d", len(rules))
	}
	for _, rule := range rules {
		if rule.ID == "rule-other" {
			t.Error("another client's rule leaked into scope")
		}
	}
}

func TestGetRuleStats(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		rule := testRule(fmt.Sprintf("fuel-%d", i), fmt.Sprintf("fuel pattern %d", i), "FUEL")
		rule.LearnedFromCount = i + 1
		if err := store.CreateRule(ctx, &rule); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}
	rent := testRule("rent-1", "monthly rent", "RENT")
	if err := store.CreateRule(ctx, &rent); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	stats, err := store.GetRuleStats(ctx)
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.TotalRules != 4 {
		t.Errorf("total rules = %d, want 4", stats.TotalRules)
	}
	if len(stats.ByCategory) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(stats.ByCategory))
	}
	if stats.ByCategory[0].Category != "FUEL" || stats.ByCategory[0].RuleCount != 3 {
		t.Errorf("unexpected top category: %+v", stats.ByCategory[0])
	}
	if stats.ByCategory[0].TotalLearnings != 6 {
		t.Errorf("total learnings = %d, want 6", stats.ByCategory[0].TotalLearnings)
	}
	if len(stats.TopRules) != 4 {
		t.Errorf("expected 4 top rules, got %d", len(stats.TopRules))
	}
}
