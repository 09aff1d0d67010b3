package allocation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorenco/sean/internal/testutil"
)

func TestLearnFromCorrection_CreatesGlobalRule(t *testing.T) {
	db := testutil.SetupTestDB(t)
	learner := NewLearner(db.Storage, nil)
	ctx := context.Background()

	result, err := learner.LearnFromCorrection(ctx, "ENGEN FOURWAYS", "FUEL", LearnOptions{UserID: "user-1"})
	require.NoError(t, err)

	assert.False(t, result.Reinforced)
	assert.Equal(t, 0.7, result.Confidence)

	rule, err := db.Storage.FindRuleByPatternCategory(ctx, "engen fourways", "FUEL", "", true)
	require.NoError(t, err)
	require.NotNil(t, rule)
	assert.True(t, rule.IsGlobal)
	assert.Equal(t, 1, rule.LearnedFromCount)
	assert.Equal(t, "ENGEN FOURWAYS", rule.Pattern)
}

func TestLearnFromCorrection_ReinforcesExistingRule(t *testing.T) {
	db := testutil.SetupTestDB(t)
	learner := NewLearner(db.Storage, nil)
	ctx := context.Background()

	_, err := learner.LearnFromCorrection(ctx, "ENGEN FOURWAYS", "FUEL", LearnOptions{UserID: "user-1"})
	require.NoError(t, err)

	result, err := learner.LearnFromCorrection(ctx, "engen fourways", "FUEL", LearnOptions{UserID: "user-2"})
	require.NoError(t, err)

	assert.True(t, result.Reinforced)
	assert.InDelta(t, 0.75, result.Confidence, 1e-9)

	rule, err := db.Storage.FindRuleByPatternCategory(ctx, "engen fourways", "FUEL", "", true)
	require.NoError(t, err)
	require.NotNil(t, rule)
	assert.Equal(t, 2, rule.LearnedFromCount)
}

func TestLearnFromCorrection_DemotesConflictingRule(t *testing.T) {
	db := testutil.SetupTestDB(t)
	learner := NewLearner(db.Storage, nil)
	ctx := context.Background()

	first, err := learner.LearnFromCorrection(ctx, "ENGEN FOURWAYS", "FUEL", LearnOptions{UserID: "user-1"})
	require.NoError(t, err)

	// Same pattern corrected to a different category demotes the old rule.
	second, err := learner.LearnFromCorrection(ctx, "ENGEN FOURWAYS", "TRANSPORT", LearnOptions{UserID: "user-1"})
	require.NoError(t, err)
	assert.NotEqual(t, first.RuleID, second.RuleID)
	assert.Equal(t, 0.7, second.Confidence)

	old, err := db.Storage.FindRuleByPatternCategory(ctx, "engen fourways", "FUEL", "", true)
	require.NoError(t, err)
	require.NotNil(t, old)
	assert.InDelta(t, 0.6, old.Confidence, 1e-9)
}

func TestLearnFromCorrection_ClientScope(t *testing.T) {
	db := testutil.SetupTestDB(t)
	learner := NewLearner(db.Storage, nil)
	ctx := context.Background()

	_, err := learner.LearnFromCorrection(ctx, "ENGEN FOURWAYS", "TRANSPORT", LearnOptions{
		ClientID: "acme",
		UserID:   "user-1",
	})
	require.NoError(t, err)

	// The rule lives in the client's scope, not the global one.
	global, err := db.Storage.FindRuleByPatternCategory(ctx, "engen fourways", "TRANSPORT", "", true)
	require.NoError(t, err)
	assert.Nil(t, global)

	scoped, err := db.Storage.FindRuleByPatternCategory(ctx, "engen fourways", "TRANSPORT", "acme", false)
	require.NoError(t, err)
	require.NotNil(t, scoped)
	assert.Equal(t, "acme", scoped.ClientID)
}

func TestLearnFromCorrection_ForcedGlobal(t *testing.T) {
	db := testutil.SetupTestDB(t)
	learner := NewLearner(db.Storage, nil)
	ctx := context.Background()

	isGlobal := true
	_, err := learner.LearnFromCorrection(ctx, "ENGEN FOURWAYS", "FUEL", LearnOptions{
		ClientID: "acme",
		IsGlobal: &isGlobal,
		UserID:   "user-1",
	})
	require.NoError(t, err)

	rule, err := db.Storage.FindRuleByPatternCategory(ctx, "engen fourways", "FUEL", "", true)
	require.NoError(t, err)
	require.NotNil(t, rule)
	assert.True(t, rule.IsGlobal)
	assert.Empty(t, rule.ClientID)
}

func TestLearnFromCorrection_EmptyPattern(t *testing.T) {
	db := testutil.SetupTestDB(t)
	learner := NewLearner(db.Storage, nil)

	_, err := learner.LearnFromCorrection(context.Background(), "12345", "FUEL", LearnOptions{})
	require.Error(t, err)
}
