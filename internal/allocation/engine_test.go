package allocation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorenco/sean/internal/model"
	"github.com/lorenco/sean/internal/testutil"
)

func newTestEngine(db *testutil.TestDB, client *stubCompletionClient) *Engine {
	suggester := NewSuggester(db.Storage)
	learner := NewLearner(db.Storage, nil)
	var fallback *Fallback
	if client != nil {
		fallback = NewFallback(db.Storage, client, nil)
	}
	return NewEngine(db.Storage, suggester, learner, fallback, nil)
}

func TestProcessTransaction_AutoConfirmsAboveThreshold(t *testing.T) {
	db := testutil.SetupTestDB(t)
	engine := newTestEngine(db, nil)
	ctx := context.Background()

	db.SeedRule(model.AllocationRule{
		NormalizedPattern: "engen fourways",
		Category:          "FUEL",
		Confidence:        0.95,
		IsGlobal:          true,
	})
	txn := db.SeedTransaction(model.BankTransaction{RawDescription: "ENGEN FOURWAYS"})

	result, err := engine.ProcessTransaction(ctx, txn.ID, ProcessOptions{})
	require.NoError(t, err)

	assert.True(t, result.AutoConfirmed)
	assert.Equal(t, "FUEL", result.Category)
	assert.Equal(t, MatchExact, result.Source)
	assert.False(t, result.LLMUsed)

	stored, err := db.Storage.GetTransactionByID(ctx, txn.ID)
	require.NoError(t, err)
	assert.True(t, stored.Processed)
	assert.Equal(t, "FUEL", stored.ConfirmedCategory)
}

func TestProcessTransaction_LowConfidenceNeedsReview(t *testing.T) {
	db := testutil.SetupTestDB(t)
	engine := newTestEngine(db, nil)
	ctx := context.Background()

	db.SeedRule(model.AllocationRule{
		NormalizedPattern: "engen fourways",
		Category:          "FUEL",
		Confidence:        0.7,
		IsGlobal:          true,
	})
	txn := db.SeedTransaction(model.BankTransaction{RawDescription: "ENGEN FOURWAYS"})

	result, err := engine.ProcessTransaction(ctx, txn.ID, ProcessOptions{})
	require.NoError(t, err)

	assert.False(t, result.AutoConfirmed)
	assert.True(t, result.NeedsReview)
	assert.Equal(t, "FUEL", result.Category)

	// Suggested but still awaiting confirmation.
	stored, err := db.Storage.GetTransactionByID(ctx, txn.ID)
	require.NoError(t, err)
	assert.False(t, stored.Processed)
	assert.Equal(t, "FUEL", stored.SuggestedCategory)
}

func TestProcessTransaction_NoMatchFallsBackToOther(t *testing.T) {
	db := testutil.SetupTestDB(t)
	engine := newTestEngine(db, nil)
	ctx := context.Background()

	txn := db.SeedTransaction(model.BankTransaction{RawDescription: "QQQQ ZZZZ"})

	result, err := engine.ProcessTransaction(ctx, txn.ID, ProcessOptions{})
	require.NoError(t, err)

	assert.True(t, result.NeedsReview)
	assert.Equal(t, CategoryOther, result.Category)
	assert.Equal(t, 0.1, result.Confidence)
	assert.Equal(t, MatchNone, result.Source)
}

func TestProcessTransaction_ConfirmedIsUntouched(t *testing.T) {
	db := testutil.SetupTestDB(t)
	engine := newTestEngine(db, nil)
	ctx := context.Background()

	txn := db.SeedTransaction(model.BankTransaction{RawDescription: "ENGEN FOURWAYS"})
	require.NoError(t, db.Storage.ConfirmTransaction(ctx, txn.ID, "TRANSPORT", "user-1", ""))

	result, err := engine.ProcessTransaction(ctx, txn.ID, ProcessOptions{})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.False(t, result.AutoConfirmed)
	assert.Equal(t, "TRANSPORT", result.Category)
	assert.Equal(t, 1.0, result.Confidence)
}

func TestProcessTransaction_LLMAllocationLearnsRule(t *testing.T) {
	db := testutil.SetupTestDB(t)
	client := &stubCompletionClient{
		response: `{"category": "FUEL", "confidence": 0.9, "reasoning": "petrol station"}`,
	}
	engine := newTestEngine(db, client)
	ctx := context.Background()

	txn := db.SeedTransaction(model.BankTransaction{RawDescription: "QQQQ ZZZZ", ClientID: "acme"})

	result, err := engine.ProcessTransaction(ctx, txn.ID, ProcessOptions{UseLLMFallback: true})
	require.NoError(t, err)

	assert.True(t, result.AutoConfirmed)
	assert.True(t, result.LLMUsed)
	assert.Equal(t, "FUEL", result.Category)
	assert.Equal(t, MatchLLM, result.Source)

	// Confident LLM answers become global rules for next time, even when
	// the transaction sits in a client book.
	rule, err := db.Storage.FindRuleByPatternCategory(ctx, "qqqq zzzz", "FUEL", "", true)
	require.NoError(t, err)
	require.NotNil(t, rule)
	assert.Equal(t, "system", rule.CreatedByUserID)
	assert.True(t, rule.IsGlobal)
	assert.Empty(t, rule.ClientID)
}

func TestProcessTransaction_UncertainLLMNeedsReview(t *testing.T) {
	db := testutil.SetupTestDB(t)
	client := &stubCompletionClient{
		response: `{"category": "OTHER", "confidence": 0.4, "reasoning": "unclear"}`,
	}
	engine := newTestEngine(db, client)
	ctx := context.Background()

	txn := db.SeedTransaction(model.BankTransaction{RawDescription: "QQQQ ZZZZ"})

	result, err := engine.ProcessTransaction(ctx, txn.ID, ProcessOptions{UseLLMFallback: true})
	require.NoError(t, err)

	assert.False(t, result.AutoConfirmed)
	assert.True(t, result.NeedsReview)
	assert.True(t, result.LLMUsed)
	assert.Equal(t, 0.4, result.Confidence)
}

func TestRunJob_CountsOutcomes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	engine := newTestEngine(db, nil)
	ctx := context.Background()

	db.SeedRule(model.AllocationRule{
		NormalizedPattern: "engen fourways",
		Category:          "FUEL",
		Confidence:        0.95,
		IsGlobal:          true,
	})
	db.SeedTransaction(model.BankTransaction{RawDescription: "ENGEN FOURWAYS"})
	db.SeedTransaction(model.BankTransaction{RawDescription: "QQQQ ZZZZ"})

	var progress [][2]int
	job, err := engine.RunJob(ctx, JobOptions{
		OnProgress: func(done, total int) { progress = append(progress, [2]int{done, total}) },
	})
	require.NoError(t, err)

	assert.Equal(t, model.JobCompleted, job.Status)
	assert.Equal(t, 2, job.Processed)
	assert.Equal(t, 1, job.AutoAllocated)
	assert.Equal(t, 0, job.LLMAllocated)
	assert.Equal(t, 1, job.NeedsReview)
	assert.Equal(t, 0, job.Errors)

	assert.Equal(t, [][2]int{{1, 2}, {2, 2}}, progress)

	// The agent row accumulates the run.
	agent, err := db.Storage.GetOrCreateAgent(ctx, DefaultAgentName)
	require.NoError(t, err)
	assert.Equal(t, 1, agent.TotalAllocations)
	assert.NotNil(t, agent.LastRun)
	assert.NotNil(t, agent.NextRun)
}

func TestRunJob_EmptyBatch(t *testing.T) {
	db := testutil.SetupTestDB(t)
	engine := newTestEngine(db, nil)

	job, err := engine.RunJob(context.Background(), JobOptions{})
	require.NoError(t, err)

	assert.Equal(t, model.JobCompleted, job.Status)
	assert.Zero(t, job.Processed)
}
