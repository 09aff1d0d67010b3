package kb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorenco/sean/internal/model"
	"github.com/lorenco/sean/internal/testutil"
)

func TestTeach_StoresPendingItem(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewService(db.Storage)
	ctx := context.Background()

	item, err := svc.Teach(ctx, "user-1", "TEACH: DOMAIN: VAT\nVAT registration threshold\nThe VAT registration threshold is R1 million.")
	require.NoError(t, err)

	assert.Equal(t, model.StatusPending, item.Status)
	assert.Equal(t, 1, item.KBVersion)
	assert.Equal(t, model.DomainVAT, item.PrimaryDomain)
	assert.Equal(t, "user-1", item.SubmittedBy)
	assert.Equal(t, CitationID(item.Layer, item.Slug, 1), item.CitationID)

	stored, err := db.Storage.ListKnowledgeItems(ctx, model.StatusPending)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, item.ID, stored[0].ID)
}

func TestTeach_ReteachingCreatesNextVersion(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewService(db.Storage)
	ctx := context.Background()

	first, err := svc.Teach(ctx, "user-1", "TEACH: VAT registration threshold\nThe VAT registration threshold is R1 million.")
	require.NoError(t, err)

	second, err := svc.Teach(ctx, "user-1", "TEACH: VAT registration threshold\nThe VAT registration threshold is R1 million, measured over 12 months.")
	require.NoError(t, err)

	assert.Equal(t, first.Slug, second.Slug)
	assert.Equal(t, 1, first.KBVersion)
	assert.Equal(t, 2, second.KBVersion)
	assert.NotEqual(t, first.CitationID, second.CitationID)
}

func TestApprove(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewService(db.Storage)
	ctx := context.Background()

	item, err := svc.Teach(ctx, "user-1", "TEACH: VAT registration threshold\nThe VAT registration threshold is R1 million.")
	require.NoError(t, err)

	require.NoError(t, svc.Approve(ctx, "reviewer-1", item.ID, model.StatusApproved))

	approved, err := db.Storage.ListKnowledgeItems(ctx, model.StatusApproved)
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, item.ID, approved[0].ID)
}

func TestApprove_InvalidStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewService(db.Storage)

	err := svc.Approve(context.Background(), "reviewer-1", "some-id", model.StatusPending)
	require.Error(t, err)
}
