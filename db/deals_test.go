// ABOUTME: Tests for deal database operations
// ABOUTME: Covers creation defaults, the contact join, patches, and touches
package db

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/focus/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateDealDefaults(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	deal := &models.Deal{Title: "Big Deal", Value: 100000}
	require.NoError(t, repo.CreateDeal(ctx, deal))

	assert.NotEqual(t, uuid.Nil, deal.ID)
	assert.Equal(t, "USD", deal.Currency)
	assert.Equal(t, models.StageProspecting, deal.Stage)

	got, err := repo.GetDeal(ctx, deal.ID)
	require.NoError(t, err)
	assert.Equal(t, 100000.0, got.Value)
	assert.Nil(t, got.Probability)

	id := uuid.New()
	upsell := &models.Deal{ID: id, Title: "Upsell: Big Deal"}
	require.NoError(t, repo.CreateDeal(ctx, upsell))
	assert.Equal(t, id, upsell.ID)
	_, err = repo.GetDeal(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultProbability, got.WinProbability())
}

func TestListDealViewsJoinsContactName(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	contact := &models.Contact{Name: "Walter Skinner"}
	require.NoError(t, repo.CreateContact(ctx, contact))

	p := 70
	require.NoError(t, repo.CreateDeal(ctx, &models.Deal{
		Title:       "Renewal",
		Value:       5000,
		Probability: &p,
		Stage:       models.StageNegotiation,
		CompanyName: "FBI",
		ContactID:   &contact.ID,
	}))
	require.NoError(t, repo.CreateDeal(ctx, &models.Deal{Title: "Orphan"}))

	deals, err := repo.ListDealViews(ctx)
	require.NoError(t, err)
	require.Len(t, deals, 2)

	byTitle := map[string]models.DealView{}
	for _, d := range deals {
		byTitle[d.Title] = d
	}
	assert.Equal(t, "Walter Skinner", byTitle["Renewal"].ContactName)
	assert.Equal(t, 70, byTitle["Renewal"].WinProbability())
	assert.Equal(t, contact.ID, *byTitle["Renewal"].ContactID)
	assert.Empty(t, byTitle["Orphan"].ContactName)
	assert.Nil(t, byTitle["Orphan"].ContactID)
}

func TestUpdateDealPatchAndTouch(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	withClock(repo, created)
	deal := &models.Deal{Title: "Pilot", Value: 1000}
	require.NoError(t, repo.CreateDeal(ctx, deal))

	touched := created.AddDate(0, 1, 0)
	withClock(repo, touched)
	require.NoError(t, repo.UpdateDeal(ctx, deal.ID, models.DealPatch{Touch: true}))

	got, err := repo.GetDeal(ctx, deal.ID)
	require.NoError(t, err)
	assert.True(t, touched.Equal(got.UpdatedAt))
	assert.Equal(t, "Pilot", got.Title)

	stage := models.StageClosedWon
	value := 2500.0
	require.NoError(t, repo.UpdateDeal(ctx, deal.ID, models.DealPatch{Stage: &stage, Value: &value}))

	got, err = repo.GetDeal(ctx, deal.ID)
	require.NoError(t, err)
	assert.True(t, got.IsWon())
	assert.Equal(t, 2500.0, got.Value)
}

func TestUpdateDealNotFound(t *testing.T) {
	repo := setupTestRepo(t)
	err := repo.UpdateDeal(context.Background(), uuid.New(), models.DealPatch{Touch: true})
	assert.ErrorIs(t, err, ErrDealNotFound)

	_, err = repo.GetDeal(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrDealNotFound)
}
