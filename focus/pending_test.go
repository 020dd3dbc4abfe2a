// ABOUTME: Tests for the optimistic write reconciler
// ABOUTME: Covers overlay idempotence, temp id resolution, and refresh supersession
package focus

import (
	"errors"
	"testing"

	"github.com/harperreed/focus/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcilerTempIDsAreUniqueAndOrdered(t *testing.T) {
	r := NewReconciler()
	a := r.Begin(&PendingWrite{Kind: WriteUpdateActivity, ActivityPatch: &models.ActivityPatch{}}, testNow)
	b := r.Begin(&PendingWrite{Kind: WriteUpdateActivity, ActivityPatch: &models.ActivityPatch{}}, testNow)

	assert.Len(t, a.TempID, 26)
	assert.NotEqual(t, a.TempID, b.TempID)
	assert.Less(t, a.TempID, b.TempID)
	assert.Equal(t, 2, r.InFlight())
}

func TestOverlayAppliesWritesWithoutMutatingSnapshot(t *testing.T) {
	act := newActivity("task", models.ActivityTask, testNow)
	deal := openDeal("deal", 1000, 50, daysAgo(20))
	snap := Snapshot{
		Activities:   []models.Activity{act},
		Deals:        []models.DealView{deal},
		Suppressions: Suppressions{},
	}

	r := NewReconciler()
	completed := true
	r.Begin(&PendingWrite{Kind: WriteUpdateActivity, ActivityID: act.ID, ActivityPatch: &models.ActivityPatch{Completed: &completed}}, testNow)
	r.Begin(&PendingWrite{Kind: WriteUpdateDeal, DealID: deal.ID, DealPatch: &models.DealPatch{Touch: true}, At: testNow}, testNow)
	rec := models.InteractionRecord{SuggestionType: models.SuggestionStalled, EntityID: deal.ID, Action: models.InteractionDismissed, RecordedAt: testNow}
	r.Begin(&PendingWrite{Kind: WriteRecordInteraction, Interaction: &rec}, testNow)

	view := r.Overlay(snap)

	assert.True(t, view.Activities[0].Completed)
	assert.Equal(t, testNow, view.Deals[0].UpdatedAt)
	assert.True(t, view.Suppressions.Hides(KeyOf(rec), testNow))

	assert.False(t, snap.Activities[0].Completed)
	assert.Equal(t, daysAgo(20), snap.Deals[0].UpdatedAt)
	assert.Empty(t, snap.Suppressions)

	assert.Equal(t, view, r.Overlay(snap), "overlay is repeatable")
}

func TestOverlayCreationUsesRealIDOnceResolved(t *testing.T) {
	draft := newActivity("Call Dana", models.ActivityCall, testNow)
	r := NewReconciler()
	w := r.Begin(&PendingWrite{Kind: WriteCreateActivity, Activity: &draft}, testNow)

	view := r.Overlay(Snapshot{})
	require.Len(t, view.Activities, 1)
	assert.Equal(t, draft.ID, view.Activities[0].ID)

	stored := draft
	stored.ID = newActivity("", models.ActivityCall, testNow).ID
	r.Resolve(w.TempID, stored.ID.String())

	// The refreshed snapshot already holds the created row; it must not appear twice.
	view = r.Overlay(Snapshot{Activities: []models.Activity{stored}})
	require.Len(t, view.Activities, 1)
	assert.Equal(t, stored.ID, view.Activities[0].ID)

	pw, ok := r.Get(w.TempID)
	require.True(t, ok)
	assert.Equal(t, WriteResolved, pw.State)
	assert.Equal(t, stored.ID.String(), pw.RealID)
}

func TestOverlayDeleteIsIdempotent(t *testing.T) {
	act := newActivity("gone", models.ActivityTask, testNow)
	r := NewReconciler()
	r.Begin(&PendingWrite{Kind: WriteDeleteActivity, ActivityID: act.ID}, testNow)

	assert.Empty(t, r.Overlay(Snapshot{Activities: []models.Activity{act}}).Activities)
	assert.Empty(t, r.Overlay(Snapshot{}).Activities)
}

func TestRefreshedDropsOnlyWritesSettledBeforeMark(t *testing.T) {
	r := NewReconciler()
	patch := &models.ActivityPatch{}
	early := r.Begin(&PendingWrite{Kind: WriteUpdateActivity, ActivityPatch: patch}, testNow)
	late := r.Begin(&PendingWrite{Kind: WriteUpdateActivity, ActivityPatch: patch}, testNow)
	open := r.Begin(&PendingWrite{Kind: WriteUpdateActivity, ActivityPatch: patch}, testNow)

	r.Fail(early.TempID, errors.New("boom"))
	mark := r.Mark()
	r.Resolve(late.TempID, "")

	r.Refreshed(mark)

	_, ok := r.Get(early.TempID)
	assert.False(t, ok, "settled before the fetch began")
	_, ok = r.Get(late.TempID)
	assert.True(t, ok, "settled while the fetch was running")
	_, ok = r.Get(open.TempID)
	assert.True(t, ok, "still in flight")
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, 1, r.InFlight())

	r.Refreshed(r.Mark())
	assert.Equal(t, 1, r.Len())
}

func TestResolveUnknownTempIDIsIgnored(t *testing.T) {
	r := NewReconciler()
	r.Resolve("nope", "x")
	r.Fail("nope", errors.New("x"))
	assert.Zero(t, r.Len())
}
