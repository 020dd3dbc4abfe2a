package focus

import (
	"errors"
	"testing"

	"github.com/harperreed/focus/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewItemView(t *testing.T) {
	a := newActivity("Call Bob", models.ActivityCall, daysAgo(2))
	stalled := openDeal("Acme renewal", 100000, 80, daysAgo(40))
	sugs, err := Synthesize(Inputs{Deals: []models.DealView{stalled}}, testNow)
	require.NoError(t, err)

	queue := Build([]models.Activity{a}, sugs, testNow)
	views := Views(queue)
	require.Len(t, views, 2)

	act := views[0]
	assert.Equal(t, a.ID.String(), act.ID)
	assert.Equal(t, "activity", act.Kind)
	assert.Equal(t, "CALL", act.Type)
	assert.True(t, act.Overdue)
	require.NotNil(t, act.DueAt)

	sug := views[1]
	assert.Equal(t, "suggestion", sug.Kind)
	assert.Equal(t, "STALLED", sug.Type)
	assert.Equal(t, "deal", sug.Entity)
	assert.Equal(t, stalled.ID.String(), sug.EntityID)
	assert.Equal(t, "high", sug.Priority)
	assert.Nil(t, sug.DueAt)
}

func TestSourceErrors(t *testing.T) {
	assert.Nil(t, SourceErrors(nil))
	assert.Equal(t, []string{"boom"}, SourceErrors(errors.New("boom")))

	joined := errors.Join(errors.New("deals: down"), errors.New("contacts: down"))
	assert.Equal(t, []string{"deals: down", "contacts: down"}, SourceErrors(joined))
}
