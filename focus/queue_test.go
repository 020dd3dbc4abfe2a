// ABOUTME: Tests for the queue builder and backlog stats
// ABOUTME: Checks band placement, ordering, saturation, and determinism
package focus

import (
	"fmt"
	"testing"
	"time"

	"github.com/harperreed/focus/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildBandOrder(t *testing.T) {
	a := newActivity("A", models.ActivityTask, daysAgo(2))
	b := newActivity("B", models.ActivityMeeting, testNow.Add(time.Hour))
	s := highSuggestion("S")

	queue := Build([]models.Activity{b, a}, []Suggestion{s}, testNow)

	require.Len(t, queue, 3)
	assert.Equal(t, []string{"A", "S", "B"}, titles(queue))
	assert.Equal(t, []Band{BandOverdue, BandHighSuggestion, BandTodayMeeting},
		[]Band{queue[0].Band(), queue[1].Band(), queue[2].Band()})
}

func TestBuildExcludesCompletedAndFuture(t *testing.T) {
	done := newActivity("done", models.ActivityCall, daysAgo(1))
	done.Completed = true
	future := newActivity("future", models.ActivityCall, testNow.AddDate(0, 0, 2))
	tonight := newActivity("tonight", models.ActivityTask, StartOfDay(testNow).Add(23*time.Hour))
	midnight := newActivity("midnight", models.ActivityEmail, StartOfDay(testNow))

	queue := Build([]models.Activity{done, future, tonight, midnight}, nil, testNow)

	assert.Equal(t, []string{"midnight", "tonight"}, titles(queue))
	for _, item := range queue {
		assert.Equal(t, BandTodayOther, item.Band())
	}
}

func TestBuildSortsWithinBandsByDueDate(t *testing.T) {
	older := newActivity("older", models.ActivityTask, daysAgo(5))
	newer := newActivity("newer", models.ActivityTask, daysAgo(1))
	late := newActivity("late", models.ActivityMeeting, testNow.Add(2*time.Hour))
	early := newActivity("early", models.ActivityMeeting, testNow.Add(-2*time.Hour))

	queue := Build([]models.Activity{newer, late, older, early}, nil, testNow)

	assert.Equal(t, []string{"older", "newer", "early", "late"}, titles(queue))
}

func TestBuildSuggestionBands(t *testing.T) {
	high := highSuggestion("high")
	low := highSuggestion("low")
	low.Priority = PriorityLow
	medium := highSuggestion("medium")
	medium.Priority = PriorityMedium
	task := newActivity("task", models.ActivityTask, testNow)

	queue := Build([]models.Activity{task}, []Suggestion{high, medium, low}, testNow)

	assert.Equal(t, []string{"high", "task", "medium", "low"}, titles(queue))
	assert.Equal(t, BandSuggestion, queue[2].Band())
	assert.Equal(t, int(BandSuggestion)+1, queue[3].Rank)
}

func TestBuildBandSaturation(t *testing.T) {
	var overdue []models.Activity
	for i := range 150 {
		overdue = append(overdue, newActivity(fmt.Sprintf("o%03d", i), models.ActivityTask, daysAgo(300-float64(i))))
	}
	s := highSuggestion("S")

	queue := Build(overdue, []Suggestion{s}, testNow)

	require.Len(t, queue, 151)
	for i := 0; i < 150; i++ {
		assert.Equal(t, BandOverdue, queue[i].Band(), "item %d", i)
		assert.Equal(t, fmt.Sprintf("o%03d", i), queue[i].Title())
	}
	assert.Equal(t, 99, queue[149].Rank)
	assert.Equal(t, "S", queue[150].Title())
}

func TestBuildUnboundedSuggestionBand(t *testing.T) {
	var suggestions []Suggestion
	for i := range 120 {
		s := highSuggestion(fmt.Sprintf("s%03d", i))
		s.Priority = PriorityLow
		suggestions = append(suggestions, s)
	}

	queue := Build(nil, suggestions, testNow)

	assert.Equal(t, int(BandSuggestion)+119, queue[119].Rank)
	assert.Equal(t, BandSuggestion, queue[119].Band())
}

func TestBuildBandInvariant(t *testing.T) {
	activities := []models.Activity{
		newActivity("m", models.ActivityMeeting, testNow),
		newActivity("o", models.ActivityCall, daysAgo(3)),
		newActivity("t", models.ActivityEmail, testNow.Add(-time.Hour)),
	}
	low := highSuggestion("l")
	low.Priority = PriorityLow
	suggestions := []Suggestion{low, highSuggestion("h")}

	queue := Build(activities, suggestions, testNow)

	for i := 1; i < len(queue); i++ {
		assert.LessOrEqual(t, queue[i-1].Rank, queue[i].Rank)
		assert.LessOrEqual(t, queue[i-1].Band(), queue[i].Band())
	}
	assert.Equal(t, queue, Build(activities, suggestions, testNow))
}

func TestBandOf(t *testing.T) {
	assert.Equal(t, BandOverdue, BandOf(0))
	assert.Equal(t, BandOverdue, BandOf(99))
	assert.Equal(t, BandHighSuggestion, BandOf(100))
	assert.Equal(t, BandTodayOther, BandOf(399))
	assert.Equal(t, BandSuggestion, BandOf(10_000))
}

func TestSummarize(t *testing.T) {
	stalled := highSuggestion("stalled")
	upsell := highSuggestion("upsell")
	upsell.Key.Type = models.SuggestionUpsell
	upsell.Priority = PriorityLow
	rescue := Suggestion{
		Key:      SuggestionKey{Type: models.SuggestionRescue},
		Title:    "rescue",
		Priority: PriorityMedium,
	}

	queue := Build([]models.Activity{
		newActivity("o", models.ActivityCall, daysAgo(3)),
		newActivity("m", models.ActivityMeeting, testNow),
		newActivity("t", models.ActivityTask, testNow),
		newActivity("t2", models.ActivityNote, testNow),
	}, []Suggestion{stalled, upsell, rescue}, testNow)

	st := Summarize(queue)
	assert.Equal(t, Stats{
		Overdue:         1,
		TodayMeetings:   1,
		TodayTasks:      2,
		HighSuggestions: 1,
		Suggestions:     3,
		Stalled:         1,
		Upsell:          1,
		Rescue:          1,
		StalledValue:    100000,
	}, st)
	assert.Equal(t, 7, st.Total())
}

func TestDaysOverdue(t *testing.T) {
	now := time.Date(2026, 3, 18, 15, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		due  time.Time
		want int
	}{
		{"later today", now.Add(time.Hour), 0},
		{"earlier today", now.Add(-14 * time.Hour), 0},
		{"late yesterday", now.Add(-16 * time.Hour), 1},
		{"three days back", now.Add(-72 * time.Hour), 3},
		{"tomorrow", now.Add(24 * time.Hour), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysOverdue(tt.due, now))
		})
	}
}
