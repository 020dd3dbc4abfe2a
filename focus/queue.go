// ABOUTME: Queue builder merging activities and suggestions into priority bands
// ABOUTME: Produces one flat, deterministically ordered FocusItem sequence
package focus

import (
	"math"
	"slices"
	"time"

	"github.com/harperreed/focus/models"
)

// Band is a reserved contiguous range of ranks.
type Band int

const (
	BandOverdue        Band = 0
	BandHighSuggestion Band = 100
	BandTodayMeeting   Band = 200
	BandTodayOther     Band = 300
	BandSuggestion     Band = 400

	bandWidth = 100
)

// Bands lists every band in queue order.
var Bands = []Band{BandOverdue, BandHighSuggestion, BandTodayMeeting, BandTodayOther, BandSuggestion}

// BandOf returns the band a rank belongs to.
func BandOf(rank int) Band {
	if rank >= int(BandSuggestion) {
		return BandSuggestion
	}
	if rank < 0 {
		return BandOverdue
	}
	return Band(rank / bandWidth * bandWidth)
}

func (b Band) String() string {
	switch b {
	case BandOverdue:
		return "overdue"
	case BandHighSuggestion:
		return "high-priority suggestion"
	case BandTodayMeeting:
		return "today: meetings"
	case BandTodayOther:
		return "today: tasks"
	case BandSuggestion:
		return "suggestion"
	}
	return "unknown"
}

// rank places the i-th item of a band. Bounded bands saturate at their last slot so a
// crowded band never spills into the next one; the stable sort keeps producer order
// among saturated items.
func (b Band) rank(i int) int {
	if b != BandSuggestion && i >= bandWidth {
		i = bandWidth - 1
	}
	return int(b) + i
}

// StartOfDay returns midnight at the start of t's day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DaysOverdue counts the calendar days between due and today, or 0 when due is not
// before the start of today.
func DaysOverdue(due, now time.Time) int {
	today := StartOfDay(now)
	if !due.Before(today) {
		return 0
	}
	return int(math.Round(today.Sub(StartOfDay(due.In(now.Location()))).Hours() / 24))
}

// Build merges open activities and synthesized suggestions into the focus queue.
// Activities due before today are overdue; activities due later than today and
// completed activities are left out.
func Build(activities []models.Activity, suggestions []Suggestion, now time.Time) []FocusItem {
	today := StartOfDay(now)
	tomorrow := today.AddDate(0, 0, 1)

	var overdue, meetings, other []models.Activity
	for _, a := range activities {
		if a.Completed {
			continue
		}
		switch {
		case a.DueAt.Before(today):
			overdue = append(overdue, a)
		case a.DueAt.Before(tomorrow):
			if a.Type.IsMeeting() {
				meetings = append(meetings, a)
			} else {
				other = append(other, a)
			}
		}
	}

	byDue := func(a, b models.Activity) int { return a.DueAt.Compare(b.DueAt) }
	slices.SortStableFunc(overdue, byDue)
	slices.SortStableFunc(meetings, byDue)
	slices.SortStableFunc(other, byDue)

	items := make([]FocusItem, 0, len(activities)+len(suggestions))
	appendActivities := func(band Band, list []models.Activity) {
		for i, a := range list {
			items = append(items, ActivityItem(a, band.rank(i)))
		}
	}

	appendActivities(BandOverdue, overdue)
	appendActivities(BandTodayMeeting, meetings)
	appendActivities(BandTodayOther, other)

	var high, rest int
	for _, s := range suggestions {
		if s.Priority == PriorityHigh {
			items = append(items, SuggestionItem(s, BandHighSuggestion.rank(high)))
			high++
		} else {
			items = append(items, SuggestionItem(s, BandSuggestion.rank(rest)))
			rest++
		}
	}

	slices.SortStableFunc(items, func(a, b FocusItem) int { return a.Rank - b.Rank })
	return items
}

// Stats summarizes backlog sizes for headers and the briefing.
type Stats struct {
	Overdue         int     `json:"overdue"`
	TodayMeetings   int     `json:"today_meetings"`
	TodayTasks      int     `json:"today_tasks"`
	HighSuggestions int     `json:"high_suggestions"`
	Suggestions     int     `json:"suggestions"`
	Stalled         int     `json:"stalled"`
	Upsell          int     `json:"upsell"`
	Rescue          int     `json:"rescue"`
	StalledValue    float64 `json:"stalled_value"`
}

// Total is the number of items in the queue.
func (s Stats) Total() int {
	return s.Overdue + s.TodayMeetings + s.TodayTasks + s.Suggestions
}

// Summarize computes Stats over a built queue.
func Summarize(queue []FocusItem) Stats {
	var st Stats
	for _, item := range queue {
		item.Match(func(models.Activity) {
			switch item.Band() {
			case BandOverdue:
				st.Overdue++
			case BandTodayMeeting:
				st.TodayMeetings++
			default:
				st.TodayTasks++
			}
		}, func(s Suggestion) {
			st.Suggestions++
			if s.Priority == PriorityHigh {
				st.HighSuggestions++
			}
			switch s.Key.Type {
			case models.SuggestionStalled:
				st.Stalled++
				if s.Deal != nil {
					st.StalledValue += s.Deal.Value
				}
			case models.SuggestionUpsell:
				st.Upsell++
			case models.SuggestionRescue:
				st.Rescue++
			}
		})
	}
	return st
}
