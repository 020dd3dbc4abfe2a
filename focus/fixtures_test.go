// ABOUTME: Shared fixtures for focus engine tests
// ABOUTME: Builders for activities, deals, contacts, and a fixed clock
package focus

import (
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/focus/models"
)

var testNow = time.Date(2026, 3, 18, 15, 0, 0, 0, time.UTC)

func daysAgo(n float64) time.Time {
	return testNow.Add(-time.Duration(n * 24 * float64(time.Hour)))
}

func newActivity(title string, typ models.ActivityType, due time.Time) models.Activity {
	return models.Activity{
		ID:        uuid.New(),
		Type:      typ,
		Title:     title,
		DueAt:     due,
		CreatedAt: due,
		UpdatedAt: due,
	}
}

func prob(p int) *int { return &p }

func openDeal(title string, value float64, p int, updated time.Time) models.DealView {
	return models.DealView{Deal: models.Deal{
		ID:          uuid.New(),
		Title:       title,
		Value:       value,
		Currency:    "USD",
		Probability: prob(p),
		Stage:       models.StageNegotiation,
		CompanyName: "Acme",
		CreatedAt:   updated,
		UpdatedAt:   updated,
	}}
}

func wonDeal(title string, value float64, p int, updated time.Time) models.DealView {
	d := openDeal(title, value, p, updated)
	d.Stage = models.StageClosedWon
	return d
}

func activeContact(name string, last *time.Time) models.Contact {
	return models.Contact{
		ID:              uuid.New(),
		Name:            name,
		Status:          models.ContactActive,
		LastContactedAt: last,
		CreatedAt:       daysAgo(400),
	}
}

func timePtr(t time.Time) *time.Time { return &t }

func highSuggestion(title string) Suggestion {
	d := openDeal(title, 100000, 80, daysAgo(40))
	return Suggestion{
		Key:      SuggestionKey{Type: models.SuggestionStalled, EntityID: d.ID},
		Title:    title,
		Priority: PriorityHigh,
		Deal:     &d,
	}
}

func titles(queue []FocusItem) []string {
	out := make([]string, len(queue))
	for i, item := range queue {
		out[i] = item.Title()
	}
	return out
}
