// ABOUTME: Urgency scoring for deal-derived suggestions
// ABOUTME: Pure function of deal value, win probability, and staleness
package focus

import (
	"math"
	"time"

	"github.com/harperreed/focus/models"
)

const (
	// staleCapDays bounds the time factor: a deal untouched for 60 days scores the same as one untouched for a year.
	staleCapDays = 60.0
	stalePeriod  = 30.0
)

// Score rates how urgently a deal needs attention for the given suggestion family.
// It never fails: unset probability counts as 50, negative or non-finite values as 0,
// and an update timestamp in the future as zero days old.
func Score(deal models.Deal, kind models.SuggestionType, now time.Time) float64 {
	value := deal.Value
	if math.IsNaN(value) || math.IsInf(value, 0) {
		value = 0
	}
	valueScore := math.Log10(math.Max(value, 1)) * 10

	p := float64(deal.WinProbability())
	probFactor := p / 100
	if kind == models.SuggestionUpsell {
		probFactor = (100 - p) / 100
	}

	timeFactor := math.Min(DaysSince(deal.UpdatedAt, now)/stalePeriod, staleCapDays/stalePeriod)

	return valueScore * probFactor * (1 + timeFactor)
}

// DaysSince returns the fractional number of days from t to now, never negative.
func DaysSince(t, now time.Time) float64 {
	days := now.Sub(t).Hours() / 24
	if days < 0 || math.IsNaN(days) {
		return 0
	}
	return days
}
