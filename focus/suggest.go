// ABOUTME: Suggestion synthesis from deal and contact snapshots
// ABOUTME: Derives STALLED, UPSELL, and RESCUE candidates and filters suppressed ones
package focus

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/harperreed/focus/models"
)

const (
	stalledAfterDays = 7
	upsellAfterDays  = 30
	rescueAfterDays  = 30
	rescueUrgentDays = 60

	stalledHighScore = 30
	upsellHighScore  = 25
)

// ErrDuplicateSuggestion means two candidates produced the same key. It indicates
// malformed input (a repeated entity id in a feed) and is a programming defect upstream.
var ErrDuplicateSuggestion = errors.New("duplicate suggestion key")

// Suppressions holds the latest operator decision per suggestion key.
type Suppressions map[SuggestionKey]models.InteractionRecord

// KeyOf returns the suggestion key a record applies to.
func KeyOf(r models.InteractionRecord) SuggestionKey {
	return SuggestionKey{Type: r.SuggestionType, EntityID: r.EntityID}
}

// NewSuppressions indexes records by key, keeping the latest per key.
func NewSuppressions(records []models.InteractionRecord) Suppressions {
	s := make(Suppressions, len(records))
	for _, r := range records {
		s.Add(r)
	}
	return s
}

// Add records r unless a strictly newer decision for the same key is already present.
func (s Suppressions) Add(r models.InteractionRecord) {
	key := KeyOf(r)
	if existing, ok := s[key]; ok && existing.RecordedAt.After(r.RecordedAt) {
		return
	}
	s[key] = r
}

// Hides reports whether the suggestion with key is suppressed at now.
func (s Suppressions) Hides(key SuggestionKey, now time.Time) bool {
	r, ok := s[key]
	return ok && r.Suppresses(now)
}

// Clone returns an independent copy.
func (s Suppressions) Clone() Suppressions {
	out := make(Suppressions, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Inputs is the snapshot the synthesizer works from.
type Inputs struct {
	Deals        []models.DealView
	Contacts     []models.Contact
	Suppressions Suppressions
}

// Synthesize derives the suggestions that are due at now and not suppressed, ordered
// high before medium before low with producer order kept among equals.
//
// A non-nil error is always ErrDuplicateSuggestion; the returned slice is still usable
// and holds the first candidate for each key.
func Synthesize(in Inputs, now time.Time) ([]Suggestion, error) {
	var candidates []Suggestion
	candidates = append(candidates, stalledSuggestions(in.Deals, now)...)
	candidates = append(candidates, upsellSuggestions(in.Deals, now)...)
	candidates = append(candidates, rescueSuggestions(in.Contacts, now)...)

	seen := make(map[SuggestionKey]bool, len(candidates))
	var dups []error
	out := make([]Suggestion, 0, len(candidates))
	for _, c := range candidates {
		if seen[c.Key] {
			dups = append(dups, fmt.Errorf("%w: %s", ErrDuplicateSuggestion, c.ID()))
			continue
		}
		seen[c.Key] = true
		if in.Suppressions.Hides(c.Key, now) {
			continue
		}
		out = append(out, c)
	}

	slices.SortStableFunc(out, func(a, b Suggestion) int {
		return a.Priority.Rank() - b.Priority.Rank()
	})

	return out, errors.Join(dups...)
}

func stalledSuggestions(deals []models.DealView, now time.Time) []Suggestion {
	var out []Suggestion
	for i := range deals {
		d := deals[i]
		if !d.IsOpen() {
			continue
		}
		days := DaysSince(d.UpdatedAt, now)
		if days <= stalledAfterDays {
			continue
		}

		score := Score(d.Deal, models.SuggestionStalled, now)
		priority := PriorityMedium
		if score > stalledHighScore {
			priority = PriorityHigh
		}

		out = append(out, Suggestion{
			Key:         SuggestionKey{Type: models.SuggestionStalled, EntityID: d.ID},
			Title:       "Stalled deal: " + d.Title,
			Description: fmt.Sprintf("No movement in %d days%s. Win probability %d%%.", int(days), atCompany(d.CompanyName), d.WinProbability()),
			Priority:    priority,
			Score:       score,
			Deal:        &d,
			CreatedAt:   now,
		})
	}
	return out
}

func upsellSuggestions(deals []models.DealView, now time.Time) []Suggestion {
	var out []Suggestion
	for i := range deals {
		d := deals[i]
		if !d.IsWon() {
			continue
		}
		days := DaysSince(d.UpdatedAt, now)
		if days <= upsellAfterDays {
			continue
		}

		score := Score(d.Deal, models.SuggestionUpsell, now)
		priority := PriorityLow
		if score > upsellHighScore {
			priority = PriorityHigh
		}

		out = append(out, Suggestion{
			Key:         SuggestionKey{Type: models.SuggestionUpsell, EntityID: d.ID},
			Title:       "Upsell opportunity: " + d.Title,
			Description: fmt.Sprintf("Won %d days ago%s. Check in about expanding the account.", int(days), atCompany(d.CompanyName)),
			Priority:    priority,
			Score:       score,
			Deal:        &d,
			CreatedAt:   now,
		})
	}
	return out
}

func rescueSuggestions(contacts []models.Contact, now time.Time) []Suggestion {
	var out []Suggestion
	for i := range contacts {
		c := contacts[i]
		if c.Status != models.ContactActive {
			continue
		}

		key := SuggestionKey{Type: models.SuggestionRescue, EntityID: c.ID}
		last := c.LastActivity()
		if last == nil {
			out = append(out, Suggestion{
				Key:         key,
				Title:       "Reconnect with " + c.Name,
				Description: "You have never interacted with this contact.",
				Priority:    PriorityHigh,
				Contact:     &c,
				CreatedAt:   now,
			})
			continue
		}

		days := DaysSince(*last, now)
		if days <= rescueAfterDays {
			continue
		}
		priority := PriorityMedium
		if days > rescueUrgentDays {
			priority = PriorityHigh
		}

		out = append(out, Suggestion{
			Key:         key,
			Title:       "Reconnect with " + c.Name,
			Description: fmt.Sprintf("No interaction in %d days.", int(days)),
			Priority:    priority,
			Contact:     &c,
			CreatedAt:   now,
		})
	}
	return out
}

func atCompany(name string) string {
	if name == "" {
		return ""
	}
	return " at " + name
}
