// ABOUTME: Suggestion and FocusItem types for the unified work queue
// ABOUTME: FocusItem is a tagged variant over activities and suggestions
package focus

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/focus/models"
)

// Priority buckets a suggestion. Lower rank is more urgent.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank orders priorities high < medium < low.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

// SuggestionKey is the identity of a suggestion and of the suppression that hides it.
type SuggestionKey struct {
	Type     models.SuggestionType
	EntityID uuid.UUID
}

// ID renders the display id, e.g. "stalled-<uuid>". It is never parsed back.
func (k SuggestionKey) ID() string {
	return strings.ToLower(string(k.Type)) + "-" + k.EntityID.String()
}

// EntityType returns the kind of record the suggestion family points at.
func (k SuggestionKey) EntityType() models.EntityType {
	if k.Type == models.SuggestionRescue {
		return models.EntityContact
	}
	return models.EntityDeal
}

// Suggestion is a synthesized candidate task. It is never persisted.
type Suggestion struct {
	Key         SuggestionKey
	Title       string
	Description string
	Priority    Priority
	Score       float64

	// Exactly one of Deal and Contact is set, matching Key.EntityType().
	Deal    *models.DealView
	Contact *models.Contact

	CreatedAt time.Time
}

func (s Suggestion) ID() string { return s.Key.ID() }

// ItemKind tags the FocusItem variant.
type ItemKind int

const (
	KindActivity ItemKind = iota
	KindSuggestion
)

func (k ItemKind) String() string {
	if k == KindSuggestion {
		return "suggestion"
	}
	return "activity"
}

// FocusItem is one entry of the queue: either an activity or a suggestion.
// Construct it with ActivityItem or SuggestionItem and read it with Match.
type FocusItem struct {
	kind       ItemKind
	activity   models.Activity
	suggestion Suggestion

	// Rank is the band-relative priority; lower sorts earlier.
	Rank int
}

func ActivityItem(a models.Activity, rank int) FocusItem {
	return FocusItem{kind: KindActivity, activity: a, Rank: rank}
}

func SuggestionItem(s Suggestion, rank int) FocusItem {
	return FocusItem{kind: KindSuggestion, suggestion: s, Rank: rank}
}

func (f FocusItem) Kind() ItemKind { return f.kind }

// Match calls exactly one of the handlers depending on the variant.
func (f FocusItem) Match(onActivity func(models.Activity), onSuggestion func(Suggestion)) {
	switch f.kind {
	case KindActivity:
		onActivity(f.activity)
	case KindSuggestion:
		onSuggestion(f.suggestion)
	}
}

// Activity returns the activity and true when the item is an activity.
func (f FocusItem) Activity() (models.Activity, bool) {
	return f.activity, f.kind == KindActivity
}

// Suggestion returns the suggestion and true when the item is a suggestion.
func (f FocusItem) Suggestion() (Suggestion, bool) {
	return f.suggestion, f.kind == KindSuggestion
}

// ID is the selection id used by Select and the outer surfaces.
func (f FocusItem) ID() string {
	if f.kind == KindSuggestion {
		return f.suggestion.ID()
	}
	return f.activity.ID.String()
}

func (f FocusItem) Title() string {
	if f.kind == KindSuggestion {
		return f.suggestion.Title
	}
	return f.activity.Title
}

// Band returns the name of the band the item's rank falls in.
func (f FocusItem) Band() Band {
	return BandOf(f.Rank)
}
