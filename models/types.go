// ABOUTME: Data models for CRM entities consumed by the focus engine
// ABOUTME: Defines Activity, Contact, Deal, DealView, and InteractionRecord structs
package models

import (
	"time"

	"github.com/google/uuid"
)

// ActivityType is the kind of scheduled follow-up.
type ActivityType string

const (
	ActivityCall         ActivityType = "CALL"
	ActivityMeeting      ActivityType = "MEETING"
	ActivityEmail        ActivityType = "EMAIL"
	ActivityTask         ActivityType = "TASK"
	ActivityNote         ActivityType = "NOTE"
	ActivityStatusChange ActivityType = "STATUS_CHANGE"
)

// ActivityTypes lists every valid activity type in display order.
var ActivityTypes = []ActivityType{
	ActivityCall,
	ActivityMeeting,
	ActivityEmail,
	ActivityTask,
	ActivityNote,
	ActivityStatusChange,
}

// Valid reports whether t is a known activity type.
func (t ActivityType) Valid() bool {
	for _, known := range ActivityTypes {
		if t == known {
			return true
		}
	}
	return false
}

// IsMeeting reports whether the activity happens with someone at a fixed time.
func (t ActivityType) IsMeeting() bool {
	return t == ActivityCall || t == ActivityMeeting
}

type Activity struct {
	ID          uuid.UUID    `json:"id"`
	Type        ActivityType `json:"type"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	DueAt       time.Time    `json:"due_at"`
	Completed   bool         `json:"completed"`
	DealID      *uuid.UUID   `json:"deal_id,omitempty"`
	ContactID   *uuid.UUID   `json:"contact_id,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// ActivityPatch carries the fields an update may change. Nil fields are left alone.
type ActivityPatch struct {
	Title     *string    `json:"title,omitempty"`
	DueAt     *time.Time `json:"due_at,omitempty"`
	Completed *bool      `json:"completed,omitempty"`
}

// Apply returns a copy of a with the patch applied.
func (p ActivityPatch) Apply(a Activity) Activity {
	if p.Title != nil {
		a.Title = *p.Title
	}
	if p.DueAt != nil {
		a.DueAt = *p.DueAt
	}
	if p.Completed != nil {
		a.Completed = *p.Completed
	}
	return a
}

// ContactStatus is the lifecycle state of a customer relationship.
type ContactStatus string

const (
	ContactActive   ContactStatus = "ACTIVE"
	ContactInactive ContactStatus = "INACTIVE"
	ContactChurned  ContactStatus = "CHURNED"
)

type Contact struct {
	ID               uuid.UUID     `json:"id"`
	Name             string        `json:"name"`
	Email            string        `json:"email,omitempty"`
	Phone            string        `json:"phone,omitempty"`
	Status           ContactStatus `json:"status"`
	CompanyName      string        `json:"company_name,omitempty"`
	Notes            string        `json:"notes,omitempty"`
	LastContactedAt  *time.Time    `json:"last_contacted_at,omitempty"`
	LastPurchaseDate *time.Time    `json:"last_purchase_date,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// LastActivity returns the later of the last interaction and last purchase, or nil if neither is known.
func (c Contact) LastActivity() *time.Time {
	switch {
	case c.LastContactedAt == nil:
		return c.LastPurchaseDate
	case c.LastPurchaseDate == nil:
		return c.LastContactedAt
	case c.LastPurchaseDate.After(*c.LastContactedAt):
		return c.LastPurchaseDate
	default:
		return c.LastContactedAt
	}
}

const (
	StageProspecting   = "prospecting"
	StageQualification = "qualification"
	StageProposal      = "proposal"
	StageNegotiation   = "negotiation"
	StageClosedWon     = "closed_won"
	StageClosedLost    = "closed_lost"
)

// DefaultProbability is assumed for deals that never had a win probability set.
const DefaultProbability = 50

type Deal struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Value       float64    `json:"value"`
	Currency    string     `json:"currency"`
	Probability *int       `json:"probability,omitempty"`
	Stage       string     `json:"stage"`
	CompanyName string     `json:"company_name,omitempty"`
	ContactID   *uuid.UUID `json:"contact_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (d Deal) IsWon() bool  { return d.Stage == StageClosedWon }
func (d Deal) IsLost() bool { return d.Stage == StageClosedLost }

// IsOpen reports whether the deal is still in the pipeline.
func (d Deal) IsOpen() bool { return !d.IsWon() && !d.IsLost() }

// WinProbability returns the probability clamped to 0..100, defaulting when unset.
func (d Deal) WinProbability() int {
	if d.Probability == nil {
		return DefaultProbability
	}
	p := *d.Probability
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// DealView is a deal plus fields derived for display.
type DealView struct {
	Deal
	ContactName string `json:"contact_name,omitempty"`
}

// DealPatch carries the fields an update may change. Touch bumps updated_at without other changes.
type DealPatch struct {
	Title       *string  `json:"title,omitempty"`
	Value       *float64 `json:"value,omitempty"`
	Probability *int     `json:"probability,omitempty"`
	Stage       *string  `json:"stage,omitempty"`
	Touch       bool     `json:"touch,omitempty"`
}

// SuggestionType identifies the heuristic family a suggestion came from.
type SuggestionType string

const (
	SuggestionUpsell  SuggestionType = "UPSELL"
	SuggestionStalled SuggestionType = "STALLED"
	SuggestionRescue  SuggestionType = "RESCUE"
)

// EntityType is the kind of record a suggestion points at.
type EntityType string

const (
	EntityDeal    EntityType = "deal"
	EntityContact EntityType = "contact"
)

// InteractionAction is the operator's decision on a suggestion.
type InteractionAction string

const (
	InteractionAccepted  InteractionAction = "ACCEPTED"
	InteractionDismissed InteractionAction = "DISMISSED"
	InteractionSnoozed   InteractionAction = "SNOOZED"
)

// InteractionRecord is the durable operator decision for one (operator, type, entity).
type InteractionRecord struct {
	OperatorID     string            `json:"operator_id"`
	SuggestionType SuggestionType    `json:"suggestion_type"`
	EntityType     EntityType        `json:"entity_type"`
	EntityID       uuid.UUID         `json:"entity_id"`
	Action         InteractionAction `json:"action"`
	SnoozedUntil   *time.Time        `json:"snoozed_until,omitempty"`
	RecordedAt     time.Time         `json:"recorded_at"`
}

// Suppresses reports whether the record hides its suggestion at the given instant.
func (r InteractionRecord) Suppresses(now time.Time) bool {
	switch r.Action {
	case InteractionAccepted, InteractionDismissed:
		return true
	case InteractionSnoozed:
		return r.SnoozedUntil != nil && now.Before(*r.SnoozedUntil)
	}
	return false
}

// Sync status constants.
const (
	SyncStatusIdle    = "idle"
	SyncStatusSyncing = "syncing"
	SyncStatusError   = "error"
)
