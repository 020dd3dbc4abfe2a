// ABOUTME: Action dispatcher turning DONE, SNOOZE, and DISMISS into collaborator writes
// ABOUTME: Plans optimistic effects, suppression records, and the cursor adjustment
package focus

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/focus/models"
)

// Action is an operator decision on the current item.
type Action string

const (
	ActionDone    Action = "done"
	ActionSnooze  Action = "snooze"
	ActionDismiss Action = "dismiss"
)

// ParseAction accepts the action names used by the CLI, MCP, and web surfaces.
func ParseAction(s string) (Action, error) {
	switch a := Action(strings.ToLower(strings.TrimSpace(s))); a {
	case ActionDone, ActionSnooze, ActionDismiss:
		return a, nil
	}
	return "", fmt.Errorf("unknown action %q (valid: done, snooze, dismiss)", s)
}

const (
	// DefaultSnoozeDays is how far SNOOZE pushes an activity's due date.
	DefaultSnoozeDays = 1
	suggestionSnooze  = 24 * time.Hour
)

// Plan is what an action does: optimistic writes to register and a cursor adjustment.
type Plan struct {
	Action      Action
	ItemID      string
	Writes      []*PendingWrite
	CursorDelta int
	Notice      Notice
}

// Dispatcher maps actions to collaborator writes.
type Dispatcher struct {
	activities   ActivityWriter
	deals        DealWriter
	interactions InteractionRecorder
	operatorID   string
	snoozeDays   int
}

// NewDispatcher builds a dispatcher. snoozeDays <= 0 uses DefaultSnoozeDays.
func NewDispatcher(activities ActivityWriter, deals DealWriter, interactions InteractionRecorder, operatorID string, snoozeDays int) *Dispatcher {
	if snoozeDays <= 0 {
		snoozeDays = DefaultSnoozeDays
	}
	return &Dispatcher{
		activities:   activities,
		deals:        deals,
		interactions: interactions,
		operatorID:   operatorID,
		snoozeDays:   snoozeDays,
	}
}

// Plan decides what action does to item. cursor and queueLen describe the queue the
// item was taken from; they only matter for the DONE-on-last-activity adjustment.
func (d *Dispatcher) Plan(item FocusItem, action Action, cursor Cursor, queueLen int, now time.Time) Plan {
	plan := Plan{Action: action, ItemID: item.ID()}
	item.Match(func(a models.Activity) {
		d.planActivity(&plan, a, action, cursor, queueLen, now)
	}, func(s Suggestion) {
		d.planSuggestion(&plan, s, action, now)
	})
	return plan
}

func (d *Dispatcher) planActivity(plan *Plan, a models.Activity, action Action, cursor Cursor, queueLen int, now time.Time) {
	switch action {
	case ActionDone:
		completed := !a.Completed
		plan.Writes = append(plan.Writes, d.updateActivity(a.ID, models.ActivityPatch{Completed: &completed}, now))
		// The completed activity drops out of the next rebuild; step back so the
		// cursor does not point past the shortened queue.
		if queueLen > 0 && cursor.Index == queueLen-1 && cursor.Index > 0 {
			plan.CursorDelta = -1
		}
		plan.Notice = infoNotice("Completed: " + a.Title)
	case ActionSnooze:
		due := a.DueAt.AddDate(0, 0, d.snoozeDays)
		completed := false
		plan.Writes = append(plan.Writes, d.updateActivity(a.ID, models.ActivityPatch{DueAt: &due, Completed: &completed}, now))
		plan.Notice = infoNotice(fmt.Sprintf("Snoozed %q until %s", a.Title, due.Format("Jan 2")))
	case ActionDismiss:
		id := a.ID
		plan.Writes = append(plan.Writes, &PendingWrite{
			Kind:       WriteDeleteActivity,
			ActivityID: id,
			At:         now,
			run: func(ctx context.Context) (string, error) {
				return "", d.activities.DeleteActivity(ctx, id)
			},
		})
		plan.Notice = infoNotice("Dismissed: " + a.Title)
	}
}

func (d *Dispatcher) planSuggestion(plan *Plan, s Suggestion, action Action, now time.Time) {
	record := models.InteractionRecord{
		OperatorID:     d.operatorID,
		SuggestionType: s.Key.Type,
		EntityType:     s.Key.EntityType(),
		EntityID:       s.Key.EntityID,
		RecordedAt:     now,
	}

	switch action {
	case ActionDone:
		if w := d.accept(s, now); w != nil {
			plan.Writes = append(plan.Writes, w)
		}
		record.Action = models.InteractionAccepted
		plan.Notice = infoNotice("Accepted: " + s.Title)
	case ActionSnooze:
		until := now.Add(suggestionSnooze)
		record.Action = models.InteractionSnoozed
		record.SnoozedUntil = &until
		plan.Notice = infoNotice("Snoozed until tomorrow: " + s.Title)
	case ActionDismiss:
		record.Action = models.InteractionDismissed
		plan.Notice = infoNotice("Dismissed: " + s.Title)
	default:
		return
	}

	plan.Writes = append(plan.Writes, &PendingWrite{
		Kind:        WriteRecordInteraction,
		Interaction: &record,
		At:          now,
		run: func(ctx context.Context) (string, error) {
			return "", d.interactions.RecordInteraction(ctx, record)
		},
	})
}

// accept returns the domain write that acting on a suggestion implies.
func (d *Dispatcher) accept(s Suggestion, now time.Time) *PendingWrite {
	switch s.Key.Type {
	case models.SuggestionUpsell:
		if s.Deal == nil {
			return nil
		}
		draft := upsellDraft(s.Deal.Deal, now)
		return &PendingWrite{
			Kind: WriteCreateDeal,
			Deal: &draft,
			At:   now,
			run: func(ctx context.Context) (string, error) {
				deal := draft
				if err := d.deals.CreateDeal(ctx, &deal); err != nil {
					return "", err
				}
				return deal.ID.String(), nil
			},
		}
	case models.SuggestionRescue:
		if s.Contact == nil {
			return nil
		}
		draft := rescueReminder(*s.Contact, now)
		return &PendingWrite{
			Kind:     WriteCreateActivity,
			Activity: &draft,
			At:       now,
			run: func(ctx context.Context) (string, error) {
				activity := draft
				if err := d.activities.CreateActivity(ctx, &activity); err != nil {
					return "", err
				}
				return activity.ID.String(), nil
			},
		}
	case models.SuggestionStalled:
		id := s.Key.EntityID
		patch := models.DealPatch{Touch: true}
		return &PendingWrite{
			Kind:      WriteUpdateDeal,
			DealID:    id,
			DealPatch: &patch,
			At:        now,
			run: func(ctx context.Context) (string, error) {
				return "", d.deals.UpdateDeal(ctx, id, patch)
			},
		}
	}
	return nil
}

func (d *Dispatcher) updateActivity(id uuid.UUID, patch models.ActivityPatch, now time.Time) *PendingWrite {
	return &PendingWrite{
		Kind:          WriteUpdateActivity,
		ActivityID:    id,
		ActivityPatch: &patch,
		At:            now,
		run: func(ctx context.Context) (string, error) {
			return "", d.activities.UpdateActivity(ctx, id, patch)
		},
	}
}

// upsellDraft is the follow-on deal opened when an upsell suggestion is accepted.
func upsellDraft(won models.Deal, now time.Time) models.Deal {
	prob := models.DefaultProbability
	return models.Deal{
		ID:          uuid.New(),
		Title:       "Upsell: " + won.Title,
		Value:       won.Value,
		Currency:    won.Currency,
		Probability: &prob,
		Stage:       models.StageProspecting,
		CompanyName: won.CompanyName,
		ContactID:   won.ContactID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// rescueReminder is the call scheduled when a rescue suggestion is accepted. It is due
// now so it lands in today's meetings band immediately.
func rescueReminder(c models.Contact, now time.Time) models.Activity {
	id := c.ID
	return models.Activity{
		ID:          uuid.New(),
		Type:        models.ActivityCall,
		Title:       "Call " + c.Name,
		Description: "Reconnect: relationship has gone quiet.",
		DueAt:       now,
		ContactID:   &id,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
