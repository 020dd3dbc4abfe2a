// ABOUTME: Imports Google Calendar meetings as MEETING activities
// ABOUTME: Dedups through sync_log, follows reschedules and cancellations, and keeps the sync token
package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"

	"github.com/harperreed/focus/db"
	"github.com/harperreed/focus/models"
)

const (
	CalendarService = "calendar"

	// DefaultLookback is how far back a full sync starts.
	DefaultLookback = 30 * 24 * time.Hour

	entityActivity = "activity"
)

// Skip reasons reported in ImportResult.Skipped.
const (
	skipNil       = "nil event"
	skipNoStart   = "missing start time"
	skipAllDay    = "all-day event"
	skipCancelled = "cancelled"
	skipDeclined  = "declined"
	skipSolo      = "solo event"
)

// ImportResult summarizes one calendar sync.
type ImportResult struct {
	Incremental bool
	Fetched     int
	Created     int
	Updated     int
	Removed     int
	Touched     int
	Skipped     map[string]int
}

// SkippedTotal is the number of events that were not imported.
func (r ImportResult) SkippedTotal() int {
	n := 0
	for _, c := range r.Skipped {
		n += c
	}
	return n
}

// CalendarImporter turns calendar events into activities.
type CalendarImporter struct {
	repo     *db.Repository
	events   EventLister
	logger   *slog.Logger
	now      func() time.Time
	lookback time.Duration
}

func NewCalendarImporter(repo *db.Repository, events EventLister, logger *slog.Logger) *CalendarImporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CalendarImporter{
		repo:     repo,
		events:   events,
		logger:   logger.With("service", CalendarService),
		now:      time.Now,
		lookback: DefaultLookback,
	}
}

// shouldSkipEvent returns the reason an event is not a meeting worth importing, or "".
func shouldSkipEvent(event *calendar.Event) string {
	switch {
	case event == nil:
		return skipNil
	case event.Status == "cancelled":
		return skipCancelled
	case event.Start == nil:
		return skipNoStart
	case event.Start.Date != "":
		return skipAllDay
	}

	for _, attendee := range event.Attendees {
		if attendee.Self && attendee.ResponseStatus == "declined" {
			return skipDeclined
		}
	}
	if len(event.Attendees) <= 1 {
		return skipSolo
	}
	return ""
}

// Import runs a sync. With full set, or when no token is stored, it lists events from
// the lookback window; otherwise it continues from the stored sync token and falls back
// to a full sync when Google reports the token expired.
func (imp *CalendarImporter) Import(ctx context.Context, full bool) (*ImportResult, error) {
	if err := imp.repo.UpdateSyncStatus(ctx, CalendarService, models.SyncStatusSyncing, nil); err != nil {
		return nil, err
	}

	result, err := imp.run(ctx, full)
	if err != nil {
		msg := err.Error()
		if statusErr := imp.repo.UpdateSyncStatus(ctx, CalendarService, models.SyncStatusError, &msg); statusErr != nil {
			imp.logger.Warn("failed to record sync error", "error", statusErr)
		}
		return result, err
	}
	return result, nil
}

func (imp *CalendarImporter) run(ctx context.Context, full bool) (*ImportResult, error) {
	q := EventQuery{TimeMin: imp.now().Add(-imp.lookback)}
	if !full {
		state, err := imp.repo.GetSyncState(ctx, CalendarService)
		if err != nil {
			return nil, err
		}
		if state != nil && state.LastSyncToken != nil {
			q.SyncToken = *state.LastSyncToken
		}
	}

	result := &ImportResult{Incremental: q.SyncToken != "", Skipped: map[string]int{}}
	imp.logger.Info("syncing calendar", "incremental", result.Incremental)

	matcher, err := imp.matcher(ctx)
	if err != nil {
		return result, err
	}

	for {
		page, err := imp.events.ListEvents(ctx, q)
		if isTokenExpired(err) && q.SyncToken != "" {
			imp.logger.Warn("sync token expired, running a full sync")
			q = EventQuery{TimeMin: imp.now().Add(-imp.lookback)}
			result.Incremental = false
			continue
		}
		if err != nil {
			return result, fmt.Errorf("failed to fetch calendar events: %w", err)
		}

		result.Fetched += len(page.Items)
		imp.logger.Debug("fetched calendar page", "events", len(page.Items))

		for _, event := range page.Items {
			if err := imp.apply(ctx, event, matcher, result); err != nil {
				return result, err
			}
		}

		if page.NextPageToken == "" {
			if page.NextSyncToken != "" {
				if err := imp.repo.UpdateSyncToken(ctx, CalendarService, page.NextSyncToken); err != nil {
					return result, err
				}
			} else if err := imp.repo.UpdateSyncStatus(ctx, CalendarService, models.SyncStatusIdle, nil); err != nil {
				return result, err
			}
			break
		}
		q.PageToken = page.NextPageToken
	}

	imp.logger.Info("calendar sync complete",
		"fetched", result.Fetched,
		"created", result.Created,
		"updated", result.Updated,
		"removed", result.Removed,
		"skipped", result.SkippedTotal(),
	)
	return result, nil
}

func isTokenExpired(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusGone
}

func (imp *CalendarImporter) matcher(ctx context.Context) (*ContactMatcher, error) {
	contacts, err := imp.repo.ListContacts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load contacts: %w", err)
	}
	return NewContactMatcher(contacts), nil
}

// apply folds one event into the activity table.
func (imp *CalendarImporter) apply(ctx context.Context, event *calendar.Event, matcher *ContactMatcher, result *ImportResult) error {
	var existing *uuid.UUID
	if event != nil && event.Id != "" {
		entityID, err := imp.repo.SyncLogEntity(ctx, CalendarService, event.Id)
		if err != nil {
			return err
		}
		if id, err := uuid.Parse(entityID); err == nil {
			existing = &id
		}
	}

	reason := shouldSkipEvent(event)
	if reason != "" {
		if existing != nil && (reason == skipCancelled || reason == skipDeclined) {
			if err := imp.repo.DeleteActivity(ctx, *existing); err != nil {
				return err
			}
			result.Removed++
			return nil
		}
		result.Skipped[reason]++
		return nil
	}

	start, end, err := eventTimes(event)
	if err != nil {
		imp.logger.Warn("skipping event with unreadable time", "event", event.Id, "error", err)
		result.Skipped[skipNoStart]++
		return nil
	}
	now := imp.now()
	contacts := attendeeContacts(event, matcher)

	if existing != nil {
		title := eventTitle(event)
		err := imp.repo.UpdateActivity(ctx, *existing, models.ActivityPatch{Title: &title, DueAt: &start})
		if errors.Is(err, db.ErrActivityNotFound) {
			// Deleted locally; leave it deleted.
			return nil
		}
		if err != nil {
			return err
		}
		result.Updated++
	} else {
		activity := &models.Activity{
			Type:        models.ActivityMeeting,
			Title:       eventTitle(event),
			Description: eventDescription(event),
			DueAt:       start,
			Completed:   end.Before(now),
		}
		if len(contacts) > 0 {
			activity.ContactID = &contacts[0].ID
		}
		if err := imp.repo.CreateActivity(ctx, activity); err != nil {
			return err
		}

		meta, _ := json.Marshal(map[string]string{"summary": event.Summary, "start": start.Format(time.RFC3339)})
		if err := imp.repo.CreateSyncLog(ctx, CalendarService, event.Id, entityActivity, activity.ID.String(), string(meta)); err != nil {
			return err
		}
		result.Created++
	}

	// A meeting that already happened counts as contact with everyone in it.
	if end.Before(now) {
		for _, c := range contacts {
			if err := imp.repo.TouchContact(ctx, c.ID, end); err != nil {
				return err
			}
			result.Touched++
		}
	}
	return nil
}

func eventTimes(event *calendar.Event) (time.Time, time.Time, error) {
	start, err := time.Parse(time.RFC3339, event.Start.DateTime)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("bad start time: %w", err)
	}
	end := start
	if event.End != nil && event.End.DateTime != "" {
		if end, err = time.Parse(time.RFC3339, event.End.DateTime); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("bad end time: %w", err)
		}
	}
	return start.UTC(), end.UTC(), nil
}

func eventTitle(event *calendar.Event) string {
	if s := strings.TrimSpace(event.Summary); s != "" {
		return s
	}
	return "(no title)"
}

func eventDescription(event *calendar.Event) string {
	var parts []string
	var names []string
	for _, a := range event.Attendees {
		if a.Self || a.Resource {
			continue
		}
		if a.DisplayName != "" {
			names = append(names, a.DisplayName)
		} else {
			names = append(names, a.Email)
		}
	}
	if len(names) > 0 {
		parts = append(parts, "With: "+strings.Join(names, ", "))
	}
	if event.Location != "" {
		parts = append(parts, "Where: "+event.Location)
	}
	return strings.Join(parts, "\n")
}

// attendeeContacts returns the known contacts among the other attendees.
func attendeeContacts(event *calendar.Event, matcher *ContactMatcher) []models.Contact {
	var out []models.Contact
	for _, a := range event.Attendees {
		if a.Self {
			continue
		}
		if c, ok := matcher.FindMatch(a.Email); ok {
			out = append(out, *c)
		}
	}
	return out
}
