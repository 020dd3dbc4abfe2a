// ABOUTME: Google Calendar event listing behind a small interface
// ABOUTME: Builds the authenticated Calendar service and pages primary-calendar events
package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

const maxResults = 250 // Google Calendar API max per page

// EventQuery selects one page of events. A SyncToken takes precedence over TimeMin.
type EventQuery struct {
	SyncToken string
	PageToken string
	TimeMin   time.Time
}

// EventLister lists events on the operator's primary calendar.
type EventLister interface {
	ListEvents(ctx context.Context, q EventQuery) (*calendar.Events, error)
}

// GoogleCalendar lists events through the Calendar API.
type GoogleCalendar struct {
	svc *calendar.Service
}

// NewCalendarClient creates a Calendar client from an OAuth token. Refreshed tokens
// are written back to TokenPath.
func NewCalendarClient(ctx context.Context, cfg *oauth2.Config, token *oauth2.Token) (*GoogleCalendar, error) {
	if token == nil {
		return nil, errors.New("token cannot be nil")
	}

	src := newSavingTokenSource(cfg.TokenSource(ctx, token), TokenPath(), token)
	svc, err := calendar.NewService(ctx, option.WithHTTPClient(oauth2.NewClient(ctx, src)))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return &GoogleCalendar{svc: svc}, nil
}

func (g *GoogleCalendar) ListEvents(ctx context.Context, q EventQuery) (*calendar.Events, error) {
	call := g.svc.Events.List("primary").
		Context(ctx).
		MaxResults(maxResults).
		SingleEvents(true)

	if q.SyncToken != "" {
		call = call.SyncToken(q.SyncToken)
	} else {
		call = call.TimeMin(q.TimeMin.Format(time.RFC3339)).ShowDeleted(true)
	}
	if q.PageToken != "" {
		call = call.PageToken(q.PageToken)
	}
	return call.Do()
}
