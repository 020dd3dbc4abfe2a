// ABOUTME: Activity MCP tool handlers
// ABOUTME: Implements add_activity and list_activities, refreshing the focus queue after writes
package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/focus/db"
	"github.com/harperreed/focus/focus"
	"github.com/harperreed/focus/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// CRMHandlers writes backlog records. When a session is set it is refreshed after
// every successful write so the next focus_queue call sees the change.
type CRMHandlers struct {
	repo    *db.Repository
	session *focus.Session
	logger  *slog.Logger
}

func NewCRMHandlers(repo *db.Repository, session *focus.Session, logger *slog.Logger) *CRMHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &CRMHandlers{repo: repo, session: session, logger: logger.With("component", "mcp")}
}

func (h *CRMHandlers) refresh(ctx context.Context) {
	if h.session == nil {
		return
	}
	if err := h.session.Refresh(ctx); err != nil {
		h.logger.Warn("refresh after write degraded", "error", err)
	}
}

type AddActivityInput struct {
	Type        string `json:"type" jsonschema:"Activity type: CALL, MEETING, EMAIL, TASK, NOTE, STATUS_CHANGE (required)"`
	Title       string `json:"title" jsonschema:"Activity title (required)"`
	Description string `json:"description,omitempty" jsonschema:"Notes about the activity"`
	DueAt       string `json:"due_at,omitempty" jsonschema:"Due time in RFC 3339 or YYYY-MM-DD format (default now)"`
	DealID      string `json:"deal_id,omitempty" jsonschema:"Related deal ID"`
	ContactID   string `json:"contact_id,omitempty" jsonschema:"Related contact ID"`
}

type ActivityOutput struct {
	ID          string  `json:"id"`
	Type        string  `json:"type"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	DueAt       string  `json:"due_at"`
	Completed   bool    `json:"completed"`
	DealID      *string `json:"deal_id,omitempty"`
	ContactID   *string `json:"contact_id,omitempty"`
}

func (h *CRMHandlers) AddActivity(ctx context.Context, _ *mcp.CallToolRequest, input AddActivityInput) (*mcp.CallToolResult, ActivityOutput, error) {
	if input.Title == "" {
		return nil, ActivityOutput{}, fmt.Errorf("title is required")
	}
	typ := models.ActivityType(strings.ToUpper(strings.TrimSpace(input.Type)))
	if !typ.Valid() {
		return nil, ActivityOutput{}, fmt.Errorf("invalid type %q", input.Type)
	}

	activity := &models.Activity{
		Type:        typ,
		Title:       input.Title,
		Description: input.Description,
	}
	if input.DueAt != "" {
		due, err := ParseWhen(input.DueAt)
		if err != nil {
			return nil, ActivityOutput{}, err
		}
		activity.DueAt = due
	}

	var err error
	if activity.DealID, err = parseOptionalID("deal_id", input.DealID); err != nil {
		return nil, ActivityOutput{}, err
	}
	if activity.ContactID, err = parseOptionalID("contact_id", input.ContactID); err != nil {
		return nil, ActivityOutput{}, err
	}

	if err := h.repo.CreateActivity(ctx, activity); err != nil {
		return nil, ActivityOutput{}, fmt.Errorf("failed to create activity: %w", err)
	}
	h.refresh(ctx)

	return nil, activityToOutput(activity), nil
}

type ListActivitiesInput struct {
	IncludeCompleted bool   `json:"include_completed,omitempty" jsonschema:"Include completed activities"`
	ContactID        string `json:"contact_id,omitempty" jsonschema:"Filter by contact ID"`
	DealID           string `json:"deal_id,omitempty" jsonschema:"Filter by deal ID"`
	Limit            int    `json:"limit,omitempty" jsonschema:"Maximum number of results (default 50)"`
}

type ListActivitiesOutput struct {
	Activities []ActivityOutput `json:"activities"`
}

func (h *CRMHandlers) ListActivities(ctx context.Context, _ *mcp.CallToolRequest, input ListActivitiesInput) (*mcp.CallToolResult, ListActivitiesOutput, error) {
	filter := db.ActivityFilter{IncludeCompleted: input.IncludeCompleted, Limit: input.Limit}
	if filter.Limit == 0 {
		filter.Limit = 50
	}

	var err error
	if filter.ContactID, err = parseOptionalID("contact_id", input.ContactID); err != nil {
		return nil, ListActivitiesOutput{}, err
	}
	if filter.DealID, err = parseOptionalID("deal_id", input.DealID); err != nil {
		return nil, ListActivitiesOutput{}, err
	}

	activities, err := h.repo.ListActivitiesFiltered(ctx, filter)
	if err != nil {
		return nil, ListActivitiesOutput{}, fmt.Errorf("failed to list activities: %w", err)
	}

	out := ListActivitiesOutput{Activities: make([]ActivityOutput, len(activities))}
	for i := range activities {
		out.Activities[i] = activityToOutput(&activities[i])
	}
	return nil, out, nil
}

func activityToOutput(a *models.Activity) ActivityOutput {
	return ActivityOutput{
		ID:          a.ID.String(),
		Type:        string(a.Type),
		Title:       a.Title,
		Description: a.Description,
		DueAt:       a.DueAt.UTC().Format(time.RFC3339),
		Completed:   a.Completed,
		DealID:      idString(a.DealID),
		ContactID:   idString(a.ContactID),
	}
}

// ParseWhen accepts RFC 3339 timestamps or plain dates, which mean 09:00 local time.
func ParseWhen(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if d, err := time.ParseInLocation("2006-01-02", s, time.Local); err == nil {
		return d.Add(9 * time.Hour).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("invalid time %q: use RFC 3339 or YYYY-MM-DD", s)
}

func parseOptionalID(field, s string) (*uuid.UUID, error) {
	if s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", field, err)
	}
	return &id, nil
}

func idString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}
