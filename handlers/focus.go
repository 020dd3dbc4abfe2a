// ABOUTME: Focus MCP tool handlers
// ABOUTME: Implements focus_queue, focus_navigate, focus_action, and focus_briefing over a shared session
package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/harperreed/focus/focus"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type FocusHandlers struct {
	session *focus.Session
	logger  *slog.Logger
}

func NewFocusHandlers(session *focus.Session, logger *slog.Logger) *FocusHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &FocusHandlers{session: session, logger: logger.With("component", "mcp")}
}

type FocusQueueInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"Maximum number of items to return (default all)"`
}

type FocusQueueOutput struct {
	Items         []focus.ItemView `json:"items"`
	Cursor        int              `json:"cursor"`
	Total         int              `json:"total"`
	Stats         focus.Stats      `json:"stats"`
	PendingWrites int              `json:"pending_writes"`
	Degraded      []string         `json:"degraded,omitempty"`
}

// FocusQueue refreshes the backlog and returns the ordered queue.
func (h *FocusHandlers) FocusQueue(ctx context.Context, _ *mcp.CallToolRequest, input FocusQueueInput) (*mcp.CallToolResult, FocusQueueOutput, error) {
	degraded := focus.SourceErrors(h.session.Refresh(ctx))

	queue := h.session.Queue()
	items := focus.Views(queue)
	if input.Limit > 0 && len(items) > input.Limit {
		items = items[:input.Limit]
	}

	return nil, FocusQueueOutput{
		Items:         items,
		Cursor:        h.session.Cursor().Index,
		Total:         len(queue),
		Stats:         focus.Summarize(queue),
		PendingWrites: h.session.PendingWrites(),
		Degraded:      degraded,
	}, nil
}

type FocusNavigateInput struct {
	Direction string `json:"direction" jsonschema:"One of next, prev, skip, select (required)"`
	ID        string `json:"id,omitempty" jsonschema:"Item id to select when direction is select"`
}

type FocusPositionOutput struct {
	Cursor  int             `json:"cursor"`
	Total   int             `json:"total"`
	Current *focus.ItemView `json:"current,omitempty"`
	Notice  string          `json:"notice,omitempty"`
}

// FocusNavigate moves the cursor.
func (h *FocusHandlers) FocusNavigate(_ context.Context, _ *mcp.CallToolRequest, input FocusNavigateInput) (*mcp.CallToolResult, FocusPositionOutput, error) {
	ev, err := parseNavEvent(input.Direction, input.ID)
	if err != nil {
		return nil, FocusPositionOutput{}, err
	}
	n := h.session.Navigate(ev)

	out := h.position()
	out.Notice = n.Text
	return nil, out, nil
}

func parseNavEvent(direction, id string) (focus.NavEvent, error) {
	switch strings.ToLower(strings.TrimSpace(direction)) {
	case "next":
		return focus.Next{}, nil
	case "prev", "previous":
		return focus.Prev{}, nil
	case "skip":
		return focus.Skip{}, nil
	case "select":
		if id == "" {
			return nil, fmt.Errorf("id is required for select")
		}
		return focus.Select{ID: id}, nil
	}
	return nil, fmt.Errorf("unknown direction %q: expected next, prev, skip, or select", direction)
}

type FocusActionInput struct {
	Action string `json:"action" jsonschema:"One of done, snooze, dismiss (required)"`
	ID     string `json:"id,omitempty" jsonschema:"Item id; defaults to the item under the cursor"`
}

type FocusActionOutput struct {
	FocusPositionOutput
	Errors []string `json:"errors,omitempty"`
}

// FocusAction applies an action and waits for its writes to settle.
func (h *FocusHandlers) FocusAction(ctx context.Context, _ *mcp.CallToolRequest, input FocusActionInput) (*mcp.CallToolResult, FocusActionOutput, error) {
	action, err := focus.ParseAction(input.Action)
	if err != nil {
		return nil, FocusActionOutput{}, err
	}

	var (
		writes []focus.Write
		notice focus.Notice
	)
	if input.ID != "" {
		writes, notice, err = h.session.ActOn(input.ID, action)
	} else {
		writes, notice, err = h.session.Act(action)
	}
	if err != nil {
		return nil, FocusActionOutput{}, err
	}

	var errs []string
	for _, n := range h.session.RunWrites(ctx, writes) {
		errs = append(errs, n.Text)
	}
	if len(errs) > 0 {
		h.logger.Warn("focus action writes failed", "action", action, "failures", len(errs))
	}

	out := FocusActionOutput{FocusPositionOutput: h.position(), Errors: errs}
	out.Notice = notice.Text
	return nil, out, nil
}

type FocusBriefingInput struct {
	NextAction bool `json:"next_action,omitempty" jsonschema:"Also suggest the next step for the current item"`
}

type FocusBriefingOutput struct {
	Summary    string      `json:"summary"`
	NextAction string      `json:"next_action,omitempty"`
	Stats      focus.Stats `json:"stats"`
}

// FocusBriefing returns the once-per-session summary.
func (h *FocusHandlers) FocusBriefing(ctx context.Context, _ *mcp.CallToolRequest, input FocusBriefingInput) (*mcp.CallToolResult, FocusBriefingOutput, error) {
	if len(h.session.Queue()) == 0 {
		if err := h.session.Refresh(ctx); err != nil {
			h.logger.Warn("briefing refresh degraded", "error", err)
		}
	}

	out := FocusBriefingOutput{
		Summary: h.session.Briefing(ctx),
		Stats:   h.session.Stats(),
	}
	if input.NextAction {
		text, err := h.session.NextBestAction(ctx)
		if err == nil {
			out.NextAction = text
		}
	}
	return nil, out, nil
}

func (h *FocusHandlers) position() FocusPositionOutput {
	out := FocusPositionOutput{
		Cursor: h.session.Cursor().Index,
		Total:  len(h.session.Queue()),
	}
	if item, ok := h.session.Current(); ok {
		v := focus.NewItemView(item)
		out.Current = &v
	}
	return out
}
