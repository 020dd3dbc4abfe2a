// ABOUTME: MCP prompt handlers for focus workflows
// ABOUTME: Offers a morning-briefing prompt and a next-step prompt for the current item
package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/focus/briefing"
	"github.com/harperreed/focus/focus"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type PromptHandlers struct {
	session *focus.Session
}

func NewPromptHandlers(session *focus.Session) *PromptHandlers {
	return &PromptHandlers{session: session}
}

// GetPrompt generates the prompt message based on the template
func (h *PromptHandlers) GetPrompt(ctx context.Context, request *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	switch request.Params.Name {
	case "morning-briefing":
		return h.getMorningBriefingPrompt(ctx)
	case "next-step":
		return h.getNextStepPrompt(request.Params.Arguments)
	default:
		return nil, fmt.Errorf("unknown prompt: %s", request.Params.Name)
	}
}

func (h *PromptHandlers) getMorningBriefingPrompt(ctx context.Context) (*mcp.GetPromptResult, error) {
	if len(h.session.Queue()) == 0 {
		_ = h.session.Refresh(ctx)
	}
	queue := h.session.Queue()

	var promptText strings.Builder
	promptText.WriteString(briefing.SummaryPrompt(focus.Summarize(queue)))
	if len(queue) > 0 {
		promptText.WriteString("\n\nTop of the queue:\n")
		for i, item := range queue {
			if i == 5 {
				break
			}
			promptText.WriteString(fmt.Sprintf("  %d. %s (%s)\n", i+1, item.Title(), item.Band()))
		}
	}

	return &mcp.GetPromptResult{
		Description: "Morning briefing over the focus queue",
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: promptText.String()},
			},
		},
	}, nil
}

func (h *PromptHandlers) getNextStepPrompt(args map[string]string) (*mcp.GetPromptResult, error) {
	item, ok := h.session.Current()
	if id := args["id"]; id != "" {
		ok = false
		for _, candidate := range h.session.Queue() {
			if candidate.ID() == id {
				item, ok = candidate, true
				break
			}
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s", focus.ErrUnknownItem, id)
		}
	}
	if !ok {
		return nil, focus.ErrEmptyQueue
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Next step for: %s", item.Title()),
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: briefing.NextActionPrompt(item, time.Now())},
			},
		},
	}, nil
}
