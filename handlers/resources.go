// ABOUTME: MCP resource handlers for exposing the focus queue and backlog data
// ABOUTME: Provides read-only JSON under focus:// and crm:// URIs
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/harperreed/focus/db"
	"github.com/harperreed/focus/focus"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ResourceURIs lists every URI ReadResource serves.
var ResourceURIs = []struct{ URI, Name, Description string }{
	{"focus://queue", "Focus queue", "The ordered focus queue with the cursor position"},
	{"focus://stats", "Backlog stats", "Counts of overdue, due-today, and suggested work"},
	{"crm://activities", "Open activities", "Every open activity ordered by due date"},
	{"crm://deals", "Deals", "Every deal with its primary contact"},
	{"crm://contacts", "Contacts", "Every contact"},
}

type ResourceHandlers struct {
	repo    *db.Repository
	session *focus.Session
}

func NewResourceHandlers(repo *db.Repository, session *focus.Session) *ResourceHandlers {
	return &ResourceHandlers{repo: repo, session: session}
}

// ReadResource handles resource read requests
func (h *ResourceHandlers) ReadResource(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI

	switch uri {
	case "focus://queue":
		return jsonResource(uri, struct {
			Cursor int              `json:"cursor"`
			Items  []focus.ItemView `json:"items"`
		}{h.session.Cursor().Index, focus.Views(h.session.Queue())})

	case "focus://stats":
		return jsonResource(uri, h.session.Stats())

	case "crm://activities":
		activities, err := h.repo.ListActivities(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch activities: %w", err)
		}
		return jsonResource(uri, activities)

	case "crm://deals":
		deals, err := h.repo.ListDealViews(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch deals: %w", err)
		}
		return jsonResource(uri, deals)

	case "crm://contacts":
		contacts, err := h.repo.ListContacts(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch contacts: %w", err)
		}
		return jsonResource(uri, contacts)
	}

	if !strings.HasPrefix(uri, "crm://") && !strings.HasPrefix(uri, "focus://") {
		return nil, fmt.Errorf("invalid URI scheme: expected crm:// or focus://")
	}
	return nil, fmt.Errorf("unknown resource: %s", uri)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}}, nil
}
