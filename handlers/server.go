// ABOUTME: Builds the MCP server with focus and CRM tools, resources, and prompts
// ABOUTME: Shared by the stdio subcommand and tests
package handlers

import (
	"log/slog"

	"github.com/harperreed/focus/db"
	"github.com/harperreed/focus/focus"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// NewServer registers every tool, resource, and prompt on a new MCP server.
func NewServer(repo *db.Repository, session *focus.Session, version string, logger *slog.Logger) *mcp.Server {
	focusHandlers := NewFocusHandlers(session, logger)
	crmHandlers := NewCRMHandlers(repo, session, logger)
	resourceHandlers := NewResourceHandlers(repo, session)
	promptHandlers := NewPromptHandlers(session)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "pagen-focus",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "focus_queue",
		Description: "Refresh and return the prioritized focus queue: overdue work, high-priority suggestions, today's meetings and tasks, then other suggestions",
	}, focusHandlers.FocusQueue)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "focus_navigate",
		Description: "Move the focus cursor: next, prev, skip, or select an item by id",
	}, focusHandlers.FocusNavigate)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "focus_action",
		Description: "Mark the current (or given) item done, snooze it, or dismiss it",
	}, focusHandlers.FocusAction)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "focus_briefing",
		Description: "Short natural language summary of the backlog, optionally with a next step for the current item",
	}, focusHandlers.FocusBriefing)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_activity",
		Description: "Schedule a call, meeting, email, or task",
	}, crmHandlers.AddActivity)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_activities",
		Description: "List activities, optionally filtered by contact or deal",
	}, crmHandlers.ListActivities)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_contact",
		Description: "Add a new contact to the CRM",
	}, crmHandlers.AddContact)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "log_contact_interaction",
		Description: "Record that a contact was reached and update the last contacted timestamp",
	}, crmHandlers.LogContactInteraction)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_deal",
		Description: "Create a new deal with value, stage, and win probability",
	}, crmHandlers.CreateDeal)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_deal",
		Description: "Update a deal's title, value, probability, or stage",
	}, crmHandlers.UpdateDeal)

	for _, r := range ResourceURIs {
		server.AddResource(&mcp.Resource{
			URI:         r.URI,
			Name:        r.Name,
			Description: r.Description,
			MIMEType:    "application/json",
		}, resourceHandlers.ReadResource)
	}

	server.AddPrompt(&mcp.Prompt{
		Name:        "morning-briefing",
		Description: "Summarize the focus queue and say what to tackle first",
	}, promptHandlers.GetPrompt)

	server.AddPrompt(&mcp.Prompt{
		Name:        "next-step",
		Description: "Suggest the next step for the current or given queue item",
		Arguments: []*mcp.PromptArgument{
			{Name: "id", Description: "Queue item id (defaults to the current item)"},
		},
	}, promptHandlers.GetPrompt)

	return server
}
