// ABOUTME: MCP server and web server subcommands
// ABOUTME: Serve the shared focus session over stdio MCP or over HTTP
package cli

import (
	"context"
	"flag"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/focus/handlers"
	"github.com/harperreed/focus/web"
)

// MCPCommand serves focus and CRM tools on stdio until ctx is canceled.
func MCPCommand(ctx context.Context, app *App, version string) error {
	app.Logger.Info("starting MCP server", "operator", app.Config.OperatorID)

	if err := app.Session.Refresh(ctx); err != nil {
		app.Logger.Warn("initial refresh degraded", "error", err)
	}
	server := handlers.NewServer(app.Repo, app.Session, version, app.Logger)
	return server.Run(ctx, &mcp.StdioTransport{})
}

// WebCommand serves the focus page, JSON API, and metrics until ctx is canceled.
func WebCommand(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("web", flag.ContinueOnError)
	port := fs.Int("port", app.Config.WebPort, "Port to listen on")
	if err := fs.Parse(args); err != nil {
		return err
	}

	srv, err := web.NewServer(app.Session, app.Repo, app.Registry, app.Logger)
	if err != nil {
		return err
	}
	return srv.Start(ctx, *port)
}
