// ABOUTME: Entry point for the pagen focus CLI, TUI, MCP server, and web server
// ABOUTME: Loads config, sets up logging, and routes to subcommands
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/harperreed/focus/cli"
	"github.com/harperreed/focus/config"
	"github.com/harperreed/focus/logging"
)

const version = "0.2.0"

func main() {
	os.Exit(run())
}

func run() int {
	showVersion := flag.Bool("version", false, "Show version and exit")
	configPath := flag.String("config", "", "Config file (default: "+config.Path()+")")
	dbPath := flag.String("db-path", "", "Database path (overrides config)")
	operator := flag.String("operator", "", "Operator ID (overrides config)")
	logLevel := flag.String("log-level", "", "debug, info, warn, error (overrides config)")
	flag.Usage = printUsage
	flag.Parse()

	if *showVersion {
		fmt.Printf("pagen version %s\n", version)
		return 0
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		return 0
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if *operator != "" {
		cfg.OperatorID = *operator
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config:\n%v\n", err)
		return 1
	}

	logger := logging.New(cfg.LogLevel, os.Stderr)
	logging.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logging.With(ctx, logger)

	open := func() (*cli.App, error) { return cli.Open(ctx, cfg) }

	command, rest := args[0], args[1:]
	if command == "sync" {
		return exitCode(cli.SyncCommand(ctx, open, cfg.OperatorID, rest))
	}

	app, err := open()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn("failed to close", "error", err)
		}
	}()

	switch command {
	case "focus":
		err = cli.FocusCommand(ctx, app, rest)
	case "crm":
		err = cli.CRMCommand(ctx, app, rest)
	case "mcp":
		err = cli.MCPCommand(ctx, app, version)
	case "web":
		err = cli.WebCommand(ctx, app, rest)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		return 1
	}
	return exitCode(err)
}

func exitCode(err error) int {
	if err == nil || errors.Is(err, context.Canceled) {
		return 0
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return 1
}

func printUsage() {
	fmt.Printf(`pagen v%s - focus on the next thing that matters

USAGE:
  pagen [global flags] <command> [subcommand] [flags]

GLOBAL FLAGS:
  --version              Show version and exit
  --config <path>        Config file (default: %s)
  --db-path <path>       Database path
  --operator <id>        Operator ID for dismiss/snooze decisions
  --log-level <level>    debug, info, warn, error

COMMANDS:
  focus                  Open focus mode (or print the queue when not on a terminal)
  crm                    Add and list backlog records
  sync                   Calendar import and suppression store
  mcp                    Start MCP server for Claude Desktop
  web                    Start the focus web page and JSON API

FOCUS COMMANDS:
  pagen focus list       Print the ranked queue
    --limit <n>            Max items
    --json                 Print JSON
  pagen focus act [--id <id>] <done|snooze|dismiss>
                         Act on the top item, or on the item with id
  pagen focus brief      Print the briefing and a suggested first step
  pagen focus tui        Interactive focus mode

CRM COMMANDS:
  pagen crm add-activity    --type <TYPE> --title <title> [--due <when>] [--deal <id>] [--contact <id>]
  pagen crm list-activities [--all] [--contact <id>] [--deal <id>] [--limit <n>]
  pagen crm add-deal        --title <title> [--value <n>] [--stage <stage>] [--probability <0-100>]
  pagen crm add-contact     --name <name> [--email <email>] [--status <STATUS>] [--last-purchase <date>]
  pagen crm log-interaction --contact <id> | --email <email> [--date <when>]

SYNC COMMANDS:
  pagen sync init           Authenticate with Google
  pagen sync calendar       Import meetings as activities
    --full                    Re-read the lookback window
  pagen sync status         Show sync state
  pagen sync charm-status   Show the charm suppression store
  pagen sync charm-now      Sync the charm store now
  pagen sync charm-prune    Remove expired snoozes
  pagen sync charm-wipe     Delete every decision (--confirm)
  pagen sync charm-mode     --auto-sync on|off, --offline on|off

SERVERS:
  pagen mcp                 MCP server on stdio
  pagen web [--port <n>]    Web server (default port from config)

EXAMPLES:
  pagen crm add-activity --type CALL --title "Call Bob" --due 2026-03-18
  pagen focus
  pagen focus act done
  pagen web --port 8420

`, version, config.Path())
}
