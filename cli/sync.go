// ABOUTME: Sync CLI commands
// ABOUTME: Google OAuth setup, calendar import, sync status, and the charm suppression store
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"sort"
	"text/tabwriter"

	"github.com/harperreed/focus/charm"
	"github.com/harperreed/focus/db"
	"github.com/harperreed/focus/sync"
)

// SyncCommand routes `pagen sync <subcommand>`. The charm subcommands need no database.
func SyncCommand(ctx context.Context, open func() (*App, error), operatorID string, args []string) error {
	if len(args) == 0 {
		return errors.New("sync requires a subcommand (init, calendar, status, charm-status, charm-now, charm-prune, charm-wipe, charm-mode)")
	}

	sub, rest := args[0], args[1:]
	switch sub {
	case "init":
		return SyncInitCommand(ctx, rest)
	case "charm-status":
		return charm.SyncStatusCommand(operatorID, rest)
	case "charm-now":
		return charm.SyncNowCommand(rest)
	case "charm-prune":
		return charm.SyncPruneCommand(operatorID, rest)
	case "charm-wipe":
		return charm.SyncWipeCommand(rest)
	case "charm-mode":
		return charm.SetModeCommand(rest)
	}

	app, err := open()
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	switch sub {
	case "calendar":
		return SyncCalendarCommand(ctx, app, rest)
	case "status":
		return SyncStatusCommand(ctx, app, rest)
	default:
		return fmt.Errorf("unknown sync command %q", sub)
	}
}

// SyncInitCommand runs the Google consent flow and stores the token.
func SyncInitCommand(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("sync init", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	token, err := sync.Authorize(ctx, sync.NewOAuthConfig(), func(url string) error {
		fmt.Println("Opening browser for Google OAuth...")
		fmt.Printf("\nIf browser doesn't open, visit this URL:\n%s\n\n", url)
		_ = openBrowser(url)
		return nil
	})
	if err != nil {
		return err
	}
	if err := sync.SaveToken(token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	fmt.Printf("\n✓ Authenticated successfully\n")
	fmt.Printf("✓ Tokens saved to %s\n\n", sync.TokenPath())
	fmt.Println("Ready to sync! Run 'pagen sync calendar' to import meetings.")
	return nil
}

// SyncCalendarCommand imports calendar meetings as activities.
func SyncCalendarCommand(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("sync calendar", flag.ContinueOnError)
	full := fs.Bool("full", false, "Ignore the sync token and re-read the lookback window")
	if err := fs.Parse(args); err != nil {
		return err
	}

	token, err := sync.LoadToken()
	if err != nil {
		return fmt.Errorf("no authentication token found, run 'pagen sync init' first: %w", err)
	}
	client, err := sync.NewCalendarClient(ctx, sync.NewOAuthConfig(), token)
	if err != nil {
		return err
	}

	result, err := sync.NewCalendarImporter(app.Repo, client, app.Logger).Import(ctx, *full)
	if err != nil {
		return fmt.Errorf("calendar sync failed: %w", err)
	}
	writeImportResult(app.Out, result)
	return nil
}

func writeImportResult(w io.Writer, r *sync.ImportResult) {
	mode := "full"
	if r.Incremental {
		mode = "incremental"
	}
	fmt.Fprintf(w, "✓ Calendar synced (%s): %d events fetched\n", mode, r.Fetched)
	fmt.Fprintf(w, "  %d new, %d updated, %d removed meeting(s)\n", r.Created, r.Updated, r.Removed)
	if r.Touched > 0 {
		fmt.Fprintf(w, "  %d contact interaction(s) recorded\n", r.Touched)
	}

	reasons := make([]string, 0, len(r.Skipped))
	for reason := range r.Skipped {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		fmt.Fprintf(w, "  skipped %d %s\n", r.Skipped[reason], reason)
	}
}

// SyncStatusCommand prints the state of every sync service.
func SyncStatusCommand(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("sync status", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	states, err := app.Repo.GetAllSyncStates(ctx)
	if err != nil {
		return err
	}
	if len(states) == 0 {
		fmt.Fprintln(app.Out, "Nothing synced yet. Run 'pagen sync init' then 'pagen sync calendar'.")
		return nil
	}

	w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SERVICE\tSTATUS\tLAST SYNC\tERROR")
	for _, s := range states {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.Service, s.Status, lastSyncText(s), deref(s.ErrorMessage))
	}
	return w.Flush()
}

func lastSyncText(s db.SyncState) string {
	if s.LastSyncTime == nil {
		return "never"
	}
	return s.LastSyncTime.Local().Format("2006-01-02 15:04")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func openBrowser(url string) error {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{url}
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start", url}
	default:
		cmd = "xdg-open"
		args = []string{url}
	}
	return exec.Command(cmd, args...).Start()
}
