// ABOUTME: Focus CLI commands
// ABOUTME: Queue table, one-shot actions, the briefing, and the interactive focus mode
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"golang.org/x/term"

	"github.com/harperreed/focus/focus"
	"github.com/harperreed/focus/models"
	"github.com/harperreed/focus/tui"
)

// FocusCommand routes `pagen focus [list|act|brief|tui]`. Without a subcommand it
// opens focus mode on a terminal and prints the queue otherwise.
func FocusCommand(ctx context.Context, app *App, args []string) error {
	if len(args) == 0 {
		if term.IsTerminal(int(os.Stdout.Fd())) {
			return FocusTUICommand(ctx, app, nil)
		}
		return FocusListCommand(ctx, app, nil)
	}

	sub, rest := args[0], args[1:]
	switch sub {
	case "list", "ls":
		return FocusListCommand(ctx, app, rest)
	case "act":
		return FocusActCommand(ctx, app, rest)
	case "brief", "briefing":
		return FocusBriefCommand(ctx, app, rest)
	case "tui":
		return FocusTUICommand(ctx, app, rest)
	default:
		return fmt.Errorf("unknown focus command %q (list, act, brief, tui)", sub)
	}
}

// refresh loads the queue, warning about degraded sources.
func refresh(ctx context.Context, app *App) {
	for _, msg := range focus.SourceErrors(app.Session.Refresh(ctx)) {
		app.Logger.Warn("showing cached data", "source_error", msg)
	}
}

// FocusListCommand prints the ranked queue.
func FocusListCommand(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("focus list", flag.ContinueOnError)
	limit := fs.Int("limit", 0, "Max items (default: all)")
	asJSON := fs.Bool("json", false, "Print JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	refresh(ctx, app)
	queue := app.Session.Queue()
	if *limit > 0 && len(queue) > *limit {
		queue = queue[:*limit]
	}

	if *asJSON {
		enc := json.NewEncoder(app.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(focus.Views(queue))
	}

	st := app.Session.Stats()
	fmt.Fprintf(app.Out, "%d overdue • %d meetings today • %d tasks today • %d suggestions (%d high)\n\n",
		st.Overdue, st.TodayMeetings, st.TodayTasks, st.Suggestions, st.HighSuggestions)

	if len(queue) == 0 {
		fmt.Fprintln(app.Out, "Inbox zero. Nothing needs you right now.")
		return nil
	}

	now := time.Now()
	w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tBAND\tTYPE\tTITLE\tWHEN/SCORE\tID")
	fmt.Fprintln(w, "-\t----\t----\t-----\t----------\t--")
	for i, item := range queue {
		var typ, detail string
		item.Match(func(a models.Activity) {
			typ = string(a.Type)
			detail = whenText(a.DueAt, now)
		}, func(s focus.Suggestion) {
			typ = string(s.Key.Type)
			detail = fmt.Sprintf("%.1f (%s)", s.Score, s.Priority)
		})
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", i+1, item.Band(), typ, truncate(item.Title(), 50), detail, item.ID())
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(app.Out, "\nShowing %d item(s)\n", len(queue))
	return nil
}

// FocusActCommand applies done, snooze, or dismiss to an item (default: the top one).
func FocusActCommand(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("focus act", flag.ContinueOnError)
	id := fs.String("id", "", "Item ID (default: top of the queue)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: pagen focus act [--id <id>] <done|snooze|dismiss>")
	}
	action, err := focus.ParseAction(fs.Arg(0))
	if err != nil {
		return err
	}

	refresh(ctx, app)

	var (
		writes []focus.Write
		notice focus.Notice
	)
	if *id != "" {
		writes, notice, err = app.Session.ActOn(*id, action)
	} else {
		writes, notice, err = app.Session.Act(action)
	}
	if err != nil {
		return err
	}

	failures := app.Session.RunWrites(ctx, writes)
	if notice.Text != "" {
		fmt.Fprintf(app.Out, "✓ %s\n", notice.Text)
	}
	if len(failures) > 0 {
		msgs := make([]string, len(failures))
		for i, n := range failures {
			msgs[i] = n.Text
		}
		return errors.New(strings.Join(msgs, "; "))
	}

	if next, ok := app.Session.Current(); ok {
		fmt.Fprintf(app.Out, "Next: %s\n", next.Title())
	} else {
		fmt.Fprintln(app.Out, "Inbox zero. Nothing needs you right now.")
	}
	return nil
}

// FocusBriefCommand prints the session briefing and a suggested next step.
func FocusBriefCommand(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("focus brief", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	refresh(ctx, app)
	fmt.Fprintln(app.Out, app.Session.Briefing(ctx))

	item, ok := app.Session.Current()
	if !ok {
		return nil
	}
	next, err := app.Session.NextBestAction(ctx)
	if err != nil {
		return nil
	}
	fmt.Fprintf(app.Out, "\nStart with: %s\n%s\n", item.Title(), next)
	return nil
}

// FocusTUICommand opens the interactive focus mode.
func FocusTUICommand(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("focus tui", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	return tui.Run(ctx, app.Session)
}

func whenText(due, now time.Time) string {
	switch days := focus.DaysOverdue(due, now); days {
	case 0:
		return due.Local().Format("15:04")
	case 1:
		return "yesterday"
	default:
		return fmt.Sprintf("%d days overdue", days)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
