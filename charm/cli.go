// ABOUTME: CLI commands for the charm-backed suppression store
// ABOUTME: Status with per-family suppression counts, manual sync, prune, wipe, and mode toggles

package charm

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/harperreed/focus/models"
)

// SyncStatusCommand shows charm configuration and the operator's stored decisions.
func SyncStatusCommand(operatorID string, args []string) error {
	fs := flag.NewFlagSet("sync charm-status", flag.ExitOnError)
	_ = fs.Parse(args)

	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	c, err := GetClient()
	if err != nil {
		return fmt.Errorf("failed to initialize client: %w", err)
	}
	return writeStatus(context.Background(), os.Stdout, cfg, c, operatorID, time.Now().UTC())
}

func writeStatus(ctx context.Context, w io.Writer, cfg *Config, c *Client, operatorID string, now time.Time) error {
	fmt.Fprintln(w, "Suppression Store")
	fmt.Fprintln(w, "─────────────────")
	if c.IsLocal() {
		fmt.Fprintf(w, "Mode:      offline (%s)\n", LocalDir())
	} else {
		fmt.Fprintf(w, "Mode:      charm cloud (%s)\n", cfg.Host)
		fmt.Fprintf(w, "Auto-sync: %v\n", cfg.AutoSync)
		if id, err := c.ID(); err == nil {
			fmt.Fprintf(w, "ID:        %s\n", id)
		} else {
			fmt.Fprintln(w, "Status:    not connected")
		}
	}
	fmt.Fprintf(w, "Operator:  %s\n", operatorID)

	store := NewSuppressionStore(c)
	all, err := store.ListInteractions(ctx, operatorID)
	if err != nil {
		return err
	}

	type counts struct{ active, expired int }
	byType := map[models.SuggestionType]*counts{}
	for _, rec := range all {
		n, ok := byType[rec.SuggestionType]
		if !ok {
			n = &counts{}
			byType[rec.SuggestionType] = n
		}
		if rec.Suppresses(now) {
			n.active++
		} else {
			n.expired++
		}
	}

	fmt.Fprintf(w, "Decisions: %d\n", len(all))
	types := make([]string, 0, len(byType))
	for t := range byType {
		types = append(types, string(t))
	}
	sort.Strings(types)
	for _, t := range types {
		n := byType[models.SuggestionType(t)]
		fmt.Fprintf(w, "  %-8s %d hidden, %d expired\n", t, n.active, n.expired)
	}
	return nil
}

// SyncNowCommand performs an immediate sync.
func SyncNowCommand(args []string) error {
	fs := flag.NewFlagSet("sync now", flag.ExitOnError)
	verbose := fs.Bool("verbose", false, "Show verbose output")
	_ = fs.Parse(args)

	c, err := GetClient()
	if err != nil {
		return fmt.Errorf("failed to get client: %w", err)
	}
	if c.IsLocal() {
		fmt.Println("Offline mode: nothing to sync")
		return nil
	}

	if *verbose {
		fmt.Println("Syncing with server...")
	}
	if err := c.Sync(); err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	fmt.Println("✓ Synced")
	return nil
}

// SyncPruneCommand removes snoozes that have already ended.
func SyncPruneCommand(operatorID string, args []string) error {
	fs := flag.NewFlagSet("sync prune", flag.ExitOnError)
	_ = fs.Parse(args)

	c, err := GetClient()
	if err != nil {
		return fmt.Errorf("failed to get client: %w", err)
	}
	n, err := NewSuppressionStore(c).PruneExpired(context.Background(), operatorID, time.Now().UTC())
	if err != nil {
		return err
	}
	fmt.Printf("✓ Pruned %d expired snooze(s)\n", n)
	return nil
}

// SyncWipeCommand deletes every stored decision.
func SyncWipeCommand(args []string) error {
	fs := flag.NewFlagSet("sync wipe", flag.ExitOnError)
	confirm := fs.Bool("confirm", false, "Confirm data wipe")
	_ = fs.Parse(args)

	if !*confirm {
		fmt.Println("WARNING: This will delete every dismiss and snooze decision!")
		fmt.Println()
		fmt.Println("To confirm, run:")
		fmt.Println("  pagen sync wipe --confirm")
		return nil
	}

	c, err := GetClient()
	if err != nil {
		return fmt.Errorf("failed to get client: %w", err)
	}
	if err := c.Reset(); err != nil {
		return fmt.Errorf("failed to reset KV store: %w", err)
	}

	fmt.Println("✓ All decisions wiped")
	fmt.Println("Dismissed suggestions will reappear on the next refresh.")
	return nil
}

// SetModeCommand toggles auto-sync or offline mode.
func SetModeCommand(args []string) error {
	fs := flag.NewFlagSet("sync mode", flag.ExitOnError)
	autoSync := fs.String("auto-sync", "", "on|off")
	offline := fs.String("offline", "", "on|off")
	_ = fs.Parse(args)

	if *autoSync == "" && *offline == "" {
		fmt.Println("Usage: pagen sync mode [--auto-sync on|off] [--offline on|off]")
		return nil
	}

	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if *autoSync != "" {
		on, err := parseSwitch(*autoSync)
		if err != nil {
			return err
		}
		if err := cfg.SetAutoSync(on); err != nil {
			return fmt.Errorf("failed to save auto-sync: %w", err)
		}
		fmt.Printf("✓ Auto-sync %s\n", *autoSync)
	}
	if *offline != "" {
		on, err := parseSwitch(*offline)
		if err != nil {
			return err
		}
		if err := cfg.SetOffline(on); err != nil {
			return fmt.Errorf("failed to save offline mode: %w", err)
		}
		fmt.Printf("✓ Offline mode %s\n", *offline)
	}
	return nil
}

func parseSwitch(s string) (bool, error) {
	switch s {
	case "on", "true", "yes":
		return true, nil
	case "off", "false", "no":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", s)
}
