// ABOUTME: Wires config, storage, the suppression backend, and the briefer into a focus session
// ABOUTME: Shared by every command so the CLI, TUI, MCP, and web surfaces see the same engine
package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/harperreed/focus/briefing"
	"github.com/harperreed/focus/charm"
	"github.com/harperreed/focus/config"
	"github.com/harperreed/focus/db"
	"github.com/harperreed/focus/focus"
	"github.com/harperreed/focus/handlers"
	"github.com/harperreed/focus/logging"
)

// App holds the wired dependencies of one pagen process.
type App struct {
	Config   *config.Config
	Repo     *db.Repository
	Session  *focus.Session
	Registry *prometheus.Registry
	Logger   *slog.Logger
	Out      io.Writer

	closers []func() error
}

// Open connects everything cfg describes, logging through the logger in ctx. Close releases it.
func Open(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.From(ctx)
	database, err := db.OpenDatabase(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	repo := db.NewRepository(database)
	closers := []func() error{database.Close}

	var suppressions focus.SuppressionStore = repo
	if cfg.SuppressionBackend == config.BackendCharm {
		client, err := charm.GetClient()
		if err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("failed to open charm store: %w", err)
		}
		suppressions = charm.NewSuppressionStore(client)
		closers = append(closers, client.Close)
		logger.Debug("suppressions stored in charm", "local", client.IsLocal())
	}

	var briefer focus.Briefer
	if cfg.HasBriefer() {
		briefer = briefing.NewClaude(cfg.AnthropicAPIKey, cfg.BriefingModel, logger)
	}

	app := newApp(cfg, repo, suppressions, briefer, logger)
	app.closers = closers
	return app, nil
}

func newApp(cfg *config.Config, repo *db.Repository, suppressions focus.SuppressionStore, briefer focus.Briefer, logger *slog.Logger) *App {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := focus.NewMetrics(reg)

	session := focus.NewSession(focus.SessionConfig{
		Sources:         repo,
		Suppressions:    suppressions,
		Dispatcher:      focus.NewDispatcher(repo, repo, suppressions, cfg.OperatorID, cfg.SnoozeDays),
		Briefer:         briefer,
		OperatorID:      cfg.OperatorID,
		BriefingTimeout: cfg.BriefingTimeout.Std(),
		Logger:          logger,
		Hooks:           metrics.Hooks(),
	})

	return &App{
		Config:   cfg,
		Repo:     repo,
		Session:  session,
		Registry: reg,
		Logger:   logger,
		Out:      os.Stdout,
	}
}

// DB exposes the raw connection for maintenance commands.
func (a *App) DB() *sql.DB { return a.Repo.DB() }

// CRM returns the record handlers shared with the MCP surface.
func (a *App) CRM() *handlers.CRMHandlers {
	return handlers.NewCRMHandlers(a.Repo, a.Session, a.Logger)
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
