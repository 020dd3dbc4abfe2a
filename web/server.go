// ABOUTME: Web server for the focus queue with an embedded HTML page and a JSON API
// ABOUTME: chi router serving the queue, actions, briefing, health, and Prometheus metrics
package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/harperreed/focus/focus"
	"github.com/harperreed/focus/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	session   *focus.Session
	store     Pinger
	gatherer  prometheus.Gatherer
	logger    *slog.Logger
	templates *template.Template
}

// NewServer builds the server. gatherer may be nil, which disables /metrics.
func NewServer(session *focus.Session, store Pinger, gatherer prometheus.Gatherer, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	tmpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &Server{
		session:   session,
		store:     store,
		gatherer:  gatherer,
		logger:    logger.With("component", "web"),
		templates: tmpl,
	}, nil
}

// Routes returns the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handlePage)
	r.Post("/focus/{id}/{action}", s.handleFormAction)

	r.Route("/api", func(r chi.Router) {
		r.Get("/focus", s.handleQueue)
		r.Post("/focus/{id}/{action}", s.handleAction)
		r.Get("/briefing", s.handleBriefing)
	})

	r.Get("/healthz", s.handleHealth)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// Start serves on port until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting web server", "url", fmt.Sprintf("http://localhost:%d", port))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down web server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		logger := s.logger.With("request_id", middleware.GetReqID(r.Context()))
		next.ServeHTTP(ww, r.WithContext(logging.With(r.Context(), logger)))
		logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"elapsed", time.Since(start),
		)
	})
}

type queueResponse struct {
	Items         []focus.ItemView `json:"items"`
	Cursor        int              `json:"cursor"`
	Current       *focus.ItemView  `json:"current,omitempty"`
	Stats         focus.Stats      `json:"stats"`
	PendingWrites int              `json:"pending_writes"`
	Degraded      []string         `json:"degraded,omitempty"`
}

func (s *Server) queueState(degraded []string) queueResponse {
	queue := s.session.Queue()
	resp := queueResponse{
		Items:         focus.Views(queue),
		Cursor:        s.session.Cursor().Index,
		Stats:         focus.Summarize(queue),
		PendingWrites: s.session.PendingWrites(),
		Degraded:      degraded,
	}
	if item, ok := s.session.Current(); ok {
		v := focus.NewItemView(item)
		resp.Current = &v
	}
	return resp
}

// handleQueue refreshes unless ?refresh=0 and returns the queue.
func (s *Server) handleQueue(w http.ResponseWriter, r *http.Request) {
	var degraded []string
	if r.URL.Query().Get("refresh") != "0" {
		degraded = focus.SourceErrors(s.session.Refresh(r.Context()))
	}
	writeJSON(w, http.StatusOK, s.queueState(degraded))
}

type actionResponse struct {
	Notice string   `json:"notice,omitempty"`
	Errors []string `json:"errors,omitempty"`
	queueResponse
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	notice, errs, status, err := s.act(r)
	if err != nil {
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, actionResponse{
		Notice:        notice,
		Errors:        errs,
		queueResponse: s.queueState(nil),
	})
}

func (s *Server) handleFormAction(w http.ResponseWriter, r *http.Request) {
	if _, _, status, err := s.act(r); err != nil {
		http.Error(w, err.Error(), status)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// act applies the action in the URL and waits for its writes.
func (s *Server) act(r *http.Request) (string, []string, int, error) {
	action, err := focus.ParseAction(chi.URLParam(r, "action"))
	if err != nil {
		return "", nil, http.StatusBadRequest, err
	}

	id := chi.URLParam(r, "id")
	writes, notice, err := s.session.ActOn(id, action)
	switch {
	case errors.Is(err, focus.ErrUnknownItem), errors.Is(err, focus.ErrEmptyQueue):
		return "", nil, http.StatusNotFound, err
	case err != nil:
		logging.From(r.Context()).Error("focus action failed", "id", id, "action", action, "error", err)
		return "", nil, http.StatusInternalServerError, err
	}

	var errs []string
	for _, n := range s.session.RunWrites(r.Context(), writes) {
		logging.From(r.Context()).Warn("focus write failed", "id", id, "action", action, "notice", n.Text)
		errs = append(errs, n.Text)
	}
	return notice.Text, errs, http.StatusOK, nil
}

func (s *Server) handleBriefing(w http.ResponseWriter, r *http.Request) {
	if len(s.session.Queue()) == 0 {
		_ = s.session.Refresh(r.Context())
	}
	resp := struct {
		Summary    string      `json:"summary"`
		NextAction string      `json:"next_action,omitempty"`
		Stats      focus.Stats `json:"stats"`
	}{
		Summary: s.session.Briefing(r.Context()),
		Stats:   s.session.Stats(),
	}
	if text, err := s.session.NextBestAction(r.Context()); err == nil {
		resp.NextAction = text
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.store != nil {
		if err := s.store.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	degraded := focus.SourceErrors(s.session.Refresh(r.Context()))
	data := map[string]interface{}{
		"Title":    "Focus",
		"State":    s.queueState(degraded),
		"Briefing": s.session.Briefing(r.Context()),
	}
	if err := s.templates.ExecuteTemplate(w, "focus.html", data); err != nil {
		logging.From(r.Context()).Error("template error", "template", "focus.html", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
