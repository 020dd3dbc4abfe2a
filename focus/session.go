// ABOUTME: Session holding cached snapshots, optimistic writes, and the cursor
// ABOUTME: Rebuilds the queue synchronously on every change and guards the one-shot briefing
package focus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"
)

var (
	ErrEmptyQueue  = errors.New("focus queue is empty")
	ErrUnknownItem = errors.New("no such item in the focus queue")
)

// DefaultBriefingTimeout bounds the single briefing request.
const DefaultBriefingTimeout = 15 * time.Second

// SessionHooks are optional callbacks for instrumentation. Nil hooks are skipped.
type SessionHooks struct {
	OnRebuild     func(queue []FocusItem)
	OnAction      func(action Action, kind ItemKind)
	OnWrite       func(kind WriteKind, err error)
	OnSourceError func(source string, err error)
	OnInvariant   func(err error)
	OnBriefing    func(fallback bool, seconds float64)
}

// SessionConfig wires a Session to its collaborators.
type SessionConfig struct {
	Sources         Sources
	Suppressions    SuppressionStore
	Dispatcher      *Dispatcher
	Briefer         Briefer // optional
	OperatorID      string
	BriefingTimeout time.Duration
	Logger          *slog.Logger
	Hooks           SessionHooks
	Clock           func() time.Time
}

// Session is the single-operator focus view. All methods are safe for concurrent use;
// collaborator calls are made without holding the session lock.
type Session struct {
	cfg     SessionConfig
	logger  *slog.Logger
	now     func() time.Time
	pending *Reconciler

	mu     sync.Mutex
	snap   Snapshot
	queue  []FocusItem
	cursor Cursor

	briefOnce sync.Once
	briefing  string
}

func NewSession(cfg SessionConfig) *Session {
	if cfg.BriefingTimeout <= 0 {
		cfg.BriefingTimeout = DefaultBriefingTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}
	return &Session{
		cfg:     cfg,
		logger:  logger.With("component", "focus"),
		now:     now,
		pending: NewReconciler(),
		snap:    Snapshot{Suppressions: Suppressions{}},
	}
}

// Refresh fetches every source and rebuilds. A failing source keeps its last-known
// snapshot; the returned error lists the failures but the queue is always rebuilt.
func (s *Session) Refresh(ctx context.Context) error {
	now := s.now()
	mark := s.pending.Mark()

	var errs []error
	ok := func(source string, err error) bool {
		if err == nil {
			return true
		}
		errs = append(errs, fmt.Errorf("%s: %w", source, err))
		s.logger.Warn("backlog source unavailable, using last snapshot", "source", source, "error", err)
		if s.cfg.Hooks.OnSourceError != nil {
			s.cfg.Hooks.OnSourceError(source, err)
		}
		return false
	}

	activities, err := s.cfg.Sources.ListActivities(ctx)
	activitiesOK := ok("activities", err)
	deals, err := s.cfg.Sources.ListDealViews(ctx)
	dealsOK := ok("deals", err)
	contacts, err := s.cfg.Sources.ListContacts(ctx)
	contactsOK := ok("contacts", err)
	records, err := s.cfg.Suppressions.ActiveSuppressions(ctx, s.cfg.OperatorID, now)
	suppressionsOK := ok("suppressions", err)

	s.mu.Lock()
	defer s.mu.Unlock()

	if activitiesOK {
		s.snap.Activities = activities
	}
	if dealsOK {
		s.snap.Deals = deals
	}
	if contactsOK {
		s.snap.Contacts = contacts
	}
	if suppressionsOK {
		s.snap.Suppressions = NewSuppressions(records)
	}

	if len(errs) == 0 {
		s.pending.Refreshed(mark)
	}
	s.rebuildLocked(now)

	return errors.Join(errs...)
}

// Rebuild recomputes the queue from the cached snapshots.
func (s *Session) Rebuild() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rebuildLocked(s.now())
}

func (s *Session) rebuildLocked(now time.Time) {
	view := s.pending.Overlay(s.snap)

	suggestions, err := Synthesize(Inputs{
		Deals:        view.Deals,
		Contacts:     view.Contacts,
		Suppressions: view.Suppressions,
	}, now)
	if err != nil {
		s.logger.Error("suggestion invariant violated", "error", err)
		if s.cfg.Hooks.OnInvariant != nil {
			s.cfg.Hooks.OnInvariant(err)
		}
	}

	s.queue = Build(view.Activities, suggestions, now)
	s.cursor, _ = Reduce(s.cursor, s.queue, Rebuilt{})

	if s.cfg.Hooks.OnRebuild != nil {
		s.cfg.Hooks.OnRebuild(s.queue)
	}
}

// Queue returns a copy of the current queue.
func (s *Session) Queue() []FocusItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.queue)
}

func (s *Session) Cursor() Cursor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// Current returns the item under the cursor.
func (s *Session) Current() (FocusItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor.Current(s.queue)
}

// Stats summarizes the current queue.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Summarize(s.queue)
}

// Navigate applies a navigation event to the cursor.
func (s *Session) Navigate(ev NavEvent) Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n Notice
	s.cursor, n = Reduce(s.cursor, s.queue, ev)
	return n
}

// Act applies action to the current item: it registers the optimistic writes, adjusts
// the cursor and rebuilds. The returned writes must be run by the caller and reported
// back through Settle; navigation does not wait for them.
func (s *Session) Act(action Action) ([]Write, Notice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.actLocked(action)
}

// ActOn selects the item with id and applies action to it.
func (s *Session) ActOn(id string, action Action) ([]Write, Notice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cursor, _ = Reduce(s.cursor, s.queue, Select{ID: id})
	if item, ok := s.cursor.Current(s.queue); !ok || item.ID() != id {
		return nil, Notice{}, fmt.Errorf("%w: %s", ErrUnknownItem, id)
	}
	return s.actLocked(action)
}

func (s *Session) actLocked(action Action) ([]Write, Notice, error) {
	item, ok := s.cursor.Current(s.queue)
	if !ok {
		return nil, Notice{}, ErrEmptyQueue
	}
	if s.cfg.Dispatcher == nil {
		return nil, Notice{}, errors.New("focus session has no dispatcher")
	}

	now := s.now()
	plan := s.cfg.Dispatcher.Plan(item, action, s.cursor, len(s.queue), now)

	writes := make([]Write, 0, len(plan.Writes))
	for _, pw := range plan.Writes {
		writes = append(writes, s.pending.Begin(pw, now))
	}

	s.cursor.Index += plan.CursorDelta
	s.rebuildLocked(now)

	s.logger.Debug("focus action", "action", action, "item", plan.ItemID, "writes", len(writes))
	if s.cfg.Hooks.OnAction != nil {
		s.cfg.Hooks.OnAction(action, item.Kind())
	}
	return writes, plan.Notice, nil
}

// Settle reports the outcome of a write returned by Act. A failure is surfaced as an
// error notice; the optimistic effect is not rolled back.
func (s *Session) Settle(w Write, realID string, err error) Notice {
	if s.cfg.Hooks.OnWrite != nil {
		s.cfg.Hooks.OnWrite(w.Kind, err)
	}

	var n Notice
	if err != nil {
		s.pending.Fail(w.TempID, err)
		s.logger.Warn("focus write failed", "kind", w.Kind, "temp_id", w.TempID, "error", err)
		n = errorNotice(fmt.Sprintf("Could not %s: %v", describeWrite(w.Kind), err))
	} else {
		s.pending.Resolve(w.TempID, realID)
	}

	s.Rebuild()
	return n
}

// RunWrites runs writes one after another and settles each. It returns the error
// notices, if any.
func (s *Session) RunWrites(ctx context.Context, writes []Write) []Notice {
	var notices []Notice
	for _, w := range writes {
		realID, err := w.Run(ctx)
		if n := s.Settle(w, realID, err); n.Kind == NoticeError {
			notices = append(notices, n)
		}
	}
	return notices
}

// PendingWrites is the number of optimistic writes still overlaid on the snapshots.
func (s *Session) PendingWrites() int {
	return s.pending.Len()
}

// Briefing returns the session summary. The Briefer is asked at most once per session,
// bounded by the briefing timeout; any failure falls back to FallbackSummary and is not
// retried.
func (s *Session) Briefing(ctx context.Context) string {
	s.briefOnce.Do(func() {
		stats := s.Stats()
		start := time.Now()

		text, err := s.requestSummary(ctx, stats)
		fallback := err != nil || text == ""
		if fallback {
			if err != nil {
				s.logger.Warn("briefing unavailable, using local summary", "error", err)
			}
			text = FallbackSummary(stats)
		}
		if s.cfg.Hooks.OnBriefing != nil {
			s.cfg.Hooks.OnBriefing(fallback, time.Since(start).Seconds())
		}

		s.mu.Lock()
		s.briefing = text
		s.mu.Unlock()
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.briefing
}

func (s *Session) requestSummary(ctx context.Context, stats Stats) (string, error) {
	if s.cfg.Briefer == nil {
		return "", nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.BriefingTimeout)
	defer cancel()
	return s.cfg.Briefer.Summarize(ctx, stats)
}

// NextBestAction suggests what to do with the current item. It is best effort and
// falls back to a fixed hint per item type.
func (s *Session) NextBestAction(ctx context.Context) (string, error) {
	item, ok := s.Current()
	if !ok {
		return "", ErrEmptyQueue
	}
	if s.cfg.Briefer != nil {
		ctx, cancel := context.WithTimeout(ctx, s.cfg.BriefingTimeout)
		defer cancel()
		text, err := s.cfg.Briefer.NextBestAction(ctx, item)
		if err == nil && text != "" {
			return text, nil
		}
		if err != nil {
			s.logger.Warn("next best action unavailable, using local hint", "item", item.ID(), "error", err)
		}
	}
	return FallbackNextAction(item), nil
}

func describeWrite(kind WriteKind) string {
	switch kind {
	case WriteRecordInteraction:
		return "save your decision"
	case WriteCreateActivity:
		return "create the reminder"
	case WriteUpdateActivity:
		return "update the activity"
	case WriteDeleteActivity:
		return "delete the activity"
	case WriteCreateDeal:
		return "create the deal"
	case WriteUpdateDeal:
		return "update the deal"
	}
	return string(kind)
}
