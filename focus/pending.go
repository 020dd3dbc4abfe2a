// ABOUTME: Reconciliation map for optimistic writes keyed by temporary id
// ABOUTME: Overlays in-flight creations, patches, and suppressions onto snapshots
package focus

import (
	"context"
	"crypto/rand"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/focus/models"
	"github.com/oklog/ulid/v2"
)

// WriteKind names the collaborator call a pending write performs.
type WriteKind string

const (
	WriteRecordInteraction WriteKind = "record_interaction"
	WriteCreateActivity    WriteKind = "create_activity"
	WriteUpdateActivity    WriteKind = "update_activity"
	WriteDeleteActivity    WriteKind = "delete_activity"
	WriteCreateDeal        WriteKind = "create_deal"
	WriteUpdateDeal        WriteKind = "update_deal"
)

// WriteState tracks a pending write through its lifecycle.
type WriteState int

const (
	WriteInFlight WriteState = iota
	WriteResolved
	WriteFailed
)

// PendingWrite is one optimistic mutation. Exactly one payload group is set, matching Kind.
type PendingWrite struct {
	TempID string
	Kind   WriteKind
	State  WriteState
	RealID string
	Err    error

	settledSeq uint64

	Interaction *models.InteractionRecord

	Activity      *models.Activity
	ActivityID    uuid.UUID
	ActivityPatch *models.ActivityPatch

	Deal      *models.Deal
	DealID    uuid.UUID
	DealPatch *models.DealPatch

	// At is when the write was planned; a deal touch moves updated_at here.
	At time.Time

	run func(ctx context.Context) (string, error)
}

// Write is the handle a caller executes against the collaborators.
type Write struct {
	TempID string
	Kind   WriteKind
	run    func(ctx context.Context) (string, error)
}

// Run performs the collaborator call and returns the real id of anything created.
func (w Write) Run(ctx context.Context) (string, error) {
	if w.run == nil {
		return "", nil
	}
	return w.run(ctx)
}

// Snapshot is the set of backlog records a rebuild works from.
type Snapshot struct {
	Activities   []models.Activity
	Deals        []models.DealView
	Contacts     []models.Contact
	Suppressions Suppressions
}

// Reconciler holds optimistic writes until an authoritative refresh supersedes them.
type Reconciler struct {
	mu      sync.Mutex
	writes  map[string]*PendingWrite
	order   []string
	entropy io.Reader
	seq     uint64
}

func NewReconciler() *Reconciler {
	return &Reconciler{
		writes:  make(map[string]*PendingWrite),
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// Begin registers pw under a fresh temporary id and returns the handle to run it.
func (r *Reconciler) Begin(pw *PendingWrite, now time.Time) Write {
	r.mu.Lock()
	defer r.mu.Unlock()

	pw.TempID = ulid.MustNew(ulid.Timestamp(now), r.entropy).String()
	pw.State = WriteInFlight
	r.writes[pw.TempID] = pw
	r.order = append(r.order, pw.TempID)

	return Write{TempID: pw.TempID, Kind: pw.Kind, run: pw.run}
}

// Resolve marks a write as acknowledged, remembering the real id of a created record.
func (r *Reconciler) Resolve(tempID, realID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if pw, ok := r.writes[tempID]; ok {
		pw.State = WriteResolved
		pw.RealID = realID
		r.seq++
		pw.settledSeq = r.seq
	}
}

// Fail marks a write as rejected. Its optimistic effect stays until the next refresh.
func (r *Reconciler) Fail(tempID string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if pw, ok := r.writes[tempID]; ok {
		pw.State = WriteFailed
		pw.Err = err
		r.seq++
		pw.settledSeq = r.seq
	}
}

// Get returns a copy of the pending write registered under tempID.
func (r *Reconciler) Get(tempID string) (PendingWrite, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pw, ok := r.writes[tempID]
	if !ok {
		return PendingWrite{}, false
	}
	return *pw, true
}

// InFlight returns the number of writes not yet settled.
func (r *Reconciler) InFlight() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, pw := range r.writes {
		if pw.State == WriteInFlight {
			n++
		}
	}
	return n
}

// Len returns the number of writes still overlaid.
func (r *Reconciler) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.writes)
}

// Mark returns a token identifying the writes settled so far. Take it before
// fetching an authoritative snapshot and pass it to Refreshed afterwards.
func (r *Reconciler) Mark() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seq
}

// Refreshed drops every write that settled before mark was taken: a snapshot fetched
// after a write settled already reflects it, or reflects its failure. Writes still in
// flight or settled during the fetch stay overlaid.
func (r *Reconciler) Refreshed(mark uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.order[:0]
	for _, id := range r.order {
		pw := r.writes[id]
		if pw.State == WriteInFlight || pw.settledSeq > mark {
			kept = append(kept, id)
			continue
		}
		delete(r.writes, id)
	}
	r.order = kept
}

// Overlay returns snap with every registered write applied in registration order.
// The input snapshot is not modified. Applying a write the snapshot already
// reflects is a no-op.
func (r *Reconciler) Overlay(snap Snapshot) Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := Snapshot{
		Activities:   slices.Clone(snap.Activities),
		Deals:        slices.Clone(snap.Deals),
		Contacts:     snap.Contacts,
		Suppressions: snap.Suppressions.Clone(),
	}

	for _, id := range r.order {
		pw := r.writes[id]
		switch pw.Kind {
		case WriteRecordInteraction:
			out.Suppressions.Add(*pw.Interaction)
		case WriteCreateActivity:
			a := *pw.Activity
			if pw.RealID != "" {
				if id, err := uuid.Parse(pw.RealID); err == nil {
					a.ID = id
				}
			}
			if !slices.ContainsFunc(out.Activities, func(x models.Activity) bool { return x.ID == a.ID }) {
				out.Activities = append(out.Activities, a)
			}
		case WriteUpdateActivity:
			for i := range out.Activities {
				if out.Activities[i].ID == pw.ActivityID {
					out.Activities[i] = pw.ActivityPatch.Apply(out.Activities[i])
				}
			}
		case WriteDeleteActivity:
			out.Activities = slices.DeleteFunc(out.Activities, func(x models.Activity) bool { return x.ID == pw.ActivityID })
		case WriteCreateDeal:
			d := *pw.Deal
			if pw.RealID != "" {
				if id, err := uuid.Parse(pw.RealID); err == nil {
					d.ID = id
				}
			}
			if !slices.ContainsFunc(out.Deals, func(x models.DealView) bool { return x.ID == d.ID }) {
				out.Deals = append(out.Deals, models.DealView{Deal: d})
			}
		case WriteUpdateDeal:
			for i := range out.Deals {
				if out.Deals[i].ID == pw.DealID {
					out.Deals[i].Deal = applyDealPatch(out.Deals[i].Deal, *pw.DealPatch, pw.At)
				}
			}
		}
	}
	return out
}

func applyDealPatch(d models.Deal, p models.DealPatch, at time.Time) models.Deal {
	if p.Title != nil {
		d.Title = *p.Title
	}
	if p.Value != nil {
		d.Value = *p.Value
	}
	if p.Probability != nil {
		prob := *p.Probability
		d.Probability = &prob
	}
	if p.Stage != nil {
		d.Stage = *p.Stage
	}
	if p.Touch && at.After(d.UpdatedAt) {
		d.UpdatedAt = at
	}
	return d
}
