// ABOUTME: In-memory collaborator used by dispatcher and session tests
// ABOUTME: Implements Sources, SuppressionStore, ActivityWriter, and DealWriter with failure injection
package focus

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/focus/models"
)

var errBackend = errors.New("backend unavailable")

type fakeBackend struct {
	mu           sync.Mutex
	activities   []models.Activity
	deals        []models.DealView
	contacts     []models.Contact
	interactions []models.InteractionRecord

	failReads  bool
	failWrites bool
	calls      []string
}

func (f *fakeBackend) log(call string) {
	f.calls = append(f.calls, call)
}

func (f *fakeBackend) ListActivities(context.Context) ([]models.Activity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failReads {
		return nil, errBackend
	}
	return slices.Clone(f.activities), nil
}

func (f *fakeBackend) ListDealViews(context.Context) ([]models.DealView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failReads {
		return nil, errBackend
	}
	return slices.Clone(f.deals), nil
}

func (f *fakeBackend) ListContacts(context.Context) ([]models.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failReads {
		return nil, errBackend
	}
	return slices.Clone(f.contacts), nil
}

func (f *fakeBackend) RecordInteraction(_ context.Context, r models.InteractionRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.log("record_interaction")
	if f.failWrites {
		return errBackend
	}
	f.interactions = append(f.interactions, r)
	return nil
}

func (f *fakeBackend) ActiveSuppressions(_ context.Context, operatorID string, now time.Time) ([]models.InteractionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failReads {
		return nil, errBackend
	}
	var out []models.InteractionRecord
	for _, r := range f.interactions {
		if r.OperatorID == operatorID && r.Suppresses(now) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeBackend) CreateActivity(_ context.Context, a *models.Activity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.log("create_activity")
	if f.failWrites {
		return errBackend
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	f.activities = append(f.activities, *a)
	return nil
}

func (f *fakeBackend) UpdateActivity(_ context.Context, id uuid.UUID, patch models.ActivityPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.log("update_activity")
	if f.failWrites {
		return errBackend
	}
	for i := range f.activities {
		if f.activities[i].ID == id {
			f.activities[i] = patch.Apply(f.activities[i])
			return nil
		}
	}
	return errors.New("activity not found")
}

func (f *fakeBackend) DeleteActivity(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.log("delete_activity")
	if f.failWrites {
		return errBackend
	}
	f.activities = slices.DeleteFunc(f.activities, func(a models.Activity) bool { return a.ID == id })
	return nil
}

func (f *fakeBackend) CreateDeal(_ context.Context, d *models.Deal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.log("create_deal")
	if f.failWrites {
		return errBackend
	}
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	f.deals = append(f.deals, models.DealView{Deal: *d})
	return nil
}

func (f *fakeBackend) UpdateDeal(_ context.Context, id uuid.UUID, patch models.DealPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.log("update_deal")
	if f.failWrites {
		return errBackend
	}
	for i := range f.deals {
		if f.deals[i].ID == id {
			f.deals[i].Deal = applyDealPatch(f.deals[i].Deal, patch, testNow)
			return nil
		}
	}
	return errors.New("deal not found")
}

func (f *fakeBackend) setFailReads(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failReads = v
}

func (f *fakeBackend) setFailWrites(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failWrites = v
}

type fakeBriefer struct {
	mu      sync.Mutex
	calls   int
	summary string
	next    string
	err     error
	block   bool
}

func (b *fakeBriefer) Summarize(ctx context.Context, _ Stats) (string, error) {
	b.mu.Lock()
	b.calls++
	block := b.block
	b.mu.Unlock()
	if block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return b.summary, b.err
}

func (b *fakeBriefer) NextBestAction(context.Context, FocusItem) (string, error) {
	return b.next, b.err
}
