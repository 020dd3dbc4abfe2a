// ABOUTME: Interfaces for the external collaborators the engine reads from and writes to
// ABOUTME: Implemented by the sqlite repository, the charm KV store, and test fakes
package focus

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/focus/models"
)

// Sources are the read-only backlog feeds.
type Sources interface {
	ListActivities(ctx context.Context) ([]models.Activity, error)
	ListDealViews(ctx context.Context) ([]models.DealView, error)
	ListContacts(ctx context.Context) ([]models.Contact, error)
}

// InteractionRecorder persists operator decisions. Writing the same record twice is harmless.
type InteractionRecorder interface {
	RecordInteraction(ctx context.Context, record models.InteractionRecord) error
}

// SuppressionStore is the durable home of operator decisions.
type SuppressionStore interface {
	InteractionRecorder
	// ActiveSuppressions returns the records that hide a suggestion at now.
	ActiveSuppressions(ctx context.Context, operatorID string, now time.Time) ([]models.InteractionRecord, error)
}

// ActivityWriter mutates activities. CreateActivity keeps a preassigned id and fills one in otherwise.
type ActivityWriter interface {
	CreateActivity(ctx context.Context, activity *models.Activity) error
	UpdateActivity(ctx context.Context, id uuid.UUID, patch models.ActivityPatch) error
	DeleteActivity(ctx context.Context, id uuid.UUID) error
}

// DealWriter mutates deals. CreateDeal keeps a preassigned id and fills one in otherwise.
type DealWriter interface {
	CreateDeal(ctx context.Context, deal *models.Deal) error
	UpdateDeal(ctx context.Context, id uuid.UUID, patch models.DealPatch) error
}
