// ABOUTME: Suppression store on charm KV so snooze and dismiss decisions follow the operator across devices
// ABOUTME: One JSON record per operator and suggestion key; older decisions never overwrite newer ones

package charm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/focus/focus"
	"github.com/harperreed/focus/models"
)

const suppressionPrefix = "suppression/"

var _ focus.SuppressionStore = (*SuppressionStore)(nil)

// SuppressionStore persists interaction records in the KV store.
type SuppressionStore struct {
	client *Client
	mu     sync.Mutex
}

func NewSuppressionStore(client *Client) *SuppressionStore {
	return &SuppressionStore{client: client}
}

func operatorPrefix(operatorID string) string {
	return suppressionPrefix + operatorID + "/"
}

func suppressionKey(rec models.InteractionRecord) []byte {
	return []byte(operatorPrefix(rec.OperatorID) + string(rec.SuggestionType) + "/" + rec.EntityID.String())
}

// RecordInteraction stores rec unless a newer decision for the same key exists.
func (s *SuppressionStore) RecordInteraction(ctx context.Context, rec models.InteractionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rec.OperatorID == "" || strings.Contains(rec.OperatorID, "/") || rec.EntityID == uuid.Nil {
		return fmt.Errorf("invalid interaction record for operator %q", rec.OperatorID)
	}
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now().UTC()
	}

	key := suppressionKey(rec)

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.load(key)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	if existing != nil && existing.RecordedAt.After(rec.RecordedAt) {
		return nil
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode interaction: %w", err)
	}
	if err := s.client.Set(key, data); err != nil {
		return fmt.Errorf("failed to store interaction: %w", err)
	}
	return nil
}

// ListInteractions returns every stored decision for operatorID.
func (s *SuppressionStore) ListInteractions(ctx context.Context, operatorID string) ([]models.InteractionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	keys, err := s.client.KeysWithPrefix([]byte(operatorPrefix(operatorID)))
	if err != nil {
		return nil, fmt.Errorf("failed to list suppression keys: %w", err)
	}

	records := make([]models.InteractionRecord, 0, len(keys))
	for _, key := range keys {
		rec, err := s.load(key)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, nil
}

// ActiveSuppressions returns the decisions that hide a suggestion at now.
func (s *SuppressionStore) ActiveSuppressions(ctx context.Context, operatorID string, now time.Time) ([]models.InteractionRecord, error) {
	all, err := s.ListInteractions(ctx, operatorID)
	if err != nil {
		return nil, err
	}
	active := all[:0]
	for _, rec := range all {
		if rec.Suppresses(now) {
			active = append(active, rec)
		}
	}
	return active, nil
}

// PruneExpired deletes snoozes that ended before now and returns how many were removed.
func (s *SuppressionStore) PruneExpired(ctx context.Context, operatorID string, now time.Time) (int, error) {
	all, err := s.ListInteractions(ctx, operatorID)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, rec := range all {
		if rec.Action != models.InteractionSnoozed || rec.Suppresses(now) {
			continue
		}
		if err := s.client.Delete(suppressionKey(rec)); err != nil {
			return removed, fmt.Errorf("failed to prune suppression: %w", err)
		}
		removed++
	}
	return removed, nil
}

func (s *SuppressionStore) load(key []byte) (*models.InteractionRecord, error) {
	data, err := s.client.Get(key)
	if err != nil {
		return nil, err
	}
	var rec models.InteractionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("corrupt suppression record %s: %w", key, err)
	}
	return &rec, nil
}
