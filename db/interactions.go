// ABOUTME: Interaction record storage for accepted, dismissed, and snoozed suggestions
// ABOUTME: One row per operator and suggestion key; the latest decision wins
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/focus/models"
)

// RecordInteraction upserts the operator's decision. An older record never
// replaces a newer one, so replays and out-of-order writes are harmless.
func (r *Repository) RecordInteraction(ctx context.Context, rec models.InteractionRecord) error {
	if rec.OperatorID == "" || rec.EntityID == uuid.Nil {
		return fmt.Errorf("%w: interaction needs an operator and an entity", ErrInvalidRecord)
	}
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = r.now()
	}

	var snoozed any
	if rec.SnoozedUntil != nil {
		snoozed = rec.SnoozedUntil.UnixNano()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO interaction_records (operator_id, suggestion_type, entity_type, entity_id, action, snoozed_until, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(operator_id, suggestion_type, entity_id) DO UPDATE SET
			entity_type = excluded.entity_type,
			action = excluded.action,
			snoozed_until = excluded.snoozed_until,
			recorded_at = excluded.recorded_at
		WHERE excluded.recorded_at >= interaction_records.recorded_at
	`,
		rec.OperatorID,
		string(rec.SuggestionType),
		string(rec.EntityType),
		rec.EntityID.String(),
		string(rec.Action),
		snoozed,
		rec.RecordedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to record interaction: %w", err)
	}
	return nil
}

// ListInteractions returns every stored decision for operatorID, newest first.
func (r *Repository) ListInteractions(ctx context.Context, operatorID string) ([]models.InteractionRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT operator_id, suggestion_type, entity_type, entity_id, action, snoozed_until, recorded_at
		FROM interaction_records
		WHERE operator_id = ?
		ORDER BY recorded_at DESC
	`, operatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to query interactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []models.InteractionRecord
	for rows.Next() {
		var (
			rec                  models.InteractionRecord
			typ, ent, id, action string
			snoozed              *int64
			recorded             int64
		)
		if err := rows.Scan(&rec.OperatorID, &typ, &ent, &id, &action, &snoozed, &recorded); err != nil {
			return nil, fmt.Errorf("failed to scan interaction: %w", err)
		}
		rec.SuggestionType = models.SuggestionType(typ)
		rec.EntityType = models.EntityType(ent)
		rec.Action = models.InteractionAction(action)
		rec.EntityID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("bad interaction entity id %q: %w", id, err)
		}
		if snoozed != nil {
			until := time.Unix(0, *snoozed).UTC()
			rec.SnoozedUntil = &until
		}
		rec.RecordedAt = time.Unix(0, recorded).UTC()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating interactions: %w", err)
	}
	return records, nil
}

// ActiveSuppressions returns the decisions that hide a suggestion at now.
func (r *Repository) ActiveSuppressions(ctx context.Context, operatorID string, now time.Time) ([]models.InteractionRecord, error) {
	all, err := r.ListInteractions(ctx, operatorID)
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

// ClearInteractions forgets every decision for operatorID and returns how many were removed.
func (r *Repository) ClearInteractions(ctx context.Context, operatorID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM interaction_records WHERE operator_id = ?`, operatorID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear interactions: %w", err)
	}
	return res.RowsAffected()
}
