// ABOUTME: Activity database operations
// ABOUTME: Scheduled calls, meetings, emails, and tasks that make up the follow-up backlog
package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/harperreed/focus/models"
)

const activityColumns = `id, type, title, description, due_at, completed, deal_id, contact_id, created_at, updated_at`

// ActivityFilter narrows ListActivitiesFiltered. Zero values match everything.
type ActivityFilter struct {
	IncludeCompleted bool
	ContactID        *uuid.UUID
	DealID           *uuid.UUID
	Limit            int
}

// CreateActivity inserts activity, assigning timestamps and an id unless one is set.
func (r *Repository) CreateActivity(ctx context.Context, activity *models.Activity) error {
	if activity == nil || activity.Title == "" {
		return fmt.Errorf("%w: activity title is required", ErrInvalidRecord)
	}
	if !activity.Type.Valid() {
		return fmt.Errorf("%w: unknown activity type %q", ErrInvalidRecord, activity.Type)
	}
	if activity.ID == uuid.Nil {
		activity.ID = uuid.New()
	}
	now := r.now()
	activity.CreatedAt = now
	activity.UpdatedAt = now
	if activity.DueAt.IsZero() {
		activity.DueAt = now
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO activities (`+activityColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		activity.ID.String(),
		string(activity.Type),
		activity.Title,
		nullableString(activity.Description),
		activity.DueAt.UTC(),
		activity.Completed,
		nullableID(activity.DealID),
		nullableID(activity.ContactID),
		activity.CreatedAt,
		activity.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create activity: %w", err)
	}
	return nil
}

// GetActivity returns the activity with id or ErrActivityNotFound.
func (r *Repository) GetActivity(ctx context.Context, id uuid.UUID) (*models.Activity, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+activityColumns+` FROM activities WHERE id = ?`, id.String())
	a, err := scanActivity(row)
	if err == sql.ErrNoRows {
		return nil, ErrActivityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}
	return a, nil
}

// ListActivities returns every open activity ordered by due date.
func (r *Repository) ListActivities(ctx context.Context) ([]models.Activity, error) {
	return r.ListActivitiesFiltered(ctx, ActivityFilter{})
}

// ListActivitiesFiltered returns activities matching f ordered by due date.
func (r *Repository) ListActivitiesFiltered(ctx context.Context, f ActivityFilter) ([]models.Activity, error) {
	var (
		where []string
		args  []any
	)
	if !f.IncludeCompleted {
		where = append(where, "completed = 0")
	}
	if f.ContactID != nil {
		where = append(where, "contact_id = ?")
		args = append(args, f.ContactID.String())
	}
	if f.DealID != nil {
		where = append(where, "deal_id = ?")
		args = append(args, f.DealID.String())
	}

	query := `SELECT ` + activityColumns + ` FROM activities`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY due_at, id`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var activities []models.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activities: %w", err)
	}
	return activities, nil
}

// UpdateActivity applies patch. Completing an activity linked to a contact also
// records the contact as reached.
func (r *Repository) UpdateActivity(ctx context.Context, id uuid.UUID, patch models.ActivityPatch) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `SELECT `+activityColumns+` FROM activities WHERE id = ?`, id.String())
	current, err := scanActivity(row)
	if err == sql.ErrNoRows {
		return ErrActivityNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load activity: %w", err)
	}

	next := patch.Apply(*current)
	now := r.now()
	_, err = tx.ExecContext(ctx, `
		UPDATE activities SET title = ?, due_at = ?, completed = ?, updated_at = ? WHERE id = ?
	`, next.Title, next.DueAt.UTC(), next.Completed, now, id.String())
	if err != nil {
		return fmt.Errorf("failed to update activity: %w", err)
	}

	if next.Completed && !current.Completed && next.ContactID != nil && next.Type.IsMeeting() {
		_, err = tx.ExecContext(ctx, `
			UPDATE contacts SET last_contacted_at = ?, updated_at = ?
			WHERE id = ? AND (last_contacted_at IS NULL OR last_contacted_at < ?)
		`, now, now, next.ContactID.String(), now)
		if err != nil {
			return fmt.Errorf("failed to touch contact: %w", err)
		}
	}

	return tx.Commit()
}

// DeleteActivity removes the activity. Deleting a missing activity is not an error.
func (r *Repository) DeleteActivity(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM activities WHERE id = ?`, id.String()); err != nil {
		return fmt.Errorf("failed to delete activity: %w", err)
	}
	return nil
}

func scanActivity(row rowScanner) (*models.Activity, error) {
	var (
		a               models.Activity
		id, typ         string
		description     sql.NullString
		dealID, contact sql.NullString
	)
	err := row.Scan(&id, &typ, &a.Title, &description, &a.DueAt, &a.Completed, &dealID, &contact, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("bad activity id %q: %w", id, err)
	}
	a.Type = models.ActivityType(typ)
	a.Description = description.String
	a.DealID = parseNullableID(dealID)
	a.ContactID = parseNullableID(contact)
	return &a, nil
}
