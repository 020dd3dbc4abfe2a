// ABOUTME: Database operations for sync_state and sync_log tables
// ABOUTME: Tracks sync status, tokens, and already imported external records
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// SyncState represents the sync state for a service.
type SyncState struct {
	Service       string
	LastSyncTime  *time.Time
	LastSyncToken *string
	Status        string
	ErrorMessage  *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

const syncStateColumns = `service, last_sync_time, last_sync_token, status, error_message, created_at, updated_at`

// GetSyncState retrieves the sync state for a service, or nil if it never synced.
func (r *Repository) GetSyncState(ctx context.Context, service string) (*SyncState, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+syncStateColumns+` FROM sync_state WHERE service = ?`, service)
	state, err := scanSyncState(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sync state: %w", err)
	}
	return state, nil
}

// UpdateSyncStatus updates the sync status for a service.
func (r *Repository) UpdateSyncStatus(ctx context.Context, service, status string, errorMsg *string) error {
	var errorMsgVal sql.NullString
	if errorMsg != nil {
		errorMsgVal = sql.NullString{String: *errorMsg, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sync_state (service, status, error_message, created_at, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(service) DO UPDATE SET
			status = excluded.status,
			error_message = excluded.error_message,
			updated_at = CURRENT_TIMESTAMP
	`, service, status, errorMsgVal)
	if err != nil {
		return fmt.Errorf("failed to update sync status: %w", err)
	}
	return nil
}

// UpdateSyncToken records a successful sync and its continuation token.
func (r *Repository) UpdateSyncToken(ctx context.Context, service, token string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sync_state (service, last_sync_time, last_sync_token, status, created_at, updated_at)
		VALUES (?, CURRENT_TIMESTAMP, ?, 'idle', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(service) DO UPDATE SET
			last_sync_time = CURRENT_TIMESTAMP,
			last_sync_token = excluded.last_sync_token,
			status = 'idle',
			error_message = NULL,
			updated_at = CURRENT_TIMESTAMP
	`, service, token)
	if err != nil {
		return fmt.Errorf("failed to update sync token: %w", err)
	}
	return nil
}

// SyncLogExists reports whether the external record was already imported.
func (r *Repository) SyncLogExists(ctx context.Context, sourceService, sourceID string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM sync_log WHERE source_service = ? AND source_id = ?
	`, sourceService, sourceID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check sync log: %w", err)
	}
	return count > 0, nil
}

// SyncLogEntity returns the entity an external record was imported as, or "" if it never was.
func (r *Repository) SyncLogEntity(ctx context.Context, sourceService, sourceID string) (string, error) {
	var entityID string
	err := r.db.QueryRowContext(ctx, `
		SELECT entity_id FROM sync_log WHERE source_service = ? AND source_id = ?
	`, sourceService, sourceID).Scan(&entityID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up sync log: %w", err)
	}
	return entityID, nil
}

// CreateSyncLog remembers that an external record became entityID.
func (r *Repository) CreateSyncLog(ctx context.Context, sourceService, sourceID, entityType, entityID, metadata string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sync_log (id, source_service, source_id, entity_type, entity_id, imported_at, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, ulid.Make().String(), sourceService, sourceID, entityType, entityID, r.now(), metadata)
	if err != nil {
		return fmt.Errorf("failed to create sync log: %w", err)
	}
	return nil
}

// GetAllSyncStates retrieves the sync state for all services.
func (r *Repository) GetAllSyncStates(ctx context.Context) ([]SyncState, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+syncStateColumns+` FROM sync_state ORDER BY service`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync states: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var states []SyncState
	for rows.Next() {
		state, err := scanSyncState(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync state: %w", err)
		}
		states = append(states, *state)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sync states: %w", err)
	}
	return states, nil
}

func scanSyncState(row rowScanner) (*SyncState, error) {
	var (
		state         SyncState
		lastSyncTime  sql.NullTime
		lastSyncToken sql.NullString
		errorMessage  sql.NullString
	)
	err := row.Scan(
		&state.Service,
		&lastSyncTime,
		&lastSyncToken,
		&state.Status,
		&errorMessage,
		&state.CreatedAt,
		&state.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	state.LastSyncTime = parseNullableTime(lastSyncTime)
	if lastSyncToken.Valid {
		state.LastSyncToken = &lastSyncToken.String
	}
	if errorMessage.Valid {
		state.ErrorMessage = &errorMessage.String
	}
	return &state, nil
}
