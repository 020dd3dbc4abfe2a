// ABOUTME: Repository over the CRM tables used as the focus engine's backlog and suppression store
// ABOUTME: Shared errors and scan helpers for nullable ids and times
package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/focus/focus"
)

var (
	ErrActivityNotFound = errors.New("activity not found")
	ErrDealNotFound     = errors.New("deal not found")
	ErrContactNotFound  = errors.New("contact not found")
	ErrInvalidRecord    = errors.New("invalid record")
)

var (
	_ focus.Sources          = (*Repository)(nil)
	_ focus.SuppressionStore = (*Repository)(nil)
	_ focus.ActivityWriter   = (*Repository)(nil)
	_ focus.DealWriter       = (*Repository)(nil)
)

// Repository provides context-aware CRUD over activities, deals, contacts,
// interaction records, and sync bookkeeping.
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

// NewRepository creates a repository on an open database.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// DB exposes the underlying handle for callers that manage their own queries.
func (r *Repository) DB() *sql.DB { return r.db }

// Ping checks the database is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func nullableID(id *uuid.UUID) sql.NullString {
	if id == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: id.String(), Valid: true}
}

func parseNullableID(s sql.NullString) *uuid.UUID {
	if !s.Valid {
		return nil
	}
	id, err := uuid.Parse(s.String)
	if err != nil {
		return nil
	}
	return &id
}

func nullableTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func parseNullableTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}
