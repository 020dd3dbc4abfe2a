// ABOUTME: Contact database operations
// ABOUTME: Create, fetch, list, and touch contacts feeding the rescue heuristic
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/focus/models"
)

const contactColumns = `id, name, email, phone, status, company_name, notes, last_contacted_at, last_purchase_date, created_at, updated_at`

// CreateContact inserts contact, assigning an id and timestamps.
func (r *Repository) CreateContact(ctx context.Context, contact *models.Contact) error {
	if contact == nil || contact.Name == "" {
		return fmt.Errorf("%w: contact name is required", ErrInvalidRecord)
	}
	if contact.ID == uuid.Nil {
		contact.ID = uuid.New()
	}
	if contact.Status == "" {
		contact.Status = models.ContactActive
	}
	now := r.now()
	contact.CreatedAt = now
	contact.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO contacts (`+contactColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		contact.ID.String(),
		contact.Name,
		nullableString(contact.Email),
		nullableString(contact.Phone),
		string(contact.Status),
		nullableString(contact.CompanyName),
		nullableString(contact.Notes),
		nullableTime(contact.LastContactedAt),
		nullableTime(contact.LastPurchaseDate),
		contact.CreatedAt,
		contact.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create contact: %w", err)
	}
	return nil
}

// GetContact returns the contact with id or ErrContactNotFound.
func (r *Repository) GetContact(ctx context.Context, id uuid.UUID) (*models.Contact, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+contactColumns+` FROM contacts WHERE id = ?`, id.String())
	c, err := scanContact(row)
	if err == sql.ErrNoRows {
		return nil, ErrContactNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}
	return c, nil
}

// ListContacts returns every contact ordered by name.
func (r *Repository) ListContacts(ctx context.Context) ([]models.Contact, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+contactColumns+` FROM contacts ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query contacts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var contacts []models.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts = append(contacts, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating contacts: %w", err)
	}
	return contacts, nil
}

// FindContactByEmail returns the contact with email, or nil when none matches.
func (r *Repository) FindContactByEmail(ctx context.Context, email string) (*models.Contact, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+contactColumns+` FROM contacts WHERE lower(email) = lower(?) LIMIT 1`, email)
	c, err := scanContact(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find contact: %w", err)
	}
	return c, nil
}

// TouchContact moves last_contacted_at forward to at. Earlier times are ignored.
func (r *Repository) TouchContact(ctx context.Context, id uuid.UUID, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE contacts
		SET last_contacted_at = ?, updated_at = ?
		WHERE id = ? AND (last_contacted_at IS NULL OR last_contacted_at < ?)
	`, at.UTC(), r.now(), id.String(), at.UTC())
	if err != nil {
		return fmt.Errorf("failed to touch contact: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetContact(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func scanContact(row rowScanner) (*models.Contact, error) {
	var (
		c                            models.Contact
		id                           string
		status                       string
		email, phone, company, notes sql.NullString
		lastContacted, lastPurchase  sql.NullTime
	)
	err := row.Scan(&id, &c.Name, &email, &phone, &status, &company, &notes, &lastContacted, &lastPurchase, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("bad contact id %q: %w", id, err)
	}
	c.Status = models.ContactStatus(status)
	c.Email = email.String
	c.Phone = phone.String
	c.CompanyName = company.String
	c.Notes = notes.String
	c.LastContactedAt = parseNullableTime(lastContacted)
	c.LastPurchaseDate = parseNullableTime(lastPurchase)
	return &c, nil
}
