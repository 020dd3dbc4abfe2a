// ABOUTME: Deal database operations
// ABOUTME: Handles deal creation, patches, touches, and the deal-with-contact view
package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/harperreed/focus/models"
)

const dealColumns = `d.id, d.title, d.value, d.currency, d.probability, d.stage, d.company_name, d.contact_id, d.created_at, d.updated_at`

// CreateDeal inserts deal, assigning timestamps and an id unless one is set.
func (r *Repository) CreateDeal(ctx context.Context, deal *models.Deal) error {
	if deal == nil || deal.Title == "" {
		return fmt.Errorf("%w: deal title is required", ErrInvalidRecord)
	}
	if deal.ID == uuid.Nil {
		deal.ID = uuid.New()
	}
	now := r.now()
	deal.CreatedAt = now
	deal.UpdatedAt = now
	if deal.Currency == "" {
		deal.Currency = "USD"
	}
	if deal.Stage == "" {
		deal.Stage = models.StageProspecting
	}

	var probability sql.NullInt64
	if deal.Probability != nil {
		probability = sql.NullInt64{Int64: int64(*deal.Probability), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO deals (id, title, value, currency, probability, stage, company_name, contact_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		deal.ID.String(),
		deal.Title,
		deal.Value,
		deal.Currency,
		probability,
		deal.Stage,
		nullableString(deal.CompanyName),
		nullableID(deal.ContactID),
		deal.CreatedAt,
		deal.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create deal: %w", err)
	}
	return nil
}

// GetDeal returns the deal with id or ErrDealNotFound.
func (r *Repository) GetDeal(ctx context.Context, id uuid.UUID) (*models.DealView, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+dealColumns+`, c.name
		FROM deals d LEFT JOIN contacts c ON c.id = d.contact_id
		WHERE d.id = ?
	`, id.String())
	d, err := scanDealView(row)
	if err == sql.ErrNoRows {
		return nil, ErrDealNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get deal: %w", err)
	}
	return d, nil
}

// ListDealViews returns every deal with its contact's name, most recently updated first.
func (r *Repository) ListDealViews(ctx context.Context) ([]models.DealView, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+dealColumns+`, c.name
		FROM deals d LEFT JOIN contacts c ON c.id = d.contact_id
		ORDER BY d.updated_at DESC, d.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query deals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var deals []models.DealView
	for rows.Next() {
		d, err := scanDealView(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deal: %w", err)
		}
		deals = append(deals, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating deals: %w", err)
	}
	return deals, nil
}

// UpdateDeal applies patch. Any change, including a bare touch, moves updated_at to now.
func (r *Repository) UpdateDeal(ctx context.Context, id uuid.UUID, patch models.DealPatch) error {
	sets := []string{"updated_at = ?"}
	args := []any{r.now()}

	if patch.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.Value != nil {
		sets = append(sets, "value = ?")
		args = append(args, *patch.Value)
	}
	if patch.Probability != nil {
		sets = append(sets, "probability = ?")
		args = append(args, *patch.Probability)
	}
	if patch.Stage != nil {
		sets = append(sets, "stage = ?")
		args = append(args, *patch.Stage)
	}
	args = append(args, id.String())

	res, err := r.db.ExecContext(ctx, `UPDATE deals SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("failed to update deal: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrDealNotFound
	}
	return nil
}

func scanDealView(row rowScanner) (*models.DealView, error) {
	var (
		d                    models.DealView
		id                   string
		probability          sql.NullInt64
		company, contactName sql.NullString
		contactID            sql.NullString
	)
	err := row.Scan(&id, &d.Title, &d.Value, &d.Currency, &probability, &d.Stage, &company, &contactID, &d.CreatedAt, &d.UpdatedAt, &contactName)
	if err != nil {
		return nil, err
	}
	d.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("bad deal id %q: %w", id, err)
	}
	if probability.Valid {
		p := int(probability.Int64)
		d.Probability = &p
	}
	d.CompanyName = company.String
	d.ContactID = parseNullableID(contactID)
	d.ContactName = contactName.String
	return &d, nil
}
