// ABOUTME: Contact MCP tool handlers
// ABOUTME: Implements add_contact and log_contact_interaction tools
package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/focus/db"
	"github.com/harperreed/focus/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type AddContactInput struct {
	Name             string `json:"name" jsonschema:"Contact name (required)"`
	Email            string `json:"email,omitempty" jsonschema:"Contact email address"`
	Phone            string `json:"phone,omitempty" jsonschema:"Contact phone number"`
	Status           string `json:"status,omitempty" jsonschema:"ACTIVE, INACTIVE, or CHURNED (default ACTIVE)"`
	CompanyName      string `json:"company_name,omitempty" jsonschema:"Company name"`
	Notes            string `json:"notes,omitempty" jsonschema:"Additional notes about the contact"`
	LastPurchaseDate string `json:"last_purchase_date,omitempty" jsonschema:"Last purchase date in RFC 3339 or YYYY-MM-DD format"`
}

type ContactOutput struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Email            string  `json:"email,omitempty"`
	Phone            string  `json:"phone,omitempty"`
	Status           string  `json:"status"`
	CompanyName      string  `json:"company_name,omitempty"`
	Notes            string  `json:"notes,omitempty"`
	LastContactedAt  *string `json:"last_contacted_at,omitempty"`
	LastPurchaseDate *string `json:"last_purchase_date,omitempty"`
	CreatedAt        string  `json:"created_at"`
}

func (h *CRMHandlers) AddContact(ctx context.Context, _ *mcp.CallToolRequest, input AddContactInput) (*mcp.CallToolResult, ContactOutput, error) {
	if input.Name == "" {
		return nil, ContactOutput{}, fmt.Errorf("name is required")
	}

	contact := &models.Contact{
		Name:        input.Name,
		Email:       input.Email,
		Phone:       input.Phone,
		Status:      models.ContactStatus(strings.ToUpper(input.Status)),
		CompanyName: input.CompanyName,
		Notes:       input.Notes,
	}
	switch contact.Status {
	case "", models.ContactActive, models.ContactInactive, models.ContactChurned:
	default:
		return nil, ContactOutput{}, fmt.Errorf("invalid status %q", input.Status)
	}
	if input.LastPurchaseDate != "" {
		t, err := ParseWhen(input.LastPurchaseDate)
		if err != nil {
			return nil, ContactOutput{}, err
		}
		contact.LastPurchaseDate = &t
	}

	if err := h.repo.CreateContact(ctx, contact); err != nil {
		return nil, ContactOutput{}, fmt.Errorf("failed to create contact: %w", err)
	}
	h.refresh(ctx)

	return nil, contactToOutput(contact), nil
}

type LogInteractionInput struct {
	ContactID string `json:"contact_id,omitempty" jsonschema:"Contact ID (this or email is required)"`
	Email     string `json:"email,omitempty" jsonschema:"Contact email"`
	Date      string `json:"date,omitempty" jsonschema:"When it happened in RFC 3339 or YYYY-MM-DD format (default now)"`
}

// LogContactInteraction records that the contact was reached, which clears rescue suggestions.
func (h *CRMHandlers) LogContactInteraction(ctx context.Context, _ *mcp.CallToolRequest, input LogInteractionInput) (*mcp.CallToolResult, ContactOutput, error) {
	var (
		contact *models.Contact
		err     error
	)
	switch {
	case input.ContactID != "":
		id, perr := uuid.Parse(input.ContactID)
		if perr != nil {
			return nil, ContactOutput{}, fmt.Errorf("invalid contact_id: %w", perr)
		}
		contact, err = h.repo.GetContact(ctx, id)
	case input.Email != "":
		contact, err = h.repo.FindContactByEmail(ctx, input.Email)
		if err == nil && contact == nil {
			err = fmt.Errorf("%w: %s", db.ErrContactNotFound, input.Email)
		}
	default:
		return nil, ContactOutput{}, fmt.Errorf("contact_id or email is required")
	}
	if errors.Is(err, db.ErrContactNotFound) {
		return nil, ContactOutput{}, err
	}
	if err != nil {
		return nil, ContactOutput{}, fmt.Errorf("failed to find contact: %w", err)
	}

	at := time.Now().UTC()
	if input.Date != "" {
		if at, err = ParseWhen(input.Date); err != nil {
			return nil, ContactOutput{}, err
		}
	}
	if err := h.repo.TouchContact(ctx, contact.ID, at); err != nil {
		return nil, ContactOutput{}, fmt.Errorf("failed to log interaction: %w", err)
	}
	h.refresh(ctx)

	updated, err := h.repo.GetContact(ctx, contact.ID)
	if err != nil {
		return nil, ContactOutput{}, fmt.Errorf("failed to reload contact: %w", err)
	}
	return nil, contactToOutput(updated), nil
}

func contactToOutput(c *models.Contact) ContactOutput {
	return ContactOutput{
		ID:               c.ID.String(),
		Name:             c.Name,
		Email:            c.Email,
		Phone:            c.Phone,
		Status:           string(c.Status),
		CompanyName:      c.CompanyName,
		Notes:            c.Notes,
		LastContactedAt:  timeString(c.LastContactedAt),
		LastPurchaseDate: timeString(c.LastPurchaseDate),
		CreatedAt:        c.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func timeString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}
