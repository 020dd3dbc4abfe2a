// ABOUTME: Deal MCP tool handlers
// ABOUTME: Implements create_deal and update_deal tools
package handlers

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/focus/db"
	"github.com/harperreed/focus/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var dealStages = []string{
	models.StageProspecting,
	models.StageQualification,
	models.StageProposal,
	models.StageNegotiation,
	models.StageClosedWon,
	models.StageClosedLost,
}

type CreateDealInput struct {
	Title       string  `json:"title" jsonschema:"Deal title (required)"`
	Value       float64 `json:"value,omitempty" jsonschema:"Deal value in currency units"`
	Currency    string  `json:"currency,omitempty" jsonschema:"Currency code (default USD)"`
	Probability *int    `json:"probability,omitempty" jsonschema:"Win probability 0-100"`
	Stage       string  `json:"stage,omitempty" jsonschema:"Deal stage: prospecting, qualification, proposal, negotiation, closed_won, closed_lost"`
	CompanyName string  `json:"company_name,omitempty" jsonschema:"Company name"`
	ContactID   string  `json:"contact_id,omitempty" jsonschema:"Primary contact ID"`
}

type DealOutput struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Value       float64 `json:"value"`
	Currency    string  `json:"currency"`
	Probability int     `json:"probability"`
	Stage       string  `json:"stage"`
	CompanyName string  `json:"company_name,omitempty"`
	ContactID   *string `json:"contact_id,omitempty"`
	ContactName string  `json:"contact_name,omitempty"`
	UpdatedAt   string  `json:"updated_at"`
}

func (h *CRMHandlers) CreateDeal(ctx context.Context, _ *mcp.CallToolRequest, input CreateDealInput) (*mcp.CallToolResult, DealOutput, error) {
	if input.Title == "" {
		return nil, DealOutput{}, fmt.Errorf("title is required")
	}
	if err := validateDealFields(input.Stage, input.Probability); err != nil {
		return nil, DealOutput{}, err
	}

	deal := &models.Deal{
		Title:       input.Title,
		Value:       input.Value,
		Currency:    input.Currency,
		Probability: input.Probability,
		Stage:       input.Stage,
		CompanyName: input.CompanyName,
	}
	var err error
	if deal.ContactID, err = parseOptionalID("contact_id", input.ContactID); err != nil {
		return nil, DealOutput{}, err
	}

	if err := h.repo.CreateDeal(ctx, deal); err != nil {
		return nil, DealOutput{}, fmt.Errorf("failed to create deal: %w", err)
	}
	h.refresh(ctx)

	return nil, dealToOutput(models.DealView{Deal: *deal}), nil
}

type UpdateDealInput struct {
	ID          string   `json:"id" jsonschema:"Deal ID (required)"`
	Title       *string  `json:"title,omitempty" jsonschema:"New title"`
	Value       *float64 `json:"value,omitempty" jsonschema:"New value"`
	Probability *int     `json:"probability,omitempty" jsonschema:"New win probability 0-100"`
	Stage       *string  `json:"stage,omitempty" jsonschema:"New stage"`
}

// UpdateDeal patches a deal. Any update counts as activity on the deal.
func (h *CRMHandlers) UpdateDeal(ctx context.Context, _ *mcp.CallToolRequest, input UpdateDealInput) (*mcp.CallToolResult, DealOutput, error) {
	id, err := uuid.Parse(input.ID)
	if err != nil {
		return nil, DealOutput{}, fmt.Errorf("invalid id: %w", err)
	}
	stage := ""
	if input.Stage != nil {
		stage = *input.Stage
	}
	if err := validateDealFields(stage, input.Probability); err != nil {
		return nil, DealOutput{}, err
	}

	patch := models.DealPatch{
		Title:       input.Title,
		Value:       input.Value,
		Probability: input.Probability,
		Stage:       input.Stage,
		Touch:       true,
	}
	if err := h.repo.UpdateDeal(ctx, id, patch); err != nil {
		if errors.Is(err, db.ErrDealNotFound) {
			return nil, DealOutput{}, err
		}
		return nil, DealOutput{}, fmt.Errorf("failed to update deal: %w", err)
	}
	h.refresh(ctx)

	deal, err := h.repo.GetDeal(ctx, id)
	if err != nil {
		return nil, DealOutput{}, fmt.Errorf("failed to reload deal: %w", err)
	}
	return nil, dealToOutput(*deal), nil
}

func validateDealFields(stage string, probability *int) error {
	if stage != "" && !slices.Contains(dealStages, stage) {
		return fmt.Errorf("invalid stage %q", stage)
	}
	if probability != nil && (*probability < 0 || *probability > 100) {
		return fmt.Errorf("probability must be between 0 and 100")
	}
	return nil
}

func dealToOutput(d models.DealView) DealOutput {
	return DealOutput{
		ID:          d.ID.String(),
		Title:       d.Title,
		Value:       d.Value,
		Currency:    d.Currency,
		Probability: d.WinProbability(),
		Stage:       d.Stage,
		CompanyName: d.CompanyName,
		ContactID:   idString(d.ContactID),
		ContactName: d.ContactName,
		UpdatedAt:   d.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
