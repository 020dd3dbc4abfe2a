// ABOUTME: Tests for the focus and CRM MCP handlers
// ABOUTME: Runs against a temp SQLite repository and a real focus session
package handlers

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/focus/db"
	"github.com/harperreed/focus/focus"
	"github.com/harperreed/focus/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testOperator = "tester"

type testEnv struct {
	repo     *db.Repository
	session  *focus.Session
	focus    *FocusHandlers
	crm      *CRMHandlers
	resource *ResourceHandlers
	prompts  *PromptHandlers
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	database, err := db.OpenDatabase(filepath.Join(t.TempDir(), "crm.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	repo := db.NewRepository(database)
	session := focus.NewSession(focus.SessionConfig{
		Sources:      repo,
		Suppressions: repo,
		Dispatcher:   focus.NewDispatcher(repo, repo, repo, testOperator, 1),
		OperatorID:   testOperator,
	})
	return &testEnv{
		repo:     repo,
		session:  session,
		focus:    NewFocusHandlers(session, nil),
		crm:      NewCRMHandlers(repo, session, nil),
		resource: NewResourceHandlers(repo, session),
		prompts:  NewPromptHandlers(session),
	}
}

// stalledDeal creates an open deal that has not moved for 40 days.
func (e *testEnv) stalledDeal(t *testing.T, title string) uuid.UUID {
	t.Helper()
	prob := 80
	_, out, err := e.crm.CreateDeal(context.Background(), nil, CreateDealInput{
		Title:       title,
		Value:       100000,
		Probability: &prob,
		Stage:       models.StageNegotiation,
	})
	require.NoError(t, err)

	_, err = e.repo.DB().Exec(`UPDATE deals SET updated_at = ? WHERE id = ?`,
		time.Now().UTC().Add(-40*24*time.Hour), out.ID)
	require.NoError(t, err)
	return uuid.MustParse(out.ID)
}

func TestAddActivityAppearsInQueue(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	due := time.Now().UTC().Add(-72 * time.Hour).Format(time.RFC3339)
	_, added, err := env.crm.AddActivity(ctx, nil, AddActivityInput{Type: "call", Title: "Call Bob", DueAt: due})
	require.NoError(t, err)
	assert.Equal(t, "CALL", added.Type)

	_, out, err := env.focus.FocusQueue(ctx, nil, FocusQueueInput{})
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.Equal(t, added.ID, out.Items[0].ID)
	assert.True(t, out.Items[0].Overdue)
	assert.Equal(t, 1, out.Stats.Overdue)
	assert.Empty(t, out.Degraded)
}

func TestAddActivityValidation(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	_, _, err := env.crm.AddActivity(ctx, nil, AddActivityInput{Type: "CALL"})
	assert.Error(t, err)

	_, _, err = env.crm.AddActivity(ctx, nil, AddActivityInput{Type: "LUNCH", Title: "Eat"})
	assert.Error(t, err)

	_, _, err = env.crm.AddActivity(ctx, nil, AddActivityInput{Type: "TASK", Title: "x", DueAt: "next week"})
	assert.Error(t, err)

	_, _, err = env.crm.AddActivity(ctx, nil, AddActivityInput{Type: "TASK", Title: "x", DealID: "nope"})
	assert.Error(t, err)
}

func TestFocusActionDoneCompletesActivity(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	due := time.Now().UTC().Add(-48 * time.Hour).Format(time.RFC3339)
	_, added, err := env.crm.AddActivity(ctx, nil, AddActivityInput{Type: "TASK", Title: "Send contract", DueAt: due})
	require.NoError(t, err)
	_, _, err = env.focus.FocusQueue(ctx, nil, FocusQueueInput{})
	require.NoError(t, err)

	_, out, err := env.focus.FocusAction(ctx, nil, FocusActionInput{Action: "done"})
	require.NoError(t, err)
	assert.Empty(t, out.Errors)
	assert.Equal(t, 0, out.Total)
	assert.Nil(t, out.Current)

	a, err := env.repo.GetActivity(ctx, uuid.MustParse(added.ID))
	require.NoError(t, err)
	assert.True(t, a.Completed)
}

func TestFocusActionDismissSuggestion(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	dealID := env.stalledDeal(t, "Acme renewal")

	_, queue, err := env.focus.FocusQueue(ctx, nil, FocusQueueInput{})
	require.NoError(t, err)
	require.Len(t, queue.Items, 1)
	item := queue.Items[0]
	assert.Equal(t, "STALLED", item.Type)
	assert.Equal(t, dealID.String(), item.EntityID)

	_, out, err := env.focus.FocusAction(ctx, nil, FocusActionInput{Action: "dismiss", ID: item.ID})
	require.NoError(t, err)
	assert.Empty(t, out.Errors)
	assert.Contains(t, out.Notice, "Dismissed")

	records, err := env.repo.ListInteractions(ctx, testOperator)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, models.InteractionDismissed, records[0].Action)

	_, queue, err = env.focus.FocusQueue(ctx, nil, FocusQueueInput{})
	require.NoError(t, err)
	assert.Empty(t, queue.Items)
}

func TestFocusActionUnknownItem(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	_, _, err := env.focus.FocusAction(ctx, nil, FocusActionInput{Action: "done"})
	assert.ErrorIs(t, err, focus.ErrEmptyQueue)

	_, _, err = env.focus.FocusAction(ctx, nil, FocusActionInput{Action: "explode"})
	assert.Error(t, err)
}

func TestFocusNavigate(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	for _, title := range []string{"First", "Second", "Third"} {
		_, _, err := env.crm.AddActivity(ctx, nil, AddActivityInput{Type: "TASK", Title: title})
		require.NoError(t, err)
	}
	_, queue, err := env.focus.FocusQueue(ctx, nil, FocusQueueInput{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, queue.Items, 2)
	assert.Equal(t, 3, queue.Total)

	_, pos, err := env.focus.FocusNavigate(ctx, nil, FocusNavigateInput{Direction: "next"})
	require.NoError(t, err)
	assert.Equal(t, 1, pos.Cursor)

	_, pos, err = env.focus.FocusNavigate(ctx, nil, FocusNavigateInput{Direction: "skip"})
	require.NoError(t, err)
	assert.Equal(t, 2, pos.Cursor)
	assert.NotEmpty(t, pos.Notice)

	_, pos, err = env.focus.FocusNavigate(ctx, nil, FocusNavigateInput{Direction: "select", ID: queue.Items[0].ID})
	require.NoError(t, err)
	assert.Equal(t, 0, pos.Cursor)

	_, _, err = env.focus.FocusNavigate(ctx, nil, FocusNavigateInput{Direction: "sideways"})
	assert.Error(t, err)
	_, _, err = env.focus.FocusNavigate(ctx, nil, FocusNavigateInput{Direction: "select"})
	assert.Error(t, err)
}

func TestFocusBriefingFallsBack(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	due := time.Now().UTC().Add(-72 * time.Hour).Format(time.RFC3339)
	_, _, err := env.crm.AddActivity(ctx, nil, AddActivityInput{Type: "EMAIL", Title: "Reply to Carol", DueAt: due})
	require.NoError(t, err)

	_, out, err := env.focus.FocusBriefing(ctx, nil, FocusBriefingInput{NextAction: true})
	require.NoError(t, err)
	assert.Contains(t, out.Summary, "1 overdue activity")
	assert.Equal(t, "Draft and send the email.", out.NextAction)
	assert.Equal(t, 1, out.Stats.Overdue)
}

func TestLogContactInteraction(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	_, contact, err := env.crm.AddContact(ctx, nil, AddContactInput{Name: "Carol", Email: "carol@globex.com"})
	require.NoError(t, err)
	assert.Equal(t, "ACTIVE", contact.Status)

	_, out, err := env.crm.LogContactInteraction(ctx, nil, LogInteractionInput{Email: "carol@globex.com", Date: "2026-03-01"})
	require.NoError(t, err)
	require.NotNil(t, out.LastContactedAt)

	_, _, err = env.crm.LogContactInteraction(ctx, nil, LogInteractionInput{Email: "nobody@example.com"})
	assert.True(t, errors.Is(err, db.ErrContactNotFound))

	_, _, err = env.crm.AddContact(ctx, nil, AddContactInput{Name: "X", Status: "MAYBE"})
	assert.Error(t, err)
}

func TestUpdateDeal(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	_, created, err := env.crm.CreateDeal(ctx, nil, CreateDealInput{Title: "Widgets", Value: 5000})
	require.NoError(t, err)
	assert.Equal(t, models.StageProspecting, created.Stage)
	assert.Equal(t, models.DefaultProbability, created.Probability)

	stage := models.StageProposal
	prob := 60
	_, updated, err := env.crm.UpdateDeal(ctx, nil, UpdateDealInput{ID: created.ID, Stage: &stage, Probability: &prob})
	require.NoError(t, err)
	assert.Equal(t, models.StageProposal, updated.Stage)
	assert.Equal(t, 60, updated.Probability)

	bad := "won-ish"
	_, _, err = env.crm.UpdateDeal(ctx, nil, UpdateDealInput{ID: created.ID, Stage: &bad})
	assert.Error(t, err)

	_, _, err = env.crm.UpdateDeal(ctx, nil, UpdateDealInput{ID: uuid.NewString(), Stage: &stage})
	assert.ErrorIs(t, err, db.ErrDealNotFound)
}

func TestReadResource(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	env.stalledDeal(t, "Acme renewal")
	require.NoError(t, env.session.Refresh(ctx))

	res, err := env.resource.ReadResource(ctx, &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: "focus://stats"}})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	assert.Contains(t, res.Contents[0].Text, `"stalled": 1`)

	res, err = env.resource.ReadResource(ctx, &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: "crm://deals"}})
	require.NoError(t, err)
	assert.Contains(t, res.Contents[0].Text, "Acme renewal")

	_, err = env.resource.ReadResource(ctx, &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: "crm://nothing"}})
	assert.Error(t, err)
	_, err = env.resource.ReadResource(ctx, &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: "http://x"}})
	assert.Error(t, err)
}

func TestGetPrompt(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	_, err := env.prompts.GetPrompt(ctx, &mcp.GetPromptRequest{Params: &mcp.GetPromptParams{Name: "next-step"}})
	assert.ErrorIs(t, err, focus.ErrEmptyQueue)

	env.stalledDeal(t, "Acme renewal")

	res, err := env.prompts.GetPrompt(ctx, &mcp.GetPromptRequest{Params: &mcp.GetPromptParams{Name: "morning-briefing"}})
	require.NoError(t, err)
	require.Len(t, res.Messages, 1)
	text, ok := res.Messages[0].Content.(*mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "Stalled deals: 1")

	res, err = env.prompts.GetPrompt(ctx, &mcp.GetPromptRequest{Params: &mcp.GetPromptParams{Name: "next-step"}})
	require.NoError(t, err)
	assert.Contains(t, res.Description, "Acme renewal")

	_, err = env.prompts.GetPrompt(ctx, &mcp.GetPromptRequest{Params: &mcp.GetPromptParams{Name: "next-step", Arguments: map[string]string{"id": "nope"}}})
	assert.ErrorIs(t, err, focus.ErrUnknownItem)

	_, err = env.prompts.GetPrompt(ctx, &mcp.GetPromptRequest{Params: &mcp.GetPromptParams{Name: "haiku"}})
	assert.Error(t, err)
}

func TestNewServerRegisters(t *testing.T) {
	env := setupTestEnv(t)
	assert.NotNil(t, NewServer(env.repo, env.session, "test", nil))
}

func TestParseWhen(t *testing.T) {
	got, err := ParseWhen("2026-03-18T10:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 18, 10, 0, 0, 0, time.UTC), got)

	_, err = ParseWhen("2026-03-18")
	assert.NoError(t, err)

	_, err = ParseWhen("tomorrow")
	assert.Error(t, err)
}
