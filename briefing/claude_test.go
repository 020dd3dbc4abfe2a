// ABOUTME: Tests for the Claude briefer using a fake Messages API
// ABOUTME: Covers request shape, text extraction, and error paths

package briefing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/google/uuid"
	"github.com/harperreed/focus/focus"
	"github.com/harperreed/focus/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMessages struct {
	params []anthropic.MessageNewParams
	reply  *anthropic.Message
	err    error
}

func (f *fakeMessages) New(ctx context.Context, body anthropic.MessageNewParams, _ ...option.RequestOption) (*anthropic.Message, error) {
	f.params = append(f.params, body)
	if f.err != nil {
		return nil, f.err
	}
	return f.reply, ctx.Err()
}

func textReply(parts ...string) *anthropic.Message {
	msg := &anthropic.Message{}
	for _, p := range parts {
		msg.Content = append(msg.Content, anthropic.ContentBlockUnion{Type: "text", Text: p})
	}
	return msg
}

func TestSummarize(t *testing.T) {
	fake := &fakeMessages{reply: textReply("  Start with the two overdue calls. ")}
	c := newClaude(fake, "claude-test", nil)

	text, err := c.Summarize(context.Background(), focus.Stats{Overdue: 2, Suggestions: 1, HighSuggestions: 1})
	require.NoError(t, err)
	assert.Equal(t, "Start with the two overdue calls.", text)

	require.Len(t, fake.params, 1)
	p := fake.params[0]
	assert.Equal(t, anthropic.Model("claude-test"), p.Model)
	assert.Equal(t, int64(DefaultMaxTokens), p.MaxTokens)
	require.Len(t, p.System, 1)
	assert.Contains(t, p.System[0].Text, "sales assistant")
	require.Len(t, p.Messages, 1)
	assert.Equal(t, anthropic.MessageParamRoleUser, p.Messages[0].Role)
}

func TestResponseTextJoinsTextBlocks(t *testing.T) {
	msg := textReply("First.", "Second.")
	msg.Content = append(msg.Content, anthropic.ContentBlockUnion{Type: "tool_use"})

	assert.Equal(t, "First. Second.", responseText(msg))
	assert.Equal(t, "", responseText(nil))
}

func TestSummarizeEmptyResponse(t *testing.T) {
	c := newClaude(&fakeMessages{reply: textReply("   ")}, "claude-test", nil)

	_, err := c.Summarize(context.Background(), focus.Stats{})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestSummarizeRequestError(t *testing.T) {
	boom := errors.New("overloaded")
	c := newClaude(&fakeMessages{err: boom}, "claude-test", nil)

	_, err := c.Summarize(context.Background(), focus.Stats{})
	assert.ErrorIs(t, err, boom)
}

func TestNextBestAction(t *testing.T) {
	fake := &fakeMessages{reply: textReply("Call Dana and ask about the budget.")}
	c := newClaude(fake, "claude-test", nil)

	prob := 80
	deal := models.DealView{
		Deal: models.Deal{
			ID:          uuid.New(),
			Title:       "Acme renewal",
			Value:       100000,
			Currency:    "USD",
			Probability: &prob,
			Stage:       models.StageNegotiation,
		},
		ContactName: "Dana",
	}
	item := focus.SuggestionItem(focus.Suggestion{
		Key:      focus.SuggestionKey{Type: models.SuggestionStalled, EntityID: deal.ID},
		Title:    "Follow up: Acme renewal",
		Priority: focus.PriorityHigh,
		Deal:     &deal,
	}, 100)

	text, err := c.NextBestAction(context.Background(), item)
	require.NoError(t, err)
	assert.Equal(t, "Call Dana and ask about the budget.", text)
	require.Len(t, fake.params, 1)
}

func TestSummaryPrompt(t *testing.T) {
	prompt := SummaryPrompt(focus.Stats{Overdue: 3, TodayMeetings: 1, Stalled: 2, StalledValue: 150000})

	assert.Contains(t, prompt, "Overdue activities: 3")
	assert.Contains(t, prompt, "Meetings and calls today: 1")
	assert.Contains(t, prompt, "Stalled deals: 2 worth 150000")
}

func TestNextActionPrompt(t *testing.T) {
	now := time.Date(2026, 3, 18, 15, 0, 0, 0, time.UTC)

	t.Run("overdue activity", func(t *testing.T) {
		item := focus.ActivityItem(models.Activity{
			ID:    uuid.New(),
			Type:  models.ActivityCall,
			Title: "Call Bob",
			DueAt: now.Add(-72 * time.Hour),
		}, 0)

		prompt := NextActionPrompt(item, now)
		assert.Contains(t, prompt, "Activity: Call Bob (CALL)")
		assert.Contains(t, prompt, "Overdue by 3 day(s)")
	})

	t.Run("rescue suggestion", func(t *testing.T) {
		contact := models.Contact{ID: uuid.New(), Name: "Carol", CompanyName: "Globex"}
		item := focus.SuggestionItem(focus.Suggestion{
			Key:      focus.SuggestionKey{Type: models.SuggestionRescue, EntityID: contact.ID},
			Title:    "Re-engage Carol",
			Priority: focus.PriorityMedium,
			Contact:  &contact,
		}, 400)

		prompt := NextActionPrompt(item, now)
		assert.Contains(t, prompt, "Suggestion: Re-engage Carol")
		assert.Contains(t, prompt, "Customer: Carol at Globex")
	})
}
