// ABOUTME: Claude-backed Briefer producing the session summary and next-best-action text
// ABOUTME: One short Messages API call per request; callers own timeouts and fallbacks

package briefing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/harperreed/focus/focus"
	"github.com/harperreed/focus/models"
)

// ErrEmptyResponse is returned when the model answers without any text.
var ErrEmptyResponse = errors.New("briefing model returned no text")

const (
	DefaultMaxTokens = 300

	systemPrompt = "You are a sales assistant inside a personal CRM. " +
		"Answer in plain prose, at most three sentences, with no markdown and no preamble."
)

var _ focus.Briefer = (*Claude)(nil)

// messagesAPI is the part of the SDK's MessageService the briefer calls.
type messagesAPI interface {
	New(ctx context.Context, body anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// Claude implements focus.Briefer on the Anthropic Messages API.
type Claude struct {
	messages  messagesAPI
	model     string
	maxTokens int64
	logger    *slog.Logger
}

// NewClaude builds a briefer for apiKey and model.
func NewClaude(apiKey, model string, logger *slog.Logger) *Claude {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return newClaude(&client.Messages, model, logger)
}

func newClaude(messages messagesAPI, model string, logger *slog.Logger) *Claude {
	if logger == nil {
		logger = slog.Default()
	}
	return &Claude{
		messages:  messages,
		model:     model,
		maxTokens: DefaultMaxTokens,
		logger:    logger.With("component", "briefing"),
	}
}

// Summarize describes the backlog in a couple of sentences.
func (c *Claude) Summarize(ctx context.Context, stats focus.Stats) (string, error) {
	return c.ask(ctx, "summary", SummaryPrompt(stats))
}

// NextBestAction proposes the single next step for item.
func (c *Claude) NextBestAction(ctx context.Context, item focus.FocusItem) (string, error) {
	return c.ask(ctx, "next_action", NextActionPrompt(item, time.Now()))
}

func (c *Claude) ask(ctx context.Context, kind, prompt string) (string, error) {
	start := time.Now()
	msg, err := c.messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("briefing request failed: %w", err)
	}

	text := responseText(msg)
	c.logger.Debug("briefing generated",
		"kind", kind,
		"model", c.model,
		"chars", len(text),
		"elapsed", time.Since(start),
	)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func responseText(msg *anthropic.Message) string {
	if msg == nil {
		return ""
	}
	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type != "text" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString(strings.TrimSpace(block.Text))
	}
	return strings.TrimSpace(b.String())
}

// SummaryPrompt renders the backlog counts for the summary request.
func SummaryPrompt(st focus.Stats) string {
	var b strings.Builder
	b.WriteString("Write a short morning briefing for this backlog.\n\n")
	fmt.Fprintf(&b, "Overdue activities: %d\n", st.Overdue)
	fmt.Fprintf(&b, "Meetings and calls today: %d\n", st.TodayMeetings)
	fmt.Fprintf(&b, "Other activities due today: %d\n", st.TodayTasks)
	fmt.Fprintf(&b, "Suggestions: %d (%d high priority)\n", st.Suggestions, st.HighSuggestions)
	fmt.Fprintf(&b, "Stalled deals: %d worth %.0f\n", st.Stalled, st.StalledValue)
	fmt.Fprintf(&b, "Upsell opportunities: %d\n", st.Upsell)
	fmt.Fprintf(&b, "Customers at risk: %d\n", st.Rescue)
	b.WriteString("\nSay what to tackle first.")
	return b.String()
}

// NextActionPrompt describes item for the next-best-action request.
func NextActionPrompt(item focus.FocusItem, now time.Time) string {
	var b strings.Builder
	b.WriteString("Suggest the single next step for this item.\n\n")

	item.Match(func(a models.Activity) {
		fmt.Fprintf(&b, "Activity: %s (%s)\n", a.Title, a.Type)
		if a.Description != "" {
			fmt.Fprintf(&b, "Notes: %s\n", a.Description)
		}
		if days := focus.DaysOverdue(a.DueAt, now); days > 0 {
			fmt.Fprintf(&b, "Overdue by %d day(s)\n", days)
		} else {
			fmt.Fprintf(&b, "Due: %s\n", a.DueAt.Format("Mon 15:04"))
		}
	}, func(s focus.Suggestion) {
		fmt.Fprintf(&b, "Suggestion: %s\n", s.Title)
		if s.Description != "" {
			fmt.Fprintf(&b, "Why: %s\n", s.Description)
		}
		fmt.Fprintf(&b, "Priority: %s\n", s.Priority)
		if s.Deal != nil {
			fmt.Fprintf(&b, "Deal: %s, %.0f %s, stage %s, %d%% likely\n",
				s.Deal.Title, s.Deal.Value, s.Deal.Currency, s.Deal.Stage, s.Deal.WinProbability())
			if s.Deal.ContactName != "" {
				fmt.Fprintf(&b, "Contact: %s\n", s.Deal.ContactName)
			}
		}
		if s.Contact != nil {
			fmt.Fprintf(&b, "Customer: %s", s.Contact.Name)
			if s.Contact.CompanyName != "" {
				fmt.Fprintf(&b, " at %s", s.Contact.CompanyName)
			}
			b.WriteString("\n")
		}
	})
	return b.String()
}
