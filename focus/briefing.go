// ABOUTME: Best-effort natural language summary and next-best-action text
// ABOUTME: Defines the Briefer collaborator and deterministic fallbacks
package focus

import (
	"context"
	"fmt"
	"strings"

	"github.com/harperreed/focus/models"
)

// Briefer produces natural language text about the backlog. Calls may fail or be slow;
// callers always have a fallback.
type Briefer interface {
	Summarize(ctx context.Context, stats Stats) (string, error)
	NextBestAction(ctx context.Context, item FocusItem) (string, error)
}

// FallbackSummary is the locally built briefing used when the Briefer is unavailable.
func FallbackSummary(st Stats) string {
	if st.Total() == 0 {
		return "Inbox zero: nothing overdue, nothing due today, and no suggestions."
	}

	var parts []string
	if st.Overdue > 0 {
		parts = append(parts, plural(st.Overdue, "overdue activity", "overdue activities"))
	}
	if today := st.TodayMeetings + st.TodayTasks; today > 0 {
		parts = append(parts, fmt.Sprintf("%s due today", plural(today, "activity", "activities")))
	}
	if st.Suggestions > 0 {
		parts = append(parts, fmt.Sprintf("%s (%d high priority)", plural(st.Suggestions, "suggestion", "suggestions"), st.HighSuggestions))
	}

	summary := "You have " + joinList(parts) + "."
	if st.Stalled > 0 {
		summary += fmt.Sprintf(" %s worth %.0f need a nudge.", plural(st.Stalled, "stalled deal", "stalled deals"), st.StalledValue)
	}
	return summary
}

// FallbackNextAction is the per-item advice used when the Briefer is unavailable.
func FallbackNextAction(item FocusItem) string {
	var text string
	item.Match(func(a models.Activity) {
		switch a.Type {
		case models.ActivityCall:
			text = "Make the call and log the outcome."
		case models.ActivityMeeting:
			text = "Review the agenda and confirm attendance."
		case models.ActivityEmail:
			text = "Draft and send the email."
		default:
			text = "Finish the task, then mark it done."
		}
	}, func(s Suggestion) {
		switch s.Key.Type {
		case models.SuggestionStalled:
			text = "Send a short check-in to restart the conversation and agree on a next step."
		case models.SuggestionUpsell:
			text = "Schedule a success review and ask what they would add next."
		case models.SuggestionRescue:
			text = "Reach out personally with something useful, not a sales pitch."
		}
	})
	return text
}

func plural(n int, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return fmt.Sprintf("%d %s", n, many)
}

func joinList(parts []string) string {
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	}
	return strings.Join(parts[:len(parts)-1], ", ") + " and " + parts[len(parts)-1]
}
