// ABOUTME: Rendering for the focus mode screen
// ABOUTME: Header with backlog counts, the current item card, notices, and key help
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/harperreed/focus/focus"
	"github.com/harperreed/focus/models"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	statStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(1, 2)

	itemTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("255"))

	bandStyles = map[focus.Band]lipgloss.Style{
		focus.BandOverdue:        lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		focus.BandHighSuggestion: lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
		focus.BandTodayMeeting:   lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		focus.BandTodayOther:     lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		focus.BandSuggestion:     lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	}

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	helpStyle = lipgloss.NewStyle().
			MarginTop(1)
)

func (m Model) View() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("Focus"))
	s.WriteString("\n")

	if m.loading && len(m.session.Queue()) == 0 {
		s.WriteString(m.spinner.View() + " Loading your backlog...\n")
		return s.String()
	}

	queue := m.session.Queue()
	s.WriteString(statStyle.Render(statsLine(focus.Summarize(queue))))
	s.WriteString("\n")
	if m.briefing != "" {
		s.WriteString(mutedStyle.Width(max(m.width-2, 20)).Render(m.briefing))
		s.WriteString("\n")
	}
	s.WriteString("\n")

	item, ok := m.session.Current()
	if !ok {
		s.WriteString(infoStyle.Render("Inbox zero. Nothing needs you right now."))
		s.WriteString("\n")
	} else {
		pos := fmt.Sprintf("%d of %d", m.session.Cursor().Index+1, len(queue))
		card := renderItem(item, time.Now())
		if m.adviceFor == item.ID() && m.advice != "" {
			card += "\n\n" + mutedStyle.Render("Next step: "+m.advice)
		}
		s.WriteString(statStyle.Render(pos))
		s.WriteString("\n")
		s.WriteString(cardStyle.Width(max(m.width-4, 30)).Render(card))
		s.WriteString("\n")
	}

	if m.loading {
		s.WriteString(m.spinner.View() + " refreshing\n")
	}
	if n := m.session.PendingWrites(); n > 0 {
		s.WriteString(mutedStyle.Render(fmt.Sprintf("%d change(s) saving", n)))
		s.WriteString("\n")
	}
	for _, d := range m.degraded {
		s.WriteString(errorStyle.Render("Showing cached data, " + d))
		s.WriteString("\n")
	}
	for _, n := range m.notices {
		if n.Kind == focus.NoticeError {
			s.WriteString(errorStyle.Render("✗ " + n.Text))
		} else {
			s.WriteString(infoStyle.Render("✓ " + n.Text))
		}
		s.WriteString("\n")
	}

	s.WriteString(helpStyle.Render(m.help.View(keys)))
	return s.String()
}

func statsLine(st focus.Stats) string {
	return fmt.Sprintf("%d overdue • %d meetings today • %d tasks today • %d suggestions (%d high)",
		st.Overdue, st.TodayMeetings, st.TodayTasks, st.Suggestions, st.HighSuggestions)
}

func renderItem(item focus.FocusItem, now time.Time) string {
	var s strings.Builder

	band := item.Band()
	s.WriteString(bandStyles[band].Render(strings.ToUpper(band.String())))
	s.WriteString("\n")
	s.WriteString(itemTitleStyle.Render(item.Title()))
	s.WriteString("\n")

	item.Match(func(a models.Activity) {
		s.WriteString(fmt.Sprintf("%s • %s", a.Type, dueText(a.DueAt, now)))
		if a.Description != "" {
			s.WriteString("\n\n" + a.Description)
		}
	}, func(sg focus.Suggestion) {
		s.WriteString(fmt.Sprintf("%s • %s priority", sg.Key.Type, sg.Priority))
		if sg.Score > 0 {
			s.WriteString(fmt.Sprintf(" • score %.1f", sg.Score))
		}
		if sg.Description != "" {
			s.WriteString("\n\n" + sg.Description)
		}
		if sg.Deal != nil && sg.Deal.ContactName != "" {
			s.WriteString("\nContact: " + sg.Deal.ContactName)
		}
		if sg.Contact != nil && sg.Contact.Email != "" {
			s.WriteString("\nEmail: " + sg.Contact.Email)
		}
	})
	return s.String()
}

func dueText(due, now time.Time) string {
	switch days := focus.DaysOverdue(due, now); {
	case days == 0:
		return "due " + due.Local().Format("15:04")
	case days == 1:
		return "due yesterday"
	default:
		return fmt.Sprintf("%d days overdue", days)
	}
}
