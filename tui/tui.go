// ABOUTME: Terminal focus mode using the bubbletea framework
// ABOUTME: One item at a time; actions update the screen at once while writes settle in the background
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/harperreed/focus/focus"
)

const maxNotices = 3

type keyMap struct {
	Next, Prev, Skip      key.Binding
	Done, Snooze, Dismiss key.Binding
	Refresh, Advice, Help key.Binding
	Quit                  key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Done, k.Snooze, k.Dismiss, k.Skip, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev, k.Skip},
		{k.Done, k.Snooze, k.Dismiss},
		{k.Refresh, k.Advice, k.Help, k.Quit},
	}
}

var keys = keyMap{
	Next:    key.NewBinding(key.WithKeys("j", "down", "right"), key.WithHelp("j/↓", "next")),
	Prev:    key.NewBinding(key.WithKeys("k", "up", "left"), key.WithHelp("k/↑", "previous")),
	Skip:    key.NewBinding(key.WithKeys("s", "tab"), key.WithHelp("s", "skip")),
	Done:    key.NewBinding(key.WithKeys("d", "enter"), key.WithHelp("d", "done")),
	Snooze:  key.NewBinding(key.WithKeys("z"), key.WithHelp("z", "snooze")),
	Dismiss: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "dismiss")),
	Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Advice:  key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next step")),
	Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
}

// Messages produced by background commands.
type (
	refreshedMsg struct{ err error }
	briefingMsg  struct{ text string }
	adviceMsg    struct {
		itemID string
		text   string
	}
	writesSettledMsg struct{ results []writeResult }
)

type writeResult struct {
	write  focus.Write
	realID string
	err    error
}

// Model is the bubbletea model for focus mode.
type Model struct {
	session *focus.Session
	ctx     context.Context

	spinner spinner.Model
	help    help.Model

	loading   bool
	briefing  string
	advice    string
	adviceFor string
	notices   []focus.Notice
	degraded  []string

	width  int
	height int
}

// NewModel creates a focus model over session. ctx bounds every background call.
func NewModel(ctx context.Context, session *focus.Session) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("170"))

	return Model{
		session: session,
		ctx:     ctx,
		spinner: sp,
		help:    help.New(),
		loading: true,
		width:   80,
		height:  24,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.refresh())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case refreshedMsg:
		m.loading = false
		m.degraded = focus.SourceErrors(msg.err)
		if m.briefing == "" {
			return m, m.brief()
		}
		return m, nil

	case briefingMsg:
		m.briefing = msg.text
		return m, nil

	case adviceMsg:
		m.advice, m.adviceFor = msg.text, msg.itemID
		return m, nil

	case writesSettledMsg:
		for _, r := range msg.results {
			m.notify(m.session.Settle(r.write, r.realID, r.err))
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, keys.Next):
		m.notify(m.session.Navigate(focus.Next{}))
	case key.Matches(msg, keys.Prev):
		m.notify(m.session.Navigate(focus.Prev{}))
	case key.Matches(msg, keys.Skip):
		m.notify(m.session.Navigate(focus.Skip{}))
	case key.Matches(msg, keys.Done):
		return m.act(focus.ActionDone)
	case key.Matches(msg, keys.Snooze):
		return m.act(focus.ActionSnooze)
	case key.Matches(msg, keys.Dismiss):
		return m.act(focus.ActionDismiss)
	case key.Matches(msg, keys.Refresh):
		m.loading = true
		return m, tea.Batch(m.spinner.Tick, m.refresh())
	case key.Matches(msg, keys.Advice):
		return m, m.nextStep()
	}
	return m, nil
}

// act applies the action at once and hands its writes to a background command.
func (m Model) act(action focus.Action) (tea.Model, tea.Cmd) {
	writes, notice, err := m.session.Act(action)
	if err != nil {
		m.notify(focus.Notice{Kind: focus.NoticeError, Text: err.Error()})
		return m, nil
	}
	m.notify(notice)
	if len(writes) == 0 {
		return m, nil
	}

	ctx := m.ctx
	return m, func() tea.Msg {
		results := make([]writeResult, 0, len(writes))
		for _, w := range writes {
			realID, err := w.Run(ctx)
			results = append(results, writeResult{write: w, realID: realID, err: err})
		}
		return writesSettledMsg{results: results}
	}
}

func (m Model) refresh() tea.Cmd {
	session, ctx := m.session, m.ctx
	return func() tea.Msg {
		return refreshedMsg{err: session.Refresh(ctx)}
	}
}

func (m Model) brief() tea.Cmd {
	session, ctx := m.session, m.ctx
	return func() tea.Msg {
		return briefingMsg{text: session.Briefing(ctx)}
	}
}

func (m Model) nextStep() tea.Cmd {
	item, ok := m.session.Current()
	if !ok {
		return nil
	}
	session, ctx := m.session, m.ctx
	return func() tea.Msg {
		text, _ := session.NextBestAction(ctx)
		return adviceMsg{itemID: item.ID(), text: text}
	}
}

func (m *Model) notify(n focus.Notice) {
	if n.Kind == focus.NoticeNone {
		return
	}
	m.notices = append(m.notices, n)
	if len(m.notices) > maxNotices {
		m.notices = m.notices[len(m.notices)-maxNotices:]
	}
}

// Run starts focus mode full screen.
func Run(ctx context.Context, session *focus.Session) error {
	_, err := tea.NewProgram(NewModel(ctx, session), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
