package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/tui-scratch/internal/betting"
	"github.com/vovakirdan/tui-scratch/internal/storage"
)

const maxHistory = 100

// historyTab selects the table shown by the history screen.
type historyTab int

const (
	tabRounds historyTab = iota
	tabAutoRuns
)

func (t historyTab) String() string {
	if t == tabAutoRuns {
		return "Auto runs"
	}
	return "Rounds"
}

// HistoryKeyMap defines the key bindings for the history screen.
type HistoryKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	NextTab key.Binding
	Reload  key.Binding
	Back    key.Binding
	Quit    key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k HistoryKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.NextTab, k.Reload, k.Back}
}

// FullHelp returns key bindings for the full help view.
func (k HistoryKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.NextTab},
		{k.Reload, k.Back, k.Quit},
	}
}

// DefaultHistoryKeyMap returns default key bindings.
func DefaultHistoryKeyMap() HistoryKeyMap {
	return HistoryKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "scroll down"),
		),
		NextTab: key.NewBinding(
			key.WithKeys("tab", "shift+tab", "left", "right"),
			key.WithHelp("tab", "rounds/runs"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "b", "y"),
			key.WithHelp("esc/b", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// HistoryModel lists recorded rounds and auto runs.
type HistoryModel struct {
	store    *storage.Store
	tab      historyTab
	rounds   []betting.RoundRecord
	runs     []betting.AutoRunRecord
	stats    storage.Stats
	loadErr  error
	table    table.Model
	help     help.Model
	keys     HistoryKeyMap
	width    int
	height   int
	embedded bool // back returns to the game instead of quitting
	quitting bool
	back     bool
}

// NewHistoryModel creates a history screen reading from store, which may be nil.
func NewHistoryModel(store *storage.Store, width, height int) HistoryModel {
	h := help.New()
	h.ShowAll = false

	m := HistoryModel{
		store:  store,
		keys:   DefaultHistoryKeyMap(),
		help:   h,
		width:  width,
		height: height,
	}
	m.table = m.createTable()
	m.reload()
	return m
}

func (m *HistoryModel) createTable() table.Model {
	var columns []table.Column
	if m.tab == tabAutoRuns {
		columns = []table.Column{
			{Title: "Started", Width: 14},
			{Title: "Bets", Width: 6},
			{Title: "Played", Width: 7},
			{Title: "Stop", Width: 12},
			{Title: "Done", Width: 5},
		}
	} else {
		columns = []table.Column{
			{Title: "Time", Width: 14},
			{Title: "Mode", Width: 7},
			{Title: "Src", Width: 5},
			{Title: "Bet", Width: 12},
			{Title: "Result", Width: 6},
			{Title: "Key", Width: 9},
			{Title: "Reason", Width: 9},
		}
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(max(m.height-9, 3)),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return t
}

// reload reads history from the store.
func (m *HistoryModel) reload() {
	m.rounds, m.runs, m.loadErr = nil, nil, nil
	if m.store != nil {
		if m.rounds, m.loadErr = m.store.RecentRounds(maxHistory); m.loadErr == nil {
			if m.runs, m.loadErr = m.store.RecentAutoRuns(maxHistory); m.loadErr == nil {
				m.stats, m.loadErr = m.store.Stats()
			}
		}
	}
	m.updateTableRows()
}

func (m *HistoryModel) updateTableRows() {
	var rows []table.Row
	if m.tab == tabAutoRuns {
		rows = make([]table.Row, len(m.runs))
		for i, r := range m.runs {
			bets := "∞"
			if r.RequestedBets > 0 {
				bets = fmt.Sprintf("%d", r.RequestedBets)
			}
			done := "no"
			if r.Completed {
				done = "yes"
			}
			rows[i] = table.Row{
				r.StartedAt.Local().Format("Jan 02 15:04"),
				bets,
				fmt.Sprintf("%d", r.RoundsPlayed),
				r.StopReason,
				done,
			}
		}
	} else {
		rows = make([]table.Row, len(m.rounds))
		for i, r := range m.rounds {
			result := string(r.Result)
			if result == "" {
				result = "-"
			}
			rows[i] = table.Row{
				r.CreatedAt.Local().Format("Jan 02 15:04"),
				string(r.Mode),
				r.Source,
				betting.FormatAmount(r.Bet),
				result,
				string(r.WinningKey),
				string(r.Reason),
			}
		}
	}
	m.table.SetRows(rows)
	m.table.GotoTop()
}

// Init initializes the history model.
func (m HistoryModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the history screen.
func (m HistoryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Back):
			m.back = true
			if m.embedded {
				return m, nil
			}
			return m, tea.Quit

		case key.Matches(msg, m.keys.NextTab):
			m.tab = (m.tab + 1) % 2
			m.table = m.createTable()
			m.updateTableRows()
			return m, nil

		case key.Matches(msg, m.keys.Reload):
			m.reload()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table = m.createTable()
		m.updateTableRows()
		m.help.Width = msg.Width
		return m, nil
	}

	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the history screen.
func (m HistoryModel) View() string {
	if m.quitting || (m.back && !m.embedded) {
		return ""
	}

	var b strings.Builder

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("229")).
		Render("HISTORY - " + m.tab.String())
	b.WriteString(title)
	b.WriteString("\n")

	rate := fmt.Sprintf("%d rounds · %d won · %d lost · win rate %.0f%% · %d auto runs",
		m.stats.Rounds, m.stats.Wins, m.stats.Losses, m.stats.WinRate()*100, m.stats.AutoRuns)
	b.WriteString(labelStyle.Render(rate))
	b.WriteString("\n\n")

	tableStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)
	b.WriteString(tableStyle.Render(m.renderTableContent()))

	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.help.View(m.keys)))

	return b.String()
}

func (m HistoryModel) renderTableContent() string {
	empty := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		Italic(true).
		Padding(2, 4)

	switch {
	case m.store == nil:
		return empty.Render("History is unavailable without a database.")
	case m.loadErr != nil:
		return empty.Render("Could not load history:\n" + m.loadErr.Error())
	case m.tab == tabRounds && len(m.rounds) == 0:
		return empty.Render("No rounds recorded yet.\nPlace a bet to start!")
	case m.tab == tabAutoRuns && len(m.runs) == 0:
		return empty.Render("No auto runs recorded yet.")
	}
	return m.table.View()
}

// IsGoingBack returns true if the user left the history screen.
func (m HistoryModel) IsGoingBack() bool {
	return m.back
}

// IsQuitting returns true if user wants to quit entirely.
func (m HistoryModel) IsQuitting() bool {
	return m.quitting
}

// RunHistory runs the history screen as its own program.
func RunHistory(store *storage.Store, width, height int) error {
	p := tea.NewProgram(
		NewHistoryModel(store, width, height),
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}
