// Package tui renders the terminal dashboard: the live list of monitored
// sessions grouped under their projects, driven by the display order.
package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/grovetools/lookout/internal/displayorder"
	"github.com/grovetools/lookout/internal/store"
	"github.com/grovetools/lookout/internal/transcripts"
	"github.com/grovetools/lookout/internal/watch"
	"github.com/grovetools/lookout/pkg/models"
	"github.com/grovetools/lookout/pkg/paths"
	"github.com/sirupsen/logrus"
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	selectedStyle = lipgloss.NewStyle().Reverse(true)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	statusStyles = map[models.Status]lipgloss.Style{
		models.StatusRunning:      lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		models.StatusWaitingInput: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		models.StatusStopped:      lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	}
)

type refreshMsg struct{}

type tickMsg time.Time

// Model is the dashboard's bubbletea model.
type Model struct {
	store *store.Store
	keys  keyMap
	help  help.Model

	data     *models.StoreData
	selected int
	width    int
	height   int
	showHelp bool

	// refined holds display-only status refinements for external sessions,
	// derived from who spoke last in their transcript. The persisted status
	// is never altered.
	refined map[string]models.Status
}

// NewModel creates the dashboard model.
func NewModel(st *store.Store) Model {
	m := Model{
		store: st,
		keys:  defaultKeyMap(),
		help:  help.New(),
	}
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(2*time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// selectedKey returns the session key at the current selection.
func (m Model) selectedKey() string {
	n := 0
	for _, it := range m.data.DisplayOrder {
		if it.Type != models.ItemTypeSession {
			continue
		}
		if n == m.selected {
			return it.Key
		}
		n++
	}
	return ""
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		m.refresh()
		return m, tick()

	case refreshMsg:
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		total := displayorder.CountSessions(m.data.DisplayOrder)
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			if m.selected > 0 {
				m.selected--
			}
		case key.Matches(msg, m.keys.Down):
			if m.selected < total-1 {
				m.selected++
			}
		case key.Matches(msg, m.keys.MoveUp):
			if k := m.selectedKey(); k != "" {
				m.store.MoveSession(k, -1)
				m.refresh()
			}
		case key.Matches(msg, m.keys.MoveDown):
			if k := m.selectedKey(); k != "" {
				m.store.MoveSession(k, 1)
				m.refresh()
			}
		case key.Matches(msg, m.keys.Ungroup):
			if k := m.selectedKey(); k != "" {
				m.store.AssignSessionToProject(k, models.UngroupedProjectID)
				m.refresh()
			}
		case key.Matches(msg, m.keys.Refresh):
			m.store.Reload()
			m.refresh()
		case key.Matches(msg, m.keys.Help):
			m.showHelp = !m.showHelp
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) refresh() {
	m.data = m.store.Data()
	total := displayorder.CountSessions(m.data.DisplayOrder)
	if total == 0 {
		m.selected = 0
	} else if m.selected >= total {
		m.selected = total - 1
	}

	m.refined = make(map[string]models.Status)
	for k, sess := range m.data.Sessions {
		if sess.Agent != models.AgentExternal || sess.TranscriptPath == "" {
			continue
		}
		speaker, ok := transcripts.LastMeaningfulEntry(sess.TranscriptPath)
		if !ok {
			continue
		}
		if speaker == transcripts.SpeakerAssistant {
			m.refined[k] = models.StatusWaitingInput
		} else {
			m.refined[k] = models.StatusRunning
		}
	}
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("lookout"))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %d sessions", displayorder.CountSessions(m.data.DisplayOrder))))
	b.WriteString("\n\n")

	viewHeight := m.height - 4
	if viewHeight < 1 {
		viewHeight = 20
	}
	vp := displayorder.Window(m.selected, viewHeight, displayorder.CountSessions(m.data.DisplayOrder))
	rows := displayorder.VisibleRows(m.data.DisplayOrder, vp)

	if len(rows) == 0 {
		b.WriteString(dimStyle.Render("no sessions yet, waiting for hook events"))
		b.WriteString("\n")
	}

	for _, row := range rows {
		switch row.Type {
		case displayorder.RowHeader:
			name := "ungrouped"
			if p, ok := m.data.Projects[row.ProjectID]; ok {
				name = p.Name
			}
			b.WriteString(headerStyle.Render("▸ " + name))
			b.WriteString("\n")
		case displayorder.RowSession:
			b.WriteString(m.renderSession(row))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	if m.showHelp {
		b.WriteString(m.help.FullHelpView(m.keys.FullHelp()))
	} else {
		b.WriteString(m.help.ShortHelpView(m.keys.ShortHelp()))
	}
	return b.String()
}

func (m Model) renderSession(row displayorder.Row) string {
	sess, ok := m.data.Sessions[row.Key]
	if !ok {
		return ""
	}

	status := sess.Status
	if refined, ok := m.refined[row.Key]; ok {
		status = refined
	}
	marker := statusStyles[status].Render("●")
	label := filepath.Base(sess.CWD)
	if label == "." || label == "" {
		label = sess.SessionID
	}

	detail := sess.LastPrompt
	if sess.Status == models.StatusRunning && sess.CurrentTool != "" {
		detail = sess.CurrentTool
	}
	detail = truncate(detail, 60)

	line := fmt.Sprintf(" %2d %s %-24s %s", row.Number, marker, truncate(label, 24), dimStyle.Render(detail))
	if row.Number-1 == m.selected {
		return selectedStyle.Render(line)
	}
	return line
}

func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 1 {
		return string(r[:max])
	}
	return string(r[:max-1]) + "…"
}

// Run starts the dashboard, reloading on store-file changes until the
// program exits.
func Run(st *store.Store, logger *logrus.Entry) error {
	p := tea.NewProgram(NewModel(st), tea.WithAltScreen())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w, err := watch.New(paths.StorePath(), 0, logger, func() {
		st.Reload()
		p.Send(refreshMsg{})
	})
	if err != nil {
		logger.WithError(err).Warn("store watcher unavailable, falling back to polling")
	} else {
		go w.Run(ctx)
	}

	_, err = p.Run()
	return err
}
