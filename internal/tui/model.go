// Package tui is the interactive project browser: section tabs, the
// active section's tables and narrative fields, and a debounced global
// search that navigates to its results.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mesh-intelligence/planbook/internal/dashboard"
	"github.com/mesh-intelligence/planbook/internal/search"
	"github.com/mesh-intelligence/planbook/internal/session"
	"github.com/mesh-intelligence/planbook/pkg/types"
)

// DefaultDebounce is the pause after typing before a search runs.
const DefaultDebounce = 200 * time.Millisecond

var (
	headerStyle   = lipgloss.NewStyle().Bold(true)
	activeSection = lipgloss.NewStyle().Bold(true).Reverse(true).Padding(0, 1)
	otherSection  = lipgloss.NewStyle().Padding(0, 1)
	statusStyle   = lipgloss.NewStyle().Faint(true)
	selectedStyle = lipgloss.NewStyle().Bold(true)
)

type queryMsg string

type logoutMsg session.LogoutEvent

// Option configures a Model.
type Option func(*Model)

// WithGuard marks key presses as session activity and quits the browser
// when the guard logs out.
func WithGuard(g *session.Guard) Option { return func(m *Model) { m.guard = g } }

// WithKeyMap replaces the key bindings.
func WithKeyMap(k KeyMap) Option { return func(m *Model) { m.keys = k } }

// WithDebounce sets the search debounce delay.
func WithDebounce(d time.Duration) Option { return func(m *Model) { m.debounce = d } }

// Model is the bubbletea model of the browser.
type Model struct {
	ctx      context.Context
	view     *dashboard.ProjectView
	guard    *session.Guard
	keys     KeyMap
	debounce time.Duration

	input     textinput.Model
	viewport  viewport.Model
	queries   chan string
	debouncer *search.Debouncer
	logout    <-chan session.LogoutEvent
	unsub     func()

	searching   bool
	pendingSort bool
	results     []types.SearchItem
	cursor      int
	status      string
	width       int
	height      int
}

// New returns a browser over view.
func New(ctx context.Context, view *dashboard.ProjectView, opts ...Option) Model {
	m := Model{
		ctx:      ctx,
		view:     view,
		keys:     DefaultKeyMap,
		debounce: DefaultDebounce,
		queries:  make(chan string, 1),
		viewport: viewport.New(80, 20),
		unsub:    func() {},
	}
	for _, opt := range opts {
		opt(&m)
	}

	m.input = textinput.New()
	m.input.Placeholder = "Search all sections"
	m.input.Prompt = "/ "

	queries := m.queries
	m.debouncer = search.NewDebouncer(m.debounce, func(q string) {
		for {
			select {
			case queries <- q:
				return
			case <-queries:
			}
		}
	})
	if m.guard != nil {
		m.logout, m.unsub = m.guard.Broadcaster().Subscribe()
	}
	m.refresh()
	return m
}

func waitForQuery(ch <-chan string) tea.Cmd {
	return func() tea.Msg { return queryMsg(<-ch) }
}

func waitForLogout(ch <-chan session.LogoutEvent) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return logoutMsg(ev)
	}
}

// Init starts listening for debounced queries and logout events.
func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForQuery(m.queries), waitForLogout(m.logout))
}

// Update handles one message.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-8, 3)
		m.refresh()
		return m, nil

	case queryMsg:
		m.runQuery(string(msg))
		return m, waitForQuery(m.queries)

	case logoutMsg:
		m.status = fmt.Sprintf("Session ended (%s). Run planbook login to continue.", msg.Reason)
		return m, m.quit()

	case tea.KeyMsg:
		if m.guard != nil {
			m.guard.MarkActivity()
		}
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.updateBrowse(msg)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) quit() tea.Cmd {
	m.debouncer.Stop()
	m.unsub()
	return tea.Quit
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.pendingSort {
		m.pendingSort = false
		if n, err := strconv.Atoi(msg.String()); err == nil {
			m.sortColumn(n)
			m.refresh()
			return m, nil
		}
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, m.quit()
	case key.Matches(msg, m.keys.NextSection):
		m.stepSection(1)
	case key.Matches(msg, m.keys.PrevSection):
		m.stepSection(-1)
	case key.Matches(msg, m.keys.Up):
		m.stepItem(-1)
	case key.Matches(msg, m.keys.Down):
		m.stepItem(1)
	case key.Matches(msg, m.keys.Search):
		m.searching = true
		m.status = ""
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.Sort):
		m.pendingSort = true
		m.status = "Sort by column number..."
		return m, nil
	case key.Matches(msg, m.keys.Reload):
		if err := m.view.Reload(m.ctx); err != nil {
			m.status = err.Error()
		} else {
			m.status = "Reloaded"
		}
	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	m.refresh()
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.closeSearch()
		return m, nil
	case key.Matches(msg, m.keys.Accept):
		if len(m.results) > 0 {
			item := m.results[m.cursor]
			if err := m.view.Search().Select(m.ctx, item); err != nil {
				m.status = err.Error()
			} else {
				m.status = item.SectionLabel + " / " + item.GroupLabel + ": " + item.Label
			}
		}
		m.closeSearch()
		m.refresh()
		return m, nil
	case msg.Type == tea.KeyUp:
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case msg.Type == tea.KeyDown:
		if m.cursor < len(m.results)-1 {
			m.cursor++
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.debouncer.Push(m.input.Value())
	return m, cmd
}

func (m *Model) closeSearch() {
	m.searching = false
	m.input.Blur()
	m.input.Reset()
	m.results = nil
	m.cursor = 0
}

// runQuery searches every section. Sections not yet loaded are loaded
// first so their content is indexed.
func (m *Model) runQuery(q string) {
	if !m.searching {
		return
	}
	if err := m.view.LoadAll(m.ctx); err != nil {
		m.status = err.Error()
	}
	m.results = m.view.Search().Query(q)
	m.cursor = 0
}

func (m *Model) stepSection(delta int) {
	sections := m.view.Sections()
	if len(sections) == 0 {
		return
	}
	i := 0
	for j, s := range sections {
		if s.Schema().ID == m.view.ActiveSection() {
			i = j
		}
	}
	i = (i + delta + len(sections)) % len(sections)
	if err := m.view.ActivateSection(m.ctx, sections[i].Schema().ID); err != nil {
		m.status = err.Error()
	} else {
		m.status = ""
	}
	m.viewport.GotoTop()
}

func (m *Model) stepItem(delta int) {
	sec, err := m.view.Section(m.view.ActiveSection())
	if err != nil {
		return
	}
	shell := sec.Shell()
	items := shell.Items()
	for i, it := range items {
		if it.ID != shell.Active() {
			continue
		}
		j := i + delta
		if j < 0 || j >= len(items) {
			return
		}
		if err := shell.Select(items[j].ID); err == nil {
			shell.SettleScroll()
		}
		return
	}
}

// sortColumn toggles sorting on visible column n (1-based) of the active
// table.
func (m *Model) sortColumn(n int) {
	sec, err := m.view.Section(m.view.ActiveSection())
	if err != nil {
		return
	}
	tableKey, ok := strings.CutPrefix(sec.Shell().Active(), "table-")
	if !ok {
		m.status = "The active item is not a table"
		return
	}
	tbl, err := m.view.Table(sec.Schema().ID, tableKey)
	if err != nil {
		m.status = err.Error()
		return
	}
	cols := tbl.VisibleColumns()
	if n < 1 || n > len(cols) {
		m.status = fmt.Sprintf("No column %d", n)
		return
	}
	tbl.ToggleSort(cols[n-1].Key)
	s := tbl.Sort()
	if s.Key == "" {
		m.status = ""
		return
	}
	m.status = fmt.Sprintf("Sorted by %s (%s)", cols[n-1].Label, s.Direction)
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.view.Render())
}

func (m Model) sectionBar() string {
	tabs := make([]string, 0, len(m.view.Sections()))
	for _, s := range m.view.Sections() {
		style := otherSection
		if s.Schema().ID == m.view.ActiveSection() {
			style = activeSection
		}
		tabs = append(tabs, style.Render(s.Schema().ID))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) searchPanel() string {
	lines := []string{m.input.View()}
	if strings.TrimSpace(m.input.Value()) != "" && m.results != nil && len(m.results) == 0 {
		lines = append(lines, statusStyle.Render("No results"))
	}
	for i, r := range m.results {
		line := fmt.Sprintf("%s / %s: %s", r.SectionLabel, r.GroupLabel, r.Label)
		if i == m.cursor {
			line = selectedStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m Model) help() string {
	parts := make([]string, 0, len(m.keys.ShortHelp()))
	for _, b := range m.keys.ShortHelp() {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return statusStyle.Render(strings.Join(parts, " • "))
}

// View renders the browser.
func (m Model) View() string {
	p, u := m.view.Project(), m.view.User()
	header := headerStyle.Render(p.Name) + statusStyle.Render(fmt.Sprintf("  %s (%s)", u.Username, u.Role))
	parts := []string{header, m.sectionBar()}
	if m.searching {
		parts = append(parts, m.searchPanel())
	} else {
		parts = append(parts, m.viewport.View())
	}
	if m.status != "" {
		parts = append(parts, statusStyle.Render(m.status))
	}
	parts = append(parts, m.help())
	return strings.Join(parts, "\n")
}
