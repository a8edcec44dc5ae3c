package dashboard

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/mesh-intelligence/planbook/internal/grid"
	"github.com/mesh-intelligence/planbook/internal/nav"
	"github.com/mesh-intelligence/planbook/pkg/types"
)

// EmptyCell is shown for cells without a value.
const EmptyCell = "-"

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	labelStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	mutedStyle  = lipgloss.NewStyle().Faint(true)
	activeTab   = lipgloss.NewStyle().Bold(true).Reverse(true).Padding(0, 1)
	inactiveTab = lipgloss.NewStyle().Padding(0, 1)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// CellText renders one cell: dates in display form, EmptyCell for blanks.
func CellText(c types.ColumnDef, v any) string {
	s := strings.TrimSpace(types.Stringify(v))
	if s == "" {
		return EmptyCell
	}
	if c.IsDate() {
		return grid.FormatDate(s)
	}
	return s
}

// HeaderText renders a column header with the sort indicator.
func HeaderText(c types.ColumnDef, sort grid.SortState) string {
	if sort.Key != c.Key {
		return c.Label
	}
	if sort.Direction == grid.Desc {
		return c.Label + " ▼"
	}
	return c.Label + " ▲"
}

// RenderTable draws the table's current view.
func RenderTable(t *Table) string {
	ts := t.Schema()
	var b strings.Builder
	b.WriteString(titleStyle.Render(ts.Title))
	b.WriteString("\n")
	if t.Loading() {
		b.WriteString(mutedStyle.Render("Loading..."))
		return b.String()
	}

	rows := t.View()
	if len(rows) == 0 {
		b.WriteString(mutedStyle.Render(t.EmptyMessage()))
		return b.String()
	}

	cols := t.VisibleColumns()
	headers := make([]string, len(cols))
	for i, c := range cols {
		headers[i] = HeaderText(c, t.Sort())
	}
	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, r := range rows {
		cells := make([]string, len(cols))
		for i, c := range cols {
			cells[i] = CellText(c, r[c.Key])
		}
		tbl.Row(cells...)
	}
	b.WriteString(tbl.String())
	return b.String()
}

// RenderNarrative draws every field of a narrative group.
func RenderNarrative(n *Narrative) string {
	if n.Loading() {
		return mutedStyle.Render("Loading...")
	}
	parts := make([]string, 0, len(n.Defs()))
	for _, d := range n.Defs() {
		var b strings.Builder
		b.WriteString(labelStyle.Render(d.Label))
		if n.Dirty(d.Field) {
			b.WriteString(" " + mutedStyle.Render("(unsaved)"))
		}
		b.WriteString("\n")
		v := n.Value(d.Field)
		if strings.TrimSpace(v.Content) == "" {
			b.WriteString(mutedStyle.Render(n.Display(d.Field)))
		} else {
			b.WriteString(v.Content)
		}
		if v.HasImage() {
			b.WriteString("\n" + mutedStyle.Render("[image attached]"))
		}
		parts = append(parts, b.String())
	}
	return strings.Join(parts, "\n\n")
}

// RenderTabs draws the item labels of a shell with the active one
// highlighted.
func RenderTabs(s *nav.Shell) string {
	tabs := make([]string, 0, len(s.Items()))
	for _, it := range s.Items() {
		style := inactiveTab
		if it.ID == s.Active() {
			style = activeTab
		}
		tabs = append(tabs, style.Render(it.Label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

// RenderSection draws a section title, its tab bar in Tabs mode and the
// shell content.
func RenderSection(sec *Section) string {
	parts := []string{titleStyle.Render(sec.schema.ID + " " + sec.schema.Title)}
	if sec.shell.Mode() == nav.Tabs && len(sec.shell.Items()) > 1 {
		parts = append(parts, RenderTabs(sec.shell))
	}
	parts = append(parts, sec.shell.Render())
	return strings.Join(parts, "\n\n")
}
