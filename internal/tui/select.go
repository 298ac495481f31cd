// Package tui provides interactive terminal UI components.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lepinkainen/concierge/internal/record"
)

const (
	defaultTableWidth  = 100
	defaultTableHeight = 15
	maxColumnWidth     = 24
	minColumnWidth     = 4
)

var runProgram = func(m tea.Model) (tea.Model, error) {
	return tea.NewProgram(m).Run()
}

// SelectionAction represents the user's action in the browser.
type SelectionAction int

const (
	// ActionNone indicates no action was taken.
	ActionNone SelectionAction = iota
	// ActionSelected indicates the user picked a row.
	ActionSelected
	// ActionQuit indicates the user left without picking a row.
	ActionQuit
)

// SelectionResult holds the outcome of a browse session.
type SelectionResult struct {
	Action SelectionAction
	// Index is the picked row's position in the table passed to Browse,
	// or -1.
	Index int
}

type model struct {
	title   string
	table   table.Model
	rows    record.Table
	indexes []int
	columns []string
	result  SelectionResult
}

func newModel(title string, rows record.Table, indexes []int) *model {
	columns := rows.Columns()

	tableColumns := make([]table.Column, len(columns))
	for i, col := range columns {
		tableColumns[i] = table.Column{Title: col, Width: columnWidth(col, rows)}
	}

	tableRows := make([]table.Row, len(rows))
	for i, rec := range rows {
		cells := make(table.Row, len(columns))
		for j, col := range columns {
			cells[j] = truncate(rec.String(col), maxColumnWidth)
		}
		tableRows[i] = cells
	}

	t := table.New(
		table.WithColumns(tableColumns),
		table.WithRows(tableRows),
		table.WithFocused(true),
		table.WithHeight(clamp(defaultTableHeight, len(tableRows)+1, 2)),
		table.WithWidth(defaultTableWidth),
	)
	t.SetStyles(newTableStyles())

	return &model{
		title:   title,
		table:   t,
		rows:    rows,
		indexes: indexes,
		columns: columns,
		result:  SelectionResult{Action: ActionNone, Index: -1},
	}
}

func newTableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("62")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("230")).
		Background(lipgloss.Color("237")).
		Bold(false)
	return s
}

func (m *model) Init() tea.Cmd { return nil }

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			if cursor := m.table.Cursor(); cursor >= 0 && cursor < len(m.indexes) {
				m.result = SelectionResult{Action: ActionSelected, Index: m.indexes[cursor]}
				return m, tea.Quit
			}
		case "ctrl+c", "q", "esc":
			m.result = SelectionResult{Action: ActionQuit, Index: -1}
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.table.SetWidth(clamp(defaultTableWidth, msg.Width-4, 40))
		m.table.SetHeight(clamp(defaultTableHeight, msg.Height-12, 2))
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *model) View() string {
	header := headerStyle.Render(fmt.Sprintf("%s (%d rows)", m.title, len(m.rows)))
	help := helpStyle.Render("Up/Down navigate | Enter select | q quit")
	return lipgloss.JoinVertical(lipgloss.Left, header, m.table.View(), m.detail(), help)
}

// detail renders every column of the highlighted row, untruncated.
func (m *model) detail() string {
	cursor := m.table.Cursor()
	if cursor < 0 || cursor >= len(m.rows) {
		return ""
	}
	rec := m.rows[cursor]
	lines := make([]string, 0, rec.Len())
	for _, f := range rec.Fields() {
		lines = append(lines, keyStyle.Render(f.Key+":")+" "+record.FormatValue(f.Value))
	}
	return detailStyle.Render(strings.Join(lines, "\n"))
}

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214")).
			MarginBottom(1)

	keyStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("110"))

	detailStyle = lipgloss.NewStyle().
			MarginTop(1).
			Padding(0, 1).
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("62"))

	helpStyle = lipgloss.NewStyle().
			MarginTop(1).
			Foreground(lipgloss.Color("244"))
)

// Browse shows the rows of a sheet matching search and lets the user pick
// one. An empty search shows every row. The returned index refers to rows.
func Browse(title string, rows record.Table, search string) (SelectionResult, error) {
	var shown record.Table
	var indexes []int
	for i, rec := range rows {
		if rec.Matches(search) {
			shown = append(shown, rec)
			indexes = append(indexes, i)
		}
	}
	if len(shown) == 0 {
		return SelectionResult{Action: ActionNone, Index: -1}, nil
	}

	finalModel, err := runProgram(newModel(title, shown, indexes))
	if err != nil {
		return SelectionResult{}, err
	}
	if typed, ok := finalModel.(*model); ok {
		return typed.result, nil
	}
	return SelectionResult{}, fmt.Errorf("unexpected program result")
}

func columnWidth(column string, rows record.Table) int {
	width := len(column)
	for _, rec := range rows {
		if n := len(rec.String(column)); n > width {
			width = n
		}
	}
	if width > maxColumnWidth {
		width = maxColumnWidth
	}
	if width < minColumnWidth {
		width = minColumnWidth
	}
	return width
}

func truncate(value string, width int) string {
	value = strings.Join(strings.Fields(value), " ")
	if width <= 0 || len(value) <= width {
		return value
	}
	if width <= 3 {
		return value[:width]
	}
	return value[:width-3] + "..."
}

func clamp(defaultValue, available, minimum int) int {
	width := defaultValue
	if available > 0 && available < defaultValue {
		width = available
	}
	if width < minimum {
		width = minimum
	}
	return width
}
