package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	accent = lipgloss.Color("#D97706")
	dim    = lipgloss.Color("#6B7280")

	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(accent)
	titleStyle   = lipgloss.NewStyle().Bold(true)
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	groupStyle   = cellStyle.Bold(true)
	totalStyle   = cellStyle.Bold(true).Foreground(accent)
	borderStyle  = lipgloss.NewStyle().Foreground(dim)
)

// Text renders tables for a terminal.
func Text(heading string, tables []Table) string {
	var b strings.Builder
	b.WriteString(headingStyle.Render(heading))
	b.WriteString("\n\n")
	for _, t := range tables {
		if t.Title != "" {
			b.WriteString(titleStyle.Render(t.Title))
			b.WriteString("\n")
		}
		b.WriteString(textTable(t))
		b.WriteString("\n\n")
	}
	return b.String()
}

func textTable(t Table) string {
	rows := make([][]string, len(t.Rows))
	for i, r := range t.Rows {
		rows[i] = r.Cells
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(t.Header...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			var s lipgloss.Style
			switch {
			case row == table.HeaderRow:
				s = headerStyle
			case row >= 0 && row < len(t.Rows) && t.Rows[row].Kind == RowGroup:
				s = groupStyle
			case row >= 0 && row < len(t.Rows) && t.Rows[row].Kind == RowTotal:
				s = totalStyle
			default:
				s = cellStyle
			}
			if col >= 2 {
				s = s.Align(lipgloss.Right)
			}
			return s
		}).
		Render()
}
