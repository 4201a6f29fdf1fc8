package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"

	"github.com/yildizm/NgramLens/internal/table"
)

// ResultViewer is a scrollable window over a rendered result table
type ResultViewer struct {
	Title   string
	View    table.View
	Offset  int
	Focused bool
	Width   int
	Height  int
}

// NewResultViewer creates a new result viewer
func NewResultViewer(title string, width, height int) *ResultViewer {
	return &ResultViewer{
		Title:  title,
		Width:  width,
		Height: height,
	}
}

// SetView replaces the table. The previous rows are dropped, never merged.
func (v *ResultViewer) SetView(view table.View) {
	v.View = view
	v.clamp()
}

// SetFocused sets the focus state of the viewer
func (v *ResultViewer) SetFocused(focused bool) {
	v.Focused = focused
}

// ScrollDown moves the window one row down
func (v *ResultViewer) ScrollDown() {
	v.Offset++
	v.clamp()
}

// ScrollUp moves the window one row up
func (v *ResultViewer) ScrollUp() {
	v.Offset--
	v.clamp()
}

// PageDown moves the window one page down
func (v *ResultViewer) PageDown() {
	v.Offset += v.pageSize()
	v.clamp()
}

// PageUp moves the window one page up
func (v *ResultViewer) PageUp() {
	v.Offset -= v.pageSize()
	v.clamp()
}

// pageSize is the number of rows that fit: title, blank, borders, header
// rule and footer take seven lines
func (v *ResultViewer) pageSize() int {
	return max(1, v.Height-7)
}

func (v *ResultViewer) clamp() {
	v.Offset = min(v.Offset, len(v.View.Rows)-v.pageSize())
	v.Offset = max(v.Offset, 0)
}

// VisibleRows returns the rows inside the window
func (v *ResultViewer) VisibleRows() [][]string {
	end := min(v.Offset+v.pageSize(), len(v.View.Rows))
	if v.Offset >= end {
		return nil
	}
	return v.View.Rows[v.Offset:end]
}

// Render renders the viewer
func (v *ResultViewer) Render() string {
	primaryColor := lipgloss.AdaptiveColor{Light: "#3B82F6", Dark: "#60A5FA"}
	secondaryColor := lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}

	headerStyle := lipgloss.NewStyle().Foreground(primaryColor).Bold(true)
	mutedStyle := lipgloss.NewStyle().Foreground(secondaryColor)

	content := []string{headerStyle.Render(v.Title), ""}

	switch {
	case len(v.View.Headers) == 0:
		content = append(content, mutedStyle.Render("-"))
	case v.View.Empty:
		content = append(content, mutedStyle.Render(v.View.EmptyMessage))
	default:
		content = append(content, v.renderTable())
		rows := len(v.View.Rows)
		if rows > v.pageSize() {
			end := min(v.Offset+v.pageSize(), rows)
			content = append(content, mutedStyle.Render(fmt.Sprintf("(%d-%d of %d)", v.Offset+1, end, rows)))
		}
	}

	border := secondaryColor
	if v.Focused {
		border = primaryColor
	}
	panelStyle := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(border).Padding(0, 1)

	return panelStyle.Width(v.Width).Render(lipgloss.JoinVertical(lipgloss.Left, content...))
}

func (v *ResultViewer) renderTable() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	countStyle := cellStyle.Align(lipgloss.Right)

	t := ltable.New().
		Border(lipgloss.NormalBorder()).
		BorderColumn(false).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		Headers(v.View.Headers...).
		Rows(v.VisibleRows()...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == ltable.HeaderRow:
				return headerStyle
			case col == 0:
				return cellStyle
			default:
				return countStyle
			}
		})

	return t.Render()
}
