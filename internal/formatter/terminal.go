package formatter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"
	"github.com/yildizm/go-termfmt"

	"github.com/yildizm/NgramLens/internal/table"
)

// terminalFormatter renders the result table for terminal display: a
// go-termfmt summary tree followed by a lipgloss table.
type terminalFormatter struct {
	opts *termfmt.TerminalOptions
}

// NewTerminal creates a new terminal formatter
func NewTerminal(color, emoji bool) Formatter {
	opts := termfmt.DefaultOptions()
	opts.Color = color
	opts.Emoji = emoji
	return &terminalFormatter{opts: opts}
}

func (f *terminalFormatter) Format(view *table.View) ([]byte, error) {
	var b strings.Builder

	f.writeHeader(&b)
	f.writeSummary(&b, view)

	if view.Empty {
		b.WriteString(view.EmptyMessage + "\n")
		return []byte(b.String()), nil
	}

	b.WriteString(f.renderTable(view) + "\n")
	return []byte(b.String()), nil
}

func (f *terminalFormatter) writeHeader(b *strings.Builder) {
	header := "N-gram Analysis"
	headerLen := len(header)

	b.WriteString("╔" + strings.Repeat("═", headerLen+2) + "╗\n")
	b.WriteString("║ " + header + " ║\n")
	b.WriteString("╚" + strings.Repeat("═", headerLen+2) + "╝\n\n")
}

// writeSummary writes the file list and counts as a go-termfmt tree
func (f *terminalFormatter) writeSummary(b *strings.Builder, view *table.View) {
	symbol := termfmt.GetEmoji("statistics", f.opts)
	if symbol == "" {
		symbol = "#"
	}
	b.WriteString(symbol + " Summary\n")

	files := make([]termfmt.TreeItem, 0, len(view.Filenames))
	for i, name := range view.Filenames {
		files = append(files, termfmt.TreeItem{Label: name, Last: i == len(view.Filenames)-1})
	}

	items := []termfmt.TreeItem{
		{Label: "Files", Value: fmt.Sprintf("%d", len(view.Filenames)), Children: files},
		{Label: "N-grams", Value: formatNumber(view.DataCount), Last: view.Defects == 0},
	}
	if view.Defects > 0 {
		items = append(items, termfmt.TreeItem{Label: "Malformed counts", Value: fmt.Sprintf("%d (shown as 0)", view.Defects), Last: true})
	}

	b.WriteString(termfmt.TreeViewWithOptions(items, f.opts) + "\n\n")
}

func (f *terminalFormatter) renderTable(view *table.View) string {
	headerStyle := lipgloss.NewStyle().Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	countStyle := cellStyle.Align(lipgloss.Right)
	borderStyle := lipgloss.NewStyle()
	if f.opts.Color {
		headerStyle = headerStyle.Bold(true).Foreground(lipgloss.Color("39"))
		borderStyle = borderStyle.Foreground(lipgloss.Color("240"))
	}

	t := ltable.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(view.Headers...).
		Rows(view.Rows...).
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

	return t.String()
}
