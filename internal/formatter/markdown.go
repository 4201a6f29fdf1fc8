package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/yildizm/NgramLens/internal/table"
)

// markdownFormatter formats output as Markdown
type markdownFormatter struct {
	now func() time.Time
}

// NewMarkdown creates a new Markdown formatter
func NewMarkdown() Formatter {
	return &markdownFormatter{now: time.Now}
}

func (f *markdownFormatter) Format(view *table.View) ([]byte, error) {
	var b strings.Builder

	b.WriteString("# N-gram Analysis Report\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", f.now().Format("2006-01-02 15:04:05"))

	f.writeSummaryTable(&b, view)

	b.WriteString("## Frequencies\n\n")
	if view.Empty {
		fmt.Fprintf(&b, "_%s_\n", escapeMarkdown(view.EmptyMessage))
		return []byte(b.String()), nil
	}
	f.writeResultTable(&b, view)

	return []byte(b.String()), nil
}

func (f *markdownFormatter) writeSummaryTable(b *strings.Builder, view *table.View) {
	b.WriteString("## Summary\n\n")
	b.WriteString("| Metric | Value |\n")
	b.WriteString("|--------|-------|\n")
	fmt.Fprintf(b, "| Files | %s |\n", escapeMarkdown(strings.Join(view.Filenames, ", ")))
	fmt.Fprintf(b, "| N-grams | %s |\n", formatNumber(view.DataCount))
	if view.Defects > 0 {
		fmt.Fprintf(b, "| Malformed counts | %d |\n", view.Defects)
	}
	b.WriteString("\n")
}

func (f *markdownFormatter) writeResultTable(b *strings.Builder, view *table.View) {
	writeMarkdownRow(b, view.Headers)

	b.WriteString("|")
	for i := range view.Headers {
		if i == 0 {
			b.WriteString("--------|")
		} else {
			// counts are right aligned
			b.WriteString("-------:|")
		}
	}
	b.WriteString("\n")

	for _, row := range view.Rows {
		writeMarkdownRow(b, row)
	}
}

func writeMarkdownRow(b *strings.Builder, cells []string) {
	b.WriteString("|")
	for _, cell := range cells {
		b.WriteString(" " + escapeMarkdown(cell) + " |")
	}
	b.WriteString("\n")
}
