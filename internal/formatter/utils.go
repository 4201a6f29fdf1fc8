package formatter

import (
	"fmt"
	"strconv"
	"strings"
)

// formatNumber formats numbers with commas for readability
func formatNumber(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return addCommas(fmt.Sprintf("%d", n))
}

// addCommas adds commas to number strings
func addCommas(s string) string {
	if len(s) <= 3 {
		return s
	}
	return addCommas(s[:len(s)-3]) + "," + s[len(s)-3:]
}

// parseCell reads a rendered count back; cells are always integers
func parseCell(cell string) int {
	n, err := strconv.Atoi(cell)
	if err != nil {
		return 0
	}
	return n
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

// escapeMarkdown escapes characters that would break a table cell
func escapeMarkdown(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
