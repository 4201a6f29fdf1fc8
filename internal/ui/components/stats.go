package components

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// StatusItem is one label/value pair of the status bar
type StatusItem struct {
	Label  string
	Value  string
	Status string // "success", "warning", "error", "info"
}

// StatusBar shows the session counters and the active filter controls
type StatusBar struct {
	Items []StatusItem
	Width int
}

// NewStatusBar creates an empty status bar
func NewStatusBar(width int) *StatusBar {
	return &StatusBar{Width: width}
}

// Add appends an item and returns the bar for chaining
func (s *StatusBar) Add(label, value, status string) *StatusBar {
	s.Items = append(s.Items, StatusItem{Label: label, Value: value, Status: status})
	return s
}

// Render renders the bar on one line
func (s *StatusBar) Render() string {
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"})
	separator := labelStyle.Render(" │ ")

	parts := make([]string, 0, len(s.Items))
	for _, item := range s.Items {
		value := valueStyle(item.Status).Bold(true).Render(item.Value)
		parts = append(parts, labelStyle.Render(item.Label+" ")+value)
	}

	line := strings.Join(parts, separator)
	if s.Width > 0 {
		return lipgloss.NewStyle().MaxWidth(s.Width).Render(line)
	}
	return line
}

func valueStyle(status string) lipgloss.Style {
	switch status {
	case "success":
		return lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#10B981", Dark: "#34D399"})
	case "warning":
		return lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#F59E0B", Dark: "#FBBF24"})
	case "error":
		return lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#EF4444", Dark: "#F87171"})
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#3B82F6", Dark: "#60A5FA"})
	}
}

// FormatCount formats n with thousand separators
func FormatCount(n int) string {
	if n < 0 {
		return "-" + FormatCount(-n)
	}
	s := strconv.Itoa(n)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	for i, digit := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			result.WriteRune(',')
		}
		result.WriteRune(digit)
	}
	return result.String()
}
