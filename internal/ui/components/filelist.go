package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/yildizm/NgramLens/internal/emoji"
)

// FileItem is one row of the file checkbox panel
type FileItem struct {
	Name    string
	Checked bool
}

// FileList is the navigable file checkbox panel
type FileList struct {
	Title    string
	Items    []FileItem
	Selected int
	Focused  bool
	// Inactive dims the checkboxes; they only matter in common mode
	Inactive bool
	Width    int
	Height   int
}

// NewFileList creates a new file panel
func NewFileList(title string, width, height int) *FileList {
	return &FileList{
		Title:  title,
		Width:  width,
		Height: height,
	}
}

// SetItems replaces the rows, keeping the cursor when it is still in range
func (l *FileList) SetItems(items []FileItem) {
	l.Items = items
	if l.Selected >= len(items) {
		l.Selected = max(0, len(items)-1)
	}
}

// SetFocused sets the focus state of the list
func (l *FileList) SetFocused(focused bool) {
	l.Focused = focused
}

// SelectedItem returns the row under the cursor
func (l *FileList) SelectedItem() (FileItem, bool) {
	if l.Selected < 0 || l.Selected >= len(l.Items) {
		return FileItem{}, false
	}
	return l.Items[l.Selected], true
}

// MoveUp moves selection up
func (l *FileList) MoveUp() {
	if l.Selected > 0 {
		l.Selected--
	}
}

// MoveDown moves selection down
func (l *FileList) MoveDown() {
	if l.Selected < len(l.Items)-1 {
		l.Selected++
	}
}

// Render renders the panel
func (l *FileList) Render() string {
	primaryColor := lipgloss.AdaptiveColor{Light: "#3B82F6", Dark: "#60A5FA"}
	secondaryColor := lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}

	headerStyle := lipgloss.NewStyle().Foreground(primaryColor).Bold(true)
	mutedStyle := lipgloss.NewStyle().Foreground(secondaryColor)

	content := []string{headerStyle.Render(l.Title), ""}

	if len(l.Items) == 0 {
		content = append(content, mutedStyle.Render("-"))
	}

	maxVisible := max(1, l.Height-4)
	start := 0
	if l.Selected >= maxVisible {
		start = l.Selected - maxVisible + 1
	}
	end := min(start+maxVisible, len(l.Items))

	for i := start; i < end; i++ {
		content = append(content, l.renderItem(l.Items[i], i == l.Selected))
	}

	if len(l.Items) > maxVisible {
		content = append(content, "", mutedStyle.Render(fmt.Sprintf("(%d-%d of %d)", start+1, end, len(l.Items))))
	}

	border := secondaryColor
	if l.Focused {
		border = primaryColor
	}
	panelStyle := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(border).Padding(0, 1)

	return panelStyle.Width(l.Width).Render(lipgloss.JoinVertical(lipgloss.Left, content...))
}

func (l *FileList) renderItem(item FileItem, selected bool) string {
	primaryColor := lipgloss.AdaptiveColor{Light: "#3B82F6", Dark: "#60A5FA"}
	secondaryColor := lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}
	selectedColor := lipgloss.AdaptiveColor{Light: "#DBEAFE", Dark: "#1E3A8A"}

	box := emoji.GetEmoji("unchecked")
	if item.Checked {
		box = emoji.GetEmoji("checked")
	}

	cursor := "  "
	if selected && l.Focused {
		cursor = "> "
	}
	line := cursor + box + " " + truncate(item.Name, l.Width-8)

	style := lipgloss.NewStyle().Foreground(primaryColor)
	switch {
	case selected && l.Focused:
		style = style.Background(selectedColor).Bold(true)
	case l.Inactive:
		style = lipgloss.NewStyle().Foreground(secondaryColor)
	}
	return style.Render(line)
}

func truncate(s string, width int) string {
	if width < 4 || lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+3 > width {
		runes = runes[:len(runes)-1]
	}
	return strings.TrimSpace(string(runes)) + "..."
}
