package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/yildizm/NgramLens/internal/notify"
)

// Theme represents a color theme for the TUI
type Theme struct {
	Name string

	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor

	Success lipgloss.AdaptiveColor
	Warning lipgloss.AdaptiveColor
	Error   lipgloss.AdaptiveColor
	Info    lipgloss.AdaptiveColor

	Muted lipgloss.AdaptiveColor
}

func adaptive(pair [2]string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: pair[0], Dark: pair[1]}
}

// buildTheme creates a theme from light/dark color pairs
func buildTheme(name string, primary, secondary, success, warning, errorColor, info, muted [2]string) Theme {
	return Theme{
		Name:      name,
		Primary:   adaptive(primary),
		Secondary: adaptive(secondary),
		Success:   adaptive(success),
		Warning:   adaptive(warning),
		Error:     adaptive(errorColor),
		Info:      adaptive(info),
		Muted:     adaptive(muted),
	}
}

// Available themes
var (
	DefaultTheme = buildTheme("default",
		[2]string{"#1E40AF", "#3B82F6"}, [2]string{"#6B7280", "#9CA3AF"},
		[2]string{"#059669", "#10B981"}, [2]string{"#D97706", "#F59E0B"}, [2]string{"#DC2626", "#EF4444"},
		[2]string{"#0891B2", "#06B6D4"}, [2]string{"#6B7280", "#9CA3AF"})

	HighContrastTheme = buildTheme("high-contrast",
		[2]string{"#000000", "#FFFFFF"}, [2]string{"#666666", "#BBBBBB"},
		[2]string{"#006600", "#00FF00"}, [2]string{"#CC6600", "#FFAA00"}, [2]string{"#CC0000", "#FF4444"},
		[2]string{"#0066CC", "#4499FF"}, [2]string{"#666666", "#BBBBBB"})
)

var currentTheme = DefaultTheme

// SetThemeByName sets the theme by name
func SetThemeByName(name string) bool {
	switch name {
	case "default":
		currentTheme = DefaultTheme
	case "high-contrast":
		currentTheme = HighContrastTheme
	default:
		return false
	}
	return true
}

// Styles contains the styles the model renders with
type Styles struct {
	Title lipgloss.Style
	Muted lipgloss.Style

	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Info    lipgloss.Style

	Loading lipgloss.Style
}

// GetStyles builds styles from the current theme
func GetStyles() *Styles {
	theme := currentTheme

	return &Styles{
		Title: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true).
			Padding(0, 1),
		Muted:   lipgloss.NewStyle().Foreground(theme.Muted),
		Success: lipgloss.NewStyle().Foreground(theme.Success).Bold(true),
		Warning: lipgloss.NewStyle().Foreground(theme.Warning).Bold(true),
		Error:   lipgloss.NewStyle().Foreground(theme.Error).Bold(true),
		Info:    lipgloss.NewStyle().Foreground(theme.Info),
		Loading: lipgloss.NewStyle().Foreground(theme.Secondary).Italic(true),
	}
}

// ForLevel returns the notice style of level
func (s *Styles) ForLevel(level notify.Level) lipgloss.Style {
	switch level {
	case notify.LevelSuccess:
		return s.Success
	case notify.LevelWarning:
		return s.Warning
	case notify.LevelDanger:
		return s.Error
	default:
		return s.Info
	}
}
