package theme

import "github.com/charmbracelet/lipgloss"

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue   = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2563EB"}
	ColorGreen  = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#10B981"}
	ColorYellow = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#F59E0B"}
	ColorRed    = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#EF4444"}
	ColorGray   = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#6B7280"}
	ColorWhite  = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1F2937"}
	ColorSubtle = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E5E7EB"}
)

// HeaderStyle is used for the top application bar.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// PanelStyle wraps a content panel in a rounded border.
var PanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// HelpStyle is used for keyboard shortcut hints.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// UnreadBadgeStyle highlights the unread notification count.
var UnreadBadgeStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorRed).
	Padding(0, 1)

// ErrorStyle renders user-visible, non-fatal error lines.
var ErrorStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorRed)

// TypeStyle returns a color-coded style for a notification type:
// info blue, warning amber, alert red, success green.
func TypeStyle(notifType string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)

	switch notifType {
	case "warning":
		return base.Foreground(ColorYellow)
	case "alert":
		return base.Foreground(ColorRed)
	case "success":
		return base.Foreground(ColorGreen)
	default:
		return base.Foreground(ColorBlue)
	}
}

// FreshnessStyle colors the last-update label: green while the feed is
// fresh, red once it is degraded.
func FreshnessStyle(degraded bool) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)
	if degraded {
		return base.Foreground(ColorRed)
	}
	return base.Foreground(ColorGreen)
}
