package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Color palette
var (
	colorGreen  = lipgloss.Color("42")
	colorYellow = lipgloss.Color("214")
	colorRed    = lipgloss.Color("196")
	colorGray   = lipgloss.Color("245")
	colorWhite  = lipgloss.Color("255")
)

// Styles defines the visual styles for the dashboard.
type Styles struct {
	PaneTitle lipgloss.Style
	Text      lipgloss.Style
	Faint     lipgloss.Style
	Header    lipgloss.Style

	StatusRunning lipgloss.Style
	StatusExited  lipgloss.Style
	StatusKilled  lipgloss.Style
	StatusIdle    lipgloss.Style
}

// DefaultStyles returns the default style configuration.
func DefaultStyles() Styles {
	return Styles{
		PaneTitle: lipgloss.NewStyle().
			Reverse(true).
			Bold(true),

		Text: lipgloss.NewStyle().
			Foreground(colorWhite),

		Faint: lipgloss.NewStyle().
			Foreground(colorGray),

		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(colorGray),

		StatusRunning: lipgloss.NewStyle().
			Foreground(colorGreen),

		StatusExited: lipgloss.NewStyle().
			Foreground(colorYellow),

		StatusKilled: lipgloss.NewStyle().
			Foreground(colorRed),

		StatusIdle: lipgloss.NewStyle().
			Foreground(colorGray),
	}
}

// statusStyle picks the style for a run status label.
func (s Styles) statusStyle(status string) lipgloss.Style {
	switch status {
	case "running":
		return s.StatusRunning
	case "exited":
		return s.StatusExited
	case "killed":
		return s.StatusKilled
	default:
		return s.StatusIdle
	}
}
