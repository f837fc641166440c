package cliui

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles used by the watch view.
type Styles struct {
	Title         lipgloss.Style
	Timer         lipgloss.Style
	LaneHeader    lipgloss.Style
	StatusReady   lipgloss.Style
	StatusActive  lipgloss.Style
	StatusBlocked lipgloss.Style
	StatusDone    lipgloss.Style
	Footer        lipgloss.Style
	FooterKey     lipgloss.Style
}

// DefaultStyles returns the watch view's default color scheme.
func DefaultStyles() Styles {
	return Styles{
		Title:         lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		Timer:         lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		LaneHeader:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("250")),
		StatusReady:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		StatusActive:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		StatusBlocked: lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		StatusDone:    lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		Footer:        lipgloss.NewStyle().Foreground(lipgloss.Color("245")).MarginTop(1),
		FooterKey:     lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
	}
}

func statusStyle(s Styles, status string) lipgloss.Style {
	switch status {
	case "in_progress":
		return s.StatusActive
	case "blocked":
		return s.StatusBlocked
	case "done", "archived", "cancelled":
		return s.StatusDone
	default:
		return s.StatusReady
	}
}
