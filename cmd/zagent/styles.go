package main

import "github.com/charmbracelet/lipgloss"

var (
	accentColor  = lipgloss.Color("#8BC34A")
	mutedColor   = lipgloss.Color("#6b7280")
	errColor     = lipgloss.Color("#e53935")
	warningColor = lipgloss.Color("#FFC107")

	promptStyle  = lipgloss.NewStyle().Foreground(accentColor).Bold(true)
	titleStyle   = lipgloss.NewStyle().Bold(true)
	subtleStyle  = lipgloss.NewStyle().Foreground(mutedColor)
	errorStyle   = lipgloss.NewStyle().Foreground(errColor)
	warningStyle = lipgloss.NewStyle().Foreground(warningColor)
)
