package ui

import "github.com/charmbracelet/lipgloss"

// ANSI colors, so the output follows the terminal theme.
var (
	AccentColor = lipgloss.Color("6")
	SubtleColor = lipgloss.Color("8")
	ErrorColor  = lipgloss.Color("1")
	OKColor     = lipgloss.Color("2")
)

var (
	TitleStyle = lipgloss.NewStyle().Foreground(AccentColor).Bold(true).MarginBottom(1)

	UsageStyle = lipgloss.NewStyle().Foreground(OKColor)

	// DescStyle is dimmed for descriptions and hints.
	DescStyle = lipgloss.NewStyle().Foreground(SubtleColor)

	FlagStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)
