package monitor

import "github.com/charmbracelet/lipgloss"

var (
	base     = lipgloss.Color("#1e1e2e")
	surface  = lipgloss.Color("#45475a")
	text     = lipgloss.Color("#cdd6f4")
	subtext  = lipgloss.Color("#a6adc8")
	lavender = lipgloss.Color("#b4befe")
	sapphire = lipgloss.Color("#74c7ec")
	green    = lipgloss.Color("#a6e3a1")
	red      = lipgloss.Color("#f38ba8")

	appStyle = lipgloss.NewStyle().
		Background(base).
		Foreground(text).
		Padding(1, 2)

	paneStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(surface).
		Padding(0, 1)

	activePaneStyle = paneStyle.BorderForeground(lavender)

	titleStyle    = lipgloss.NewStyle().Foreground(sapphire).Bold(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(subtext)
	enabledStyle  = lipgloss.NewStyle().Foreground(green).Bold(true)
	disabledStyle = lipgloss.NewStyle().Foreground(red).Bold(true)
)
