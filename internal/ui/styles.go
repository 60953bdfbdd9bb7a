package ui

import "github.com/charmbracelet/lipgloss"

var (
	white  = lipgloss.Color("255")
	accent = lipgloss.Color("62")  // purple
	dim    = lipgloss.Color("241") // gray
	keyFg  = lipgloss.Color("212") // pink
	okFg   = lipgloss.Color("78")  // green
	errFg  = lipgloss.Color("196") // red
)

var (
	candidateStyle = lipgloss.NewStyle().Foreground(white).Padding(0, 1)
	cursorStyle    = candidateStyle.Bold(true).Background(accent)

	// Character count left of each candidate.
	countStyle = lipgloss.NewStyle().Foreground(dim).Width(5).Align(lipgloss.Right)

	barStyle     = lipgloss.NewStyle().Foreground(white).Background(lipgloss.Color("236")).Padding(0, 1)
	barKeyStyle  = lipgloss.NewStyle().Foreground(keyFg).Bold(true)
	barHintStyle = lipgloss.NewStyle().Foreground(dim)

	doneStyle  = lipgloss.NewStyle().Foreground(okFg).Bold(true)
	errorStyle = lipgloss.NewStyle().Foreground(errFg).Bold(true).Padding(0, 1)
	emptyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Padding(1, 2)
)
