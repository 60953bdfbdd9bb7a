package ui

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
)

// RenderMessages renders the candidate list, one message per line, with its
// length on the left.
func RenderMessages(messages []string, cursor int, width int) string {
	if len(messages) == 0 {
		return emptyStyle.Render("No messages generated. Press 'r' to try again.") + "\n"
	}

	var b strings.Builder
	for i, msg := range messages {
		badge := countStyle.Render(fmt.Sprintf("%d", utf8.RuneCountInString(msg)))
		style := candidateStyle
		if i == cursor {
			style = cursorStyle
		}
		if width > 0 {
			style = style.MaxWidth(max(width-lipgloss.Width(badge), 1))
		}
		b.WriteString(badge + style.Render(msg))
		b.WriteString("\n")
	}
	return b.String()
}

// RenderStatusBar renders the bottom status bar with position info and key
// hints. status replaces the position when non-empty.
func RenderStatusBar(cursor, total int, width int, status string, dryRun bool) string {
	position := status
	if position == "" {
		position = fmt.Sprintf(" %d/%d ", min(cursor+1, total), total)
	}

	action := ":post"
	if dryRun {
		action = ":select"
	}
	hints := []string{
		barKeyStyle.Render("j/k") + barHintStyle.Render(":nav"),
		barKeyStyle.Render("Enter") + barHintStyle.Render(action),
		barKeyStyle.Render("r") + barHintStyle.Render(":regenerate"),
		barKeyStyle.Render("q") + barHintStyle.Render(":quit"),
	}
	keyHints := strings.Join(hints, " ")

	// Calculate padding to fill width
	padding := width - lipgloss.Width(position) - lipgloss.Width(keyHints)
	if padding < 0 {
		padding = 0
	}

	bar := position + strings.Repeat(" ", padding) + keyHints
	if width > 0 {
		return barStyle.Width(width).Render(bar)
	}
	return barStyle.Render(bar)
}
