package main

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Notification is a blocking message the user dismisses explicitly
type Notification struct {
	Title   string
	Message string
}

var (
	noticeBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#FF0000")).
			Padding(1, 3)
	noticeTitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FF0000")).
				Bold(true)
	noticeMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FAFAFA"))
	noticeHelpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			MarginTop(1)
)

func (n Notification) View(width int) string {
	var content strings.Builder
	content.WriteString(noticeTitleStyle.Render(n.Title))
	content.WriteString("\n\n")
	content.WriteString(noticeMessageStyle.Render(n.Message))
	content.WriteString("\n")
	content.WriteString(noticeHelpStyle.Render("Press enter to dismiss"))

	box := noticeBoxStyle.Render(content.String())
	if width <= 0 {
		return box
	}
	return lipgloss.Place(width, lipgloss.Height(box)+2, lipgloss.Center, lipgloss.Center, box)
}
