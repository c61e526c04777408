package main

import (
	"strings"

	"github.com/aixiera/phosphene-web/cmd/phosphene/internal/ui/components"
	"github.com/aixiera/phosphene-web/models"

	"github.com/charmbracelet/lipgloss"
)

const resultPlaceholder = "Result will appear here"

var (
	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#666666")).
			Padding(0, 1)
	cardFocusedStyle = cardStyle.
				BorderForeground(lipgloss.Color("#7D56F4"))
	cardTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D56F4")).
			Bold(true)
	cardPlaceholderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#888888")).
				Italic(true)
	cardActionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575"))
	cardActionDisabledStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#666666"))
)

// downloadEnabled reports whether a card has something to save
func downloadEnabled(p *models.Percept) bool {
	return p != nil && len(p.PNG) > 0
}

// RenderResultCard draws one implant's output with its download action.
// A nil percept renders the placeholder and a disabled action
func RenderResultCard(title string, p *models.Percept, focused bool, width int) string {
	inner := width - 4
	if inner < 10 {
		inner = 10
	}
	rows := inner / 3

	var body string
	if p == nil {
		body = lipgloss.Place(inner, rows, lipgloss.Center, lipgloss.Center,
			cardPlaceholderStyle.Render(resultPlaceholder))
	} else if img, err := p.Image(); err != nil {
		body = lipgloss.Place(inner, rows, lipgloss.Center, lipgloss.Center,
			cardPlaceholderStyle.Render("Preview unavailable"))
	} else {
		body = lipgloss.PlaceHorizontal(inner, lipgloss.Center,
			components.RenderThumbnail(img, inner, rows))
	}

	action := cardActionDisabledStyle.Render("[d] Download")
	if downloadEnabled(p) {
		action = cardActionStyle.Render("[d] Download")
	}

	var content strings.Builder
	content.WriteString(cardTitleStyle.Render(title))
	content.WriteString("\n")
	content.WriteString(body)
	content.WriteString("\n")
	content.WriteString(action)

	style := cardStyle
	if focused {
		style = cardFocusedStyle
	}
	return style.Width(inner + 2).Render(content.String())
}
