package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// alertModel is a blocking error dialog. While open it swallows all input
// except dismissal.
type alertModel struct {
	title string
	body  string
	theme Theme
}

func newAlert(title, body string, theme Theme) *alertModel {
	return &alertModel{title: title, body: body, theme: theme}
}

// handleKey returns true once the alert is dismissed.
func (a *alertModel) handleKey(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "enter", "esc", "q":
		return true
	}
	return false
}

func (a *alertModel) View(width, height int) string {
	t := a.theme
	var b strings.Builder
	b.WriteString(t.ErrorText.Render(a.title) + "\n\n")
	b.WriteString(a.body + "\n\n")
	b.WriteString(t.MutedText.Render("enter dismiss"))

	boxWidth := 56
	if width-4 < boxWidth {
		boxWidth = width - 4
	}
	box := t.Renderer.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Danger).
		Padding(1, 2).
		Width(boxWidth).
		Render(b.String())
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}
