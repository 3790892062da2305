package ui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// promptKind selects which filter a text prompt edits.
type promptKind int

const (
	promptName promptKind = iota
	promptContract
	promptListing
)

// prompt is the one-line text input shown in the footer while typing a
// filter. Enter commits, esc cancels.
type prompt struct {
	kind    promptKind
	ownerID string
	input   textinput.Model
}

func newPrompt(kind promptKind, ownerID, initial string, theme Theme) *prompt {
	ti := textinput.New()
	ti.CharLimit = 64
	ti.Width = 40
	ti.Prompt = promptLabel(kind) + ": "
	ti.PromptStyle = theme.PrimaryBold
	ti.SetValue(initial)
	ti.Focus()
	ti.CursorEnd()
	return &prompt{kind: kind, ownerID: ownerID, input: ti}
}

func promptLabel(kind promptKind) string {
	switch kind {
	case promptContract:
		return "contract"
	case promptListing:
		return "narrow listing"
	default:
		return "name"
	}
}

func (p *prompt) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return cmd
}

func (p *prompt) value() string {
	return p.input.Value()
}

func (p *prompt) View() string {
	return p.input.View()
}
