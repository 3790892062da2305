package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rentscan/tagview/pkg/api"
	"github.com/rentscan/tagview/pkg/tree"
)

// Editor is the inline field editor for one item. One editor is active at
// a time; opening another replaces it without saving. Commits go one field
// at a time: switching fields discards the uncommitted value.
type Editor struct {
	tab      int
	nodeID   string
	parentID string
	item     api.Item

	fieldIdx int
	selected int
	notes    textarea.Model

	saving bool
	theme  Theme
}

// editorResult reports what a key press did to the editor.
type editorResult int

const (
	editorContinue editorResult = iota
	editorCommit
	editorCancel
)

func newEditor(tab int, n *tree.Node, theme Theme) *Editor {
	e := &Editor{
		tab:   tab,
		item:  *n.Item,
		theme: theme,
	}
	e.nodeID = n.ID
	if n.Parent != nil {
		e.parentID = n.Parent.ID
	}

	ta := textarea.New()
	ta.SetWidth(48)
	ta.SetHeight(4)
	ta.CharLimit = 500
	ta.Placeholder = "No notes"
	e.notes = ta

	e.resetField()
	return e
}

func (e *Editor) field() api.Field {
	return api.EditableFields[e.fieldIdx]
}

// resetField loads the active control from the item's current value,
// discarding anything uncommitted.
func (e *Editor) resetField() {
	f := e.field()
	if f == api.FieldNotes {
		e.notes.SetValue(e.item.Notes)
		e.notes.Focus()
		return
	}
	e.notes.Blur()
	e.selected = 0
	cur := f.Value(e.item)
	for i, opt := range f.Options() {
		if strings.EqualFold(opt, cur) {
			e.selected = i
			break
		}
	}
}

func (e *Editor) nextField() {
	e.fieldIdx = (e.fieldIdx + 1) % len(api.EditableFields)
	e.resetField()
}

func (e *Editor) prevField() {
	e.fieldIdx = (e.fieldIdx - 1 + len(api.EditableFields)) % len(api.EditableFields)
	e.resetField()
}

// value returns what a commit of the active field would send.
func (e *Editor) value() string {
	f := e.field()
	if f == api.FieldNotes {
		return e.notes.Value()
	}
	opts := f.Options()
	if len(opts) == 0 {
		return ""
	}
	return opts[e.selected]
}

// update forwards non-key messages (cursor blink) to the active control.
func (e *Editor) update(msg tea.Msg) tea.Cmd {
	if e.field() != api.FieldNotes {
		return nil
	}
	var cmd tea.Cmd
	e.notes, cmd = e.notes.Update(msg)
	return cmd
}

func (e *Editor) handleKey(msg tea.KeyMsg) (editorResult, tea.Cmd) {
	if e.saving {
		return editorContinue, nil
	}
	switch msg.String() {
	case "esc":
		return editorCancel, nil
	case "tab":
		e.nextField()
		return editorContinue, nil
	case "shift+tab":
		e.prevField()
		return editorContinue, nil
	}

	if e.field() == api.FieldNotes {
		if msg.String() == "ctrl+s" {
			return editorCommit, nil
		}
		var cmd tea.Cmd
		e.notes, cmd = e.notes.Update(msg)
		return editorContinue, cmd
	}

	switch msg.String() {
	case "left", "h":
		if opts := e.field().Options(); len(opts) > 0 {
			e.selected = (e.selected - 1 + len(opts)) % len(opts)
		}
	case "right", "l":
		if opts := e.field().Options(); len(opts) > 0 {
			e.selected = (e.selected + 1) % len(opts)
		}
	case "enter":
		return editorCommit, nil
	}
	return editorContinue, nil
}

func (e *Editor) View(width int) string {
	t := e.theme
	var b strings.Builder

	b.WriteString(t.PrimaryBold.Render("Edit "+e.item.TagID) + "  ")
	b.WriteString(t.MutedText.Render(e.item.CommonName) + "\n")

	tabs := make([]string, 0, len(api.EditableFields))
	for i, f := range api.EditableFields {
		if i == e.fieldIdx {
			tabs = append(tabs, t.Renderer.NewStyle().Bold(true).Background(t.Highlight).Padding(0, 1).Render(f.Label()))
		} else {
			tabs = append(tabs, t.Renderer.NewStyle().Foreground(t.Subtext).Padding(0, 1).Render(f.Label()))
		}
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...) + "\n\n")

	if e.field() == api.FieldNotes {
		b.WriteString(e.notes.View() + "\n")
		b.WriteString(t.MutedText.Render("ctrl+s save · tab field · esc cancel"))
	} else {
		opts := make([]string, 0, 8)
		for i, opt := range e.field().Options() {
			if i == e.selected {
				opts = append(opts, t.Renderer.NewStyle().Bold(true).Background(t.Highlight).Padding(0, 1).Render(opt))
			} else {
				opts = append(opts, t.Renderer.NewStyle().Foreground(t.Subtext).Padding(0, 1).Render(opt))
			}
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, opts...) + "\n")
		b.WriteString(t.MutedText.Render("←/→ choose · enter save · tab field · esc cancel"))
	}
	if e.saving {
		b.WriteString("\n" + t.LoadingText.Render("saving…"))
	}

	panelWidth := 60
	if width-2 < panelWidth {
		panelWidth = width - 2
	}
	panel := t.Renderer.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Border).
		Padding(0, 1).
		Width(panelWidth)
	return panel.Render(b.String())
}
