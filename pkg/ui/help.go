package ui

import (
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
)

const helpMarkdown = `# tagview keys

## Moving around

| Key | Action |
| ------- | ------ |
| ` + "`↑/k` `↓/j`" + ` | move cursor |
| ` + "`g` / `G`" + ` | jump to top / bottom |
| ` + "`1`–`9`" + ` | switch tab |

## Tree

| Key | Action |
| ------- | ------ |
| ` + "`enter` `space` `l`" + ` | expand / collapse |
| ` + "`h`" + ` | collapse, or jump to parent |
| ` + "`[` / `]`" + ` | previous / next page of the listing |
| ` + "`r`" + ` | refresh the listing under the cursor |
| ` + "`R`" + ` | refresh everything expanded |

## Filters

| Key | Action |
| ------- | ------ |
| ` + "`/`" + ` | filter by name |
| ` + "`c`" + ` | filter by contract number |
| ` + "`s`" + ` | cycle status filter |
| ` + "`b`" + ` | cycle bin filter |
| ` + "`F`" + ` | narrow the listing under the cursor |
| ` + "`S`" + ` | cycle sort of the listing under the cursor |
| ` + "`esc`" + ` | clear filters |

## Items

| Key | Action |
| ------- | ------ |
| ` + "`e`" + ` | edit fields |
| ` + "`y`" + ` | copy row |
| ` + "`P`" + ` | copy label block |

## Other

| Key | Action |
| ------- | ------ |
| ` + "`?`" + ` | toggle this help |
| ` + "`q`" + ` | quit |
`

// helpModel renders the key reference in a scrollable overlay.
type helpModel struct {
	open  bool
	ready bool
	vp    viewport.Model
	theme Theme
}

func (h *helpModel) toggle(width, height int) {
	h.open = !h.open
	if h.open {
		h.layout(width, height)
	}
}

func (h *helpModel) layout(width, height int) {
	w := width - 4
	if w > 72 {
		w = 72
	}
	if w < 20 {
		w = 20
	}
	content := helpMarkdown
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(w),
	)
	if err == nil {
		if out, rerr := renderer.Render(helpMarkdown); rerr == nil {
			content = out
		}
	}
	h.vp = viewport.New(w, max(height-4, 5))
	h.vp.SetContent(content)
	h.ready = true
}

func (h *helpModel) resize(width, height int) {
	if h.open {
		h.layout(width, height)
	}
}

// handleKey scrolls the overlay; returns true when it should close.
func (h *helpModel) handleKey(msg tea.KeyMsg) (bool, tea.Cmd) {
	switch msg.String() {
	case "?", "q", "esc":
		h.open = false
		return true, nil
	}
	var cmd tea.Cmd
	h.vp, cmd = h.vp.Update(msg)
	return false, cmd
}

func (h *helpModel) View(width, height int) string {
	if !h.ready {
		return ""
	}
	footer := h.theme.MutedText.Render("↑/↓ scroll · ? close")
	return h.vp.View() + "\n" + footer
}
