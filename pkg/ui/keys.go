package ui

import (
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/rentscan/tagview/pkg/api"
	"github.com/rentscan/tagview/pkg/tree"
)

// handleKey routes a key press through the overlays in priority order:
// alert, editor, help, prompt, then the tree itself.
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.alert != nil {
		if m.alert.handleKey(msg) {
			m.alert = nil
		}
		return m, nil
	}
	if m.editor != nil {
		return m.handleEditorKey(msg)
	}
	if m.help.open {
		_, cmd := m.help.handleKey(msg)
		return m, cmd
	}
	if m.prompt != nil {
		return m.handlePromptKey(msg)
	}
	return m.handleMainKey(msg)
}

func (m *Model) handleEditorKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	res, cmd := m.editor.handleKey(msg)
	switch res {
	case editorCancel:
		m.editor = nil
		return m, nil
	case editorCommit:
		e := m.editor
		e.saving = true
		t := m.tabs[e.tab]
		return m, saveFieldCmd(t.client, e.tab, e.parentID, e.field(), e.item.TagID, e.value())
	}
	return m, cmd
}

func (m *Model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.prompt = nil
		return m, nil
	case "enter":
		p := m.prompt
		m.prompt = nil
		return m.commitPrompt(p)
	}
	return m, m.prompt.update(msg)
}

func (m *Model) commitPrompt(p *prompt) (tea.Model, tea.Cmd) {
	t := m.tab()
	val := strings.TrimSpace(p.value())
	switch p.kind {
	case promptName:
		t.filter.CommonName = val
	case promptContract:
		t.filter.ContractNumber = val
	case promptListing:
		if n := t.reg.Node(p.ownerID); n != nil {
			n.FilterText = val
		}
	}
	t.rebuild()
	m.ensureVisible(t)

	// A filter typed before the first page lands is re-applied on a short
	// tick until the data shows up.
	if !t.rootLoaded && !t.retryArmed && !t.filter.Empty() {
		t.retryArmed = true
		return m, filterRetryCmd(t.index, 1)
	}
	return m, nil
}

func (m *Model) handleMainKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	t := m.tab()

	if s := msg.String(); len(s) == 1 && s[0] >= '1' && s[0] <= '9' {
		return m.switchTab(int(s[0] - '1'))
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit

	case "?":
		m.help.toggle(m.width, m.height)

	case "tab":
		return m.switchTab((m.active + 1) % len(m.tabs))
	case "shift+tab":
		return m.switchTab((m.active - 1 + len(m.tabs)) % len(m.tabs))

	case "up", "k":
		t.cursor--
		t.clampCursor()
		m.ensureVisible(t)
	case "down", "j":
		t.cursor++
		t.clampCursor()
		m.ensureVisible(t)
	case "pgup":
		t.cursor -= m.bodyHeight()
		t.clampCursor()
		m.ensureVisible(t)
	case "pgdown":
		t.cursor += m.bodyHeight()
		t.clampCursor()
		m.ensureVisible(t)
	case "g", "home":
		t.cursor = 0
		m.ensureVisible(t)
	case "G", "end":
		t.cursor = len(t.rows) - 1
		t.clampCursor()
		m.ensureVisible(t)

	case "enter", " ", "l", "right":
		return m.toggleCurrent()
	case "h", "left":
		return m.collapseOrParent()
	case "[":
		return m.pageStep(-1)
	case "]":
		return m.pageStep(1)
	case "r":
		return m.refreshListing()
	case "R":
		return m.refreshEverything()

	case "/":
		m.prompt = newPrompt(promptName, "", t.filter.CommonName, m.theme)
	case "c":
		m.prompt = newPrompt(promptContract, "", t.filter.ContractNumber, m.theme)
	case "s":
		t.filter.Status = cycleOption(api.StatusOptions, t.filter.Status)
		t.rebuild()
		m.ensureVisible(t)
	case "b":
		t.filter.Bin = cycleOption(api.BinLocationOptions, t.filter.Bin)
		t.rebuild()
		m.ensureVisible(t)
	case "S":
		m.cycleSort(t)
	case "F":
		if owner := t.listingOwner(); owner == "" {
			m.prompt = newPrompt(promptName, "", t.filter.CommonName, m.theme)
		} else if n := t.reg.Node(owner); n != nil {
			m.prompt = newPrompt(promptListing, owner, n.FilterText, m.theme)
		}

	case "e":
		return m.openEditor()
	case "y":
		return m.copyRow()
	case "P":
		return m.copyLabel()

	case "esc":
		if !t.filter.Empty() {
			t.filter = tree.FilterState{}
			t.rebuild()
			m.ensureVisible(t)
			m.status = "Filters cleared"
		} else {
			m.status = ""
			m.lastErr = ""
		}
	}
	return m, nil
}

func (m *Model) switchTab(idx int) (tea.Model, tea.Cmd) {
	if idx < 0 || idx >= len(m.tabs) || idx == m.active {
		return m, nil
	}
	m.active = idx
	m.status = ""
	t := m.tab()
	m.ensureVisible(t)
	return m, m.loadTab(t)
}

func (m *Model) toggleCurrent() (tea.Model, tea.Cmd) {
	t := m.tab()
	row := t.currentRow()
	if row == nil {
		return m, nil
	}
	if row.Kind == tree.RowPager {
		return m.pageStep(1)
	}
	if row.Kind != tree.RowNode || row.Node == nil {
		return m, nil
	}
	n := row.Node
	switch t.reg.Toggle(n.ID) {
	case tree.ActionExpand:
		var cmd tea.Cmd
		if spec, ok := m.specFor(t, n, 1); ok {
			cmd = fetchListingCmd(t.client, t.index, t.reg.Generation(n.ID), spec)
		}
		t.rebuild()
		m.ensureVisible(t)
		return m, cmd
	case tree.ActionCollapse:
		t.rebuild()
		m.ensureVisible(t)
	}
	return m, nil
}

func (m *Model) collapseOrParent() (tea.Model, tea.Cmd) {
	t := m.tab()
	row := t.currentRow()
	if row == nil || row.Node == nil {
		return m, nil
	}
	n := row.Node
	if row.Kind != tree.RowNode {
		t.cursorTo(n.ID)
		m.ensureVisible(t)
		return m, nil
	}
	if n.State == tree.StateExpanded {
		t.reg.Toggle(n.ID)
		t.rebuild()
		m.ensureVisible(t)
		return m, nil
	}
	if n.Parent != nil {
		t.cursorTo(n.Parent.ID)
		m.ensureVisible(t)
	}
	return m, nil
}

func (m *Model) pageStep(delta int) (tea.Model, tea.Cmd) {
	t := m.tab()
	ln := t.listingNode()
	if ln == nil {
		// The root listing arrives in one page.
		return m, nil
	}
	p := ln.Pager()
	if !p.Needed() {
		return m, nil
	}
	target := p.Clamp(p.Page + delta)
	if target == p.Page {
		return m, nil
	}
	spec, ok := m.specFor(t, ln, target)
	if !ok || !t.reg.StartPageChange(ln.ID) {
		return m, nil
	}
	t.rebuild()
	return m, fetchListingCmd(t.client, t.index, t.reg.Generation(ln.ID), spec)
}

func (m *Model) refreshListing() (tea.Model, tea.Cmd) {
	t := m.tab()
	ln := t.listingNode()
	if ln == nil {
		if t.rootLoading {
			return m, nil
		}
		t.rootLoading = true
		t.rootGen++
		return m, fetchCategoriesCmd(t.client, t.index, t.rootGen, categoriesQuery(m.cfg, t.filter))
	}
	spec, ok := m.specFor(t, ln, ln.Page)
	if !ok || !t.reg.StartPageChange(ln.ID) {
		return m, nil
	}
	t.rebuild()
	return m, fetchListingCmd(t.client, t.index, t.reg.Generation(ln.ID), spec)
}

// refreshEverything re-fetches the root listing and every expanded
// listing in one bounded concurrent pass, keeping pages and, via the
// derived IDs, the expansion shape.
func (m *Model) refreshEverything() (tea.Model, tea.Cmd) {
	t := m.tab()
	if t.refreshing || t.rootLoading {
		return m, nil
	}
	recs := t.reg.Records()
	specs := make([]listingSpec, 0, len(recs))
	kept := make([]tree.Record, 0, len(recs))
	for _, rec := range recs {
		n := t.reg.Node(rec.NodeID)
		if n == nil {
			continue
		}
		if spec, ok := m.specFor(t, n, rec.Page); ok {
			specs = append(specs, spec)
			kept = append(kept, rec)
		}
	}
	t.refreshing = true
	t.rootLoading = true
	t.rootGen++
	m.status = "Refreshing…"
	return m, refreshAllCmd(t.client, t.index, t.rootGen, categoriesQuery(m.cfg, t.filter), kept, specs)
}

func (m *Model) openEditor() (tea.Model, tea.Cmd) {
	t := m.tab()
	row := t.currentRow()
	if row == nil || row.Kind != tree.RowNode || row.Node == nil || row.Node.Item == nil {
		return m, nil
	}
	if m.readonly {
		m.status = "Read-only mode: edits disabled"
		return m, nil
	}
	m.editor = newEditor(t.index, row.Node, m.theme)
	return m, nil
}

func (m *Model) copyRow() (tea.Model, tea.Cmd) {
	t := m.tab()
	row := t.currentRow()
	if row == nil || row.Kind != tree.RowNode || row.Node == nil {
		return m, nil
	}
	text := rowCopyText(*row)
	if text == "" {
		return m, nil
	}
	if err := clipboard.WriteAll(text); err != nil {
		m.lastErr = "clipboard: " + err.Error()
		return m, nil
	}
	m.status = "Copied row"
	return m, nil
}

func (m *Model) copyLabel() (tea.Model, tea.Cmd) {
	t := m.tab()
	n := t.currentNode()
	if n == nil || n.Item == nil {
		return m, nil
	}
	if err := clipboard.WriteAll(labelBlock(*n.Item)); err != nil {
		m.lastErr = "clipboard: " + err.Error()
		return m, nil
	}
	m.status = "Label copied for " + n.Item.TagID
	m.log.Info("label printed", zap.String("tag", n.Item.TagID))
	return m, nil
}

var sortCycle = []string{"", tree.SortName, tree.SortTotal, tree.SortAvailable, tree.SortStatus}

func (m *Model) cycleSort(t *tabState) {
	owner := t.listingOwner()
	if owner == "" {
		t.reg.SetRootSort(nextSort(t.reg.RootSort()))
		m.status = sortStatus(t.reg.RootSort())
	} else if n := t.reg.Node(owner); n != nil {
		n.SortKey = nextSort(n.SortKey)
		m.status = sortStatus(n.SortKey)
	}
	t.rebuild()
	m.ensureVisible(t)
}

func nextSort(cur string) string {
	for i, s := range sortCycle {
		if s == cur {
			return sortCycle[(i+1)%len(sortCycle)]
		}
	}
	return sortCycle[0]
}

func sortStatus(key string) string {
	if key == "" {
		return "Sort: natural"
	}
	return "Sort: " + key
}

// cycleOption steps "" -> opts[0] -> ... -> last -> "".
func cycleOption(opts []string, cur string) string {
	if cur == "" {
		if len(opts) == 0 {
			return ""
		}
		return opts[0]
	}
	for i, o := range opts {
		if strings.EqualFold(o, cur) {
			if i == len(opts)-1 {
				return ""
			}
			return opts[i+1]
		}
	}
	return ""
}
