// Package ui implements the terminal interface: a tabbed lazy tree over
// the inventory API, driven by the bubbletea update loop. All tree
// mutation happens here, on the single update goroutine; commands only
// fetch and report back.
package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/rentscan/tagview/pkg/api"
	"github.com/rentscan/tagview/pkg/config"
	"github.com/rentscan/tagview/pkg/session"
	"github.com/rentscan/tagview/pkg/tree"
	"github.com/rentscan/tagview/pkg/watcher"
)

// Options carries everything the model needs beyond the config itself.
type Options struct {
	ConfigPath string
	InitialTab string
	Store      *session.Store
	Watcher    *watcher.Watcher
	Readonly   bool
	NoRestore  bool
	Logger     *zap.Logger
	Renderer   *lipgloss.Renderer
}

// Model is the bubbletea root model.
type Model struct {
	cfg        config.Config
	configPath string

	theme  Theme
	tabs   []*tabState
	active int

	store *session.Store
	watch *watcher.Watcher

	editor *Editor
	alert  *alertModel
	help   helpModel
	prompt *prompt

	readonly  bool
	noRestore bool

	width  int
	height int
	ready  bool

	status  string
	lastErr string

	log *zap.Logger
}

// NewModel builds the root model. The base client carries server and
// timeout settings; each tab re-binds it to its own endpoint path.
func NewModel(cfg config.Config, base *api.Client, opts Options) *Model {
	renderer := opts.Renderer
	if renderer == nil {
		renderer = lipgloss.DefaultRenderer()
	}
	m := &Model{
		cfg:        cfg,
		configPath: opts.ConfigPath,
		theme:      ThemeNamed(cfg.UI.Theme, renderer),
		store:      opts.Store,
		watch:      opts.Watcher,
		readonly:   opts.Readonly,
		noRestore:  opts.NoRestore,
		log:        opts.Logger,
	}
	if m.log == nil {
		m.log = zap.NewNop()
	}
	m.help.theme = m.theme

	for i, tab := range cfg.Tabs {
		m.tabs = append(m.tabs, newTabState(i, tab, cfg, base, opts.Store))
	}

	want := opts.InitialTab
	if want == "" {
		want = cfg.DefaultTab
	}
	for i, tab := range cfg.Tabs {
		if strings.EqualFold(tab.Path, want) || strings.EqualFold(tab.Name, want) {
			m.active = i
			break
		}
	}
	return m
}

// tab returns the active tab's state. Never nil: config validation
// guarantees at least one tab.
func (m *Model) tab() *tabState {
	return m.tabs[m.active]
}

func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.loadTab(m.tab())}
	if m.watch != nil {
		cmds = append(cmds, watchConfigCmd(m.watch))
	}
	return tea.Batch(cmds...)
}

// loadTab kicks off the root listing fetch for a tab that has never
// loaded, arming the session restore pass alongside.
func (m *Model) loadTab(t *tabState) tea.Cmd {
	if t.rootLoading || t.rootLoaded {
		return nil
	}
	t.rootLoading = true
	t.rootGen++
	m.armRestore(t)
	return fetchCategoriesCmd(t.client, t.index, t.rootGen, categoriesQuery(m.cfg, t.filter))
}

// armRestore loads the tab's saved expansions into the pending set. They
// replay top-down: each completed listing releases the records whose
// parent it is.
func (m *Model) armRestore(t *tabState) {
	if m.noRestore || m.store == nil || t.restoreArmed {
		return
	}
	t.restoreArmed = true
	recs, err := m.store.List(t.scope)
	if err != nil {
		m.log.Warn("session load failed", zap.String("scope", t.scope), zap.Error(err))
		return
	}
	for _, rec := range recs {
		t.pendingRestore[rec.NodeID] = tree.Record{
			NodeID:    rec.NodeID,
			Level:     rec.Level,
			ParentKey: rec.ParentKey,
			Page:      rec.Page,
		}
	}
	if len(recs) > 0 {
		m.log.Debug("session restore armed",
			zap.String("scope", t.scope), zap.Int("records", len(recs)))
	}
}

// restoreCmds replays pending expansions whose parent listing just
// completed. parentKey "" means the root listing. Records whose node no
// longer exists are purged together with their saved descendants.
func (m *Model) restoreCmds(t *tabState, parentKey string) []tea.Cmd {
	if len(t.pendingRestore) == 0 {
		return nil
	}
	var cmds []tea.Cmd
	for id, rec := range t.pendingRestore {
		if rec.ParentKey != parentKey {
			continue
		}
		n := t.reg.Node(id)
		if n == nil || !t.reg.Expandable(n) {
			t.purgePending(m.store, id)
			continue
		}
		delete(t.pendingRestore, id)
		if t.reg.Toggle(id) != tree.ActionExpand {
			continue
		}
		if spec, ok := m.specFor(t, n, rec.Page); ok {
			cmds = append(cmds, fetchListingCmd(t.client, t.index, t.reg.Generation(id), spec))
		}
	}
	return cmds
}

// specFor captures the fetch parameters for n's children at the given
// page, resolving the contract filter for contract tabs.
func (m *Model) specFor(t *tabState, n *tree.Node, page int) (listingSpec, bool) {
	contract := ""
	if t.cfg.ContractFilter {
		contract = t.filter.ContractNumber
	}
	return specFor(t.reg, n, page, contract)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ready = true
		m.help.resize(m.width, m.height)
		m.tab().clampCursor()
		m.ensureVisible(m.tab())
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case categoriesMsg:
		return m.onCategories(msg)

	case listingMsg:
		return m.onListing(msg)

	case fieldSavedMsg:
		return m.onFieldSaved(msg)

	case refreshDoneMsg:
		return m.onRefreshDone(msg)

	case filterRetryMsg:
		return m.onFilterRetry(msg)

	case configChangedMsg:
		return m, tea.Batch(reloadConfigCmd(m.configPath), watchConfigCmd(m.watch))

	case configReloadedMsg:
		return m.onConfigReloaded(msg)
	}

	// Cursor blink and similar component messages.
	var cmds []tea.Cmd
	if m.prompt != nil {
		cmds = append(cmds, m.prompt.update(msg))
	}
	if m.editor != nil {
		cmds = append(cmds, m.editor.update(msg))
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) onCategories(msg categoriesMsg) (tea.Model, tea.Cmd) {
	t := m.tabs[msg.tab]
	if msg.gen != t.rootGen {
		return m, nil
	}
	t.rootLoading = false
	if msg.err != nil {
		t.rootErr = api.UserMessage(msg.err)
		m.lastErr = t.rootErr
		m.log.Warn("category fetch failed", zap.String("tab", t.cfg.Path), zap.Error(msg.err))
		t.rebuild()
		return m, nil
	}
	t.rootErr = ""
	t.rootLoaded = true
	t.reg.SetRoots(tree.CategoryNodes(t.cfg.Path, msg.cats))
	cmds := m.restoreCmds(t, "")
	t.rebuild()
	m.ensureVisible(t)
	return m, tea.Batch(cmds...)
}

func (m *Model) onListing(msg listingMsg) (tea.Model, tea.Cmd) {
	t := m.tabs[msg.tab]
	var cmds []tea.Cmd
	if msg.err != nil {
		if t.reg.Fail(msg.nodeID, msg.gen, api.UserMessage(msg.err)) {
			m.lastErr = api.UserMessage(msg.err)
			m.log.Warn("listing fetch failed",
				zap.String("node", msg.nodeID), zap.Error(msg.err))
		}
	} else if n := t.reg.Node(msg.nodeID); n != nil {
		if t.reg.Complete(msg.nodeID, msg.gen, msg.build(n), msg.info) {
			cmds = m.restoreCmds(t, msg.nodeID)
		}
	}
	t.rebuild()
	m.ensureVisible(t)
	return m, tea.Batch(cmds...)
}

func (m *Model) onFieldSaved(msg fieldSavedMsg) (tea.Model, tea.Cmd) {
	t := m.tabs[msg.tab]
	if m.editor != nil {
		m.editor.saving = false
	}
	if msg.err != nil {
		m.log.Warn("field update failed",
			zap.String("tag", msg.tagID), zap.String("field", msg.field.Label()), zap.Error(msg.err))
		m.alert = newAlert("Update failed", api.UserMessage(msg.err), m.theme)
		return m, nil
	}
	m.editor = nil
	m.status = fmt.Sprintf("Saved %s for %s", strings.ToLower(msg.field.Label()), msg.tagID)
	m.log.Info("field updated",
		zap.String("tag", msg.tagID), zap.String("field", msg.field.Label()), zap.String("value", msg.value))

	// Re-fetch the parent listing at its current page so the row reflects
	// what the server actually stored.
	if n := t.reg.Node(msg.parentID); n != nil && t.reg.StartPageChange(msg.parentID) {
		if spec, ok := m.specFor(t, n, n.Page); ok {
			t.rebuild()
			return m, fetchListingCmd(t.client, t.index, t.reg.Generation(msg.parentID), spec)
		}
	}
	return m, nil
}

func (m *Model) onRefreshDone(msg refreshDoneMsg) (tea.Model, tea.Cmd) {
	t := m.tabs[msg.tab]
	if msg.gen != t.rootGen {
		return m, nil
	}
	t.refreshing = false
	t.rootLoading = false
	if msg.catsErr != nil {
		t.rootErr = api.UserMessage(msg.catsErr)
		m.lastErr = t.rootErr
		m.log.Warn("refresh failed", zap.String("tab", t.cfg.Path), zap.Error(msg.catsErr))
		t.rebuild()
		return m, nil
	}

	var cursorID string
	if n := t.currentNode(); n != nil {
		cursorID = n.ID
	}

	t.rootErr = ""
	t.rootLoaded = true
	t.reg.SetRoots(tree.CategoryNodes(t.cfg.Path, msg.cats))

	// Results arrive parents-first, so every parent is re-expanded before
	// its children are looked up.
	for _, res := range msg.results {
		n := t.reg.Node(res.rec.NodeID)
		if n == nil {
			continue
		}
		if res.err != nil {
			if t.reg.Toggle(res.rec.NodeID) == tree.ActionExpand {
				t.reg.Fail(res.rec.NodeID, t.reg.Generation(res.rec.NodeID), api.UserMessage(res.err))
			}
			m.lastErr = api.UserMessage(res.err)
			continue
		}
		if t.reg.Toggle(res.rec.NodeID) != tree.ActionExpand {
			continue
		}
		gen := t.reg.Generation(res.rec.NodeID)
		t.reg.Complete(res.rec.NodeID, gen, res.build(n), res.info)
	}

	t.rebuild()
	if cursorID != "" {
		t.cursorTo(cursorID)
	}
	m.ensureVisible(t)
	m.status = "Refreshed"
	return m, nil
}

func (m *Model) onFilterRetry(msg filterRetryMsg) (tea.Model, tea.Cmd) {
	t := m.tabs[msg.tab]
	if !t.retryArmed {
		return m, nil
	}
	if t.rootLoaded {
		t.retryArmed = false
		t.rebuild()
		return m, nil
	}
	if msg.attempt >= filterRetryMax {
		t.retryArmed = false
		return m, nil
	}
	return m, filterRetryCmd(msg.tab, msg.attempt+1)
}

func (m *Model) onConfigReloaded(msg configReloadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.lastErr = "config reload failed: " + msg.err.Error()
		m.log.Warn("config reload failed", zap.Error(msg.err))
		return m, nil
	}
	m.cfg.UI = msg.cfg.UI
	m.theme = ThemeNamed(msg.cfg.UI.Theme, m.theme.Renderer)
	m.help.theme = m.theme
	m.help.ready = false
	for _, t := range m.tabs {
		t.reg.SetExclusive(msg.cfg.UI.ExclusiveLevels())
	}
	m.status = "Config reloaded"
	m.log.Info("config reloaded", zap.String("theme", msg.cfg.UI.Theme))
	return m, nil
}

// bodyHeight is the row count available to the tree between header and
// footer.
func (m *Model) bodyHeight() int {
	h := m.height - headerHeight - footerHeight
	if h < 1 {
		h = 1
	}
	return h
}

// ensureVisible scrolls the window so the cursor row is on screen.
func (m *Model) ensureVisible(t *tabState) {
	if !m.ready {
		return
	}
	body := m.bodyHeight()
	if t.cursor < t.scroll {
		t.scroll = t.cursor
	}
	if t.cursor >= t.scroll+body {
		t.scroll = t.cursor - body + 1
	}
	if t.scroll < 0 {
		t.scroll = 0
	}
}
