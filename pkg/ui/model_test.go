package ui

import (
	"errors"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentscan/tagview/pkg/api"
	"github.com/rentscan/tagview/pkg/config"
	"github.com/rentscan/tagview/pkg/session"
	"github.com/rentscan/tagview/pkg/tree"
)

// newTestModel builds a model against a dead server. Tests that never run
// the returned commands inject completion messages by hand instead.
func newTestModel(t *testing.T, opts Options) *Model {
	t.Helper()
	cfg := config.Default()
	cfg.Server.BaseURL = "http://127.0.0.1:1"
	base := api.NewClient(cfg.Server.BaseURL, cfg.Tabs[0].Path)
	if opts.Store == nil {
		opts.NoRestore = true
	}
	m := NewModel(cfg, base, opts)
	m.width, m.height = 100, 30
	m.ready = true
	return m
}

func press(m *Model, key string) tea.Cmd {
	var k tea.KeyMsg
	switch key {
	case "enter":
		k = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		k = tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		k = tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		k = tea.KeyMsg{Type: tea.KeyShiftTab}
	case "up":
		k = tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		k = tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		k = tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		k = tea.KeyMsg{Type: tea.KeyRight}
	case "ctrl+s":
		k = tea.KeyMsg{Type: tea.KeyCtrlS}
	case "ctrl+c":
		k = tea.KeyMsg{Type: tea.KeyCtrlC}
	default:
		k = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	_, cmd := m.Update(k)
	return cmd
}

func typeText(m *Model, text string) {
	for _, r := range text {
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

// seedCategories lands a synthetic root listing on the given tab.
func seedCategories(t *testing.T, m *Model, tabIdx int, cats ...api.Category) {
	t.Helper()
	ts := m.tabs[tabIdx]
	if !ts.rootLoading {
		ts.rootLoading = true
		ts.rootGen++
	}
	m.Update(categoriesMsg{tab: tabIdx, gen: ts.rootGen, cats: cats})
	require.True(t, ts.rootLoaded)
}

func cat(name string, total int) api.Category {
	return api.Category{Category: name, TotalItems: total, ItemsAvailable: total}
}

// completeSubcats finishes an in-flight child fetch with subcategory rows.
func completeSubcats(t *testing.T, m *Model, tabIdx int, nodeID string, total, perPage, page int, names ...string) {
	t.Helper()
	ts := m.tabs[tabIdx]
	subs := make([]api.Subcategory, len(names))
	for i, n := range names {
		subs[i] = api.Subcategory{Subcategory: n, TotalItems: 10}
	}
	m.Update(listingMsg{
		tab:    tabIdx,
		nodeID: nodeID,
		gen:    ts.reg.Generation(nodeID),
		build: func(parent *tree.Node) []*tree.Node {
			return tree.SubcategoryNodes(parent, subs)
		},
		info: api.PageInfo{Total: total, PerPage: perPage, Page: page},
	})
}

func completeItems(t *testing.T, m *Model, tabIdx int, nodeID string, items []api.Item, info api.PageInfo) {
	t.Helper()
	ts := m.tabs[tabIdx]
	m.Update(listingMsg{
		tab:    tabIdx,
		nodeID: nodeID,
		gen:    ts.reg.Generation(nodeID),
		build: func(parent *tree.Node) []*tree.Node {
			return tree.ItemNodes(parent, items)
		},
		info: info,
	})
}

func TestExpandCollapseRoundtrip(t *testing.T) {
	m := newTestModel(t, Options{})
	seedCategories(t, m, 0, cat("Tents", 30), cat("Tables", 12))
	ts := m.tab()
	require.Len(t, ts.rows, 2)

	cmd := press(m, "enter")
	require.NotNil(t, cmd, "expand must launch a fetch")
	tentsID := ts.rows[0].Node.ID
	assert.Equal(t, tree.StateLoading, ts.reg.Node(tentsID).State)

	completeSubcats(t, m, 0, tentsID, 2, 10, 1, "10x10", "20x20")
	n := ts.reg.Node(tentsID)
	assert.Equal(t, tree.StateExpanded, n.State)
	require.Len(t, n.Children, 2)
	assert.Len(t, ts.rows, 4)

	press(m, "enter")
	assert.Equal(t, tree.StateCollapsed, ts.reg.Node(tentsID).State)
	assert.Len(t, ts.rows, 2)
	assert.Nil(t, ts.reg.Node(tentsID+"/10x10"), "collapse must drop child nodes")
}

func TestToggleWhileLoadingIsIgnored(t *testing.T) {
	m := newTestModel(t, Options{})
	seedCategories(t, m, 0, cat("Tents", 30))
	ts := m.tab()

	require.NotNil(t, press(m, "enter"))
	id := ts.rows[0].Node.ID
	gen := ts.reg.Generation(id)

	assert.Nil(t, press(m, "enter"), "toggle while loading must not fetch again")
	assert.Equal(t, gen, ts.reg.Generation(id))
	assert.Equal(t, tree.StateLoading, ts.reg.Node(id).State)

	completeSubcats(t, m, 0, id, 1, 10, 1, "10x10")
	assert.Equal(t, tree.StateExpanded, ts.reg.Node(id).State)
}

func TestStaleCompletionDropped(t *testing.T) {
	m := newTestModel(t, Options{})
	seedCategories(t, m, 0, cat("Tents", 30))
	ts := m.tab()
	id := ts.rows[0].Node.ID

	press(m, "enter")
	staleGen := ts.reg.Generation(id)
	// Collapse while loading is rejected, so force the stale path through a
	// completed expand, collapse, expand cycle.
	completeSubcats(t, m, 0, id, 1, 10, 1, "old")
	press(m, "enter") // collapse
	press(m, "enter") // expand again, new generation

	m.Update(listingMsg{
		tab:    0,
		nodeID: id,
		gen:    staleGen,
		build: func(parent *tree.Node) []*tree.Node {
			return tree.SubcategoryNodes(parent, []api.Subcategory{{Subcategory: "stale"}})
		},
		info: api.PageInfo{Total: 1, PerPage: 10, Page: 1},
	})
	assert.Equal(t, tree.StateLoading, ts.reg.Node(id).State, "stale completion must not land")

	completeSubcats(t, m, 0, id, 1, 10, 1, "fresh")
	n := ts.reg.Node(id)
	require.Len(t, n.Children, 1)
	assert.Equal(t, "fresh", n.Children[0].Name)
}

func TestSiblingExclusivityOnExpand(t *testing.T) {
	m := newTestModel(t, Options{})
	seedCategories(t, m, 0, cat("Tents", 30), cat("Tables", 12))
	ts := m.tab()
	tents := ts.rows[0].Node.ID

	press(m, "enter")
	completeSubcats(t, m, 0, tents, 1, 10, 1, "10x10")
	require.Equal(t, tree.StateExpanded, ts.reg.Node(tents).State)

	ts.cursorTo(ts.reg.Roots()[1].ID)
	press(m, "enter")
	assert.Equal(t, tree.StateCollapsed, ts.reg.Node(tents).State,
		"expanding a sibling must collapse the open one")
}

func TestTabSwitchIsLazyAndIsolated(t *testing.T) {
	m := newTestModel(t, Options{})
	seedCategories(t, m, 0, cat("Tents", 30))
	require.True(t, m.tabs[0].rootLoaded)
	require.False(t, m.tabs[1].rootLoaded)

	cmd := press(m, "2")
	assert.Equal(t, 1, m.active)
	assert.NotNil(t, cmd, "first visit to a tab must fetch its roots")
	assert.True(t, m.tabs[1].rootLoading)
	assert.True(t, m.tabs[0].rootLoaded, "switching away must not disturb the loaded tab")

	assert.Nil(t, press(m, "2"), "re-pressing the active tab is a no-op")
	press(m, "1")
	assert.Equal(t, 0, m.active)
	assert.Nil(t, press(m, "2"), "second visit must not refetch while loading")
}

func TestFilterBeforeDataRetries(t *testing.T) {
	m := newTestModel(t, Options{})
	ts := m.tab()
	ts.rootLoading = true
	ts.rootGen++

	press(m, "/")
	require.NotNil(t, m.prompt)
	typeText(m, "tent")
	cmd := press(m, "enter")
	require.Nil(t, m.prompt)
	assert.Equal(t, "tent", ts.filter.CommonName)
	require.NotNil(t, cmd, "filter before data must arm the retry tick")
	require.True(t, ts.retryArmed)

	// Ticks keep re-arming while the data is missing.
	_, cmd2 := m.Update(filterRetryMsg{tab: 0, attempt: 1})
	assert.NotNil(t, cmd2)
	assert.True(t, ts.retryArmed)

	// Once the listing lands the retry resolves and stops.
	seedCategories(t, m, 0, cat("Tents", 30), cat("Chairs", 9))
	_, cmd3 := m.Update(filterRetryMsg{tab: 0, attempt: 2})
	assert.Nil(t, cmd3)
	assert.False(t, ts.retryArmed)

	require.Len(t, ts.rows, 1, "filter must hide the non-matching category")
	assert.Equal(t, "Tents", ts.rows[0].Node.Name)
}

func TestFilterRetryGivesUpAtCap(t *testing.T) {
	m := newTestModel(t, Options{})
	ts := m.tab()
	ts.rootLoading = true
	ts.rootGen++
	ts.retryArmed = true

	_, cmd := m.Update(filterRetryMsg{tab: 0, attempt: filterRetryMax})
	assert.Nil(t, cmd)
	assert.False(t, ts.retryArmed)
}

func TestEscClearsFiltersThenMessages(t *testing.T) {
	m := newTestModel(t, Options{})
	seedCategories(t, m, 0, cat("Tents", 30), cat("Chairs", 9))
	ts := m.tab()

	press(m, "s")
	require.Equal(t, api.StatusOptions[0], ts.filter.Status)
	press(m, "esc")
	assert.True(t, ts.filter.Empty())
	assert.Equal(t, "Filters cleared", m.status)

	m.lastErr = "boom"
	press(m, "esc")
	assert.Empty(t, m.lastErr)
}

func TestStatusAndBinCyclesWrapToEmpty(t *testing.T) {
	m := newTestModel(t, Options{})
	seedCategories(t, m, 0, cat("Tents", 30))
	ts := m.tab()

	for range api.StatusOptions {
		press(m, "s")
	}
	require.Equal(t, api.StatusOptions[len(api.StatusOptions)-1], ts.filter.Status)
	press(m, "s")
	assert.Empty(t, ts.filter.Status, "cycle past the last option clears the filter")

	press(m, "b")
	assert.Equal(t, api.BinLocationOptions[0], ts.filter.Bin)
}

func TestEditorOpensOnItemsOnly(t *testing.T) {
	m := newTestModel(t, Options{})
	seedCategories(t, m, 0, cat("Tents", 30))
	ts := m.tab()

	press(m, "e")
	assert.Nil(t, m.editor, "editor must not open on a category row")

	itemListing := expandToItems(t, m)
	ts.cursorTo(itemListing + "/t-001")
	press(m, "e")
	require.NotNil(t, m.editor)
	assert.Equal(t, "T-001", m.editor.item.TagID)
	assert.Equal(t, itemListing, m.editor.parentID)
}

// expandToItems drills Tents -> 10x10 -> Canopy Frame -> items and returns
// the common-name node id owning the item listing.
func expandToItems(t *testing.T, m *Model) string {
	t.Helper()
	ts := m.tab()
	tents := ts.reg.Roots()[0].ID

	ts.cursorTo(tents)
	press(m, "enter")
	completeSubcats(t, m, 0, tents, 1, 10, 1, "10x10")

	subID := tents + "/10x10"
	ts.cursorTo(subID)
	press(m, "enter")
	m.Update(listingMsg{
		tab:    0,
		nodeID: subID,
		gen:    ts.reg.Generation(subID),
		build: func(parent *tree.Node) []*tree.Node {
			return tree.CommonNameNodes(parent, []api.CommonName{{Name: "Canopy Frame", TotalItems: 2}})
		},
		info: api.PageInfo{Total: 1, PerPage: 10, Page: 1},
	})

	cnID := subID + "/canopy-frame"
	ts.cursorTo(cnID)
	press(m, "enter")
	completeItems(t, m, 0, cnID, []api.Item{
		{TagID: "T-001", CommonName: "Canopy Frame", Status: "Ready to Rent", BinLocation: "pack", Quality: "B"},
		{TagID: "T-002", CommonName: "Canopy Frame", Status: "On Contract", Quality: "A"},
	}, api.PageInfo{Total: 2, PerPage: 10, Page: 1})
	return cnID
}

func TestFieldSaveSuccessClosesEditorAndRefetches(t *testing.T) {
	m := newTestModel(t, Options{})
	seedCategories(t, m, 0, cat("Tents", 30))
	ts := m.tab()
	cnID := expandToItems(t, m)

	ts.cursorTo(cnID + "/t-001")
	press(m, "e")
	require.NotNil(t, m.editor)

	_, cmd := m.Update(fieldSavedMsg{
		tab: 0, parentID: cnID, field: api.FieldStatus,
		tagID: "T-001", value: "In Service",
	})
	assert.Nil(t, m.editor, "successful save closes the editor")
	assert.Contains(t, m.status, "T-001")
	require.NotNil(t, cmd, "save must re-fetch the parent listing")
	assert.Equal(t, tree.StateLoading, ts.reg.Node(cnID).State)

	completeItems(t, m, 0, cnID, []api.Item{
		{TagID: "T-001", CommonName: "Canopy Frame", Status: "In Service"},
		{TagID: "T-002", CommonName: "Canopy Frame", Status: "On Contract"},
	}, api.PageInfo{Total: 2, PerPage: 10, Page: 1})
	assert.Equal(t, "In Service", ts.reg.Node(cnID+"/t-001").Item.Status)
}

func TestFieldSaveFailureKeepsEditorAndAlerts(t *testing.T) {
	m := newTestModel(t, Options{})
	seedCategories(t, m, 0, cat("Tents", 30))
	cnID := expandToItems(t, m)
	m.tab().cursorTo(cnID + "/t-001")
	press(m, "e")
	require.NotNil(t, m.editor)
	m.editor.saving = true

	m.Update(fieldSavedMsg{
		tab: 0, parentID: cnID, field: api.FieldStatus,
		tagID: "T-001", err: errors.New("tag not found"),
	})
	require.NotNil(t, m.editor, "failed save keeps the editor open")
	assert.False(t, m.editor.saving)
	require.NotNil(t, m.alert)
	assert.Contains(t, m.alert.body, "tag not found")

	press(m, "enter")
	assert.Nil(t, m.alert)
	assert.NotNil(t, m.editor)
}

func TestReadonlyBlocksEditor(t *testing.T) {
	m := newTestModel(t, Options{Readonly: true})
	seedCategories(t, m, 0, cat("Tents", 30))
	cnID := expandToItems(t, m)
	m.tab().cursorTo(cnID + "/t-001")

	press(m, "e")
	assert.Nil(t, m.editor)
	assert.Contains(t, m.status, "Read-only")
}

func TestPageStepActsOnListingUnderCursor(t *testing.T) {
	m := newTestModel(t, Options{})
	seedCategories(t, m, 0, cat("Tents", 30))
	ts := m.tab()
	tents := ts.reg.Roots()[0].ID

	press(m, "enter")
	completeSubcats(t, m, 0, tents, 25, 10, 1, "10x10", "20x20")
	n := ts.reg.Node(tents)
	require.True(t, n.Pager().Needed())

	// Cursor sits on a child; ] pages the listing that contains it.
	ts.cursorTo(tents + "/10x10")
	cmd := press(m, "]")
	require.NotNil(t, cmd)
	assert.Equal(t, tree.StateLoading, n.State)
	assert.Len(t, n.Children, 2, "old rows stay visible while the page loads")

	completeSubcats(t, m, 0, tents, 25, 10, 2, "30x30", "40x40")
	assert.Equal(t, 2, n.Page)
	assert.Equal(t, "30x30", n.Children[0].Name)

	// Page 3 is the last page; ] from there is a no-op.
	completePage := func(page int) {
		if cmd := press(m, "]"); cmd != nil {
			completeSubcats(t, m, 0, tents, 25, 10, page, "60x60")
		}
	}
	ts.cursorTo(tents + "/30x30")
	completePage(3)
	assert.Equal(t, 3, n.Page)
	ts.cursorTo(tents + "/60x60")
	assert.Nil(t, press(m, "]"), "no next page past the end")
}

func TestRootListingHasNoPager(t *testing.T) {
	m := newTestModel(t, Options{})
	seedCategories(t, m, 0, cat("Tents", 30), cat("Chairs", 9))
	assert.Nil(t, press(m, "]"))
	assert.Nil(t, press(m, "["))
}

func TestRestoreReplaysSavedExpansionsTopDown(t *testing.T) {
	dir := t.TempDir()
	store, err := session.Open(filepath.Join(dir, "session.db"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	cfg := config.Default()
	scope := session.ScopeKey(cfg.Tabs[0].Path, cfg.Store, cfg.Type)
	tents := cfg.Tabs[0].Path + "/tents"
	require.NoError(t, store.Put(scope, tree.Record{NodeID: tents, Level: tree.LevelCategory, ParentKey: "", Page: 1}))
	require.NoError(t, store.Put(scope, tree.Record{NodeID: tents + "/10x10", Level: tree.LevelSubcategory, ParentKey: tents, Page: 2}))
	require.NoError(t, store.Put(scope, tree.Record{NodeID: tents + "/gone", Level: tree.LevelSubcategory, ParentKey: tents, Page: 1}))

	m := newTestModel(t, Options{Store: store})
	ts := m.tab()
	ts.rootLoading = true
	ts.rootGen++
	m.armRestore(ts)
	require.Len(t, ts.pendingRestore, 3)

	// Root listing lands: the category record replays immediately.
	_, cmd := m.Update(categoriesMsg{tab: 0, gen: ts.rootGen, cats: []api.Category{cat("Tents", 30)}})
	require.NotNil(t, cmd, "restore must launch the saved category expansion")
	assert.Equal(t, tree.StateLoading, ts.reg.Node(tents).State)
	assert.NotContains(t, ts.pendingRestore, tents)

	// Its listing lands: the saved child replays at its saved page, and the
	// record for a subcategory the server no longer returns is purged.
	completeSubcats(t, m, 0, tents, 2, 10, 1, "10x10", "20x20")
	sub := ts.reg.Node(tents + "/10x10")
	require.NotNil(t, sub)
	assert.Equal(t, tree.StateLoading, sub.State)
	assert.Empty(t, ts.pendingRestore)

	recs, err := store.List(scope)
	require.NoError(t, err)
	ids := make([]string, len(recs))
	for i, r := range recs {
		ids[i] = r.NodeID
	}
	assert.NotContains(t, ids, tents+"/gone", "unresolvable records are purged")

	// The replayed fetch carries the saved page.
	m.Update(listingMsg{
		tab:    0,
		nodeID: tents + "/10x10",
		gen:    ts.reg.Generation(tents + "/10x10"),
		build: func(parent *tree.Node) []*tree.Node {
			return tree.CommonNameNodes(parent, []api.CommonName{{Name: "Frame", TotalItems: 4}})
		},
		info: api.PageInfo{Total: 30, PerPage: 10, Page: 2},
	})
	assert.Equal(t, 2, ts.reg.Node(tents+"/10x10").Page)
}

func TestNoRestoreFlagSkipsReplay(t *testing.T) {
	dir := t.TempDir()
	store, err := session.Open(filepath.Join(dir, "session.db"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	cfg := config.Default()
	scope := session.ScopeKey(cfg.Tabs[0].Path, cfg.Store, cfg.Type)
	require.NoError(t, store.Put(scope, tree.Record{NodeID: cfg.Tabs[0].Path + "/tents", Level: tree.LevelCategory, Page: 1}))

	m := newTestModel(t, Options{Store: store, NoRestore: true})
	ts := m.tab()
	ts.rootLoading = true
	ts.rootGen++
	m.armRestore(ts)
	assert.Empty(t, ts.pendingRestore)
}

func TestRefreshAllReappliesExpansionsParentsFirst(t *testing.T) {
	m := newTestModel(t, Options{})
	seedCategories(t, m, 0, cat("Tents", 30), cat("Chairs", 9))
	ts := m.tab()
	tents := ts.reg.Roots()[0].ID

	press(m, "enter")
	completeSubcats(t, m, 0, tents, 2, 10, 1, "10x10", "20x20")
	ts.cursorTo(tents + "/10x10")

	cmd := press(m, "R")
	require.NotNil(t, cmd)
	require.True(t, ts.refreshing)
	gen := ts.rootGen

	// Simulate the concurrent pass landing: fresh tallies for the roots and
	// a re-fetched listing for the expanded category.
	m.Update(refreshDoneMsg{
		tab:  0,
		gen:  gen,
		cats: []api.Category{cat("Tents", 28), cat("Chairs", 9)},
		results: []refreshResult{{
			rec: tree.Record{NodeID: tents, Level: tree.LevelCategory, Page: 1},
			build: func(parent *tree.Node) []*tree.Node {
				return tree.SubcategoryNodes(parent, []api.Subcategory{
					{Subcategory: "10x10", TotalItems: 8},
				})
			},
			info: api.PageInfo{Total: 1, PerPage: 10, Page: 1},
		}},
	})

	assert.False(t, ts.refreshing)
	n := ts.reg.Node(tents)
	require.NotNil(t, n)
	assert.Equal(t, tree.StateExpanded, n.State)
	assert.Equal(t, 28, n.Stats.Total, "refresh must pick up new tallies")
	require.Len(t, n.Children, 1)
	assert.Equal(t, tents+"/10x10", ts.currentNode().ID, "cursor follows the surviving node")
}

func TestRefreshAllStaleResultDropped(t *testing.T) {
	m := newTestModel(t, Options{})
	seedCategories(t, m, 0, cat("Tents", 30))
	ts := m.tab()

	press(m, "R")
	stale := ts.rootGen
	press(m, "esc") // unrelated key; refresh still in flight
	ts.rootGen++    // a newer root fetch superseded the refresh

	m.Update(refreshDoneMsg{tab: 0, gen: stale, cats: []api.Category{cat("Replaced", 1)}})
	assert.Equal(t, "Tents", ts.reg.Roots()[0].Name, "stale refresh must not land")
}

func TestConfigReloadSwapsThemeAndExclusivity(t *testing.T) {
	m := newTestModel(t, Options{})
	seedCategories(t, m, 0, cat("Tents", 30))

	next := config.Default()
	next.UI.Theme = "mono"
	next.UI.Exclusive = map[string]bool{"category": false}
	m.Update(configReloadedMsg{cfg: next})

	assert.Equal(t, "Config reloaded", m.status)
	assert.False(t, m.tab().reg.Exclusive(tree.LevelCategory))
	assert.True(t, m.tab().reg.Exclusive(tree.LevelSubcategory))
}

func TestConfigReloadFailureKeepsRunning(t *testing.T) {
	m := newTestModel(t, Options{})
	seedCategories(t, m, 0, cat("Tents", 30))

	m.Update(configReloadedMsg{err: errors.New("yaml: bad indent")})
	assert.Contains(t, m.lastErr, "config reload failed")
	assert.Len(t, m.tab().rows, 1, "tree must survive a bad reload")
}

func TestListingOwnerResolution(t *testing.T) {
	m := newTestModel(t, Options{})
	seedCategories(t, m, 0, cat("Tents", 30))
	ts := m.tab()
	tents := ts.reg.Roots()[0].ID

	assert.Equal(t, "", ts.listingOwner(), "root rows belong to the root listing")

	press(m, "enter")
	completeSubcats(t, m, 0, tents, 25, 10, 1, "10x10")
	ts.cursorTo(tents + "/10x10")
	assert.Equal(t, tents, ts.listingOwner())

	// The pager pseudo-row belongs to the listing that owns it.
	for i, row := range ts.rows {
		if row.Kind == tree.RowPager {
			ts.cursor = i
		}
	}
	assert.Equal(t, tents, ts.listingOwner())
}
