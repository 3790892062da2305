package ui

import (
	"strings"

	"github.com/rentscan/tagview/pkg/api"
	"github.com/rentscan/tagview/pkg/config"
	"github.com/rentscan/tagview/pkg/logging"
	"github.com/rentscan/tagview/pkg/session"
	"github.com/rentscan/tagview/pkg/tree"
)

// tabState is everything one tab owns: its registry, its API client bound
// to the tab path, its filters and its viewport position. Tabs are fully
// independent; switching tabs never touches another tab's tree.
type tabState struct {
	index  int
	cfg    config.Tab
	client *api.Client
	reg    *tree.Registry
	scope  string

	filter tree.FilterState

	rows   []tree.Row
	vis    *tree.Visibility
	cursor int
	scroll int

	rootLoading bool
	rootLoaded  bool
	rootGen     int
	rootErr     string

	// pendingRestore holds saved expansions not yet replayed, keyed by
	// node ID. Entries drain top-down as their parent listings complete.
	pendingRestore map[string]tree.Record
	restoreArmed   bool

	retryArmed bool

	refreshing bool
}

func newTabState(index int, tab config.Tab, cfg config.Config, base *api.Client, store *session.Store) *tabState {
	t := &tabState{
		index:          index,
		cfg:            tab,
		client:         base.ForTab(tab.Path),
		reg:            tree.NewRegistry(tab.Chain()),
		scope:          session.ScopeKey(tab.Path, cfg.Store, cfg.Type),
		pendingRestore: map[string]tree.Record{},
	}
	t.reg.SetExclusive(cfg.UI.ExclusiveLevels())
	if store != nil {
		t.reg.SetStore(store.ForScope(t.scope))
	}
	return t
}

// rebuild recomputes visibility and the flattened row list after any
// structural or filter change.
func (t *tabState) rebuild() {
	t.vis = tree.ComputeVisibility(t.reg, t.filter)
	t.rows = tree.Flatten(t.reg, t.vis)
	t.clampCursor()
}

func (t *tabState) clampCursor() {
	if t.cursor >= len(t.rows) {
		t.cursor = len(t.rows) - 1
	}
	if t.cursor < 0 {
		t.cursor = 0
	}
}

// currentRow returns the row under the cursor, nil when the tab is empty.
func (t *tabState) currentRow() *tree.Row {
	if t.cursor < 0 || t.cursor >= len(t.rows) {
		return nil
	}
	return &t.rows[t.cursor]
}

// currentNode returns the node under the cursor, skipping placeholder rows
// back to the node that owns them.
func (t *tabState) currentNode() *tree.Node {
	row := t.currentRow()
	if row == nil {
		return nil
	}
	return row.Node
}

// listingOwner resolves the listing the cursor is in: the expanded node
// whose children surround the cursor, or "" for the root listing. A
// collapsed node under the cursor belongs to its parent's listing.
func (t *tabState) listingOwner() string {
	row := t.currentRow()
	if row == nil || row.Node == nil {
		return ""
	}
	n := row.Node
	switch row.Kind {
	case tree.RowLoading, tree.RowEmpty, tree.RowError, tree.RowPager:
		return n.ID
	}
	if n.Parent != nil {
		return n.Parent.ID
	}
	return ""
}

// listingNode resolves listingOwner to a node, nil for the root listing.
func (t *tabState) listingNode() *tree.Node {
	owner := t.listingOwner()
	if owner == "" {
		return nil
	}
	return t.reg.Node(owner)
}

// cursorTo moves the cursor to the row for the given node ID, if visible.
func (t *tabState) cursorTo(nodeID string) {
	for i := range t.rows {
		if t.rows[i].Kind == tree.RowNode && t.rows[i].Node != nil && t.rows[i].Node.ID == nodeID {
			t.cursor = i
			return
		}
	}
}

// purgePending drops a pending restore record and every saved descendant
// under it. Called when a saved node no longer exists on the server.
func (t *tabState) purgePending(store *session.Store, nodeID string) {
	ids := []string{nodeID}
	prefix := nodeID + "/"
	for id := range t.pendingRestore {
		if strings.HasPrefix(id, prefix) {
			ids = append(ids, id)
		}
	}
	for _, id := range ids {
		delete(t.pendingRestore, id)
	}
	if store != nil {
		if err := store.Delete(t.scope, ids...); err != nil {
			logging.Warnf("session delete failed for %s: %v", nodeID, err)
		}
	}
}

// filterSummary renders the active filter set for the header, "" when
// nothing is set.
func (t *tabState) filterSummary() string {
	return t.filter.Summary()
}
