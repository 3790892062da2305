// Package tree is the view-state core of the lazy inventory tree: node
// identity, the per-node expansion state machine, pagination math, and
// filter visibility. It owns no rendering and no I/O beyond the record
// store interface; the UI layer projects it to rows and the API layer
// feeds it fetched pages.
package tree

import (
	"github.com/rentscan/tagview/pkg/api"
	"github.com/rentscan/tagview/pkg/logging"
)

// Action is the outcome of a toggle request.
type Action int8

const (
	ActionNone Action = iota
	ActionExpand
	ActionCollapse
)

// Record is the persisted expansion intent for one node. A record exists
// iff the node is currently expanded; it carries enough to re-expand on
// the recorded page after a restart.
type Record struct {
	NodeID    string
	Level     Level
	ParentKey string
	Page      int
}

// RecordStore persists Records. Implemented by pkg/session; nil disables
// persistence. Store failures must not break the UI, so the registry logs
// and moves on.
type RecordStore interface {
	Put(rec Record) error
	Delete(ids ...string) error
}

// Registry owns every instantiated node of one tab's tree and runs the
// expansion state machine: Collapsed -> Loading -> Expanded, with a
// loading guard (one outstanding fetch per node), generation counters
// against stale completions, transitive record purging on collapse, and
// optional per-level sibling exclusivity.
type Registry struct {
	chain     Chain
	roots     []*Node
	nodes     map[string]*Node
	exclusive map[Level]bool
	store     RecordStore
	rootSort  string
}

// NewRegistry creates an empty registry for the given level chain.
func NewRegistry(chain Chain) *Registry {
	if len(chain) == 0 {
		chain = DefaultChain()
	}
	return &Registry{
		chain: chain,
		nodes: make(map[string]*Node),
	}
}

// SetStore attaches the record store. Pass nil to disable persistence.
func (r *Registry) SetStore(s RecordStore) {
	r.store = s
}

// SetExclusive overrides sibling exclusivity per level. Levels absent from
// the map keep the default (exclusive).
func (r *Registry) SetExclusive(m map[Level]bool) {
	if m == nil {
		r.exclusive = nil
		return
	}
	r.exclusive = make(map[Level]bool, len(m))
	for k, v := range m {
		r.exclusive[k] = v
	}
}

// Exclusive reports whether expanding a node at this level collapses its
// expanded siblings first. Defaults to true.
func (r *Registry) Exclusive(l Level) bool {
	if r.exclusive == nil {
		return true
	}
	v, ok := r.exclusive[l]
	if !ok {
		return true
	}
	return v
}

// Chain returns the level chain this registry renders.
func (r *Registry) Chain() Chain { return r.chain }

// SetRootSort sets the sort key for the category listing.
func (r *Registry) SetRootSort(key string) { r.rootSort = key }

// RootSort returns the category listing's sort key.
func (r *Registry) RootSort() string { return r.rootSort }

// Leaf returns the chain's leaf level.
func (r *Registry) Leaf() Level { return r.chain.Leaf() }

// NextLevel returns the child level below l in this registry's chain.
func (r *Registry) NextLevel(l Level) (Level, bool) { return r.chain.Next(l) }

// Expandable reports whether toggling n can ever do anything. Leaf rows
// have no listing below them.
func (r *Registry) Expandable(n *Node) bool {
	return n != nil && n.Level != r.Leaf()
}

// Node looks up a node by id, nil when absent.
func (r *Registry) Node(id string) *Node { return r.nodes[id] }

// Roots returns the root (category) nodes in display order.
func (r *Registry) Roots() []*Node { return r.roots }

// Len returns the number of registered nodes.
func (r *Registry) Len() int { return len(r.nodes) }

// SetRoots installs a fresh set of category rows, replacing the whole
// tree. Persisted records are left alone: the restore pass decides what
// still applies and purges the rest.
func (r *Registry) SetRoots(nodes []*Node) {
	r.roots = nodes
	r.nodes = make(map[string]*Node, len(nodes))
	for _, n := range nodes {
		n.Parent = nil
		r.nodes[n.ID] = n
	}
}

// Toggle runs the state machine for one node. Collapsed nodes start
// loading (after collapsing exclusive siblings) and the caller launches
// the fetch; Expanded nodes collapse in place; a toggle while Loading is
// rejected so only one fetch per node is ever outstanding.
func (r *Registry) Toggle(id string) Action {
	n := r.nodes[id]
	if n == nil || !r.Expandable(n) {
		return ActionNone
	}
	switch n.State {
	case StateLoading:
		return ActionNone
	case StateExpanded:
		r.collapse(n)
		return ActionCollapse
	default:
		if r.Exclusive(n.Level) {
			for _, sib := range r.siblings(n) {
				if sib != n && sib.State != StateCollapsed {
					r.collapse(sib)
				}
			}
		}
		n.State = StateLoading
		n.LoadErr = ""
		n.gen++
		return ActionExpand
	}
}

// StartPageChange begins a fetch for a different page (or a refresh) of an
// expanded listing. The current rows stay visible until the new page
// lands. Returns false when the node is missing, not expanded, or already
// loading; sibling exclusivity is not re-triggered.
func (r *Registry) StartPageChange(id string) bool {
	n := r.nodes[id]
	if n == nil || n.State != StateExpanded {
		return false
	}
	n.State = StateLoading
	n.LoadErr = ""
	n.gen++
	return true
}

// Generation returns the node's current fetch generation. Completions
// carry the generation they were started with; anything older is stale.
func (r *Registry) Generation(id string) int {
	if n := r.nodes[id]; n != nil {
		return n.gen
	}
	return 0
}

// Complete installs a fetched page of children, replacing any previous
// listing, and upserts the node's expansion record. Stale completions
// (generation mismatch, node collapsed meanwhile, node gone) are dropped
// so a late response cannot resurrect a dead subtree.
func (r *Registry) Complete(id string, gen int, children []*Node, info api.PageInfo) bool {
	n := r.nodes[id]
	if n == nil || n.State != StateLoading || n.gen != gen {
		return false
	}
	r.dropChildren(n)
	n.Children = children
	for _, c := range children {
		c.Parent = n
		c.ParentID = n.ID
		r.nodes[c.ID] = c
	}
	n.State = StateExpanded
	n.Page = info.Page
	n.ChildTotal = info.Total
	n.ChildPerPage = info.PerPage
	n.LoadErr = ""
	r.putRecord(n)
	return true
}

// Fail records a fetch failure. An initial expand falls back to Collapsed
// with the message rendered in place of the listing; a failed page change
// keeps the current rows and stays Expanded. Stale failures are dropped.
func (r *Registry) Fail(id string, gen int, msg string) bool {
	n := r.nodes[id]
	if n == nil || n.State != StateLoading || n.gen != gen {
		return false
	}
	n.LoadErr = msg
	if len(n.Children) > 0 {
		n.State = StateExpanded
	} else {
		n.State = StateCollapsed
	}
	return true
}

// Records walks the expanded nodes, parents before children, and returns
// their expansion records. Used to snapshot the tree before a full
// refresh.
func (r *Registry) Records() []Record {
	var out []Record
	var walk func(nodes []*Node)
	walk = func(nodes []*Node) {
		for _, n := range nodes {
			if n.State == StateExpanded || (n.State == StateLoading && len(n.Children) > 0) {
				out = append(out, Record{NodeID: n.ID, Level: n.Level, ParentKey: n.ParentID, Page: n.Page})
				walk(n.Children)
			}
		}
	}
	walk(r.roots)
	return out
}

// collapse returns n to Collapsed: the subtree is destroyed, its records
// (including n's own) are deleted, and the generation bumps so an
// in-flight fetch for n lands stale.
func (r *Registry) collapse(n *Node) {
	ids := make([]string, 0, 1+len(n.Children))
	ids = append(ids, n.ID)
	r.unregister(n, &ids)
	n.Children = nil
	n.State = StateCollapsed
	n.Page = 1
	n.ChildTotal = 0
	n.ChildPerPage = 0
	n.LoadErr = ""
	n.gen++
	r.deleteRecords(ids...)
}

// dropChildren removes n's current children from the registry and deletes
// their records. Used when a new page replaces the listing; n's own record
// survives.
func (r *Registry) dropChildren(n *Node) {
	if len(n.Children) == 0 {
		return
	}
	var ids []string
	r.unregister(n, &ids)
	n.Children = nil
	r.deleteRecords(ids...)
}

// unregister removes all descendants of n from the node map, appending
// their ids to out.
func (r *Registry) unregister(n *Node, out *[]string) {
	for _, c := range n.Children {
		*out = append(*out, c.ID)
		delete(r.nodes, c.ID)
		r.unregister(c, out)
	}
}

// siblings returns the sibling slice containing n (parent's children, or
// the roots).
func (r *Registry) siblings(n *Node) []*Node {
	if n.Parent == nil {
		return r.roots
	}
	return n.Parent.Children
}

func (r *Registry) putRecord(n *Node) {
	if r.store == nil {
		return
	}
	rec := Record{NodeID: n.ID, Level: n.Level, ParentKey: n.ParentID, Page: n.Page}
	if err := r.store.Put(rec); err != nil {
		logging.Warnf("persist expansion for %s: %v", n.ID, err)
	}
}

func (r *Registry) deleteRecords(ids ...string) {
	if r.store == nil || len(ids) == 0 {
		return
	}
	if err := r.store.Delete(ids...); err != nil {
		logging.Warnf("delete expansion records: %v", err)
	}
}
