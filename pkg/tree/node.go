package tree

import (
	"strings"

	"github.com/rentscan/tagview/pkg/api"
)

// Stats carries the per-row item tallies the container levels display.
// Category and subcategory payloads report "requiring service", common
// names report "in service"; both land in InService.
type Stats struct {
	Total      int
	OnContract int
	InService  int
	Available  int
}

// NodeState is the expansion state machine position for one node.
type NodeState int8

const (
	StateCollapsed NodeState = iota
	StateLoading
	StateExpanded
)

// String returns a short name for logging and test failure messages.
func (s NodeState) String() string {
	switch s {
	case StateCollapsed:
		return "collapsed"
	case StateLoading:
		return "loading"
	case StateExpanded:
		return "expanded"
	}
	return "unknown"
}

// Node is one expandable row of the tree. Nodes are created when a fetched
// page is installed and destroyed when their parent collapses or pages
// away; only expansion intent survives in the record store.
type Node struct {
	ID       string
	ParentID string
	Level    Level
	Name     string

	Stats Stats     // container levels
	Item  *api.Item // item level only

	State        NodeState
	Page         int // current page of this node's children, starts at 1
	ChildTotal   int
	ChildPerPage int
	FilterText   string // per-listing filter override; empty inherits the global filter
	SortKey      string // per-listing sort override; empty keeps server order
	LoadErr      string // inline error shown in place of the listing

	Parent   *Node
	Children []*Node

	gen int // fetch generation, guards stale completions
}

// Pager returns the pagination math for this node's children.
func (n *Node) Pager() Pager {
	return Pager{Page: n.Page, Total: n.ChildTotal, PerPage: n.ChildPerPage}
}

// DeriveID builds a node id from the parent path and the row's display
// name. Root nodes pass the tab path as parentID. Ids double as the record
// store key, so the derivation must stay stable across sessions.
func DeriveID(parentID, name string) string {
	return parentID + "/" + Slug(name)
}

// Slug lowercases a display name and collapses every run of
// non-alphanumeric bytes to a single dash. Empty results become "node" so
// an id is never blank.
func Slug(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	pendingDash := false
	for _, r := range strings.ToLower(name) {
		alnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !alnum {
			pendingDash = b.Len() > 0
			continue
		}
		if pendingDash {
			b.WriteByte('-')
			pendingDash = false
		}
		b.WriteRune(r)
	}
	if b.Len() == 0 {
		return "node"
	}
	return b.String()
}

// CategoryNode builds a root node for one category row. The tab path
// anchors the id; roots have no parent node.
func CategoryNode(tabPath string, c api.Category) *Node {
	return &Node{
		ID:    DeriveID(tabPath, c.Category),
		Level: LevelCategory,
		Name:  c.Category,
		Stats: Stats{
			Total:      c.TotalItems,
			OnContract: c.ItemsOnContracts,
			InService:  c.ItemsRequiringService,
			Available:  c.ItemsAvailable,
		},
		Page: 1,
	}
}

// SubcategoryNode builds a child node for one subcategory row.
func SubcategoryNode(parent *Node, s api.Subcategory) *Node {
	return &Node{
		ID:       DeriveID(parent.ID, s.Subcategory),
		ParentID: parent.ID,
		Parent:   parent,
		Level:    LevelSubcategory,
		Name:     s.Subcategory,
		Stats: Stats{
			Total:      s.TotalItems,
			OnContract: s.ItemsOnContracts,
			InService:  s.ItemsRequiringService,
			Available:  s.ItemsAvailable,
		},
		Page: 1,
	}
}

// CommonNameNode builds a child node for one common-name row.
func CommonNameNode(parent *Node, cn api.CommonName) *Node {
	return &Node{
		ID:       DeriveID(parent.ID, cn.Name),
		ParentID: parent.ID,
		Parent:   parent,
		Level:    LevelCommonName,
		Name:     cn.Name,
		Stats: Stats{
			Total:      cn.TotalItems,
			OnContract: cn.ItemsOnContracts,
			InService:  cn.ItemsInService,
			Available:  cn.ItemsAvailable,
		},
		Page: 1,
	}
}

// ItemNode builds a leaf node for one tagged item. The tag id is the
// display name; item rows never expand.
func ItemNode(parent *Node, it api.Item) *Node {
	copied := it
	return &Node{
		ID:       DeriveID(parent.ID, it.TagID),
		ParentID: parent.ID,
		Parent:   parent,
		Level:    LevelItem,
		Name:     it.TagID,
		Item:     &copied,
		Page:     1,
	}
}

// CategoryNodes maps a fetched category page to root nodes.
func CategoryNodes(tabPath string, cats []api.Category) []*Node {
	out := make([]*Node, 0, len(cats))
	for _, c := range cats {
		out = append(out, CategoryNode(tabPath, c))
	}
	return out
}

// SubcategoryNodes maps a fetched subcategory page to child nodes.
func SubcategoryNodes(parent *Node, subs []api.Subcategory) []*Node {
	out := make([]*Node, 0, len(subs))
	for _, s := range subs {
		out = append(out, SubcategoryNode(parent, s))
	}
	return out
}

// CommonNameNodes maps a fetched common-name page to child nodes.
func CommonNameNodes(parent *Node, names []api.CommonName) []*Node {
	out := make([]*Node, 0, len(names))
	for _, cn := range names {
		out = append(out, CommonNameNode(parent, cn))
	}
	return out
}

// ItemNodes maps a fetched item page to leaf nodes.
func ItemNodes(parent *Node, items []api.Item) []*Node {
	out := make([]*Node, 0, len(items))
	for _, it := range items {
		out = append(out, ItemNode(parent, it))
	}
	return out
}
