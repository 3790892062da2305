package tree

import "sort"

// Sort keys accepted per listing. The zero value keeps server order.
const (
	SortName      = "name"
	SortTotal     = "total"
	SortAvailable = "available"
	SortStatus    = "status"
)

// RowKind distinguishes node lines from the pseudo-rows a listing can
// carry below its children.
type RowKind int8

const (
	RowNode RowKind = iota
	RowLoading
	RowEmpty
	RowError
	RowPager
)

// Row is one renderable line of the flattened tree. For pseudo-rows Node
// is the listing's owner, so the renderer can pull its pager or error.
type Row struct {
	Kind   RowKind
	Node   *Node
	Depth  int
	Dimmed bool
	Last   bool
}

// Flatten projects the loaded tree through the filter into the flat list
// the viewport renders: each visible node, then its listing's loading
// placeholder, children, empty/error line, and pager in that order.
// Re-running it on an unchanged registry yields the same rows.
func Flatten(r *Registry, vis *Visibility) []Row {
	return appendRows(nil, sortNodes(r.Roots(), r.RootSort()), 0, vis)
}

func appendRows(out []Row, nodes []*Node, depth int, vis *Visibility) []Row {
	var visible []*Node
	for _, n := range nodes {
		if vis.Visible(n.ID) {
			visible = append(visible, n)
		}
	}
	for i, n := range visible {
		last := i == len(visible)-1
		out = append(out, Row{Kind: RowNode, Node: n, Depth: depth, Dimmed: vis.Dimmed(n.ID), Last: last})
		switch {
		case n.State == StateLoading && len(n.Children) == 0:
			out = append(out, Row{Kind: RowLoading, Node: n, Depth: depth + 1, Last: true})
		case n.State == StateExpanded || len(n.Children) > 0:
			if len(n.Children) == 0 {
				out = append(out, Row{Kind: RowEmpty, Node: n, Depth: depth + 1, Last: true})
			} else {
				out = appendRows(out, sortNodes(n.Children, n.SortKey), depth+1, vis)
			}
			if n.LoadErr != "" {
				out = append(out, Row{Kind: RowError, Node: n, Depth: depth + 1, Last: true})
			}
			if n.Pager().Needed() {
				out = append(out, Row{Kind: RowPager, Node: n, Depth: depth + 1, Last: true})
			}
		case n.LoadErr != "":
			out = append(out, Row{Kind: RowError, Node: n, Depth: depth + 1, Last: true})
		}
	}
	return out
}

// sortNodes orders one listing by the given key on a copy, falling back
// to server order for the zero key. Ties keep their relative order.
func sortNodes(nodes []*Node, key string) []*Node {
	if key == "" || len(nodes) < 2 {
		return nodes
	}
	out := make([]*Node, len(nodes))
	copy(out, nodes)
	switch key {
	case SortName:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	case SortTotal:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Stats.Total > out[j].Stats.Total })
	case SortAvailable:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Stats.Available > out[j].Stats.Available })
	case SortStatus:
		sort.SliceStable(out, func(i, j int) bool { return statusKey(out[i]) < statusKey(out[j]) })
	}
	return out
}

func statusKey(n *Node) string {
	if n.Item != nil {
		return n.Item.Status
	}
	return n.Name
}
