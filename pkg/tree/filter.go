package tree

import (
	"fmt"
	"strings"
)

// FilterState is the global filter bar: common-name text, contract number
// substring, and exact-match status and bin location. Empty fields are
// ignored, so a blank state matches everything.
type FilterState struct {
	CommonName     string
	ContractNumber string
	Status         string
	Bin            string
}

// Empty reports whether no filter field is set.
func (f FilterState) Empty() bool {
	return f.CommonName == "" && f.ContractNumber == "" && f.Status == "" && f.Bin == ""
}

// Summary renders the active fields for the footer, e.g.
// "name:tent contract:C-100 status:On Contract".
func (f FilterState) Summary() string {
	var parts []string
	if f.CommonName != "" {
		parts = append(parts, "name:"+f.CommonName)
	}
	if f.ContractNumber != "" {
		parts = append(parts, "contract:"+f.ContractNumber)
	}
	if f.Status != "" {
		parts = append(parts, "status:"+f.Status)
	}
	if f.Bin != "" {
		parts = append(parts, "bin:"+f.Bin)
	}
	return strings.Join(parts, " ")
}

// Showing is the per-listing visibility tally rendered as
// "Showing X of Y".
type Showing struct {
	Visible int
	Total   int
}

// Label renders the tally.
func (s Showing) Label() string {
	return fmt.Sprintf("Showing %d of %d", s.Visible, s.Total)
}

// Visibility is the result of one filter pass over the loaded tree:
// which nodes match, which are only visible as ancestor context (rendered
// dimmed), and the per-listing tallies. Nodes not yet fetched are not
// judged; they are filtered server-side when their page loads.
type Visibility struct {
	active  bool
	matches map[string]bool
	context map[string]bool
	showing map[string]Showing
}

// Active reports whether any filter field influenced the pass.
func (v *Visibility) Active() bool { return v != nil && v.active }

// Visible reports whether the node should be rendered at all.
func (v *Visibility) Visible(id string) bool {
	if !v.Active() {
		return true
	}
	return v.matches[id] || v.context[id]
}

// Dimmed reports whether the node is shown only as context for matching
// descendants.
func (v *Visibility) Dimmed(id string) bool {
	return v.Active() && v.context[id] && !v.matches[id]
}

// Showing returns the tally for one listing, keyed by the parent node's
// id ("" for the category roots).
func (v *Visibility) Showing(owner string) (Showing, bool) {
	if !v.Active() {
		return Showing{}, false
	}
	s, ok := v.showing[owner]
	return s, ok
}

// ComputeVisibility runs the filter over every loaded node. A node
// matches when all set fields that are relevant at its level hold:
// containers compare their name against the text filter, items compare
// common name, contract substring, and exact status and bin. Ancestors of
// matches are kept as context so a deep match is never orphaned.
func ComputeVisibility(r *Registry, f FilterState) *Visibility {
	v := &Visibility{
		active:  !f.Empty() || anyListingFilter(r.Roots()),
		matches: make(map[string]bool),
		context: make(map[string]bool),
		showing: make(map[string]Showing),
	}
	if !v.active {
		return v
	}
	tally := Showing{Total: len(r.Roots())}
	for _, n := range r.Roots() {
		if v.walk(n, f, f.CommonName) {
			tally.Visible++
		}
	}
	v.showing[""] = tally
	return v
}

// walk judges n and its loaded subtree, returning whether n ends up
// visible. nameText is the text filter in force for n's listing; a parent
// with its own listing filter overrides it for the children.
func (v *Visibility) walk(n *Node, f FilterState, nameText string) bool {
	if n.State == StateExpanded || len(n.Children) > 0 {
		childText := nameText
		if n.FilterText != "" {
			childText = n.FilterText
		}
		tally := Showing{Total: len(n.Children)}
		for _, c := range n.Children {
			if v.walk(c, f, childText) {
				tally.Visible++
			}
		}
		v.showing[n.ID] = tally
	}
	if matchNode(n, f, nameText) {
		v.matches[n.ID] = true
		return true
	}
	if anyChildVisible(v, n) {
		v.context[n.ID] = true
		return true
	}
	return false
}

// matchNode applies the fields relevant at n's level. Unset fields hold
// vacuously, so a status-only filter does not hide the container rows the
// matching items live under.
func matchNode(n *Node, f FilterState, nameText string) bool {
	if n.Level == LevelItem {
		it := n.Item
		if it == nil {
			return false
		}
		if nameText != "" && !containsFold(it.CommonName, nameText) {
			return false
		}
		if f.ContractNumber != "" && !strings.Contains(it.LastContractNum, f.ContractNumber) {
			return false
		}
		if f.Status != "" && !strings.EqualFold(it.Status, f.Status) {
			return false
		}
		if f.Bin != "" && !strings.EqualFold(it.BinLocation, f.Bin) {
			return false
		}
		return true
	}
	if nameText != "" && !containsFold(n.Name, nameText) {
		return false
	}
	return true
}

func anyChildVisible(v *Visibility, n *Node) bool {
	for _, c := range n.Children {
		if v.matches[c.ID] || v.context[c.ID] {
			return true
		}
	}
	return false
}

func anyListingFilter(nodes []*Node) bool {
	for _, n := range nodes {
		if n.FilterText != "" {
			return true
		}
		if anyListingFilter(n.Children) {
			return true
		}
	}
	return false
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
