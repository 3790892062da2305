package tree

import (
	"testing"

	"github.com/rentscan/tagview/pkg/api"
)

// loadedTree assembles a three-branch fixture with one path expanded to
// the item level:
//
//	Tents > Pole Tents > 20x20 Pole Tent > 2 items
//	Tents > Pole Tents > 30x30 High Peak (collapsed)
//	Tents > Frame Tents (collapsed)
//	Tables (collapsed)
func loadedTree(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry(DefaultChain())
	r.SetRoots(CategoryNodes("inventory", []api.Category{
		{Category: "Tents", TotalItems: 12},
		{Category: "Tables", TotalItems: 40},
	}))
	expand := func(id string, kids func(n *Node) []*Node, total int) {
		t.Helper()
		if got := r.Toggle(id); got != ActionExpand {
			t.Fatalf("toggle %s: got %v", id, got)
		}
		n := r.Node(id)
		if !r.Complete(id, r.Generation(id), kids(n), api.PageInfo{Total: total, PerPage: 10, Page: 1}) {
			t.Fatalf("complete %s was rejected", id)
		}
	}
	expand("inventory/tents", func(n *Node) []*Node {
		return SubcategoryNodes(n, []api.Subcategory{
			{Subcategory: "Pole Tents", TotalItems: 8},
			{Subcategory: "Frame Tents", TotalItems: 4},
		})
	}, 2)
	expand("inventory/tents/pole-tents", func(n *Node) []*Node {
		return CommonNameNodes(n, []api.CommonName{
			{Name: "20x20 Pole Tent", TotalItems: 5},
			{Name: "30x30 High Peak", TotalItems: 3},
		})
	}, 2)
	expand("inventory/tents/pole-tents/20x20-pole-tent", func(n *Node) []*Node {
		return ItemNodes(n, []api.Item{
			{TagID: "E280117000000001", CommonName: "20x20 Pole Tent", BinLocation: "pack", Status: "On Contract", LastContractNum: "C-1041"},
			{TagID: "E280117000000002", CommonName: "20x20 Pole Tent", BinLocation: "resale", Status: "Ready to Rent"},
		})
	}, 2)
	return r
}

func TestFilterInactiveShowsEverything(t *testing.T) {
	r := loadedTree(t)
	v := ComputeVisibility(r, FilterState{})
	if v.Active() {
		t.Fatal("empty filter should be inactive")
	}
	for _, id := range []string{"inventory/tents", "inventory/tables", "inventory/tents/pole-tents/20x20-pole-tent/e280117000000001"} {
		if !v.Visible(id) {
			t.Errorf("expected %s visible with no filter", id)
		}
		if v.Dimmed(id) {
			t.Errorf("expected %s undimmed with no filter", id)
		}
	}
	if _, ok := v.Showing(""); ok {
		t.Error("inactive filter should not report tallies")
	}
}

func TestFilterStatusFiltersItemsOnly(t *testing.T) {
	r := loadedTree(t)
	v := ComputeVisibility(r, FilterState{Status: "On Contract"})

	if !v.Visible("inventory/tents/pole-tents/20x20-pole-tent/e280117000000001") {
		t.Error("expected the on-contract item visible")
	}
	if v.Visible("inventory/tents/pole-tents/20x20-pole-tent/e280117000000002") {
		t.Error("expected the ready-to-rent item hidden")
	}
	// Containers carry no status, so a status-only filter leaves them
	// all visible as their own matches.
	for _, id := range []string{"inventory/tents", "inventory/tables", "inventory/tents/pole-tents", "inventory/tents/frame-tents"} {
		if !v.Visible(id) {
			t.Errorf("expected container %s visible under status filter", id)
		}
		if v.Dimmed(id) {
			t.Errorf("expected container %s undimmed under status filter", id)
		}
	}
	s, ok := v.Showing("inventory/tents/pole-tents/20x20-pole-tent")
	if !ok {
		t.Fatal("expected a tally for the item listing")
	}
	if s.Visible != 1 || s.Total != 2 {
		t.Errorf("expected Showing 1 of 2, got %d of %d", s.Visible, s.Total)
	}
}

func TestFilterTextDimsAncestors(t *testing.T) {
	r := loadedTree(t)
	v := ComputeVisibility(r, FilterState{CommonName: "20x20"})

	if !v.Visible("inventory/tents") || !v.Dimmed("inventory/tents") {
		t.Error("expected category kept as dimmed context")
	}
	if !v.Visible("inventory/tents/pole-tents") || !v.Dimmed("inventory/tents/pole-tents") {
		t.Error("expected subcategory kept as dimmed context")
	}
	if !v.Visible("inventory/tents/pole-tents/20x20-pole-tent") {
		t.Error("expected matching common name visible")
	}
	if v.Dimmed("inventory/tents/pole-tents/20x20-pole-tent") {
		t.Error("a direct match must not be dimmed")
	}
	if v.Visible("inventory/tents/pole-tents/30x30-high-peak") {
		t.Error("expected non-matching common name hidden")
	}
	if v.Visible("inventory/tables") {
		t.Error("expected branch without matches hidden")
	}
	s, _ := v.Showing("")
	if s.Visible != 1 || s.Total != 2 {
		t.Errorf("expected Showing 1 of 2 categories, got %d of %d", s.Visible, s.Total)
	}
}

func TestFilterContractSubstring(t *testing.T) {
	r := loadedTree(t)
	v := ComputeVisibility(r, FilterState{ContractNumber: "104"})
	if !v.Visible("inventory/tents/pole-tents/20x20-pole-tent/e280117000000001") {
		t.Error("expected substring match on contract number")
	}
	if v.Visible("inventory/tents/pole-tents/20x20-pole-tent/e280117000000002") {
		t.Error("expected item without the contract hidden")
	}
}

func TestFilterCombinedFieldsAndTogether(t *testing.T) {
	r := loadedTree(t)
	v := ComputeVisibility(r, FilterState{CommonName: "20x20", Status: "Ready to Rent"})
	if v.Visible("inventory/tents/pole-tents/20x20-pole-tent/e280117000000001") {
		t.Error("expected item failing the status clause hidden")
	}
	if !v.Visible("inventory/tents/pole-tents/20x20-pole-tent/e280117000000002") {
		t.Error("expected item matching both clauses visible")
	}
}

func TestFilterCaseInsensitive(t *testing.T) {
	r := loadedTree(t)
	v := ComputeVisibility(r, FilterState{CommonName: "pole TENT"})
	if !v.Visible("inventory/tents/pole-tents/20x20-pole-tent") {
		t.Error("expected case-insensitive name match")
	}
	v = ComputeVisibility(r, FilterState{Status: "on contract"})
	if !v.Visible("inventory/tents/pole-tents/20x20-pole-tent/e280117000000001") {
		t.Error("expected case-insensitive status match")
	}
}

func TestFilterListingOverride(t *testing.T) {
	r := loadedTree(t)
	r.Node("inventory/tents/pole-tents").FilterText = "30x30"
	v := ComputeVisibility(r, FilterState{})

	if !v.Active() {
		t.Fatal("listing filter should activate the pass")
	}
	if v.Visible("inventory/tents/pole-tents/20x20-pole-tent") {
		t.Error("expected non-matching child hidden by listing filter")
	}
	if !v.Visible("inventory/tents/pole-tents/30x30-high-peak") {
		t.Error("expected matching child visible")
	}
	if !v.Visible("inventory/tents/pole-tents") || v.Dimmed("inventory/tents/pole-tents") {
		t.Error("listing owner should stay visible as its own match")
	}
}

func TestFilterNoMatchesHidesBranches(t *testing.T) {
	r := loadedTree(t)
	v := ComputeVisibility(r, FilterState{CommonName: "zebra"})
	if v.Visible("inventory/tents") || v.Visible("inventory/tables") {
		t.Error("expected every branch hidden")
	}
	s, _ := v.Showing("")
	if s.Visible != 0 || s.Total != 2 {
		t.Errorf("expected Showing 0 of 2, got %d of %d", s.Visible, s.Total)
	}
}

func TestFilterSummary(t *testing.T) {
	f := FilterState{CommonName: "tent", Status: "On Contract"}
	if got := f.Summary(); got != "name:tent status:On Contract" {
		t.Errorf("unexpected summary %q", got)
	}
	if (FilterState{}).Summary() != "" {
		t.Error("empty filter should produce an empty summary")
	}
}
