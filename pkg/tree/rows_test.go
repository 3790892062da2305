package tree

import (
	"reflect"
	"testing"

	"github.com/rentscan/tagview/pkg/api"
)

func flattenAll(r *Registry) []Row {
	return Flatten(r, ComputeVisibility(r, FilterState{}))
}

func TestFlattenDepthFirstOrder(t *testing.T) {
	r := loadedTree(t)
	rows := flattenAll(r)

	want := []struct {
		id    string
		depth int
		last  bool
	}{
		{"inventory/tents", 0, false},
		{"inventory/tents/pole-tents", 1, false},
		{"inventory/tents/pole-tents/20x20-pole-tent", 2, false},
		{"inventory/tents/pole-tents/20x20-pole-tent/e280117000000001", 3, false},
		{"inventory/tents/pole-tents/20x20-pole-tent/e280117000000002", 3, true},
		{"inventory/tents/pole-tents/30x30-high-peak", 2, true},
		{"inventory/tents/frame-tents", 1, true},
		{"inventory/tables", 0, true},
	}
	if len(rows) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(rows))
	}
	for i, w := range want {
		row := rows[i]
		if row.Kind != RowNode {
			t.Errorf("row %d: expected RowNode, got %v", i, row.Kind)
			continue
		}
		if row.Node.ID != w.id {
			t.Errorf("row %d: expected %s, got %s", i, w.id, row.Node.ID)
		}
		if row.Depth != w.depth {
			t.Errorf("row %d: expected depth %d, got %d", i, w.depth, row.Depth)
		}
		if row.Last != w.last {
			t.Errorf("row %d (%s): expected last=%v", i, w.id, w.last)
		}
	}
}

func TestFlattenLoadingPlaceholder(t *testing.T) {
	r := loadedTree(t)
	r.Toggle("inventory/tables")
	rows := flattenAll(r)

	// Exclusive roots: toggling Tables collapsed Tents, so the list is
	// the two categories plus the placeholder under Tables.
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	ph := rows[2]
	if ph.Kind != RowLoading {
		t.Fatalf("expected RowLoading, got %v", ph.Kind)
	}
	if ph.Node.ID != "inventory/tables" || ph.Depth != 1 {
		t.Errorf("placeholder bound to %s at depth %d", ph.Node.ID, ph.Depth)
	}
}

func TestFlattenEmptyListing(t *testing.T) {
	r := newTestRegistry("Tents")
	r.Toggle("inventory/tents")
	r.Complete("inventory/tents", r.Generation("inventory/tents"), nil, api.PageInfo{Total: 0, PerPage: 10, Page: 1})
	rows := flattenAll(r)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[1].Kind != RowEmpty {
		t.Errorf("expected RowEmpty, got %v", rows[1].Kind)
	}
}

func TestFlattenErrorRowAfterFailedExpand(t *testing.T) {
	r := newTestRegistry("Tents")
	r.Toggle("inventory/tents")
	r.Fail("inventory/tents", r.Generation("inventory/tents"), "request failed (500)")
	rows := flattenAll(r)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[1].Kind != RowError {
		t.Fatalf("expected RowError, got %v", rows[1].Kind)
	}
	if rows[1].Node.LoadErr != "request failed (500)" {
		t.Errorf("error row lost the message: %q", rows[1].Node.LoadErr)
	}
}

func TestFlattenErrorRowAfterFailedPageChange(t *testing.T) {
	r := newTestRegistry("Tents")
	expandWithSubs(t, r, "inventory/tents", "Pole Tents")
	r.StartPageChange("inventory/tents")
	r.Fail("inventory/tents", r.Generation("inventory/tents"), "request failed (503)")
	rows := flattenAll(r)

	// Node, kept child, then the error line.
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[1].Kind != RowNode || rows[1].Node.Name != "Pole Tents" {
		t.Errorf("expected kept child before the error row")
	}
	if rows[2].Kind != RowError {
		t.Errorf("expected trailing RowError, got %v", rows[2].Kind)
	}
}

func TestFlattenPagerRow(t *testing.T) {
	r := newTestRegistry("Tents")
	r.Toggle("inventory/tents")
	n := r.Node("inventory/tents")
	kids := SubcategoryNodes(n, []api.Subcategory{{Subcategory: "Pole Tents"}})
	r.Complete("inventory/tents", r.Generation("inventory/tents"), kids, api.PageInfo{Total: 25, PerPage: 10, Page: 1})

	rows := flattenAll(r)
	last := rows[len(rows)-1]
	if last.Kind != RowPager {
		t.Fatalf("expected trailing RowPager, got %v", last.Kind)
	}
	if got := last.Node.Pager().Label(); got != "Page 1 of 3" {
		t.Errorf("expected %q, got %q", "Page 1 of 3", got)
	}
}

func TestFlattenIsIdempotent(t *testing.T) {
	r := loadedTree(t)
	for _, f := range []FilterState{{}, {CommonName: "20x20"}, {Status: "On Contract"}} {
		a := Flatten(r, ComputeVisibility(r, f))
		b := Flatten(r, ComputeVisibility(r, f))
		if !reflect.DeepEqual(a, b) {
			t.Errorf("flatten not stable for filter %+v", f)
		}
	}
}

func TestFlattenRecomputesLastUnderFilter(t *testing.T) {
	r := loadedTree(t)
	rows := Flatten(r, ComputeVisibility(r, FilterState{CommonName: "20x20"}))

	var tents, poleTent *Row
	for i := range rows {
		switch rows[i].Node.ID {
		case "inventory/tents":
			tents = &rows[i]
		case "inventory/tents/pole-tents/20x20-pole-tent":
			poleTent = &rows[i]
		}
	}
	if tents == nil || poleTent == nil {
		t.Fatal("expected filtered rows to keep the matching path")
	}
	if !tents.Last {
		t.Error("sole visible category should be last among siblings")
	}
	if !poleTent.Last {
		t.Error("sole visible common name should be last among siblings")
	}
}

func TestSortNodesOrderings(t *testing.T) {
	nodes := []*Node{
		{Name: "Bravo", Stats: Stats{Total: 5, Available: 1}},
		{Name: "Alpha", Stats: Stats{Total: 9, Available: 3}},
		{Name: "Charlie", Stats: Stats{Total: 9, Available: 2}},
	}
	if got := sortNodes(nodes, ""); &got[0] != &nodes[0] {
		t.Error("zero key should return the listing unchanged")
	}
	byName := sortNodes(nodes, SortName)
	if byName[0].Name != "Alpha" || byName[2].Name != "Charlie" {
		t.Errorf("name sort wrong: %s, %s, %s", byName[0].Name, byName[1].Name, byName[2].Name)
	}
	byTotal := sortNodes(nodes, SortTotal)
	if byTotal[0].Name != "Alpha" || byTotal[1].Name != "Charlie" {
		t.Errorf("total sort should be descending and stable: %s, %s", byTotal[0].Name, byTotal[1].Name)
	}
	byAvail := sortNodes(nodes, SortAvailable)
	if byAvail[0].Name != "Alpha" || byAvail[2].Name != "Bravo" {
		t.Errorf("available sort wrong: %s first, %s last", byAvail[0].Name, byAvail[2].Name)
	}
	if nodes[0].Name != "Bravo" {
		t.Error("sorting must not mutate the original listing")
	}
}
