package ui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentscan/tagview/pkg/api"
	"github.com/rentscan/tagview/pkg/tree"
)

func TestViewShowsLoadingPlaceholder(t *testing.T) {
	m := newTestModel(t, Options{})
	seedCategories(t, m, 0, cat("Tents", 30))
	press(m, "enter")

	out := m.View()
	assert.Contains(t, out, "… loading")
}

func TestViewPagerRowOnlyWhenNeeded(t *testing.T) {
	m := newTestModel(t, Options{})
	seedCategories(t, m, 0, cat("Tents", 30))
	ts := m.tab()
	tents := ts.reg.Roots()[0].ID

	press(m, "enter")
	completeSubcats(t, m, 0, tents, 25, 10, 1, "10x10", "20x20")
	assert.Contains(t, m.View(), "Page 1 of 3")

	press(m, "enter") // collapse
	press(m, "enter") // expand again
	completeSubcats(t, m, 0, tents, 8, 10, 1, "10x10", "20x20")
	assert.NotContains(t, m.View(), "Page 1 of 1",
		"a single-page listing renders no pager row")
}

func TestViewEmptyListingMarker(t *testing.T) {
	m := newTestModel(t, Options{})
	seedCategories(t, m, 0, cat("Tents", 0))
	ts := m.tab()
	tents := ts.reg.Roots()[0].ID

	press(m, "enter")
	completeSubcats(t, m, 0, tents, 0, 10, 1)
	assert.Contains(t, m.View(), "(no records)")
}

func TestViewInlineFetchError(t *testing.T) {
	m := newTestModel(t, Options{})
	seedCategories(t, m, 0, cat("Tents", 30))
	ts := m.tab()
	tents := ts.reg.Roots()[0].ID

	press(m, "enter")
	m.Update(listingMsg{
		tab:    0,
		nodeID: tents,
		gen:    ts.reg.Generation(tents),
		err:    &api.FetchError{Status: 502, Message: "bad gateway", URL: "http://x/tab1/subcat_data"},
	})
	out := m.View()
	assert.Contains(t, out, "✗")
	assert.Contains(t, out, "request failed (502): bad gateway")
	assert.Equal(t, tree.StateCollapsed, ts.reg.Node(tents).State)
}

func TestViewRootErrorAndEmptyStates(t *testing.T) {
	m := newTestModel(t, Options{})
	ts := m.tab()

	ts.rootLoading = true
	ts.rootGen++
	assert.Contains(t, m.View(), "… loading")

	m.Update(categoriesMsg{tab: 0, gen: ts.rootGen, err: &api.FetchError{Message: "connection refused"}})
	assert.Contains(t, m.View(), "✗")

	seedCategories(t, m, 0)
	assert.Contains(t, m.View(), "No records found")
}

func TestViewShowingTallyOnFilteredListing(t *testing.T) {
	m := newTestModel(t, Options{})
	seedCategories(t, m, 0, cat("Tents", 30))
	ts := m.tab()
	tents := ts.reg.Roots()[0].ID

	press(m, "enter")
	completeSubcats(t, m, 0, tents, 3, 10, 1, "10x10", "20x20", "30x30")

	ts.cursorTo(tents + "/10x10")
	press(m, "F")
	require.NotNil(t, m.prompt)
	typeText(m, "10x")
	press(m, "enter")

	out := m.View()
	assert.Contains(t, out, "Showing 1 of 3")
	assert.Contains(t, out, "narrow:10x")
	assert.NotContains(t, out, "20x20")
}

func TestViewHeaderCarriesContextAndFilters(t *testing.T) {
	m := newTestModel(t, Options{})
	seedCategories(t, m, 0, cat("Tents", 30))
	press(m, "s")

	out := m.View()
	assert.Contains(t, out, "1:Inventory")
	assert.Contains(t, out, "2:Contracts")
	assert.Contains(t, out, "store:main")
	assert.Contains(t, out, "status:Ready to Rent")
}

func TestViewFooterStatusAndError(t *testing.T) {
	m := newTestModel(t, Options{})
	seedCategories(t, m, 0, cat("Tents", 30))

	m.status = "Saved status for T-001"
	assert.Contains(t, m.View(), "Saved status for T-001")

	m.lastErr = "request failed (500): boom"
	assert.Contains(t, m.View(), "request failed (500): boom",
		"errors take precedence over status notes")
}

func TestViewItemRowBadges(t *testing.T) {
	m := newTestModel(t, Options{})
	seedCategories(t, m, 0, cat("Tents", 30))
	cnID := expandToItems(t, m)
	_ = cnID

	out := m.View()
	assert.Contains(t, out, "T-001")
	assert.Contains(t, out, "READY")
	assert.Contains(t, out, "CONTR")
}

func TestViewReadonlyBanner(t *testing.T) {
	m := newTestModel(t, Options{Readonly: true})
	seedCategories(t, m, 0, cat("Tents", 30))
	assert.Contains(t, m.View(), "read-only")
}

func TestRenderPositionWindows(t *testing.T) {
	assert.Equal(t, "0 rows", renderPosition(0, 0, 20, 0))
	assert.Equal(t, "7 rows", renderPosition(3, 0, 20, 7))
	assert.Equal(t, "Page 1/5 (1-20 of 93)", renderPosition(0, 0, 20, 93))
	assert.Equal(t, "Page 2/5 (21-40 of 93)", renderPosition(25, 20, 20, 93))
	assert.Equal(t, "Page 5/5 (81-93 of 93)", renderPosition(92, 80, 20, 93))
}

func TestViewWindowFollowsCursor(t *testing.T) {
	m := newTestModel(t, Options{})
	names := make([]api.Category, 0, 40)
	for i := 0; i < 40; i++ {
		names = append(names, cat("Cat-"+strings.Repeat("x", i%3)+string(rune('A'+i%26)), i))
	}
	seedCategories(t, m, 0, names...)
	ts := m.tab()
	require.Len(t, ts.rows, 40)

	press(m, "G")
	assert.Equal(t, 39, ts.cursor)
	assert.Equal(t, 39-m.bodyHeight()+1, ts.scroll)

	press(m, "g")
	assert.Equal(t, 0, ts.cursor)
	assert.Equal(t, 0, ts.scroll)
}

func TestViewPromptReplacesFooter(t *testing.T) {
	m := newTestModel(t, Options{})
	seedCategories(t, m, 0, cat("Tents", 30))
	press(m, "/")
	out := m.View()
	assert.Contains(t, out, "name:")
	assert.Contains(t, out, "enter apply")
}
