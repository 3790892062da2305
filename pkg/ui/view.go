package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rentscan/tagview/pkg/metrics"
	"github.com/rentscan/tagview/pkg/tree"
)

const (
	headerHeight = 3
	footerHeight = 2
)

func (m *Model) View() string {
	defer metrics.Timer(metrics.ViewRender)()

	if !m.ready {
		return "Loading…"
	}
	if m.alert != nil {
		return m.alert.View(m.width, m.height)
	}
	if m.help.open {
		return m.help.View(m.width, m.height)
	}
	if m.editor != nil {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			m.editor.View(m.width))
	}

	t := m.tab()
	var b strings.Builder
	b.WriteString(m.renderHeader(t))
	b.WriteString(m.renderBody(t))
	b.WriteString(m.renderFooter(t))
	return b.String()
}

func (m *Model) renderHeader(t *tabState) string {
	th := m.theme

	labels := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		label := fmt.Sprintf(" %d:%s ", i+1, tab.cfg.Name)
		if i == m.active {
			labels = append(labels, th.Header.Render(label))
		} else {
			labels = append(labels, th.MutedText.Render(label))
		}
	}
	left := lipgloss.JoinHorizontal(lipgloss.Top, labels...)
	context := fmt.Sprintf("store:%s ", m.cfg.Store)
	if m.cfg.Type != "" {
		context = fmt.Sprintf("store:%s · type:%s ", m.cfg.Store, m.cfg.Type)
	}
	line1 := joinEnds(m.width, left, th.MutedText.Render(context))

	var parts []string
	if f := t.filterSummary(); f != "" {
		parts = append(parts, th.SecondaryText.Render("⧩ ")+f)
	}
	switch {
	case t.refreshing:
		parts = append(parts, th.LoadingText.Render("refreshing…"))
	case t.rootLoading:
		parts = append(parts, th.LoadingText.Render("loading…"))
	}
	if n := len(t.pendingRestore); n > 0 {
		parts = append(parts, th.MutedText.Render(fmt.Sprintf("restoring %d", n)))
	}
	if m.readonly {
		parts = append(parts, th.MutedText.Render("read-only"))
	}
	line2 := ""
	if len(parts) > 0 {
		line2 = " " + strings.Join(parts, "  ")
	}

	divider := th.MutedText.Render(strings.Repeat("─", max(m.width, 1)))
	return line1 + "\n" + line2 + "\n" + divider + "\n"
}

func (m *Model) renderBody(t *tabState) string {
	th := m.theme
	body := m.bodyHeight()
	var b strings.Builder

	if len(t.rows) == 0 {
		var line string
		switch {
		case t.rootLoading:
			line = th.LoadingText.Render("… loading")
		case t.rootErr != "":
			line = th.ErrorText.Render("✗ " + t.rootErr)
		case t.rootLoaded:
			line = th.MutedText.Render("No records found")
		default:
			line = th.MutedText.Render("Press r to load")
		}
		b.WriteString(" " + line + "\n")
		for i := 1; i < body; i++ {
			b.WriteString("\n")
		}
		return b.String()
	}

	end := t.scroll + body
	if end > len(t.rows) {
		end = len(t.rows)
	}
	for i := t.scroll; i < end; i++ {
		b.WriteString(m.renderRow(t, t.rows[i], i == t.cursor))
		b.WriteString("\n")
	}
	for i := end - t.scroll; i < body; i++ {
		b.WriteString("\n")
	}
	return b.String()
}

// renderRow paints one flattened row: tree branch prefix, state
// indicator, then the level-specific label.
func (m *Model) renderRow(t *tabState, row tree.Row, selected bool) string {
	th := m.theme
	prefix := branchPrefix(row)

	var line string
	switch row.Kind {
	case tree.RowLoading:
		line = prefix + th.LoadingText.Render("… loading")
	case tree.RowEmpty:
		line = prefix + th.MutedText.Render("(no records)")
	case tree.RowError:
		msg := ""
		if row.Node != nil {
			msg = row.Node.LoadErr
		}
		line = prefix + th.ErrorText.Render("✗ "+msg)
	case tree.RowPager:
		line = prefix + m.renderPager(row.Node)
	default:
		line = prefix + m.renderNodeLabel(t, row)
	}

	if row.Dimmed && !selected {
		line = th.Renderer.NewStyle().Faint(true).Render(line)
	}
	if selected {
		return th.Selected.Render(stripLeadingSpace(line))
	}
	return " " + line
}

func branchPrefix(row tree.Row) string {
	if row.Depth == 0 {
		return ""
	}
	indent := strings.Repeat("   ", row.Depth-1)
	if row.Last {
		return indent + "└─ "
	}
	return indent + "├─ "
}

func (m *Model) renderNodeLabel(t *tabState, row tree.Row) string {
	th := m.theme
	n := row.Node
	if n == nil {
		return ""
	}

	indicator := "•"
	if t.reg.Expandable(n) {
		switch n.State {
		case tree.StateExpanded:
			indicator = "▾"
		case tree.StateLoading:
			indicator = "…"
		default:
			indicator = "▸"
		}
	}

	if n.Item != nil {
		it := *n.Item
		parts := []string{
			indicator,
			RenderStatusBadge(it.Status),
			RenderQualityBadge(it.Quality),
			th.PrimaryBold.Render(it.TagID),
			truncate(itemSummary(it), max(m.width-36, 16)),
		}
		return strings.Join(parts, " ")
	}

	label := indicator + " " + truncate(n.Name, max(m.width/2, 16))
	label += "  " + th.TallyText.Render(statsSummary(n.Stats))
	if s, ok := t.vis.Showing(n.ID); ok && n.State == tree.StateExpanded {
		label += "  " + th.SecondaryText.Render(s.Label())
	}
	if n.FilterText != "" {
		label += "  " + th.MutedText.Render("narrow:"+n.FilterText)
	}
	if n.SortKey != "" {
		label += "  " + th.MutedText.Render("sort:"+n.SortKey)
	}
	return label
}

func (m *Model) renderPager(n *tree.Node) string {
	th := m.theme
	if n == nil {
		return ""
	}
	p := n.Pager()
	prev := " "
	if p.HasPrev() {
		prev = "‹"
	}
	next := " "
	if p.HasNext() {
		next = "›"
	}
	return th.MutedText.Render(fmt.Sprintf("%s %s %s", prev, p.Label(), next))
}

func (m *Model) renderFooter(t *tabState) string {
	th := m.theme

	if m.prompt != nil {
		hint := th.MutedText.Render("enter apply · esc cancel")
		return " " + m.prompt.View() + "\n " + hint
	}

	position := renderPosition(t.cursor, t.scroll, m.bodyHeight(), len(t.rows))
	left := th.MutedText.Render(position)

	var note string
	switch {
	case m.lastErr != "":
		note = th.ErrorText.Render(m.lastErr)
	case m.status != "":
		note = th.SecondaryText.Render(m.status)
	}
	line1 := joinEnds(m.width, " "+left, note+" ")

	hints := "enter expand · e edit · / filter · [ ] page · R refresh all · ? help · q quit"
	line2 := " " + th.MutedText.Render(truncate(hints, m.width-2))
	return line1 + "\n" + line2
}

// renderPosition formats the viewport window the way a pager would:
// "Page 2/5 (21-40 of 93)". A single page collapses to the count.
func renderPosition(cursor, scroll, pageSize, total int) string {
	if total == 0 {
		return "0 rows"
	}
	if pageSize <= 0 || total <= pageSize {
		return fmt.Sprintf("%d rows", total)
	}
	totalPages := (total + pageSize - 1) / pageSize
	currentPage := scroll/pageSize + 1
	if currentPage > totalPages {
		currentPage = totalPages
	}
	start := scroll + 1
	end := scroll + pageSize
	if end > total {
		end = total
	}
	return fmt.Sprintf("Page %d/%d (%d-%d of %d)", currentPage, totalPages, start, end, total)
}

// joinEnds lays left and right out on one line, padding the middle. When
// the line is too narrow the right side is dropped.
func joinEnds(width int, left, right string) string {
	lw := lipgloss.Width(left)
	rw := lipgloss.Width(right)
	gap := width - lw - rw
	if gap < 1 {
		return left
	}
	return left + strings.Repeat(" ", gap) + right
}

func stripLeadingSpace(s string) string {
	return strings.TrimPrefix(s, " ")
}
