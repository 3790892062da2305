package ui

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"

	"github.com/rentscan/tagview/pkg/api"
	"github.com/rentscan/tagview/pkg/tree"
)

// truncateRunesHelper truncates a string to max visual width (cells), adding suffix if needed.
// Uses go-runewidth to handle wide characters correctly.
func truncateRunesHelper(s string, maxWidth int, suffix string) string {
	if maxWidth <= 0 {
		return ""
	}

	width := runewidth.StringWidth(s)
	if width <= maxWidth {
		return s
	}

	suffixWidth := runewidth.StringWidth(suffix)
	if suffixWidth > maxWidth {
		// Even suffix is too wide, truncate suffix
		return runewidth.Truncate(suffix, maxWidth, "")
	}

	targetWidth := maxWidth - suffixWidth
	return runewidth.Truncate(s, targetWidth, "") + suffix
}

// padRight pads string s with spaces on the right to length width
func padRight(s string, width int) string {
	runeCount := utf8.RuneCountInString(s)
	if runeCount >= width {
		return s
	}
	return s + strings.Repeat(" ", width-runeCount)
}

// truncate truncates string s to maxWidth cells with an ellipsis.
func truncate(s string, maxWidth int) string {
	return truncateRunesHelper(s, maxWidth, "…")
}

// statsSummary renders the container-level tallies in column order:
// total, on contract, in service, available.
func statsSummary(s tree.Stats) string {
	return fmt.Sprintf("%d total · %d contract · %d service · %d avail",
		s.Total, s.OnContract, s.InService, s.Available)
}

// itemSummary renders the leaf columns after the tag id. Empty fields show
// a dash so the row shape stays scannable.
func itemSummary(it api.Item) string {
	parts := []string{
		orDash(it.BinLocation),
		orDash(it.LastContractNum),
		orDash(it.LastScannedDate),
	}
	if it.Notes != "" {
		parts = append(parts, it.Notes)
	}
	return strings.Join(parts, "  ")
}

// labelBlock renders the clipboard label for the print action: the fields a
// warehouse label carries, one per line.
func labelBlock(it api.Item) string {
	return fmt.Sprintf("TAG: %s\nNAME: %s\nBIN: %s\nSTATUS: %s\n",
		it.TagID, it.CommonName, orDash(it.BinLocation), orDash(it.Status))
}

// rowCopyText renders the cursor row as the tab-separated line the copy
// action puts on the clipboard.
func rowCopyText(row tree.Row) string {
	n := row.Node
	if n == nil {
		return ""
	}
	if n.Item != nil {
		it := n.Item
		return strings.Join([]string{
			it.TagID, it.CommonName, it.BinLocation, it.Status,
			it.LastContractNum, it.LastScannedDate, it.Quality, it.Notes,
		}, "\t")
	}
	s := n.Stats
	return fmt.Sprintf("%s\t%d\t%d\t%d\t%d", n.Name, s.Total, s.OnContract, s.InService, s.Available)
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}
