package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ══════════════════════════════════════════════════════════════════════════════
// COLOR PALETTE - Adaptive colors for light and dark terminals
// Light mode colors tuned for WCAG AA compliance (contrast ratio >= 4.5:1)
// ══════════════════════════════════════════════════════════════════════════════

var (
	ColorBg          = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#282A36"}
	ColorBgSubtle    = lipgloss.AdaptiveColor{Light: "#E8E8E8", Dark: "#363949"}
	ColorBgHighlight = lipgloss.AdaptiveColor{Light: "#D0D0D0", Dark: "#44475A"}
	ColorText        = lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#F8F8F2"}
	ColorSubtext     = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#BFBFBF"}
	ColorMuted       = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#6272A4"}

	ColorPrimary = lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"}
	ColorInfo    = lipgloss.AdaptiveColor{Light: "#006080", Dark: "#8BE9FD"}
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"}
	ColorWarning = lipgloss.AdaptiveColor{Light: "#B06800", Dark: "#FFB86C"}
	ColorDanger  = lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"}

	// Item status badge colors
	ColorStatusReady      = lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"}
	ColorStatusOnContract = lipgloss.AdaptiveColor{Light: "#006080", Dark: "#8BE9FD"}
	ColorStatusInService  = lipgloss.AdaptiveColor{Light: "#B06800", Dark: "#FFB86C"}
	ColorStatusMissing    = lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"}
	ColorStatusRetired    = lipgloss.AdaptiveColor{Light: "#888888", Dark: "#6272A4"}

	// Status badge backgrounds - subtle tints behind the label
	ColorStatusReadyBg      = lipgloss.AdaptiveColor{Light: "#D4EDDA", Dark: "#1A3D2A"}
	ColorStatusOnContractBg = lipgloss.AdaptiveColor{Light: "#D1ECF1", Dark: "#1A3344"}
	ColorStatusInServiceBg  = lipgloss.AdaptiveColor{Light: "#FFE8CC", Dark: "#3D2A1A"}
	ColorStatusMissingBg    = lipgloss.AdaptiveColor{Light: "#F8D7DA", Dark: "#3D1A1A"}
	ColorStatusRetiredBg    = lipgloss.AdaptiveColor{Light: "#E2E3E5", Dark: "#2A2A3D"}

	// Quality grade colors (A best, D worst)
	ColorQualityA = lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"}
	ColorQualityB = lipgloss.AdaptiveColor{Light: "#006080", Dark: "#8BE9FD"}
	ColorQualityC = lipgloss.AdaptiveColor{Light: "#B06800", Dark: "#FFB86C"}
	ColorQualityD = lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"}
)

// ══════════════════════════════════════════════════════════════════════════════
// BADGE RENDERING
// ══════════════════════════════════════════════════════════════════════════════

// RenderStatusBadge returns a styled, fixed-vocabulary status badge.
func RenderStatusBadge(status string) string {
	var fg, bg lipgloss.AdaptiveColor
	var label string

	switch status {
	case "Ready to Rent":
		fg, bg, label = ColorStatusReady, ColorStatusReadyBg, "READY"
	case "On Contract":
		fg, bg, label = ColorStatusOnContract, ColorStatusOnContractBg, "CONTR"
	case "In Service":
		fg, bg, label = ColorStatusInService, ColorStatusInServiceBg, "SERVC"
	case "Missing":
		fg, bg, label = ColorStatusMissing, ColorStatusMissingBg, "MISSG"
	case "Retired":
		fg, bg, label = ColorStatusRetired, ColorStatusRetiredBg, "RETRD"
	default:
		fg, bg, label = ColorMuted, ColorBgSubtle, "?????"
	}

	return lipgloss.NewStyle().
		Foreground(fg).
		Background(bg).
		Render(label)
}

// RenderQualityBadge returns a one-cell colored grade badge. Unknown grades
// render as a muted dot so column widths stay fixed.
func RenderQualityBadge(grade string) string {
	var fg lipgloss.AdaptiveColor
	label := grade

	switch grade {
	case "A":
		fg = ColorQualityA
	case "B":
		fg = ColorQualityB
	case "C":
		fg = ColorQualityC
	case "D":
		fg = ColorQualityD
	default:
		fg, label = ColorMuted, "·"
	}

	return lipgloss.NewStyle().
		Foreground(fg).
		Bold(true).
		Render(label)
}

// ══════════════════════════════════════════════════════════════════════════════
// DIVIDERS AND SEPARATORS
// ══════════════════════════════════════════════════════════════════════════════

// RenderDivider renders a horizontal divider line
func RenderDivider(width int) string {
	if width <= 0 {
		return ""
	}
	return lipgloss.NewStyle().
		Foreground(ColorBgHighlight).
		Render(strings.Repeat("─", width))
}
