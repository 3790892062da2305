package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
)

// Theme bundles the adaptive colors and the precomputed styles the row
// renderer uses. Styles are created once at startup instead of per frame;
// the renderer pointer keeps output profile detection consistent across
// every style.
type Theme struct {
	Renderer *lipgloss.Renderer

	// Colors
	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Subtext   lipgloss.AdaptiveColor

	// Item status accents
	Ready      lipgloss.AdaptiveColor
	OnContract lipgloss.AdaptiveColor
	InService  lipgloss.AdaptiveColor
	Missing    lipgloss.AdaptiveColor
	Retired    lipgloss.AdaptiveColor

	// UI elements
	Border    lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
	Muted     lipgloss.AdaptiveColor
	Danger    lipgloss.AdaptiveColor

	// Styles
	Base     lipgloss.Style
	Selected lipgloss.Style
	Header   lipgloss.Style

	// Precomputed row styles
	MutedText     lipgloss.Style // pagers, scan dates, hints
	DimText       lipgloss.Style // ancestors kept as filter context
	SecondaryText lipgloss.Style // counts, bin locations
	PrimaryBold   lipgloss.Style // tab labels, section titles
	ErrorText     lipgloss.Style // inline fetch errors
	LoadingText   lipgloss.Style // the … placeholder row
	TallyText     lipgloss.Style // Showing X of Y
}

// DefaultTheme returns the standard Dracula-inspired adaptive theme. The
// light variants are darkened for contrast on white terminals.
func DefaultTheme(r *lipgloss.Renderer) Theme {
	t := Theme{
		Renderer: r,

		Primary:   lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"}, // Purple
		Secondary: lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"}, // Gray
		Subtext:   lipgloss.AdaptiveColor{Light: "#666666", Dark: "#BFBFBF"}, // Dim

		Ready:      lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"}, // Green
		OnContract: lipgloss.AdaptiveColor{Light: "#006080", Dark: "#8BE9FD"}, // Cyan
		InService:  lipgloss.AdaptiveColor{Light: "#B06800", Dark: "#FFB86C"}, // Orange
		Missing:    lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"}, // Red
		Retired:    lipgloss.AdaptiveColor{Light: "#888888", Dark: "#44475A"}, // Muted gray

		Border:    lipgloss.AdaptiveColor{Light: "#AAAAAA", Dark: "#44475A"},
		Highlight: lipgloss.AdaptiveColor{Light: "#E0E0E0", Dark: "#44475A"},
		Muted:     lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"},
		Danger:    lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"},
	}

	t.Base = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#F8F8F2"})

	t.Selected = r.NewStyle().
		Background(t.Highlight).
		Border(lipgloss.ThickBorder(), false, false, false, true).
		BorderForeground(t.Primary).
		PaddingLeft(1).
		Bold(true)

	t.Header = r.NewStyle().
		Background(t.Primary).
		Foreground(lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#282A36"}).
		Bold(true).
		Padding(0, 1)

	t.MutedText = r.NewStyle().Foreground(t.Muted)
	t.DimText = r.NewStyle().Foreground(t.Muted).Faint(true)
	t.SecondaryText = r.NewStyle().Foreground(t.Secondary)
	t.PrimaryBold = r.NewStyle().Foreground(t.Primary).Bold(true)
	t.ErrorText = r.NewStyle().Foreground(t.Danger)
	t.LoadingText = r.NewStyle().Foreground(t.Subtext).Italic(true)
	t.TallyText = r.NewStyle().Foreground(t.InService)

	return t
}

// MonoTheme returns a colorless theme for terminals (or users) that want
// plain output. Emphasis survives as bold/faint only.
func MonoTheme(r *lipgloss.Renderer) Theme {
	t := Theme{Renderer: r}

	t.Base = r.NewStyle()
	t.Selected = r.NewStyle().Reverse(true).PaddingLeft(1)
	t.Header = r.NewStyle().Bold(true).Reverse(true).Padding(0, 1)

	t.MutedText = r.NewStyle().Faint(true)
	t.DimText = r.NewStyle().Faint(true)
	t.SecondaryText = r.NewStyle()
	t.PrimaryBold = r.NewStyle().Bold(true)
	t.ErrorText = r.NewStyle().Bold(true)
	t.LoadingText = r.NewStyle().Faint(true).Italic(true)
	t.TallyText = r.NewStyle().Faint(true)

	return t
}

// ThemeNamed maps a config theme name to a Theme. The adaptive default
// covers both "dark" and "light"; unknown names fall back to it.
func ThemeNamed(name string, r *lipgloss.Renderer) Theme {
	if name == "mono" {
		return MonoTheme(r)
	}
	return DefaultTheme(r)
}

// StatusColor returns the accent for an item status string.
func (t Theme) StatusColor(status string) lipgloss.AdaptiveColor {
	switch status {
	case "Ready to Rent":
		return t.Ready
	case "On Contract":
		return t.OnContract
	case "In Service":
		return t.InService
	case "Missing":
		return t.Missing
	case "Retired":
		return t.Retired
	default:
		return t.Subtext
	}
}

// TestTheme returns a theme suitable for use in tests.
func TestTheme() Theme {
	return DefaultTheme(lipgloss.NewRenderer(os.Stdout))
}
