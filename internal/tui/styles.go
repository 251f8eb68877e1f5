package tui

import "github.com/charmbracelet/lipgloss"

type palette struct {
	accent lipgloss.Color
	text   lipgloss.Color
	muted  lipgloss.Color
	warn   lipgloss.Color
	ok     lipgloss.Color
	err    lipgloss.Color
}

var (
	lightPalette = palette{
		accent: lipgloss.Color("#3B6FD8"),
		text:   lipgloss.Color("#1F2328"),
		muted:  lipgloss.Color("#6E7781"),
		warn:   lipgloss.Color("#BF8700"),
		ok:     lipgloss.Color("#1A7F37"),
		err:    lipgloss.Color("#CF222E"),
	}
	darkPalette = palette{
		accent: lipgloss.Color("#7AA2F7"),
		text:   lipgloss.Color("#C0CAF5"),
		muted:  lipgloss.Color("#565F89"),
		warn:   lipgloss.Color("#E0AF68"),
		ok:     lipgloss.Color("#9ECE6A"),
		err:    lipgloss.Color("#F7768E"),
	}
)

// Styles are the rendered pieces of the dashboard for one palette
type Styles struct {
	Title    lipgloss.Style
	Period   lipgloss.Style
	Row      lipgloss.Style
	Selected lipgloss.Style
	Muted    lipgloss.Style
	LowStock lipgloss.Style
	Status   lipgloss.Style
	Error    lipgloss.Style
}

// NewStyles builds the dark or light styles
func NewStyles(dark bool) Styles {
	p := lightPalette
	if dark {
		p = darkPalette
	}

	return Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(p.accent).MarginBottom(1),
		Period:   lipgloss.NewStyle().Bold(true).Foreground(p.muted).MarginTop(1),
		Row:      lipgloss.NewStyle().Foreground(p.text).PaddingLeft(2),
		Selected: lipgloss.NewStyle().Bold(true).Foreground(p.accent).PaddingLeft(2),
		Muted:    lipgloss.NewStyle().Foreground(p.muted),
		LowStock: lipgloss.NewStyle().Foreground(p.warn),
		Status:   lipgloss.NewStyle().Foreground(p.ok).MarginTop(1),
		Error:    lipgloss.NewStyle().Foreground(p.err).MarginTop(1),
	}
}
