package tui

import "github.com/charmbracelet/lipgloss"

// Theme holds the colors used by both screens. All colors are ANSI 256
// codes.
type Theme struct {
	Accent     lipgloss.Color
	NormalText lipgloss.Color
	FaintText  lipgloss.Color
	Selected   lipgloss.Color
	Success    lipgloss.Color
	Error      lipgloss.Color
	Border     lipgloss.Color
}

// DefaultTheme is the built-in palette.
var DefaultTheme = Theme{
	Accent:     lipgloss.Color("39"),
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("244"),
	Selected:   lipgloss.Color("237"),
	Success:    lipgloss.Color("42"),
	Error:      lipgloss.Color("196"),
	Border:     lipgloss.Color("240"),
}

type styles struct {
	title       lipgloss.Style
	tabActive   lipgloss.Style
	tabInactive lipgloss.Style
	section     lipgloss.Style
	button      lipgloss.Style
	buttonOff   lipgloss.Style
	selected    lipgloss.Style
	faint       lipgloss.Style
	size        lipgloss.Style
	errorText   lipgloss.Style
	card        lipgloss.Style
	modal       lipgloss.Style
	modalTitle  lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		title:       lipgloss.NewStyle().Bold(true).Foreground(t.Accent),
		tabActive:   lipgloss.NewStyle().Bold(true).Underline(true).Foreground(t.Accent).Padding(0, 1),
		tabInactive: lipgloss.NewStyle().Foreground(t.FaintText).Padding(0, 1),
		section:     lipgloss.NewStyle().Bold(true).Foreground(t.NormalText).MarginTop(1),
		button:      lipgloss.NewStyle().Foreground(t.NormalText).Border(lipgloss.RoundedBorder()).BorderForeground(t.Accent).Padding(0, 1),
		buttonOff:   lipgloss.NewStyle().Foreground(t.FaintText).Border(lipgloss.RoundedBorder()).BorderForeground(t.Border).Padding(0, 1),
		selected:    lipgloss.NewStyle().Background(t.Selected).Bold(true),
		faint:       lipgloss.NewStyle().Foreground(t.FaintText),
		size:        lipgloss.NewStyle().Bold(true).Foreground(t.Success),
		errorText:   lipgloss.NewStyle().Foreground(t.Error),
		card:        lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(t.Border).Padding(0, 1),
		modal:       lipgloss.NewStyle().Border(lipgloss.DoubleBorder()).BorderForeground(t.Accent).Padding(1, 2),
		modalTitle:  lipgloss.NewStyle().Bold(true),
	}
}

// renderButton renders a labelled button, faint when disabled.
func (s styles) renderButton(label string, enabled bool) string {
	if enabled {
		return s.button.Render(label)
	}
	return s.buttonOff.Render(label)
}
