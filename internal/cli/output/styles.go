package output

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Styles holds the lipgloss styles used in text mode.
type Styles struct {
	Header  lipgloss.Style
	Bold    lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
	Muted   lipgloss.Style
	Key     lipgloss.Style
	Value   lipgloss.Style
}

// colorProfile picks the termenv profile for w. Non-TTY writers and
// NO_COLOR both get plain ASCII.
func colorProfile(isTTY bool) termenv.Profile {
	if !isTTY || termenv.EnvNoColor() {
		return termenv.Ascii
	}
	return termenv.ANSI256
}

// newStyles builds styles bound to a lipgloss renderer for w.
func newStyles(w io.Writer, profile termenv.Profile) *Styles {
	lr := lipgloss.NewRenderer(w)
	lr.SetColorProfile(profile)

	return &Styles{
		Header:  lr.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		Bold:    lr.NewStyle().Bold(true),
		Success: lr.NewStyle().Foreground(lipgloss.Color("42")),
		Error:   lr.NewStyle().Foreground(lipgloss.Color("196")),
		Warning: lr.NewStyle().Foreground(lipgloss.Color("214")),
		Info:    lr.NewStyle().Foreground(lipgloss.Color("75")),
		Muted:   lr.NewStyle().Foreground(lipgloss.Color("245")),
		Key:     lr.NewStyle().Foreground(lipgloss.Color("245")),
		Value:   lr.NewStyle().Bold(true),
	}
}
