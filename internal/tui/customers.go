package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/leapstack-labs/xenocrm/internal/customers"
)

// customersLoadedMsg reports that list finished loading.
type customersLoadedMsg struct {
	list *customers.List
}

// customersScreen is the Customer List screen: a spinner while loading,
// then one card per customer in a scrollable viewport.
type customersScreen struct {
	list    *customers.List
	keys    KeyMap
	styles  styles
	help    help.Model
	spinner spinner.Model
	vp      viewport.Model

	width  int
	height int
}

func newCustomersScreen(ctx context.Context, deps Deps, st styles) (*customersScreen, tea.Cmd) {
	list := customers.NewList(deps.API, deps.Logger)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = st.faint

	s := &customersScreen{
		list:    list,
		keys:    DefaultKeyMap,
		styles:  st,
		help:    help.New(),
		spinner: sp,
		vp:      viewport.New(80, 20),
	}
	load := func() tea.Msg {
		_ = list.Load(ctx)
		return customersLoadedMsg{list: list}
	}
	return s, tea.Batch(load, sp.Tick)
}

func (s *customersScreen) setSize(width, height int) {
	s.width, s.height = width, height
	s.help.Width = width
	s.vp.Width = max(width, 20)
	// Title and help take three lines.
	s.vp.Height = max(height-3, 3)
	s.refresh()
}

func (s *customersScreen) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case customersLoadedMsg:
		if msg.list != s.list {
			return nil
		}
		s.refresh()
		return nil
	case spinner.TickMsg:
		if s.list.State() != customers.Loading {
			return nil
		}
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return cmd
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, s.keys.Up):
			s.vp.LineUp(1)
		case key.Matches(msg, s.keys.Down):
			s.vp.LineDown(1)
		default:
			var cmd tea.Cmd
			s.vp, cmd = s.vp.Update(msg)
			return cmd
		}
	}
	return nil
}

// refresh rebuilds the viewport content from the list.
func (s *customersScreen) refresh() {
	if s.list.State() != customers.Ready {
		return
	}
	s.vp.SetContent(s.cards())
}

func (s *customersScreen) cards() string {
	if s.list.Empty() {
		return s.styles.faint.Render(customers.EmptyMessage)
	}
	width := max(s.width-4, 30)
	cards := make([]string, 0, len(s.list.Customers()))
	for _, c := range s.list.Customers() {
		body := lipgloss.JoinVertical(lipgloss.Left,
			lipgloss.NewStyle().Bold(true).Render(c.Name),
			c.Email,
			s.styles.faint.Render("Total Spend: ")+customers.FormatSpend(c.Metadata.TotalSpend),
			s.styles.faint.Render("Visit Count: ")+customers.FormatCount(c.Metadata.VisitCount),
		)
		cards = append(cards, s.styles.card.Width(width).Render(body))
	}
	return strings.Join(cards, "\n")
}

func (s *customersScreen) view() string {
	var b strings.Builder
	b.WriteString(s.styles.section.Render(customers.Title))
	b.WriteString("\n")

	switch s.list.State() {
	case customers.Loading:
		b.WriteString(s.spinner.View() + " " + customers.LoadingMessage)
	case customers.Failed:
		b.WriteString(s.styles.errorText.Render(s.list.Error()))
	default:
		b.WriteString(s.vp.View())
	}
	b.WriteString("\n")
	b.WriteString(s.help.ShortHelpView(s.keys.customersHelp()))
	return b.String()
}
