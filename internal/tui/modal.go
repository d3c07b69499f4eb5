package tui

import (
	"sync"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/leapstack-labs/xenocrm/internal/audience"
)

// alertQueue collects builder alerts. The builder raises them from the
// goroutine running a request; the model drains them when the result
// message arrives.
type alertQueue struct {
	mu      sync.Mutex
	pending []string
}

func (q *alertQueue) Alert(message string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, message)
}

func (q *alertQueue) drain() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.pending
	q.pending = nil
	return out
}

// nameModal collects the campaign name. An empty name or Esc cancels.
type nameModal struct {
	input textinput.Model
}

func newNameModal() nameModal {
	in := textinput.New()
	in.Prompt = "> "
	in.Placeholder = "Campaign name"
	in.CharLimit = 120
	in.Focus()
	return nameModal{input: in}
}

func (m nameModal) update(msg tea.Msg) (nameModal, tea.Cmd) {
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// value returns the name as typed.
func (m nameModal) value() string {
	return m.input.Value()
}

func (m nameModal) view(s styles) string {
	body := lipgloss.JoinVertical(lipgloss.Left,
		s.modalTitle.Render(audience.CampaignNamePrompt),
		"",
		m.input.View(),
		"",
		s.faint.Render("Enter to create · Esc to cancel"),
	)
	return s.modal.Render(body)
}

// alertView renders one alert. Any key dismisses it.
func alertView(s styles, message string) string {
	body := lipgloss.JoinVertical(lipgloss.Left,
		message,
		"",
		s.faint.Render("press any key"),
	)
	return s.modal.Render(body)
}

// overlay centers a modal in the given area, replacing the content behind it.
func overlay(width, height int, modal string) string {
	if width <= 0 || height <= 0 {
		return modal
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, modal)
}
