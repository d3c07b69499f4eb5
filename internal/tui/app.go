// Package tui is the interactive terminal front-end: an Audience Builder
// screen and a Customer List screen behind a tab bar.
package tui

import (
	"context"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/leapstack-labs/xenocrm/internal/audience"
	"github.com/leapstack-labs/xenocrm/internal/customers"
)

// AppTitle is shown above the tabs.
const AppTitle = "Xeno CRM Platform"

// Screen identifies one of the two screens.
type Screen int

// Screens in tab order.
const (
	ScreenBuilder Screen = iota
	ScreenCustomers
)

// String returns the tab label.
func (s Screen) String() string {
	if s == ScreenCustomers {
		return "Customer List"
	}
	return "Audience Builder"
}

// ParseScreen maps a --screen value to a Screen.
func ParseScreen(name string) (Screen, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "builder", "audience":
		return ScreenBuilder, true
	case "customers", "customer-list":
		return ScreenCustomers, true
	default:
		return ScreenBuilder, false
	}
}

// API is everything both screens need from the CRM client.
type API interface {
	audience.API
	customers.API
}

// Deps are the collaborators shared by both screens.
type Deps struct {
	API       API
	Navigator audience.Navigator
	Logger    *slog.Logger
}

// App is the root model. Switching screens mounts a fresh instance of the
// target screen; leaving the builder closes it so late results are dropped.
type App struct {
	ctx    context.Context
	deps   Deps
	keys   KeyMap
	styles styles

	screen    Screen
	builder   *builderScreen
	customers *customersScreen

	width  int
	height int
}

// NewApp returns the root model showing start.
func NewApp(ctx context.Context, deps Deps, start Screen) *App {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}
	return &App{
		ctx:    ctx,
		deps:   deps,
		keys:   DefaultKeyMap,
		styles: newStyles(DefaultTheme),
		screen: start,
	}
}

// Init mounts the first screen.
func (a *App) Init() tea.Cmd {
	return a.mount(a.screen)
}

// Screen returns the active screen.
func (a *App) Screen() Screen {
	return a.screen
}

func (a *App) mount(screen Screen) tea.Cmd {
	if a.builder != nil {
		a.builder.close()
		a.builder = nil
	}
	a.customers = nil
	a.screen = screen
	a.deps.Logger.Debug("mount screen", "screen", screen.String())

	var cmd tea.Cmd
	switch screen {
	case ScreenCustomers:
		a.customers, cmd = newCustomersScreen(a.ctx, a.deps, a.styles)
		a.customers.setSize(a.width, a.bodyHeight())
	default:
		a.builder, cmd = newBuilderScreen(a.ctx, a.deps, a.styles)
		a.builder.setSize(a.width, a.bodyHeight())
	}
	return cmd
}

// Update handles global keys and forwards everything else to the active
// screen.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		if a.builder != nil {
			a.builder.setSize(a.width, a.bodyHeight())
		}
		if a.customers != nil {
			a.customers.setSize(a.width, a.bodyHeight())
		}
		return a, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			a.close()
			return a, tea.Quit
		}
		if !a.capturesInput() {
			switch {
			case key.Matches(msg, a.keys.Quit):
				a.close()
				return a, tea.Quit
			case key.Matches(msg, a.keys.ScreenBuilder):
				if a.screen != ScreenBuilder {
					return a, a.mount(ScreenBuilder)
				}
				return a, nil
			case key.Matches(msg, a.keys.ScreenCustomers):
				if a.screen != ScreenCustomers {
					return a, a.mount(ScreenCustomers)
				}
				return a, nil
			}
		}
	}

	switch {
	case a.builder != nil:
		return a, a.builder.update(msg)
	case a.customers != nil:
		return a, a.customers.update(msg)
	}
	return a, nil
}

func (a *App) capturesInput() bool {
	return a.builder != nil && a.builder.capturesInput()
}

func (a *App) close() {
	if a.builder != nil {
		a.builder.close()
	}
}

func (a *App) bodyHeight() int {
	// Title, tab bar and a blank line.
	return max(a.height-3, 0)
}

// View renders the title, the tab bar and the active screen.
func (a *App) View() string {
	tabs := make([]string, 0, 2)
	for _, sc := range []Screen{ScreenBuilder, ScreenCustomers} {
		style := a.styles.tabInactive
		if sc == a.screen {
			style = a.styles.tabActive
		}
		tabs = append(tabs, style.Render(sc.String()))
	}

	var body string
	switch {
	case a.builder != nil:
		body = a.builder.view()
	case a.customers != nil:
		body = a.customers.view()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		a.styles.title.Render(AppTitle),
		lipgloss.JoinHorizontal(lipgloss.Top, tabs...),
		"",
		body,
	)
}
