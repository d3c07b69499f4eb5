package tui

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/leapstack-labs/xenocrm/internal/audience"
	"github.com/leapstack-labs/xenocrm/internal/crm"
	"github.com/leapstack-labs/xenocrm/internal/customers"
	"github.com/leapstack-labs/xenocrm/pkg/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	mu sync.Mutex

	loggedIn    bool
	count       int
	previewErr  error
	generated   rules.Group
	generateErr error
	createErr   error
	customers   []crm.Customer
	listErr     error

	previews  int
	prompts   []string
	campaigns []string
}

func (f *fakeAPI) IsLoggedIn(context.Context) (bool, error) { return f.loggedIn, nil }

func (f *fakeAPI) PreviewAudience(context.Context, rules.Group) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.previews++
	return f.count, f.previewErr
}

func (f *fakeAPI) TextToRules(_ context.Context, prompt string) (rules.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	return f.generated, f.generateErr
}

func (f *fakeAPI) CreateCampaign(_ context.Context, name string, _ rules.Group) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.campaigns = append(f.campaigns, name)
	if f.createErr != nil {
		return nil, f.createErr
	}
	return json.RawMessage(`{"id":"c1"}`), nil
}

func (f *fakeAPI) ListCustomers(context.Context) ([]crm.Customer, error) {
	return f.customers, f.listErr
}

func (f *fakeAPI) LoginURL() string  { return "http://api.test/auth/google" }
func (f *fakeAPI) LogoutURL() string { return "http://api.test/auth/logout" }

type recordingNavigator struct {
	urls []string
}

func (n *recordingNavigator) Navigate(url string) error {
	n.urls = append(n.urls, url)
	return nil
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press sends msg to the app and returns the command it produced.
func press(t *testing.T, app *App, msg tea.Msg) tea.Cmd {
	t.Helper()
	model, cmd := app.Update(msg)
	require.Same(t, app, model)
	return cmd
}

// deliver runs a request command and feeds its result back.
func deliver(t *testing.T, app *App, cmd tea.Cmd) {
	t.Helper()
	require.NotNil(t, cmd)
	msg := cmd()
	_, ok := msg.(builderResultMsg)
	require.True(t, ok, "expected builderResultMsg, got %T", msg)
	press(t, app, msg)
}

// newTestApp mounts the builder and completes the session probe.
func newTestApp(t *testing.T, api *fakeAPI) (*App, *recordingNavigator) {
	t.Helper()
	nav := &recordingNavigator{}
	app := NewApp(t.Context(), Deps{API: api, Navigator: nav}, ScreenBuilder)
	press(t, app, tea.WindowSizeMsg{Width: 120, Height: 50})
	deliver(t, app, app.Init())
	return app, nav
}

func TestParseScreen(t *testing.T) {
	tests := []struct {
		in   string
		want Screen
		ok   bool
	}{
		{"", ScreenBuilder, true},
		{"builder", ScreenBuilder, true},
		{"Customers", ScreenCustomers, true},
		{"customer-list", ScreenCustomers, true},
		{"reports", ScreenBuilder, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseScreen(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestAppView(t *testing.T) {
	app, _ := newTestApp(t, &fakeAPI{})

	view := app.View()
	assert.Contains(t, view, AppTitle)
	assert.Contains(t, view, "Audience Builder")
	assert.Contains(t, view, "Customer List")
	assert.Contains(t, view, "Log in with Google")
	assert.Contains(t, view, "Natural Language Rules")
	assert.NotContains(t, view, "Estimated Audience Size")
}

func TestAppQuit(t *testing.T) {
	app, _ := newTestApp(t, &fakeAPI{})

	cmd := press(t, app, runes("q"))
	require.NotNil(t, cmd)
	_, isQuit := cmd().(tea.QuitMsg)
	assert.True(t, isQuit)
}

func TestAppSwitchScreensRemounts(t *testing.T) {
	api := &fakeAPI{count: 7}
	app, _ := newTestApp(t, api)

	deliver(t, app, press(t, app, runes("p")))
	require.True(t, app.builder.b.Snapshot().SizeKnown)
	old := app.builder.b

	press(t, app, runes("2"))
	assert.Equal(t, ScreenCustomers, app.Screen())
	assert.Nil(t, app.builder)
	assert.ErrorIs(t, old.Mount(context.Background()), audience.ErrClosed)

	deliver(t, app, press(t, app, runes("1")))
	assert.Equal(t, ScreenBuilder, app.Screen())
	snap := app.builder.b.Snapshot()
	assert.False(t, snap.SizeKnown, "a fresh mount starts with an unknown size")
	assert.Equal(t, 0, snap.Tree.Len())
}

func TestAppIgnoresResultsFromEarlierMount(t *testing.T) {
	app, _ := newTestApp(t, &fakeAPI{})
	old := app.builder

	press(t, app, runes("2"))
	deliver(t, app, press(t, app, runes("1")))

	old.alerts.Alert(audience.AlertPreviewFailed)
	press(t, app, builderResultMsg{b: old.b, op: opPreview, err: errors.New("late")})
	assert.Empty(t, app.builder.shown)
}

func TestAppTypingInPromptDoesNotSwitchScreens(t *testing.T) {
	app, _ := newTestApp(t, &fakeAPI{})

	press(t, app, tea.KeyMsg{Type: tea.KeyTab})
	press(t, app, runes("2"))
	press(t, app, runes("q"))

	assert.Equal(t, ScreenBuilder, app.Screen())
	assert.Equal(t, "2q", app.builder.b.Prompt())
}

func TestCustomersScreen(t *testing.T) {
	tests := []struct {
		name    string
		api     *fakeAPI
		want    []string
		notWant []string
	}{
		{
			name: "customers",
			api: &fakeAPI{customers: []crm.Customer{
				{ID: "1", Name: "Alice", Email: "alice@x.com", Metadata: crm.CustomerMetadata{TotalSpend: 750, VisitCount: 4}},
				{ID: "2", Name: "Bob", Email: "bob@y.org", Metadata: crm.CustomerMetadata{TotalSpend: 1200.5, VisitCount: 1}},
			}},
			want: []string{customers.Title, "Alice", "alice@x.com", "$750.00", "Bob", "$1,200.50"},
		},
		{
			name: "empty",
			api:  &fakeAPI{customers: []crm.Customer{}},
			want: []string{customers.EmptyMessage},
		},
		{
			name:    "failed",
			api:     &fakeAPI{listErr: errors.New("unauthorized")},
			want:    []string{customers.LoadFailedMessage},
			notWant: []string{"unauthorized"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := NewApp(t.Context(), Deps{API: tt.api}, ScreenCustomers)
			press(t, app, tea.WindowSizeMsg{Width: 120, Height: 50})
			cmd := app.Init()
			require.NotNil(t, cmd)
			assert.Contains(t, app.View(), customers.LoadingMessage)

			loaded := false
			for _, msg := range flatten(cmd) {
				if _, ok := msg.(customersLoadedMsg); ok {
					loaded = true
				}
				press(t, app, msg)
			}
			require.True(t, loaded)

			view := app.View()
			for _, w := range tt.want {
				assert.Contains(t, view, w)
			}
			for _, w := range tt.notWant {
				assert.NotContains(t, view, w)
			}
		})
	}
}

func TestCustomersScreenIgnoresOtherList(t *testing.T) {
	app := NewApp(t.Context(), Deps{API: &fakeAPI{}}, ScreenCustomers)
	app.Init()

	other := customers.NewList(&fakeAPI{listErr: errors.New("x")}, nil)
	require.Error(t, other.Load(context.Background()))
	press(t, app, customersLoadedMsg{list: other})

	assert.Contains(t, app.View(), customers.LoadingMessage)
}

// flatten runs cmd and any batch it returns, collecting the messages.
func flatten(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	batch, ok := msg.(tea.BatchMsg)
	if !ok {
		return []tea.Msg{msg}
	}
	var out []tea.Msg
	for _, c := range batch {
		out = append(out, flatten(c)...)
	}
	return out
}
