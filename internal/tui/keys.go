package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings for both screens.
type KeyMap struct {
	// Screens.
	ScreenBuilder   key.Binding
	ScreenCustomers key.Binding
	Quit            key.Binding

	// Builder focus: prompt textarea or rule tree.
	FocusToggle key.Binding
	Leave       key.Binding

	// Tree navigation.
	Up   key.Binding
	Down key.Binding

	// Tree edits.
	AddRule       key.Binding
	AddGroup      key.Binding
	Remove        key.Binding
	Combinator    key.Binding
	Not           key.Binding
	NextField     key.Binding
	PrevField     key.Binding
	NextOperator  key.Binding
	PrevOperator  key.Binding
	EditValue     key.Binding
	ConfirmInput  key.Binding
	CancelInput   key.Binding
	LoginOrLogout key.Binding

	// Requests.
	Generate key.Binding
	Preview  key.Binding
	Create   key.Binding
}

// DefaultKeyMap is the built-in key binding set.
var DefaultKeyMap = KeyMap{
	ScreenBuilder: key.NewBinding(
		key.WithKeys("1"),
		key.WithHelp("1", "audience builder"),
	),
	ScreenCustomers: key.NewBinding(
		key.WithKeys("2"),
		key.WithHelp("2", "customer list"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	FocusToggle: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("Tab", "prompt/rules"),
	),
	Leave: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("Esc", "back to rules"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	AddRule: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "add rule"),
	),
	AddGroup: key.NewBinding(
		key.WithKeys("g"),
		key.WithHelp("g", "add group"),
	),
	Remove: key.NewBinding(
		key.WithKeys("x", "delete"),
		key.WithHelp("x", "remove"),
	),
	Combinator: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "and/or"),
	),
	Not: key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("n", "not"),
	),
	NextField: key.NewBinding(
		key.WithKeys("f"),
		key.WithHelp("f/F", "field"),
	),
	PrevField: key.NewBinding(
		key.WithKeys("F"),
	),
	NextOperator: key.NewBinding(
		key.WithKeys("o"),
		key.WithHelp("o/O", "operator"),
	),
	PrevOperator: key.NewBinding(
		key.WithKeys("O"),
	),
	EditValue: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("Enter", "edit value"),
	),
	ConfirmInput: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("Enter", "confirm"),
	),
	CancelInput: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("Esc", "cancel"),
	),
	LoginOrLogout: key.NewBinding(
		key.WithKeys("L"),
		key.WithHelp("L", "log in/out"),
	),
	Generate: key.NewBinding(
		key.WithKeys("ctrl+g"),
		key.WithHelp("^G", "generate rules"),
	),
	Preview: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "preview size"),
	),
	Create: key.NewBinding(
		key.WithKeys("C"),
		key.WithHelp("C", "create campaign"),
	),
}

// treeHelp is shown under the rule tree.
func (k KeyMap) treeHelp() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.AddRule, k.AddGroup, k.Remove, k.Combinator, k.Not,
		k.NextField, k.NextOperator, k.EditValue, k.Preview, k.Create,
		k.FocusToggle, k.LoginOrLogout, k.ScreenCustomers, k.Quit,
	}
}

// promptHelp is shown while the prompt textarea has focus.
func (k KeyMap) promptHelp() []key.Binding {
	return []key.Binding{k.Generate, k.FocusToggle, k.Leave}
}

// customersHelp is shown on the customer screen.
func (k KeyMap) customersHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.ScreenBuilder, k.Quit}
}
