package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/leapstack-labs/xenocrm/internal/audience"
	"github.com/leapstack-labs/xenocrm/internal/customers"
	"github.com/leapstack-labs/xenocrm/pkg/rules"
)

type focus int

const (
	focusTree focus = iota
	focusPrompt
)

type builderOp int

const (
	opMount builderOp = iota
	opGenerate
	opPreview
	opCreate
	opNavigate
)

// builderResultMsg reports the end of a builder request. b identifies the
// mount it belongs to; results for an earlier mount are ignored.
type builderResultMsg struct {
	b   *audience.Builder
	op  builderOp
	err error
}

// builderScreen is the Audience Builder screen.
type builderScreen struct {
	ctx    context.Context
	b      *audience.Builder
	alerts *alertQueue
	keys   KeyMap
	styles styles
	help   help.Model

	focus   focus
	prompt  textarea.Model
	cursor  int
	editing bool
	value   textinput.Model
	naming  *nameModal
	shown   []string // alerts waiting to be dismissed, first is on screen
	status  string

	width  int
	height int
}

func newBuilderScreen(ctx context.Context, deps Deps, st styles) (*builderScreen, tea.Cmd) {
	alerts := &alertQueue{}
	b := audience.NewBuilder(audience.Config{
		API:       deps.API,
		Alerter:   alerts,
		Navigator: deps.Navigator,
		Logger:    deps.Logger,
	})

	prompt := textarea.New()
	prompt.Placeholder = audience.PromptPlaceholder
	prompt.ShowLineNumbers = false
	prompt.SetHeight(3)
	prompt.SetWidth(60)
	prompt.Blur()

	value := textinput.New()
	value.Prompt = "value: "

	s := &builderScreen{
		ctx:    ctx,
		b:      b,
		alerts: alerts,
		keys:   DefaultKeyMap,
		styles: st,
		help:   help.New(),
		prompt: prompt,
		value:  value,
	}
	return s, s.run(opMount, b.Mount)
}

// close cancels requests still running for this mount.
func (s *builderScreen) close() {
	s.b.Close()
}

// capturesInput reports whether keys are going to a text field or modal.
func (s *builderScreen) capturesInput() bool {
	return s.focus == focusPrompt || s.editing || s.naming != nil || len(s.shown) > 0
}

func (s *builderScreen) setSize(width, height int) {
	s.width, s.height = width, height
	if width > 8 {
		s.prompt.SetWidth(min(width-4, 100))
	}
	s.help.Width = width
}

// run wraps a builder call in a tea.Cmd that reports its result.
func (s *builderScreen) run(op builderOp, fn func(context.Context) error) tea.Cmd {
	b, ctx := s.b, s.ctx
	return func() tea.Msg {
		return builderResultMsg{b: b, op: op, err: fn(ctx)}
	}
}

func (s *builderScreen) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case builderResultMsg:
		if msg.b != s.b {
			return nil
		}
		s.handleResult(msg)
		return nil
	case tea.KeyMsg:
		return s.handleKey(msg)
	}

	// Cursor blink and other internal messages.
	var cmd tea.Cmd
	switch {
	case s.naming != nil:
		m, c := s.naming.update(msg)
		s.naming = &m
		cmd = c
	case s.editing:
		s.value, cmd = s.value.Update(msg)
	case s.focus == focusPrompt:
		s.prompt, cmd = s.prompt.Update(msg)
	}
	return cmd
}

func (s *builderScreen) handleResult(msg builderResultMsg) {
	switch msg.op {
	case opGenerate:
		// Success clears the prompt; failure keeps it.
		s.prompt.SetValue(s.b.Prompt())
		if msg.err == nil {
			s.cursor = 0
		}
	case opNavigate:
		s.status = "Continue in the browser."
		if msg.err != nil {
			s.status = msg.err.Error()
		}
	}
	s.shown = append(s.shown, s.alerts.drain()...)
	s.clampCursor()
}

func (s *builderScreen) handleKey(msg tea.KeyMsg) tea.Cmd {
	if len(s.shown) > 0 {
		s.shown = s.shown[1:]
		return nil
	}
	if s.naming != nil {
		return s.handleNameKey(msg)
	}
	if s.editing {
		return s.handleValueKey(msg)
	}
	if s.focus == focusPrompt {
		return s.handlePromptKey(msg)
	}
	return s.handleTreeKey(msg)
}

func (s *builderScreen) handleNameKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, s.keys.CancelInput):
		s.naming = nil
		return nil
	case key.Matches(msg, s.keys.ConfirmInput):
		name := s.naming.value()
		s.naming = nil
		if strings.TrimSpace(name) == "" {
			return nil
		}
		return s.run(opCreate, func(ctx context.Context) error {
			return s.b.SubmitCampaign(ctx, name)
		})
	}
	m, cmd := s.naming.update(msg)
	s.naming = &m
	return cmd
}

func (s *builderScreen) handleValueKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, s.keys.CancelInput):
		s.stopEditing()
		return nil
	case key.Matches(msg, s.keys.ConfirmInput):
		row, ok := s.currentRow()
		text := s.value.Value()
		s.stopEditing()
		if !ok || row.Node.Rule == nil {
			return nil
		}
		s.edit(func(g rules.Group) (rules.Group, error) {
			return rules.UpdateRule(g, row.Path, func(r *rules.Rule) {
				r.Value = rules.ParseValue(r.Field, text)
			})
		})
		return nil
	}
	var cmd tea.Cmd
	s.value, cmd = s.value.Update(msg)
	return cmd
}

func (s *builderScreen) handlePromptKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, s.keys.FocusToggle), key.Matches(msg, s.keys.Leave):
		s.focus = focusTree
		s.prompt.Blur()
		return nil
	case key.Matches(msg, s.keys.Generate):
		return s.generate()
	}
	var cmd tea.Cmd
	s.prompt, cmd = s.prompt.Update(msg)
	s.b.SetPrompt(s.prompt.Value())
	return cmd
}

func (s *builderScreen) handleTreeKey(msg tea.KeyMsg) tea.Cmd {
	row, ok := s.currentRow()
	switch {
	case key.Matches(msg, s.keys.FocusToggle):
		s.focus = focusPrompt
		return s.prompt.Focus()
	case key.Matches(msg, s.keys.Up):
		if s.cursor > 0 {
			s.cursor--
		}
	case key.Matches(msg, s.keys.Down):
		s.cursor++
		s.clampCursor()
	case key.Matches(msg, s.keys.Generate):
		return s.generate()
	case key.Matches(msg, s.keys.Preview):
		if !s.b.CanPreview() {
			return nil
		}
		return s.run(opPreview, s.b.Preview)
	case key.Matches(msg, s.keys.Create):
		if !s.b.CanCreate() {
			return nil
		}
		m := newNameModal()
		s.naming = &m
		return textinput.Blink
	case key.Matches(msg, s.keys.LoginOrLogout):
		action := s.b.Login
		if s.b.LoggedIn() {
			action = s.b.Logout
		}
		s.status = "Opening browser..."
		return s.run(opNavigate, func(context.Context) error { return action() })
	case !ok:
		return nil
	case key.Matches(msg, s.keys.AddRule):
		gp := groupPath(row)
		s.edit(func(g rules.Group) (rules.Group, error) {
			return rules.AddRule(g, gp, rules.DefaultRule())
		})
	case key.Matches(msg, s.keys.AddGroup):
		gp := groupPath(row)
		s.edit(func(g rules.Group) (rules.Group, error) {
			return rules.AddGroup(g, gp)
		})
	case key.Matches(msg, s.keys.Remove):
		if len(row.Path) == 0 {
			return nil
		}
		s.edit(func(g rules.Group) (rules.Group, error) {
			return rules.Remove(g, row.Path)
		})
	case key.Matches(msg, s.keys.Combinator):
		gp := groupPath(row)
		s.edit(func(g rules.Group) (rules.Group, error) {
			n, err := rules.At(g, gp)
			if err != nil {
				return g, err
			}
			return rules.SetCombinator(g, gp, n.Group.Combinator.Toggle())
		})
	case key.Matches(msg, s.keys.Not):
		gp := groupPath(row)
		s.edit(func(g rules.Group) (rules.Group, error) {
			return rules.ToggleNot(g, gp)
		})
	case key.Matches(msg, s.keys.NextField), key.Matches(msg, s.keys.PrevField):
		step := 1
		if key.Matches(msg, s.keys.PrevField) {
			step = -1
		}
		s.editRule(row, func(r *rules.Rule) { r.ChangeField(cycleField(r.Field, step)) })
	case key.Matches(msg, s.keys.NextOperator), key.Matches(msg, s.keys.PrevOperator):
		step := 1
		if key.Matches(msg, s.keys.PrevOperator) {
			step = -1
		}
		s.editRule(row, func(r *rules.Rule) { r.ChangeOperator(cycleOperator(r.Field, r.Operator, step)) })
	case key.Matches(msg, s.keys.EditValue):
		return s.startEditing(row)
	}
	return nil
}

func (s *builderScreen) generate() tea.Cmd {
	s.b.SetPrompt(s.prompt.Value())
	if !s.b.CanGenerate() {
		return nil
	}
	return s.run(opGenerate, s.b.GenerateRules)
}

func (s *builderScreen) edit(fn func(rules.Group) (rules.Group, error)) {
	if err := s.b.Edit(fn); err != nil {
		s.status = err.Error()
		return
	}
	s.status = ""
	s.clampCursor()
}

func (s *builderScreen) editRule(row rules.Row, fn func(*rules.Rule)) {
	if row.Node.Rule == nil {
		return
	}
	s.edit(func(g rules.Group) (rules.Group, error) {
		return rules.UpdateRule(g, row.Path, fn)
	})
}

func (s *builderScreen) startEditing(row rules.Row) tea.Cmd {
	r := row.Node.Rule
	if r == nil {
		return nil
	}
	if f, ok := rules.LookupField(r.Field); ok {
		if op, ok := rules.LookupOperator(f.Type, r.Operator); ok && op.Arity == 0 {
			return nil
		}
	}
	s.editing = true
	s.value.SetValue(rules.ValueString(r.Value))
	s.value.CursorEnd()
	return s.value.Focus()
}

func (s *builderScreen) stopEditing() {
	s.editing = false
	s.value.Blur()
	s.value.Reset()
}

func (s *builderScreen) rows() []rules.Row {
	return rules.Flatten(s.b.Tree())
}

func (s *builderScreen) currentRow() (rules.Row, bool) {
	rows := s.rows()
	if s.cursor < 0 || s.cursor >= len(rows) {
		return rules.Row{}, false
	}
	return rows[s.cursor], true
}

func (s *builderScreen) clampCursor() {
	n := len(s.rows())
	if s.cursor >= n {
		s.cursor = n - 1
	}
	if s.cursor < 0 {
		s.cursor = 0
	}
}

// groupPath is the group a new child goes into for the selected row.
func groupPath(row rules.Row) rules.Path {
	if row.Node.IsGroup() {
		return row.Path
	}
	return row.Path.Parent()
}

func cycleField(current string, step int) string {
	catalog := rules.Catalog()
	idx := -1
	for i, f := range catalog {
		if f.Name == current {
			idx = i
			break
		}
	}
	if idx < 0 {
		return catalog[0].Name
	}
	return catalog[(idx+step+len(catalog))%len(catalog)].Name
}

func cycleOperator(field, current string, step int) string {
	f, ok := rules.LookupField(field)
	if !ok {
		return current
	}
	ops := rules.OperatorsFor(f.Type)
	idx := -1
	for i, op := range ops {
		if op.Name == current {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ops[0].Name
	}
	return ops[(idx+step+len(ops))%len(ops)].Name
}

// =============================================================================
// View
// =============================================================================

func (s *builderScreen) view() string {
	if len(s.shown) > 0 {
		return overlay(s.width, s.bodyHeight(), alertView(s.styles, s.shown[0]))
	}
	if s.naming != nil {
		return overlay(s.width, s.bodyHeight(), s.naming.view(s.styles))
	}

	snap := s.b.Snapshot()
	st := s.styles
	var b strings.Builder

	login := "Log in with Google"
	if snap.LoggedIn {
		login = "Log out"
	}
	b.WriteString(st.renderButton(login+" (L)", true))
	b.WriteString("\n")

	b.WriteString(st.section.Render("Natural Language Rules"))
	b.WriteString("\n")
	b.WriteString(s.prompt.View())
	b.WriteString("\n")
	canGenerate := !snap.Loading && strings.TrimSpace(snap.Prompt) != ""
	b.WriteString(st.renderButton("Generate Rules (^G)", canGenerate))
	b.WriteString("\n")

	b.WriteString(st.section.Render("Rules"))
	b.WriteString("\n")
	for i, row := range rules.Flatten(snap.Tree) {
		line := strings.Repeat("  ", row.Depth) + s.rowLabel(row)
		if i == s.cursor && s.focus == focusTree {
			line = st.selected.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	if s.editing {
		b.WriteString("  " + s.value.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")

	buttons := lipgloss.JoinHorizontal(lipgloss.Top,
		st.renderButton("Preview Audience Size (p)", !snap.Loading),
		" ",
		st.renderButton("Create Campaign (C)", snap.SizeKnown && !snap.Loading),
	)
	b.WriteString(buttons)
	b.WriteString("\n")

	if snap.SizeKnown {
		b.WriteString("Estimated Audience Size: " + st.size.Render(customers.FormatCount(snap.AudienceSize)))
		b.WriteString("\n")
	}
	if snap.Loading {
		b.WriteString(st.faint.Render("Working..."))
		b.WriteString("\n")
	}
	if s.status != "" {
		b.WriteString(st.faint.Render(s.status))
		b.WriteString("\n")
	}

	bindings := s.keys.treeHelp()
	if s.focus == focusPrompt {
		bindings = s.keys.promptHelp()
	}
	b.WriteString(s.help.ShortHelpView(bindings))
	return b.String()
}

func (s *builderScreen) bodyHeight() int {
	return max(s.height, 0)
}

func (s *builderScreen) rowLabel(row rules.Row) string {
	if g := row.Node.Group; g != nil {
		label := g.Combinator.Normalize().String()
		if g.Not {
			label = "NOT " + label
		}
		if len(row.Path) == 0 {
			return fmt.Sprintf("%s (%d)", label, len(g.Rules))
		}
		return fmt.Sprintf("%s group (%d)", label, len(g.Rules))
	}
	if r := row.Node.Rule; r != nil {
		field := r.Field
		if f, ok := rules.LookupField(r.Field); ok {
			field = f.Label
		}
		return field + " " + strings.TrimPrefix(rules.FormatRule(*r), r.Field+" ")
	}
	return "?"
}
