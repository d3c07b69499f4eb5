package audience

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/leapstack-labs/xenocrm/pkg/rules"
)

// API is the slice of the CRM client the builder needs.
type API interface {
	IsLoggedIn(ctx context.Context) (bool, error)
	PreviewAudience(ctx context.Context, tree rules.Group) (int, error)
	TextToRules(ctx context.Context, prompt string) (rules.Group, error)
	CreateCampaign(ctx context.Context, name string, tree rules.Group) (json.RawMessage, error)
	LoginURL() string
	LogoutURL() string
}

// Alerter shows a blocking, dismissible message to the user.
type Alerter interface {
	Alert(message string)
}

// Navigator performs a full-page hand-off to url (login and logout).
type Navigator interface {
	Navigate(url string) error
}

// Prompter asks the user for a campaign name. ok is false when dismissed.
type Prompter interface {
	PromptCampaignName() (name string, ok bool)
}

// AlertFunc adapts a function to Alerter.
type AlertFunc func(message string)

// Alert calls f(message).
func (f AlertFunc) Alert(message string) { f(message) }

// NavigateFunc adapts a function to Navigator.
type NavigateFunc func(url string) error

// Navigate calls f(url).
func (f NavigateFunc) Navigate(url string) error { return f(url) }

// PromptFunc adapts a function to Prompter.
type PromptFunc func() (string, bool)

// PromptCampaignName calls f().
func (f PromptFunc) PromptCampaignName() (string, bool) { return f() }

// Config wires a Builder to its collaborators.
type Config struct {
	API       API
	Alerter   Alerter
	Navigator Navigator
	Logger    *slog.Logger
}

// Snapshot is a copy of the builder state for rendering.
type Snapshot struct {
	Tree         rules.Group
	AudienceSize int
	SizeKnown    bool
	Loading      bool
	LoggedIn     bool
	Prompt       string
}

// Builder is the Audience Builder view model. It is safe for concurrent use.
type Builder struct {
	api     API
	alerter Alerter
	nav     Navigator
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	tree      rules.Group
	size      int
	sizeKnown bool
	loading   bool
	loggedIn  bool
	prompt    string
	revision  uint64
	closed    bool
	campaign  json.RawMessage
}

// NewBuilder returns a builder holding the empty tree.
func NewBuilder(cfg Config) *Builder {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	alerter := cfg.Alerter
	if alerter == nil {
		alerter = AlertFunc(func(string) {})
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Builder{
		api:     cfg.API,
		alerter: alerter,
		nav:     cfg.Navigator,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		tree:    rules.New(),
	}
}

// Snapshot returns the current state.
func (b *Builder) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Snapshot{
		Tree:         rules.Clone(b.tree),
		AudienceSize: b.size,
		SizeKnown:    b.sizeKnown,
		Loading:      b.loading,
		LoggedIn:     b.loggedIn,
		Prompt:       b.prompt,
	}
}

// Tree returns a copy of the current rule tree.
func (b *Builder) Tree() rules.Group {
	b.mu.Lock()
	defer b.mu.Unlock()
	return rules.Clone(b.tree)
}

// AudienceSize returns the last previewed count and whether it is known.
func (b *Builder) AudienceSize() (int, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size, b.sizeKnown
}

// Loading reports whether a request is in flight.
func (b *Builder) Loading() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loading
}

// LoggedIn reports the result of the mount-time session probe.
func (b *Builder) LoggedIn() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loggedIn
}

// Mount probes the session once. Any failure means "not logged in" and is
// not alerted; the error is returned for logging only.
func (b *Builder) Mount(ctx context.Context) error {
	ctx, done := b.scope(ctx)
	defer done()

	ok, err := b.api.IsLoggedIn(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	if err != nil {
		b.logger.Warn("session check failed", "error", err)
		b.loggedIn = false
		return fmt.Errorf("failed to check session: %w", err)
	}
	b.loggedIn = ok
	return nil
}

// Login hands off to the login page.
func (b *Builder) Login() error {
	return b.navigate(b.api.LoginURL())
}

// Logout hands off to the logout page.
func (b *Builder) Logout() error {
	return b.navigate(b.api.LogoutURL())
}

func (b *Builder) navigate(url string) error {
	if b.nav == nil {
		return fmt.Errorf("no navigator configured for %s", url)
	}
	if err := b.nav.Navigate(url); err != nil {
		return fmt.Errorf("failed to open %s: %w", url, err)
	}
	return nil
}

// Prompt returns the natural-language text.
func (b *Builder) Prompt() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.prompt
}

// SetPrompt replaces the natural-language text. Allowed while loading.
func (b *Builder) SetPrompt(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.prompt = text
}

// CanGenerate reports whether GenerateRules would send a request.
func (b *Builder) CanGenerate() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.loading && strings.TrimSpace(b.prompt) != ""
}

// GenerateRules sends the prompt to the text-to-rules endpoint and adopts the
// returned tree verbatim. A blank prompt is a no-op.
func (b *Builder) GenerateRules(ctx context.Context) error {
	b.mu.Lock()
	if strings.TrimSpace(b.prompt) == "" {
		b.mu.Unlock()
		return nil
	}
	if err := b.beginLocked(); err != nil {
		b.mu.Unlock()
		return err
	}
	prompt := b.prompt
	b.mu.Unlock()

	ctx, done := b.scope(ctx)
	defer done()
	tree, err := b.api.TextToRules(ctx, prompt)

	b.mu.Lock()
	b.loading = false
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	if err != nil {
		b.mu.Unlock()
		b.logger.Error("failed to generate rules", "error", err)
		b.alerter.Alert(AlertGenerateFailed)
		return fmt.Errorf("failed to generate rules: %w", err)
	}
	b.replaceLocked(tree)
	b.prompt = ""
	b.mu.Unlock()
	return nil
}

// SetTree replaces the whole tree, as the visual editor does on every change.
func (b *Builder) SetTree(tree rules.Group) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.replaceLocked(tree)
}

// Edit applies fn to the current tree and stores the result. On error the
// tree and the audience size are left alone.
func (b *Builder) Edit(fn func(rules.Group) (rules.Group, error)) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	next, err := fn(b.tree)
	if err != nil {
		return err
	}
	b.replaceLocked(next)
	return nil
}

// CanPreview reports whether Preview would send a request.
func (b *Builder) CanPreview() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.loading
}

// Preview posts the current tree and stores the returned count. A count that
// arrives after the tree changed is dropped.
func (b *Builder) Preview(ctx context.Context) error {
	b.mu.Lock()
	if err := b.beginLocked(); err != nil {
		b.mu.Unlock()
		return err
	}
	tree := rules.Clone(b.tree)
	rev := b.revision
	b.mu.Unlock()

	ctx, done := b.scope(ctx)
	defer done()
	n, err := b.api.PreviewAudience(ctx, tree)

	b.mu.Lock()
	b.loading = false
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	if err != nil {
		if rev == b.revision {
			b.sizeKnown = false
			b.size = 0
		}
		b.mu.Unlock()
		b.logger.Error("failed to preview audience", "error", err)
		b.alerter.Alert(AlertPreviewFailed)
		return fmt.Errorf("failed to preview audience: %w", err)
	}
	if rev != b.revision {
		b.mu.Unlock()
		b.logger.Debug("dropping stale audience size", "count", n)
		return nil
	}
	b.size = n
	b.sizeKnown = true
	b.mu.Unlock()
	return nil
}

// CanCreate reports whether a campaign may be created now.
func (b *Builder) CanCreate() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sizeKnown && !b.loading
}

// CreateCampaign asks p for a name and creates the campaign for the current
// tree. An empty or dismissed name aborts with ErrCancelled and no request.
func (b *Builder) CreateCampaign(ctx context.Context, p Prompter) error {
	if err := b.checkCreate(); err != nil {
		return err
	}
	name, ok := p.PromptCampaignName()
	if !ok || strings.TrimSpace(name) == "" {
		return ErrCancelled
	}
	return b.SubmitCampaign(ctx, name)
}

// SubmitCampaign creates the campaign with an already collected name.
func (b *Builder) SubmitCampaign(ctx context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrCancelled
	}

	b.mu.Lock()
	if err := b.createAllowedLocked(); err != nil {
		b.mu.Unlock()
		return err
	}
	b.loading = true
	tree := rules.Clone(b.tree)
	b.mu.Unlock()

	ctx, done := b.scope(ctx)
	defer done()
	resp, err := b.api.CreateCampaign(ctx, name, tree)

	b.mu.Lock()
	b.loading = false
	closed := b.closed
	if err == nil && !closed {
		b.campaign = resp
	}
	b.mu.Unlock()
	if closed {
		return ErrClosed
	}

	if err != nil {
		b.logger.Error("failed to create campaign", "name", name, "error", err)
		b.alerter.Alert(AlertCreateFailed)
		return fmt.Errorf("failed to create campaign: %w", err)
	}
	b.logger.Info("campaign created", "name", name, "response", string(resp))
	b.alerter.Alert(AlertCampaignCreated)
	return nil
}

// LastCampaign returns the server's response for the most recent campaign
// created through the builder, or nil.
func (b *Builder) LastCampaign() json.RawMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.campaign
}

// Close cancels requests started through the builder. Results that arrive
// afterwards change nothing and raise no alert.
func (b *Builder) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.cancel()
}

func (b *Builder) checkCreate() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.createAllowedLocked()
}

func (b *Builder) createAllowedLocked() error {
	switch {
	case b.closed:
		return ErrClosed
	case b.loading:
		return ErrBusy
	case !b.sizeKnown:
		return ErrNoAudience
	}
	return nil
}

func (b *Builder) beginLocked() error {
	if b.closed {
		return ErrClosed
	}
	if b.loading {
		return ErrBusy
	}
	b.loading = true
	return nil
}

func (b *Builder) replaceLocked(tree rules.Group) {
	if tree.Rules == nil {
		tree.Rules = []rules.Node{}
	}
	b.tree = tree
	b.revision++
	b.sizeKnown = false
	b.size = 0
}

// scope derives a request context that is also cancelled by Close.
func (b *Builder) scope(ctx context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(b.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
