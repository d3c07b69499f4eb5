// Package customers is the Customer List view model: one fetch per mount,
// then a read-only, ordered list or a fixed error message.
package customers

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/leapstack-labs/xenocrm/internal/crm"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Fixed user-facing texts.
const (
	LoadFailedMessage = "Failed to load customer data. Please log in."
	EmptyMessage      = "No customers found."
	LoadingMessage    = "Loading customers..."
	Title             = "All Customers"
)

// State is the lifecycle of one mount.
type State int

// States.
const (
	Loading State = iota
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// API is the slice of the CRM client the list needs.
type API interface {
	ListCustomers(ctx context.Context) ([]crm.Customer, error)
}

// List holds the customers for one mount of the screen.
type List struct {
	api    API
	logger *slog.Logger

	mu        sync.Mutex
	state     State
	customers []crm.Customer
	errMsg    string
	started   bool
}

// NewList returns a list in the Loading state.
func NewList(api API, logger *slog.Logger) *List {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &List{api: api, logger: logger}
}

// Load fetches the customers. Only the first call on a List does anything.
func (l *List) Load(ctx context.Context) error {
	l.mu.Lock()
	if l.started {
		l.mu.Unlock()
		return nil
	}
	l.started = true
	l.mu.Unlock()

	got, err := l.api.ListCustomers(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		l.logger.Error("failed to fetch customers", "error", err)
		l.state = Failed
		l.errMsg = LoadFailedMessage
		return fmt.Errorf("failed to fetch customers: %w", err)
	}
	l.customers = append([]crm.Customer{}, got...)
	l.state = Ready
	l.logger.Debug("customers loaded", "count", len(got))
	return nil
}

// State returns the current state.
func (l *List) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Customers returns a copy of the loaded customers in server order.
func (l *List) Customers() []crm.Customer {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]crm.Customer(nil), l.customers...)
}

// Error returns the fixed failure message, or "" when not failed.
func (l *List) Error() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.errMsg
}

// Empty is true once loaded with zero customers.
func (l *List) Empty() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state == Ready && len(l.customers) == 0
}

var printer = message.NewPrinter(language.English)

// FormatSpend renders an amount as "$1,234.50".
func FormatSpend(v float64) string {
	return printer.Sprintf("$%.2f", v)
}

// FormatCount renders an integer with thousands separators.
func FormatCount(n int) string {
	return printer.Sprintf("%d", n)
}
