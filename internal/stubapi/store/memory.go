package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/leapstack-labs/xenocrm/pkg/rules"
)

// Memory is an in-process Store.
type Memory struct {
	mu        sync.RWMutex
	customers []Customer
	campaigns []Campaign
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// ListCustomers implements Store.
func (m *Memory) ListCustomers(_ context.Context) ([]Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Customer{}, m.customers...), nil
}

// ReplaceCustomers implements Store.
func (m *Memory) ReplaceCustomers(_ context.Context, customers []Customer) error {
	seen := make(map[string]bool, len(customers))
	for _, c := range customers {
		if c.ID == "" {
			return fmt.Errorf("customer %q has no id", c.Name)
		}
		if seen[c.ID] {
			return fmt.Errorf("duplicate customer id %q", c.ID)
		}
		seen[c.ID] = true
	}

	sorted := append([]Customer{}, customers...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	m.mu.Lock()
	defer m.mu.Unlock()
	m.customers = sorted
	return nil
}

// CreateCampaign implements Store.
func (m *Memory) CreateCampaign(_ context.Context, c Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.campaigns {
		if existing.ID == c.ID {
			return fmt.Errorf("duplicate campaign id %q", c.ID)
		}
	}
	c.Rules = rules.Clone(c.Rules)
	m.campaigns = append(m.campaigns, c)
	return nil
}

// GetCampaign implements Store.
func (m *Memory) GetCampaign(_ context.Context, id string) (*Campaign, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.campaigns {
		if c.ID == id {
			out := c
			out.Rules = rules.Clone(c.Rules)
			return &out, nil
		}
	}
	return nil, fmt.Errorf("campaign %s: %w", id, ErrNotFound)
}

// ListCampaigns implements Store.
func (m *Memory) ListCampaigns(_ context.Context) ([]Campaign, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Campaign, 0, len(m.campaigns))
	for i := len(m.campaigns) - 1; i >= 0; i-- {
		out = append(out, m.campaigns[i])
	}
	return out, nil
}

// Close implements Store.
func (m *Memory) Close() error { return nil }
