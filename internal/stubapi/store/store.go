// Package store persists the stub API's customers and campaigns.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/leapstack-labs/xenocrm/pkg/rules"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// Customer is a stored customer. InactiveDays is used for rule matching only
// and is not part of the public customer payload.
type Customer struct {
	ID           string  `yaml:"id" json:"customerId"`
	Name         string  `yaml:"name" json:"name"`
	Email        string  `yaml:"email" json:"email"`
	TotalSpend   float64 `yaml:"total_spend" json:"total_spend"`
	VisitCount   int     `yaml:"visit_count" json:"visit_count"`
	InactiveDays int     `yaml:"inactive_days" json:"inactive_days"`
}

// Record returns the customer as a rules.Record for Match.
func (c Customer) Record() rules.Record {
	return rules.Record{
		"total_spend":   c.TotalSpend,
		"visit_count":   float64(c.VisitCount),
		"inactive_days": float64(c.InactiveDays),
		"email":         c.Email,
	}
}

// Campaign is a stored campaign.
type Campaign struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Rules        rules.Group `json:"rules"`
	AudienceSize int         `json:"audience_size"`
	CreatedAt    time.Time   `json:"created_at"`
}

// Store is the persistence layer behind the stub API.
type Store interface {
	// ListCustomers returns customers ordered by ID.
	ListCustomers(ctx context.Context) ([]Customer, error)
	// ReplaceCustomers swaps the whole customer set.
	ReplaceCustomers(ctx context.Context, customers []Customer) error
	CreateCampaign(ctx context.Context, c Campaign) error
	GetCampaign(ctx context.Context, id string) (*Campaign, error)
	// ListCampaigns returns campaigns newest first.
	ListCampaigns(ctx context.Context) ([]Campaign, error)
	Close() error
}
