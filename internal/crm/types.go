package crm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/leapstack-labs/xenocrm/pkg/rules"
)

// Customer is a read-only record returned by GET /api/customers.
type Customer struct {
	ID       string           `json:"customerId"`
	Name     string           `json:"name"`
	Email    string           `json:"email"`
	Metadata CustomerMetadata `json:"metadata"`
}

// UnmarshalJSON accepts customerId as a string or a number. The ID is only
// an identity key, so a numeric ID keeps its literal text.
func (c *Customer) UnmarshalJSON(data []byte) error {
	type plain Customer
	var p struct {
		plain
		ID json.RawMessage `json:"customerId"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	id, err := parseID(p.ID)
	if err != nil {
		return err
	}
	*c = Customer(p.plain)
	c.ID = id
	return nil
}

func parseID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("customerId must be a string or number, got %s", raw)
	}
	return n.String(), nil
}

// CustomerMetadata holds the aggregate fields rules can filter on.
type CustomerMetadata struct {
	TotalSpend float64 `json:"total_spend"`
	VisitCount int     `json:"visit_count"`
}

type sessionResponse struct {
	Success bool `json:"success"`
}

type previewResponse struct {
	Count *int `json:"count"`
}

type promptRequest struct {
	Prompt string `json:"prompt"`
}

type createCampaignRequest struct {
	Name  string      `json:"name"`
	Rules rules.Group `json:"rules"`
}

type customersResponse struct {
	Customers *[]Customer `json:"customers"`
}

// Campaign is the opaque body returned by campaign creation. Callers only
// inspect it for display.
type Campaign = json.RawMessage
