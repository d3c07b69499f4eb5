package store

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed seed/customers.yaml
var defaultSeed []byte

type seedFile struct {
	Customers []Customer `yaml:"customers"`
}

// LoadSeed reads customers from a YAML seed file.
func LoadSeed(path string) ([]Customer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer func() { _ = f.Close() }()

	customers, err := DecodeSeed(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file %s: %w", path, err)
	}
	return customers, nil
}

// DecodeSeed parses the seed format:
//
//	customers:
//	  - id: cust-001
//	    name: Aarav Mehta
//	    email: aarav@example.com
//	    total_spend: 12500
//	    visit_count: 14
//	    inactive_days: 3
func DecodeSeed(r io.Reader) ([]Customer, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var sf seedFile
	if err := dec.Decode(&sf); err != nil && err != io.EOF {
		return nil, err
	}

	seen := make(map[string]bool, len(sf.Customers))
	for i, c := range sf.Customers {
		if c.ID == "" {
			return nil, fmt.Errorf("customer #%d has no id", i+1)
		}
		if seen[c.ID] {
			return nil, fmt.Errorf("duplicate customer id %q", c.ID)
		}
		seen[c.ID] = true
	}
	if sf.Customers == nil {
		sf.Customers = []Customer{}
	}
	return sf.Customers, nil
}

// DefaultCustomers returns the built-in demo customers.
func DefaultCustomers() []Customer {
	customers, err := DecodeSeed(bytes.NewReader(defaultSeed))
	if err != nil {
		panic(fmt.Sprintf("embedded seed is invalid: %v", err))
	}
	return customers
}
