package config

import (
	"errors"
	"fmt"
	"slices"

	"github.com/leapstack-labs/xenocrm/internal/crm"
)

var (
	validOutputs    = []string{"auto", "text", "markdown", "json"}
	validLogFormats = []string{"text", "json"}
)

// Validate checks if the configuration is valid.
// The API URL is checked separately by ValidateAPI, since the stub and
// offline commands run without one.
func (c *Config) Validate() error {
	var errs []error
	if !slices.Contains(validOutputs, c.OutputFormat) {
		errs = append(errs, fmt.Errorf("invalid output %q (must be one of auto, text, markdown, json)", c.OutputFormat))
	}
	if !slices.Contains(validLogFormats, c.LogFormat) {
		errs = append(errs, fmt.Errorf("invalid log_format %q (must be text or json)", c.LogFormat))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must not be negative, got %s", c.Timeout))
	}
	if c.Session.CookieName == "" {
		errs = append(errs, errors.New("session.cookie_name is required"))
	}
	if c.Stub.Port < 0 || c.Stub.Port > 65535 {
		errs = append(errs, fmt.Errorf("stub.port out of range: %d", c.Stub.Port))
	}
	return errors.Join(errs...)
}

// ValidateAPI checks that api_url is set to an absolute http(s) URL.
func (c *Config) ValidateAPI() error {
	if c.APIURL == "" {
		return fmt.Errorf("api_url is required\nHint: set it in xenocrm.yaml, export %sAPI_URL or pass --api-url", EnvPrefix)
	}
	if _, err := crm.ParseBaseURL(c.APIURL); err != nil {
		return fmt.Errorf("invalid api_url: %w", err)
	}
	return nil
}
