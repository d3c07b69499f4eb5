package output

import "encoding/json"

// JSON payloads written in ModeJSON.

// SessionOutput is the JSON output of the session command.
type SessionOutput struct {
	APIURL   string `json:"api_url"`
	LoggedIn bool   `json:"logged_in"`
}

// PreviewOutput is the JSON output of the preview command.
type PreviewOutput struct {
	AudienceSize int `json:"audience_size"`
}

// CampaignOutput is the JSON output of campaign create.
type CampaignOutput struct {
	Name         string          `json:"name"`
	AudienceSize int             `json:"audience_size"`
	Campaign     json.RawMessage `json:"campaign,omitempty"`
}

// ValidateOutput is the JSON output of the validate command.
type ValidateOutput struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// FieldInfo describes one field of the rule catalog.
type FieldInfo struct {
	Name      string   `json:"name"`
	Label     string   `json:"label"`
	Type      string   `json:"type"`
	Operators []string `json:"operators"`
}
