package audience

import "errors"

// Fixed user-facing alert texts.
const (
	AlertPreviewFailed   = "Failed to get audience size. Please log in first."
	AlertGenerateFailed  = "Failed to generate rules. Please try again."
	AlertCampaignCreated = "Campaign created successfully!"
	AlertCreateFailed    = "Failed to create campaign. Please log in first."
	CampaignNamePrompt   = "Enter a name for your campaign:"
	PromptPlaceholder    = "e.g., spent over ₹500 and visited in the last 30 days"
)

var (
	// ErrBusy is returned when an action is attempted while another is in flight.
	ErrBusy = errors.New("another request is in progress")
	// ErrNoAudience is returned by campaign creation when no preview has
	// succeeded since the last tree change.
	ErrNoAudience = errors.New("audience size is unknown; preview first")
	// ErrClosed is returned once the builder has been closed.
	ErrClosed = errors.New("builder closed")
	// ErrCancelled is returned when the campaign name prompt is empty or dismissed.
	ErrCancelled = errors.New("campaign creation cancelled")
)
