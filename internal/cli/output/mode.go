// Package output renders command results for terminals, markdown consumers
// and JSON pipelines.
package output

import "strings"

// OutputMode selects how command output is rendered.
type OutputMode string //nolint:revive

// Supported output modes.
const (
	ModeAuto     OutputMode = "auto"     // text on a TTY, markdown otherwise
	ModeText     OutputMode = "text"     // styled terminal output
	ModeMarkdown OutputMode = "markdown" // plain markdown, safe for pipes and agents
	ModeJSON     OutputMode = "json"
)

// Mode parses an output format name. Unknown or empty names mean ModeAuto.
func Mode(name string) OutputMode {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "text":
		return ModeText
	case "markdown", "md":
		return ModeMarkdown
	case "json":
		return ModeJSON
	default:
		return ModeAuto
	}
}
