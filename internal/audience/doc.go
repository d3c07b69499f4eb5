// Package audience is the Audience Builder view model.
//
// A Builder owns one rule tree, the last previewed audience size, the
// natural-language prompt and the session flag for a single mount of the
// builder screen. It has no UI dependency: the TUI and the CLI commands both
// drive it and render its Snapshot.
//
// The one cross-field invariant: every tree mutation makes the audience size
// unknown, and a preview result is only applied if the tree has not changed
// since the request was sent. Campaign creation requires a known size, so a
// count can never authorise a campaign for a different tree.
package audience
