package commands

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/leapstack-labs/xenocrm/internal/audience"
	"github.com/leapstack-labs/xenocrm/internal/cli/output"
	"github.com/spf13/cobra"
)

// browserOpener opens a URL in the user's browser. Replaced in tests.
var browserOpener = openBrowser

// NewSessionCommand creates the session command.
func NewSessionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "session",
		Short: "Check whether the CRM session is logged in",
		Long: `Ask the API whether the configured session cookie is logged in.

Any failure to reach the API is reported as "not logged in".`,
		Example: `  # Check the session against the configured API
  xenocrm session

  # Machine-readable
  xenocrm session -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSession(cmd)
		},
	}
}

func runSession(cmd *cobra.Command) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	r := cmdCtx.Renderer

	b := audience.NewBuilder(audience.Config{API: cmdCtx.Client, Logger: cmdCtx.Logger})
	defer b.Close()
	if err := b.Mount(cmd.Context()); err != nil {
		cmdCtx.Logger.Debug("session probe failed", "error", err)
	}
	loggedIn := b.LoggedIn()

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(output.SessionOutput{APIURL: cmdCtx.Client.BaseURL(), LoggedIn: loggedIn})
	}

	r.KeyValue("API", cmdCtx.Client.BaseURL())
	if loggedIn {
		r.Success("logged in")
	} else {
		r.Muted("not logged in")
	}
	return nil
}

// HandoffOptions holds options for the login and logout commands.
type HandoffOptions struct {
	NoBrowser bool
}

// NewLoginCommand creates the login command.
func NewLoginCommand() *cobra.Command {
	opts := &HandoffOptions{}
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with Google through the browser",
		Long: `Open the API's Google login page in the browser.

The API sets its session cookie in the browser. Copy that cookie into
session.cookie (or XENOCRM_SESSION_COOKIE) so the CLI and TUI can use it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHandoff(cmd, opts, (*audience.Builder).Login, "Log in with Google")
		},
	}
	cmd.Flags().BoolVar(&opts.NoBrowser, "no-browser", false, "Print the URL instead of opening a browser")
	return cmd
}

// NewLogoutCommand creates the logout command.
func NewLogoutCommand() *cobra.Command {
	opts := &HandoffOptions{}
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Log out through the browser",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHandoff(cmd, opts, (*audience.Builder).Logout, "Log out")
		},
	}
	cmd.Flags().BoolVar(&opts.NoBrowser, "no-browser", false, "Print the URL instead of opening a browser")
	return cmd
}

func runHandoff(cmd *cobra.Command, opts *HandoffOptions, action func(*audience.Builder) error, label string) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	r := cmdCtx.Renderer

	nav := audience.NavigateFunc(func(url string) error {
		r.KeyValue(label, url)
		if opts.NoBrowser {
			return nil
		}
		return browserOpener(url)
	})

	b := audience.NewBuilder(audience.Config{API: cmdCtx.Client, Navigator: nav, Logger: cmdCtx.Logger})
	defer b.Close()
	return action(b)
}

// openBrowser opens the specified URL in the default browser.
func openBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url) //nolint:noctx
	case "linux":
		cmd = exec.Command("xdg-open", url) //nolint:noctx
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url) //nolint:noctx
	default:
		return fmt.Errorf("don't know how to open a browser on %s", runtime.GOOS)
	}

	return cmd.Start()
}
