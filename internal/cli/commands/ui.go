package commands

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/leapstack-labs/xenocrm/internal/audience"
	"github.com/leapstack-labs/xenocrm/internal/tui"
	"github.com/spf13/cobra"
)

// UIOptions holds options for the ui command.
type UIOptions struct {
	Screen    string
	NoBrowser bool
}

// NewUICommand creates the ui command.
func NewUICommand() *cobra.Command {
	opts := &UIOptions{}

	cmd := &cobra.Command{
		Use:   "ui",
		Short: "Start the interactive terminal UI",
		Long: `Start the full-screen terminal UI with two screens:

- Audience Builder: edit a rule tree, generate rules from a description,
  preview the audience size and create a campaign
- Customer List: every customer with total spend and visit count

Press 1 and 2 to switch screens. Switching reloads the target screen.
Logs go to --log-file when set; otherwise they are discarded.`,
		Example: `  # Start on the Audience Builder
  xenocrm ui

  # Start on the customer list, logging to a file
  xenocrm ui --screen customers --log-file xenocrm.log`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runUI(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Screen, "screen", "builder", "Screen to open first (builder|customers)")
	cmd.Flags().BoolVar(&opts.NoBrowser, "no-browser", false, "Don't open a browser for login/logout")
	_ = cmd.RegisterFlagCompletionFunc("screen", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"builder", "customers"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runUI(cmd *cobra.Command, opts *UIOptions) error {
	screen, ok := tui.ParseScreen(opts.Screen)
	if !ok {
		return fmt.Errorf("unknown screen %q (use builder or customers)", opts.Screen)
	}

	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	nav := audience.NavigateFunc(func(url string) error {
		cmdCtx.Logger.Info("browser hand-off", "url", url)
		if opts.NoBrowser {
			return nil
		}
		return browserOpener(url)
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM)
	defer stop()

	return tui.Run(ctx, tui.Options{
		Deps: tui.Deps{
			API:       cmdCtx.Client,
			Navigator: nav,
			Logger:    cmdCtx.Logger,
		},
		Screen: screen,
		Input:  cmd.InOrStdin(),
		Output: cmd.OutOrStdout(),
	})
}
