package tui

import (
	"context"
	"errors"
	"io"

	tea "github.com/charmbracelet/bubbletea"
)

// Options configures Run.
type Options struct {
	Deps
	Screen Screen

	// Input and Output default to the terminal. Tests pass buffers and set
	// NoAltScreen.
	Input       io.Reader
	Output      io.Writer
	NoAltScreen bool
}

// Run shows the UI until the user quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	app := NewApp(ctx, opts.Deps, opts.Screen)

	progOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if !opts.NoAltScreen {
		progOpts = append(progOpts, tea.WithAltScreen())
	}
	if opts.Input != nil {
		progOpts = append(progOpts, tea.WithInput(opts.Input))
	}
	if opts.Output != nil {
		progOpts = append(progOpts, tea.WithOutput(opts.Output))
	}

	_, err := tea.NewProgram(app, progOpts...).Run()
	app.close()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
