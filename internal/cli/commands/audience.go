package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/leapstack-labs/xenocrm/internal/audience"
	"github.com/leapstack-labs/xenocrm/internal/cli/output"
	"github.com/leapstack-labs/xenocrm/internal/customers"
	"github.com/leapstack-labs/xenocrm/pkg/rules"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// newBuilder returns an audience builder whose alerts go to the renderer.
func newBuilder(cmdCtx *CommandContext) *audience.Builder {
	return audience.NewBuilder(audience.Config{
		API:     cmdCtx.Client,
		Alerter: alerter(cmdCtx.Renderer),
		Logger:  cmdCtx.Logger,
	})
}

// alerter prints builder alerts. In JSON mode everything goes to stderr so
// stdout stays parseable.
func alerter(r *output.Renderer) audience.AlertFunc {
	return func(msg string) {
		switch {
		case r.EffectiveMode() == output.ModeJSON:
			_, _ = fmt.Fprintln(r.ErrWriter(), msg)
		case msg == audience.AlertCampaignCreated:
			r.Success(msg)
		default:
			r.Error(msg)
		}
	}
}

// PreviewOptions holds options for the preview command.
type PreviewOptions struct {
	Rules string
}

// NewPreviewCommand creates the preview command.
func NewPreviewCommand() *cobra.Command {
	opts := &PreviewOptions{}
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Preview the audience size for a rule tree",
		Example: `  # Preview a saved tree
  xenocrm preview --rules audience.json

  # Pipe a generated tree straight in
  xenocrm generate "spent over 500" -o json | xenocrm preview --rules -`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPreview(cmd, opts)
		},
	}
	addRulesFlag(cmd, &opts.Rules)
	return cmd
}

func runPreview(cmd *cobra.Command, opts *PreviewOptions) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	tree, err := readRules(cmd, opts.Rules)
	if err != nil {
		return err
	}

	b := newBuilder(cmdCtx)
	defer b.Close()
	b.SetTree(tree)
	if err := b.Preview(cmd.Context()); err != nil {
		return err
	}

	n, _ := b.AudienceSize()
	r := cmdCtx.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(output.PreviewOutput{AudienceSize: n})
	}
	r.KeyValue("Estimated Audience Size", customers.FormatCount(n))
	return nil
}

// GenerateOptions holds options for the generate command.
type GenerateOptions struct {
	Save string
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand() *cobra.Command {
	opts := &GenerateOptions{}
	cmd := &cobra.Command{
		Use:   "generate <description>...",
		Short: "Turn a plain-language description into audience rules",
		Long: `Send a natural-language description to the API's rule generator and
print the rule tree it returns. The tree is shown exactly as returned.`,
		Example: `  xenocrm generate spent over 500 and visited in the last 30 days
  xenocrm generate "inactive for 90 days" --save winback.json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, opts, strings.Join(args, " "))
		},
	}
	cmd.Flags().StringVar(&opts.Save, "save", "", "Also write the tree as JSON to this file")
	return cmd
}

func runGenerate(cmd *cobra.Command, opts *GenerateOptions, prompt string) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	if strings.TrimSpace(prompt) == "" {
		return errors.New("description must not be blank")
	}

	b := newBuilder(cmdCtx)
	defer b.Close()
	b.SetPrompt(prompt)
	if err := b.GenerateRules(cmd.Context()); err != nil {
		return err
	}
	tree := b.Tree()

	data, err := json.MarshalIndent(tree, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode rules: %w", err)
	}
	if opts.Save != "" {
		if err := os.WriteFile(opts.Save, append(data, '\n'), 0o600); err != nil {
			return fmt.Errorf("failed to save rules: %w", err)
		}
	}

	r := cmdCtx.Renderer
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(tree)
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(2, "Generated rules"))
		r.Println(output.FormatKeyValue("Expression", "`"+rules.Format(tree)+"`"))
		r.Println()
		r.Println(output.FormatCodeBlock("json", string(data)))
	default:
		r.Header(2, "Generated rules")
		r.Println(rules.Format(tree))
		if opts.Save != "" {
			r.Muted("Saved to " + opts.Save)
		}
	}
	return nil
}

// CampaignOptions holds options for campaign create.
type CampaignOptions struct {
	Rules string
	Name  string
}

// NewCampaignCommand creates the campaign command group.
func NewCampaignCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "campaign",
		Short: "Manage campaigns",
	}
	cmd.AddCommand(newCampaignCreateCommand())
	return cmd
}

func newCampaignCreateCommand() *cobra.Command {
	opts := &CampaignOptions{}
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a campaign for a rule tree",
		Long: `Preview the audience for a rule tree, then create a campaign for it.

The audience size must be known before a campaign can be created, so the
preview always runs first. Without --name you are prompted for one; an
empty name cancels.`,
		Example: `  xenocrm campaign create --rules winback.json --name "Winback Q3"
  xenocrm campaign create --rules winback.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCampaignCreate(cmd, opts)
		},
	}
	addRulesFlag(cmd, &opts.Rules)
	cmd.Flags().StringVarP(&opts.Name, "name", "n", "", "Campaign name (prompted when omitted)")
	return cmd
}

func runCampaignCreate(cmd *cobra.Command, opts *CampaignOptions) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	if opts.Rules == "-" && !cmd.Flags().Changed("name") {
		return errors.New("--name is required when rules are read from stdin")
	}
	tree, err := readRules(cmd, opts.Rules)
	if err != nil {
		return err
	}

	r := cmdCtx.Renderer
	b := newBuilder(cmdCtx)
	defer b.Close()
	b.SetTree(tree)
	if err := b.Preview(cmd.Context()); err != nil {
		return err
	}
	size, _ := b.AudienceSize()
	if r.EffectiveMode() != output.ModeJSON {
		r.KeyValue("Estimated Audience Size", customers.FormatCount(size))
	}

	name := opts.Name
	if cmd.Flags().Changed("name") {
		err = b.SubmitCampaign(cmd.Context(), name)
	} else {
		p := &readlinePrompter{in: cmd.InOrStdin(), out: cmd.ErrOrStderr()}
		err = b.CreateCampaign(cmd.Context(), p)
		name = p.name
		if p.err != nil {
			return p.err
		}
	}
	if errors.Is(err, audience.ErrCancelled) {
		r.Muted("Campaign creation cancelled.")
		return nil
	}
	if err != nil {
		return err
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(output.CampaignOutput{
			Name:         name,
			AudienceSize: size,
			Campaign:     b.LastCampaign(),
		})
	}
	return nil
}

// isTerminal reports whether r is an interactive terminal.
func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd())) //nolint:gosec
}

// readlinePrompter asks for the campaign name on the terminal.
type readlinePrompter struct {
	in   io.Reader
	out  io.Writer
	name string
	err  error
}

func (p *readlinePrompter) PromptCampaignName() (string, bool) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          audience.CampaignNamePrompt + " ",
		InterruptPrompt: "^C",
		Stdin:           io.NopCloser(p.in),
		Stdout:          p.out,
		Stderr:          p.out,
		FuncIsTerminal:  func() bool { return isTerminal(p.in) },
	})
	if err != nil {
		p.err = fmt.Errorf("failed to initialize prompt: %w", err)
		return "", false
	}
	defer func() { _ = rl.Close() }()

	line, err := rl.Readline()
	if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
		return "", false
	}
	if err != nil {
		p.err = fmt.Errorf("failed to read campaign name: %w", err)
		return "", false
	}
	p.name = line
	return p.name, true
}
