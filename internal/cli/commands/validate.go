package commands

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/xenocrm/internal/cli/output"
	"github.com/leapstack-labs/xenocrm/pkg/rules"
	"github.com/spf13/cobra"
)

// ValidateOptions holds options for the validate command.
type ValidateOptions struct {
	Rules string
}

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	opts := &ValidateOptions{}
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a rule tree against the field catalog",
		Long: `Check a rule tree locally: known fields, operators valid for the field
type, and values of the right shape. No request is sent.`,
		Example: `  xenocrm validate --rules audience.json
  cat audience.json | xenocrm validate --rules -`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runValidate(cmd, opts)
		},
	}
	addRulesFlag(cmd, &opts.Rules)
	return cmd
}

func runValidate(cmd *cobra.Command, opts *ValidateOptions) error {
	r := NewCommandContextWithoutClient(cmd).Renderer

	tree, err := readRules(cmd, opts.Rules)
	if err != nil {
		return err
	}

	verr := rules.Validate(tree)
	problems := splitJoined(verr)

	if r.EffectiveMode() == output.ModeJSON {
		if err := r.JSON(output.ValidateOutput{Valid: verr == nil, Errors: problems}); err != nil {
			return err
		}
	} else if verr == nil {
		r.Success("valid: " + rules.Format(tree))
	} else {
		r.Header(2, "Invalid rules")
		for _, p := range problems {
			r.Println("- " + p)
		}
	}

	if verr != nil {
		return fmt.Errorf("%d problem(s) found", len(problems))
	}
	return nil
}

// splitJoined flattens an errors.Join result into messages.
func splitJoined(err error) []string {
	if err == nil {
		return nil
	}
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		msgs := make([]string, 0, len(joined.Unwrap()))
		for _, e := range joined.Unwrap() {
			msgs = append(msgs, e.Error())
		}
		return msgs
	}
	return []string{err.Error()}
}
