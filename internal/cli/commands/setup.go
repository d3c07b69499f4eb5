package commands

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/leapstack-labs/xenocrm/internal/cli/config"
	"github.com/leapstack-labs/xenocrm/internal/cli/output"
	"github.com/leapstack-labs/xenocrm/internal/crm"
	"github.com/leapstack-labs/xenocrm/pkg/rules"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Client   *crm.Client
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext with an API client and renderer.
// It fails when api_url is missing or invalid.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	cmdCtx := NewCommandContextWithoutClient(cmd)

	client, err := newClient(cmdCtx.Cfg, cmdCtx.Logger)
	if err != nil {
		return nil, err
	}
	cmdCtx.Client = client
	return cmdCtx, nil
}

// NewCommandContextWithoutClient creates a CommandContext without an API client.
// Useful for commands that work offline.
func NewCommandContextWithoutClient(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// Helper functions shared across commands

// getConfig returns the current configuration, or defaults when none was loaded.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return &config.Config{
		Session:      config.SessionConfig{CookieName: config.DefaultCookieName},
		Timeout:      config.DefaultTimeout,
		OutputFormat: config.DefaultOutput,
		LogFormat:    config.DefaultLogFormat,
		Stub:         config.StubConfig{Port: config.DefaultStubPort},
	}
}

func newClient(cfg *config.Config, logger *slog.Logger) (*crm.Client, error) {
	if err := cfg.ValidateAPI(); err != nil {
		return nil, err
	}

	opts := []crm.Option{
		crm.WithLogger(logger),
		crm.WithTimeout(cfg.Timeout),
	}
	if cfg.Session.Cookie != "" {
		opts = append(opts, crm.WithSessionCookie(cfg.Session.CookieName, cfg.Session.Cookie))
	}

	client, err := crm.New(cfg.APIURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}
	return client, nil
}

// readRules reads a rule tree from a file, or from stdin when path is "-".
func readRules(cmd *cobra.Command, path string) (rules.Group, error) {
	if path == "" {
		return rules.Group{}, errors.New("--rules is required (a JSON file, or - for stdin)")
	}

	var in io.Reader
	if path == "-" {
		in = cmd.InOrStdin()
	} else {
		f, err := os.Open(path) //nolint:gosec
		if err != nil {
			return rules.Group{}, fmt.Errorf("failed to open rules file: %w", err)
		}
		defer func() { _ = f.Close() }()
		in = f
	}

	tree, err := rules.Parse(in)
	if err != nil {
		return rules.Group{}, fmt.Errorf("failed to parse rules: %w", err)
	}
	return tree, nil
}

// addRulesFlag registers the --rules flag shared by tree-consuming commands.
func addRulesFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVarP(target, "rules", "r", "", "Rule tree JSON file (- for stdin)")
	_ = cmd.MarkFlagFilename("rules", "json")
}
