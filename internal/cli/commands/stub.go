package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/leapstack-labs/xenocrm/internal/stubapi"
	"github.com/leapstack-labs/xenocrm/internal/stubapi/store"
	"github.com/spf13/cobra"
)

// NewStubCommand creates the stub command.
func NewStubCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stub",
		Short: "Run a local stand-in for the CRM API",
		Long: `Run a local implementation of the CRM API for development.

Login is simulated: visiting /auth/google sets the session cookie. The index
page then shows the cookie value to export as XENOCRM_SESSION_COOKIE.

Customers come from --seed (YAML) or a built-in demo set. With --database,
customers and campaigns are kept in SQLite; otherwise in memory.`,
		Example: `  # In-memory stub on :8080 with demo customers
  xenocrm stub

  # SQLite-backed, reloading customers when the seed file changes
  xenocrm stub --database stub.db --seed customers.yaml --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStub(cmd)
		},
	}

	cmd.Flags().Int("port", 8080, "Port to listen on")
	cmd.Flags().String("database", "", "SQLite database path (empty for in-memory)")
	cmd.Flags().String("seed", "", "YAML file with seed customers")
	cmd.Flags().Bool("watch", false, "Reload the seed file when it changes")
	cmd.Flags().String("session-secret", "", "Secret used to sign session cookies")
	cmd.Flags().StringSlice("allowed-origin", nil, "Origin allowed to call the API with credentials (repeatable)")
	cmd.Flags().Bool("secure-cookies", false, "Mark session cookies Secure (for https)")
	_ = cmd.MarkFlagFilename("seed", "yaml", "yml")

	return cmd
}

func runStub(cmd *cobra.Command) error {
	cmdCtx := NewCommandContextWithoutClient(cmd)
	cfg := cmdCtx.Cfg.Stub
	logger := cmdCtx.Logger

	st, err := openStore(cfg.Database)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := stubapi.NewServer(stubapi.Config{
		Store:          st,
		Port:           cfg.Port,
		SessionSecret:  cfg.SessionSecret,
		CookieName:     cmdCtx.Cfg.Session.CookieName,
		AllowedOrigins: cfg.AllowedOrigins,
		SecureCookies:  cfg.SecureCookies,
		SeedFile:       cfg.SeedFile,
		Watch:          cfg.Watch,
		Logger:         logger,
	})

	if err := seedStore(ctx, srv, st, cfg.SeedFile); err != nil {
		return err
	}

	r := cmdCtx.Renderer
	r.KeyValue("Stub API", fmt.Sprintf("http://localhost:%d", cfg.Port))
	r.Muted("Open the URL above and log in, then export the cookie it shows. Press Ctrl+C to stop.")

	return srv.Serve(ctx)
}

func openStore(database string) (store.Store, error) {
	if database == "" {
		return store.NewMemory(), nil
	}
	st, err := store.OpenSQLite(database)
	if err != nil {
		return nil, fmt.Errorf("failed to open stub database: %w", err)
	}
	return st, nil
}

// seedStore loads the seed file, or the demo customers when no file is set
// and the store is empty.
func seedStore(ctx context.Context, srv *stubapi.Server, st store.Store, seedFile string) error {
	if seedFile != "" {
		return srv.LoadSeed(ctx)
	}
	existing, err := st.ListCustomers(ctx)
	if err != nil {
		return fmt.Errorf("failed to read stub customers: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}
	if err := st.ReplaceCustomers(ctx, store.DefaultCustomers()); err != nil {
		return fmt.Errorf("failed to seed demo customers: %w", err)
	}
	return nil
}
