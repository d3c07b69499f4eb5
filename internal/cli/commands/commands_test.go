// Package commands_test provides tests for CLI command creation.
package commands

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leapstack-labs/xenocrm/internal/audience"
	"github.com/leapstack-labs/xenocrm/internal/cli/config"
	"github.com/leapstack-labs/xenocrm/internal/cli/testutil"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandConstructors(t *testing.T) {
	tests := []struct {
		cmd   *cobra.Command
		use   string
		flags []string
	}{
		{NewUICommand(), "ui", []string{"screen", "no-browser"}},
		{NewSessionCommand(), "session", nil},
		{NewLoginCommand(), "login", []string{"no-browser"}},
		{NewLogoutCommand(), "logout", []string{"no-browser"}},
		{NewPreviewCommand(), "preview", []string{"rules"}},
		{NewGenerateCommand(), "generate <description>...", []string{"save"}},
		{NewCustomersCommand(), "customers", nil},
		{NewFieldsCommand(), "fields", nil},
		{NewValidateCommand(), "validate", []string{"rules"}},
		{NewStubCommand(), "stub", []string{"port", "database", "seed", "watch", "session-secret", "allowed-origin", "secure-cookies"}},
	}
	for _, tt := range tests {
		t.Run(tt.use, func(t *testing.T) {
			assert.Equal(t, tt.use, tt.cmd.Use)
			assert.NotEmpty(t, tt.cmd.Short, "Short should not be empty")
			for _, flag := range tt.flags {
				assert.NotNil(t, tt.cmd.Flags().Lookup(flag), "flag %q should exist", flag)
			}
		})
	}
}

func TestNewCampaignCommand(t *testing.T) {
	cmd := NewCampaignCommand()
	assert.Equal(t, "campaign", cmd.Use)

	create, _, err := cmd.Find([]string{"create"})
	require.NoError(t, err)
	assert.Equal(t, "create", create.Use)
	assert.NotNil(t, create.Flags().Lookup("rules"))
	assert.NotNil(t, create.Flags().ShorthandLookup("n"))
}

func TestReadRules(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.json", `{"combinator":"or","rules":[{"field":"visit_count","operator":">","value":3}]}`)
	bad := writeFile(t, dir, "bad.json", `{"combinator":`)

	tests := []struct {
		name    string
		path    string
		stdin   string
		wantLen int
		wantErr string
	}{
		{name: "file", path: good, wantLen: 1},
		{name: "stdin", path: "-", stdin: `{"combinator":"and","rules":[]}`, wantLen: 0},
		{name: "missing flag", path: "", wantErr: "--rules is required"},
		{name: "missing file", path: filepath.Join(dir, "nope.json"), wantErr: "failed to open rules file"},
		{name: "malformed", path: bad, wantErr: "failed to parse rules"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := &cobra.Command{}
			cmd.SetIn(strings.NewReader(tt.stdin))

			tree, err := readRules(cmd, tt.path)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLen, tree.Len())
		})
	}
}

func TestSplitJoined(t *testing.T) {
	assert.Nil(t, splitJoined(nil))
	assert.Equal(t, []string{"one"}, splitJoined(errors.New("one")))
	assert.Equal(t, []string{"a", "b"}, splitJoined(errors.Join(errors.New("a"), errors.New("b"))))
}

func TestAlerter(t *testing.T) {
	tests := []struct {
		name    string
		tr      *testutil.TestRenderer
		msg     string
		wantOut string
		wantErr string
	}{
		{
			name:    "created goes to stdout",
			tr:      testutil.NewTestRendererMarkdown(),
			msg:     audience.AlertCampaignCreated,
			wantOut: audience.AlertCampaignCreated,
		},
		{
			name:    "failure goes to stderr",
			tr:      testutil.NewTestRendererMarkdown(),
			msg:     audience.AlertPreviewFailed,
			wantErr: audience.AlertPreviewFailed,
		},
		{
			name:    "json mode keeps stdout clean",
			tr:      testutil.NewTestRendererJSON(),
			msg:     audience.AlertCampaignCreated,
			wantErr: audience.AlertCampaignCreated,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alerter(tt.tr.Renderer)(tt.msg)
			if tt.wantOut == "" {
				assert.Empty(t, tt.tr.Output())
			} else {
				assert.Contains(t, tt.tr.Output(), tt.wantOut)
			}
			if tt.wantErr == "" {
				assert.Empty(t, tt.tr.ErrorOutput())
			} else {
				assert.Contains(t, tt.tr.ErrorOutput(), tt.wantErr)
			}
			testutil.AssertNoANSI(t, tt.tr.Output()+tt.tr.ErrorOutput())
		})
	}
}

// loadTestConfig loads config with api_url set, as the root command would.
func loadTestConfig(t *testing.T, apiURL string) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Chdir(dir)
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("api-url", "", "")
	fs.String("output", "", "")
	require.NoError(t, fs.Set("api-url", apiURL))
	require.NoError(t, fs.Set("output", "markdown"))
	_, err := config.LoadConfig("", fs)
	require.NoError(t, err)
}

func TestLoginLogoutHandoff(t *testing.T) {
	loadTestConfig(t, "http://api.test")

	var opened []string
	orig := browserOpener
	browserOpener = func(url string) error {
		opened = append(opened, url)
		return nil
	}
	t.Cleanup(func() { browserOpener = orig })

	tests := []struct {
		name    string
		cmd     func() *cobra.Command
		args    []string
		wantURL string
		opened  bool
	}{
		{"login", NewLoginCommand, nil, "http://api.test/auth/google", true},
		{"login no browser", NewLoginCommand, []string{"--no-browser"}, "http://api.test/auth/google", false},
		{"logout", NewLogoutCommand, nil, "http://api.test/auth/logout", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opened = nil
			cmd := tt.cmd()
			var out bytes.Buffer
			cmd.SetOut(&out)
			cmd.SetErr(&out)
			cmd.SetArgs(tt.args)

			require.NoError(t, cmd.Execute())
			assert.Contains(t, out.String(), tt.wantURL)
			if tt.opened {
				assert.Equal(t, []string{tt.wantURL}, opened)
			} else {
				assert.Empty(t, opened)
			}
		})
	}
}

func TestUIRejectsUnknownScreen(t *testing.T) {
	loadTestConfig(t, "http://api.test")

	cmd := NewUICommand()
	cmd.SetArgs([]string{"--screen", "reports"})
	cmd.SetOut(&bytes.Buffer{})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown screen")
}

func TestFieldsOutput(t *testing.T) {
	infos := fieldInfos()
	require.NotEmpty(t, infos)
	assert.Equal(t, "total_spend", infos[0].Name)
	assert.Contains(t, infos[0].Operators, "between")

	names := make([]string, len(infos))
	for i, f := range infos {
		names[i] = f.Name
	}
	assert.Contains(t, names, "email")
	for _, f := range infos {
		assert.Contains(t, []string{"number", "text"}, f.Type)
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}
