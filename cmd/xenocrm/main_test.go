// Package main provides tests for the xenocrm CLI.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leapstack-labs/xenocrm/internal/cli"
	"github.com/leapstack-labs/xenocrm/internal/cli/config"
	"github.com/leapstack-labs/xenocrm/internal/stubapi"
	"github.com/leapstack-labs/xenocrm/internal/stubapi/store"
	"github.com/leapstack-labs/xenocrm/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var seedCustomers = []store.Customer{
	{ID: "a", Name: "Alice", Email: "alice@x.com", TotalSpend: 750, VisitCount: 4, InactiveDays: 12},
	{ID: "b", Name: "Bob", Email: "bob@y.org", TotalSpend: 120, VisitCount: 1, InactiveDays: 95},
	{ID: "c", Name: "Cara", Email: "cara@x.com", TotalSpend: 40, VisitCount: 9, InactiveDays: 3},
}

const xcomRules = `{"combinator":"and","rules":[{"field":"email","operator":"contains","value":"@x.com"}]}`

type stub struct {
	url    string
	cookie string
	store  *store.Memory
}

// startStub runs the stub API and logs in once to obtain a session cookie.
func startStub(t *testing.T) stub {
	t.Helper()
	mem := store.NewMemory()
	require.NoError(t, mem.ReplaceCustomers(context.Background(), seedCustomers))

	srv := httptest.NewServer(stubapi.NewServer(stubapi.Config{
		Store:  mem,
		Logger: testutil.NewTestLogger(t),
	}).Handler())
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{Jar: jar}
	resp, err := client.Get(srv.URL + "/auth/google")
	require.NoError(t, err)
	_ = resp.Body.Close()

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	var cookie string
	for _, ck := range jar.Cookies(u) {
		if ck.Name == config.DefaultCookieName {
			cookie = ck.Value
		}
	}
	require.NotEmpty(t, cookie)
	return stub{url: srv.URL, cookie: cookie, store: mem}
}

// isolate keeps the user's config files and XENOCRM_ variables out of the run.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	for _, name := range []string{"XENOCRM_API_URL", "XENOCRM_SESSION_COOKIE", "XENOCRM_OUTPUT"} {
		t.Setenv(name, "")
		require.NoError(t, os.Unsetenv(name))
	}
	t.Chdir(dir)
	return dir
}

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	config.ResetConfig()
	cmd := cli.NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func (s stub) args(extra ...string) []string {
	return append(extra, "--api-url", s.url, "--session-cookie", s.cookie)
}

func TestVersionCommand(t *testing.T) {
	isolate(t)
	out, _, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "xenocrm v")
}

func TestHelpCommand(t *testing.T) {
	isolate(t)
	out, _, err := execute(t, "", "--help")
	require.NoError(t, err)
	for _, name := range []string{"ui", "session", "login", "logout", "preview", "generate", "campaign", "customers", "fields", "validate", "stub"} {
		assert.Contains(t, out, name)
	}
}

func TestMissingAPIURL(t *testing.T) {
	isolate(t)
	_, _, err := execute(t, "", "customers")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api_url is required")
}

func TestOfflineCommands(t *testing.T) {
	dir := isolate(t)
	rulesFile := testutil.WriteFile(t, dir, "rules.json", xcomRules)
	badFile := testutil.WriteFile(t, dir, "bad.json", `{"combinator":"xor","rules":[{"field":"age","operator":">","value":1}]}`)

	tests := []struct {
		name    string
		args    []string
		want    []string
		wantErr bool
	}{
		{"fields", []string{"fields", "-o", "json"}, []string{`"total_spend"`, `"beginsWith"`}, false},
		{"validate ok", []string{"validate", "--rules", rulesFile}, []string{"valid"}, false},
		{"validate bad", []string{"validate", "--rules", badFile, "-o", "json"}, []string{`"valid": false`}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, "", tt.args...)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			for _, w := range tt.want {
				assert.Contains(t, out, w)
			}
		})
	}
}

func TestSessionCommand(t *testing.T) {
	isolate(t)
	s := startStub(t)

	out, _, err := execute(t, "", s.args("session", "-o", "json")...)
	require.NoError(t, err)
	var got struct {
		LoggedIn bool `json:"logged_in"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.True(t, got.LoggedIn)

	out, _, err = execute(t, "", "session", "--api-url", s.url, "-o", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "not logged in")
}

func TestCustomersCommand(t *testing.T) {
	isolate(t)
	s := startStub(t)

	out, _, err := execute(t, "", s.args("customers", "-o", "json")...)
	require.NoError(t, err)
	var got struct {
		Customers []struct {
			Name string `json:"name"`
		} `json:"customers"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Len(t, got.Customers, 3)

	out, _, err = execute(t, "", s.args("customers", "-o", "markdown")...)
	require.NoError(t, err)
	assert.Contains(t, out, "All Customers")
	assert.Contains(t, out, "Alice")
}

func TestCustomersCommandNotLoggedIn(t *testing.T) {
	isolate(t)
	s := startStub(t)

	_, errOut, err := execute(t, "", "customers", "--api-url", s.url)
	require.Error(t, err)
	assert.Contains(t, errOut, "Failed to load customer data. Please log in.")
}

func TestPreviewAndCampaign(t *testing.T) {
	dir := isolate(t)
	s := startStub(t)
	rulesFile := testutil.WriteFile(t, dir, "rules.json", xcomRules)

	out, _, err := execute(t, "", s.args("preview", "--rules", rulesFile, "-o", "json")...)
	require.NoError(t, err)
	assert.JSONEq(t, `{"audience_size":2}`, out)

	out, _, err = execute(t, "", s.args("campaign", "create", "--rules", rulesFile, "--name", "X dot com", "-o", "json")...)
	require.NoError(t, err)
	var created struct {
		Name         string          `json:"name"`
		AudienceSize int             `json:"audience_size"`
		Campaign     json.RawMessage `json:"campaign"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	assert.Equal(t, "X dot com", created.Name)
	assert.Equal(t, 2, created.AudienceSize)
	assert.NotEmpty(t, created.Campaign)

	campaigns, err := s.store.ListCampaigns(context.Background())
	require.NoError(t, err)
	require.Len(t, campaigns, 1)
}

func TestCampaignPromptCancelled(t *testing.T) {
	dir := isolate(t)
	s := startStub(t)
	rulesFile := testutil.WriteFile(t, dir, "rules.json", xcomRules)

	out, _, err := execute(t, "\n", s.args("campaign", "create", "--rules", rulesFile, "-o", "text")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Campaign creation cancelled.")

	campaigns, err := s.store.ListCampaigns(context.Background())
	require.NoError(t, err)
	assert.Empty(t, campaigns)
}

func TestGenerateCommand(t *testing.T) {
	dir := isolate(t)
	s := startStub(t)
	saved := filepath.Join(dir, "generated.json")

	out, _, err := execute(t, "", s.args("generate", "email", "contains", "@x.com", "--save", saved, "-o", "text")...)
	require.NoError(t, err)
	assert.Contains(t, out, `email contains "@x.com"`)

	out, _, err = execute(t, "", s.args("preview", "--rules", saved, "-o", "json")...)
	require.NoError(t, err)
	assert.JSONEq(t, `{"audience_size":2}`, out)
}

func TestConfigFileAndEnv(t *testing.T) {
	dir := isolate(t)
	s := startStub(t)
	testutil.WriteFile(t, dir, "xenocrm.yaml", "api_url: "+s.url+"\nsession:\n  cookie: ${STUB_COOKIE}\n")
	t.Setenv("STUB_COOKIE", s.cookie)

	out, _, err := execute(t, "", "session", "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"logged_in": true`)
}
