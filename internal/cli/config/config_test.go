package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points HOME at an empty directory so no real ~/.xenocrm file leaks in.
func isolate(t *testing.T) {
	t.Helper()
	ResetConfig()
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "xenocrm.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("api-url", "", "")
	flags.String("session-cookie", "", "")
	flags.StringP("output", "o", "auto", "")
	flags.Duration("timeout", DefaultTimeout, "")
	flags.Int("port", DefaultStubPort, "")
	flags.StringSlice("allowed-origin", nil, "")
	return flags
}

func TestLoadConfig_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Empty(t, cfg.APIURL)
	assert.Equal(t, DefaultCookieName, cfg.Session.CookieName)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.Equal(t, DefaultLogFormat, cfg.LogFormat)
	assert.Equal(t, DefaultStubPort, cfg.Stub.Port)
	assert.Empty(t, GetConfigFileUsed())
	assert.Same(t, cfg, GetCurrentConfig())
}

func TestLoadConfig_File(t *testing.T) {
	isolate(t)
	path := writeConfig(t, t.TempDir(), `
api_url: https://crm.example.com/
timeout: 15s
output: json
session:
  cookie_name: sid
  cookie: abc123
stub:
  port: 9090
  database: stub.db
  watch: true
  allowed_origins:
    - http://localhost:3000
`)

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, path, GetConfigFileUsed())
	assert.Equal(t, "https://crm.example.com/", cfg.APIURL)
	assert.Equal(t, 15*time.Second, cfg.Timeout)
	assert.Equal(t, "json", cfg.OutputFormat)
	assert.Equal(t, "sid", cfg.Session.CookieName)
	assert.Equal(t, "abc123", cfg.Session.Cookie)
	assert.Equal(t, 9090, cfg.Stub.Port)
	assert.Equal(t, "stub.db", cfg.Stub.Database)
	assert.True(t, cfg.Stub.Watch)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Stub.AllowedOrigins)
}

func TestLoadConfig_FileDiscovery(t *testing.T) {
	t.Run("working directory", func(t *testing.T) {
		isolate(t)
		cwd, err := os.Getwd()
		require.NoError(t, err)
		writeConfig(t, cwd, "api_url: http://cwd.example\n")

		cfg, err := LoadConfig("", nil)
		require.NoError(t, err)
		assert.Equal(t, "http://cwd.example", cfg.APIURL)
		assert.Equal(t, filepath.Join(".", "xenocrm.yaml"), GetConfigFileUsed())
	})

	t.Run("home directory", func(t *testing.T) {
		isolate(t)
		home := os.Getenv("HOME")
		dir := filepath.Join(home, ".xenocrm")
		require.NoError(t, os.MkdirAll(dir, 0o750))
		writeConfig(t, dir, "api_url: http://home.example\n")

		cfg, err := LoadConfig("", nil)
		require.NoError(t, err)
		assert.Equal(t, "http://home.example", cfg.APIURL)
		assert.Equal(t, filepath.Join(dir, "xenocrm.yaml"), GetConfigFileUsed())
	})
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	isolate(t)

	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoadConfig_Env(t *testing.T) {
	isolate(t)
	t.Setenv("XENOCRM_API_URL", "http://env.example")
	t.Setenv("XENOCRM_SESSION_COOKIE", "from-env")
	t.Setenv("XENOCRM_SESSION_COOKIE_NAME", "env.sid")
	t.Setenv("XENOCRM_TIMEOUT", "5s")
	t.Setenv("XENOCRM_STUB_PORT", "7070")
	t.Setenv("XENOCRM_STUB_ALLOWED_ORIGINS", "http://a.test,http://b.test")

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, "http://env.example", cfg.APIURL)
	assert.Equal(t, "from-env", cfg.Session.Cookie)
	assert.Equal(t, "env.sid", cfg.Session.CookieName)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 7070, cfg.Stub.Port)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Stub.AllowedOrigins)
}

func TestLoadConfig_FlagPrecedence(t *testing.T) {
	isolate(t)
	path := writeConfig(t, t.TempDir(), "api_url: http://file.example\n")
	t.Setenv("XENOCRM_API_URL", "http://env.example")

	flags := newFlags()
	require.NoError(t, flags.Set("api-url", "http://flag.example"))
	require.NoError(t, flags.Set("session-cookie", "from-flag"))
	require.NoError(t, flags.Set("timeout", "2s"))
	require.NoError(t, flags.Set("port", "6060"))

	cfg, err := LoadConfig(path, flags)
	require.NoError(t, err)

	assert.Equal(t, "http://flag.example", cfg.APIURL)
	assert.Equal(t, "from-flag", cfg.Session.Cookie)
	assert.Equal(t, 2*time.Second, cfg.Timeout)
	assert.Equal(t, 6060, cfg.Stub.Port)
}

func TestLoadConfig_EnvPrecedenceOverFile(t *testing.T) {
	isolate(t)
	path := writeConfig(t, t.TempDir(), "api_url: http://file.example\noutput: markdown\n")
	t.Setenv("XENOCRM_API_URL", "http://env.example")

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "http://env.example", cfg.APIURL)
	assert.Equal(t, "markdown", cfg.OutputFormat, "file value survives when env does not set it")
}

func TestLoadConfig_FlagNotSetUsesEnv(t *testing.T) {
	isolate(t)
	t.Setenv("XENOCRM_OUTPUT", "json")

	// The flag has a default but was never set, so env wins.
	cfg, err := LoadConfig("", newFlags())
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.OutputFormat)
}

func TestLoadConfig_ExpandsCookie(t *testing.T) {
	isolate(t)
	t.Setenv("CRM_SID", "s%3Asecret")
	path := writeConfig(t, t.TempDir(), "session:\n  cookie: ${CRM_SID}\n")

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "s%3Asecret", cfg.Session.Cookie)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		errSubstr string
	}{
		{name: "bad output", content: "output: yaml\n", errSubstr: `invalid output "yaml"`},
		{name: "bad log format", content: "log_format: xml\n", errSubstr: `invalid log_format "xml"`},
		{name: "negative timeout", content: "timeout: -1s\n", errSubstr: "timeout must not be negative"},
		{name: "empty cookie name", content: "session:\n  cookie_name: \"\"\n", errSubstr: "session.cookie_name is required"},
		{name: "port out of range", content: "stub:\n  port: 70000\n", errSubstr: "stub.port out of range"},
		{name: "bad duration", content: "timeout: soon\n", errSubstr: "unable to decode config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			path := writeConfig(t, t.TempDir(), tt.content)

			_, err := LoadConfig(path, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestConfig_ValidateAPI(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		errSubstr string
	}{
		{name: "missing", url: "", errSubstr: "api_url is required"},
		{name: "relative", url: "/api", errSubstr: "invalid api_url"},
		{name: "wrong scheme", url: "ftp://crm.example.com", errSubstr: "invalid api_url"},
		{name: "https", url: "https://crm.example.com"},
		{name: "http with port", url: "http://localhost:8080"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{APIURL: tt.url}
			err := cfg.ValidateAPI()
			if tt.errSubstr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestEnvKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"XENOCRM_API_URL", "api_url"},
		{"XENOCRM_SESSION_COOKIE", "session.cookie"},
		{"XENOCRM_SESSION_COOKIE_NAME", "session.cookie_name"},
		{"XENOCRM_STUB_SEED_FILE", "stub.seed_file"},
		{"XENOCRM_LOG_FORMAT", "log_format"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, envKey(tt.in), tt.in)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("XENOCRM_TEST_VAR", "value")

	assert.Equal(t, "value", expandEnvVars("${XENOCRM_TEST_VAR}"))
	assert.Equal(t, "pre-value-post", expandEnvVars("pre-${XENOCRM_TEST_VAR}-post"))
	assert.Equal(t, "${XENOCRM_UNSET_VAR}", expandEnvVars("${XENOCRM_UNSET_VAR}"))
	assert.Equal(t, "plain", expandEnvVars("plain"))
}
