// Package config provides configuration management for the xenocrm CLI.
//
// Values are layered with koanf: built-in defaults, then a xenocrm.yaml file,
// then XENOCRM_ environment variables, then command-line flags.
package config

import "time"

// SessionConfig holds the CRM session cookie handed to the API client.
type SessionConfig struct {
	CookieName string `koanf:"cookie_name"`
	Cookie     string `koanf:"cookie"`
}

// StubConfig holds configuration for the local CRM API stub.
type StubConfig struct {
	Port           int      `koanf:"port"`
	Database       string   `koanf:"database"` // empty keeps everything in memory
	SeedFile       string   `koanf:"seed_file"`
	Watch          bool     `koanf:"watch"`
	SessionSecret  string   `koanf:"session_secret"`
	AllowedOrigins []string `koanf:"allowed_origins"`
	SecureCookies  bool     `koanf:"secure_cookies"`
}

// Config holds all CLI configuration options.
type Config struct {
	APIURL       string        `koanf:"api_url"`
	Session      SessionConfig `koanf:"session"`
	Timeout      time.Duration `koanf:"timeout"`
	Verbose      bool          `koanf:"verbose"`
	OutputFormat string        `koanf:"output"`
	LogFormat    string        `koanf:"log_format"`
	LogFile      string        `koanf:"log_file"`
	Stub         StubConfig    `koanf:"stub"`
}

// Default configuration values.
const (
	DefaultCookieName = "connect.sid"
	DefaultTimeout    = 30 * time.Second
	DefaultOutput     = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultLogFormat  = "text"
	DefaultStubPort   = 8080
	EnvPrefix         = "XENOCRM_"
)

// configFileNames are looked up in the working directory, then in ~/.xenocrm.
var configFileNames = []string{"xenocrm.yaml", "xenocrm.yml"}
