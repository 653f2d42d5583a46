// Copyright 2026 The StealthIM Go Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/stealthim/stealthim-go/lib/logging"
	"github.com/stealthim/stealthim-go/lib/sealed"
)

// EnvironmentVariable names the config file when --config is not given.
const EnvironmentVariable = "STEALTHIM_CONFIG"

// maxRetriesLimit caps retry.max_retries.
const maxRetriesLimit = 100

// Config is the stealthim command configuration.
type Config struct {
	Server  ServerConfig   `yaml:"server"`
	Account AccountConfig  `yaml:"account"`
	Retry   RetryConfig    `yaml:"retry"`
	Log     logging.Config `yaml:"log"`
	Session SessionConfig  `yaml:"session"`
}

// ServerConfig identifies the StealthIM server.
type ServerConfig struct {
	// URL is the server base URL, e.g. https://stim.example.com.
	URL string `yaml:"url"`

	// Timeout bounds each HTTP request. Zero disables the client-side
	// timeout (message streams run until cancelled either way).
	Timeout time.Duration `yaml:"timeout"`
}

// AccountConfig holds login defaults.
type AccountConfig struct {
	Username string `yaml:"username"`

	// PasswordFile is read with secret.ReadFromPath; "-" reads stdin.
	// Empty means prompt on the terminal.
	PasswordFile string `yaml:"password_file"`
}

// RetryConfig bounds retries of transient (900-999) result codes.
type RetryConfig struct {
	MaxRetries int           `yaml:"max_retries"`
	Delay      time.Duration `yaml:"delay"`
	MaxDelay   time.Duration `yaml:"max_delay"`
}

// SessionConfig controls where the CLI keeps the session token.
type SessionConfig struct {
	// File is the saved session path.
	File string `yaml:"file"`

	// Recipients are age public keys. When set, the session file is
	// sealed to them and IdentityFile is required to open it.
	Recipients []string `yaml:"recipients"`

	// IdentityFile holds the AGE-SECRET-KEY-1... identity.
	IdentityFile string `yaml:"identity_file"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Timeout: 30 * time.Second,
		},
		Retry: RetryConfig{
			MaxRetries: 3,
			Delay:      250 * time.Millisecond,
			MaxDelay:   2 * time.Second,
		},
		Log: logging.Config{
			Level:  "info",
			Format: logging.FormatAuto,
		},
		Session: SessionConfig{
			File: filepath.Join(xdg.StateHome, "stealthim", "session"),
		},
	}
}

// Resolve loads path if non-empty, else the file named by
// STEALTHIM_CONFIG, else returns Default.
func Resolve(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvironmentVariable)
	}
	if path == "" {
		cfg := Default()
		cfg.expandVariables()
		return cfg, nil
	}
	return LoadFile(path)
}

// Load loads the file named by STEALTHIM_CONFIG. Fails if unset.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your stealthim.yaml, or use --config", EnvironmentVariable)
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from path over Default.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.expandVariables()
	return cfg, nil
}

func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME":            os.Getenv("HOME"),
		"XDG_STATE_HOME":  xdg.StateHome,
		"XDG_CONFIG_HOME": xdg.ConfigHome,
	}
	c.Account.PasswordFile = expandVars(c.Account.PasswordFile, vars)
	c.Session.File = expandVars(c.Session.File, vars)
	c.Session.IdentityFile = expandVars(c.Session.IdentityFile, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default}, preferring vars over
// the process environment.
func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors. A missing server URL
// is not an error here; commands that talk to the server check it.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.URL != "" {
		parsed, err := url.Parse(c.Server.URL)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("server.url: %w", err))
		case parsed.Scheme != "http" && parsed.Scheme != "https":
			errs = append(errs, fmt.Errorf("server.url must be http or https, got %q", c.Server.URL))
		case parsed.Host == "":
			errs = append(errs, fmt.Errorf("server.url has no host: %q", c.Server.URL))
		}
	}
	if c.Server.Timeout < 0 {
		errs = append(errs, fmt.Errorf("server.timeout must not be negative"))
	}

	if c.Retry.MaxRetries < 0 || c.Retry.MaxRetries > maxRetriesLimit {
		errs = append(errs, fmt.Errorf("retry.max_retries must be between 0 and %d, got %d", maxRetriesLimit, c.Retry.MaxRetries))
	}
	if c.Retry.Delay < 0 {
		errs = append(errs, fmt.Errorf("retry.delay must not be negative"))
	}
	if c.Retry.MaxDelay != 0 && c.Retry.MaxDelay < c.Retry.Delay {
		errs = append(errs, fmt.Errorf("retry.max_delay (%s) is below retry.delay (%s)", c.Retry.MaxDelay, c.Retry.Delay))
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch c.Log.Format {
	case "", logging.FormatAuto, logging.FormatTint, logging.FormatText, logging.FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("log.format must be one of auto, tint, text, json; got %q", c.Log.Format))
	}

	if c.Session.File == "" {
		errs = append(errs, fmt.Errorf("session.file is required"))
	}
	for _, recipient := range c.Session.Recipients {
		if err := sealed.ParsePublicKey(recipient); err != nil {
			errs = append(errs, fmt.Errorf("session.recipients: %w", err))
		}
	}
	if len(c.Session.Recipients) > 0 && c.Session.IdentityFile == "" {
		errs = append(errs, fmt.Errorf("session.identity_file is required when session.recipients is set"))
	}

	return errors.Join(errs...)
}
