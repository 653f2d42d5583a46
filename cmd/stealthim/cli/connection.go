// Copyright 2026 The StealthIM Go Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/stealthim/stealthim-go/lib/config"
	"github.com/stealthim/stealthim-go/lib/logging"
	"github.com/stealthim/stealthim-go/messaging"
)

// ConnectionConfig carries the flags shared by every command that talks
// to a server. Embed it in a params struct; [BindFlags] registers its
// flags through AddFlags.
type ConnectionConfig struct {
	ConfigFile string
	ServerURL  string
	LogLevel   string
	LogFormat  string

	// Streaming disables the per-request HTTP timeout. Set by commands
	// that hold a message stream open; not a flag.
	Streaming bool
}

// AddFlags registers --config, --server, --log-level and --log-format.
func (c *ConnectionConfig) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&c.ConfigFile, "config", "", "configuration file (default $"+config.EnvironmentVariable+")")
	flagSet.StringVar(&c.ServerURL, "server", "", "server base URL, overriding server.url")
	flagSet.StringVar(&c.LogLevel, "log-level", "", "log level: debug, info, warn, error")
	flagSet.StringVar(&c.LogFormat, "log-format", "", "log format: auto, tint, text, json")
}

// Config resolves the configuration file and applies flag overrides.
func (c *ConnectionConfig) Config() (*config.Config, error) {
	cfg, err := config.Resolve(c.ConfigFile)
	if err != nil {
		return nil, Validation("loading configuration: %w", err)
	}
	if c.ServerURL != "" {
		cfg.Server.URL = c.ServerURL
	}
	if c.LogLevel != "" {
		cfg.Log.Level = c.LogLevel
	}
	if c.LogFormat != "" {
		cfg.Log.Format = c.LogFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, Validation("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Connection is a configured server handle for one command invocation.
type Connection struct {
	Config *config.Config
	Logger *slog.Logger
	Server *messaging.Server
}

// Close releases idle HTTP connections.
func (c *Connection) Close() {
	c.Server.CloseIdleConnections()
}

// Connect builds a server handle from the configuration. A server URL
// is required, from --server or server.url.
func (c *ConnectionConfig) Connect() (*Connection, error) {
	cfg, err := c.Config()
	if err != nil {
		return nil, err
	}
	if cfg.Server.URL == "" {
		return nil, Validation("no server configured (pass --server or set server.url)")
	}
	return c.connect(cfg, cfg.Server.URL)
}

// Resume loads the saved session and returns a connection to the
// server it was created on, with the session's user. --server
// overrides the saved server. The caller closes both.
func (c *ConnectionConfig) Resume() (*Connection, *messaging.User, error) {
	cfg, err := c.Config()
	if err != nil {
		return nil, nil, err
	}
	saved, err := LoadSession(cfg.Session.File, cfg.Session.IdentityFile)
	if err != nil {
		return nil, nil, err
	}

	serverURL := saved.Server
	if c.ServerURL != "" {
		serverURL = c.ServerURL
	}
	connection, err := c.connect(cfg, serverURL)
	if err != nil {
		return nil, nil, err
	}

	user, err := messaging.ResumeUser(connection.Server, saved.Username, saved.Token)
	if err != nil {
		connection.Close()
		return nil, nil, Internal("resuming session: %w", err)
	}
	return connection, user, nil
}

func (c *ConnectionConfig) connect(cfg *config.Config, serverURL string) (*Connection, error) {
	logger, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		return nil, Validation("configuring logging: %w", err)
	}

	timeout := cfg.Server.Timeout
	if c.Streaming {
		timeout = 0
	}
	retry := RetryPolicy(cfg.Retry)

	server, err := messaging.NewServer(messaging.ServerConfig{
		URL:        serverURL,
		HTTPClient: &http.Client{Timeout: timeout},
		Logger:     logger,
		Retry:      &retry,
	})
	if err != nil {
		return nil, Validation("%w", err)
	}
	return &Connection{Config: cfg, Logger: logger, Server: server}, nil
}

// RetryPolicy converts the retry section of the configuration.
func RetryPolicy(retry config.RetryConfig) messaging.RetryPolicy {
	return messaging.RetryPolicy{
		MaxRetries: retry.MaxRetries,
		Delay:      retry.Delay,
		MaxDelay:   retry.MaxDelay,
	}
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
