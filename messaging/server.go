// Copyright 2026 The StealthIM Go Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/stealthim/stealthim-go/lib/clock"
)

// ServerConfig holds configuration for creating a Server.
type ServerConfig struct {
	// URL is the base URL of the StealthIM server (e.g.,
	// "https://stim.example.com"). Request paths are appended to it.
	URL string
	// HTTPClient is used for all requests. If nil, http.DefaultClient is used.
	HTTPClient *http.Client
	// Logger is used for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
	// Retry bounds retries of transient result codes. If nil,
	// DefaultRetryPolicy() is used.
	Retry *RetryPolicy
	// Clock drives retry back-off. If nil, the real clock is used.
	Clock clock.Clock
	// Registerer receives the client metrics. If nil, no metrics are
	// collected.
	Registerer prometheus.Registerer
}

// Server is a StealthIM server endpoint. It holds the base URL and the
// HTTP transport shared by every User and Group created from it.
type Server struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	retry      RetryPolicy
	clock      clock.Clock
	metrics    *metrics
}

// NewServer validates config and returns a Server.
func NewServer(config ServerConfig) (*Server, error) {
	if config.URL == "" {
		return nil, fmt.Errorf("messaging: server URL is required")
	}

	// Request URLs are built by concatenating the trimmed base URL with
	// the request path, so the base may carry a path prefix.
	parsed, err := url.Parse(config.URL)
	if err != nil {
		return nil, fmt.Errorf("messaging: invalid server URL %q: %w", config.URL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("messaging: server URL %q must use http or https", config.URL)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("messaging: server URL %q has no host", config.URL)
	}

	retry := DefaultRetryPolicy()
	if config.Retry != nil {
		if err := config.Retry.Validate(); err != nil {
			return nil, fmt.Errorf("messaging: invalid retry policy: %w", err)
		}
		retry = *config.Retry
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	serverClock := config.Clock
	if serverClock == nil {
		serverClock = clock.Real()
	}

	var serverMetrics *metrics
	if config.Registerer != nil {
		serverMetrics, err = newMetrics(config.Registerer)
		if err != nil {
			return nil, err
		}
	}

	return &Server{
		baseURL:    strings.TrimRight(config.URL, "/"),
		httpClient: httpClient,
		logger:     logger,
		retry:      retry,
		clock:      serverClock,
		metrics:    serverMetrics,
	}, nil
}

// URL returns the base URL without a trailing slash.
func (s *Server) URL() string {
	return s.baseURL
}

// RetryPolicy returns the policy applied to requests that do not carry
// their own.
func (s *Server) RetryPolicy() RetryPolicy {
	return s.retry
}

// CloseIdleConnections closes idle connections in the underlying
// transport's pool.
func (s *Server) CloseIdleConnections() {
	s.httpClient.CloseIdleConnections()
}

// Ping checks that the server is reachable and answering with a
// success result. Unauthenticated.
func (s *Server) Ping(ctx context.Context) error {
	_, err := call[PingResult](ctx, s, Request{
		Operation: "ping",
		Method:    http.MethodGet,
		Path:      "/api/v1/ping",
	})
	return err
}
