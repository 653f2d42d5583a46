// Copyright 2026 The StealthIM Go Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/stealthim/stealthim-go/lib/logging"
)

func TestMetrics(t *testing.T) {
	var requests atomic.Int32
	httpServer := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		switch request.URL.Path {
		case "/api/v1/ping":
			if requests.Add(1) == 1 {
				writeResult(writer, 901, "busy", nil)
				return
			}
			writeResult(writer, CodeSuccess, "", nil)
		case "/api/v1/user":
			writeResult(writer, 1103, "not logged in", nil)
		case "/api/v1/message/1":
			writeEvent(writer, successFrame(Message{ID: 1}, Message{ID: 2}))
		default:
			http.NotFound(writer, request)
		}
	}))
	defer httpServer.Close()

	registry := prometheus.NewRegistry()
	server, err := NewServer(ServerConfig{
		URL:        httpServer.URL,
		Logger:     logging.Discard(),
		Retry:      &RetryPolicy{MaxRetries: 2},
		Registerer: registry,
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	ctx := context.Background()

	if err := server.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	user, err := ResumeUser(server, "alice", "tok")
	if err != nil {
		t.Fatalf("ResumeUser: %v", err)
	}
	defer user.Close()
	if _, err := user.Info(ctx); err == nil {
		t.Fatal("expected Info to fail")
	}
	if _, err := server.Do(ctx, Request{Operation: "missing", Path: "/nope"}); err == nil {
		t.Fatal("expected 404")
	}
	if _, err := collect(OpenGroup(user, 1).ReceiveText(ctx)); err != nil {
		t.Fatalf("ReceiveText: %v", err)
	}

	checks := []struct {
		name      string
		collector prometheus.Collector
		want      float64
	}{
		{"ping ok", server.metrics.requests.WithLabelValues("ping", OutcomeOK), 1},
		{"ping attempts", server.metrics.attempts.WithLabelValues("ping"), 2},
		{"ping retries", server.metrics.retries.WithLabelValues("ping"), 1},
		{"user info result error", server.metrics.requests.WithLabelValues("user info", OutcomeResultError), 1},
		{"missing http error", server.metrics.requests.WithLabelValues("missing", OutcomeHTTPError), 1},
		{"stream ok", server.metrics.requests.WithLabelValues("receive messages", OutcomeOK), 1},
		{"stream messages", server.metrics.streamMessages, 2},
	}
	for _, check := range checks {
		if got := promtestutil.ToFloat64(check.collector); got != check.want {
			t.Errorf("%s = %v, want %v", check.name, got, check.want)
		}
	}

	if count := promtestutil.CollectAndCount(server.metrics.duration); count != 4 {
		t.Errorf("expected duration series for 4 operations, got %d", count)
	}
}

func TestMetrics_SharedRegistry(t *testing.T) {
	registry := prometheus.NewRegistry()
	first, err := NewServer(ServerConfig{URL: "https://one.example.test", Registerer: registry})
	if err != nil {
		t.Fatalf("first NewServer: %v", err)
	}
	second, err := NewServer(ServerConfig{URL: "https://two.example.test", Registerer: registry})
	if err != nil {
		t.Fatalf("second NewServer: %v", err)
	}
	if first.metrics.requests != second.metrics.requests {
		t.Error("servers sharing a registry should share collectors")
	}
}

func TestMetrics_Disabled(t *testing.T) {
	server := newTestServer(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writeResult(writer, CodeSuccess, "", nil)
	}))
	if server.metrics != nil {
		t.Fatal("metrics should be nil without a Registerer")
	}
	if err := server.Ping(context.Background()); err != nil {
		t.Fatalf("Ping without metrics: %v", err)
	}
}
