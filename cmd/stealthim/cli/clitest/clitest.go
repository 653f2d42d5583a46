// Copyright 2026 The StealthIM Go Authors
// SPDX-License-Identifier: Apache-2.0

// Package clitest holds helpers for testing stealthim commands: a stub
// server that records requests, a configuration file pointing at it,
// and stdout capture.
package clitest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stealthim/stealthim-go/cmd/stealthim/cli"
)

// Token is the session token stored by [Env.SaveSession].
const Token = "clitest-session-token"

// Request is one request seen by the stub.
type Request struct {
	Method        string
	Path          string
	Query         string
	Authorization string
	Body          map[string]any
}

// Handler answers a stub request with a result code and extra
// top-level response fields.
type Handler func(request Request) (code int, fields map[string]any)

// Env is a stub server plus a configuration file pointing at it.
type Env struct {
	t           *testing.T
	server      *httptest.Server
	mux         *http.ServeMux
	ConfigPath  string
	SessionPath string

	mu       sync.Mutex
	requests []Request
}

// New starts a stub server and writes a configuration whose session
// file lives in a temporary directory. Retries are disabled and logging
// is limited to errors.
func New(t *testing.T) *Env {
	t.Helper()

	env := &Env{t: t, mux: http.NewServeMux()}
	env.server = httptest.NewServer(env.mux)
	t.Cleanup(env.server.Close)

	directory := t.TempDir()
	env.SessionPath = filepath.Join(directory, "session")
	env.ConfigPath = filepath.Join(directory, "stealthim.yaml")
	contents := "server:\n  url: " + env.server.URL + "\n" +
		"retry:\n  max_retries: 0\n" +
		"log:\n  level: error\n  format: json\n" +
		"session:\n  file: " + env.SessionPath + "\n"
	if err := os.WriteFile(env.ConfigPath, []byte(contents), 0o600); err != nil {
		t.Fatalf("writing configuration: %v", err)
	}
	return env
}

// URL returns the stub server's base URL.
func (e *Env) URL() string {
	return e.server.URL
}

// Handle registers handler for a ServeMux pattern such as
// "POST /api/v1/group".
func (e *Env) Handle(pattern string, handler Handler) {
	e.mux.HandleFunc(pattern, func(writer http.ResponseWriter, httpRequest *http.Request) {
		request := Request{
			Method:        httpRequest.Method,
			Path:          httpRequest.URL.Path,
			Query:         httpRequest.URL.RawQuery,
			Authorization: httpRequest.Header.Get("Authorization"),
		}
		if body, err := io.ReadAll(httpRequest.Body); err == nil && len(body) > 0 {
			if err := json.Unmarshal(body, &request.Body); err != nil {
				e.t.Errorf("stub: %s %s: body is not a JSON object: %v", request.Method, request.Path, err)
			}
		}

		e.mu.Lock()
		e.requests = append(e.requests, request)
		e.mu.Unlock()

		code, fields := handler(request)
		WriteResult(writer, code, fields)
	})
}

// HandleRaw registers a plain http.Handler, for streaming endpoints.
func (e *Env) HandleRaw(pattern string, handler http.HandlerFunc) {
	e.mux.HandleFunc(pattern, handler)
}

// Requests returns the requests recorded so far.
func (e *Env) Requests() []Request {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Request(nil), e.requests...)
}

// SaveSession writes a session for username on the stub server.
func (e *Env) SaveSession(username string) {
	e.t.Helper()
	err := cli.SaveSession(e.SessionPath, &cli.SavedSession{
		Server:   e.server.URL,
		Username: username,
		Token:    Token,
		SavedAt:  time.Now().UTC(),
	}, nil)
	if err != nil {
		e.t.Fatalf("saving session: %v", err)
	}
}

// Args prefixes args with --config pointing at the environment.
func (e *Env) Args(args ...string) []string {
	return append([]string{"--config", e.ConfigPath}, args...)
}

// WriteResult writes a response carrying result code and fields.
func WriteResult(writer http.ResponseWriter, code int, fields map[string]any) {
	body := map[string]any{"result": map[string]any{"code": code, "msg": ""}}
	for key, value := range fields {
		body[key] = value
	}
	writer.Header().Set("Content-Type", "application/json")
	json.NewEncoder(writer).Encode(body)
}

// Success answers with code 800 and fields.
func Success(fields map[string]any) Handler {
	return func(Request) (int, map[string]any) {
		return 800, fields
	}
}

// CaptureStdout runs fn with os.Stdout redirected and returns what it
// wrote. Tests using it must not run in parallel.
func CaptureStdout(t *testing.T, fn func()) string {
	t.Helper()

	original := os.Stdout
	reader, writer, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = writer

	var buffer bytes.Buffer
	done := make(chan struct{})
	go func() {
		io.Copy(&buffer, reader)
		close(done)
	}()

	func() {
		defer func() {
			os.Stdout = original
			writer.Close()
		}()
		fn()
	}()
	<-done
	reader.Close()

	return buffer.String()
}
