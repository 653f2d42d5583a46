// Copyright 2026 The StealthIM Go Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/stealthim/stealthim-go/lib/netutil"
	"github.com/stealthim/stealthim-go/lib/secret"
	"github.com/stealthim/stealthim-go/lib/version"
)

// RequestIDHeader carries the identifier of one logical request. All
// retries of a request share it.
const RequestIDHeader = "X-Request-ID"

// Request describes one logical call to the server.
type Request struct {
	// Operation names the call in errors, logs and metrics. Defaults to
	// "<Method> <Path>".
	Operation string
	// Method is the HTTP method. Defaults to GET.
	Method string
	// Path is appended to the server's base URL and must begin with
	// "/", e.g. "/api/v1/ping".
	Path string
	// Query is encoded into the URL when non-nil.
	Query url.Values
	// Body is encoded as JSON when non-nil.
	Body any
	// Header holds extra request headers.
	Header http.Header
	// Session, when non-nil, is sent as a bearer token.
	Session *secret.Buffer
	// Retry overrides the server's retry policy for this request.
	Retry *RetryPolicy
}

func (r Request) method() string {
	if r.Method == "" {
		return http.MethodGet
	}
	return r.Method
}

func (r Request) operation() string {
	if r.Operation == "" {
		return r.method() + " " + r.Path
	}
	return r.Operation
}

// Do performs request and returns the decoded JSON response object. The
// returned map always contains the "result" object; its code is never
// in the transient band, since transient results are retried and turn
// into a *RetryExhaustedError once the budget is spent. Do does not
// judge the code otherwise: a definitive failure code is returned to
// the caller as data.
func (s *Server) Do(ctx context.Context, request Request) (map[string]any, error) {
	start := s.clock.Now()
	body, _, err := s.exchange(ctx, request)

	var decoded map[string]any
	if err == nil {
		if decodeErr := json.Unmarshal(body, &decoded); decodeErr != nil {
			err = &SchemaError{Operation: request.operation(), Reason: "response is not a JSON object", Err: decodeErr}
		}
	}

	s.metrics.observeRequest(request.operation(), outcomeOf(err), s.clock.Now().Sub(start))
	if err != nil {
		return nil, fmt.Errorf("messaging: %s: %w", request.operation(), err)
	}
	return decoded, nil
}

// call performs request, requires CodeSuccess, and decodes the body
// into T.
func call[T any](ctx context.Context, server *Server, request Request) (*T, error) {
	start := server.clock.Now()
	body, result, err := server.exchange(ctx, request)

	if err == nil && result.Code != CodeSuccess {
		err = &ResultError{Operation: request.operation(), Code: result.Code, Message: result.Message}
	}

	var response T
	if err == nil {
		if decodeErr := json.Unmarshal(body, &response); decodeErr != nil {
			err = &SchemaError{Operation: request.operation(), Reason: "decoding result fields", Err: decodeErr}
		}
	}

	server.metrics.observeRequest(request.operation(), outcomeOf(err), server.clock.Now().Sub(start))
	if err != nil {
		return nil, fmt.Errorf("messaging: %s: %w", request.operation(), err)
	}
	return &response, nil
}

// exchange runs the bounded retry loop. It returns the raw body and the
// decoded result of the first non-transient response.
func (s *Server) exchange(ctx context.Context, request Request) ([]byte, Result, error) {
	policy := s.retry
	if request.Retry != nil {
		if err := request.Retry.Validate(); err != nil {
			return nil, Result{}, fmt.Errorf("invalid retry policy: %w", err)
		}
		policy = *request.Retry
	}

	var encoded []byte
	if request.Body != nil {
		var err error
		encoded, err = json.Marshal(request.Body)
		if err != nil {
			return nil, Result{}, fmt.Errorf("encoding request body: %w", err)
		}
	}

	operation := request.operation()
	requestID := uuid.NewString()

	for attempt := 0; ; attempt++ {
		s.logger.Debug("stealthim request",
			"operation", operation,
			"method", request.method(),
			"path", request.Path,
			"request_id", requestID,
			"attempt", attempt+1,
		)
		s.metrics.observeAttempt(operation)

		body, result, err := s.attempt(ctx, request, encoded, requestID)
		if err != nil {
			return nil, Result{}, err
		}
		if !IsTransient(result.Code) {
			return body, result, nil
		}

		if attempt >= policy.MaxRetries {
			s.logger.Warn("stealthim request still transient, giving up",
				"operation", operation,
				"request_id", requestID,
				"attempts", attempt+1,
				"code", result.Code,
				"message", result.Message,
			)
			return nil, Result{}, &RetryExhaustedError{Operation: operation, Attempts: attempt + 1, Last: result}
		}

		delay := policy.backoff(attempt)
		s.logger.Warn("stealthim request transient, retrying",
			"operation", operation,
			"request_id", requestID,
			"attempt", attempt+1,
			"code", result.Code,
			"message", result.Message,
			"delay", delay,
		)
		s.metrics.observeRetry(operation)
		if err := sleep(ctx, s.clock, delay); err != nil {
			return nil, Result{}, fmt.Errorf("waiting to retry: %w", err)
		}
	}
}

// attempt issues one HTTP request and decodes its result object.
func (s *Server) attempt(ctx context.Context, request Request, encoded []byte, requestID string) ([]byte, Result, error) {
	httpRequest, err := s.newHTTPRequest(ctx, request, encoded, requestID)
	if err != nil {
		return nil, Result{}, err
	}

	response, err := s.httpClient.Do(httpRequest)
	if err != nil {
		return nil, Result{}, fmt.Errorf("%s %s: %w", request.method(), request.Path, err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, Result{}, &TransportError{
			Method:     request.method(),
			Path:       request.Path,
			StatusCode: response.StatusCode,
			Body:       netutil.ErrorBody(response.Body),
		}
	}

	body, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return nil, Result{}, fmt.Errorf("reading %s %s response: %w", request.method(), request.Path, err)
	}

	result, err := decodeResult(request.operation(), body)
	if err != nil {
		return nil, Result{}, err
	}
	return body, result, nil
}

// newHTTPRequest builds a fresh *http.Request. Each attempt gets its own
// body reader.
func (s *Server) newHTTPRequest(ctx context.Context, request Request, encoded []byte, requestID string) (*http.Request, error) {
	if !strings.HasPrefix(request.Path, "/") {
		return nil, fmt.Errorf("request path %q must begin with \"/\"", request.Path)
	}
	requestURL := s.baseURL + request.Path
	if request.Query != nil {
		requestURL += "?" + request.Query.Encode()
	}

	var bodyReader io.Reader
	if encoded != nil {
		bodyReader = bytes.NewReader(encoded)
	}

	httpRequest, err := http.NewRequestWithContext(ctx, request.method(), requestURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	for name, values := range request.Header {
		for _, value := range values {
			httpRequest.Header.Add(name, value)
		}
	}
	if encoded != nil {
		httpRequest.Header.Set("Content-Type", "application/json")
	}
	if httpRequest.Header.Get("Accept") == "" {
		httpRequest.Header.Set("Accept", "application/json")
	}
	if httpRequest.Header.Get("User-Agent") == "" {
		httpRequest.Header.Set("User-Agent", version.UserAgent())
	}
	if request.Session != nil {
		token, err := request.Session.Load()
		if errors.Is(err, secret.ErrClosed) {
			return nil, ErrUserClosed
		}
		if err != nil {
			return nil, err
		}
		httpRequest.Header.Set("Authorization", "Bearer "+token)
	}
	httpRequest.Header.Set(RequestIDHeader, requestID)
	return httpRequest, nil
}

// decodeResult extracts the result object from a response body.
func decodeResult(operation string, body []byte) (Result, error) {
	var envelope resultEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return Result{}, &SchemaError{Operation: operation, Reason: "response is not a JSON object", Err: err}
	}
	if envelope.Result == nil {
		return Result{}, &SchemaError{Operation: operation, Reason: "missing result object"}
	}
	return *envelope.Result, nil
}
