// Copyright 2026 The StealthIM Go Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"errors"
	"fmt"
)

// TransportError is returned when the server answers with an HTTP
// status other than 200. It is never retried.
type TransportError struct {
	Method     string
	Path       string
	StatusCode int
	// Body is the start of the response body, for diagnostics.
	Body string
}

func (e *TransportError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: HTTP %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// ResultError is a definitive failure: the server answered with a
// result code other than the operation's success code and outside the
// transient band. Callers can use errors.As to extract it:
//
//	var resultErr *ResultError
//	if errors.As(err, &resultErr) {
//	    fmt.Println(resultErr.Code, resultErr.Message)
//	}
type ResultError struct {
	// Operation names the failed call, e.g. "create group".
	Operation string
	// Code is the domain result code.
	Code int
	// Message is the server's human-readable text.
	Message string
}

func (e *ResultError) Error() string {
	return fmt.Sprintf("code %d: %s", e.Code, e.Message)
}

// RetryExhaustedError is returned when every attempt of a request came
// back with a transient code.
type RetryExhaustedError struct {
	Operation string
	// Attempts is the number of requests issued (MaxRetries + 1).
	Attempts int
	// Last is the result of the final attempt.
	Last Result
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("still transient after %d attempts (code %d: %s)",
		e.Attempts, e.Last.Code, e.Last.Message)
}

// SchemaError is returned when a response body does not match the
// shape expected for the operation. It is distinct from a domain error:
// the server answered, but not in a form this client understands.
type SchemaError struct {
	Operation string
	Reason    string
	Err       error
}

func (e *SchemaError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed response: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed response: %s", e.Reason)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// ErrUserClosed is returned for requests made through a User (or one
// of its Groups) after User.Close.
var ErrUserClosed = errors.New("user is closed")

// IsResultCode checks whether err is a *ResultError with the given code.
func IsResultCode(err error, code int) bool {
	var resultErr *ResultError
	if errors.As(err, &resultErr) {
		return resultErr.Code == code
	}
	return false
}

// IsHTTPStatus checks whether err is a *TransportError with the given
// HTTP status.
func IsHTTPStatus(err error, status int) bool {
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return transportErr.StatusCode == status
	}
	return false
}
