// Copyright 2026 The StealthIM Go Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/stealthim/stealthim-go/messaging"
)

// ErrorCategory classifies command failures for the exit code.
type ErrorCategory string

const (
	// CategoryValidation: bad flags or arguments. Fix the input.
	CategoryValidation ErrorCategory = "validation"

	// CategoryRejected: the server answered with a definitive failure
	// code (wrong password, permission denied, ...).
	CategoryRejected ErrorCategory = "rejected"

	// CategoryTransient: the server stayed busy through every retry, or
	// the network failed. Trying again later may work.
	CategoryTransient ErrorCategory = "transient"

	// CategoryInternal: anything else, including malformed responses and
	// local I/O errors.
	CategoryInternal ErrorCategory = "internal"
)

// Exit codes per category. 75 is EX_TEMPFAIL from sysexits.h.
var categoryExitCodes = map[ErrorCategory]int{
	CategoryValidation: 2,
	CategoryRejected:   3,
	CategoryTransient:  75,
	CategoryInternal:   1,
}

// CommandError is a categorized command failure wrapping the cause.
type CommandError struct {
	Category ErrorCategory
	Err      error
}

func (e *CommandError) Error() string { return e.Err.Error() }

func (e *CommandError) Unwrap() error { return e.Err }

// ExitCode returns the process exit code for the category.
func (e *CommandError) ExitCode() int {
	if code, ok := categoryExitCodes[e.Category]; ok {
		return code
	}
	return 1
}

// Validation creates a validation error.
func Validation(format string, args ...any) *CommandError {
	return &CommandError{Category: CategoryValidation, Err: fmt.Errorf(format, args...)}
}

// Internal creates an internal error.
func Internal(format string, args ...any) *CommandError {
	return &CommandError{Category: CategoryInternal, Err: fmt.Errorf(format, args...)}
}

// Classify wraps err in a CommandError according to what went wrong.
// Errors that already carry a category, and ExitErrors, are returned
// unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	var commandErr *CommandError
	if errors.As(err, &commandErr) {
		return err
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}

	var (
		resultErr    *messaging.ResultError
		exhaustedErr *messaging.RetryExhaustedError
		transportErr *messaging.TransportError
		schemaErr    *messaging.SchemaError
		netErr       net.Error
	)
	category := CategoryInternal
	switch {
	case errors.As(err, &resultErr):
		category = CategoryRejected
	case errors.As(err, &exhaustedErr):
		category = CategoryTransient
	case errors.As(err, &transportErr):
		category = CategoryInternal
		if transportErr.StatusCode >= 500 {
			category = CategoryTransient
		}
	case errors.As(err, &schemaErr), errors.Is(err, context.Canceled):
		category = CategoryInternal
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr):
		category = CategoryTransient
	}
	return &CommandError{Category: category, Err: err}
}

// ExitError signals a non-zero exit without printing an error message;
// the command has already written its own output.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode returns the exit code.
func (e *ExitError) ExitCode() int {
	return e.Code
}

// ExitCode returns the process exit code for err: 0 for nil, the
// error's own code when it has one, and 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var coder interface{ ExitCode() int }
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return 1
}
