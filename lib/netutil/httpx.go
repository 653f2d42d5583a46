// Copyright 2026 The StealthIM Go Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil provides bounded HTTP body reads for the SDK.
//
// ReadResponse and ErrorBody bound whole-body reads of JSON API
// responses. NewFrameScanner bounds individual frames of the
// server-sent message stream, which is read incrementally and never
// buffered whole.
package netutil

import (
	"bufio"
	"io"
)

// MaxResponseSize bounds JSON API response body reads: 32 MB. Chat API
// responses are orders of magnitude smaller; the limit only stops a
// misbehaving server from exhausting memory.
const MaxResponseSize int64 = 32 << 20

// MaxErrorBodySize bounds how much of a failed response is kept for
// the error message.
const MaxErrorBodySize int64 = 4 << 10

// MaxFrameSize bounds a single line of the message stream.
const MaxFrameSize = 4 << 20

// ReadResponse reads a JSON API response body up to MaxResponseSize
// bytes. Use instead of io.ReadAll when reading HTTP response bodies.
func ReadResponse(body io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(body, MaxResponseSize))
}

// ErrorBody reads up to MaxErrorBodySize bytes of an error response
// for diagnostics. Read errors are ignored; a partial body is still
// useful in an error message.
func ErrorBody(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, MaxErrorBodySize))
	return string(data)
}

// NewFrameScanner returns a line scanner over a streaming body whose
// lines may be up to MaxFrameSize bytes.
func NewFrameScanner(body io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64<<10), MaxFrameSize)
	return scanner
}
