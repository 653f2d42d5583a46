// Copyright 2026 The StealthIM Go Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
)

// MaxFileSize bounds secrets read from files. Passwords, session tokens
// and age identity files are far smaller.
const MaxFileSize = 64 << 10

// ReadFromPath reads a secret from a file, or from the first line of
// stdin if path is "-". Surrounding whitespace is trimmed. Returns an
// error if nothing remains after trimming.
func ReadFromPath(path string) (*Buffer, error) {
	if path == "-" {
		return ReadLine(os.Stdin)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, MaxFileSize+1))
	if err != nil {
		Zero(data)
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(data) > MaxFileSize {
		Zero(data)
		return nil, fmt.Errorf("%s is larger than %d bytes", path, MaxFileSize)
	}
	return fromTrimmed(data)
}

// ReadLine reads the first line of r as a secret, for piped input.
func ReadLine(r io.Reader) (*Buffer, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 512), MaxFileSize)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("reading secret: %w", err)
		}
		return nil, fmt.Errorf("no input")
	}
	return fromTrimmed(scanner.Bytes())
}

// fromTrimmed protects the trimmed contents of data and zeroes data.
func fromTrimmed(data []byte) (*Buffer, error) {
	defer Zero(data)

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("secret is empty")
	}
	return NewFromBytes(trimmed)
}
