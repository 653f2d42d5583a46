// Copyright 2026 The StealthIM Go Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReadFromPath_File(t *testing.T) {
	tempDir := t.TempDir()

	tests := []struct {
		name     string
		content  string
		expected string
	}{
		{name: "plain", content: "pw123", expected: "pw123"},
		{name: "trailing newline", content: "pw123\n", expected: "pw123"},
		{name: "surrounding whitespace", content: "  pw123 \n", expected: "pw123"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			path := filepath.Join(tempDir, test.name)
			if err := os.WriteFile(path, []byte(test.content), 0o600); err != nil {
				t.Fatalf("writing test file: %v", err)
			}

			result, err := ReadFromPath(path)
			if err != nil {
				t.Fatalf("ReadFromPath() error: %v", err)
			}
			defer result.Close()
			if result.String() != test.expected {
				t.Errorf("ReadFromPath() = %q, want %q", result.String(), test.expected)
			}
		})
	}
}

func TestReadFromPath_Errors(t *testing.T) {
	tempDir := t.TempDir()

	if _, err := ReadFromPath(filepath.Join(tempDir, "missing")); err == nil {
		t.Error("expected error for missing file")
	}

	blank := filepath.Join(tempDir, "blank")
	if err := os.WriteFile(blank, []byte(" \n\t"), 0o600); err != nil {
		t.Fatalf("writing test file: %v", err)
	}
	if _, err := ReadFromPath(blank); err == nil {
		t.Error("expected error for whitespace-only file")
	}
}

func TestReadFromPath_TooLarge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "huge")
	if err := os.WriteFile(path, bytes.Repeat([]byte("x"), MaxFileSize+1), 0o600); err != nil {
		t.Fatalf("writing test file: %v", err)
	}
	if _, err := ReadFromPath(path); err == nil {
		t.Error("expected error for a file over MaxFileSize")
	}
}

func TestReadLine(t *testing.T) {
	result, err := ReadLine(strings.NewReader("  hunter2  \nsecond line\n"))
	if err != nil {
		t.Fatalf("ReadLine() error: %v", err)
	}
	defer result.Close()
	if result.String() != "hunter2" {
		t.Errorf("ReadLine() = %q, want %q", result.String(), "hunter2")
	}

	if _, err := ReadLine(strings.NewReader("")); err == nil {
		t.Error("expected error for empty input")
	}
	if _, err := ReadLine(strings.NewReader("   \n")); err == nil {
		t.Error("expected error for blank line")
	}
}
