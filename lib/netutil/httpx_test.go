// Copyright 2026 The StealthIM Go Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestReadResponse(t *testing.T) {
	t.Run("normal body", func(t *testing.T) {
		data, err := ReadResponse(bytes.NewReader([]byte(`{"result":{"code":800}}`)))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(data) != `{"result":{"code":800}}` {
			t.Fatalf("got %q", data)
		}
	})

	t.Run("read error propagates", func(t *testing.T) {
		if _, err := ReadResponse(&failReader{}); err == nil {
			t.Fatal("expected error from failing reader")
		}
	})
}

func TestErrorBody_Truncates(t *testing.T) {
	body := strings.Repeat("x", int(MaxErrorBodySize)+100)
	if got := ErrorBody(strings.NewReader(body)); int64(len(got)) != MaxErrorBodySize {
		t.Errorf("expected %d bytes, got %d", MaxErrorBodySize, len(got))
	}
	if got := ErrorBody(&failReader{}); got != "" {
		t.Errorf("expected empty body from failing reader, got %q", got)
	}
}

func TestNewFrameScanner_LongLine(t *testing.T) {
	line := "data: " + strings.Repeat("a", 200<<10)
	scanner := NewFrameScanner(strings.NewReader(line + "\n\nnext\n"))

	if !scanner.Scan() {
		t.Fatalf("first Scan failed: %v", scanner.Err())
	}
	if scanner.Text() != line {
		t.Errorf("long line was not returned intact (len %d)", len(scanner.Text()))
	}
	if !scanner.Scan() || scanner.Text() != "" {
		t.Fatalf("expected blank separator line")
	}
	if !scanner.Scan() || scanner.Text() != "next" {
		t.Fatalf("expected trailing line")
	}
}

type failReader struct{}

func (*failReader) Read([]byte) (int, error) {
	return 0, errors.New("read failed")
}
