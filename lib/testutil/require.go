// Copyright 2026 The StealthIM Go Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import "time"

// TestingT is the subset of testing.TB the helpers use.
type TestingT interface {
	Helper()
	Fatalf(format string, args ...any)
}

// RequireReceive returns the next value from ch. The test fails if ch is
// closed first or nothing arrives within timeout; what names the awaited
// event in the failure.
//
//	err := testutil.RequireReceive(t, done, 5*time.Second, "waiting for Do")
func RequireReceive[T any](t TestingT, ch <-chan T, timeout time.Duration, what string) T {
	t.Helper()
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case value, ok := <-ch:
		if !ok {
			t.Fatalf("%s: channel closed before a value arrived", describe(what))
		}
		return value
	case <-timer.C:
		t.Fatalf("%s: timed out after %v", describe(what), timeout)
	}
	var zero T
	return zero
}

// RequireClosed fails the test unless ch is closed (or delivers) within
// timeout.
func RequireClosed(t TestingT, ch <-chan struct{}, timeout time.Duration, what string) {
	t.Helper()
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ch:
	case <-timer.C:
		t.Fatalf("%s: channel still open after %v", describe(what), timeout)
	}
}

func describe(what string) string {
	if what == "" {
		return "channel wait"
	}
	return what
}
