// Copyright 2026 The StealthIM Go Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts the time operations the SDK performs so
// tests can control them. Production code injects [Real]; tests inject
// [Fake] and move time forward with [FakeClock.Advance].
//
// The messaging package waits between transient-code retries through a
// Clock, so back-off behavior is tested without sleeping.
package clock
