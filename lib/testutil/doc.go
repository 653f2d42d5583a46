// Copyright 2026 The StealthIM Go Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers.
//
// [RequireReceive] and [RequireClosed] wrap the select-with-timeout
// safety valve so tests that hand values between goroutines (message
// stream consumers, fake servers) never hang. [UniqueID] produces
// distinguishable message bodies and names for tests that share a
// fake server.
//
// All helpers call t.Fatalf on failure.
package testutil
