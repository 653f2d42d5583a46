// Copyright 2026 The StealthIM Go Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the CBOR encoding used for local state.
//
// The SDK speaks JSON to the server. Local state written by the CLI
// (the saved session file) is CBOR with Core Deterministic Encoding
// (RFC 8949 §4.2): sorted map keys, smallest integer encoding, no
// indefinite-length items, so the same session always produces the
// same bytes.
//
// Types carrying a `json` tag serialize identically in both formats;
// fxamacker/cbor reads `json` tags when no `cbor` tag is present.
package codec
