// Copyright 2026 The StealthIM Go Authors
// SPDX-License-Identifier: Apache-2.0

// Package sealed encrypts the CLI's saved session with age.
//
// A saved session contains a live session token. When the operator
// configures age recipients, the CLI seals the encoded session to
// those recipients before writing it, and opens it with an identity
// file on every later command.
//
// Key exports:
//
//   - [GenerateKeypair] -- new x25519 keypair, private key in a secret.Buffer
//   - [Encrypt] -- encrypt to one or more age1... recipients
//   - [Decrypt] -- decrypt with an AGE-SECRET-KEY-1... identity
//   - [ParsePublicKey] -- recipient validation for config loading
//
// Ciphertext is the binary age format; callers write it to disk as is.
package sealed
