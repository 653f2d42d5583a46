// Copyright 2026 The StealthIM Go Authors
// SPDX-License-Identifier: Apache-2.0

// Package account implements the top-level account commands of the
// stealthim CLI: ping, register, login, logout, whoami and keygen.
//
// Login stores the session token in the session file named by the
// configuration (see [cli.SaveSession]). Every other command that acts
// as a user resumes that session. Keygen creates the age identity used
// to seal the session file.
package account
