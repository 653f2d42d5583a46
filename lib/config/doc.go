// Copyright 2026 The StealthIM Go Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the YAML configuration file used by the
// stealthim command.
//
// The file is named by the --config flag or the STEALTHIM_CONFIG
// environment variable ([Resolve]). There is no directory search. When
// neither is set, [Default] applies and every value comes from flags.
// Environment variables never override individual values; the only
// expansion is ${VAR} and ${VAR:-default} in path fields.
//
// Sections:
//
//   - server: base URL and HTTP timeout
//   - account: username and password file for login/register
//   - retry: transient-code retry budget and back-off
//   - log: level and format (see lib/logging)
//   - session: saved session path, optional age recipients and identity
package config
