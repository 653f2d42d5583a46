// Copyright 2026 The StealthIM Go Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports the SDK and CLI version.
//
// [Version] is set by hand for releases and may be overridden with
// -ldflags -X. The commit and build time come from the VCS stamps the
// Go toolchain embeds in the binary ([Current]).
package version
