// Copyright 2026 The StealthIM Go Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for the stealthim
// command.
//
// The central type is [Command], a named subcommand with optional
// nested [Command.Subcommands], a [pflag.FlagSet] factory, and a Run
// function. [Command.Execute] handles flag parsing, subcommand routing,
// and help output with examples. Unknown subcommands and flags get a
// "did you mean" suggestion by Levenshtein distance.
//
// Parameter structs declare flags with struct tags and are bound by
// [FlagsFromParams]. Commands that talk to a server embed
// [ConnectionConfig], which adds --config, --server and the logging
// flags and turns them into a [messaging.Server] or a resumed
// [messaging.User].
//
// "stealthim login" stores the session token in a CBOR session file
// ([SaveSession]), optionally sealed with age to the recipients listed
// in the configuration. Later commands load it with [LoadSession].
//
// Errors returned by commands are classified by [Classify] into
// categories that map to process exit codes ([ExitCode]).
package cli
