// Copyright 2026 The StealthIM Go Authors
// SPDX-License-Identifier: Apache-2.0

// Package messaging is a client for the StealthIM chat service.
//
// A [Server] holds the base URL, the HTTP client, the retry policy and
// the logger. [Login] authenticates against a Server and returns a
// [User] holding the session token in mmap-backed memory (see
// lib/secret). A [Group] is bound to a User and a numeric group ID and
// is obtained with [CreateGroup] or [JoinGroup]:
//
//	server, err := messaging.NewServer(messaging.ServerConfig{URL: "https://stim.example.com"})
//	user, err := messaging.Login(ctx, server, "alice", password)
//	defer user.Close()
//	group, err := messaging.CreateGroup(ctx, user, "friends")
//	_, err = group.SendText(ctx, "hello")
//	for message, err := range group.ReceiveText(ctx) {
//	    ...
//	}
//
// Every response carries a result object with a domain code distinct
// from the HTTP status. [CodeSuccess] (800) means the operation
// succeeded. Codes in the transient band [CodeTransientMin,
// CodeTransientMax] make the transport re-issue the identical request,
// at most RetryPolicy.MaxRetries extra times. Any other code fails the
// operation with a [*ResultError] carrying the server's message.
//
// Errors are typed so callers can branch with errors.As:
// [*TransportError] (HTTP status other than 200, never retried),
// [*ResultError], [*RetryExhaustedError] and [*SchemaError] (the body
// did not match the operation's result schema).
//
// Server, User and Group are immutable after construction and safe for
// concurrent use. Message streams are pull iterators owned by the
// goroutine ranging over them; breaking out of the loop closes the
// underlying response.
package messaging
