// Copyright 2026 The StealthIM Go Authors
// SPDX-License-Identifier: Apache-2.0

// Package secret holds session tokens and account passwords in memory
// outside the Go heap.
//
// [Buffer] is backed by an anonymous mmap region that is locked into
// RAM (mlock) and excluded from core dumps (MADV_DONTDUMP). Close
// zeroes, unlocks, and unmaps it. The SDK stores every issued session
// token in a Buffer and accepts passwords as Buffers, converting to a
// string only at the JSON serialization boundary of a single request.
//
// Constructors:
//
//   - [New] -- zero-filled buffer of a given size
//   - [NewFromBytes] -- copies into protected memory, zeroes the source
//   - [NewFromString] -- convenience for values that already live on the heap
//   - [ReadFromPath] -- password files, size-capped, and stdin ("-")
//   - [ReadLine] -- first line of piped input
//
// Depends on golang.org/x/sys/unix.
package secret
