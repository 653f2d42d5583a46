// Copyright 2026 The StealthIM Go Authors
// SPDX-License-Identifier: Apache-2.0

// Package message implements "stealthim message": sending messages to a
// group and streaming the messages of a group to the terminal.
package message

import (
	"github.com/stealthim/stealthim-go/cmd/stealthim/cli"
)

// Command returns the "message" command group.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "message",
		Summary: "Send and receive group messages",
		Description: `Send messages to a group and stream a group's messages. Both act as the
user of the saved session (see "stealthim login").`,
		Subcommands: []*cli.Command{
			sendCommand(),
			receiveCommand(),
		},
		Examples: []cli.Example{
			{Description: "Say hello in group 42", Command: "stealthim message send 42 'hello'"},
			{Description: "Follow group 42", Command: "stealthim message receive 42"},
		},
	}
}
