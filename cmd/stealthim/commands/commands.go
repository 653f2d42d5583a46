// Copyright 2026 The StealthIM Go Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the stealthim command tree.
package commands

import (
	"fmt"

	"github.com/stealthim/stealthim-go/cmd/stealthim/account"
	"github.com/stealthim/stealthim-go/cmd/stealthim/cli"
	groupcmd "github.com/stealthim/stealthim-go/cmd/stealthim/group"
	messagecmd "github.com/stealthim/stealthim-go/cmd/stealthim/message"
	"github.com/stealthim/stealthim-go/lib/version"
)

// Root returns the complete stealthim command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "stealthim",
		Description: `stealthim: command-line client for StealthIM chat servers.

Log in once with "stealthim login"; the session is saved locally and
used by the group and message commands. Configuration is read from
--config or $STEALTHIM_CONFIG.`,
		Subcommands: []*cli.Command{
			account.PingCommand(),
			account.RegisterCommand(),
			account.LoginCommand(),
			account.LogoutCommand(),
			account.WhoAmICommand(),
			account.KeygenCommand(),
			groupcmd.Command(),
			messagecmd.Command(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(args []string) error {
					fmt.Printf("stealthim %s\n", version.Full())
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{Description: "Log in and follow a group", Command: "stealthim login --server https://stim.example.com alice && stealthim message receive 42"},
		},
	}
}
