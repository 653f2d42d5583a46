// Copyright 2026 The StealthIM Go Authors
// SPDX-License-Identifier: Apache-2.0

package group

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/stealthim/stealthim-go/cmd/stealthim/cli"
	"github.com/stealthim/stealthim-go/lib/secret"
	"github.com/stealthim/stealthim-go/messaging"
)

type groupResult struct {
	GroupID int64 `json:"group_id"`
}

func createCommand() *cli.Command {
	var params groupParams
	const usage = "stealthim group create [flags] <name>"

	return &cli.Command{
		Name:        "create",
		Summary:     "Create a group",
		Description: "Create a group owned by the current user and print its ID.",
		Usage:       usage,
		Flags:       func() *pflag.FlagSet { return cli.FlagsFromParams("create", &params) },
		Run: func(args []string) error {
			if err := cli.RequireArgs(args, 1, usage); err != nil {
				return err
			}

			connection, user, err := params.Resume()
			if err != nil {
				return err
			}
			defer connection.Close()
			defer user.Close()

			ctx, cancel := cli.SignalContext()
			defer cancel()

			group, err := messaging.CreateGroup(ctx, user, args[0])
			if err != nil {
				return err
			}

			if done, err := params.EmitJSON(groupResult{GroupID: group.ID()}); done {
				return err
			}
			fmt.Println(group.ID())
			return nil
		},
	}
}

type joinParams struct {
	cli.ConnectionConfig
	cli.JSONOutput
	PasswordFile string `json:"-" flag:"password-file" desc:"read the group password from this file (\"-\" for stdin)"`
}

func joinCommand() *cli.Command {
	var params joinParams
	const usage = "stealthim group join [flags] <group-id>"

	return &cli.Command{
		Name:    "join",
		Summary: "Join a group",
		Description: `Join a group by ID. Groups with a password need --password-file;
without it the join is attempted with an empty password.`,
		Usage: usage,
		Examples: []cli.Example{
			{Description: "Join an open group", Command: "stealthim group join 42"},
			{Description: "Join with a password from stdin", Command: "echo hunter2 | stealthim group join --password-file - 42"},
		},
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("join", &params) },
		Run: func(args []string) error {
			if err := cli.RequireArgs(args, 1, usage); err != nil {
				return err
			}
			groupID, err := ParseGroupID(args[0])
			if err != nil {
				return err
			}

			var password string
			if params.PasswordFile != "" {
				buffer, err := secret.ReadFromPath(params.PasswordFile)
				if err != nil {
					return cli.Validation("reading group password: %w", err)
				}
				password = buffer.String()
				buffer.Close()
			}

			connection, user, err := params.Resume()
			if err != nil {
				return err
			}
			defer connection.Close()
			defer user.Close()

			ctx, cancel := cli.SignalContext()
			defer cancel()

			group, err := messaging.JoinGroup(ctx, user, groupID, password)
			if err != nil {
				return err
			}

			if done, err := params.EmitJSON(groupResult{GroupID: group.ID()}); done {
				return err
			}
			fmt.Printf("Joined group %d\n", group.ID())
			return nil
		},
	}
}

func listCommand() *cli.Command {
	var params groupParams

	return &cli.Command{
		Name:        "list",
		Summary:     "List the groups you belong to",
		Description: "Print the IDs of the groups the current user belongs to, one per line.",
		Usage:       "stealthim group list [flags]",
		Flags:       func() *pflag.FlagSet { return cli.FlagsFromParams("list", &params) },
		Run: func(args []string) error {
			if err := cli.RequireArgs(args, 0, "stealthim group list [flags]"); err != nil {
				return err
			}

			connection, user, err := params.Resume()
			if err != nil {
				return err
			}
			defer connection.Close()
			defer user.Close()

			ctx, cancel := cli.SignalContext()
			defer cancel()

			groups, err := user.Groups(ctx)
			if err != nil {
				return err
			}

			if done, err := params.EmitJSON(groups); done {
				return err
			}
			for _, id := range groups {
				fmt.Println(id)
			}
			return nil
		},
	}
}
