// Copyright 2026 The StealthIM Go Authors
// SPDX-License-Identifier: Apache-2.0

package group

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/stealthim/stealthim-go/cmd/stealthim/cli"
	"github.com/stealthim/stealthim-go/messaging"
)

type memberChange struct {
	GroupID  int64  `json:"group_id"`
	Username string `json:"username"`
	Role     string `json:"role,omitempty"`
}

func inviteCommand() *cli.Command {
	var params groupParams
	const usage = "stealthim group invite [flags] <group-id> <username>"

	return &cli.Command{
		Name:        "invite",
		Summary:     "Add a user to a group",
		Description: "Invite a user into a group. Requires manager or owner role.",
		Usage:       usage,
		Flags:       func() *pflag.FlagSet { return cli.FlagsFromParams("invite", &params) },
		Run: func(args []string) error {
			if err := cli.RequireArgs(args, 2, usage); err != nil {
				return err
			}
			username := args[1]
			return withGroup(&params.ConnectionConfig, args[0], func(ctx context.Context, group *messaging.Group) error {
				if _, err := group.Invite(ctx, username); err != nil {
					return err
				}
				result := memberChange{GroupID: group.ID(), Username: username}
				if done, err := params.EmitJSON(result); done {
					return err
				}
				fmt.Printf("Invited %s to group %d\n", username, group.ID())
				return nil
			})
		},
	}
}

func roleCommand() *cli.Command {
	var params groupParams
	const usage = "stealthim group role [flags] <group-id> <username> <member|manager|owner>"

	return &cli.Command{
		Name:    "role",
		Summary: "Set a member's role",
		Description: `Set the role of a group member to member, manager or owner. The server
decides who may grant which role.`,
		Usage: usage,
		Examples: []cli.Example{
			{Description: "Promote bob to manager", Command: "stealthim group role 42 bob manager"},
		},
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("role", &params) },
		Run: func(args []string) error {
			if err := cli.RequireArgs(args, 3, usage); err != nil {
				return err
			}
			username := args[1]
			role, err := messaging.ParseMemberRole(args[2])
			if err != nil {
				return cli.Validation("%w", err)
			}
			return withGroup(&params.ConnectionConfig, args[0], func(ctx context.Context, group *messaging.Group) error {
				if _, err := group.SetMemberRole(ctx, username, role); err != nil {
					return err
				}
				result := memberChange{GroupID: group.ID(), Username: username, Role: role.String()}
				if done, err := params.EmitJSON(result); done {
					return err
				}
				fmt.Printf("%s is now %s of group %d\n", username, role, group.ID())
				return nil
			})
		},
	}
}

func kickCommand() *cli.Command {
	var params groupParams
	const usage = "stealthim group kick [flags] <group-id> <username>"

	return &cli.Command{
		Name:        "kick",
		Summary:     "Remove a member from a group",
		Description: "Remove a member from a group. Requires manager or owner role.",
		Usage:       usage,
		Flags:       func() *pflag.FlagSet { return cli.FlagsFromParams("kick", &params) },
		Run: func(args []string) error {
			if err := cli.RequireArgs(args, 2, usage); err != nil {
				return err
			}
			username := args[1]
			return withGroup(&params.ConnectionConfig, args[0], func(ctx context.Context, group *messaging.Group) error {
				if _, err := group.Kick(ctx, username); err != nil {
					return err
				}
				result := memberChange{GroupID: group.ID(), Username: username}
				if done, err := params.EmitJSON(result); done {
					return err
				}
				fmt.Printf("Removed %s from group %d\n", username, group.ID())
				return nil
			})
		},
	}
}

type renameResult struct {
	GroupID int64  `json:"group_id"`
	Name    string `json:"name"`
}

func renameCommand() *cli.Command {
	var params groupParams
	const usage = "stealthim group rename [flags] <group-id> <name>"

	return &cli.Command{
		Name:        "rename",
		Summary:     "Change a group's name",
		Description: "Change the display name of a group.",
		Usage:       usage,
		Flags:       func() *pflag.FlagSet { return cli.FlagsFromParams("rename", &params) },
		Run: func(args []string) error {
			if err := cli.RequireArgs(args, 2, usage); err != nil {
				return err
			}
			name := args[1]
			return withGroup(&params.ConnectionConfig, args[0], func(ctx context.Context, group *messaging.Group) error {
				if _, err := group.ChangeName(ctx, name); err != nil {
					return err
				}
				if done, err := params.EmitJSON(renameResult{GroupID: group.ID(), Name: name}); done {
					return err
				}
				fmt.Printf("Renamed group %d to %q\n", group.ID(), name)
				return nil
			})
		},
	}
}

type passwdParams struct {
	cli.ConnectionConfig
	PasswordFile string `json:"-" flag:"password-file" desc:"read the new password from this file (\"-\" for stdin) instead of prompting"`
}

func passwdCommand() *cli.Command {
	var params passwdParams
	const usage = "stealthim group passwd [flags] <group-id>"

	return &cli.Command{
		Name:    "passwd",
		Summary: "Change a group's join password",
		Description: `Change the password needed to join a group. The new password is
prompted for twice unless --password-file is given.`,
		Usage: usage,
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("passwd", &params) },
		Run: func(args []string) error {
			if err := cli.RequireArgs(args, 1, usage); err != nil {
				return err
			}
			if _, err := ParseGroupID(args[0]); err != nil {
				return err
			}
			password, err := cli.ReadPassword(params.PasswordFile, true)
			if err != nil {
				return err
			}
			defer password.Close()

			return withGroup(&params.ConnectionConfig, args[0], func(ctx context.Context, group *messaging.Group) error {
				if _, err := group.ChangePassword(ctx, password.String()); err != nil {
					return err
				}
				fmt.Printf("Changed the password of group %d\n", group.ID())
				return nil
			})
		},
	}
}
