// Copyright 2026 The StealthIM Go Authors
// SPDX-License-Identifier: Apache-2.0

// Package group implements "stealthim group": creating and joining
// groups, inspecting them, and managing members.
package group

import (
	"context"
	"strconv"

	"github.com/stealthim/stealthim-go/cmd/stealthim/cli"
	"github.com/stealthim/stealthim-go/messaging"
)

// Command returns the "group" command group.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "group",
		Summary: "Create, join and manage groups",
		Description: `Create, join and manage StealthIM groups. All subcommands act as the
user of the saved session (see "stealthim login").`,
		Subcommands: []*cli.Command{
			createCommand(),
			joinCommand(),
			listCommand(),
			infoCommand(),
			membersCommand(),
			inviteCommand(),
			roleCommand(),
			kickCommand(),
			renameCommand(),
			passwdCommand(),
		},
		Examples: []cli.Example{
			{Description: "Create a group", Command: "stealthim group create lobby"},
			{Description: "List the members of group 42", Command: "stealthim group members 42"},
		},
	}
}

type groupParams struct {
	cli.ConnectionConfig
	cli.JSONOutput
}

// ParseGroupID parses a group ID argument.
func ParseGroupID(value string) (int64, error) {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		return 0, cli.Validation("invalid group ID %q: must be a positive integer", value)
	}
	return id, nil
}

// withGroup resumes the saved session, opens the group named by
// groupArg, and calls fn with a context cancelled on SIGINT or SIGTERM.
func withGroup(connection *cli.ConnectionConfig, groupArg string, fn func(context.Context, *messaging.Group) error) error {
	groupID, err := ParseGroupID(groupArg)
	if err != nil {
		return err
	}

	conn, user, err := connection.Resume()
	if err != nil {
		return err
	}
	defer conn.Close()
	defer user.Close()

	ctx, cancel := cli.SignalContext()
	defer cancel()

	return fn(ctx, messaging.OpenGroup(user, groupID))
}
