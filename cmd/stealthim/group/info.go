// Copyright 2026 The StealthIM Go Authors
// SPDX-License-Identifier: Apache-2.0

package group

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/stealthim/stealthim-go/cmd/stealthim/cli"
	"github.com/stealthim/stealthim-go/messaging"
)

type infoResult struct {
	GroupID   int64     `json:"group_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func infoCommand() *cli.Command {
	var params groupParams
	const usage = "stealthim group info [flags] <group-id>"

	return &cli.Command{
		Name:        "info",
		Summary:     "Show a group's public information",
		Description: "Show the name and creation time of a group. Membership is not required.",
		Usage:       usage,
		Flags:       func() *pflag.FlagSet { return cli.FlagsFromParams("info", &params) },
		Run: func(args []string) error {
			if err := cli.RequireArgs(args, 1, usage); err != nil {
				return err
			}
			return withGroup(&params.ConnectionConfig, args[0], func(ctx context.Context, group *messaging.Group) error {
				info, err := group.GetInfo(ctx)
				if err != nil {
					return err
				}

				result := infoResult{
					GroupID:   group.ID(),
					Name:      info.Name,
					CreatedAt: time.Unix(info.CreateAt, 0).UTC(),
				}
				if done, err := params.EmitJSON(result); done {
					return err
				}
				writer := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintf(writer, "Group:\t%d\n", result.GroupID)
				fmt.Fprintf(writer, "Name:\t%s\n", result.Name)
				fmt.Fprintf(writer, "Created:\t%s\n", result.CreatedAt.Format(time.RFC3339))
				return writer.Flush()
			})
		},
	}
}

type memberResult struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

func membersCommand() *cli.Command {
	var params groupParams
	const usage = "stealthim group members [flags] <group-id>"

	return &cli.Command{
		Name:        "members",
		Summary:     "List a group's members and their roles",
		Description: "List the members of a group the current user belongs to.",
		Usage:       usage,
		Flags:       func() *pflag.FlagSet { return cli.FlagsFromParams("members", &params) },
		Run: func(args []string) error {
			if err := cli.RequireArgs(args, 1, usage); err != nil {
				return err
			}
			return withGroup(&params.ConnectionConfig, args[0], func(ctx context.Context, group *messaging.Group) error {
				roster, err := group.GetMembers(ctx)
				if err != nil {
					return err
				}

				members := make([]memberResult, 0, len(roster.Members))
				for _, member := range roster.Members {
					members = append(members, memberResult{Name: member.Name, Role: member.Role.String()})
				}
				if done, err := params.EmitJSON(members); done {
					return err
				}
				writer := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintln(writer, "NAME\tROLE")
				for _, member := range members {
					fmt.Fprintf(writer, "%s\t%s\n", member.Name, member.Role)
				}
				return writer.Flush()
			})
		},
	}
}
