// Copyright 2026 The StealthIM Go Authors
// SPDX-License-Identifier: Apache-2.0

package account

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/stealthim/stealthim-go/cmd/stealthim/cli"
	"github.com/stealthim/stealthim-go/messaging"
)

type whoamiParams struct {
	cli.ConnectionConfig
	cli.JSONOutput
	Local bool `json:"-" flag:"local" desc:"print the saved session without contacting the server"`
}

type whoamiResult struct {
	Server string `json:"server"`
	messaging.UserInfoData
}

// WhoAmICommand returns the "whoami" command.
func WhoAmICommand() *cli.Command {
	var params whoamiParams

	return &cli.Command{
		Name:    "whoami",
		Summary: "Show the logged-in account",
		Description: `Fetch the account information of the saved session from the server.
With --local, print the saved username and server without a request.`,
		Usage: "stealthim whoami [flags]",
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("whoami", &params) },
		Run: func(args []string) error {
			if err := cli.RequireArgs(args, 0, "stealthim whoami [flags]"); err != nil {
				return err
			}

			connection, user, err := params.Resume()
			if err != nil {
				return err
			}
			defer connection.Close()
			defer user.Close()

			result := whoamiResult{Server: connection.Server.URL()}
			result.Username = user.Username()

			if !params.Local {
				ctx, cancel := cli.SignalContext()
				defer cancel()

				info, err := user.Info(ctx)
				if err != nil {
					return err
				}
				result.UserInfoData = info.UserInfo
				if result.Username == "" {
					result.Username = user.Username()
				}
			}

			if done, err := params.EmitJSON(result); done {
				return err
			}

			writer := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(writer, "Username:\t%s\n", result.Username)
			fmt.Fprintf(writer, "Server:\t%s\n", result.Server)
			if !params.Local {
				fmt.Fprintf(writer, "Nickname:\t%s\n", result.Nickname)
				if result.Email != "" {
					fmt.Fprintf(writer, "Email:\t%s\n", result.Email)
				}
				if result.PhoneNumber != "" {
					fmt.Fprintf(writer, "Phone:\t%s\n", result.PhoneNumber)
				}
				fmt.Fprintf(writer, "VIP:\t%d\n", result.VIP)
				if result.CreateTime != "" {
					fmt.Fprintf(writer, "Created:\t%s\n", result.CreateTime)
				}
			}
			return writer.Flush()
		},
	}
}
