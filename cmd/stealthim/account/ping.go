// Copyright 2026 The StealthIM Go Authors
// SPDX-License-Identifier: Apache-2.0

package account

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/stealthim/stealthim-go/cmd/stealthim/cli"
)

type pingParams struct {
	cli.ConnectionConfig
	cli.JSONOutput
}

type pingResult struct {
	Server    string `json:"server"`
	LatencyMS int64  `json:"latency_ms"`
}

// PingCommand returns the "ping" command.
func PingCommand() *cli.Command {
	var params pingParams

	return &cli.Command{
		Name:    "ping",
		Summary: "Check that the server is reachable",
		Description: `Send an unauthenticated ping to the server and report the round-trip
time. Transient busy answers are retried per the retry configuration.`,
		Usage: "stealthim ping [flags]",
		Examples: []cli.Example{
			{Description: "Ping the configured server", Command: "stealthim ping"},
			{Description: "Ping another server", Command: "stealthim ping --server https://stim.example.com"},
		},
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("ping", &params) },
		Run: func(args []string) error {
			if err := cli.RequireArgs(args, 0, "stealthim ping [flags]"); err != nil {
				return err
			}

			connection, err := params.Connect()
			if err != nil {
				return err
			}
			defer connection.Close()

			ctx, cancel := cli.SignalContext()
			defer cancel()

			start := time.Now()
			if err := connection.Server.Ping(ctx); err != nil {
				return err
			}
			elapsed := time.Since(start)

			result := pingResult{Server: connection.Server.URL(), LatencyMS: elapsed.Milliseconds()}
			if done, err := params.EmitJSON(result); done {
				return err
			}
			fmt.Printf("%s is up (%s)\n", result.Server, elapsed.Round(time.Millisecond))
			return nil
		},
	}
}
