// Copyright 2026 The StealthIM Go Authors
// SPDX-License-Identifier: Apache-2.0

// Command stealthim is the command-line client for StealthIM servers.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/stealthim/stealthim-go/cmd/stealthim/cli"
	"github.com/stealthim/stealthim-go/cmd/stealthim/commands"
)

func main() {
	if err := run(); err != nil {
		// Commands that print their own output return an ExitError with
		// the desired code; don't add an "error:" line for those.
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(cli.ExitCode(err))
	}
}

func run() error {
	return cli.Classify(commands.Root().Execute(os.Args[1:]))
}
