// Copyright 2026 The StealthIM Go Authors
// SPDX-License-Identifier: Apache-2.0

package account

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"

	"github.com/stealthim/stealthim-go/cmd/stealthim/cli"
	"github.com/stealthim/stealthim-go/lib/sealed"
	"github.com/stealthim/stealthim-go/lib/secret"
)

type keygenParams struct {
	Output string `json:"-" flag:"output,o" desc:"write the identity to this file instead of stdout"`
	Force  bool   `json:"-" flag:"force" desc:"overwrite an existing output file"`
}

// KeygenCommand returns the "keygen" command.
func KeygenCommand() *cli.Command {
	var params keygenParams

	return &cli.Command{
		Name:    "keygen",
		Summary: "Generate an age identity for sealing the session file",
		Description: `Generate an age x25519 keypair. The identity (private key) is written
in age-keygen format to --output or stdout; the public key is printed to
stderr. Put the public key in session.recipients and the identity path
in session.identity_file to seal the session file.`,
		Usage: "stealthim keygen [flags]",
		Examples: []cli.Example{
			{Description: "Create an identity file", Command: "stealthim keygen -o ~/.config/stealthim/identity"},
		},
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("keygen", &params) },
		Run: func(args []string) error {
			if err := cli.RequireArgs(args, 0, "stealthim keygen [flags]"); err != nil {
				return err
			}

			keypair, err := sealed.GenerateKeypair()
			if err != nil {
				return cli.Internal("%w", err)
			}
			defer keypair.Close()

			contents := cli.FormatIdentityFile(keypair.PublicKey, keypair.PrivateKey, time.Now())
			defer secret.Zero(contents)

			if params.Output == "" {
				if _, err := os.Stdout.Write(contents); err != nil {
					return cli.Internal("writing identity: %w", err)
				}
			} else if err := writeIdentity(params.Output, contents, params.Force); err != nil {
				return err
			}

			fmt.Fprintf(os.Stderr, "Public key: %s\n", keypair.PublicKey)
			return nil
		},
	}
}

func writeIdentity(path string, contents []byte, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return cli.Validation("%s already exists (use --force to overwrite)", path)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return cli.Internal("checking %s: %w", path, err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return cli.Internal("creating %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, contents, 0o600); err != nil {
		return cli.Internal("writing identity: %w", err)
	}
	// WriteFile keeps the mode of an existing file.
	if err := os.Chmod(path, 0o600); err != nil {
		return cli.Internal("setting identity file mode: %w", err)
	}
	return nil
}
