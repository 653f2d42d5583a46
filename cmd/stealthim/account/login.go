// Copyright 2026 The StealthIM Go Authors
// SPDX-License-Identifier: Apache-2.0

package account

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/stealthim/stealthim-go/cmd/stealthim/cli"
	"github.com/stealthim/stealthim-go/lib/config"
	"github.com/stealthim/stealthim-go/lib/secret"
	"github.com/stealthim/stealthim-go/messaging"
)

// Credentials holds the --password-file flag.
type Credentials struct {
	PasswordFile string `json:"-" flag:"password-file" desc:"read the password from this file (\"-\" for stdin) instead of prompting"`
}

// password reads the account password from --password-file, then
// account.password_file, then the terminal.
func (p *Credentials) password(cfg *config.Config, confirm bool) (*secret.Buffer, error) {
	path := p.PasswordFile
	if path == "" {
		path = cfg.Account.PasswordFile
	}
	return cli.ReadPassword(path, confirm)
}

// resolveUsername takes the username from the single optional
// positional argument, falling back to account.username.
func resolveUsername(args []string, cfg *config.Config, usage string) (string, error) {
	switch {
	case len(args) > 1:
		return "", cli.Validation("unexpected argument: %s\n\nUsage: %s", args[1], usage)
	case len(args) == 1:
		return args[0], nil
	case cfg.Account.Username != "":
		return cfg.Account.Username, nil
	}
	return "", cli.Validation("no username given (pass it as an argument or set account.username)\n\nUsage: %s", usage)
}

type loginParams struct {
	cli.ConnectionConfig
	Credentials
	cli.JSONOutput
}

type loginResult struct {
	Username    string `json:"username"`
	Server      string `json:"server"`
	SessionFile string `json:"session_file"`
	Sealed      bool   `json:"sealed"`
}

// LoginCommand returns the "login" command.
func LoginCommand() *cli.Command {
	var params loginParams
	const usage = "stealthim login [flags] [username]"

	return &cli.Command{
		Name:    "login",
		Summary: "Log in and save the session",
		Description: `Log in with a username and password and save the session token to the
session file (session.file in the configuration). Later commands act as
this user until "stealthim logout".

When session.recipients lists age public keys, the session file is
sealed to them and session.identity_file is needed to open it.`,
		Usage: usage,
		Examples: []cli.Example{
			{Description: "Log in, prompting for the password", Command: "stealthim login --server https://stim.example.com alice"},
			{Description: "Log in non-interactively", Command: "stealthim login --password-file ~/.config/stealthim/password alice"},
		},
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("login", &params) },
		Run: func(args []string) error {
			connection, err := params.Connect()
			if err != nil {
				return err
			}
			defer connection.Close()
			cfg := connection.Config

			username, err := resolveUsername(args, cfg, usage)
			if err != nil {
				return err
			}
			password, err := params.password(cfg, false)
			if err != nil {
				return err
			}
			defer password.Close()

			ctx, cancel := cli.SignalContext()
			defer cancel()

			user, err := messaging.Login(ctx, connection.Server, username, password)
			if err != nil {
				return err
			}
			defer user.Close()

			saved := &cli.SavedSession{
				Server:   connection.Server.URL(),
				Username: user.Username(),
				Token:    user.SessionToken(),
				SavedAt:  time.Now().UTC(),
			}
			if err := cli.SaveSession(cfg.Session.File, saved, cfg.Session.Recipients); err != nil {
				return cli.Internal("saving session: %w", err)
			}

			result := loginResult{
				Username:    saved.Username,
				Server:      saved.Server,
				SessionFile: cfg.Session.File,
				Sealed:      len(cfg.Session.Recipients) > 0,
			}
			if done, err := params.EmitJSON(result); done {
				return err
			}
			fmt.Printf("Logged in as %s on %s\n", result.Username, result.Server)
			fmt.Printf("Session saved to %s\n", result.SessionFile)
			return nil
		},
	}
}

type registerParams struct {
	cli.ConnectionConfig
	Credentials
	Nickname string `json:"nickname" flag:"nickname" desc:"display name (default: the username)"`
}

// RegisterCommand returns the "register" command.
func RegisterCommand() *cli.Command {
	var params registerParams
	const usage = "stealthim register [flags] [username]"

	return &cli.Command{
		Name:    "register",
		Summary: "Create an account",
		Description: `Create an account on the server. The password is prompted for twice
unless --password-file or account.password_file is set. Registering
does not log in; run "stealthim login" afterwards.`,
		Usage: usage,
		Examples: []cli.Example{
			{Description: "Register with a display name", Command: "stealthim register --nickname Alice alice"},
		},
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("register", &params) },
		Run: func(args []string) error {
			connection, err := params.Connect()
			if err != nil {
				return err
			}
			defer connection.Close()

			username, err := resolveUsername(args, connection.Config, usage)
			if err != nil {
				return err
			}
			password, err := params.password(connection.Config, true)
			if err != nil {
				return err
			}
			defer password.Close()

			ctx, cancel := cli.SignalContext()
			defer cancel()

			if err := messaging.Register(ctx, connection.Server, username, password, params.Nickname); err != nil {
				return err
			}
			fmt.Printf("Registered %s on %s\n", username, connection.Server.URL())
			return nil
		},
	}
}

type logoutParams struct {
	cli.ConnectionConfig
}

// LogoutCommand returns the "logout" command.
func LogoutCommand() *cli.Command {
	var params logoutParams

	return &cli.Command{
		Name:    "logout",
		Summary: "Forget the saved session",
		Description: `Delete the local session file. The server keeps no logout state, so
this only removes the token from this machine.`,
		Usage: "stealthim logout",
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("logout", &params) },
		Run: func(args []string) error {
			if err := cli.RequireArgs(args, 0, "stealthim logout"); err != nil {
				return err
			}
			cfg, err := params.Config()
			if err != nil {
				return err
			}
			if err := cli.RemoveSession(cfg.Session.File); err != nil {
				return cli.Internal("removing session: %w", err)
			}
			fmt.Printf("Removed %s\n", cfg.Session.File)
			return nil
		},
	}
}
