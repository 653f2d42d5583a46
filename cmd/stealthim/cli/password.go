// Copyright 2026 The StealthIM Go Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/stealthim/stealthim-go/lib/secret"
)

// ReadPassword returns a password from passwordFile ("-" reads the
// first line of stdin), or prompts on the terminal when passwordFile is
// empty. With confirm set the prompt asks twice and the answers must
// match.
func ReadPassword(passwordFile string, confirm bool) (*secret.Buffer, error) {
	if passwordFile != "" {
		password, err := secret.ReadFromPath(passwordFile)
		if err != nil {
			return nil, Validation("reading password: %w", err)
		}
		return password, nil
	}

	password, err := promptSecret("Password: ")
	if err != nil {
		return nil, err
	}
	if !confirm {
		return password, nil
	}

	again, err := promptSecret("Confirm password: ")
	if err != nil {
		password.Close()
		return nil, err
	}
	defer again.Close()
	if !password.Equal(again.Bytes()) {
		password.Close()
		return nil, Validation("passwords do not match")
	}
	return password, nil
}

func promptSecret(prompt string) (*secret.Buffer, error) {
	descriptor := int(os.Stdin.Fd())
	if !term.IsTerminal(descriptor) {
		return nil, Validation("no terminal available for a password prompt (use --password-file)")
	}

	fmt.Fprint(os.Stderr, prompt)
	value, err := term.ReadPassword(descriptor)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, Internal("reading password: %w", err)
	}
	if len(value) == 0 {
		return nil, Validation("empty password")
	}

	buffer, err := secret.NewFromBytes(value)
	if err != nil {
		secret.Zero(value)
		return nil, Internal("protecting password: %w", err)
	}
	return buffer, nil
}
