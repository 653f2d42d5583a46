// Copyright 2026 The StealthIM Go Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/stealthim/stealthim-go/lib/codec"
	"github.com/stealthim/stealthim-go/lib/sealed"
	"github.com/stealthim/stealthim-go/lib/secret"
)

// ageHeader starts every binary age file.
var ageHeader = []byte("age-encryption.org/v1\n")

// SavedSession is what "stealthim login" writes to the session file.
type SavedSession struct {
	Server   string    `cbor:"server"   json:"server"`
	Username string    `cbor:"username" json:"username"`
	Token    string    `cbor:"token"    json:"-"`
	SavedAt  time.Time `cbor:"saved_at" json:"saved_at"`
}

// SaveSession writes session to path as CBOR, sealed with age when
// recipients is non-empty. The file is replaced atomically with mode
// 0600; missing parent directories are created with mode 0700.
func SaveSession(path string, session *SavedSession, recipients []string) error {
	data, err := codec.Marshal(session)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	if len(recipients) > 0 {
		plaintext := data
		data, err = sealed.Encrypt(plaintext, recipients)
		secret.Zero(plaintext)
		if err != nil {
			return fmt.Errorf("sealing session: %w", err)
		}
	}
	defer secret.Zero(data)

	directory := filepath.Dir(path)
	if err := os.MkdirAll(directory, 0o700); err != nil {
		return fmt.Errorf("creating %s: %w", directory, err)
	}

	temporary, err := os.CreateTemp(directory, ".session-*")
	if err != nil {
		return fmt.Errorf("creating temporary session file: %w", err)
	}
	temporaryPath := temporary.Name()
	defer os.Remove(temporaryPath)

	if err := temporary.Chmod(0o600); err != nil {
		temporary.Close()
		return fmt.Errorf("setting session file mode: %w", err)
	}
	if _, err := temporary.Write(data); err != nil {
		temporary.Close()
		return fmt.Errorf("writing session file: %w", err)
	}
	if err := temporary.Close(); err != nil {
		return fmt.Errorf("writing session file: %w", err)
	}
	if err := os.Rename(temporaryPath, path); err != nil {
		return fmt.Errorf("replacing session file: %w", err)
	}
	return nil
}

// LoadSession reads the session file at path. A sealed file is opened
// with the age identity in identityFile.
func LoadSession(path, identityFile string) (*SavedSession, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, Validation("no saved session at %s; run 'stealthim login' first", path)
	}
	if err != nil {
		return nil, Internal("reading session file: %w", err)
	}

	if bytes.HasPrefix(data, ageHeader) {
		if identityFile == "" {
			return nil, Validation("session file %s is sealed; set session.identity_file in the configuration", path)
		}
		identity, err := ReadIdentity(identityFile)
		if err != nil {
			return nil, err
		}
		defer identity.Close()

		plaintext, err := sealed.Decrypt(data, identity)
		if err != nil {
			return nil, Internal("opening sealed session file %s: %w", path, err)
		}
		defer plaintext.Close()
		data = plaintext.Bytes()
	}

	var session SavedSession
	if err := codec.Unmarshal(data, &session); err != nil {
		return nil, Internal("decoding session file %s: %w", path, err)
	}
	if session.Server == "" || session.Username == "" || session.Token == "" {
		return nil, Internal("session file %s is incomplete; run 'stealthim login' again", path)
	}
	return &session, nil
}

// RemoveSession deletes the session file. A missing file is not an
// error.
func RemoveSession(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// ReadIdentity reads an age identity file as written by "stealthim
// keygen" or age-keygen: comment lines are skipped and the
// AGE-SECRET-KEY-1 line is returned in protected memory.
func ReadIdentity(path string) (*secret.Buffer, error) {
	contents, err := secret.ReadFromPath(path)
	if err != nil {
		return nil, Validation("reading identity file %s: %w", path, err)
	}
	defer contents.Close()

	scanner := bufio.NewScanner(bytes.NewReader(contents.Bytes()))
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if !bytes.HasPrefix(line, []byte("AGE-SECRET-KEY-")) {
			continue
		}
		// NewFromBytes zeroes its source, so hand it a copy.
		identity, err := secret.NewFromBytes(bytes.Clone(line))
		if err != nil {
			return nil, Internal("protecting identity: %w", err)
		}
		return identity, nil
	}
	return nil, Validation("identity file %s contains no AGE-SECRET-KEY line", path)
}

// FormatIdentityFile renders an identity file in age-keygen layout.
func FormatIdentityFile(publicKey string, privateKey *secret.Buffer, created time.Time) []byte {
	var builder strings.Builder
	fmt.Fprintf(&builder, "# created: %s\n", created.UTC().Format(time.RFC3339))
	fmt.Fprintf(&builder, "# public key: %s\n", publicKey)
	builder.WriteString(privateKey.String())
	builder.WriteString("\n")
	return []byte(builder.String())
}
