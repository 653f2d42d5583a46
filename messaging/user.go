// Copyright 2026 The StealthIM Go Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"fmt"
	"net/http"

	"github.com/stealthim/stealthim-go/lib/secret"
)

// User is an authenticated account on a Server. The session token is
// held in mmap-backed memory (locked against swap, excluded from core
// dumps) and attached to every request made through the User.
//
// The caller must call Close when done with the User.
type User struct {
	server   *Server
	username string
	session  *secret.Buffer
}

// Login authenticates username with password and returns a User holding
// the issued session token. The password Buffer is read but not closed;
// the caller retains ownership.
func Login(ctx context.Context, server *Server, username string, password *secret.Buffer) (*User, error) {
	if server == nil {
		return nil, fmt.Errorf("messaging: server is required for login")
	}
	if username == "" {
		return nil, fmt.Errorf("messaging: username is required for login")
	}
	if password == nil || password.Len() == 0 {
		return nil, fmt.Errorf("messaging: password is required for login")
	}

	// Password is converted to string at the JSON serialization boundary.
	// The heap copy is short-lived; it exists only during the HTTP call.
	response, err := call[LoginResult](ctx, server, Request{
		Operation: "login",
		Method:    http.MethodPost,
		Path:      "/api/v1/user/login",
		Body: map[string]string{
			"username": username,
			"password": password.String(),
		},
	})
	if err != nil {
		return nil, err
	}
	if response.Session == "" {
		return nil, fmt.Errorf("messaging: login: %w", &SchemaError{Operation: "login", Reason: "success response has no session token"})
	}

	session, err := secret.NewFromString(response.Session)
	if err != nil {
		return nil, fmt.Errorf("messaging: protecting session token: %w", err)
	}

	server.logger.Info("logged in to stealthim", "username", username, "server", server.baseURL)

	return &User{
		server:   server,
		username: username,
		session:  session,
	}, nil
}

// Register creates a new account. It does not log in.
func Register(ctx context.Context, server *Server, username string, password *secret.Buffer, nickname string) error {
	if server == nil {
		return fmt.Errorf("messaging: server is required for registration")
	}
	if username == "" {
		return fmt.Errorf("messaging: username is required for registration")
	}
	if password == nil || password.Len() == 0 {
		return fmt.Errorf("messaging: password is required for registration")
	}
	if nickname == "" {
		nickname = username
	}

	_, err := call[RegisterResult](ctx, server, Request{
		Operation: "register",
		Method:    http.MethodPost,
		Path:      "/api/v1/user/register",
		Body: map[string]string{
			"username": username,
			"password": password.String(),
			"nickname": nickname,
		},
	})
	if err != nil {
		return err
	}

	server.logger.Info("registered stealthim account", "username", username, "server", server.baseURL)
	return nil
}

// ResumeUser rebuilds a User from a session token saved by an earlier
// Login. No request is made; the first call fails if the token has
// expired.
//
// The caller must call Close on the returned User when done.
func ResumeUser(server *Server, username, token string) (*User, error) {
	if server == nil {
		return nil, fmt.Errorf("messaging: server is required")
	}
	if username == "" {
		return nil, fmt.Errorf("messaging: username is required")
	}
	if token == "" {
		return nil, fmt.Errorf("messaging: session token is required")
	}

	session, err := secret.NewFromString(token)
	if err != nil {
		return nil, fmt.Errorf("messaging: protecting session token: %w", err)
	}
	return &User{
		server:   server,
		username: username,
		session:  session,
	}, nil
}

// Username returns the account name the User logged in with.
func (u *User) Username() string {
	return u.username
}

// Server returns the Server the User is bound to.
func (u *User) Server() *Server {
	return u.server
}

// SessionToken returns the session token as a string, or "" after
// Close. The returned string is a heap copy; prefer keeping the User
// over persisting it.
func (u *User) SessionToken() string {
	token, _ := u.session.Load()
	return token
}

// Close releases the mmap-backed token memory. Idempotent. Requests
// made afterwards through the User or its Groups fail with
// ErrUserClosed.
func (u *User) Close() error {
	return u.session.Close()
}

// Info returns the account details of the logged-in user.
func (u *User) Info(ctx context.Context) (*UserInfoResult, error) {
	return call[UserInfoResult](ctx, u.server, Request{
		Operation: "user info",
		Method:    http.MethodGet,
		Path:      "/api/v1/user",
		Session:   u.session,
	})
}

// Groups returns the IDs of the groups the user belongs to.
func (u *User) Groups(ctx context.Context) ([]int64, error) {
	response, err := call[UserGroupsResult](ctx, u.server, Request{
		Operation: "user groups",
		Method:    http.MethodGet,
		Path:      "/api/v1/user/groups",
		Session:   u.session,
	})
	if err != nil {
		return nil, err
	}
	if response.Groups == nil {
		return []int64{}, nil
	}
	return response.Groups, nil
}
