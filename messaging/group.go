// Copyright 2026 The StealthIM Go Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
)

// Group is a chat group as seen by one User. Every operation is sent
// with the User's session token.
type Group struct {
	user *User
	id   int64
}

// CreateGroup creates a group named name and returns it bound to the
// server-assigned ID.
func CreateGroup(ctx context.Context, user *User, name string) (*Group, error) {
	if user == nil {
		return nil, fmt.Errorf("messaging: user is required to create a group")
	}
	if name == "" {
		return nil, fmt.Errorf("messaging: group name is required")
	}

	response, err := call[CreateGroupResult](ctx, user.server, Request{
		Operation: "create group",
		Method:    http.MethodPost,
		Path:      "/api/v1/group",
		Body:      map[string]string{"name": name},
		Session:   user.session,
	})
	if err != nil {
		return nil, err
	}

	user.server.logger.Info("created stealthim group",
		"group_id", response.GroupID,
		"name", name,
		"username", user.username,
	)
	return &Group{user: user, id: response.GroupID}, nil
}

// JoinGroup joins the group with the given ID using its password.
func JoinGroup(ctx context.Context, user *User, groupID int64, password string) (*Group, error) {
	if user == nil {
		return nil, fmt.Errorf("messaging: user is required to join a group")
	}

	_, err := call[JoinGroupResult](ctx, user.server, Request{
		Operation: "join group",
		Method:    http.MethodPost,
		Path:      groupPath(groupID, "join"),
		Body:      map[string]string{"password": password},
		Session:   user.session,
	})
	if err != nil {
		return nil, err
	}

	user.server.logger.Info("joined stealthim group",
		"group_id", groupID,
		"username", user.username,
	)
	return &Group{user: user, id: groupID}, nil
}

// OpenGroup binds user to an existing group ID without a request, for
// groups the user already belongs to.
func OpenGroup(user *User, groupID int64) *Group {
	return &Group{user: user, id: groupID}
}

// ID returns the group ID.
func (g *Group) ID() int64 {
	return g.id
}

// User returns the User the group is bound to.
func (g *Group) User() *User {
	return g.user
}

// GetMembers returns the group roster.
func (g *Group) GetMembers(ctx context.Context) (*GroupInfoResult, error) {
	response, err := call[GroupInfoResult](ctx, g.user.server, Request{
		Operation: "get group members",
		Method:    http.MethodGet,
		Path:      groupPath(g.id),
		Session:   g.user.session,
	})
	if err != nil {
		return nil, err
	}
	if response.Members == nil {
		response.Members = []GroupMember{}
	}
	return response, nil
}

// GetInfo returns the group's public metadata.
func (g *Group) GetInfo(ctx context.Context) (*GroupPublicInfoResult, error) {
	return call[GroupPublicInfoResult](ctx, g.user.server, Request{
		Operation: "get group info",
		Method:    http.MethodGet,
		Path:      groupPath(g.id, "public"),
		Session:   g.user.session,
	})
}

// Invite adds username to the group. Whether the caller may invite is
// decided by the server.
func (g *Group) Invite(ctx context.Context, username string) (*InviteGroupResult, error) {
	if username == "" {
		return nil, fmt.Errorf("messaging: username is required to invite")
	}
	return call[InviteGroupResult](ctx, g.user.server, Request{
		Operation: "invite to group",
		Method:    http.MethodPost,
		Path:      groupPath(g.id, "invite"),
		Body:      map[string]string{"username": username},
		Session:   g.user.session,
	})
}

// SetMemberRole changes the role of username within the group.
func (g *Group) SetMemberRole(ctx context.Context, username string, role MemberRole) (*SetMemberRoleResult, error) {
	if username == "" {
		return nil, fmt.Errorf("messaging: username is required to set a member role")
	}
	return call[SetMemberRoleResult](ctx, g.user.server, Request{
		Operation: "set member role",
		Method:    http.MethodPut,
		Path:      groupPath(g.id, username),
		Body:      map[string]MemberRole{"type": role},
		Session:   g.user.session,
	})
}

// Kick removes username from the group.
func (g *Group) Kick(ctx context.Context, username string) (*KickMemberResult, error) {
	if username == "" {
		return nil, fmt.Errorf("messaging: username is required to kick")
	}
	return call[KickMemberResult](ctx, g.user.server, Request{
		Operation: "kick member",
		Method:    http.MethodDelete,
		Path:      groupPath(g.id, username),
		Session:   g.user.session,
	})
}

// ChangeName renames the group.
func (g *Group) ChangeName(ctx context.Context, name string) (*ChangeGroupNameResult, error) {
	if name == "" {
		return nil, fmt.Errorf("messaging: group name is required")
	}
	return call[ChangeGroupNameResult](ctx, g.user.server, Request{
		Operation: "change group name",
		Method:    http.MethodPatch,
		Path:      groupPath(g.id, "name"),
		Body:      map[string]string{"name": name},
		Session:   g.user.session,
	})
}

// ChangePassword sets the password required to join the group.
func (g *Group) ChangePassword(ctx context.Context, password string) (*ChangeGroupPasswordResult, error) {
	if password == "" {
		return nil, fmt.Errorf("messaging: group password is required")
	}
	return call[ChangeGroupPasswordResult](ctx, g.user.server, Request{
		Operation: "change group password",
		Method:    http.MethodPatch,
		Path:      groupPath(g.id, "password"),
		Body:      map[string]string{"password": password},
		Session:   g.user.session,
	})
}

// SendText sends a text message to the group.
func (g *Group) SendText(ctx context.Context, text string) (*SendMessageResult, error) {
	return g.SendMessage(ctx, text, MessageText)
}

// SendMessage sends content with the given message type. For
// non-text types content is the type-specific payload (file hash,
// emoji name, ...).
func (g *Group) SendMessage(ctx context.Context, content string, messageType MessageType) (*SendMessageResult, error) {
	if content == "" {
		return nil, fmt.Errorf("messaging: message content is required")
	}
	response, err := call[SendMessageResult](ctx, g.user.server, Request{
		Operation: "send message",
		Method:    http.MethodPost,
		Path:      messagePath(g.id),
		Body: struct {
			Content string      `json:"msg"`
			Type    MessageType `json:"type"`
		}{Content: content, Type: messageType},
		Session: g.user.session,
	})
	if err != nil {
		return nil, err
	}

	g.user.server.logger.Debug("sent stealthim message",
		"group_id", g.id,
		"type", messageType.String(),
	)
	return response, nil
}

func (g *Group) logAttrs() []any {
	return []any{slog.Int64("group_id", g.id), slog.String("username", g.user.username)}
}

// groupPath returns /api/v1/group/{id}[/segment...]. Segments are
// path-escaped since usernames are caller-supplied.
func groupPath(groupID int64, segments ...string) string {
	path := "/api/v1/group/" + strconv.FormatInt(groupID, 10)
	for _, segment := range segments {
		path += "/" + url.PathEscape(segment)
	}
	return path
}

func messagePath(groupID int64) string {
	return "/api/v1/message/" + strconv.FormatInt(groupID, 10)
}
