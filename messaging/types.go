// Copyright 2026 The StealthIM Go Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"fmt"
	"strconv"
	"strings"
)

// Domain result codes.
const (
	// CodeSuccess is the success code for every operation in this package.
	CodeSuccess = 800

	// CodeTransientMin and CodeTransientMax bound the band of codes that
	// mean "temporarily unable to complete, retry the same request".
	CodeTransientMin = 900
	CodeTransientMax = 999
)

// IsTransient reports whether code lies in the transient band.
func IsTransient(code int) bool {
	return code >= CodeTransientMin && code <= CodeTransientMax
}

// Result is the status object carried in every response body under the
// "result" key.
type Result struct {
	Code    int    `json:"code"`
	Message string `json:"msg"`
}

// resultEnvelope decodes only the result object of a response.
type resultEnvelope struct {
	Result *Result `json:"result"`
}

// MemberRole is a member's level within a group. The server decides
// what each level may do; the client forwards the value unchanged.
type MemberRole int

const (
	RoleMember  MemberRole = 0
	RoleManager MemberRole = 1
	RoleOwner   MemberRole = 2
)

func (r MemberRole) String() string {
	switch r {
	case RoleMember:
		return "member"
	case RoleManager:
		return "manager"
	case RoleOwner:
		return "owner"
	default:
		return "role(" + strconv.Itoa(int(r)) + ")"
	}
}

// ParseMemberRole accepts a role name or its numeric value.
func ParseMemberRole(value string) (MemberRole, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "member", "0":
		return RoleMember, nil
	case "manager", "admin", "1":
		return RoleManager, nil
	case "owner", "2":
		return RoleOwner, nil
	default:
		return 0, fmt.Errorf("messaging: unknown member role %q (want member, manager, or owner)", value)
	}
}

// MessageType identifies the payload kind of a message.
type MessageType int

const (
	MessageText       MessageType = 0
	MessageImage      MessageType = 1
	MessageLargeEmoji MessageType = 2
	MessageEmoji      MessageType = 3
	MessageFile       MessageType = 4
	MessageCard       MessageType = 5
	MessageInnerLink  MessageType = 6
	MessageRecall     MessageType = 16
)

var messageTypeNames = map[MessageType]string{
	MessageText:       "text",
	MessageImage:      "image",
	MessageLargeEmoji: "large_emoji",
	MessageEmoji:      "emoji",
	MessageFile:       "file",
	MessageCard:       "card",
	MessageInnerLink:  "inner_link",
	MessageRecall:     "recall",
}

func (t MessageType) String() string {
	if name, ok := messageTypeNames[t]; ok {
		return name
	}
	return "type(" + strconv.Itoa(int(t)) + ")"
}

// ParseMessageType accepts a type name ("text", "image", ...) or its
// numeric value.
func ParseMessageType(value string) (MessageType, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for messageType, name := range messageTypeNames {
		if name == normalized || strconv.Itoa(int(messageType)) == normalized {
			return messageType, nil
		}
	}
	return 0, fmt.Errorf("messaging: unknown message type %q", value)
}

// GroupMember is one entry of a group roster.
type GroupMember struct {
	Name string     `json:"name"`
	Role MemberRole `json:"type"`
}

// Message is one record delivered by the message stream.
type Message struct {
	GroupID int64  `json:"groupid"`
	Content string `json:"msg"`
	ID      int64  `json:"msgid"`
	// Time is the send time in Unix milliseconds.
	Time     int64       `json:"time"`
	Type     MessageType `json:"type"`
	Username string      `json:"username"`
	Hash     string      `json:"hash"`
}

// Per-operation response schemas. Each carries the result object and
// the fields the operation adds.

// PingResult is the response of GET /api/v1/ping.
type PingResult struct {
	Result Result `json:"result"`
}

// LoginResult is the response of POST /api/v1/user/login.
type LoginResult struct {
	Result   Result        `json:"result"`
	Session  string        `json:"session"`
	UserInfo *UserInfoData `json:"user_info,omitempty"`
}

// RegisterResult is the response of POST /api/v1/user/register.
type RegisterResult struct {
	Result Result `json:"result"`
}

// UserInfoData describes an account.
type UserInfoData struct {
	Username    string `json:"username"`
	Nickname    string `json:"nickname"`
	Email       string `json:"email,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
	VIP         int    `json:"vip"`
	CreateTime  string `json:"create_time,omitempty"`
}

// UserInfoResult is the response of GET /api/v1/user.
type UserInfoResult struct {
	Result   Result       `json:"result"`
	UserInfo UserInfoData `json:"user_info"`
}

// UserGroupsResult is the response of GET /api/v1/user/groups.
type UserGroupsResult struct {
	Result Result  `json:"result"`
	Groups []int64 `json:"groups"`
}

// CreateGroupResult is the response of POST /api/v1/group.
type CreateGroupResult struct {
	Result  Result `json:"result"`
	GroupID int64  `json:"groupid"`
}

// JoinGroupResult is the response of POST /api/v1/group/{id}/join.
type JoinGroupResult struct {
	Result Result `json:"result"`
}

// GroupInfoResult is the roster returned by GET /api/v1/group/{id}.
type GroupInfoResult struct {
	Result  Result        `json:"result"`
	Members []GroupMember `json:"members"`
}

// GroupPublicInfoResult is the response of GET /api/v1/group/{id}/public.
type GroupPublicInfoResult struct {
	Result Result `json:"result"`
	Name   string `json:"name"`
	// CreateAt is the creation time in Unix seconds.
	CreateAt int64 `json:"create_at"`
}

// InviteGroupResult is the response of POST /api/v1/group/{id}/invite.
type InviteGroupResult struct {
	Result Result `json:"result"`
}

// SetMemberRoleResult is the response of PUT /api/v1/group/{id}/{username}.
type SetMemberRoleResult struct {
	Result Result `json:"result"`
}

// KickMemberResult is the response of DELETE /api/v1/group/{id}/{username}.
type KickMemberResult struct {
	Result Result `json:"result"`
}

// ChangeGroupNameResult is the response of PATCH /api/v1/group/{id}/name.
type ChangeGroupNameResult struct {
	Result Result `json:"result"`
}

// ChangeGroupPasswordResult is the response of PATCH /api/v1/group/{id}/password.
type ChangeGroupPasswordResult struct {
	Result Result `json:"result"`
}

// SendMessageResult is the response of POST /api/v1/message/{id}.
type SendMessageResult struct {
	Result Result `json:"result"`
}

// messageFrame is one event of the message stream.
type messageFrame struct {
	Result   *Result   `json:"result"`
	Messages []Message `json:"msg"`
}
