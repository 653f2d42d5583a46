// Copyright 2026 The StealthIM Go Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

// Failure codes used by the fake server.
const (
	fakeCodeUserExists      = 1101
	fakeCodeWrongPassword   = 1102
	fakeCodeUnauthenticated = 1103
	fakeCodeGroupNotFound   = 1201
	fakeCodeWrongGroupPass  = 1202
	fakeCodeNotMember       = 1203
	fakeCodePermission      = 1204
	fakeCodeBadRequest      = 1300
)

type fakeGroup struct {
	name     string
	password string
	createAt int64
	members  []GroupMember
	messages []Message
}

func (g *fakeGroup) role(username string) (MemberRole, bool) {
	for _, member := range g.members {
		if member.Name == username {
			return member.Role, true
		}
	}
	return 0, false
}

// fakeStealthIM is an in-memory StealthIM server for end-to-end tests
// of the client. It implements the endpoints the client uses with
// simple owner/manager/member permission checks.
type fakeStealthIM struct {
	mu          sync.Mutex
	passwords   map[string]string
	sessions    map[string]string
	groups      map[int64]*fakeGroup
	nextGroupID int64
	nextMessage int64
	sessionSeq  int
}

// newFakeStealthIM starts the fake with accounts alice/pw123 and
// bob/hunter2 and returns a Server pointed at it.
func newFakeStealthIM(t *testing.T) (*fakeStealthIM, *Server) {
	t.Helper()
	fake := &fakeStealthIM{
		passwords:   map[string]string{"alice": "pw123", "bob": "hunter2"},
		sessions:    make(map[string]string),
		groups:      make(map[int64]*fakeGroup),
		nextGroupID: 1000,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/ping", func(writer http.ResponseWriter, request *http.Request) {
		writeResult(writer, CodeSuccess, "", nil)
	})
	mux.HandleFunc("POST /api/v1/user/register", fake.handleRegister)
	mux.HandleFunc("POST /api/v1/user/login", fake.handleLogin)
	mux.HandleFunc("GET /api/v1/user", fake.authenticated(fake.handleUserInfo))
	mux.HandleFunc("GET /api/v1/user/groups", fake.authenticated(fake.handleUserGroups))
	mux.HandleFunc("POST /api/v1/group", fake.authenticated(fake.handleCreateGroup))
	mux.HandleFunc("GET /api/v1/group/{id}", fake.authenticated(fake.handleMembers))
	mux.HandleFunc("POST /api/v1/group/{id}/join", fake.authenticated(fake.handleJoin))
	mux.HandleFunc("GET /api/v1/group/{id}/public", fake.authenticated(fake.handlePublicInfo))
	mux.HandleFunc("POST /api/v1/group/{id}/invite", fake.authenticated(fake.handleInvite))
	mux.HandleFunc("PATCH /api/v1/group/{id}/name", fake.authenticated(fake.handleRename))
	mux.HandleFunc("PATCH /api/v1/group/{id}/password", fake.authenticated(fake.handlePassword))
	mux.HandleFunc("PUT /api/v1/group/{id}/{username}", fake.authenticated(fake.handleSetRole))
	mux.HandleFunc("DELETE /api/v1/group/{id}/{username}", fake.authenticated(fake.handleKick))
	mux.HandleFunc("POST /api/v1/message/{id}", fake.authenticated(fake.handleSend))
	mux.HandleFunc("GET /api/v1/message/{id}", fake.authenticated(fake.handleReceive))

	return fake, newTestServer(t, mux)
}

func decodeBody(request *http.Request, target any) error {
	return json.NewDecoder(request.Body).Decode(target)
}

func (f *fakeStealthIM) authenticated(handler func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		token, ok := strings.CutPrefix(request.Header.Get("Authorization"), "Bearer ")
		f.mu.Lock()
		username, known := f.sessions[token]
		f.mu.Unlock()
		if !ok || !known {
			writeResult(writer, fakeCodeUnauthenticated, "not logged in", nil)
			return
		}
		handler(writer, request, username)
	}
}

func (f *fakeStealthIM) handleRegister(writer http.ResponseWriter, request *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Nickname string `json:"nickname"`
	}
	if err := decodeBody(request, &body); err != nil || body.Username == "" {
		writeResult(writer, fakeCodeBadRequest, "bad request", nil)
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.passwords[body.Username]; exists {
		writeResult(writer, fakeCodeUserExists, "user already exists", nil)
		return
	}
	f.passwords[body.Username] = body.Password
	writeResult(writer, CodeSuccess, "", nil)
}

func (f *fakeStealthIM) handleLogin(writer http.ResponseWriter, request *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeBody(request, &body); err != nil {
		writeResult(writer, fakeCodeBadRequest, "bad request", nil)
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if password, ok := f.passwords[body.Username]; !ok || password != body.Password {
		writeResult(writer, fakeCodeWrongPassword, "wrong username or password", nil)
		return
	}
	f.sessionSeq++
	token := fmt.Sprintf("session-%s-%d", body.Username, f.sessionSeq)
	f.sessions[token] = body.Username
	writeResult(writer, CodeSuccess, "", map[string]any{
		"session":   token,
		"user_info": UserInfoData{Username: body.Username, Nickname: body.Username},
	})
}

func (f *fakeStealthIM) handleUserInfo(writer http.ResponseWriter, request *http.Request, username string) {
	writeResult(writer, CodeSuccess, "", map[string]any{
		"user_info": UserInfoData{Username: username, Nickname: strings.ToUpper(username[:1]) + username[1:]},
	})
}

func (f *fakeStealthIM) handleUserGroups(writer http.ResponseWriter, request *http.Request, username string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	groups := []int64{}
	for _, id := range slices.Sorted(maps.Keys(f.groups)) {
		if _, member := f.groups[id].role(username); member {
			groups = append(groups, id)
		}
	}
	writeResult(writer, CodeSuccess, "", map[string]any{"groups": groups})
}

func (f *fakeStealthIM) handleCreateGroup(writer http.ResponseWriter, request *http.Request, username string) {
	var body struct {
		Name string `json:"name"`
	}
	if err := decodeBody(request, &body); err != nil || body.Name == "" {
		writeResult(writer, fakeCodeBadRequest, "group name required", nil)
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextGroupID
	f.nextGroupID++
	f.groups[id] = &fakeGroup{
		name:     body.Name,
		createAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Unix() + id,
		members:  []GroupMember{{Name: username, Role: RoleOwner}},
	}
	writeResult(writer, CodeSuccess, "", map[string]any{"groupid": id})
}

// withGroup resolves {id} and checks that username holds at least
// minimum role. It is called with f.mu held.
func (f *fakeStealthIM) withGroup(writer http.ResponseWriter, request *http.Request, username string, minimum MemberRole) (*fakeGroup, int64, bool) {
	id, err := strconv.ParseInt(request.PathValue("id"), 10, 64)
	if err != nil {
		writeResult(writer, fakeCodeBadRequest, "bad group id", nil)
		return nil, 0, false
	}
	group, ok := f.groups[id]
	if !ok {
		writeResult(writer, fakeCodeGroupNotFound, "group not found", nil)
		return nil, 0, false
	}
	role, member := group.role(username)
	if !member {
		writeResult(writer, fakeCodeNotMember, "not a member of this group", nil)
		return nil, 0, false
	}
	if role < minimum {
		writeResult(writer, fakeCodePermission, "permission denied", nil)
		return nil, 0, false
	}
	return group, id, true
}

func (f *fakeStealthIM) handleMembers(writer http.ResponseWriter, request *http.Request, username string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	group, _, ok := f.withGroup(writer, request, username, RoleMember)
	if !ok {
		return
	}
	writeResult(writer, CodeSuccess, "", map[string]any{"members": group.members})
}

func (f *fakeStealthIM) handleJoin(writer http.ResponseWriter, request *http.Request, username string) {
	var body struct {
		Password string `json:"password"`
	}
	if err := decodeBody(request, &body); err != nil {
		writeResult(writer, fakeCodeBadRequest, "bad request", nil)
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	id, err := strconv.ParseInt(request.PathValue("id"), 10, 64)
	group, ok := f.groups[id]
	if err != nil || !ok {
		writeResult(writer, fakeCodeGroupNotFound, "group not found", nil)
		return
	}
	if group.password != body.Password {
		writeResult(writer, fakeCodeWrongGroupPass, "wrong group password", nil)
		return
	}
	if _, member := group.role(username); !member {
		group.members = append(group.members, GroupMember{Name: username, Role: RoleMember})
	}
	writeResult(writer, CodeSuccess, "", nil)
}

func (f *fakeStealthIM) handlePublicInfo(writer http.ResponseWriter, request *http.Request, username string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	group, _, ok := f.withGroup(writer, request, username, RoleMember)
	if !ok {
		return
	}
	writeResult(writer, CodeSuccess, "", map[string]any{"name": group.name, "create_at": group.createAt})
}

func (f *fakeStealthIM) handleInvite(writer http.ResponseWriter, request *http.Request, username string) {
	var body struct {
		Username string `json:"username"`
	}
	decodeBody(request, &body)
	f.mu.Lock()
	defer f.mu.Unlock()
	group, _, ok := f.withGroup(writer, request, username, RoleManager)
	if !ok {
		return
	}
	if _, exists := f.passwords[body.Username]; !exists {
		writeResult(writer, fakeCodeBadRequest, "no such user", nil)
		return
	}
	if _, member := group.role(body.Username); !member {
		group.members = append(group.members, GroupMember{Name: body.Username, Role: RoleMember})
	}
	writeResult(writer, CodeSuccess, "", nil)
}

func (f *fakeStealthIM) handleRename(writer http.ResponseWriter, request *http.Request, username string) {
	var body struct {
		Name string `json:"name"`
	}
	decodeBody(request, &body)
	f.mu.Lock()
	defer f.mu.Unlock()
	group, _, ok := f.withGroup(writer, request, username, RoleManager)
	if !ok {
		return
	}
	group.name = body.Name
	writeResult(writer, CodeSuccess, "", nil)
}

func (f *fakeStealthIM) handlePassword(writer http.ResponseWriter, request *http.Request, username string) {
	var body struct {
		Password string `json:"password"`
	}
	decodeBody(request, &body)
	f.mu.Lock()
	defer f.mu.Unlock()
	group, _, ok := f.withGroup(writer, request, username, RoleOwner)
	if !ok {
		return
	}
	group.password = body.Password
	writeResult(writer, CodeSuccess, "", nil)
}

func (f *fakeStealthIM) handleSetRole(writer http.ResponseWriter, request *http.Request, username string) {
	var body struct {
		Type MemberRole `json:"type"`
	}
	decodeBody(request, &body)
	f.mu.Lock()
	defer f.mu.Unlock()
	group, _, ok := f.withGroup(writer, request, username, RoleOwner)
	if !ok {
		return
	}
	target := request.PathValue("username")
	for index := range group.members {
		if group.members[index].Name == target {
			group.members[index].Role = body.Type
			writeResult(writer, CodeSuccess, "", nil)
			return
		}
	}
	writeResult(writer, fakeCodeNotMember, "target is not a member", nil)
}

func (f *fakeStealthIM) handleKick(writer http.ResponseWriter, request *http.Request, username string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	group, _, ok := f.withGroup(writer, request, username, RoleManager)
	if !ok {
		return
	}
	target := request.PathValue("username")
	for index, member := range group.members {
		if member.Name == target {
			group.members = append(group.members[:index], group.members[index+1:]...)
			writeResult(writer, CodeSuccess, "", nil)
			return
		}
	}
	writeResult(writer, fakeCodeNotMember, "target is not a member", nil)
}

func (f *fakeStealthIM) handleSend(writer http.ResponseWriter, request *http.Request, username string) {
	var body struct {
		Content string      `json:"msg"`
		Type    MessageType `json:"type"`
	}
	if err := decodeBody(request, &body); err != nil {
		writeResult(writer, fakeCodeBadRequest, "bad request", nil)
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	group, id, ok := f.withGroup(writer, request, username, RoleMember)
	if !ok {
		return
	}
	f.nextMessage++
	group.messages = append(group.messages, Message{
		GroupID:  id,
		Content:  body.Content,
		ID:       f.nextMessage,
		Time:     1_767_225_600_000 + f.nextMessage,
		Type:     body.Type,
		Username: username,
		Hash:     fmt.Sprintf("%016x", f.nextMessage),
	})
	writeResult(writer, CodeSuccess, "", nil)
}

// handleReceive streams every stored message after from_id as one
// server-sent event per message, then closes the stream.
func (f *fakeStealthIM) handleReceive(writer http.ResponseWriter, request *http.Request, username string) {
	fromID, _ := strconv.ParseInt(request.URL.Query().Get("from_id"), 10, 64)

	f.mu.Lock()
	group, _, ok := f.withGroup(writer, request, username, RoleMember)
	if !ok {
		f.mu.Unlock()
		return
	}
	var pending []Message
	for _, message := range group.messages {
		if message.ID > fromID {
			pending = append(pending, message)
		}
	}
	f.mu.Unlock()

	writer.Header().Set("Content-Type", "text/event-stream")
	for _, message := range pending {
		writeEvent(writer, map[string]any{
			"result": Result{Code: CodeSuccess},
			"msg":    []Message{message},
		})
	}
}

// writeEvent writes one server-sent event with a JSON data payload and
// flushes it.
func writeEvent(writer http.ResponseWriter, value any) {
	encoded, _ := json.Marshal(value)
	fmt.Fprintf(writer, "data: %s\n\n", encoded)
	if flusher, ok := writer.(http.Flusher); ok {
		flusher.Flush()
	}
}
