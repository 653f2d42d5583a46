// Copyright 2026 The StealthIM Go Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stealthim/stealthim-go/lib/clock"
	"github.com/stealthim/stealthim-go/lib/logging"
	"github.com/stealthim/stealthim-go/lib/testutil"
)

// collect drains a message sequence into messages and the final error.
func collect(sequence func(func(Message, error) bool)) ([]Message, error) {
	var messages []Message
	for message, err := range sequence {
		if err != nil {
			return messages, err
		}
		messages = append(messages, message)
	}
	return messages, nil
}

func successFrame(messages ...Message) map[string]any {
	return map[string]any{"result": Result{Code: CodeSuccess}, "msg": messages}
}

func TestSendThenReceive(t *testing.T) {
	_, server := newFakeStealthIM(t)
	ctx := context.Background()
	alice := login(t, server, "alice", "pw123")

	group, err := CreateGroup(ctx, alice, "chat")
	if err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}
	for _, text := range []string{"hello", "how are you", "bye"} {
		if _, err := group.SendText(ctx, text); err != nil {
			t.Fatalf("SendText(%q): %v", text, err)
		}
	}

	messages, err := collect(group.ReceiveText(ctx))
	if err != nil {
		t.Fatalf("ReceiveText: %v", err)
	}
	var texts []string
	for _, message := range messages {
		texts = append(texts, message.Content)
		if message.Username != "alice" || message.GroupID != group.ID() || message.Type != MessageText {
			t.Errorf("unexpected message metadata: %+v", message)
		}
	}
	if strings.Join(texts, "|") != "hello|how are you|bye" {
		t.Errorf("messages out of send order: %v", texts)
	}

	// Ranging again opens a new stream from the same cursor.
	again, err := collect(group.ReceiveText(ctx))
	if err != nil || len(again) != 3 {
		t.Errorf("second range: %d messages, err %v", len(again), err)
	}

	// An explicit cursor skips what was already seen.
	resumed, err := collect(group.ReceiveMessages(ctx, ReceiveOptions{FromID: messages[0].ID}))
	if err != nil {
		t.Fatalf("ReceiveMessages: %v", err)
	}
	if len(resumed) != 2 || resumed[0].Content != "how are you" {
		t.Errorf("resumed stream = %+v", resumed)
	}
}

func TestReceive_RequestShape(t *testing.T) {
	user := newTestUser(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assertAuth(t, request, "test-token")
		if request.Method != http.MethodGet || request.URL.Path != "/api/v1/message/9" {
			t.Errorf("unexpected request %s %s", request.Method, request.URL.Path)
		}
		query := request.URL.Query()
		if query.Get("from_id") != "0" || query.Get("sync") != "true" {
			t.Errorf("unexpected query %q", request.URL.RawQuery)
		}
		if request.Header.Get("Accept") != "text/event-stream" {
			t.Errorf("Accept = %q", request.Header.Get("Accept"))
		}
		if request.Header.Get(RequestIDHeader) == "" {
			t.Error("missing request ID")
		}
	}))

	messages, err := collect(OpenGroup(user, 9).ReceiveText(context.Background()))
	if err != nil || len(messages) != 0 {
		t.Errorf("empty stream: %v, %v", messages, err)
	}
}

func TestReceive_TransientFrameReconnects(t *testing.T) {
	var requests atomic.Int32
	var fromIDs []string
	var requestIDs []string
	var mu sync.Mutex
	user := newTestUser(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		mu.Lock()
		fromIDs = append(fromIDs, request.URL.Query().Get("from_id"))
		requestIDs = append(requestIDs, request.Header.Get(RequestIDHeader))
		mu.Unlock()

		switch requests.Add(1) {
		case 1:
			writeEvent(writer, successFrame(Message{ID: 1, Content: "a"}))
			writeEvent(writer, map[string]any{"result": Result{Code: 901, Message: "busy"}})
			writeEvent(writer, successFrame(Message{ID: 99, Content: "after the transient frame"}))
		case 2:
			writeEvent(writer, map[string]any{"result": Result{Code: 902, Message: "busy"}})
		default:
			// Replays message 1 regardless of the cursor.
			writeEvent(writer, successFrame(Message{ID: 1, Content: "a"}, Message{ID: 2, Content: "b"}))
			writeEvent(writer, successFrame(Message{ID: 3, Content: "c"}))
		}
	}))

	messages, err := collect(OpenGroup(user, 1).ReceiveText(context.Background()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var ids []int64
	for _, message := range messages {
		ids = append(ids, message.ID)
	}
	if fmt.Sprint(ids) != "[1 2 3]" {
		t.Errorf("ids = %v", ids)
	}
	if requests.Load() != 3 {
		t.Errorf("expected 3 requests, got %d", requests.Load())
	}
	if fmt.Sprint(fromIDs) != "[0 1 1]" {
		t.Errorf("from_id per request = %v", fromIDs)
	}
	for _, id := range requestIDs {
		if id == "" || id != requestIDs[0] {
			t.Errorf("request IDs differ across reconnects: %v", requestIDs)
			break
		}
	}
}

func TestReceive_TransientThenClose(t *testing.T) {
	var requests atomic.Int32
	httpServer := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		requests.Add(1)
		fmt.Fprint(writer, "data: {\"result\":{\"code\":950,\"msg\":\"busy\"}}\n\n")
	}))
	defer httpServer.Close()

	server, err := NewServer(ServerConfig{
		URL:    httpServer.URL,
		Logger: logging.Discard(),
		Retry:  &RetryPolicy{MaxRetries: 3},
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	user, err := ResumeUser(server, "alice", "test-token")
	if err != nil {
		t.Fatalf("ResumeUser: %v", err)
	}
	defer user.Close()

	messages, err := collect(OpenGroup(user, 1).ReceiveText(context.Background()))
	var exhausted *RetryExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected *RetryExhaustedError, got %T: %v", err, err)
	}
	if exhausted.Attempts != 4 || exhausted.Last.Code != 950 || exhausted.Last.Message != "busy" {
		t.Errorf("unexpected error: %+v", exhausted)
	}
	if len(messages) != 0 {
		t.Errorf("expected no messages, got %v", messages)
	}
	if requests.Load() != 4 {
		t.Errorf("expected 4 requests (1 + 3 retries), got %d", requests.Load())
	}
}

func TestReceive_ReconnectWaitsOnClock(t *testing.T) {
	fakeClock := clock.Fake(time.Unix(1_700_000_000, 0))

	var requests atomic.Int32
	httpServer := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if requests.Add(1) <= 2 {
			writeEvent(writer, map[string]any{"result": Result{Code: 901, Message: "busy"}})
			return
		}
		writeEvent(writer, successFrame(Message{ID: 1, Content: "finally"}))
	}))
	defer httpServer.Close()

	server, err := NewServer(ServerConfig{
		URL:    httpServer.URL,
		Logger: logging.Discard(),
		Clock:  fakeClock,
		Retry:  &RetryPolicy{MaxRetries: 3, Delay: 100 * time.Millisecond, MaxDelay: time.Second},
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	user, err := ResumeUser(server, "alice", "test-token")
	if err != nil {
		t.Fatalf("ResumeUser: %v", err)
	}
	defer user.Close()

	type outcome struct {
		messages []Message
		err      error
	}
	done := make(chan outcome, 1)
	go func() {
		messages, err := collect(OpenGroup(user, 1).ReceiveText(context.Background()))
		done <- outcome{messages, err}
	}()

	for index, delay := range []time.Duration{100 * time.Millisecond, 200 * time.Millisecond} {
		fakeClock.WaitForTimers(1)
		if got := int(requests.Load()); got != index+1 {
			t.Fatalf("before reconnect %d: expected %d requests, got %d", index+1, index+1, got)
		}
		fakeClock.Advance(delay - time.Millisecond)
		if fakeClock.PendingCount() != 1 {
			t.Fatalf("reconnect %d happened before its %s delay elapsed", index+1, delay)
		}
		fakeClock.Advance(time.Millisecond)
	}

	result := testutil.RequireReceive(t, done, 5*time.Second, "waiting for the stream")
	if result.err != nil {
		t.Fatalf("ReceiveText: %v", result.err)
	}
	if len(result.messages) != 1 || result.messages[0].Content != "finally" {
		t.Errorf("messages = %+v", result.messages)
	}
}

func TestReceive_TooManyTransientFrames(t *testing.T) {
	user := newTestUser(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writeEvent(writer, successFrame(Message{ID: 1, Content: "a"}))
		for range 4 {
			writeEvent(writer, map[string]any{"result": Result{Code: 950, Message: "overloaded"}})
		}
		writeEvent(writer, successFrame(Message{ID: 2, Content: "never"}))
	}))

	messages, err := collect(OpenGroup(user, 1).ReceiveText(context.Background()))
	var exhausted *RetryExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected *RetryExhaustedError, got %T: %v", err, err)
	}
	if exhausted.Attempts != 4 || exhausted.Last.Code != 950 {
		t.Errorf("unexpected error: %+v", exhausted)
	}
	if len(messages) != 1 {
		t.Errorf("expected the message before the failure, got %v", messages)
	}
}

func TestReceive_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		check   func(t *testing.T, err error)
	}{
		{
			name: "definitive code",
			handler: func(writer http.ResponseWriter, request *http.Request) {
				writeEvent(writer, map[string]any{"result": Result{Code: 1203, Message: "not a member"}})
			},
			check: func(t *testing.T, err error) {
				if !IsResultCode(err, 1203) {
					t.Errorf("expected ResultError 1203, got %v", err)
				}
			},
		},
		{
			name: "malformed frame",
			handler: func(writer http.ResponseWriter, request *http.Request) {
				fmt.Fprint(writer, "data: {not json\n\n")
			},
			check: func(t *testing.T, err error) {
				var schemaErr *SchemaError
				if !errors.As(err, &schemaErr) {
					t.Errorf("expected *SchemaError, got %T: %v", err, err)
				}
			},
		},
		{
			name: "frame without result",
			handler: func(writer http.ResponseWriter, request *http.Request) {
				writeEvent(writer, map[string]any{"msg": []Message{}})
			},
			check: func(t *testing.T, err error) {
				var schemaErr *SchemaError
				if !errors.As(err, &schemaErr) {
					t.Errorf("expected *SchemaError, got %T: %v", err, err)
				}
			},
		},
		{
			name: "HTTP error",
			handler: func(writer http.ResponseWriter, request *http.Request) {
				http.Error(writer, "forbidden", http.StatusForbidden)
			},
			check: func(t *testing.T, err error) {
				if !IsHTTPStatus(err, http.StatusForbidden) {
					t.Errorf("expected TransportError 403, got %v", err)
				}
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			user := newTestUser(t, test.handler)
			var errs []error
			for _, err := range OpenGroup(user, 1).ReceiveText(context.Background()) {
				if err != nil {
					errs = append(errs, err)
				}
			}
			if len(errs) != 1 {
				t.Fatalf("expected exactly one error, got %v", errs)
			}
			test.check(t, errs[0])
		})
	}
}

func TestReceive_BreakClosesStream(t *testing.T) {
	disconnected := make(chan struct{})
	user := newTestUser(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writeEvent(writer, successFrame(Message{ID: 1, Content: "first"}))
		<-request.Context().Done()
		close(disconnected)
	}))

	for message, err := range OpenGroup(user, 1).ReceiveText(context.Background()) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if message.Content != "first" {
			t.Errorf("Content = %q", message.Content)
		}
		break
	}

	testutil.RequireClosed(t, disconnected, 5*time.Second, "server should observe the client going away")
}

func TestReceive_ContextCancel(t *testing.T) {
	user := newTestUser(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writeEvent(writer, successFrame(Message{ID: 1, Content: "first"}))
		<-request.Context().Done()
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var received int
	var finalErr error
	for message, err := range OpenGroup(user, 1).ReceiveText(ctx) {
		if err != nil {
			finalErr = err
			break
		}
		received++
		if message.ID == 1 {
			cancel()
		}
	}
	if received != 1 {
		t.Errorf("received %d messages", received)
	}
	if !errors.Is(finalErr, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", finalErr)
	}
}

func TestEventReader(t *testing.T) {
	body := strings.Join([]string{
		": keep-alive",
		"event: message",
		"id: 7",
		`data: {"a":`,
		`data: 1}`,
		"",
		"",
		"data:{\"b\":2}\r",
		"\r",
		`{"c":3}`,
		`data: {"d":4}`,
	}, "\n")

	reader := newEventReader(strings.NewReader(body))
	var payloads []string
	for {
		payload, err := reader.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		payloads = append(payloads, string(payload))
	}

	want := []string{"{\"a\":\n1}", `{"b":2}`, `{"c":3}`, `{"d":4}`}
	if fmt.Sprintf("%q", payloads) != fmt.Sprintf("%q", want) {
		t.Errorf("payloads = %q, want %q", payloads, want)
	}
}
