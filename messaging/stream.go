// Copyright 2026 The StealthIM Go Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/stealthim/stealthim-go/lib/netutil"
)

// ReceiveOptions selects where a message stream starts.
type ReceiveOptions struct {
	// FromID is the message ID cursor sent to the server as from_id.
	// Zero asks for the stream from the beginning of the server's sync
	// window.
	FromID int64
}

// ReceiveText streams the group's messages from cursor zero. See
// ReceiveMessages.
func (g *Group) ReceiveText(ctx context.Context) iter.Seq2[Message, error] {
	return g.ReceiveMessages(ctx, ReceiveOptions{})
}

// ReceiveMessages returns a lazy sequence of the group's messages.
// Each range over the sequence opens one streaming GET; ranging again
// opens a new one.
//
// Messages of a successful frame are yielded in the order the server
// sent them. A frame carrying a transient code closes the response;
// after the retry policy's back-off the GET is re-issued from the last
// yielded message, and messages already yielded are not repeated. More
// than MaxRetries transient responses without a new message in between
// end the sequence with a *RetryExhaustedError. Any other failure code
// ends it with a *ResultError, a frame that does not decode ends it
// with a *SchemaError, and an HTTP status other than 200 ends it with
// a *TransportError. An error is yielded at most once, as the last
// element. The sequence ends without an error when the server closes
// the stream.
//
// Breaking out of the range loop or cancelling ctx closes the
// response body.
//
//	for message, err := range group.ReceiveMessages(ctx, messaging.ReceiveOptions{}) {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println(message.Username, message.Content)
//	}
func (g *Group) ReceiveMessages(ctx context.Context, options ReceiveOptions) iter.Seq2[Message, error] {
	return func(yield func(Message, error) bool) {
		server := g.user.server

		streamContext, cancel := context.WithCancel(ctx)
		defer cancel()

		var streamErr error
		start := server.clock.Now()
		defer func() {
			server.metrics.observeRequest(receiveOperation, outcomeOf(streamErr), server.clock.Now().Sub(start))
		}()
		fail := func(err error) {
			streamErr = err
			yield(Message{}, fmt.Errorf("messaging: %s: %w", receiveOperation, err))
		}

		stream := &messageStream{
			group:     g,
			yield:     yield,
			cursor:    options.FromID,
			requestID: uuid.NewString(),
		}
		policy := server.retry
		retries := 0
		for {
			transient, progressed, err := stream.read(streamContext)
			if err != nil {
				fail(err)
				return
			}
			if transient == nil {
				return
			}

			if progressed {
				retries = 0
			}
			retries++
			logAttrs := append(g.logAttrs(),
				"request_id", stream.requestID,
				"code", transient.Code,
				"message", transient.Message,
				"consecutive", retries,
			)
			if retries > policy.MaxRetries {
				server.logger.Warn("stealthim message stream still transient, giving up", logAttrs...)
				fail(&RetryExhaustedError{Operation: receiveOperation, Attempts: retries, Last: *transient})
				return
			}

			delay := policy.backoff(retries - 1)
			server.logger.Warn("stealthim message stream transient, reconnecting",
				append(logAttrs, "from_id", stream.cursor, "delay", delay)...)
			server.metrics.observeRetry(receiveOperation)
			if err := sleep(streamContext, server.clock, delay); err != nil {
				fail(fmt.Errorf("waiting to reconnect: %w", err))
				return
			}
		}
	}
}

const receiveOperation = "receive messages"

// messageStream is the state of one ranged ReceiveMessages sequence
// across reconnects.
type messageStream struct {
	group     *Group
	yield     func(Message, error) bool
	requestID string

	// cursor is the from_id of the next GET. After a reconnect it is
	// the last yielded message ID.
	cursor int64
	// delivered is the highest message ID yielded so far. Messages at
	// or below it are replays and are dropped.
	delivered int64
}

// read opens one streaming GET and yields its messages. It returns the
// transient result that interrupted the response, or nil when the body
// ended or the consumer stopped. progressed reports whether any new
// message was yielded.
func (s *messageStream) read(ctx context.Context) (transient *Result, progressed bool, err error) {
	server := s.group.user.server
	request := Request{
		Operation: receiveOperation,
		Method:    http.MethodGet,
		Path:      messagePath(s.group.id),
		Query: url.Values{
			"from_id": {strconv.FormatInt(s.cursor, 10)},
			"sync":    {"true"},
		},
		Header:  http.Header{"Accept": {"text/event-stream"}},
		Session: s.group.user.session,
	}

	httpRequest, err := server.newHTTPRequest(ctx, request, nil, s.requestID)
	if err != nil {
		return nil, false, err
	}

	server.metrics.observeAttempt(receiveOperation)
	response, err := server.httpClient.Do(httpRequest)
	if err != nil {
		return nil, false, fmt.Errorf("%s %s: %w", request.Method, request.Path, err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, false, &TransportError{
			Method:     request.Method,
			Path:       request.Path,
			StatusCode: response.StatusCode,
			Body:       netutil.ErrorBody(response.Body),
		}
	}

	logAttrs := append(s.group.logAttrs(), "from_id", s.cursor, "request_id", s.requestID)
	server.logger.Debug("stealthim message stream opened", logAttrs...)

	events := newEventReader(response.Body)
	for {
		payload, err := events.next()
		if errors.Is(err, io.EOF) {
			server.logger.Debug("stealthim message stream ended", logAttrs...)
			return nil, progressed, nil
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				err = ctxErr
			}
			return nil, progressed, fmt.Errorf("reading stream: %w", err)
		}

		var frame messageFrame
		if err := json.Unmarshal(payload, &frame); err != nil {
			return nil, progressed, &SchemaError{Operation: receiveOperation, Reason: "decoding stream frame", Err: err}
		}
		if frame.Result == nil {
			return nil, progressed, &SchemaError{Operation: receiveOperation, Reason: "stream frame has no result object"}
		}

		code := frame.Result.Code
		if IsTransient(code) {
			if s.delivered > 0 {
				s.cursor = s.delivered
			}
			return frame.Result, progressed, nil
		}
		if code != CodeSuccess {
			return nil, progressed, &ResultError{Operation: receiveOperation, Code: code, Message: frame.Result.Message}
		}

		for _, message := range frame.Messages {
			if s.delivered > 0 && message.ID <= s.delivered {
				continue
			}
			s.delivered = max(s.delivered, message.ID)
			progressed = true
			server.metrics.observeStreamMessage()
			if !s.yield(message, nil) {
				return nil, progressed, nil
			}
		}
	}
}

// eventReader splits a server-sent event body into data payloads.
// Multiple data lines of one event are joined with newlines; comment,
// event, id and retry lines are ignored. A bare JSON line outside an
// event is taken as a whole payload, for servers that stream
// newline-delimited JSON.
type eventReader struct {
	scanner *bufio.Scanner
}

func newEventReader(body io.Reader) *eventReader {
	return &eventReader{scanner: netutil.NewFrameScanner(body)}
}

// next returns the next payload, or io.EOF at the end of the body.
func (r *eventReader) next() ([]byte, error) {
	var data []byte
	hasData := false
	for r.scanner.Scan() {
		line := r.scanner.Bytes()
		if len(line) == 0 {
			if hasData {
				return data, nil
			}
			continue
		}
		if line[0] == ':' {
			continue
		}
		if line[0] == '{' && !hasData {
			return bytes.Clone(line), nil
		}

		field, value, _ := bytes.Cut(line, []byte(":"))
		if string(field) != "data" {
			continue
		}
		value = bytes.TrimPrefix(value, []byte(" "))
		if hasData {
			data = append(data, '\n')
		}
		data = append(data, value...)
		hasData = true
	}
	if err := r.scanner.Err(); err != nil {
		return nil, err
	}
	if hasData {
		return data, nil
	}
	return nil, io.EOF
}
