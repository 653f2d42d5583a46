// Copyright 2026 The StealthIM Go Authors
// SPDX-License-Identifier: Apache-2.0

package message

import (
	"fmt"
	"hash/fnv"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/stealthim/stealthim-go/messaging"
)

// usernameColors are ANSI palette entries that read well on dark and
// light backgrounds.
var usernameColors = []lipgloss.Color{"1", "2", "3", "4", "5", "6", "9", "10", "12", "13", "14"}

// terminalWriter renders messages as styled lines:
//
//	2026-01-01 09:30:05 alice: good morning
//	2026-01-01 09:30:09 bob: [image] 3f2a...
//
// Styling is dropped automatically when w is not a terminal.
type terminalWriter struct {
	writer   io.Writer
	renderer *lipgloss.Renderer
	stamp    lipgloss.Style
	tag      lipgloss.Style
	recalled lipgloss.Style
	location *time.Location
}

func newTerminalWriter(w io.Writer) *terminalWriter {
	renderer := lipgloss.NewRenderer(w)
	return &terminalWriter{
		writer:   w,
		renderer: renderer,
		stamp:    renderer.NewStyle().Faint(true),
		tag:      renderer.NewStyle().Foreground(lipgloss.Color("11")),
		recalled: renderer.NewStyle().Italic(true).Faint(true),
		location: time.Local,
	}
}

func (w *terminalWriter) write(message messaging.Message) error {
	_, err := fmt.Fprintln(w.writer, w.format(message))
	return err
}

func (w *terminalWriter) format(message messaging.Message) string {
	stamp := w.stamp.Render(time.UnixMilli(message.Time).In(w.location).Format(time.DateTime))
	name := w.renderer.NewStyle().Bold(true).Foreground(usernameColor(message.Username)).Render(message.Username)

	var body string
	switch message.Type {
	case messaging.MessageText:
		body = message.Content
	case messaging.MessageRecall:
		body = w.recalled.Render("recalled message " + message.Content)
	default:
		body = w.tag.Render("["+message.Type.String()+"]") + " " + message.Content
	}
	return stamp + " " + name + ": " + body
}

// usernameColor picks a stable color per username.
func usernameColor(username string) lipgloss.Color {
	hash := fnv.New32a()
	hash.Write([]byte(username))
	return usernameColors[hash.Sum32()%uint32(len(usernameColors))]
}
