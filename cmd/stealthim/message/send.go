// Copyright 2026 The StealthIM Go Authors
// SPDX-License-Identifier: Apache-2.0

package message

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/stealthim/stealthim-go/cmd/stealthim/cli"
	groupcmd "github.com/stealthim/stealthim-go/cmd/stealthim/group"
	"github.com/stealthim/stealthim-go/messaging"
)

type sendParams struct {
	cli.ConnectionConfig
	Type string `json:"type" flag:"type,t" desc:"message type: text, image, large_emoji, emoji, file, card, inner_link, recall" default:"text"`
}

func sendCommand() *cli.Command {
	var params sendParams
	const usage = "stealthim message send [flags] <group-id> <content>"

	return &cli.Command{
		Name:    "send",
		Summary: "Send a message to a group",
		Description: `Send a message to a group. The content "-" reads the message from
stdin. Non-text types carry whatever content the server expects for
them (a file hash, a message ID to recall, ...).`,
		Usage: usage,
		Examples: []cli.Example{
			{Description: "Send a text message", Command: "stealthim message send 42 'see you at 5'"},
			{Description: "Send stdin as a message", Command: "uptime | stealthim message send 42 -"},
			{Description: "Recall message 1337", Command: "stealthim message send --type recall 42 1337"},
		},
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("send", &params) },
		Run: func(args []string) error {
			if err := cli.RequireArgs(args, 2, usage); err != nil {
				return err
			}
			groupID, err := groupcmd.ParseGroupID(args[0])
			if err != nil {
				return err
			}
			messageType, err := messaging.ParseMessageType(params.Type)
			if err != nil {
				return cli.Validation("%w", err)
			}
			content, err := readContent(args[1], os.Stdin)
			if err != nil {
				return err
			}

			connection, user, err := params.Resume()
			if err != nil {
				return err
			}
			defer connection.Close()
			defer user.Close()

			ctx, cancel := cli.SignalContext()
			defer cancel()

			return send(ctx, messaging.OpenGroup(user, groupID), content, messageType)
		},
	}
}

func send(ctx context.Context, group *messaging.Group, content string, messageType messaging.MessageType) error {
	var err error
	if messageType == messaging.MessageText {
		_, err = group.SendText(ctx, content)
	} else {
		_, err = group.SendMessage(ctx, content, messageType)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Sent %s message to group %d\n", messageType, group.ID())
	return nil
}

// readContent returns argument, or all of stdin without the trailing
// newline when argument is "-".
func readContent(argument string, stdin io.Reader) (string, error) {
	if argument != "-" {
		return argument, nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", cli.Internal("reading message from stdin: %w", err)
	}
	content := strings.TrimRight(string(data), "\r\n")
	if content == "" {
		return "", cli.Validation("empty message on stdin")
	}
	return content, nil
}
