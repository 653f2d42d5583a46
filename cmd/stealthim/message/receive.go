// Copyright 2026 The StealthIM Go Authors
// SPDX-License-Identifier: Apache-2.0

package message

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/stealthim/stealthim-go/cmd/stealthim/cli"
	groupcmd "github.com/stealthim/stealthim-go/cmd/stealthim/group"
	"github.com/stealthim/stealthim-go/messaging"
)

type receiveParams struct {
	cli.ConnectionConfig
	cli.JSONOutput
	FromID int64 `json:"from_id" flag:"from-id" desc:"message ID cursor sent to the server as from_id (0 streams from the beginning of the sync window)"`
	Limit  int   `json:"limit"   flag:"limit,n" desc:"stop after this many messages (0 streams until interrupted)"`
}

func receiveCommand() *cli.Command {
	var params receiveParams
	const usage = "stealthim message receive [flags] <group-id>"

	return &cli.Command{
		Name:    "receive",
		Summary: "Stream a group's messages",
		Description: `Stream the messages of a group, oldest first, until the server closes
the stream or the command is interrupted. With --json each message is
printed as one JSON object per line.`,
		Usage: usage,
		Examples: []cli.Example{
			{Description: "Follow a group", Command: "stealthim message receive 42"},
			{Description: "Print ten messages from cursor 500 as JSON", Command: "stealthim message receive --from-id 500 -n 10 --json 42"},
		},
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("receive", &params) },
		Run: func(args []string) error {
			if err := cli.RequireArgs(args, 1, usage); err != nil {
				return err
			}
			groupID, err := groupcmd.ParseGroupID(args[0])
			if err != nil {
				return err
			}
			if params.FromID < 0 {
				return cli.Validation("--from-id must not be negative")
			}
			if params.Limit < 0 {
				return cli.Validation("--limit must not be negative")
			}

			params.Streaming = true
			connection, user, err := params.Resume()
			if err != nil {
				return err
			}
			defer connection.Close()
			defer user.Close()

			ctx, cancel := cli.SignalContext()
			defer cancel()

			var output messageWriter
			if params.OutputJSON {
				output = newJSONWriter(os.Stdout)
			} else {
				output = newTerminalWriter(os.Stdout)
			}

			group := messaging.OpenGroup(user, groupID)
			return receive(ctx, group, messaging.ReceiveOptions{FromID: params.FromID}, params.Limit, output)
		},
	}
}

// messageWriter prints one received message.
type messageWriter interface {
	write(messaging.Message) error
}

// receive copies up to limit messages (all when limit is 0) from the
// group's stream to output. Interruption ends the stream cleanly.
func receive(ctx context.Context, group *messaging.Group, options messaging.ReceiveOptions, limit int, output messageWriter) error {
	count := 0
	for message, err := range group.ReceiveMessages(ctx, options) {
		if err != nil {
			if ctx.Err() != nil && errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if err := output.write(message); err != nil {
			return cli.Internal("writing message: %w", err)
		}
		count++
		if limit > 0 && count >= limit {
			return nil
		}
	}
	return nil
}

type jsonWriter struct {
	encoder *json.Encoder
}

func newJSONWriter(w io.Writer) *jsonWriter {
	return &jsonWriter{encoder: json.NewEncoder(w)}
}

func (w *jsonWriter) write(message messaging.Message) error {
	return w.encoder.Encode(message)
}
