// Copyright 2026 The StealthIM Go Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"strings"
	"testing"

	"github.com/stealthim/stealthim-go/cmd/stealthim/cli"
)

// walk visits every command in the tree with its full path.
func walk(command *cli.Command, path string, visit func(*cli.Command, string)) {
	visit(command, path)
	for _, sub := range command.Subcommands {
		walk(sub, path+" "+sub.Name, visit)
	}
}

func TestRoot_Tree(t *testing.T) {
	want := map[string]bool{
		"stealthim ping":            false,
		"stealthim register":        false,
		"stealthim login":           false,
		"stealthim logout":          false,
		"stealthim whoami":          false,
		"stealthim keygen":          false,
		"stealthim group create":    false,
		"stealthim group join":      false,
		"stealthim group list":      false,
		"stealthim group info":      false,
		"stealthim group members":   false,
		"stealthim group invite":    false,
		"stealthim group role":      false,
		"stealthim group kick":      false,
		"stealthim group rename":    false,
		"stealthim group passwd":    false,
		"stealthim message send":    false,
		"stealthim message receive": false,
		"stealthim version":         false,
	}

	root := Root()
	walk(root, root.Name, func(command *cli.Command, path string) {
		if _, ok := want[path]; ok {
			want[path] = true
		}
		if command != root && command.Summary == "" {
			t.Errorf("%s has no summary", path)
		}
		if command.Run == nil && len(command.Subcommands) == 0 {
			t.Errorf("%s has neither Run nor subcommands", path)
		}
	})
	for path, found := range want {
		if !found {
			t.Errorf("command %q missing from the tree", path)
		}
	}
}

func TestRoot_FlagSetsBuild(t *testing.T) {
	root := Root()
	walk(root, root.Name, func(command *cli.Command, path string) {
		if command.Flags == nil {
			return
		}
		flagSet := command.Flags()
		if strings.Contains(path, "group") || strings.Contains(path, "message") || strings.HasSuffix(path, "login") {
			if flagSet.Lookup("config") == nil || flagSet.Lookup("server") == nil {
				t.Errorf("%s lacks the connection flags", path)
			}
		}
	})
}

func TestRoot_UnknownCommand(t *testing.T) {
	err := Root().Execute([]string{"grop"})
	if err == nil || !strings.Contains(err.Error(), `did you mean "group"`) {
		t.Errorf("Execute(grop) = %v, want suggestion", err)
	}
	if code := cli.ExitCode(err); code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
}
