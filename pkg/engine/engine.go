// Package engine implements allowlist.Engine against a real FRR routing
// engine via vtysh, either locally or over SSH.
package engine

import (
	"context"
	"fmt"
	"strings"
)

// vtyshTextArgs returns the argument list that dumps the running
// configuration.
func vtyshTextArgs() []string {
	return []string{"-c", "show running-config"}
}

// vtyshPushArgs builds the "configure terminal ... end" argument list for
// a command batch, one "-c" per line.
func vtyshPushArgs(commands []string) []string {
	args := make([]string, 0, 2*(len(commands)+2))
	args = append(args, "-c", "configure terminal")
	for _, cmd := range commands {
		args = append(args, "-c", cmd)
	}
	args = append(args, "-c", "end")
	return args
}

// vtyshSoftReloadArgs builds the argument list for a soft inbound reload.
func vtyshSoftReloadArgs(args []string) []string {
	return []string{"-c", strings.Join(args, " ")}
}

// splitLines splits vtysh output into lines, trimming a trailing carriage
// return from each. Empty lines are kept.
func splitLines(output string) []string {
	raw := strings.Split(output, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		lines = append(lines, strings.TrimRight(l, "\r"))
	}
	return lines
}

// commandRunner abstracts "run vtysh with these args, get back stdout and
// an error/exit status" so LocalExecutor and SSHExecutor share push/text
// logic and differ only in how the command is actually launched.
type commandRunner interface {
	run(ctx context.Context, args []string) (stdout string, err error)
}

func text(ctx context.Context, r commandRunner) ([]string, error) {
	out, err := r.run(ctx, vtyshTextArgs())
	if err != nil {
		return nil, fmt.Errorf("vtysh show running-config: %w", err)
	}
	return splitLines(out), nil
}

func push(ctx context.Context, r commandRunner, commands []string) (bool, error) {
	if len(commands) == 0 {
		return true, nil
	}
	_, err := r.run(ctx, vtyshPushArgs(commands))
	if err != nil {
		return false, fmt.Errorf("vtysh push %d commands: %w", len(commands), err)
	}
	return true, nil
}

func runCommand(ctx context.Context, r commandRunner, args []string) (bool, string, string, error) {
	out, err := r.run(ctx, vtyshSoftReloadArgs(args))
	if err != nil {
		return false, out, err.Error(), err
	}
	return true, out, "", nil
}
