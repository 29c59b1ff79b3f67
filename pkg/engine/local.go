package engine

import (
	"bytes"
	"context"
	"os/exec"
	"sync"
)

// LocalExecutor runs vtysh directly via os/exec, for the common case of
// bgpallowlistd running on-box alongside FRR. Calls are serialized: the
// engine's running configuration is a single mutable resource.
type LocalExecutor struct {
	mu    sync.Mutex
	vtysh string
}

// NewLocalExecutor constructs a LocalExecutor invoking the vtysh binary
// found on PATH.
func NewLocalExecutor() *LocalExecutor {
	return &LocalExecutor{vtysh: "vtysh"}
}

func (e *LocalExecutor) run(ctx context.Context, args []string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	cmd := exec.CommandContext(ctx, e.vtysh, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return out.String(), err
}

func (e *LocalExecutor) Text(ctx context.Context) ([]string, error) {
	return text(ctx, e)
}

func (e *LocalExecutor) Push(ctx context.Context, commands []string) (bool, error) {
	return push(ctx, e, commands)
}

func (e *LocalExecutor) RunCommand(ctx context.Context, args []string) (bool, string, string, error) {
	return runCommand(ctx, e, args)
}
