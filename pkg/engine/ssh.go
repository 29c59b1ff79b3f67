package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"
)

// SSHExecutor runs vtysh over an SSH session, for lab/test harnesses and
// multi-node development setups where bgpallowlistd runs off-box.
type SSHExecutor struct {
	mu        sync.Mutex
	sshClient *ssh.Client
	vtysh     string
}

// NewSSHExecutor dials host:port with the given credentials and returns an
// executor that runs vtysh there. Host key verification is intentionally
// permissive, matching the lab-harness trust model this executor targets;
// production deployments should use LocalExecutor instead.
func NewSSHExecutor(host, user, pass string, port int) (*SSHExecutor, error) {
	if port == 0 {
		port = 22
	}
	config := &ssh.ClientConfig{
		User:            user,
		Auth:            []ssh.AuthMethod{ssh.Password(pass)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         30 * time.Second,
	}

	addr := fmt.Sprintf("%s:%d", host, port)
	client, err := ssh.Dial("tcp", addr, config)
	if err != nil {
		return nil, fmt.Errorf("SSH dial %s@%s: %w", user, addr, err)
	}
	return &SSHExecutor{sshClient: client, vtysh: "vtysh"}, nil
}

// Close closes the underlying SSH connection.
func (e *SSHExecutor) Close() error {
	return e.sshClient.Close()
}

func (e *SSHExecutor) run(ctx context.Context, args []string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	session, err := e.sshClient.NewSession()
	if err != nil {
		return "", fmt.Errorf("SSH session: %w", err)
	}
	defer session.Close()

	cmd := e.vtysh + " " + quoteArgs(args)
	output, err := session.CombinedOutput(cmd)
	if err != nil {
		return string(output), fmt.Errorf("SSH exec %q: %w", cmd, err)
	}
	return string(output), nil
}

func (e *SSHExecutor) Text(ctx context.Context) ([]string, error) {
	return text(ctx, e)
}

func (e *SSHExecutor) Push(ctx context.Context, commands []string) (bool, error) {
	return push(ctx, e, commands)
}

func (e *SSHExecutor) RunCommand(ctx context.Context, args []string) (bool, string, string, error) {
	return runCommand(ctx, e, args)
}

// quoteArgs joins vtysh's "-c <line>" pairs into a single shell command
// string with each line single-quoted, since multiple "-c" flags on one
// invocation is how vtysh chains a configuration session.
func quoteArgs(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		if a == "-c" {
			quoted[i] = a
			continue
		}
		quoted[i] = "'" + strings.ReplaceAll(a, "'", `'\''`) + "'"
	}
	return strings.Join(quoted, " ")
}
