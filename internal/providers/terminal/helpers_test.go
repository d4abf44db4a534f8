package terminal

import (
	"os/exec"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/kodexArg/terminal-singleton/internal/shell"
)

func newTestTerminal(t *testing.T, timeout time.Duration) *Terminal {
	t.Helper()
	return newTestTerminalWith(t, func(opts *shell.Options) { opts.Timeout = timeout })
}

func newTestTerminalWith(t *testing.T, configure func(*shell.Options)) *Terminal {
	t.Helper()

	path, err := exec.LookPath("bash")
	if err != nil {
		t.Skip("bash not available")
	}

	logger := zaptest.NewLogger(t)
	opts := shell.Options{
		ShellPath: path,
		ShellArgs: []string{"--norc", "--noprofile"},
		Timeout:   5 * time.Second,
		KillGrace: 100 * time.Millisecond,
		Logger:    logger,
	}
	configure(&opts)

	term := New(shell.NewRegistry(opts), logger)
	t.Cleanup(func() { _ = term.Close() })
	return term
}
