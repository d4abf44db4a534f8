package terminal

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kodexArg/terminal-singleton/internal/shell"
)

// ErrChangeDirectory reports that cd printed a complaint instead of
// changing directory.
var ErrChangeDirectory = errors.New("cd failed")

// Terminal is the public face of the shared shell: every call goes through
// the registry, so a dead or abandoned shell is replaced transparently.
type Terminal struct {
	registry *shell.Registry
	logger   *zap.Logger
}

// New creates a terminal over registry
func New(registry *shell.Registry, logger *zap.Logger) *Terminal {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Terminal{registry: registry, logger: logger}
}

// Registry returns the underlying session registry
func (t *Terminal) Registry() *shell.Registry {
	return t.registry
}

// Run executes cmd in the shared shell and returns its output.
//
// A write failure means the command never reached the shell, so it is
// retried once on a fresh session. Every other failure is returned as is.
func (t *Terminal) Run(ctx context.Context, cmd string) (string, error) {
	for attempt := 1; ; attempt++ {
		sess, err := t.registry.Get(ctx)
		if err != nil {
			return "", err
		}

		out, err := sess.Run(ctx, cmd)
		if err == nil {
			return out, nil
		}
		if attempt == 1 && errors.Is(err, shell.ErrWrite) {
			t.logger.Warn("Shell rejected command, retrying on a fresh session",
				zap.String("session_id", sess.ID().String()),
				zap.Error(err))
			continue
		}
		return "", err
	}
}

// LastOutput returns the current session's last output, or "" when no
// session exists. It never spawns a shell.
func (t *Terminal) LastOutput() string {
	if sess := t.registry.Current(); sess != nil {
		return sess.LastOutput()
	}
	return ""
}

// FullLog returns the current session's log, or "" when no session
// exists. It never spawns a shell.
func (t *Terminal) FullLog() string {
	if sess := t.registry.Current(); sess != nil {
		return sess.FullLog()
	}
	return ""
}

// Info describes the current session, or returns nil when there is none.
func (t *Terminal) Info() *shell.Info {
	sess := t.registry.Current()
	if sess == nil {
		return nil
	}
	info := sess.Info()
	return &info
}

// WorkingDirectory returns the shell's current directory
func (t *Terminal) WorkingDirectory(ctx context.Context) (string, error) {
	return t.Run(ctx, "pwd")
}

// ChangeDirectory runs "cd path" and returns the resulting directory.
// The path is passed to the shell verbatim, so quoting and expansion are
// the caller's to choose. Anything cd prints is reported as a failure.
func (t *Terminal) ChangeDirectory(ctx context.Context, path string) (string, error) {
	out, err := t.Run(ctx, "cd "+path)
	if err != nil {
		return "", err
	}
	if out != "" {
		return "", fmt.Errorf("%w: %s", ErrChangeDirectory, out)
	}
	return t.WorkingDirectory(ctx)
}

// Close terminates the shared shell. The next Run starts a new one.
func (t *Terminal) Close() error {
	return t.registry.Close()
}
