package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/kodexArg/terminal-singleton/internal/monitoring"
	"github.com/kodexArg/terminal-singleton/internal/shared/id"
)

var (
	errAbandoned   = errors.New("session abandoned after an unresolved command")
	errUndelivered = errors.New("shell was killed before it read the command")
)

// deliveryWindow bounds how soon after a write a silent death by signal is
// taken to mean the shell was already gone when the command was sent.
const deliveryWindow = 250 * time.Millisecond

// Session is one live interactive shell plus the outputs it has produced.
//
// Run is serialized: the shell has a single input and a single output, so
// the whole write/wait/extract sequence of a command holds the session lock.
// LastOutput and FullLog never wait for an in-flight Run.
type Session struct {
	id        id.SessionID
	shell     string
	timeout   time.Duration
	killGrace time.Duration
	startedAt time.Time

	proc    *Process
	logger  *zap.Logger
	metrics *monitoring.Metrics

	runMu sync.Mutex

	stateMu  sync.RWMutex
	history  *History
	commands int

	suspect   atomic.Bool
	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// Info is a point-in-time description of a session.
type Info struct {
	ID        string    `json:"id"`
	Shell     string    `json:"shell"`
	PID       int       `json:"pid"`
	StartedAt time.Time `json:"started_at"`
	Alive     bool      `json:"alive"`
	Suspect   bool      `json:"suspect"`
	Commands  int       `json:"commands"`
}

// NewSession spawns a shell and waits until it is ready to take commands.
func NewSession(ctx context.Context, opts Options) (*Session, error) {
	opts = opts.withDefaults()

	sid := id.NewSessionID()
	logger := opts.Logger.With(zap.String("session_id", sid.String()))

	proc, err := Spawn(opts)
	if err != nil {
		var se *Error
		if errors.As(err, &se) {
			se.SessionID = sid.String()
		}
		opts.Metrics.IncSpawnErrors()
		logger.Error("Failed to spawn shell", zap.String("shell", opts.ShellPath), zap.Error(err))
		return nil, err
	}

	s := &Session{
		id:        sid,
		shell:     opts.ShellPath,
		timeout:   opts.Timeout,
		killGrace: opts.KillGrace,
		startedAt: time.Now(),
		proc:      proc,
		logger:    logger,
		metrics:   opts.Metrics,
		history:   NewHistory(opts.LogLimit),
	}

	if err := s.prepare(ctx, opts.SettleDelay); err != nil {
		_ = proc.Terminate(opts.KillGrace)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("shell spawn %s: %w", sid, ctxErr)
		}
		opts.Metrics.IncSpawnErrors()
		logger.Error("Shell did not become ready", zap.Int("pid", proc.PID()), zap.Error(err))
		return nil, newError(KindSpawn, "spawn", sid.String(), fmt.Errorf("handshake: %v", err))
	}

	opts.Metrics.SessionStarted()
	logger.Info("Shell session started",
		zap.String("shell", s.shell),
		zap.Int("pid", proc.PID()))

	return s, nil
}

// prepare silences prompts and line editing, then discards all startup
// output up to a sync marker.
func (s *Session) prepare(ctx context.Context, settle time.Duration) error {
	// Shell startup is asynchronous to spawn; early writes can be lost.
	select {
	case <-time.After(settle):
	case <-ctx.Done():
		return ctx.Err()
	}

	frame := NewFrame(prepareLine(s.shell))
	if err := s.proc.WriteLine(frame.Line()); err != nil {
		return err
	}
	if _, err := s.proc.ReadUntil(ctx, frame.Marker, s.timeout); err != nil {
		return err
	}
	s.proc.Drain()
	return nil
}

func prepareLine(shellPath string) string {
	var setup string
	switch filepath.Base(shellPath) {
	case "zsh":
		setup = "unsetopt ZLE PROMPT_SP PROMPT_CR BEEP 2>/dev/null; PROMPT=''; RPROMPT=''; PS2=''; unset precmd_functions preexec_functions"
	case "bash":
		setup = "set +o emacs +o vi 2>/dev/null; PS1=''; PS2=''; PROMPT_COMMAND=''; set +H"
	default:
		setup = "PS1=''; PS2=''"
	}
	return setup + "; stty -echo 2>/dev/null"
}

// ID returns the session identifier
func (s *Session) ID() id.SessionID { return s.id }

// PID returns the OS process ID of the shell
func (s *Session) PID() int { return s.proc.PID() }

// Shell returns the shell executable path
func (s *Session) Shell() string { return s.shell }

// StartedAt returns when the shell was spawned
func (s *Session) StartedAt() time.Time { return s.startedAt }

// Done is closed when the shell process exits.
func (s *Session) Done() <-chan struct{} { return s.proc.Done() }

// Alive reports whether the session can still reach a running shell.
func (s *Session) Alive() bool {
	return !s.closed.Load() && s.proc.Alive()
}

// Suspect reports whether a command was left unresolved on the channel.
// A suspect session is replaced by the registry on next access.
func (s *Session) Suspect() bool {
	return s.suspect.Load()
}

// Info returns a snapshot of the session
func (s *Session) Info() Info {
	s.stateMu.RLock()
	commands := s.commands
	s.stateMu.RUnlock()

	return Info{
		ID:        s.id.String(),
		Shell:     s.shell,
		PID:       s.proc.PID(),
		StartedAt: s.startedAt,
		Alive:     s.Alive(),
		Suspect:   s.Suspect(),
		Commands:  commands,
	}
}

// Run executes cmd in the shell and returns its combined output.
//
// On failure the history is left untouched. A timeout or cancellation
// leaves the command running in the shell, so the session turns suspect
// and refuses further commands.
func (s *Session) Run(ctx context.Context, cmd string) (string, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	start := time.Now()
	if err := s.usable(); err != nil {
		return "", s.fail(err, start)
	}

	frame := NewFrame(cmd)
	if n := s.proc.Drain(); n > 0 {
		s.logger.Debug("Discarded unsolicited output", zap.Int("bytes", n))
	}

	if err := s.proc.WriteLine(frame.Line()); err != nil {
		s.suspect.Store(true)
		return "", s.fail(err, start)
	}

	written := time.Now()
	raw, err := s.proc.ReadUntil(ctx, frame.Marker, s.timeout)
	if err != nil {
		if s.undelivered(err, raw, written) {
			s.logger.Warn("Shell was killed before reading the command", zap.String("command", cmd))
			return "", s.fail(newError(KindWrite, "write", "", errUndelivered), start)
		}
		if kind, ok := KindOf(err); !ok || kind == KindTimeout {
			s.suspect.Store(true)
			s.logger.Warn("Command left unresolved, session marked suspect",
				zap.String("command", cmd),
				zap.Duration("timeout", s.timeout),
				zap.Error(err))
		}
		return "", s.fail(err, start)
	}

	out := extractOutput(raw)

	s.stateMu.Lock()
	s.history.Append(out)
	s.commands++
	s.stateMu.Unlock()

	elapsed := time.Since(start)
	s.metrics.RecordCommand("ok", elapsed, len(out))
	s.logger.Debug("Command finished",
		zap.String("command", cmd),
		zap.Duration("duration", elapsed),
		zap.Int("bytes", len(out)))

	return out, nil
}

func (s *Session) usable() error {
	switch {
	case s.closed.Load():
		return newError(KindProcessDied, "run", "", ErrSessionClosed)
	case s.suspect.Load():
		_ = s.Close()
		return newError(KindProcessDied, "run", "", errAbandoned)
	case !s.proc.Alive():
		// Nothing was sent; the shell was already dead.
		return newError(KindWrite, "run", "", s.proc.exitCause())
	}
	return nil
}

// undelivered reports whether a process-died read means the command never
// reached the shell: it was killed from outside right around the write and
// printed nothing. A shell that exits on its own, or prints anything, has
// run the command.
func (s *Session) undelivered(err error, raw []byte, written time.Time) bool {
	if kind, ok := KindOf(err); !ok || kind != KindProcessDied {
		return false
	}
	return !s.closed.Load() &&
		time.Since(written) < deliveryWindow &&
		len(bytes.TrimSpace(raw)) == 0 &&
		s.proc.Signaled()
}

// fail stamps err with this session and records it.
func (s *Session) fail(err error, start time.Time) error {
	var se *Error
	if errors.As(err, &se) {
		se.Op = "run"
		se.SessionID = s.id.String()
		s.metrics.RecordCommand(se.Kind.String(), time.Since(start), 0)
		return err
	}
	s.metrics.RecordCommand("canceled", time.Since(start), 0)
	return fmt.Errorf("shell run %s: %w", s.id, err)
}

// LastOutput returns the output of the most recent successful Run.
func (s *Session) LastOutput() string {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.history.Last()
}

// FullLog returns every retained output, newline-joined.
func (s *Session) FullLog() string {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.history.String()
}

// Close terminates the shell. The session is inert afterwards: Run fails
// with a process-died error. Close is idempotent.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.closeErr = s.proc.Terminate(s.killGrace)
		s.metrics.SessionEnded()
		if s.closeErr != nil {
			s.logger.Warn("Shell did not terminate cleanly", zap.Error(s.closeErr))
			return
		}
		s.logger.Info("Shell session closed", zap.Int("pid", s.proc.PID()))
	})
	return s.closeErr
}
