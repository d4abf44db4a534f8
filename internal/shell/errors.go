package shell

import (
	"errors"
	"fmt"
)

// Sentinel errors, one per failure kind. Every *Error unwraps to the
// sentinel of its kind, so callers can branch with errors.Is.
var (
	ErrSpawn         = errors.New("shell could not be started")
	ErrWrite         = errors.New("shell rejected input")
	ErrTimeout       = errors.New("timed out waiting for command output")
	ErrProcessDied   = errors.New("shell process died")
	ErrSessionClosed = errors.New("session is closed")
)

// Kind classifies a shell failure.
type Kind int

const (
	KindSpawn Kind = iota
	KindWrite
	KindTimeout
	KindProcessDied
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindSpawn:
		return "spawn"
	case KindWrite:
		return "write"
	case KindTimeout:
		return "timeout"
	case KindProcessDied:
		return "process_died"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindSpawn:
		return ErrSpawn
	case KindWrite:
		return ErrWrite
	case KindTimeout:
		return ErrTimeout
	default:
		return ErrProcessDied
	}
}

// Error is the error type returned by sessions, processes and the registry.
type Error struct {
	Kind      Kind
	Op        string // "spawn", "write", "run", ...
	SessionID string
	Err       error // underlying cause, may be nil
}

func newError(kind Kind, op, sessionID string, err error) *Error {
	return &Error{Kind: kind, Op: op, SessionID: sessionID, Err: err}
}

func (e *Error) Error() string {
	msg := "shell " + e.Op
	if e.SessionID != "" {
		msg += " " + e.SessionID
	}
	msg += ": " + e.Kind.sentinel().Error()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind sentinel and the cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind.sentinel()}
	}
	return []error{e.Kind.sentinel(), e.Err}
}

// Retryable reports whether running the command again can succeed.
// Everything except a spawn failure is answered by a respawn on the next
// registry access.
func (e *Error) Retryable() bool {
	return e.Kind != KindSpawn
}

// KindOf extracts the failure kind from err.
func KindOf(err error) (Kind, bool) {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind, true
	}
	return 0, false
}

// IsRetryable reports whether err is a shell failure that a retry may recover.
func IsRetryable(err error) bool {
	var se *Error
	return errors.As(err, &se) && se.Retryable()
}

func errorf(kind Kind, op, sessionID, format string, args ...any) *Error {
	return newError(kind, op, sessionID, fmt.Errorf(format, args...))
}
