package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/creack/pty"
)

const (
	readBufSize = 32 * 1024
	chunkQueue  = 256

	// exitDrainWindow bounds how long a read keeps collecting output after
	// the shell has exited.
	exitDrainWindow = 100 * time.Millisecond
	// reapTimeout bounds the wait for the shell to be reaped after SIGKILL.
	reapTimeout = 2 * time.Second
)

var errProcessExited = errors.New("process has exited")

// Process owns one interactive shell attached to a pty.
type Process struct {
	cmd  *exec.Cmd
	ptmx *os.File
	pid  int

	chunks chan []byte   // pty output, closed on EOF
	eof    chan struct{} // closed once the reader has stopped
	done   chan struct{} // closed when the shell has been reaped
	quit   chan struct{} // closed by Terminate to release the reader

	waitErr error // valid after done is closed

	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

// Spawn starts opts.ShellPath on a fresh pty with input echo disabled.
func Spawn(opts Options) (*Process, error) {
	opts = opts.withDefaults()

	cmd := exec.Command(opts.ShellPath, opts.ShellArgs...)
	cmd.Dir = opts.Dir
	cmd.Env = append(os.Environ(), "TERM=dumb")
	cmd.Env = append(cmd.Env, opts.Env...)

	ptmx, tty, err := pty.Open()
	if err != nil {
		return nil, newError(KindSpawn, "spawn", "", fmt.Errorf("open pty: %w", err))
	}
	// The child keeps its own copy of the terminal side.
	defer tty.Close()

	if err := pty.Setsize(ptmx, &pty.Winsize{Rows: 24, Cols: 200}); err != nil {
		ptmx.Close()
		return nil, newError(KindSpawn, "spawn", "", fmt.Errorf("set pty size: %w", err))
	}
	if err := disableEcho(tty); err != nil {
		ptmx.Close()
		return nil, newError(KindSpawn, "spawn", "", fmt.Errorf("disable echo: %w", err))
	}

	cmd.Stdin = tty
	cmd.Stdout = tty
	cmd.Stderr = tty
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true, Setctty: true}

	if err := cmd.Start(); err != nil {
		ptmx.Close()
		return nil, newError(KindSpawn, "spawn", "", err)
	}

	p := &Process{
		cmd:    cmd,
		ptmx:   ptmx,
		pid:    cmd.Process.Pid,
		chunks: make(chan []byte, chunkQueue),
		eof:    make(chan struct{}),
		done:   make(chan struct{}),
		quit:   make(chan struct{}),
	}

	go p.readLoop()
	go p.waitLoop()

	return p, nil
}

// readLoop copies pty output into the chunk queue until EOF
func (p *Process) readLoop() {
	defer close(p.eof)
	defer close(p.chunks)

	buf := make([]byte, readBufSize)
	for {
		n, err := p.ptmx.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			select {
			case p.chunks <- data:
			case <-p.quit:
				return
			}
		}
		if err != nil {
			// EIO once every terminal-side descriptor is closed
			return
		}
	}
}

// waitLoop reaps the shell and publishes its exit
func (p *Process) waitLoop() {
	p.waitErr = p.cmd.Wait()
	close(p.done)
}

// PID returns the OS process ID of the shell.
func (p *Process) PID() int {
	return p.pid
}

// Done returns a channel that is closed when the shell has exited.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Alive reports whether the shell is still running. It never blocks.
//
// The pty reaches EOF before the waiter reaps the shell, so a closed output
// counts as dead too.
func (p *Process) Alive() bool {
	select {
	case <-p.done:
		return false
	case <-p.eof:
		return false
	default:
		return true
	}
}

func (p *Process) reaped() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Signaled reports whether the shell has been reaped after being killed by
// a signal rather than exiting on its own.
func (p *Process) Signaled() bool {
	if !p.reaped() || p.cmd == nil || p.cmd.ProcessState == nil {
		return false
	}
	ws, ok := p.cmd.ProcessState.Sys().(syscall.WaitStatus)
	return ok && ws.Signaled()
}

// awaitReap waits up to d for the waiter to publish the exit status.
func (p *Process) awaitReap(d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-p.done:
	case <-t.C:
	}
}

func (p *Process) exitCause() error {
	select {
	case <-p.done:
		if p.waitErr != nil {
			return fmt.Errorf("%w: %v", errProcessExited, p.waitErr)
		}
		return errProcessExited
	default:
		return errors.New("output closed")
	}
}

// WriteLine sends text followed by a newline to the shell's input.
func (p *Process) WriteLine(text string) error {
	if !p.Alive() {
		return newError(KindWrite, "write", "", p.exitCause())
	}

	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	if _, err := p.ptmx.WriteString(text + "\n"); err != nil {
		return newError(KindWrite, "write", "", err)
	}
	return nil
}

// Drain discards output that has already been read from the pty and
// returns the number of bytes dropped.
func (p *Process) Drain() int {
	n := 0
	for {
		select {
		case chunk, ok := <-p.chunks:
			if !ok {
				return n
			}
			n += len(chunk)
		default:
			return n
		}
	}
}

// ReadUntil accumulates output until marker and the line break after it
// have arrived, and returns everything before the marker. Whatever follows
// the marker line in the same batch is discarded. A process-died error comes
// with whatever output was read before the shell went away.
func (p *Process) ReadUntil(ctx context.Context, marker Marker, timeout time.Duration) ([]byte, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	m := []byte(marker)
	var acc []byte
	from, idx := 0, -1

	complete := func() bool {
		if idx < 0 {
			if i := bytes.Index(acc[from:], m); i >= 0 {
				idx = from + i
			} else if len(acc) >= len(m) {
				from = len(acc) - len(m) + 1
			}
		}
		return idx >= 0 && bytes.IndexByte(acc[idx+len(m):], '\n') >= 0
	}

	for {
		if complete() {
			return acc[:idx], nil
		}

		select {
		case chunk, ok := <-p.chunks:
			if !ok {
				if idx >= 0 {
					return acc[:idx], nil
				}
				p.awaitReap(exitDrainWindow)
				return acc, newError(KindProcessDied, "read", "", p.exitCause())
			}
			acc = append(acc, chunk...)

		case <-p.done:
			// Output written just before exit can still be in flight.
			acc = append(acc, p.collectAfterExit()...)
			complete()
			if idx >= 0 {
				return acc[:idx], nil
			}
			return acc, newError(KindProcessDied, "read", "", p.exitCause())

		case <-timer.C:
			return nil, errorf(KindTimeout, "read", "", "no marker within %s", timeout)

		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (p *Process) collectAfterExit() []byte {
	var out []byte
	window := time.NewTimer(exitDrainWindow)
	defer window.Stop()
	for {
		select {
		case chunk, ok := <-p.chunks:
			if !ok {
				return out
			}
			out = append(out, chunk...)
		case <-window.C:
			return out
		}
	}
}

// Terminate asks the shell to exit, kills it when it does not within grace,
// closes the pty and waits for the process to be reaped. It is idempotent
// and treats an already exited shell as success.
func (p *Process) Terminate(grace time.Duration) error {
	p.closeOnce.Do(func() {
		p.closeErr = p.terminate(grace)
	})
	return p.closeErr
}

func (p *Process) terminate(grace time.Duration) error {
	if !p.reaped() {
		p.writeMu.Lock()
		_, _ = p.ptmx.WriteString("exit\n")
		p.writeMu.Unlock()

		select {
		case <-p.done:
		case <-time.After(grace):
		}
	}

	if !p.reaped() {
		// Setsid made the shell the leader of its own process group.
		if err := syscall.Kill(-p.pid, syscall.SIGKILL); err != nil && !errors.Is(err, syscall.ESRCH) {
			if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
				return fmt.Errorf("kill shell pid %d: %w", p.pid, err)
			}
		}
	}

	close(p.quit)
	_ = p.ptmx.Close()

	select {
	case <-p.done:
		return nil
	case <-time.After(reapTimeout):
		return fmt.Errorf("shell pid %d still running after kill", p.pid)
	}
}
