// Package shell keeps one long-lived interactive shell and runs commands in
// it synchronously, returning exactly each command's combined output.
//
// The shell runs on a pty with input echo disabled. Each command is framed
// with a random marker printed after it completes:
//
//	{ <command>
//	} ; printf '__END__%s__\n' 7f3c...e1
//
// and its output is everything read before "__END__7f3c...e1__". State
// such as the working directory and exported variables persists between
// commands because they all run in the same process.
//
// Components:
//   - Marker, Frame: per-command sentinel and rendered input line
//   - Process: pty, reader and waiter goroutines, write/read-until/terminate
//   - Session: the framing protocol plus last output and full log
//   - Registry: the single shared Session, respawned when dead or suspect
//
// Failures are *Error values of four kinds (spawn, write, timeout,
// process died), matched with errors.Is against ErrSpawn, ErrWrite,
// ErrTimeout and ErrProcessDied.
//
// Example Usage:
//
//	reg := shell.NewRegistry(shell.Options{ShellPath: "/bin/bash"})
//	defer reg.Close()
//
//	sess, err := reg.Get(ctx)
//	if err != nil {
//	    return err
//	}
//	out, err := sess.Run(ctx, "cd /tmp && pwd")
//	// out == "/tmp"
//
// Known limitations: a command that itself prints the exact marker ends
// its wait early; a command with a syntax error never reaches the marker
// statement and times out; input lines are bounded by the terminal's
// canonical line limit (4096 bytes on Linux).
package shell
