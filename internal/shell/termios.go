//go:build linux || darwin

package shell

import (
	"os"

	"golang.org/x/sys/unix"
)

// disableEcho clears input echo and output CRLF translation on the
// terminal side of the pty, so reads see only what the shell writes.
func disableEcho(tty *os.File) error {
	fd := int(tty.Fd())
	t, err := unix.IoctlGetTermios(fd, ioctlGetTermios)
	if err != nil {
		return err
	}
	t.Lflag &^= unix.ECHO | unix.ECHOE | unix.ECHOK | unix.ECHONL
	t.Oflag &^= unix.ONLCR
	return unix.IoctlSetTermios(fd, ioctlSetTermios, t)
}
