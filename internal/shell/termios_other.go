//go:build !linux && !darwin

package shell

import "os"

// disableEcho is a no-op here; the session handshake runs `stty -echo`.
func disableEcho(*os.File) error { return nil }
