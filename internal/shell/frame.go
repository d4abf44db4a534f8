package shell

import (
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

const (
	markerPrefix = "__END__"
	markerSuffix = "__"
)

var markerPattern = regexp.MustCompile(`^__END__[0-9a-f]{32}__$`)

// Marker is the sentinel printed after a command to delimit its output.
//
// A command whose own output contains the exact marker ends the wait early.
// Markers carry 128 bits of randomness per call, which makes that
// astronomically unlikely rather than impossible.
type Marker string

// NewMarker returns "__END__" + 32 lowercase hex characters + "__".
func NewMarker() Marker {
	u := uuid.New()
	return Marker(markerPrefix + hex.EncodeToString(u[:]) + markerSuffix)
}

// IsMarker reports whether s has the exact marker shape.
func IsMarker(s string) bool {
	return markerPattern.MatchString(s)
}

func (m Marker) String() string { return string(m) }

func (m Marker) token() string {
	return strings.TrimSuffix(strings.TrimPrefix(string(m), markerPrefix), markerSuffix)
}

// printf renders a printf statement that emits the marker plus a newline.
// The marker is split across the format and its argument so the input line
// itself never contains it.
func (m Marker) printf() string {
	return "printf '" + markerPrefix + "%s" + markerSuffix + `\n' ` + m.token()
}

// Frame is one command paired with the marker that terminates its output.
type Frame struct {
	Command string
	Marker  Marker
}

// NewFrame pairs cmd with a fresh marker.
func NewFrame(cmd string) Frame {
	return Frame{Command: cmd, Marker: NewMarker()}
}

// Line renders the input sent to the shell. The command is closed inside a
// brace group on its own line, so a trailing comment cannot swallow the
// marker statement, and the shell parses both lines before the command can
// read stdin. The marker statement follows a statement separator, never a
// conditional, so it runs whatever the command's exit status.
func (f Frame) Line() string {
	cmd := strings.TrimRight(f.Command, " \t\r\n")
	if strings.TrimSpace(cmd) == "" {
		return f.Marker.printf()
	}
	return "{ " + cmd + "\n} ; " + f.Marker.printf()
}

// extractOutput turns the bytes captured before a marker into the command's
// output: CRLF becomes LF and a single trailing line break is trimmed.
func extractOutput(raw []byte) string {
	out := strings.ReplaceAll(string(raw), "\r\n", "\n")
	return strings.TrimSuffix(out, "\n")
}
