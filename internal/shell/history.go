package shell

import "strings"

// History is the ordered record of extracted command outputs.
//
// When limit is positive the total size of retained entries is kept at or
// under limit bytes by evicting the oldest entries. The newest entry is
// always retained, even when it alone exceeds the limit.
type History struct {
	entries []string
	size    int
	limit   int
}

// NewHistory creates a history capped at limit bytes; a limit of zero or
// less means unbounded.
func NewHistory(limit int) *History {
	return &History{limit: limit}
}

// Append records out as the newest entry.
func (h *History) Append(out string) {
	h.entries = append(h.entries, out)
	h.size += len(out) + 1

	if h.limit <= 0 {
		return
	}
	drop := 0
	for h.size > h.limit && drop < len(h.entries)-1 {
		h.size -= len(h.entries[drop]) + 1
		drop++
	}
	if drop > 0 {
		h.entries = append([]string(nil), h.entries[drop:]...)
	}
}

// Last returns the newest entry, or "" when nothing was recorded.
func (h *History) Last() string {
	if len(h.entries) == 0 {
		return ""
	}
	return h.entries[len(h.entries)-1]
}

// Len returns the number of retained entries.
func (h *History) Len() int {
	return len(h.entries)
}

// String joins the retained entries with newlines, without trailing
// separators.
func (h *History) String() string {
	var b strings.Builder
	b.Grow(h.size)
	for _, e := range h.entries {
		b.WriteString(e)
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}
