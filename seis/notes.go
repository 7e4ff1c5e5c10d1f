package seis

import (
	"fmt"
	"time"
)

// Note is one audit-log entry of a channel.
type Note struct {
	Time time.Time `cbor:"t"`
	Text string    `cbor:"m"`
}

func (n Note) String() string {
	return n.Time.UTC().Format(time.RFC3339) + ": " + n.Text
}

// Notes is an append-only, timestamped log of what happened to a channel:
// where it was read from, merges, syncs, dropped payloads.
type Notes []Note

// Add appends a formatted entry stamped with the current UTC time.
func (n *Notes) Add(format string, args ...any) {
	text := format
	if len(args) > 0 {
		text = fmt.Sprintf(format, args...)
	}
	*n = append(*n, Note{Time: time.Now().UTC(), Text: text})
}

// Concat returns a new log holding n followed by o.
func (n Notes) Concat(o Notes) Notes {
	out := make(Notes, 0, len(n)+len(o))
	out = append(out, n...)

	return append(out, o...)
}

// Texts returns the entry texts without timestamps.
func (n Notes) Texts() []string {
	out := make([]string, len(n))
	for i, note := range n {
		out[i] = note.Text
	}

	return out
}
