package findings

import (
	"bytes"

	"github.com/lexandro/secretscan-mcp/scan"
)

// Match is the view of a record the indicators work on.
type Match struct {
	Data   []byte
	Groups [][]byte
	// Prev and Next are the bytes around the capture, -1 at a file edge or
	// where the context window ends.
	Prev, Next int
	// LinePrefix holds the bytes between the last newline and the capture.
	LinePrefix []byte
}

func newMatch(rec *scan.MatchRecord) *Match {
	m := &Match{Data: rec.Capture, Groups: rec.Groups, Prev: -1, Next: -1}

	start := rec.CaptureStart - rec.ContextStart
	end := rec.CaptureEnd - rec.ContextStart
	if start < 0 || end > len(rec.Context) || start > end {
		return m
	}

	if start > 0 {
		m.Prev = int(rec.Context[start-1])
	}
	if end < len(rec.Context) {
		m.Next = int(rec.Context[end])
	}

	prefix := rec.Context[:start]
	if i := bytes.LastIndexByte(prefix, '\n'); i >= 0 {
		prefix = prefix[i+1:]
	}
	m.LinePrefix = prefix
	return m
}

// lineMentions reports whether the line before the capture contains any of words, case-insensitively.
func (m *Match) lineMentions(words ...string) bool {
	line := bytes.ToUpper(m.LinePrefix)
	for _, w := range words {
		if bytes.Contains(line, []byte(w)) {
			return true
		}
	}
	return false
}
