package scan

import (
	"bytes"

	"github.com/google/uuid"
)

// MatchRecord is one match of one pattern in one file.
// Byte fields are copies; they never alias the file buffer.
type MatchRecord struct {
	ID            string   `json:"id"`
	FilePath      string   `json:"fileName"`
	PatternTag    string   `json:"patternName"`
	PatternSource string   `json:"pattern"`
	Capture       []byte   `json:"capture"`
	CaptureStart  int      `json:"captureStart"`
	CaptureEnd    int      `json:"captureEnd"`
	Context       []byte   `json:"context"`
	ContextStart  int      `json:"contextStart"`
	ContextEnd    int      `json:"contextEnd"`
	Groups        [][]byte `json:"groups"`
}

// extract builds a record from a submatch index slice as returned by
// regexp.FindAllSubmatchIndex. loc[0:2] is the whole match, then one pair per group.
func extract(buf []byte, loc []int, desiredContext int) MatchRecord {
	if desiredContext < 0 {
		desiredContext = 0
	}
	start, end := loc[0], loc[1]

	// compare against the remaining room so large values cannot overflow
	contextStart := 0
	if desiredContext < start {
		contextStart = start - desiredContext
	}
	contextEnd := len(buf)
	if desiredContext < len(buf)-end {
		contextEnd = end + desiredContext
	}

	var groups [][]byte
	for i := 2; i+1 < len(loc); i += 2 {
		// -1 marks a group that did not participate
		if loc[i] < 0 {
			continue
		}
		groups = append(groups, bytes.Clone(buf[loc[i]:loc[i+1]]))
	}

	return MatchRecord{
		ID:           uuid.NewString(),
		Capture:      bytes.Clone(buf[start:end]),
		CaptureStart: start,
		CaptureEnd:   end,
		Context:      bytes.Clone(buf[contextStart:contextEnd]),
		ContextStart: contextStart,
		ContextEnd:   contextEnd,
		Groups:       groups,
	}
}
