package tools

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lexandro/secretscan-mcp/index"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// textResult wraps output in a successful tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// errorResult wraps a message in a failed tool result.
func errorResult(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}

// FormatFindings lists findings grouped by file, one line per finding.
func FormatFindings(entries []*index.Entry, total int) string {
	if len(entries) == 0 {
		return "No findings."
	}

	var builder strings.Builder
	if total > len(entries) {
		builder.WriteString(fmt.Sprintf("Showing %d of %d findings:\n", len(entries), total))
	} else {
		builder.WriteString(fmt.Sprintf("Found %d findings:\n", total))
	}

	currentFile := ""
	for _, entry := range entries {
		if entry.RelativePath != currentFile {
			currentFile = entry.RelativePath
			builder.WriteString(fmt.Sprintf("\n── %s ──\n", currentFile))
		}
		builder.WriteString(formatFindingLine(entry))
	}
	return builder.String()
}

func formatFindingLine(entry *index.Entry) string {
	rec := entry.Record
	return fmt.Sprintf("  %d-%d  %-14s %5.2f  %s  [%s]\n",
		rec.CaptureStart, rec.CaptureEnd, rec.PatternTag, entry.Score,
		quoteBytes(rec.Capture), rec.ID)
}

// FormatSearchHits lists full-text hits in relevance order. Hits whose finding
// has been dropped since the search ran are skipped.
func FormatSearchHits(hits []index.ContextHit, total int, lookup func(id string) (*index.Entry, bool)) string {
	var builder strings.Builder
	shown := 0
	for _, hit := range hits {
		entry, ok := lookup(hit.ID)
		if !ok {
			continue
		}
		builder.WriteString(fmt.Sprintf("  %s:%d  %-14s %5.2f  %s  [%s]\n",
			hit.Path, entry.Record.CaptureStart, hit.Tag, entry.Score,
			quoteBytes(entry.Record.Capture), hit.ID))
		shown++
	}
	if shown == 0 {
		return "No matches found."
	}
	return fmt.Sprintf("Found %d matching findings (showing %d):\n\n", total, shown) + builder.String()
}

// FormatFileResults lists scanned files with their class and finding count.
func FormatFileResults(files []*index.ScannedFile, nameOnly bool) string {
	if len(files) == 0 {
		return "No files matched."
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Found %d files:\n\n", len(files)))

	for _, file := range files {
		if nameOnly {
			builder.WriteString(file.RelativePath)
			builder.WriteString("\n")
			continue
		}
		builder.WriteString(fmt.Sprintf("  %s  (%s, %s, %d findings)\n",
			file.RelativePath,
			file.Class,
			formatFileSize(file.SizeBytes),
			file.FindingCount,
		))
	}
	return builder.String()
}

// FormatFinding renders one finding in full. The capture is marked inside the
// context with » and «.
func FormatFinding(entry *index.Entry) string {
	rec := entry.Record

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("── %s ──\n", rec.ID))
	builder.WriteString(fmt.Sprintf("File:     %s\n", entry.RelativePath))
	builder.WriteString(fmt.Sprintf("Pattern:  %s  %s\n", rec.PatternTag, rec.PatternSource))
	builder.WriteString(fmt.Sprintf("Capture:  %s  (bytes %d-%d)\n", quoteBytes(rec.Capture), rec.CaptureStart, rec.CaptureEnd))
	builder.WriteString(fmt.Sprintf("Score:    %.2f\n", entry.Score))

	if len(rec.Groups) > 0 {
		builder.WriteString("Groups:\n")
		for i, group := range rec.Groups {
			builder.WriteString(fmt.Sprintf("  %d: %s\n", i+1, quoteBytes(group)))
		}
	}

	before := rec.CaptureStart - rec.ContextStart
	after := rec.CaptureEnd - rec.ContextStart
	if before >= 0 && after <= len(rec.Context) && before <= after {
		builder.WriteString(fmt.Sprintf("Context:  (bytes %d-%d)\n  %s»%s«%s\n",
			rec.ContextStart, rec.ContextEnd,
			quoteBytes(rec.Context[:before]),
			quoteBytes(rec.Context[before:after]),
			quoteBytes(rec.Context[after:]),
		))
	}

	if len(entry.Indicators) > 0 {
		builder.WriteString("Indicators:\n")
		for _, indicator := range entry.Indicators {
			builder.WriteString(fmt.Sprintf("  %+.2f  %-10s %s\n", indicator.Value, indicator.Vector, indicator.Description))
		}
	}
	return builder.String()
}

// quoteBytes renders raw bytes on one line with Go escapes, without the quotes.
func quoteBytes(b []byte) string {
	q := strconv.Quote(string(b))
	return q[1 : len(q)-1]
}

// formatFileSize converts bytes to a human-readable string.
func formatFileSize(bytes int64) string {
	switch {
	case bytes >= 1024*1024:
		return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
	case bytes >= 1024:
		return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	totalSeconds := int(d.Seconds())
	if totalSeconds < 60 {
		return fmt.Sprintf("%ds", totalSeconds)
	}
	totalMinutes := totalSeconds / 60
	remainderSeconds := totalSeconds % 60
	if totalMinutes < 60 {
		return fmt.Sprintf("%dm%ds", totalMinutes, remainderSeconds)
	}
	hours := totalMinutes / 60
	remainderMinutes := totalMinutes % 60
	return fmt.Sprintf("%dh%dm", hours, remainderMinutes)
}
