package tools

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/lexandro/secretscan-mcp/index"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// StatusArgs defines the input parameters for the secretscan_status tool (none required).
type StatusArgs struct{}

// StatusHandler holds the dependencies for the status tool.
type StatusHandler struct {
	FileIndex    *index.FileIndex
	FindingIndex *index.FindingIndex
	ContextIndex *index.ContextIndex
	// LastScan reports the most recent successful full scan, if any.
	LastScan  func() (ScanSummary, bool)
	StartTime time.Time
	RootDir   string
	Logger    *slog.Logger
}

// Handle processes a secretscan_status request.
func (h *StatusHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args StatusArgs) (*mcp.CallToolResult, any, error) {
	var builder strings.Builder

	fileCount := h.FileIndex.FileCount()
	totalSize := h.FileIndex.TotalSizeBytes()
	findingCount := h.FindingIndex.Count()
	docCount := h.ContextIndex.DocumentCount()
	uptime := time.Since(h.StartTime)

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	h.Logger.Info("secretscan_status",
		"files", fileCount,
		"findings", findingCount,
		"memory", memStats.Alloc,
		"uptime", uptime,
	)

	builder.WriteString("=== secretscan-mcp Status ===\n\n")
	builder.WriteString(fmt.Sprintf("Root directory: %s\n", h.RootDir))
	builder.WriteString(fmt.Sprintf("Uptime: %s\n", formatDuration(uptime)))
	builder.WriteString(fmt.Sprintf("Scanned files: %d (%s)\n", fileCount, formatFileSize(totalSize)))
	builder.WriteString(fmt.Sprintf("Findings: %d\n", findingCount))
	builder.WriteString(fmt.Sprintf("Search documents: %d\n", docCount))
	builder.WriteString(fmt.Sprintf("Memory usage: %s (heap: %s)\n",
		formatFileSize(int64(memStats.Alloc)),
		formatFileSize(int64(memStats.HeapAlloc)),
	))

	if h.LastScan != nil {
		if summary, ok := h.LastScan(); ok {
			builder.WriteString(fmt.Sprintf("Last full scan: %s at %s\n  %s\n",
				summary.ScanID, summary.CompletedAt.Format(time.RFC3339), formatCounts(summary)))
		} else {
			builder.WriteString("Last full scan: none\n")
		}
	}

	writeCounts(&builder, "Findings by pattern", "findings", h.FindingIndex.TagCounts())
	writeCounts(&builder, "File classes", "files", h.FileIndex.ClassCounts())

	return textResult(builder.String()), nil, nil
}

// writeCounts prints a breakdown sorted by count descending, then name.
func writeCounts(builder *strings.Builder, title, unit string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	builder.WriteString(fmt.Sprintf("\n%s:\n", title))

	type countEntry struct {
		name  string
		count int
	}
	entries := make([]countEntry, 0, len(counts))
	for name, count := range counts {
		entries = append(entries, countEntry{name, count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].name < entries[j].name
	})

	for _, entry := range entries {
		builder.WriteString(fmt.Sprintf("  %-20s %d %s\n", entry.name, entry.count, unit))
	}
}
