package tools

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ScanArgs defines the input parameters for the secretscan_scan tool.
type ScanArgs struct{}

// ScanSummary describes a completed full scan.
type ScanSummary struct {
	ScanID      string
	Files       int
	Directories int
	Bytes       int64
	Findings    int
	PeakWorkers int
	Duration    time.Duration
	CompletedAt time.Time
}

// ScanFunc runs a full scan and reloads the indexes.
// It is provided by the main package to avoid circular dependencies.
type ScanFunc func(ctx context.Context) (ScanSummary, error)

// ScanHandler holds the dependencies for the scan tool.
type ScanHandler struct {
	DoScan ScanFunc
	Logger *slog.Logger
}

// Handle processes a secretscan_scan request. A failed scan leaves the
// previous results in place.
func (h *ScanHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args ScanArgs) (*mcp.CallToolResult, any, error) {
	h.Logger.Info("secretscan_scan started")

	summary, err := h.DoScan(ctx)
	if err != nil {
		h.Logger.Error("secretscan_scan failed", "error", err)
		return errorResult("Scan error: %v (previous results kept)", err), nil, nil
	}

	h.Logger.Info("secretscan_scan complete",
		"scanId", summary.ScanID,
		"files", summary.Files,
		"findings", summary.Findings,
		"elapsed", summary.Duration,
	)

	return textResult(FormatScanSummary(summary)), nil, nil
}

// FormatScanSummary renders the one-line outcome of a scan.
func FormatScanSummary(s ScanSummary) string {
	return "Scan complete: " + formatCounts(s)
}

func formatCounts(s ScanSummary) string {
	return fmt.Sprintf("%d findings in %d files (%d directories, %s) in %s, peak %d workers",
		s.Findings, s.Files, s.Directories, formatFileSize(s.Bytes),
		s.Duration.Round(time.Millisecond), s.PeakWorkers)
}
