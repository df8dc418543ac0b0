package tools

import (
	"context"
	"log/slog"
	"time"

	"github.com/lexandro/secretscan-mcp/index"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// FilesArgs defines the input parameters for the secretscan_files tool.
type FilesArgs struct {
	Pattern      string `json:"pattern" jsonschema:"Glob pattern to match scanned files (e.g. **/*.env or deploy/**)"`
	NameOnly     bool   `json:"nameOnly,omitempty" jsonschema:"If true return only file paths without metadata"`
	WithFindings bool   `json:"withFindings,omitempty" jsonschema:"If true return only files that have findings"`
	MaxResults   int    `json:"maxResults,omitempty" jsonschema:"Maximum number of results to return (default 50)"`
}

// FilesHandler holds the dependencies for the files tool.
type FilesHandler struct {
	FileIndex *index.FileIndex
	Logger    *slog.Logger
}

// Handle processes a secretscan_files request.
func (h *FilesHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args FilesArgs) (*mcp.CallToolResult, any, error) {
	start := time.Now()

	if args.Pattern == "" {
		h.Logger.Warn("secretscan_files called with empty pattern")
		return errorResult("Error: pattern parameter is required"), nil, nil
	}

	limit := args.MaxResults
	if args.WithFindings {
		// Filter after the glob, so fetch everything first
		limit = h.FileIndex.FileCount()
	}
	results, err := h.FileIndex.SearchByGlob(args.Pattern, limit)
	if err != nil {
		h.Logger.Error("secretscan_files failed", "pattern", args.Pattern, "error", err)
		return errorResult("Search error: %v", err), nil, nil
	}

	if args.WithFindings {
		maxResults := args.MaxResults
		if maxResults <= 0 {
			maxResults = 50
		}
		kept := results[:0]
		for _, file := range results {
			if file.FindingCount > 0 && len(kept) < maxResults {
				kept = append(kept, file)
			}
		}
		results = kept
	}

	h.Logger.Info("secretscan_files",
		"pattern", args.Pattern,
		"results", len(results),
		"elapsed", time.Since(start),
	)

	return textResult(FormatFileResults(results, args.NameOnly)), nil, nil
}
