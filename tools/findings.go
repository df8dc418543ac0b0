package tools

import (
	"context"
	"log/slog"
	"time"

	"github.com/lexandro/secretscan-mcp/index"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// FindingsArgs defines the input parameters for the secretscan_findings tool.
type FindingsArgs struct {
	Tag        string  `json:"tag,omitempty" jsonschema:"Only findings of this pattern (e.g. AmazonToken)"`
	PathGlob   string  `json:"pathGlob,omitempty" jsonschema:"Glob on the relative file path (e.g. **/*.env)"`
	MinScore   float64 `json:"minScore,omitempty" jsonschema:"Only findings scoring at least this much"`
	MaxResults int     `json:"maxResults,omitempty" jsonschema:"Maximum number of findings to return (default 50)"`
}

// FindingsHandler holds the dependencies for the findings tool.
type FindingsHandler struct {
	FindingIndex *index.FindingIndex
	Logger       *slog.Logger
}

// Handle processes a secretscan_findings request.
func (h *FindingsHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args FindingsArgs) (*mcp.CallToolResult, any, error) {
	start := time.Now()

	entries, total, err := h.FindingIndex.Query(index.FindingQuery{
		Tag:        args.Tag,
		PathGlob:   args.PathGlob,
		MinScore:   args.MinScore,
		MaxResults: args.MaxResults,
	})
	if err != nil {
		h.Logger.Error("secretscan_findings failed", "pathGlob", args.PathGlob, "error", err)
		return errorResult("Query error: %v", err), nil, nil
	}

	h.Logger.Info("secretscan_findings",
		"tag", args.Tag,
		"pathGlob", args.PathGlob,
		"minScore", args.MinScore,
		"results", len(entries),
		"total", total,
		"elapsed", time.Since(start),
	)

	return textResult(FormatFindings(entries, total)), nil, nil
}
