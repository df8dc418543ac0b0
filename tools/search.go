package tools

import (
	"context"
	"log/slog"
	"time"

	"github.com/lexandro/secretscan-mcp/index"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// SearchArgs defines the input parameters for the secretscan_search tool.
type SearchArgs struct {
	Query      string `json:"query" jsonschema:"Search query over captures, contexts and paths. Plain text for word match, quoted for exact phrase, /regex/ for regular expression"`
	Tag        string `json:"tag,omitempty" jsonschema:"Only findings of this pattern (e.g. JWT)"`
	PathGlob   string `json:"pathGlob,omitempty" jsonschema:"Glob on the relative file path (e.g. config/**)"`
	MaxResults int    `json:"maxResults,omitempty" jsonschema:"Maximum number of findings to return (default 50)"`
}

// SearchHandler holds the dependencies for the search tool.
type SearchHandler struct {
	ContextIndex *index.ContextIndex
	FindingIndex *index.FindingIndex
	Logger       *slog.Logger
}

// Handle processes a secretscan_search request.
func (h *SearchHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args SearchArgs) (*mcp.CallToolResult, any, error) {
	start := time.Now()

	if args.Query == "" {
		h.Logger.Warn("secretscan_search called with empty query")
		return errorResult("Error: query parameter is required"), nil, nil
	}

	hits, total, err := h.ContextIndex.Search(index.ContextSearchOptions{
		Query:      args.Query,
		Tag:        args.Tag,
		PathGlob:   args.PathGlob,
		MaxResults: args.MaxResults,
	})
	if err != nil {
		h.Logger.Error("secretscan_search failed", "query", args.Query, "error", err)
		return errorResult("Search error: %v", err), nil, nil
	}

	h.Logger.Info("secretscan_search",
		"query", args.Query,
		"tag", args.Tag,
		"pathGlob", args.PathGlob,
		"hits", len(hits),
		"total", total,
		"elapsed", time.Since(start),
	)

	return textResult(FormatSearchHits(hits, total, h.FindingIndex.Get)), nil, nil
}
