package tools

import (
	"context"
	"log/slog"
	"time"

	"github.com/lexandro/secretscan-mcp/index"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ShowArgs defines the input parameters for the secretscan_show tool.
type ShowArgs struct {
	ID string `json:"id" jsonschema:"Finding id as listed by secretscan_findings or secretscan_search"`
}

// ShowHandler holds the dependencies for the show tool.
type ShowHandler struct {
	FindingIndex *index.FindingIndex
	Logger       *slog.Logger
}

// Handle processes a secretscan_show request.
func (h *ShowHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args ShowArgs) (*mcp.CallToolResult, any, error) {
	start := time.Now()

	if args.ID == "" {
		h.Logger.Warn("secretscan_show called with empty id")
		return errorResult("Error: id parameter is required"), nil, nil
	}

	entry, ok := h.FindingIndex.Get(args.ID)
	if !ok {
		h.Logger.Info("secretscan_show finding not found", "id", args.ID)
		return errorResult("Finding not found: %s", args.ID), nil, nil
	}

	h.Logger.Info("secretscan_show", "id", args.ID, "elapsed", time.Since(start))

	return textResult(FormatFinding(entry)), nil, nil
}
