package server

import (
	"github.com/lexandro/secretscan-mcp/tools"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Version is reported to MCP clients and printed by the CLI.
const Version = "0.1.0"

// Handlers bundles the tool handlers registered on the server.
type Handlers struct {
	Scan     *tools.ScanHandler
	Findings *tools.FindingsHandler
	Files    *tools.FilesHandler
	Search   *tools.SearchHandler
	Show     *tools.ShowHandler
	Status   *tools.StatusHandler
}

// Setup creates and configures the MCP server with all tool registrations.
func Setup(h Handlers) *mcp.Server {
	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "secretscan-mcp",
			Version: Version,
		},
		&mcp.ServerOptions{
			Instructions: `This server scans the project for leaked secrets (cloud keys, API tokens, JWTs, high-entropy strings) and keeps the results in memory.

- Use secretscan_findings to list what was found, filtered by pattern, path glob or score
- Use secretscan_show with a finding id to see the capture, its surrounding bytes and why it scored
- Use secretscan_search for full-text search over captures and their context
- Use secretscan_files to see which files were scanned and how many findings each has
- Results update automatically when files change (via filesystem watcher); secretscan_scan forces a full rescan`,
		},
	)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "secretscan_scan",
		Description: "Run a full rescan of the project root. On failure the previous results are kept and the first file error is reported.",
	}, h.Scan.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name: "secretscan_findings",
		Description: `List findings ordered by file and offset.

Filtering:
  - tag: pattern name (AmazonToken, GoogleToken, UUID, JWT, HexToken, Base64, EntropyToken or a custom tag)
  - pathGlob: glob on the relative path (e.g. "**/*.env", "deploy/**")
  - minScore: minimum confidence score`,
	}, h.Findings.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name: "secretscan_files",
		Description: `List scanned files by glob pattern with their class, size and finding count.

Pattern examples:
  - "**" - every scanned file
  - "**/*.env" - env files
  - "config/*.yaml" - YAML files directly under config/`,
	}, h.Files.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name: "secretscan_search",
		Description: `Full-text search over finding captures, their surrounding bytes and file paths.

Query formats:
  - Plain text: word-level matching (e.g., "password")
  - "quoted text": exact phrase matching (e.g., "\"aws_secret_access_key\"")
  - /regex/: regular expression on indexed terms (e.g., "/akia.*/")`,
	}, h.Search.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "secretscan_show",
		Description: "Show one finding in full: capture, capture groups, context with the capture marked, and the scoring indicators.",
	}, h.Show.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "secretscan_status",
		Description: "Show scan status: file and finding counts, breakdowns by pattern and file class, last full scan, memory usage, and uptime.",
	}, h.Status.Handle)

	return mcpServer
}
