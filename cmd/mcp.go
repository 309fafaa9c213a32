package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"kbsearch/internal/api"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start an MCP server exposing note-search tools",
	RunE:  runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer e.log.Sync()

	s := mcpserver.NewMCPServer("kbsearch", "1.0.0", mcpserver.WithToolCapabilities(false))

	s.AddTool(searchNotesTool(), makeSearchNotesHandler(e.api))
	s.AddTool(getKBConfigTool(), makeKBConfigHandler(e.api))

	return mcpserver.ServeStdio(s)
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

// --- Tool schema builders ---

var readOnlyAnnotation = mcp.ToolAnnotation{
	ReadOnlyHint:    mcp.ToBoolPtr(true),
	DestructiveHint: mcp.ToBoolPtr(false),
	IdempotentHint:  mcp.ToBoolPtr(true),
	OpenWorldHint:   mcp.ToBoolPtr(false),
}

func searchNotesTool() mcp.Tool {
	return mcp.NewTool("search_notes",
		mcp.WithDescription("Semantically search the local knowledge base. Returns ranked notes with similarity scores, source paths, and snippets."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Natural language or keyword query to search the notes"),
		),
		mcp.WithNumber("n",
			mcp.Description("Maximum number of results to return (default 10)"),
		),
		mcp.WithBoolean("rerank",
			mcp.Description("Rerank results with the cross-encoder (default true)"),
		),
	)
}

func getKBConfigTool() mcp.Tool {
	return mcp.NewTool("get_kb_config",
		mcp.WithDescription("Get the knowledge base's current ingestion configuration (folder, chunking, batching)."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
	)
}

// --- Handler factories ---

func makeSearchNotesHandler(client *api.Client) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query := req.GetString("query", "")
		if query == "" {
			return mcp.NewToolResultError("query is required"), nil
		}
		n := req.GetInt("n", 10)
		if n <= 0 {
			n = 10
		}

		resp, err := client.Query(ctx, api.QueryRequest{
			Query:     query,
			UseRerank: req.GetBool("rerank", true),
			NResults:  n,
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
		}

		return mcp.NewToolResultText(formatNoteResults(query, resp.Results)), nil
	}
}

func makeKBConfigHandler(client *api.Client) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		cfg, err := client.GetConfig(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("fetch config failed: %v", err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf(
			"**KB folder:** %s  \n**Chunk size:** %d  \n**Overlap:** %d  \n**Batch size:** %d",
			cfg.KBFolder, cfg.ChunkSize, cfg.Overlap, cfg.BatchSize)), nil
	}
}

// --- Formatting helpers ---

func formatNoteResults(query string, results []api.ResultItem) string {
	if len(results) == 0 {
		return fmt.Sprintf("No results found for query: %q", query)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Search results for %q (%d notes)\n\n", query, len(results))

	for _, r := range results {
		sim := "n/a"
		if r.Similarity != nil {
			sim = fmt.Sprintf("%.2f", *r.Similarity)
		}
		fmt.Fprintf(&sb, "### %d. %s\n\n", r.Rank, r.Title)
		fmt.Fprintf(&sb, "**Similarity:** %s  \n**Source:** %s\n\n", sim, r.Source)
		fmt.Fprintf(&sb, "%s\n\n", r.Snippet)
	}

	return sb.String()
}
