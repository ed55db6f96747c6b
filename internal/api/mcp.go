package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/docent/internal/retrieval"
)

// Searcher abstracts semantic catalog search for the MCP layer.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]retrieval.ScoredDocument, error)
}

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Answerer Answerer
	Searcher Searcher
}

// NewMCPServer creates an MCP server exposing the kiosk brain to agent
// hosts: asking the guide a question and searching the exhibition catalog.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"docent",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions("docent is an exhibition guide backend: ask visitor questions or search the catalog of works."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("ask_docent",
			mcp.WithDescription("Ask the exhibition guide a visitor question and get a short spoken-style answer."),
			mcp.WithString("question", mcp.Description("The visitor question"), mcp.Required()),
		),
		mcpAsk(deps),
	)

	s.AddTool(
		mcp.NewTool("search_works",
			mcp.WithDescription("Semantically search the exhibition catalog and return matching works with scores."),
			mcp.WithString("query", mcp.Description("Search query"), mcp.Required()),
			mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 5)")),
		),
		mcpSearch(deps),
	)

	return s
}

func mcpAsk(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question, err := req.RequireString("question")
		if err != nil {
			return mcpError("question is required"), nil
		}

		ans, err := deps.Answerer.Answer(ctx, question)
		if err != nil {
			return mcpError(fmt.Sprintf("answering failed: %v", err)), nil
		}
		return mcpText(ans.Text), nil
	}
}

func mcpSearch(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := req.RequireString("query")
		if err != nil {
			return mcpError("query is required"), nil
		}

		limit := req.GetInt("limit", 5)
		if limit <= 0 {
			limit = 5
		}
		if limit > 50 {
			limit = 50
		}

		docs, err := deps.Searcher.Search(ctx, query, limit)
		if err != nil {
			return mcpError(fmt.Sprintf("search failed: %v", err)), nil
		}
		if len(docs) == 0 {
			return mcpText("[]"), nil
		}

		type workResult struct {
			Artist  string  `json:"artist"`
			TitleCN string  `json:"title_cn,omitempty"`
			TitleEN string  `json:"title_en,omitempty"`
			DescCN  string  `json:"desc_cn,omitempty"`
			DescEN  string  `json:"desc_en,omitempty"`
			Score   float64 `json:"score"`
		}

		results := make([]workResult, len(docs))
		for i, d := range docs {
			results[i] = workResult{
				Artist:  d.Artist,
				TitleCN: d.WorkTitleCN,
				TitleEN: d.WorkTitleEN,
				DescCN:  d.WorkDescCN,
				DescEN:  d.WorkDescEN,
				Score:   d.Score,
			}
		}

		b, err := json.Marshal(results)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
