package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/askql/askql/internal/intent"
)

// registerTools registers all query tools on the given server.
func (s *MCPServer) registerTools(srv *server.MCPServer) {

	srv.AddTool(
		mcp.NewTool("ask_database",
			mcp.WithDescription(
				"Ask the database a question in natural language. Supports listing "+
					"tables, fetching records with conditions and ordering, joining or "+
					"appending two tables, table summaries, column distributions, "+
					"relationship analysis, and entity counts. Returns rows as JSON "+
					"along with the exact SQL that was executed. Pass the session_id "+
					"from a previous response to keep conversational context.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("query",
				mcp.Required(),
				mcp.Description("The question in plain English (e.g. \"show 10 orders above 100 dollars\")"),
			),
			mcp.WithString("session_id",
				mcp.Description("Session identifier from a previous call, for follow-up questions"),
			),
		),
		s.handleAskDatabase,
	)

	srv.AddTool(
		mcp.NewTool("list_tables",
			mcp.WithDescription(
				"List all tables in the configured database schema. Use this first "+
					"to discover what data is available.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
		),
		s.handleListTables,
	)

	srv.AddTool(
		mcp.NewTool("table_summary",
			mcp.WithDescription(
				"Get a summary of one table: row count, column count, column names, "+
					"and three sample rows. Use this to understand a table before "+
					"asking detailed questions about it.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("table",
				mcp.Required(),
				mcp.Description("Name of the table to summarize"),
			),
		),
		s.handleTableSummary,
	)
}

// handleAskDatabase runs one natural-language query through the full
// pipeline. The result always includes the session id so the agent can chain
// follow-up questions.
func (s *MCPServer) handleAskDatabase(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	query, err := requireString(request, "query")
	if err != nil {
		return toolError("%v", err)
	}
	sessionID := optionalString(request, "session_id")

	result := s.svc.ExecuteQuery(ctx, query, sessionID)
	return successJSON(result)
}

// handleListTables returns the names of all base tables.
func (s *MCPServer) handleListTables(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	res := s.exec.Execute(ctx, intent.TablesRequest{})
	if res.Err != nil {
		return toolError("Failed to list tables: %v", res.Err)
	}

	names := make([]string, 0, len(res.Rows))
	for _, row := range res.Rows {
		if name, ok := row["table_name"].(string); ok {
			names = append(names, name)
		}
	}
	return successJSON(map[string]interface{}{
		"tables": names,
	})
}

// handleTableSummary returns the summary rows for one table. Validation
// errors surface as tool errors so the agent can self-correct.
func (s *MCPServer) handleTableSummary(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	table, err := requireString(request, "table")
	if err != nil {
		return toolError("%v", err)
	}

	res := s.exec.Execute(ctx, intent.TableSummaryRequest{Table: table})
	if res.Err != nil {
		return toolError("Failed to summarize table %q: %v", table, res.Err)
	}
	return successJSON(res.Rows)
}
