package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fctr-id/okta-ai-agent-sub003/internal/core/domain"
	"github.com/fctr-id/okta-ai-agent-sub003/internal/core/service"
	"github.com/google/uuid"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server metadata
const serverName = "okta-sql-agent"

// Tool descriptions
const (
	descListTables = "List the tables and views of the Okta sync database (users, groups, applications, " +
		"factors and their join tables) with row and column counts. " +
		"Call this first to understand what data exists before writing queries."

	descDescribeTable = "Describe a table's structure: columns with types, nullability and defaults; " +
		"primary keys; foreign keys with referenced tables; indexes; and the current row count. " +
		"Use foreign keys to find JOIN paths between users, groups and applications."

	descDescribeTableParam = "Name of the table to describe"

	descQuery = "Execute a read-only SQL query against the Okta sync database and return results as a " +
		"JSON array of objects. Statements are checked by a strict validator: only single SELECT or WITH " +
		"statements are accepted, and a server-side row limit and query timeout are enforced. " +
		"Use specific column names instead of SELECT * and JOIN along the foreign keys from describe_table."

	descQueryParam = "SQL query to execute (a single SELECT or WITH statement)"

	descCorrelationParam = "Opaque correlation id echoed into audit logs (optional; generated when omitted)"

	descExplainQuery = "Show the SQLite query plan for a SELECT statement (EXPLAIN QUERY PLAN). " +
		"The inner statement is validated exactly like the query tool's input. " +
		"Use this to check index usage before running an expensive query."

	descExplainQuerySQL = "The SELECT query to explain (without the EXPLAIN keyword)"

	descCreateScratch = "Create a scratch table for staging a sync batch. The table name is given the " +
		"mandatory temp_ prefix when missing and the statement passes the internal-tier validator " +
		"before execution. Only available to the sync pipeline."

	descDropScratch = "Conditionally remove a scratch table created by create_scratch_table. " +
		"The temp_ prefix is enforced on removal exactly as on creation."
)

func RegisterTools(s *server.MCPServer, explorer *service.ExplorerService, query *service.QueryService, scratch *service.ScratchService) {
	s.AddTool(
		mcp.NewTool("list_tables",
			mcp.WithDescription(descListTables),
		),
		listTablesHandler(explorer),
	)

	s.AddTool(
		mcp.NewTool("describe_table",
			mcp.WithDescription(descDescribeTable),
			mcp.WithString("table_name",
				mcp.Required(),
				mcp.Description(descDescribeTableParam),
			),
		),
		describeTableHandler(explorer),
	)

	s.AddTool(
		mcp.NewTool("query",
			mcp.WithDescription(descQuery),
			mcp.WithString("sql",
				mcp.Required(),
				mcp.Description(descQueryParam),
			),
			mcp.WithString("correlation_id",
				mcp.Description(descCorrelationParam),
			),
		),
		queryHandler(query),
	)

	s.AddTool(
		mcp.NewTool("explain_query",
			mcp.WithDescription(descExplainQuery),
			mcp.WithString("sql",
				mcp.Required(),
				mcp.Description(descExplainQuerySQL),
			),
			mcp.WithString("correlation_id",
				mcp.Description(descCorrelationParam),
			),
		),
		explainQueryHandler(query),
	)

	// Scratch tools are only exposed to the sync pipeline deployment.
	if scratch != nil {
		s.AddTool(
			mcp.NewTool("create_scratch_table",
				mcp.WithDescription(descCreateScratch),
				mcp.WithString("table_name",
					mcp.Required(),
					mcp.Description("Scratch table name (the temp_ prefix is added when missing)"),
				),
				mcp.WithArray("columns",
					mcp.Required(),
					mcp.Description("Column definitions, each an object with \"name\" and \"type\" (TEXT, INTEGER, REAL, BLOB or NUMERIC)"),
					mcp.Items(map[string]any{
						"type": "object",
						"properties": map[string]any{
							"name": map[string]any{"type": "string"},
							"type": map[string]any{"type": "string"},
						},
						"required": []string{"name", "type"},
					}),
				),
				mcp.WithString("correlation_id",
					mcp.Description(descCorrelationParam),
				),
			),
			createScratchHandler(scratch),
		)

		s.AddTool(
			mcp.NewTool("drop_scratch_table",
				mcp.WithDescription(descDropScratch),
				mcp.WithString("table_name",
					mcp.Required(),
					mcp.Description("Scratch table name (the temp_ prefix is added when missing)"),
				),
				mcp.WithString("correlation_id",
					mcp.Description(descCorrelationParam),
				),
			),
			dropScratchHandler(scratch),
		)
	}
}

func listTablesHandler(explorer *service.ExplorerService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tables, err := explorer.ListTables(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to list tables: %v", err)), nil
		}

		data, err := json.Marshal(tables)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}

		return mcp.NewToolResultText(string(data)), nil
	}
}

func describeTableHandler(explorer *service.ExplorerService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tableName, ok := request.GetArguments()["table_name"].(string)
		if !ok || tableName == "" {
			return mcp.NewToolResultError("table_name is required"), nil
		}

		detail, err := explorer.DescribeTable(ctx, tableName)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to describe table: %v", err)), nil
		}

		data, err := json.Marshal(detail)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}

		return mcp.NewToolResultText(string(data)), nil
	}
}

func queryHandler(query *service.QueryService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sql, ok := request.GetArguments()["sql"].(string)
		if !ok || sql == "" {
			return mcp.NewToolResultError("sql is required"), nil
		}

		ctx = service.WithToolName(ctx, "query")
		results, err := query.Execute(ctx, sql, domain.TierUser, correlationID(request))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("query failed: %v", err)), nil
		}

		data, err := json.Marshal(results)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}

		return mcp.NewToolResultText(string(data)), nil
	}
}

func explainQueryHandler(query *service.QueryService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sql, ok := request.GetArguments()["sql"].(string)
		if !ok || sql == "" {
			return mcp.NewToolResultError("sql is required"), nil
		}

		// The inner statement is validated on its own; the EXPLAIN prefix is
		// added only after the decision, so explain cannot widen the policy.
		ctx = service.WithToolName(ctx, "explain_query")
		results, err := query.ExecuteExplain(ctx, sql, domain.TierUser, correlationID(request))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("explain failed: %v", err)), nil
		}

		data, err := json.Marshal(results)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}

		return mcp.NewToolResultText(string(data)), nil
	}
}

func createScratchHandler(scratch *service.ScratchService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()

		tableName, ok := args["table_name"].(string)
		if !ok || tableName == "" {
			return mcp.NewToolResultError("table_name is required"), nil
		}

		rawCols, ok := args["columns"].([]any)
		if !ok || len(rawCols) == 0 {
			return mcp.NewToolResultError("columns is required"), nil
		}

		columns := make([]service.ScratchColumn, 0, len(rawCols))
		for i, raw := range rawCols {
			col, ok := raw.(map[string]any)
			if !ok {
				return mcp.NewToolResultError(fmt.Sprintf("columns[%d]: expected an object with name and type", i)), nil
			}
			name, _ := col["name"].(string)
			typ, _ := col["type"].(string)
			if name == "" || typ == "" {
				return mcp.NewToolResultError(fmt.Sprintf("columns[%d]: name and type are required", i)), nil
			}
			columns = append(columns, service.ScratchColumn{Name: name, Type: typ})
		}

		ctx = service.WithToolName(ctx, "create_scratch_table")
		created, err := scratch.CreateTable(ctx, tableName, columns, correlationID(request))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("create scratch table failed: %v", err)), nil
		}

		return mcp.NewToolResultText(fmt.Sprintf(`{"table":%q}`, created)), nil
	}
}

func dropScratchHandler(scratch *service.ScratchService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tableName, ok := request.GetArguments()["table_name"].(string)
		if !ok || tableName == "" {
			return mcp.NewToolResultError("table_name is required"), nil
		}

		ctx = service.WithToolName(ctx, "drop_scratch_table")
		dropped, err := scratch.DropTable(ctx, tableName, correlationID(request))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("drop scratch table failed: %v", err)), nil
		}

		return mcp.NewToolResultText(fmt.Sprintf(`{"table":%q}`, dropped)), nil
	}
}

// correlationID returns the caller-supplied correlation id or mints one.
func correlationID(request mcp.CallToolRequest) string {
	if id, ok := request.GetArguments()["correlation_id"].(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}
