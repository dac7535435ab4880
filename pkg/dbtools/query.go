package dbtools

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/tablegate/tablegate/internal/catalog"
	"github.com/tablegate/tablegate/internal/query"
	"github.com/tablegate/tablegate/pkg/tools"
)

// createQueryDatabaseTool creates the raw-SQL tool. The query must pass
// read-only classification before it reaches the store.
func createQueryDatabaseTool(store Store) *tools.Tool {
	return &tools.Tool{
		Name:        "query_database",
		Description: "Run a read-only SQL query (SELECT or WITH only) and return the matching rows as JSON.",
		InputSchema: tools.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "SQL query to execute. Only SELECT and WITH statements are accepted.",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": fmt.Sprintf("Maximum rows to return (default %d, max %d)", query.DefaultLimit, query.MaxLimit),
					"minimum":     1,
					"maximum":     query.MaxLimit,
					"default":     query.DefaultLimit,
				},
			},
			Required: []string{"query"},
		},
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			sql := argString(args, "query")
			if sql == "" {
				return nil, fmt.Errorf("missing required parameter: query")
			}
			if err := query.CheckReadOnly(sql); err != nil {
				return nil, err
			}

			limit := query.ClampLimit(argInt(args, "limit"))
			sql = applyRawLimit(sql, limit)

			rows, err := store.Select(ctx, sql)
			if err != nil {
				return nil, fmt.Errorf("database query failed: %w", err)
			}
			return rows, nil
		},
	}
}

// applyRawLimit bounds a raw query that does not already carry a LIMIT
// clause. The check is lexical, consistent with the classifier.
func applyRawLimit(sql string, limit int) string {
	if strings.Contains(strings.ToUpper(sql), "LIMIT") {
		return sql
	}
	return strings.TrimRight(strings.TrimSpace(sql), ";") + " LIMIT " + strconv.Itoa(limit)
}

// createQueryTableTool creates the structured filtered-read tool.
func createQueryTableTool(store Store, compiler *query.Compiler) *tools.Tool {
	return &tools.Tool{
		Name:        "query_table",
		Description: "Run a filtered, ordered, bounded read against one whitelisted table.",
		InputSchema: tools.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"table": map[string]interface{}{
					"type":        "string",
					"description": "Table to query",
					"enum":        catalog.Tables(),
				},
				"columns": map[string]interface{}{
					"type":        "array",
					"description": "Columns to return (default: all)",
					"items":       map[string]interface{}{"type": "string"},
				},
				"filters": map[string]interface{}{
					"type":        "object",
					"description": "Column filters. An array value becomes a membership test, a string containing % a pattern match, anything else an equality.",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": fmt.Sprintf("Maximum rows to return (default %d, max %d)", query.DefaultLimit, query.MaxLimit),
					"minimum":     1,
					"maximum":     query.MaxLimit,
					"default":     query.DefaultLimit,
				},
				"orderBy": map[string]interface{}{
					"type":        "string",
					"description": "Column to order by",
				},
				"ascending": map[string]interface{}{
					"type":        "boolean",
					"description": "Sort direction (default true)",
					"default":     true,
				},
			},
			Required: []string{"table"},
		},
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			spec := query.Spec{
				Table:     argString(args, "table"),
				Columns:   argStringSlice(args, "columns"),
				Filters:   argFilters(args, "filters"),
				Limit:     argInt(args, "limit"),
				OrderBy:   argString(args, "orderBy"),
				Ascending: argBool(args, "ascending"),
			}

			bound, err := compiler.Compile(spec)
			if err != nil {
				return nil, err
			}

			rows, err := store.Select(ctx, bound.SQL, bound.Args...)
			if err != nil {
				return nil, fmt.Errorf("database query failed: %w", err)
			}

			return map[string]interface{}{
				"table":    bound.Table,
				"rowCount": len(rows),
				"data":     rows,
			}, nil
		},
	}
}

// createGetSchemaTool creates the schema-hint tool. Without a table it lists
// the whitelist; with one it returns the recorded column hints.
func createGetSchemaTool() *tools.Tool {
	return &tools.Tool{
		Name:        "get_schema",
		Description: "Return the table whitelist, or column hints for one table.",
		InputSchema: tools.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"table": map[string]interface{}{
					"type":        "string",
					"description": "Table to describe (optional)",
					"enum":        catalog.Tables(),
				},
			},
		},
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			table := argString(args, "table")
			if table == "" {
				return map[string]interface{}{
					"tables": catalog.Tables(),
					"count":  catalog.Count(),
				}, nil
			}
			if err := catalog.Validate(table); err != nil {
				return nil, err
			}
			columns, _ := catalog.Columns(table)
			if columns == nil {
				columns = []catalog.Column{}
			}
			return map[string]interface{}{
				"table":   table,
				"columns": columns,
			}, nil
		},
	}
}

// createListTablesTool creates the whitelist-listing tool.
func createListTablesTool() *tools.Tool {
	return &tools.Tool{
		Name:        "list_tables",
		Description: "List the tables available for querying.",
		InputSchema: tools.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			return map[string]interface{}{
				"tables": catalog.Tables(),
				"count":  catalog.Count(),
			}, nil
		},
	}
}

// createCountRecordsTool creates the filtered row-count tool.
func createCountRecordsTool(store Store, compiler *query.Compiler) *tools.Tool {
	return &tools.Tool{
		Name:        "count_records",
		Description: "Count rows in one whitelisted table, optionally filtered.",
		InputSchema: tools.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"table": map[string]interface{}{
					"type":        "string",
					"description": "Table to count",
					"enum":        catalog.Tables(),
				},
				"filters": map[string]interface{}{
					"type":        "object",
					"description": "Column filters, same shape as query_table",
				},
			},
			Required: []string{"table"},
		},
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			table := argString(args, "table")
			filters := argFilters(args, "filters")

			bound, err := compiler.CompileCount(table, filters)
			if err != nil {
				return nil, err
			}

			rows, err := store.Select(ctx, bound.SQL, bound.Args...)
			if err != nil {
				return nil, fmt.Errorf("database query failed: %w", err)
			}

			count, err := extractCount(rows)
			if err != nil {
				return nil, err
			}

			result := map[string]interface{}{
				"table": table,
				"count": count,
			}
			if filters != nil {
				result["filters"] = filters
			}
			return result, nil
		},
	}
}

// extractCount pulls the single COUNT(*) value out of a one-row result.
// Drivers disagree on the value's Go type.
func extractCount(rows []map[string]interface{}) (int64, error) {
	if len(rows) == 0 {
		return 0, fmt.Errorf("count query returned no rows")
	}
	for _, v := range rows[0] {
		switch n := v.(type) {
		case int64:
			return n, nil
		case float64:
			return int64(n), nil
		case string:
			parsed, err := strconv.ParseInt(n, 10, 64)
			if err != nil {
				return 0, fmt.Errorf("unexpected count value %q", n)
			}
			return parsed, nil
		}
	}
	return 0, fmt.Errorf("count query returned no usable value")
}
