package dbtools

import (
	"context"

	"github.com/tablegate/tablegate/internal/query"
	"github.com/tablegate/tablegate/pkg/tools"
)

// Store is the single capability the tools need from the data store: run one
// bounded read and return its rows.
type Store interface {
	Select(ctx context.Context, sql string, args ...interface{}) ([]map[string]interface{}, error)
}

// RegisterTools builds the static tool catalog over the given store and
// compiler. Called once at process start.
func RegisterTools(registry *tools.Registry, store Store, compiler *query.Compiler) {
	registry.Register(createQueryDatabaseTool(store))
	registry.Register(createQueryTableTool(store, compiler))
	registry.Register(createGetSchemaTool())
	registry.Register(createListTablesTool())
	registry.Register(createCountRecordsTool(store, compiler))
}

// argString reads a string argument, returning "" when absent.
func argString(args map[string]interface{}, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

// argInt reads a numeric argument. JSON numbers decode as float64.
func argInt(args map[string]interface{}, key string) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

// argBool reads an optional boolean argument.
func argBool(args map[string]interface{}, key string) *bool {
	if v, ok := args[key].(bool); ok {
		return &v
	}
	return nil
}

// argStringSlice reads an array-of-strings argument.
func argStringSlice(args map[string]interface{}, key string) []string {
	raw, ok := args[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// argFilters reads the filters object argument.
func argFilters(args map[string]interface{}, key string) map[string]interface{} {
	if v, ok := args[key].(map[string]interface{}); ok {
		return v
	}
	return nil
}
