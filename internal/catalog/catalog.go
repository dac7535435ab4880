package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// tableNames is the fixed whitelist of tables eligible for querying. It is
// configuration, not user input, and never changes during the process
// lifetime.
var tableNames = []string{
	"articles",
	"article_tags",
	"attachments",
	"activity_log",
	"bookmarks",
	"categories",
	"collections",
	"collection_items",
	"comments",
	"feeds",
	"feed_items",
	"notes",
	"profiles",
	"settings",
	"tags",
	"users",
}

// Column describes one column of a whitelisted table. These are schema hints
// for clients; the database remains the source of truth.
type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

var tableColumns = map[string][]Column{
	"articles": {
		{Name: "id", Type: "uuid"},
		{Name: "user_id", Type: "uuid"},
		{Name: "title", Type: "text"},
		{Name: "content", Type: "text"},
		{Name: "status", Type: "text"},
		{Name: "created_at", Type: "timestamp"},
		{Name: "updated_at", Type: "timestamp"},
	},
	"notes": {
		{Name: "id", Type: "uuid"},
		{Name: "user_id", Type: "uuid"},
		{Name: "title", Type: "text"},
		{Name: "body", Type: "text"},
		{Name: "created_at", Type: "timestamp"},
	},
	"users": {
		{Name: "id", Type: "uuid"},
		{Name: "email", Type: "text"},
		{Name: "display_name", Type: "text"},
		{Name: "created_at", Type: "timestamp"},
	},
	"tags": {
		{Name: "id", Type: "uuid"},
		{Name: "name", Type: "text"},
	},
}

// Tables returns the whitelist in its canonical order. The returned slice is
// a copy; callers may not mutate the whitelist.
func Tables() []string {
	out := make([]string, len(tableNames))
	copy(out, tableNames)
	return out
}

// Count returns the number of whitelisted tables.
func Count() int {
	return len(tableNames)
}

// IsAllowed reports whether the given table is part of the whitelist.
func IsAllowed(table string) bool {
	for _, name := range tableNames {
		if name == table {
			return true
		}
	}
	return false
}

// Columns returns the schema hints for one table, if any are recorded.
func Columns(table string) ([]Column, bool) {
	cols, ok := tableColumns[table]
	return cols, ok
}

// ErrUnknownTable marks requests against tables outside the whitelist.
var ErrUnknownTable = errors.New("unknown table")

// Validate returns an ErrUnknownTable-wrapped error for tables outside the
// whitelist. The message enumerates the valid tables so callers can correct
// themselves.
func Validate(table string) error {
	if IsAllowed(table) {
		return nil
	}
	return fmt.Errorf("%w %q: allowed tables are %s", ErrUnknownTable, table, strings.Join(tableNames, ", "))
}
