package query

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsafeQuery marks raw SQL that failed read-only classification.
var ErrUnsafeQuery = errors.New("query rejected")

// forbiddenKeywords are mutating or procedural operations never allowed in a
// raw query. Matching is by substring over the upper-cased text, so a
// forbidden word is caught anywhere, including inside string literals and
// comments. That over-rejects some legitimate queries and is intentional:
// the filter is a conservative lexical gate, not a SQL parser.
var forbiddenKeywords = []string{
	"INSERT",
	"UPDATE",
	"DELETE",
	"DROP",
	"CREATE",
	"ALTER",
	"TRUNCATE",
	"GRANT",
	"REVOKE",
	"EXEC",
	"EXECUTE",
	"CALL",
}

// IsReadOnly reports whether the given SQL string is classified as safe for
// read-only execution. It never panics and never returns an error; unsafe
// input simply classifies as false.
func IsReadOnly(sql string) bool {
	normalized := strings.ToUpper(strings.TrimSpace(sql))

	if !strings.HasPrefix(normalized, "SELECT") && !strings.HasPrefix(normalized, "WITH") {
		return false
	}

	for _, keyword := range forbiddenKeywords {
		if strings.Contains(normalized, keyword) {
			return false
		}
	}

	return true
}

// CheckReadOnly returns an ErrUnsafeQuery-wrapped error when the SQL string
// fails classification, naming the reason.
func CheckReadOnly(sql string) error {
	normalized := strings.ToUpper(strings.TrimSpace(sql))

	if !strings.HasPrefix(normalized, "SELECT") && !strings.HasPrefix(normalized, "WITH") {
		return fmt.Errorf("%w: only SELECT and WITH queries are allowed", ErrUnsafeQuery)
	}

	for _, keyword := range forbiddenKeywords {
		if strings.Contains(normalized, keyword) {
			return fmt.Errorf("%w: query contains forbidden keyword %s", ErrUnsafeQuery, keyword)
		}
	}

	return nil
}
