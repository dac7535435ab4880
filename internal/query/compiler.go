package query

import (
	"fmt"
	"sort"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/tablegate/tablegate/internal/catalog"
)

// Row limits applied to every compiled query.
const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// Spec is a structured read request against one whitelisted table.
type Spec struct {
	Table     string                 `json:"table"`
	Columns   []string               `json:"columns,omitempty"`
	Filters   map[string]interface{} `json:"filters,omitempty"`
	Limit     int                    `json:"limit,omitempty"`
	OrderBy   string                 `json:"orderBy,omitempty"`
	Ascending *bool                  `json:"ascending,omitempty"`
}

// BoundRequest is a compiled, parameterized query ready for execution.
type BoundRequest struct {
	Table string
	SQL   string
	Args  []interface{}
	Limit int
}

// Compiler translates a Spec into a bounded, parameterized SELECT. It
// performs no I/O.
type Compiler struct {
	builder sq.StatementBuilderType
}

// NewCompiler creates a compiler producing placeholders for the given
// driver ("postgres" uses $N, everything else ?).
func NewCompiler(driver string) *Compiler {
	placeholder := sq.PlaceholderFormat(sq.Question)
	if driver == "postgres" {
		placeholder = sq.Dollar
	}
	return &Compiler{builder: sq.StatementBuilder.PlaceholderFormat(placeholder)}
}

// ClampLimit brings a requested row limit into [1, MaxLimit]. Absent or
// non-positive limits fall back to DefaultLimit instead of being rejected.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Compile validates the spec against the whitelist and builds a bounded read.
func (c *Compiler) Compile(spec Spec) (*BoundRequest, error) {
	if err := catalog.Validate(spec.Table); err != nil {
		return nil, err
	}

	columns := []string{"*"}
	if len(spec.Columns) > 0 {
		columns = make([]string, len(spec.Columns))
		for i, col := range spec.Columns {
			ident, err := sanitizeIdentifier(col)
			if err != nil {
				return nil, err
			}
			columns[i] = ident
		}
	}

	q := c.builder.Select(columns...).From(spec.Table)

	q, err := applyFilters(q, spec.Filters)
	if err != nil {
		return nil, err
	}

	if spec.OrderBy != "" {
		ident, err := sanitizeIdentifier(spec.OrderBy)
		if err != nil {
			return nil, err
		}
		direction := "ASC"
		if spec.Ascending != nil && !*spec.Ascending {
			direction = "DESC"
		}
		q = q.OrderBy(ident + " " + direction)
	}

	limit := ClampLimit(spec.Limit)
	q = q.Limit(uint64(limit))

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	return &BoundRequest{Table: spec.Table, SQL: sqlStr, Args: args, Limit: limit}, nil
}

// CompileCount builds a COUNT(*) over the same whitelist and filter rules.
func (c *Compiler) CompileCount(table string, filters map[string]interface{}) (*BoundRequest, error) {
	if err := catalog.Validate(table); err != nil {
		return nil, err
	}

	q := c.builder.Select("COUNT(*)").From(table)

	q, err := applyFilters(q, filters)
	if err != nil {
		return nil, err
	}

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	return &BoundRequest{Table: table, SQL: sqlStr, Args: args}, nil
}

// applyFilters attaches one ANDed predicate per filter entry. The operator is
// picked by value shape: a sequence becomes a membership test, a string
// containing a wildcard becomes a pattern match, anything else an equality.
// Keys are walked in sorted order so the generated SQL is reproducible.
func applyFilters(q sq.SelectBuilder, filters map[string]interface{}) (sq.SelectBuilder, error) {
	if len(filters) == 0 {
		return q, nil
	}

	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, col := range keys {
		ident, err := sanitizeIdentifier(col)
		if err != nil {
			return q, err
		}
		value := filters[col]

		switch v := value.(type) {
		case []interface{}:
			q = q.Where(sq.Eq{ident: v})
		case string:
			if strings.Contains(v, "%") {
				q = q.Where(sq.Like{ident: v})
			} else {
				q = q.Where(sq.Eq{ident: v})
			}
		default:
			q = q.Where(sq.Eq{ident: v})
		}
	}

	return q, nil
}

// sanitizeIdentifier restricts column names to alphanumerics and underscores,
// closing the injection path through identifiers that cannot be parameterized.
func sanitizeIdentifier(identifier string) (string, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return "", fmt.Errorf("empty column name")
	}
	for _, ch := range identifier {
		if !(ch >= 'a' && ch <= 'z') &&
			!(ch >= 'A' && ch <= 'Z') &&
			!(ch >= '0' && ch <= '9') &&
			ch != '_' {
			return "", fmt.Errorf("invalid column name %q", identifier)
		}
	}
	return identifier, nil
}
