package shared

import (
	"strconv"
	"strings"

	"github.com/odyssey-erp/brandstock/internal/brandscope"
)

// Query accumulates WHERE conditions with positional arguments.
type Query struct {
	conds []string
	args  []any
}

func (q *Query) next(v any) string {
	q.args = append(q.args, v)
	return "$" + strconv.Itoa(len(q.args))
}

// Eq adds column = value.
func (q *Query) Eq(column string, value any) {
	q.conds = append(q.conds, column+" = "+q.next(value))
}

// Raw adds a condition without arguments.
func (q *Query) Raw(cond string) {
	q.conds = append(q.conds, cond)
}

// Brand restricts rows to the visible brand. Callers must short-circuit
// vis.None themselves.
func (q *Query) Brand(column string, vis brandscope.Visibility) {
	if !vis.All {
		q.Eq(column, vis.Brand)
	}
}

// Search adds a case-insensitive substring match over columns.
func (q *Query) Search(term string, columns ...string) {
	if term == "" || len(columns) == 0 {
		return
	}
	ph := q.next("%" + term + "%")
	parts := make([]string, 0, len(columns))
	for _, c := range columns {
		parts = append(parts, c+" ILIKE "+ph)
	}
	q.conds = append(q.conds, "("+strings.Join(parts, " OR ")+")")
}

// Where renders the WHERE clause, empty when there are no conditions.
func (q *Query) Where() string {
	if len(q.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(q.conds, " AND ")
}

// Args returns the accumulated arguments.
func (q *Query) Args() []any {
	return q.args
}

// Page appends LIMIT/OFFSET for f and returns the clause.
func (q *Query) Page(f ListFilters) string {
	if f.Limit <= 0 {
		return ""
	}
	limit := q.next(f.Limit)
	offset := q.next(f.Offset())
	return " LIMIT " + limit + " OFFSET " + offset
}

// SortOrder whitelists the sort column; unknown columns fall back to def.
func SortOrder(sortBy, sortDir string, allowed map[string]string, def string) string {
	dir := "ASC"
	if strings.EqualFold(sortDir, SortDesc) {
		dir = "DESC"
	}
	column, ok := allowed[sortBy]
	if !ok {
		column = def
	}
	return column + " " + dir
}
