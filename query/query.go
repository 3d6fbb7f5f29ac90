package query

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/relq-dev/relq/compiler"
	"github.com/relq-dev/relq/dialect"
	"github.com/relq-dev/relq/expr"
)

// Query is an immutable snapshot of table, filter expression, ordering,
// grouping and limit/offset. Every mutator returns a clone with one field
// replaced.
type Query struct {
	table    Table
	expr     *expr.Node
	offset   *int
	limit    *int
	ordering []string
	grouping []string
	err      error
}

func (q Query) fail(format string, args ...any) Query {
	if q.err == nil {
		q.err = fmt.Errorf(format+": %w", append(args, ErrBuilderMisuse)...)
	}
	return q
}

// Err reports the first builder misuse recorded on the chain, if any. It is
// also surfaced by SQL() and every execute method.
func (q Query) Err() error {
	if q.table.err != nil {
		return q.table.err
	}
	return q.err
}

func conjoin(predicates []*expr.Node) *expr.Node {
	var conj *expr.Node
	for _, p := range predicates {
		if conj == nil {
			conj = p
		} else {
			conj = conj.And(p)
		}
	}
	return conj
}

// Filter ANDs the predicates onto the existing filter.
func (q Query) Filter(predicates ...*expr.Node) Query {
	for _, p := range predicates {
		if q.expr == nil {
			q.expr = p
		} else {
			q.expr = q.expr.And(p)
		}
	}
	return q
}

// FilterEq ANDs one equality comparison per map entry onto the existing
// filter, in sorted field order.
func (q Query) FilterEq(equalities map[string]any) Query {
	for _, field := range sortedKeys(equalities) {
		q = q.Filter(expr.Field(field).Eq(equalities[field]))
	}
	return q
}

// Exclude ANDs the negated conjunction of the predicates onto the existing
// filter. An empty predicate set is a misuse, not a no-op.
func (q Query) Exclude(predicates ...*expr.Node) Query {
	conj := conjoin(predicates)
	if conj == nil {
		return q.fail("exclude requires at least one predicate")
	}
	if q.expr == nil {
		q.expr = conj.Not()
	} else {
		q.expr = q.expr.And(conj.Not())
	}
	return q
}

// OrFilter ORs the conjunction of the predicates with the existing filter.
// With no existing filter the conjunction is absorbed as a plain filter
// step. An empty predicate set leaves the query unchanged.
func (q Query) OrFilter(predicates ...*expr.Node) Query {
	conj := conjoin(predicates)
	if conj == nil {
		return q
	}
	if q.expr == nil {
		q.expr = conj
	} else {
		q.expr = q.expr.Or(conj)
	}
	return q
}

func (q Query) Offset(n int) Query {
	if n < 0 {
		return q.fail("offset must be non-negative, got %d", n)
	}
	q.offset = &n
	return q
}

func (q Query) Limit(n int) Query {
	if n < 0 {
		return q.fail("limit must be non-negative, got %d", n)
	}
	q.limit = &n
	return q
}

// OrderBy sets the ordering; a leading "-" on a field means descending.
func (q Query) OrderBy(fields ...string) Query {
	if len(fields) == 0 {
		return q.fail("order by requires at least one field")
	}
	q.ordering = fields
	return q
}

func (q Query) GroupBy(fields ...string) Query {
	if len(fields) == 0 {
		return q.fail("group by requires at least one field")
	}
	q.grouping = fields
	return q
}

// condSQL compiles the filter, defaulting to the literal true so rendered
// statements always carry a WHERE clause.
func (q Query) condSQL(c *compiler.Compiler) (string, error) {
	cond := q.expr
	if cond == nil {
		cond = expr.Value(true)
	}
	return c.Expr(cond)
}

func (q Query) orderSQL(d dialect.Dialect) string {
	orders := make([]string, len(q.ordering))
	for i, field := range q.ordering {
		if strings.HasPrefix(field, "-") {
			orders[i] = d.WrapIdentifier(field[1:]) + " DESC"
		} else {
			orders[i] = d.WrapIdentifier(field)
		}
	}
	return "ORDER BY " + strings.Join(orders, ",")
}

func (q Query) groupSQL(d dialect.Dialect) string {
	groups := make([]string, len(q.grouping))
	for i, field := range q.grouping {
		groups[i] = d.WrapIdentifier(field)
	}
	return "GROUP BY " + strings.Join(groups, ",")
}

// Select builds a select action; fields default to * when empty.
func (q Query) Select(fields ...string) *SelectStmt {
	return newSelect(q, fields)
}

// GetOne fetches the first matching row, or nil when nothing matches.
func (q Query) GetOne(ctx context.Context, fields ...string) (Row, error) {
	return q.Select(fields...).GetOne(ctx)
}

// GetAll fetches every matching row.
func (q Query) GetAll(ctx context.Context, fields ...string) ([]Row, error) {
	return q.Select(fields...).GetAll(ctx)
}

// Iter streams matching rows without buffering the result set.
func (q Query) Iter(ctx context.Context, fields ...string) (*Iter, error) {
	return q.Select(fields...).Iter(ctx)
}

// NewUpdate builds an update action over the query's condition.
func (q Query) NewUpdate(values map[string]any) *UpdateStmt {
	return newUpdate(q, values)
}

// Update runs an update and returns the first updated row.
func (q Query) Update(ctx context.Context, values map[string]any) (Row, error) {
	return q.NewUpdate(values).Run(ctx)
}

// NewDelete builds a delete action over the query's condition.
func (q Query) NewDelete() *DeleteStmt {
	return newDelete(q)
}

// Delete removes matching rows and reports the count.
func (q Query) Delete(ctx context.Context) (int64, error) {
	return q.NewDelete().Run(ctx)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
