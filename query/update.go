package query

import (
	"context"
	"fmt"
	"hash/fnv"
	"io"
	"strings"

	"github.com/relq-dev/relq/cache"
	"github.com/relq-dev/relq/compiler"
	"github.com/relq-dev/relq/expr"
)

// UpdateStmt renders and runs one UPDATE. Values may be arbitrary
// expressions; assignments are rendered in sorted field order. Joins are
// unsupported and a missing filter is a misuse: a full-table update must say
// so explicitly with a filter of the literal true.
type UpdateStmt struct {
	query     Query
	sets      []*expr.Node
	returning bool
	err       error
}

func newUpdate(q Query, values map[string]any) *UpdateStmt {
	s := &UpdateStmt{query: q, returning: true}
	if err := q.Err(); err != nil {
		s.err = err
		return s
	}
	if len(values) == 0 {
		s.err = fmt.Errorf("update requires at least one assignment: %w", ErrBuilderMisuse)
		return s
	}
	if len(q.table.joins) > 0 {
		s.err = fmt.Errorf("update does not support joined tables: %w", ErrBuilderMisuse)
		return s
	}
	if q.expr == nil {
		s.err = fmt.Errorf("update requires a filter; use an explicit true filter for a full-table update: %w",
			ErrBuilderMisuse)
		return s
	}

	for _, field := range sortedKeys(values) {
		s.sets = append(s.sets, expr.Field(field).Eq(expr.Parse(values[field])))
	}
	return s
}

func (s *UpdateStmt) Err() error {
	return s.err
}

// Returning toggles the RETURNING * clause; it is on by default.
func (s *UpdateStmt) Returning(on bool) *UpdateStmt {
	s.returning = on
	return s
}

func (s *UpdateStmt) SQL() (string, []any, error) {
	if s.err != nil {
		return "", nil, s.err
	}

	stmts := s.query.table.stmtCache()
	var fp uint64
	if stmts != nil {
		fp = s.fingerprint()
		if hit, ok := stmts.Get(fp); ok {
			return hit.SQL, hit.Args, nil
		}
	}

	sql, args, err := s.build()
	if err != nil {
		return "", nil, err
	}
	if stmts != nil {
		stmts.Set(fp, &cache.Statement{SQL: sql, Args: args})
	}
	return sql, args, nil
}

func (s *UpdateStmt) build() (string, []any, error) {
	d := s.query.table.dialect()
	c := compiler.New(d)

	assignments := make([]string, len(s.sets))
	for i, set := range s.sets {
		sql, err := c.Expr(set)
		if err != nil {
			return "", nil, err
		}
		assignments[i] = sql
	}

	cond, err := c.Expr(s.query.expr)
	if err != nil {
		return "", nil, err
	}

	lines := []string{
		"UPDATE " + d.WrapIdentifier(s.query.table.name),
		"SET " + strings.Join(assignments, ","),
		"WHERE " + cond,
	}
	if s.returning {
		lines = append(lines, "RETURNING *")
	}
	return strings.Join(lines, "\n"), c.Args(), nil
}

// Run updates matching rows and returns the first updated one.
func (s *UpdateStmt) Run(ctx context.Context) (Row, error) {
	sql, args, err := s.SQL()
	if err != nil {
		return nil, err
	}

	q, release, err := s.query.table.route(ctx)
	if err != nil {
		return nil, err
	}
	if release != nil {
		defer release()
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return collectOne(rows)
}

func (s *UpdateStmt) fingerprint() uint64 {
	h := fnv.New64a()
	io.WriteString(h, "update|"+s.query.table.name)
	if s.returning {
		io.WriteString(h, "|ret")
	}
	for _, set := range s.sets {
		writeFingerprint(h, set.Fingerprint())
	}
	writeFingerprint(h, s.query.expr.Fingerprint())
	return h.Sum64()
}
