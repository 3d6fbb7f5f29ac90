package query

import (
	"context"
	"fmt"
	"hash/fnv"
	"io"
	"strings"

	"github.com/relq-dev/relq/cache"
	"github.com/relq-dev/relq/compiler"
)

// DeleteStmt renders and runs one DELETE. Joins are unsupported; without a
// filter the condition is the literal true, so the statement still renders
// an explicit WHERE clause.
type DeleteStmt struct {
	query Query
	err   error
}

func newDelete(q Query) *DeleteStmt {
	s := &DeleteStmt{query: q}
	if err := q.Err(); err != nil {
		s.err = err
		return s
	}
	if len(q.table.joins) > 0 {
		s.err = fmt.Errorf("delete does not support joined tables: %w", ErrBuilderMisuse)
	}
	return s
}

func (s *DeleteStmt) Err() error {
	return s.err
}

func (s *DeleteStmt) SQL() (string, []any, error) {
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

func (s *DeleteStmt) build() (string, []any, error) {
	d := s.query.table.dialect()
	c := compiler.New(d)

	cond, err := s.query.condSQL(c)
	if err != nil {
		return "", nil, err
	}

	lines := []string{
		"DELETE FROM " + d.WrapIdentifier(s.query.table.name),
		"WHERE " + cond,
	}
	return strings.Join(lines, "\n"), c.Args(), nil
}

// Run deletes matching rows and reports how many were removed.
func (s *DeleteStmt) Run(ctx context.Context) (int64, error) {
	sql, args, err := s.SQL()
	if err != nil {
		return 0, err
	}

	q, release, err := s.query.table.route(ctx)
	if err != nil {
		return 0, err
	}
	if release != nil {
		defer release()
	}

	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *DeleteStmt) fingerprint() uint64 {
	h := fnv.New64a()
	io.WriteString(h, "delete|"+s.query.table.name)
	writeFingerprint(h, s.query.expr.Fingerprint())
	return h.Sum64()
}
