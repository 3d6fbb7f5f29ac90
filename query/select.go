package query

import (
	"context"
	"hash/fnv"
	"io"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/relq-dev/relq/cache"
	"github.com/relq-dev/relq/compiler"
)

// LockMode selects the row-locking clause of a select.
type LockMode int

const (
	LockNone LockMode = iota
	LockForUpdate
	LockForUpdateSkipLocked
)

// SelectStmt renders and runs one SELECT over a query snapshot.
type SelectStmt struct {
	query  Query
	fields []string
	lock   LockMode
}

func newSelect(q Query, fields []string) *SelectStmt {
	if len(fields) == 0 {
		fields = []string{"*"}
	}
	return &SelectStmt{query: q, fields: fields}
}

// ForUpdate locks the selected rows.
func (s *SelectStmt) ForUpdate() *SelectStmt {
	s.lock = LockForUpdate
	return s
}

// SkipLocked locks the selected rows, skipping ones already locked.
func (s *SelectStmt) SkipLocked() *SelectStmt {
	s.lock = LockForUpdateSkipLocked
	return s
}

// Err surfaces builder misuse recorded anywhere on the chain.
func (s *SelectStmt) Err() error {
	return s.query.Err()
}

// SQL renders the statement text and its positional parameters.
func (s *SelectStmt) SQL() (string, []any, error) {
	if err := s.Err(); err != nil {
		return "", nil, err
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

func (s *SelectStmt) build() (string, []any, error) {
	d := s.query.table.dialect()
	c := compiler.New(d)

	fields := make([]string, len(s.fields))
	for i, f := range s.fields {
		fields[i] = d.WrapIdentifier(f)
	}

	lines := []string{
		"SELECT " + strings.Join(fields, ","),
		"FROM " + d.WrapIdentifier(s.query.table.name),
	}

	for _, join := range s.query.table.joins {
		lines = append(lines, join.clause(d))
	}

	cond, err := s.query.condSQL(c)
	if err != nil {
		return "", nil, err
	}
	lines = append(lines, "WHERE "+cond)

	if len(s.query.grouping) > 0 {
		lines = append(lines, s.query.groupSQL(d))
	}
	if len(s.query.ordering) > 0 {
		lines = append(lines, s.query.orderSQL(d))
	}
	if s.query.limit != nil {
		lines = append(lines, "LIMIT "+strconv.Itoa(*s.query.limit))
	}
	if s.query.offset != nil {
		lines = append(lines, "OFFSET "+strconv.Itoa(*s.query.offset))
	}

	switch s.lock {
	case LockForUpdate:
		lines = append(lines, "FOR UPDATE")
	case LockForUpdateSkipLocked:
		lines = append(lines, "FOR UPDATE SKIP LOCKED")
	}

	return strings.Join(lines, "\n"), c.Args(), nil
}

// GetOne fetches a single row or nil. Without an explicit limit the
// statement is re-derived with limit 1 first, to avoid scanning past the
// first match.
func (s *SelectStmt) GetOne(ctx context.Context) (Row, error) {
	if s.query.limit == nil {
		derived := newSelect(s.query.Limit(1), s.fields)
		derived.lock = s.lock
		return derived.GetOne(ctx)
	}

	rows, release, err := s.run(ctx)
	if err != nil {
		return nil, err
	}
	if release != nil {
		defer release()
	}
	return collectOne(rows)
}

// GetAll fetches every matching row.
func (s *SelectStmt) GetAll(ctx context.Context) ([]Row, error) {
	rows, release, err := s.run(ctx)
	if err != nil {
		return nil, err
	}
	if release != nil {
		defer release()
	}
	return collectAll(rows)
}

// Iter streams rows lazily. The iterator holds its connection until Close,
// so it is scoped to the lifetime of the surrounding transaction when one is
// active; it is finite and cannot be restarted.
func (s *SelectStmt) Iter(ctx context.Context) (*Iter, error) {
	sql, args, err := s.SQL()
	if err != nil {
		return nil, err
	}

	q, release, err := s.query.table.route(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		if release != nil {
			release()
		}
		return nil, err
	}
	return &Iter{rows: rows, release: release}, nil
}

func (s *SelectStmt) run(ctx context.Context) (rows pgx.Rows, release func(), err error) {
	sql, args, err := s.SQL()
	if err != nil {
		return nil, nil, err
	}

	q, release, err := s.query.table.route(ctx)
	if err != nil {
		return nil, nil, err
	}

	rows, err = q.Query(ctx, sql, args...)
	if err != nil {
		if release != nil {
			release()
		}
		return nil, nil, err
	}
	return rows, release, nil
}

func (s *SelectStmt) fingerprint() uint64 {
	h := fnv.New64a()
	io.WriteString(h, "select|"+s.query.table.name)
	for _, j := range s.query.table.joins {
		io.WriteString(h, "|j:"+string(j.Kind)+":"+j.Other+":"+j.LeftField+":"+j.RightField)
	}
	io.WriteString(h, "|f:"+strings.Join(s.fields, ","))
	io.WriteString(h, "|l:"+strconv.Itoa(int(s.lock)))
	if s.query.limit != nil {
		io.WriteString(h, "|lim:"+strconv.Itoa(*s.query.limit))
	}
	if s.query.offset != nil {
		io.WriteString(h, "|off:"+strconv.Itoa(*s.query.offset))
	}
	io.WriteString(h, "|o:"+strings.Join(s.query.ordering, ","))
	io.WriteString(h, "|g:"+strings.Join(s.query.grouping, ","))
	writeFingerprint(h, s.query.expr.Fingerprint())
	return h.Sum64()
}
