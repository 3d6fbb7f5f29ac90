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

// InsertStmt renders and runs one INSERT ... RETURNING *. Field order is
// sorted so equal value sets always render identical text.
type InsertStmt struct {
	table  Table
	fields []string
	values []*expr.Node
	err    error
}

func newInsert(t Table, values map[string]any) *InsertStmt {
	s := &InsertStmt{table: t}
	if t.err != nil {
		s.err = t.err
		return s
	}
	if len(values) == 0 {
		s.err = fmt.Errorf("insert requires at least one field: %w", ErrBuilderMisuse)
		return s
	}

	for _, field := range sortedKeys(values) {
		node := expr.Parse(values[field])
		if node.Op != expr.OpValue {
			s.err = fmt.Errorf("insert value for %q must be a literal, got operator %q: %w",
				field, node.Op, ErrBuilderMisuse)
			return s
		}
		s.fields = append(s.fields, field)
		s.values = append(s.values, node)
	}
	return s
}

func (s *InsertStmt) Err() error {
	return s.err
}

func (s *InsertStmt) SQL() (string, []any, error) {
	if s.err != nil {
		return "", nil, s.err
	}

	stmts := s.table.stmtCache()
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

func (s *InsertStmt) build() (string, []any, error) {
	d := s.table.dialect()
	c := compiler.New(d)

	fields := make([]string, len(s.fields))
	places := make([]string, len(s.values))
	for i, field := range s.fields {
		fields[i] = d.WrapIdentifier(field)
		place, err := c.Expr(s.values[i])
		if err != nil {
			return "", nil, err
		}
		places[i] = place
	}

	lines := []string{
		"INSERT INTO " + d.WrapIdentifier(s.table.name) + "(" + strings.Join(fields, ",") + ")",
		"VALUES (" + strings.Join(places, ",") + ")",
		"RETURNING *",
	}
	return strings.Join(lines, "\n"), c.Args(), nil
}

// Run inserts the row and returns it.
func (s *InsertStmt) Run(ctx context.Context) (Row, error) {
	sql, args, err := s.SQL()
	if err != nil {
		return nil, err
	}

	q, release, err := s.table.route(ctx)
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

func (s *InsertStmt) fingerprint() uint64 {
	h := fnv.New64a()
	io.WriteString(h, "insert|"+s.table.name+"|"+strings.Join(s.fields, ","))
	for _, v := range s.values {
		writeFingerprint(h, v.Fingerprint())
	}
	return h.Sum64()
}
