package query

import (
	"context"
	"fmt"

	"github.com/relq-dev/relq/database"
	"github.com/relq-dev/relq/dialect"
	"github.com/relq-dev/relq/expr"
)

type JoinKind string

const (
	JoinInner JoinKind = "INNER"
	JoinLeft  JoinKind = "LEFT"
	JoinRight JoinKind = "RIGHT"
)

// Join is one join edge of a table. Immutable once built.
type Join struct {
	Other      string
	LeftField  string
	RightField string
	Kind       JoinKind
}

func (j Join) clause(d dialect.Dialect) string {
	return string(j.Kind) + " JOIN " + d.WrapIdentifier(j.Other) +
		" ON " + d.WrapIdentifier(j.LeftField) + " = " + d.WrapIdentifier(j.RightField)
}

// Table names a relation plus its joins and optional routing pins. Every
// mutator returns a new value; a Table can be shared across call sites
// without aliasing surprises.
type Table struct {
	db       *DB
	name     string
	joins    []Join
	conn     database.Querier
	pool     database.Pool
	poolName string
	err      error
}

// NewTable builds a table that is not bound to a DB. It must be pinned to a
// pool or connection before any statement can execute.
func NewTable(name string) Table {
	return Table{name: name}
}

func (t Table) Name() string { return t.name }

func (t Table) withJoin(j Join) Table {
	joins := make([]Join, len(t.joins), len(t.joins)+1)
	copy(joins, t.joins)
	t.joins = append(joins, j)
	return t
}

func (t Table) Join(other, leftField, rightField string) Table {
	return t.withJoin(Join{Other: other, LeftField: leftField, RightField: rightField, Kind: JoinInner})
}

func (t Table) LeftJoin(other, leftField, rightField string) Table {
	return t.withJoin(Join{Other: other, LeftField: leftField, RightField: rightField, Kind: JoinLeft})
}

func (t Table) RightJoin(other, leftField, rightField string) Table {
	return t.withJoin(Join{Other: other, LeftField: leftField, RightField: rightField, Kind: JoinRight})
}

// Using pins every statement on this table to one specific connection or
// transaction, bypassing pool routing entirely.
func (t Table) Using(conn database.Querier) Table {
	t.conn = conn
	return t
}

// WithPool pins statements to a specific pool handle.
func (t Table) WithPool(pool database.Pool) Table {
	t.pool = pool
	return t
}

// WithPoolName routes statements through the registry under a logical name.
func (t Table) WithPoolName(name string) Table {
	t.poolName = name
	return t
}

// Filter starts a query with the given predicates ANDed together.
func (t Table) Filter(predicates ...*expr.Node) Query {
	return Query{table: t}.Filter(predicates...)
}

// FilterEq starts a query from field=value equalities.
func (t Table) FilterEq(equalities map[string]any) Query {
	return Query{table: t}.FilterEq(equalities)
}

// Exclude starts a query that negates the conjunction of the predicates.
// At least one predicate is required.
func (t Table) Exclude(predicates ...*expr.Node) Query {
	return Query{table: t}.Exclude(predicates...)
}

// All starts an unfiltered query.
func (t Table) All() Query {
	return Query{table: t}
}

// Select builds a select over the whole table.
func (t Table) Select(fields ...string) *SelectStmt {
	return t.All().Select(fields...)
}

// GetOne fetches the first row of the unfiltered table.
func (t Table) GetOne(ctx context.Context, fields ...string) (Row, error) {
	return t.All().GetOne(ctx, fields...)
}

// GetAll fetches every row of the table.
func (t Table) GetAll(ctx context.Context, fields ...string) ([]Row, error) {
	return t.All().GetAll(ctx, fields...)
}

// Iter streams every row of the table.
func (t Table) Iter(ctx context.Context, fields ...string) (*Iter, error) {
	return t.All().Iter(ctx, fields...)
}

// NewInsert builds an insert statement. Every value must be a literal;
// expressions referencing columns are rejected.
func (t Table) NewInsert(values map[string]any) *InsertStmt {
	return newInsert(t, values)
}

// Insert inserts one row and returns it.
func (t Table) Insert(ctx context.Context, values map[string]any) (Row, error) {
	return t.NewInsert(values).Run(ctx)
}

// Update updates every row of the table. Updating without a filter is only
// allowed through this explicit entry point, which supplies the literal true
// condition itself.
func (t Table) Update(ctx context.Context, values map[string]any) (Row, error) {
	return t.Filter(expr.Value(true)).Update(ctx, values)
}

// Delete removes every row of the table and reports the count.
func (t Table) Delete(ctx context.Context) (int64, error) {
	return t.All().Delete(ctx)
}

// Upsert looks a row up by match; when absent it inserts defaults+match and
// reports created=true, otherwise it updates the matching rows with defaults.
func (t Table) Upsert(ctx context.Context, match, defaults map[string]any) (Row, bool, error) {
	if len(match) == 0 {
		return nil, false, fmt.Errorf("upsert: empty match set: %w", ErrBuilderMisuse)
	}

	existing, err := t.matchQuery(match).GetOne(ctx)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		row, err := t.Insert(ctx, merge(defaults, match))
		return row, true, err
	}

	row, err := t.matchQuery(match).Update(ctx, defaults)
	return row, false, err
}

// GetOrInsert looks a row up by match and inserts defaults+match when absent.
func (t Table) GetOrInsert(ctx context.Context, match, defaults map[string]any) (Row, bool, error) {
	if len(match) == 0 {
		return nil, false, fmt.Errorf("get-or-insert: empty match set: %w", ErrBuilderMisuse)
	}

	existing, err := t.matchQuery(match).GetOne(ctx)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	row, err := t.Insert(ctx, merge(defaults, match))
	return row, true, err
}

func (t Table) matchQuery(match map[string]any) Query {
	return t.FilterEq(match)
}

func merge(base, override map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}
