package query

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relq-dev/relq/expr"
)

// fakeRows serves a canned result set through the pgx.Rows interface.
type fakeRows struct {
	columns []string
	data    [][]any
	pos     int
	closed  bool
}

func (r *fakeRows) Close()                       { r.closed = true }
func (r *fakeRows) Err() error                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag { return pgconn.CommandTag{} }
func (r *fakeRows) Conn() *pgx.Conn              { return nil }
func (r *fakeRows) RawValues() [][]byte          { return nil }
func (r *fakeRows) Scan(dest ...any) error       { return nil }

func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription {
	descs := make([]pgconn.FieldDescription, len(r.columns))
	for i, c := range r.columns {
		descs[i] = pgconn.FieldDescription{Name: c}
	}
	return descs
}

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.data) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Values() ([]any, error) {
	return r.data[r.pos-1], nil
}

// fakeQuerier records every statement and serves canned rows.
type fakeQuerier struct {
	lastSQL  string
	lastArgs []any
	rows     *fakeRows
	execTag  pgconn.CommandTag
}

func (q *fakeQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	q.lastSQL, q.lastArgs = sql, args
	if q.rows == nil {
		return &fakeRows{}, nil
	}
	return q.rows, nil
}

func (q *fakeQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}

func (q *fakeQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	q.lastSQL, q.lastArgs = sql, args
	return q.execTag, nil
}

func usersRows(data ...[]any) *fakeRows {
	return &fakeRows{columns: []string{"id", "name"}, data: data}
}

func TestGetAllOnPinnedConnection(t *testing.T) {
	fq := &fakeQuerier{rows: usersRows([]any{int64(1), "ada"}, []any{int64(2), "grace"})}
	users := NewTable("users").Using(fq)

	rows, err := users.Filter(expr.F("id").Gt(0)).GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "ada", rows[0].Get("name"))
	assert.Equal(t, "grace", rows[1].Get("name"))
	assert.Equal(t, []any{0}, fq.lastArgs)
	assert.True(t, fq.rows.closed)
}

func TestGetOneReturnsNilOnEmptyResult(t *testing.T) {
	fq := &fakeQuerier{rows: usersRows()}
	row, err := NewTable("users").Using(fq).All().GetOne(context.Background())
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestGetOneDerivesLimitOne(t *testing.T) {
	fq := &fakeQuerier{rows: usersRows([]any{int64(1), "ada"})}
	users := NewTable("users").Using(fq)

	row, err := users.Filter(expr.F("name").Eq("ada")).GetOne(context.Background())
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Contains(t, fq.lastSQL, "\nLIMIT 1", "unlimited get-one re-derives with limit 1")
}

func TestGetOneKeepsExplicitLimit(t *testing.T) {
	fq := &fakeQuerier{rows: usersRows([]any{int64(1), "ada"})}
	users := NewTable("users").Using(fq)

	_, err := users.All().Limit(50).GetOne(context.Background())
	require.NoError(t, err)
	assert.Contains(t, fq.lastSQL, "\nLIMIT 50")
}

func TestInsertRunReturnsRow(t *testing.T) {
	fq := &fakeQuerier{rows: usersRows([]any{int64(9), "ada"})}

	row, err := NewTable("users").Using(fq).Insert(context.Background(), map[string]any{"name": "ada"})
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, int64(9), row.Get("id"))
	assert.Contains(t, fq.lastSQL, "RETURNING *")
}

func TestDeleteRunReportsCount(t *testing.T) {
	fq := &fakeQuerier{execTag: pgconn.NewCommandTag("DELETE 3")}

	n, err := NewTable("users").Using(fq).
		Filter(expr.F("banned").Eq(true)).
		Delete(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Contains(t, fq.lastSQL, "DELETE FROM \"users\"")
}

func TestIterStreamsAndCloses(t *testing.T) {
	fq := &fakeQuerier{rows: usersRows([]any{int64(1), "ada"}, []any{int64(2), "grace"})}

	it, err := NewTable("users").Using(fq).All().Iter(context.Background())
	require.NoError(t, err)

	var names []string
	for it.Next() {
		names = append(names, it.Row().Get("name").(string))
	}
	require.NoError(t, it.Err())
	assert.Equal(t, []string{"ada", "grace"}, names)
	assert.True(t, fq.rows.closed, "exhaustion closes the iterator")

	assert.NotPanics(t, it.Close, "close is idempotent")
}

func TestUpsertInsertsWhenAbsent(t *testing.T) {
	// First the lookup misses, then the insert returns the new row.
	lookup := usersRows()
	inserted := usersRows([]any{int64(1), "ada"})
	calls := 0
	staged := &stagingQuerier{stages: []*fakeRows{lookup, inserted}, calls: &calls}

	row, created, err := NewTable("users").Using(staged).Upsert(context.Background(),
		map[string]any{"name": "ada"},
		map[string]any{"active": true})
	require.NoError(t, err)
	assert.True(t, created)
	require.NotNil(t, row)
	assert.Equal(t, "ada", row.Get("name"))
	assert.Equal(t, 2, calls)
}

func TestGetOrInsertReturnsExisting(t *testing.T) {
	existing := usersRows([]any{int64(5), "ada"})
	calls := 0
	staged := &stagingQuerier{stages: []*fakeRows{existing}, calls: &calls}

	row, created, err := NewTable("users").Using(staged).GetOrInsert(context.Background(),
		map[string]any{"name": "ada"}, nil)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, int64(5), row.Get("id"))
	assert.Equal(t, 1, calls, "no insert when the lookup hits")
}

func TestUpsertRequiresMatch(t *testing.T) {
	_, _, err := NewTable("users").Upsert(context.Background(), nil, map[string]any{"a": 1})
	assert.ErrorIs(t, err, ErrBuilderMisuse)

	_, _, err = NewTable("users").GetOrInsert(context.Background(), map[string]any{}, nil)
	assert.ErrorIs(t, err, ErrBuilderMisuse)
}

// stagingQuerier serves a different canned result set per statement.
type stagingQuerier struct {
	stages []*fakeRows
	calls  *int
}

func (q *stagingQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	i := *q.calls
	*q.calls++
	if i >= len(q.stages) {
		return &fakeRows{}, nil
	}
	return q.stages[i], nil
}

func (q *stagingQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}

func (q *stagingQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	*q.calls++
	return pgconn.CommandTag{}, nil
}
