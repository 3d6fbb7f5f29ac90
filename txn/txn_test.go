package txn

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relq-dev/relq/database"
)

// ---- fakes over the database boundary ----

type fakeTx struct {
	conn       *fakeConn
	depth      int
	committed  bool
	rolledBack bool
	commitCtx  context.Context
}

func (t *fakeTx) Begin(ctx context.Context) (database.Tx, error) {
	child := &fakeTx{conn: t.conn, depth: t.depth + 1}
	t.conn.txs = append(t.conn.txs, child)
	return child, nil
}

func (t *fakeTx) Commit(ctx context.Context) error {
	t.committed = true
	t.commitCtx = ctx
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	t.rolledBack = true
	return nil
}

type fakeConn struct {
	pool     *fakePool
	beginErr error
	txs      []*fakeTx
	released int
}

func (c *fakeConn) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (c *fakeConn) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (c *fakeConn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (c *fakeConn) Begin(ctx context.Context, opts pgx.TxOptions) (database.Tx, error) {
	if c.beginErr != nil {
		return nil, c.beginErr
	}
	tx := &fakeTx{conn: c}
	c.txs = append(c.txs, tx)
	return tx, nil
}

func (c *fakeConn) Release() { c.released++ }

type fakePool struct {
	mu         sync.Mutex
	acquireErr error
	beginErr   error
	conns      []*fakeConn
}

func (p *fakePool) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (p *fakePool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (p *fakePool) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (p *fakePool) Acquire(ctx context.Context) (database.Conn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.acquireErr != nil {
		return nil, p.acquireErr
	}
	conn := &fakeConn{pool: p, beginErr: p.beginErr}
	p.conns = append(p.conns, conn)
	return conn, nil
}

func (p *fakePool) Close() {}

func (p *fakePool) acquired() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.conns)
}

var _ database.Pool = (*fakePool)(nil)

// ---- tests ----

func TestAtomicCommits(t *testing.T) {
	pool := &fakePool{}

	err := Atomic(context.Background(), pool, Options{}, func(ctx context.Context) error {
		conn, ok := Conn(ctx, pool)
		require.True(t, ok, "scope connection visible inside fn")
		require.NotNil(t, conn)
		return nil
	})
	require.NoError(t, err)

	require.Equal(t, 1, pool.acquired())
	conn := pool.conns[0]
	require.Len(t, conn.txs, 1)
	assert.True(t, conn.txs[0].committed)
	assert.False(t, conn.txs[0].rolledBack)
	assert.Equal(t, 1, conn.released, "connection returned when the last scope exits")
}

func TestAtomicRollsBackOnError(t *testing.T) {
	pool := &fakePool{}
	boom := errors.New("boom")

	err := Atomic(context.Background(), pool, Options{}, func(ctx context.Context) error {
		return boom
	})
	require.ErrorIs(t, err, boom, "the scope's error passes through unchanged")

	conn := pool.conns[0]
	assert.True(t, conn.txs[0].rolledBack)
	assert.False(t, conn.txs[0].committed)
	assert.Equal(t, 1, conn.released)
}

func TestNestedScopesReuseConnection(t *testing.T) {
	pool := &fakePool{}

	err := Atomic(context.Background(), pool, Options{}, func(ctx context.Context) error {
		return Atomic(ctx, pool, Options{}, func(ctx context.Context) error {
			return nil
		})
	})
	require.NoError(t, err)

	require.Equal(t, 1, pool.acquired(), "nested scope reuses the outer lease")
	conn := pool.conns[0]
	require.Len(t, conn.txs, 2)
	assert.Equal(t, 0, conn.txs[0].depth)
	assert.Equal(t, 1, conn.txs[1].depth, "nested scope is a savepoint on the root transaction")
	assert.True(t, conn.txs[0].committed)
	assert.True(t, conn.txs[1].committed)
	assert.Equal(t, 1, conn.released)
}

func TestNestedRollbackKeepsOuterAlive(t *testing.T) {
	pool := &fakePool{}
	boom := errors.New("inner failed")

	err := Atomic(context.Background(), pool, Options{}, func(ctx context.Context) error {
		inner := Atomic(ctx, pool, Options{}, func(ctx context.Context) error {
			return boom
		})
		require.ErrorIs(t, inner, boom)
		return nil
	})
	require.NoError(t, err)

	conn := pool.conns[0]
	require.Len(t, conn.txs, 2)
	assert.True(t, conn.txs[1].rolledBack, "savepoint rolled back")
	assert.True(t, conn.txs[0].committed, "outer transaction still commits")
}

func TestSpawnedGoroutineDoesNotInheritScope(t *testing.T) {
	pool := &fakePool{}

	err := Atomic(context.Background(), pool, Options{}, func(ctx context.Context) error {
		done := make(chan struct{})
		var sawScope bool
		go func() {
			defer close(done)
			_, sawScope = Conn(ctx, pool)
		}()
		<-done
		assert.False(t, sawScope, "child goroutine must not see the parent's scope")

		inner := make(chan error, 1)
		go func() {
			inner <- Atomic(ctx, pool, Options{}, func(ctx context.Context) error { return nil })
		}()
		require.NoError(t, <-inner)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, 2, pool.acquired(), "child goroutine leases its own connection")
}

func TestConnOutsideScope(t *testing.T) {
	pool := &fakePool{}
	_, ok := Conn(context.Background(), pool)
	assert.False(t, ok)
}

func TestEnterReleasesConnOnBeginFailure(t *testing.T) {
	pool := &fakePool{beginErr: errors.New("begin failed")}

	_, scope, err := Enter(context.Background(), pool, Options{})
	require.Error(t, err)
	assert.Nil(t, scope)
	require.Equal(t, 1, pool.acquired())
	assert.Equal(t, 1, pool.conns[0].released, "failed begin must not leak the lease")
}

func TestEnterAcquireFailure(t *testing.T) {
	pool := &fakePool{acquireErr: errors.New("pool exhausted")}
	_, _, err := Enter(context.Background(), pool, Options{})
	require.ErrorContains(t, err, "pool exhausted")
}

func TestExitUnderflowLogsInsteadOfPanicking(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	defer SetLogger(slog.Default())

	pool := &fakePool{}
	ctx, scope, err := Enter(context.Background(), pool, Options{})
	require.NoError(t, err)

	require.NoError(t, scope.Exit(ctx, nil))
	assert.NotPanics(t, func() {
		_ = scope.Exit(ctx, nil)
	})
	assert.Contains(t, buf.String(), "underflow")
}

func TestExitCommitsAfterCancellation(t *testing.T) {
	pool := &fakePool{}

	ctx, cancel := context.WithCancel(context.Background())
	ctx, scope, err := Enter(ctx, pool, Options{})
	require.NoError(t, err)

	cancel()
	require.NoError(t, scope.Exit(ctx, nil))

	tx := pool.conns[0].txs[0]
	require.True(t, tx.committed)
	assert.NoError(t, tx.commitCtx.Err(), "cleanup must run on a non-cancelled context")
	assert.Equal(t, 1, pool.conns[0].released)
}

func TestAtomicRepanicsAfterRollback(t *testing.T) {
	pool := &fakePool{}

	assert.Panics(t, func() {
		_ = Atomic(context.Background(), pool, Options{}, func(ctx context.Context) error {
			panic("kaboom")
		})
	})

	conn := pool.conns[0]
	assert.True(t, conn.txs[0].rolledBack)
	assert.Equal(t, 1, conn.released)
}

func TestIndependentPoolsGetIndependentFrames(t *testing.T) {
	a := &fakePool{}
	b := &fakePool{}

	err := Atomic(context.Background(), a, Options{}, func(ctx context.Context) error {
		return Atomic(ctx, b, Options{}, func(ctx context.Context) error {
			_, okA := Conn(ctx, a)
			_, okB := Conn(ctx, b)
			assert.True(t, okA)
			assert.True(t, okB)
			return nil
		})
	})
	require.NoError(t, err)

	assert.Equal(t, 1, a.acquired())
	assert.Equal(t, 1, b.acquired())
}
