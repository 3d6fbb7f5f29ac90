// Package txn tracks, per goroutine and per pool, a stack of nested
// transaction scopes bound to one leased connection.
//
// Scopes ride on the context.Context threaded through every call that can
// open one. Nested scopes against the same pool reuse the connection leased
// by the outermost scope, so helper code can open a scope "just in case" and
// still see the caller's uncommitted writes. A goroutine spawned with a
// scope-bearing context does not inherit the scope: the frame map records
// its owning goroutine, and a mismatch makes the child start from an empty
// map and lease its own connection.
package txn

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/relq-dev/relq/database"
)

var logger = slog.Default()

// SetLogger replaces the package logger. Frame inconsistencies and
// rolled-back scope errors are reported through it.
func SetLogger(l *slog.Logger) {
	if l != nil {
		logger = l
	}
}

// Options configures the outermost begin of a scope (isolation level,
// access mode). Nested scopes are savepoints; options do not apply to them.
type Options = pgx.TxOptions

// frame is the per-(goroutine, pool) execution state. The connection is nil
// exactly when the transaction stack is empty.
type frame struct {
	conn database.Conn
	txs  []database.Tx
}

type frameMap struct {
	owner  uint64
	frames map[database.Pool]*frame
}

func newFrameMap() *frameMap {
	return &frameMap{
		owner:  goroutineID(),
		frames: make(map[database.Pool]*frame),
	}
}

func (m *frameMap) frame(pool database.Pool) *frame {
	f, ok := m.frames[pool]
	if !ok {
		f = &frame{}
		m.frames[pool] = f
	}
	return f
}

type frameKey struct{}

// framesFrom returns the context's frame map only when the current goroutine
// owns it. A map inherited by a spawned goroutine is treated as absent.
func framesFrom(ctx context.Context) *frameMap {
	m, _ := ctx.Value(frameKey{}).(*frameMap)
	if m == nil || m.owner != goroutineID() {
		return nil
	}
	return m
}

// Conn reports the connection bound to the current execution context's
// active scope against pool, if any.
func Conn(ctx context.Context, pool database.Pool) (database.Conn, bool) {
	m := framesFrom(ctx)
	if m == nil {
		return nil, false
	}
	f, ok := m.frames[pool]
	if !ok || f.conn == nil {
		return nil, false
	}
	return f.conn, true
}

// Scope is one entered transaction scope. Exit must be called exactly once,
// on every return path.
type Scope struct {
	pool  database.Pool
	frame *frame
}

// Enter opens a transaction scope against pool. The outermost scope leases a
// connection and begins a transaction on it; nested scopes begin a savepoint
// on the already-leased connection. The returned context carries the frame
// map and must be used for all work inside the scope.
func Enter(ctx context.Context, pool database.Pool, opts Options) (context.Context, *Scope, error) {
	m := framesFrom(ctx)
	if m == nil {
		m = newFrameMap()
		ctx = context.WithValue(ctx, frameKey{}, m)
	}
	f := m.frame(pool)

	acquired := false
	if f.conn == nil {
		conn, err := pool.Acquire(ctx)
		if err != nil {
			return ctx, nil, err
		}
		f.conn = conn
		acquired = true
	}

	var tx database.Tx
	var err error
	if len(f.txs) == 0 {
		tx, err = f.conn.Begin(ctx, opts)
	} else {
		tx, err = f.txs[len(f.txs)-1].Begin(ctx)
	}
	if err != nil {
		if acquired {
			f.conn.Release()
			f.conn = nil
		}
		return ctx, nil, err
	}

	f.txs = append(f.txs, tx)
	return ctx, &Scope{pool: pool, frame: f}, nil
}

// Exit ends the scope: commit when cause is nil, rollback otherwise. The
// cleanup runs even when ctx is already cancelled. When the last scope on
// the frame exits, the leased connection goes back to the pool. Returns
// cause unchanged if non-nil, otherwise any commit error.
func (s *Scope) Exit(ctx context.Context, cause error) error {
	f := s.frame
	cleanupCtx := context.WithoutCancel(ctx)

	var endErr error
	if len(f.txs) == 0 {
		// Scope-exit ordering bug somewhere above us; not a
		// data-correctness risk, so log and carry on.
		logger.Error("transaction stack underflow on scope exit",
			"pool", fmt.Sprintf("%p", s.pool))
	} else {
		tx := f.txs[len(f.txs)-1]
		f.txs = f.txs[:len(f.txs)-1]

		if cause != nil {
			if rbErr := tx.Rollback(cleanupCtx); rbErr != nil {
				logger.Error("transaction rollback failed", "error", rbErr)
			}
		} else {
			endErr = tx.Commit(cleanupCtx)
		}
	}

	if len(f.txs) == 0 && f.conn != nil {
		f.conn.Release()
		f.conn = nil
	}

	if cause != nil {
		logger.Error("transaction scope exited with error", "error", cause)
		return cause
	}
	return endErr
}

// Atomic runs fn inside a transaction scope: enter, invoke, exit on every
// return and panic path. The context passed to fn carries the scope and must
// be used for all statements that should join it.
func Atomic(ctx context.Context, pool database.Pool, opts Options, fn func(ctx context.Context) error) error {
	ctx, scope, err := Enter(ctx, pool, opts)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = scope.Exit(ctx, fmt.Errorf("panic in transaction scope: %v", p))
			panic(p)
		}
	}()

	return scope.Exit(ctx, fn(ctx))
}
