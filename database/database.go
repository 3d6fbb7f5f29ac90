// Package database is the boundary to the connection-pool collaborator.
//
// The transaction manager and the statement actions are written against the
// interfaces here, not against pgx directly, so tests can substitute
// in-memory fakes. Pool implementations must be pointer-shaped: a Pool value
// is used as a map key and its identity must be stable and comparable.
package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the query surface shared by pools, leased connections and
// transactions.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Pool hands out scoped connections. Acquire blocks until a connection is
// available; that wait is the system's backpressure, timeouts are the pool's
// own business.
type Pool interface {
	Querier
	Acquire(ctx context.Context) (Conn, error)
	Close()
}

// Conn is one leased connection. Release returns it to its pool and must be
// called exactly once.
type Conn interface {
	Querier
	Begin(ctx context.Context, opts pgx.TxOptions) (Tx, error)
	Release()
}

// Tx is one transaction scope. Begin opens a nested scope on the same
// connection.
type Tx interface {
	Begin(ctx context.Context) (Tx, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}
