package query

import (
	"context"

	"github.com/relq-dev/relq/cache"
	"github.com/relq-dev/relq/connector"
	"github.com/relq-dev/relq/database"
	"github.com/relq-dev/relq/dialect"
	"github.com/relq-dev/relq/txn"
)

// route picks the connection a statement runs on: the table's pinned
// connection when set, the current transaction scope's connection for the
// resolved pool when one is active in this execution context, or a fresh
// lease otherwise. release is non-nil only for fresh leases and must be
// called when the statement is done with the connection.
func (t Table) route(ctx context.Context) (q database.Querier, release func(), err error) {
	if t.conn != nil {
		return t.conn, nil, nil
	}

	pool, err := t.resolvePool()
	if err != nil {
		return nil, nil, err
	}

	if conn, ok := txn.Conn(ctx, pool); ok {
		return conn, nil, nil
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, nil, err
	}
	return conn, conn.Release, nil
}

func (t Table) resolvePool() (database.Pool, error) {
	if t.pool != nil {
		return t.pool, nil
	}
	if t.poolName != "" {
		if t.db == nil {
			return nil, connector.ErrNoPool
		}
		return t.db.registry.Lookup(t.poolName)
	}
	if t.db != nil {
		return t.db.registry.Default()
	}
	return nil, connector.ErrNoPool
}

func (t Table) dialect() dialect.Dialect {
	if t.db != nil {
		return t.db.dialect
	}
	return dialect.NewPostgresDialect()
}

func (t Table) stmtCache() cache.StatementCache {
	if t.db != nil {
		return t.db.cache
	}
	return nil
}
