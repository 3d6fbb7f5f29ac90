package query

import (
	"context"

	"github.com/relq-dev/relq/cache"
	"github.com/relq-dev/relq/connector"
	"github.com/relq-dev/relq/dialect"
	"github.com/relq-dev/relq/txn"
)

const defaultCacheSize = 512

// DB binds tables to a pool registry and a compiled-statement cache. It
// holds no connection state of its own; per-context transaction state lives
// in package txn.
type DB struct {
	registry *connector.Registry
	dialect  dialect.Dialect
	cache    cache.StatementCache
}

func New(registry *connector.Registry) *DB {
	stmts, _ := cache.NewLRU(defaultCacheSize)
	return &DB{
		registry: registry,
		dialect:  dialect.NewPostgresDialect(),
		cache:    stmts,
	}
}

// Table starts a fluent chain on the named table.
func (db *DB) Table(name string) Table {
	return Table{db: db, name: name}
}

// Atomic runs fn inside a transaction scope on the default pool.
func (db *DB) Atomic(ctx context.Context, opts txn.Options, fn func(ctx context.Context) error) error {
	pool, err := db.registry.Default()
	if err != nil {
		return err
	}
	return txn.Atomic(ctx, pool, opts, fn)
}

// AtomicOn runs fn inside a transaction scope on the named pool.
func (db *DB) AtomicOn(ctx context.Context, poolName string, opts txn.Options, fn func(ctx context.Context) error) error {
	pool, err := db.registry.Lookup(poolName)
	if err != nil {
		return err
	}
	return txn.Atomic(ctx, pool, opts, fn)
}
