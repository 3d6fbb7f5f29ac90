package relq

import (
	"context"

	"github.com/relq-dev/relq/connector"
	"github.com/relq-dev/relq/database"
	"github.com/relq-dev/relq/expr"
	"github.com/relq-dev/relq/query"
	"github.com/relq-dev/relq/txn"
)

type (
	Config     = connector.Config
	PoolConfig = connector.PoolConfig
	Registry   = connector.Registry

	DB    = query.DB
	Table = query.Table
	Query = query.Query
	Row   = query.Row
	Iter  = query.Iter

	Node       = expr.Node
	TxnOptions = txn.Options
)

// Expression constructors, re-exported so most callers only import this
// package.
var (
	F     = expr.F
	Field = expr.Field
	Safe  = expr.Safe
	Value = expr.Value
)

// Connect opens a pool, registers it as the default in a fresh registry and
// returns a DB bound to it.
func Connect(ctx context.Context, cfg Config) (*DB, error) {
	pool, err := connector.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	registry := connector.NewRegistry()
	registry.Register(connector.DefaultPoolName, pool)
	return query.New(registry), nil
}

// ConnectDSN is Connect for callers that already hold a DSN string.
func ConnectDSN(ctx context.Context, dsn string, pc PoolConfig) (*DB, error) {
	pool, err := connector.ConnectDSN(ctx, dsn, pc)
	if err != nil {
		return nil, err
	}
	registry := connector.NewRegistry()
	registry.Register(connector.DefaultPoolName, pool)
	return query.New(registry), nil
}

// Atomic runs fn inside a transaction scope on the given pool. Nested calls
// on the same pool reuse the outer connection through savepoints.
func Atomic(ctx context.Context, pool database.Pool, opts TxnOptions, fn func(ctx context.Context) error) error {
	return txn.Atomic(ctx, pool, opts, fn)
}
