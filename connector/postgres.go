package connector

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/relq-dev/relq/database"
)

// Connect opens a pgx pool for cfg and wraps it in the database boundary.
func Connect(ctx context.Context, cfg Config) (database.Pool, error) {
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	var pool database.Pool
	connect := func(ctx context.Context) error {
		p, err := connectOnce(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}

	if cfg.Retry != nil {
		if err := retryConnect(ctx, cfg.Retry, connect); err != nil {
			return nil, fmt.Errorf("connect failed after %d retries: %w", cfg.Retry.MaxRetries, err)
		}
		return pool, nil
	}

	if err := connect(ctx); err != nil {
		return nil, err
	}
	return pool, nil
}

// ConnectDSN opens a pool from a raw postgres DSN.
func ConnectDSN(ctx context.Context, dsn string, pool PoolConfig) (database.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	applyPoolConfig(poolCfg, pool.withDefaults())

	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}
	return database.NewPgxPool(p), nil
}

func connectOnce(ctx context.Context, cfg Config) (database.Pool, error) {
	return ConnectDSN(ctx, buildDSN(cfg), cfg.Pool)
}

func buildDSN(cfg Config) string {
	return NewDSNBuilder().
		Auth(cfg.Username, cfg.Password).
		Host(cfg.Host, cfg.Port).
		Database(cfg.Database).
		Param("sslmode", cfg.SSLMode).
		Params(cfg.Params).
		Build()
}

func applyPoolConfig(poolCfg *pgxpool.Config, pc PoolConfig) {
	poolCfg.MaxConns = int32(pc.MaxOpen)
	poolCfg.MinConns = int32(pc.MinIdle)
	poolCfg.MaxConnLifetime = pc.MaxLifetime
	poolCfg.MaxConnIdleTime = pc.MaxIdleTime
}
