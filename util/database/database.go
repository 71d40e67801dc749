package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps the single process-scoped pgx pool. It is constructed once in main
// and injected into repositories; handlers never build their own connections.
type DB struct{ Pool *pgxpool.Pool }

func New(ctx context.Context, dsn string) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	p, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, err
	}
	return &DB{Pool: p}, nil
}

func (db *DB) Close() { db.Pool.Close() }
