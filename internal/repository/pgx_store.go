package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type pgxStore struct {
	pool *pgxpool.Pool
	opts Options
}

// NewPgxStore returns a Postgres-backed Store over a pgx pool.
func NewPgxStore(pool *pgxpool.Pool, opts Options) Store {
	return &pgxStore{pool: pool, opts: opts.withDefaults()}
}

func (s *pgxStore) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.opts.Timeout)
}

func (s *pgxStore) Ping(ctx context.Context) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	return storeError("ping", s.pool.Ping(ctx))
}

func (s *pgxStore) Close() error {
	s.pool.Close()
	return nil
}
