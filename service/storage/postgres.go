package storage

import (
	"context"

	errs "hardwire/tools/errs"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store wraps the pgx pool. One instance per process, injected into the
// relay and push handlers so tests can swap in fakes behind the interfaces
// they consume.
type Store struct {
	pool *pgxpool.Pool
}

func Open(ctx context.Context, databaseURL string) (*Store, error) {
	if databaseURL == "" {
		return nil, errs.ErrArgs.WrapMsg("DATABASE_URL empty")
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, errs.WrapMsg(err, "open pgx pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errs.WrapMsg(err, "ping postgres")
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}
