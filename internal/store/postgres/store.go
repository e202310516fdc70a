package postgres

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

//go:embed migrations/001_collections.up.sql
var createCollectionsUp string

type Store struct {
	pool        *pgxpool.Pool
	collections *CollectionRepo
}

func New(ctx context.Context, dsn string, maxConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: parse config: %w", err)
	}

	cfg.MaxConns = maxConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: connect: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}

	return &Store{
		pool:        pool,
		collections: NewCollectionRepo(pool),
	}, nil
}

// Migrate creates the collections table when it does not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	log.Debug().Msg("running postgres migrations")

	if _, err := s.pool.Exec(ctx, createCollectionsUp); err != nil {
		return fmt.Errorf("postgres.Migrate: collections: %w", err)
	}

	return nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Collections() *CollectionRepo { return s.collections }
