package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/dopalist/internal/domain"
)

// CollectionRepo stores each collection as one JSONB row keyed by name.
// It satisfies domain.KVStore.
type CollectionRepo struct {
	pool *pgxpool.Pool
}

func NewCollectionRepo(pool *pgxpool.Pool) *CollectionRepo {
	return &CollectionRepo{pool: pool}
}

func (r *CollectionRepo) Get(ctx context.Context, key string) ([]byte, error) {
	var payload []byte

	err := r.pool.QueryRow(ctx,
		`SELECT payload FROM collections WHERE name = $1`,
		key,
	).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("collectionRepo.Get %q: %w", key, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("collectionRepo.Get %q: %w", key, err)
	}

	return payload, nil
}

func (r *CollectionRepo) Set(ctx context.Context, key string, value []byte) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO collections (name, payload, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (name) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("collectionRepo.Set %q: %w", key, err)
	}

	return nil
}
