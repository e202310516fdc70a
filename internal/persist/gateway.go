// Package persist maps the four logical collections onto a domain.KVStore.
//
// Every read and write moves a whole collection. Reads of a collection that
// was never written yield an empty slice, except rewards, which are seeded
// with the default catalog and persisted on first read. Failures are wrapped
// with domain.ErrPersistence; callers decide whether to log or propagate.
package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/gosuda/dopalist/internal/domain"
)

// DefaultKeyPrefix namespaces every collection key.
const DefaultKeyPrefix = "dopalist_"

// Gateway is the persistence gateway.
type Gateway struct {
	kv         domain.KVStore
	prefix     string
	rewardSeed []domain.Reward
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithKeyPrefix overrides DefaultKeyPrefix.
func WithKeyPrefix(prefix string) Option {
	return func(g *Gateway) { g.prefix = prefix }
}

// WithRewardSeed sets the catalog installed on the first rewards read.
func WithRewardSeed(seed []domain.Reward) Option {
	return func(g *Gateway) {
		g.rewardSeed = make([]domain.Reward, len(seed))
		copy(g.rewardSeed, seed)
	}
}

func New(kv domain.KVStore, opts ...Option) *Gateway {
	g := &Gateway{kv: kv, prefix: DefaultKeyPrefix}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Gateway) Prefix() string { return g.prefix }

func (g *Gateway) Tasks(ctx context.Context) ([]domain.Task, error) {
	return readTasks(ctx, g, domain.CollectionTasks)
}

func (g *Gateway) SaveTasks(ctx context.Context, tasks []domain.Task) error {
	return write(ctx, g, domain.CollectionTasks, nonNil(tasks))
}

func (g *Gateway) DeletedTasks(ctx context.Context) ([]domain.Task, error) {
	return readTasks(ctx, g, domain.CollectionDeletedTasks)
}

func (g *Gateway) SaveDeletedTasks(ctx context.Context, tasks []domain.Task) error {
	return write(ctx, g, domain.CollectionDeletedTasks, nonNil(tasks))
}

func (g *Gateway) Categories(ctx context.Context) ([]domain.Category, error) {
	var out []domain.Category
	found, err := read(ctx, g, domain.CollectionCategories, &out)
	if err != nil || !found {
		return []domain.Category{}, err
	}
	return nonNil(out), nil
}

func (g *Gateway) SaveCategories(ctx context.Context, categories []domain.Category) error {
	return write(ctx, g, domain.CollectionCategories, nonNil(categories))
}

// storedReward mirrors domain.Reward with an optional weight so entries
// written before weights existed can be told apart from explicit values.
type storedReward struct {
	ID     string            `json:"id"`
	Text   string            `json:"text"`
	Type   domain.RewardType `json:"type"`
	Weight *int              `json:"weight,omitempty"`
}

// Rewards returns the reward catalog. On first use the seed catalog is
// persisted and returned. Entries lacking a weight get their type's default;
// the stored data is left untouched until the catalog is saved again.
func (g *Gateway) Rewards(ctx context.Context) ([]domain.Reward, error) {
	var stored []storedReward
	found, err := read(ctx, g, domain.CollectionRewards, &stored)
	if err != nil {
		return nil, err
	}

	if !found {
		seed := make([]domain.Reward, len(g.rewardSeed))
		copy(seed, g.rewardSeed)
		if err := g.SaveRewards(ctx, seed); err != nil {
			log.Error().Err(err).Str("collection", string(domain.CollectionRewards)).Msg("seed reward catalog")
		}
		return seed, nil
	}

	out := make([]domain.Reward, 0, len(stored))
	for _, sr := range stored {
		w := sr.Type.DefaultWeight()
		if sr.Weight != nil {
			w = *sr.Weight
		}
		out = append(out, domain.Reward{ID: sr.ID, Text: sr.Text, Type: sr.Type, Weight: w})
	}
	return out, nil
}

func (g *Gateway) SaveRewards(ctx context.Context, rewards []domain.Reward) error {
	return write(ctx, g, domain.CollectionRewards, nonNil(rewards))
}

func readTasks(ctx context.Context, g *Gateway, c domain.Collection) ([]domain.Task, error) {
	var out []domain.Task
	found, err := read(ctx, g, c, &out)
	if err != nil || !found {
		return []domain.Task{}, err
	}
	return nonNil(out), nil
}

func read(ctx context.Context, g *Gateway, c domain.Collection, dst any) (bool, error) {
	raw, err := g.kv.Get(ctx, c.Key(g.prefix))
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("persist.read %s: %w: %w", c, domain.ErrPersistence, err)
	}
	if len(raw) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("persist.read %s: decode: %w: %w", c, domain.ErrPersistence, err)
	}
	return true, nil
}

func write(ctx context.Context, g *Gateway, c domain.Collection, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("persist.write %s: encode: %w: %w", c, domain.ErrPersistence, err)
	}
	if err := g.kv.Set(ctx, c.Key(g.prefix), raw); err != nil {
		return fmt.Errorf("persist.write %s: %w: %w", c, domain.ErrPersistence, err)
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
