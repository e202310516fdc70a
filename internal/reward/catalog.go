package reward

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/dopalist/internal/domain"
)

// Gateway is the slice of the persistence gateway the catalog needs.
// *persist.Gateway satisfies it.
type Gateway interface {
	Rewards(ctx context.Context) ([]domain.Reward, error)
	SaveRewards(ctx context.Context, rewards []domain.Reward) error
}

// Catalog owns the in-memory reward catalog for the session and writes every
// change through to the gateway. Failed writes are logged; memory stays
// authoritative.
type Catalog struct {
	mu      sync.Mutex
	gw      Gateway
	rewards []domain.Reward
	src     Source
	newID   func() string
}

type Option func(*Catalog)

// WithSource replaces the process-wide random source, mainly for tests.
func WithSource(src Source) Option {
	return func(c *Catalog) { c.src = src }
}

// WithIDGenerator replaces the UUIDv7 id generator.
func WithIDGenerator(fn func() string) Option {
	return func(c *Catalog) { c.newID = fn }
}

type globalSource struct{}

func (globalSource) Float64() float64 { return rand.Float64() }

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// NewCatalog loads the catalog once. If the read fails, fallback is used for
// the session and the error is logged.
func NewCatalog(ctx context.Context, gw Gateway, fallback []domain.Reward, opts ...Option) *Catalog {
	c := &Catalog{gw: gw, src: globalSource{}, newID: newID}
	for _, opt := range opts {
		opt(c)
	}

	rewards, err := gw.Rewards(ctx)
	if err != nil {
		log.Error().Err(err).Msg("load reward catalog; using defaults for this session")
		rewards = make([]domain.Reward, len(fallback))
		copy(rewards, fallback)
	}
	c.rewards = rewards

	return c
}

// List returns a copy of the catalog in stored order.
func (c *Catalog) List() []domain.Reward {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]domain.Reward, len(c.rewards))
	copy(out, c.rewards)
	return out
}

// Trigger draws a reward from the current catalog.
func (c *Catalog) Trigger(_ context.Context) domain.RewardResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Draw(c.rewards, c.src)
}

// Add appends a reward. The weight is clamped to at least 1.
func (c *Catalog) Add(ctx context.Context, text string, typ domain.RewardType, weight int) (domain.Reward, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.Reward{}, fmt.Errorf("reward.Catalog.Add: empty text: %w", domain.ErrValidation)
	}
	if !typ.Valid() {
		return domain.Reward{}, fmt.Errorf("reward.Catalog.Add: unknown type %q: %w", typ, domain.ErrValidation)
	}

	r := domain.Reward{
		ID:     c.newID(),
		Text:   text,
		Type:   typ,
		Weight: domain.ClampWeight(weight),
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	next := make([]domain.Reward, len(c.rewards), len(c.rewards)+1)
	copy(next, c.rewards)
	next = append(next, r)
	c.commit(ctx, next)

	return r, nil
}

// Patch describes a partial reward update; nil fields are left unchanged.
type Patch struct {
	Text   *string
	Type   *domain.RewardType
	Weight *int
}

// Update applies p to the reward with id. Weights are clamped to at least 1.
func (c *Catalog) Update(ctx context.Context, id string, p Patch) (domain.Reward, error) {
	if p.Text != nil && strings.TrimSpace(*p.Text) == "" {
		return domain.Reward{}, fmt.Errorf("reward.Catalog.Update: empty text: %w", domain.ErrValidation)
	}
	if p.Type != nil && !p.Type.Valid() {
		return domain.Reward{}, fmt.Errorf("reward.Catalog.Update: unknown type %q: %w", *p.Type, domain.ErrValidation)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.indexOf(id)
	if idx < 0 {
		return domain.Reward{}, fmt.Errorf("reward.Catalog.Update %q: %w", id, domain.ErrNotFound)
	}

	next := make([]domain.Reward, len(c.rewards))
	copy(next, c.rewards)

	r := &next[idx]
	if p.Text != nil {
		r.Text = strings.TrimSpace(*p.Text)
	}
	if p.Type != nil {
		r.Type = *p.Type
	}
	if p.Weight != nil {
		r.Weight = domain.ClampWeight(*p.Weight)
	}
	c.commit(ctx, next)

	return *r, nil
}

// SetWeight is Update with only a weight.
func (c *Catalog) SetWeight(ctx context.Context, id string, weight int) (domain.Reward, error) {
	return c.Update(ctx, id, Patch{Weight: &weight})
}

// Delete removes the reward with id.
func (c *Catalog) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("reward.Catalog.Delete %q: %w", id, domain.ErrNotFound)
	}

	next := make([]domain.Reward, 0, len(c.rewards)-1)
	next = append(next, c.rewards[:idx]...)
	next = append(next, c.rewards[idx+1:]...)
	c.commit(ctx, next)

	return nil
}

// Summary reports how the total weight splits between small and super rewards.
type Summary struct {
	Count       int     `json:"count"`
	TotalWeight int     `json:"total_weight"`
	SmallWeight int     `json:"small_weight"`
	SuperWeight int     `json:"super_weight"`
	SmallChance float64 `json:"small_chance"`
	SuperChance float64 `json:"super_chance"`
}

// Summary computes the weight split of the current catalog.
func (c *Catalog) Summary() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Summarize(c.rewards)
}

// Summarize computes the weight split of rewards. Chances are fractions in [0, 1].
func Summarize(rewards []domain.Reward) Summary {
	s := Summary{Count: len(rewards)}
	for _, r := range rewards {
		if r.Weight <= 0 {
			continue
		}
		s.TotalWeight += r.Weight
		switch r.Type {
		case domain.RewardSmall:
			s.SmallWeight += r.Weight
		case domain.RewardSuper:
			s.SuperWeight += r.Weight
		}
	}
	if s.TotalWeight > 0 {
		s.SmallChance = float64(s.SmallWeight) / float64(s.TotalWeight)
		s.SuperChance = float64(s.SuperWeight) / float64(s.TotalWeight)
	}
	return s
}

func (c *Catalog) indexOf(id string) int {
	for i := range c.rewards {
		if c.rewards[i].ID == id {
			return i
		}
	}
	return -1
}

// commit swaps in next and writes it through. Caller holds c.mu.
func (c *Catalog) commit(ctx context.Context, next []domain.Reward) {
	c.rewards = next
	if err := c.gw.SaveRewards(ctx, next); err != nil {
		log.Error().Err(err).Str("collection", string(domain.CollectionRewards)).Msg("persist reward catalog")
	}
}
