package reward_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/dopalist/internal/domain"
	"github.com/gosuda/dopalist/internal/persist"
	"github.com/gosuda/dopalist/internal/reward"
	"github.com/gosuda/dopalist/internal/store/memory"
)

type brokenGateway struct{ saves int }

func (b *brokenGateway) Rewards(context.Context) ([]domain.Reward, error) {
	return nil, errors.New("storage offline")
}

func (b *brokenGateway) SaveRewards(context.Context, []domain.Reward) error {
	b.saves++
	return errors.New("storage offline")
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("r%d", n)
	}
}

func newCatalog(t *testing.T, seed []domain.Reward, opts ...reward.Option) (*reward.Catalog, *persist.Gateway) {
	t.Helper()

	gw := persist.New(memory.NewKV(), persist.WithRewardSeed(seed))
	opts = append([]reward.Option{reward.WithIDGenerator(sequentialIDs())}, opts...)
	return reward.NewCatalog(context.Background(), gw, nil, opts...), gw
}

func TestCatalog_SeedsOnFirstUse(t *testing.T) {
	t.Parallel()

	seed, err := reward.DefaultCatalog()
	require.NoError(t, err)

	c, gw := newCatalog(t, seed)
	assert.Equal(t, seed, c.List())

	stored, err := gw.Rewards(context.Background())
	require.NoError(t, err)
	assert.Equal(t, seed, stored)
}

func TestCatalog_AddClampsWeight(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c, gw := newCatalog(t, nil)

	r, err := c.Add(ctx, "  nap  ", domain.RewardSuper, -3)
	require.NoError(t, err)
	assert.Equal(t, "r1", r.ID)
	assert.Equal(t, "nap", r.Text)
	assert.Equal(t, 1, r.Weight)

	stored, err := gw.Rewards(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, r, stored[0])
}

func TestCatalog_AddValidation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c, _ := newCatalog(t, nil)

	_, err := c.Add(ctx, "   ", domain.RewardSmall, 5)
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = c.Add(ctx, "walk", domain.RewardType("normal"), 5)
	require.ErrorIs(t, err, domain.ErrValidation)

	assert.Empty(t, c.List())
}

func TestCatalog_UpdateAndSetWeight(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c, _ := newCatalog(t, nil)

	r, err := c.Add(ctx, "walk", domain.RewardSmall, 4)
	require.NoError(t, err)

	got, err := c.SetWeight(ctx, r.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Weight)

	text := "long walk"
	typ := domain.RewardSuper
	got, err = c.Update(ctx, r.ID, reward.Patch{Text: &text, Type: &typ})
	require.NoError(t, err)
	assert.Equal(t, "long walk", got.Text)
	assert.Equal(t, domain.RewardSuper, got.Type)
	assert.Equal(t, 1, got.Weight)

	_, err = c.SetWeight(ctx, "missing", 3)
	require.ErrorIs(t, err, domain.ErrNotFound)

	blank := " "
	_, err = c.Update(ctx, r.ID, reward.Patch{Text: &blank})
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestCatalog_DeleteKeepsOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c, _ := newCatalog(t, nil)

	for _, text := range []string{"a", "b", "c"} {
		_, err := c.Add(ctx, text, domain.RewardSmall, 1)
		require.NoError(t, err)
	}

	require.NoError(t, c.Delete(ctx, "r2"))
	require.ErrorIs(t, c.Delete(ctx, "r2"), domain.ErrNotFound)

	list := c.List()
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].Text)
	assert.Equal(t, "c", list[1].Text)
}

func TestCatalog_TriggerUsesSource(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	seed := []domain.Reward{
		{ID: "s", Text: "small", Type: domain.RewardSmall, Weight: 1},
		{ID: "S", Text: "super", Type: domain.RewardSuper, Weight: 1},
	}

	c, _ := newCatalog(t, seed, reward.WithSource(fixedSource(0.9)))
	got := c.Trigger(ctx)
	assert.Equal(t, domain.ResultSuper, got.Type)
	require.NotNil(t, got.Reward)
	assert.Equal(t, "S", got.Reward.ID)

	require.NoError(t, c.Delete(ctx, "s"))
	require.NoError(t, c.Delete(ctx, "S"))
	assert.Equal(t, domain.ResultNormal, c.Trigger(ctx).Type)
}

func TestCatalog_Summary(t *testing.T) {
	t.Parallel()

	seed := []domain.Reward{
		{ID: "1", Text: "a", Type: domain.RewardSmall, Weight: 3},
		{ID: "2", Text: "b", Type: domain.RewardSuper, Weight: 1},
	}
	c, _ := newCatalog(t, seed)

	s := c.Summary()
	assert.Equal(t, 2, s.Count)
	assert.Equal(t, 4, s.TotalWeight)
	assert.InDelta(t, 0.75, s.SmallChance, 1e-9)
	assert.InDelta(t, 0.25, s.SuperChance, 1e-9)

	empty := reward.Summarize(nil)
	assert.Zero(t, empty.SmallChance)
}

func TestCatalog_StorageFailureKeepsMemory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fallback := []domain.Reward{{ID: "f", Text: "fallback", Type: domain.RewardSmall, Weight: 1}}
	gw := &brokenGateway{}

	c := reward.NewCatalog(ctx, gw, fallback, reward.WithIDGenerator(sequentialIDs()))
	assert.Equal(t, fallback, c.List())

	_, err := c.Add(ctx, "still works", domain.RewardSmall, 2)
	require.NoError(t, err)
	assert.Len(t, c.List(), 2)
	assert.Equal(t, 1, gw.saves)
}
