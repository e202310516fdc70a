package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/dopalist/internal/domain"
	redisstore "github.com/gosuda/dopalist/internal/store/redis"
)

func newClient(t *testing.T) (*redisstore.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	c, err := redisstore.New(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	return c, mr
}

func TestNew_PingFailure(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := redisstore.New(ctx, addr, "", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping")
}

func TestClient_GetMissingKey(t *testing.T) {
	t.Parallel()

	c, _ := newClient(t)

	_, err := c.Get(context.Background(), "dopalist_tasks")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestClient_SetThenGet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c, mr := newClient(t)

	require.NoError(t, c.Set(ctx, "dopalist_rewards", []byte(`[]`)))

	got, err := c.Get(ctx, "dopalist_rewards")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(got))

	raw, err := mr.Get("dopalist_rewards")
	require.NoError(t, err)
	assert.Equal(t, "[]", raw)
	assert.Zero(t, mr.TTL("dopalist_rewards"), "collections never expire")
}

func TestClient_PublishSubscribe(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c, _ := newClient(t)

	msgs, cleanup, err := c.Subscribe(ctx, domain.EventsChannel("dopalist_"))
	require.NoError(t, err)
	defer cleanup()

	require.NoError(t, c.Publish(ctx, domain.EventsChannel("dopalist_"), []byte(`{"type":"task.added"}`)))

	select {
	case msg := <-msgs:
		assert.JSONEq(t, `{"type":"task.added"}`, string(msg))
	case <-time.After(2 * time.Second):
		t.Fatal("expected a published message")
	}
}

func TestClient_PublishEvent(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c, _ := newClient(t)
	channel := domain.EventsChannel("dopalist_")

	msgs, cleanup, err := c.Subscribe(ctx, channel)
	require.NoError(t, err)
	defer cleanup()

	at := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	want := domain.Event{
		Type:   domain.EventRewardTriggered,
		TaskID: "t1",
		Reward: &domain.RewardResult{Type: domain.ResultSuper},
		At:     at,
	}
	require.NoError(t, c.PublishEvent(ctx, channel, want))

	select {
	case msg := <-msgs:
		got, decodeErr := domain.DecodeEvent(msg)
		require.NoError(t, decodeErr)
		assert.Equal(t, want.Type, got.Type)
		assert.Equal(t, want.TaskID, got.TaskID)
		require.NotNil(t, got.Reward)
		assert.Equal(t, domain.ResultSuper, got.Reward.Type)
		assert.True(t, at.Equal(got.At))
	case <-time.After(2 * time.Second):
		t.Fatal("expected a published event")
	}
}
