package memory_test

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/dopalist/internal/domain"
	"github.com/gosuda/dopalist/internal/store/memory"
)

func TestKV_GetMissingKey(t *testing.T) {
	t.Parallel()

	kv := memory.NewKV()
	_, err := kv.Get(context.Background(), "dopalist_tasks")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestKV_SetThenGet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	kv := memory.NewKV()

	payload := []byte(`[{"id":"1"}]`)
	require.NoError(t, kv.Set(ctx, "k", payload))

	// Mutating the caller's buffer must not leak into the store.
	payload[0] = 'X'

	got, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"1"}]`, string(got))
}

func TestKV_LastWriteWins(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	kv := memory.NewKV()

	require.NoError(t, kv.Set(ctx, "k", []byte("a")))
	require.NoError(t, kv.Set(ctx, "k", []byte("b")))

	got, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "b", string(got))
}

func TestBus_PublishSubscribe(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := memory.NewBus()
	msgs, cleanup, err := bus.Subscribe(ctx, "dopalist_events")
	require.NoError(t, err)
	defer cleanup()

	require.NoError(t, bus.Publish(ctx, "dopalist_events", []byte("hello")))
	require.NoError(t, bus.Publish(ctx, "other", []byte("ignored")))

	select {
	case msg := <-msgs:
		assert.Equal(t, "hello", string(msg))
	case <-time.After(time.Second):
		t.Fatal("expected a message")
	}

	select {
	case msg := <-msgs:
		t.Fatalf("unexpected message %q", msg)
	default:
	}
}

func TestBus_CleanupClosesChannel(t *testing.T) {
	t.Parallel()

	bus := memory.NewBus()
	msgs, cleanup, err := bus.Subscribe(context.Background(), "c")
	require.NoError(t, err)

	cleanup()
	cleanup() // idempotent

	_, ok := <-msgs
	assert.False(t, ok)
	assert.NoError(t, bus.Publish(context.Background(), "c", []byte("x")))
}

func TestBus_PublishEvent(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := memory.NewBus()
	msgs, cleanup, err := bus.Subscribe(ctx, "dopalist_events")
	require.NoError(t, err)
	defer cleanup()

	require.NoError(t, bus.PublishEvent(ctx, "dopalist_events", domain.Event{Type: domain.EventTaskDeleted, TaskID: "t1"}))

	select {
	case msg := <-msgs:
		ev, decodeErr := domain.DecodeEvent(msg)
		require.NoError(t, decodeErr)
		assert.Equal(t, domain.EventTaskDeleted, ev.Type)
		assert.Equal(t, "t1", ev.TaskID)
	case <-time.After(time.Second):
		t.Fatal("expected an event")
	}
}

// Not parallel: it compares goroutine counts.
func TestBus_CleanupReleasesWatcher(t *testing.T) {
	bus := memory.NewBus()
	before := runtime.NumGoroutine()

	cleanups := make([]func(), 0, 50)
	for range 50 {
		_, cleanup, err := bus.Subscribe(context.Background(), "c")
		require.NoError(t, err)
		cleanups = append(cleanups, cleanup)
	}
	require.GreaterOrEqual(t, runtime.NumGoroutine(), before+50)

	for _, cleanup := range cleanups {
		cleanup()
	}

	require.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before
	}, 2*time.Second, 10*time.Millisecond)
}
