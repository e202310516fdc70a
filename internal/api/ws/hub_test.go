package ws_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/dopalist/internal/api/ws"
	"github.com/gosuda/dopalist/internal/domain"
	"github.com/gosuda/dopalist/internal/store/memory"
)

const channel = "test_events"

func dial(t *testing.T, hub *ws.Hub, query string) (*websocket.Conn, context.Context) {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeEvents))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + query
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.CloseNow() })

	return conn, ctx
}

// publishUntil keeps publishing ev until ctx ends, covering the window before
// the server-side subscription exists.
func publishUntil(ctx context.Context, hub *ws.Hub, evs ...domain.Event) {
	go func() {
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for {
			for _, ev := range evs {
				_ = hub.PublishEvent(ctx, channel, ev)
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

func TestServeEvents_ForwardsEvents(t *testing.T) {
	t.Parallel()

	hub := ws.NewHub(memory.NewBus(), channel, nil)
	conn, ctx := dial(t, hub, "")

	pubCtx, stop := context.WithCancel(ctx)
	defer stop()
	publishUntil(pubCtx, hub, domain.Event{Type: domain.EventTaskAdded, TaskID: "t1"})

	typ, msg, err := conn.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, websocket.MessageText, typ)

	var ev domain.Event
	require.NoError(t, json.Unmarshal(msg, &ev))
	assert.Equal(t, domain.EventTaskAdded, ev.Type)
	assert.Equal(t, "t1", ev.TaskID)
}

func TestServeEvents_TypeFilter(t *testing.T) {
	t.Parallel()

	hub := ws.NewHub(memory.NewBus(), channel, nil)
	conn, ctx := dial(t, hub, "?types=reward.triggered")

	pubCtx, stop := context.WithCancel(ctx)
	defer stop()
	publishUntil(pubCtx, hub,
		domain.Event{Type: domain.EventTaskToggled, TaskID: "t1"},
		domain.Event{Type: domain.EventRewardTriggered, TaskID: "t1", Reward: &domain.RewardResult{Type: domain.ResultSmall}},
	)

	for range 3 {
		_, msg, err := conn.Read(ctx)
		require.NoError(t, err)

		var ev domain.Event
		require.NoError(t, json.Unmarshal(msg, &ev))
		assert.Equal(t, domain.EventRewardTriggered, ev.Type)
		require.NotNil(t, ev.Reward)
	}
}
