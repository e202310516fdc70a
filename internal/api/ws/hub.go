package ws

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/dopalist/internal/domain"
)

// Bus is the pub/sub backend behind the hub. *memory.Bus and *redis.Client
// satisfy it.
type Bus interface {
	domain.EventPublisher
	domain.EventSubscriber
}

// Hub streams change events to WebSocket clients.
type Hub struct {
	bus     Bus
	channel string
	origins []string
}

// NewHub creates a hub relaying events published on channel. origins are
// host patterns accepted for cross-origin connections.
func NewHub(bus Bus, channel string, origins []string) *Hub {
	return &Hub{bus: bus, channel: channel, origins: origins}
}

// ServeEvents handles WebSocket connections for task and reward events.
// The optional "types" query parameter is a comma-separated list of event
// types to forward; all events are forwarded when it is empty.
func (h *Hub) ServeEvents(w http.ResponseWriter, r *http.Request) {
	filter := parseTypes(r.URL.Query().Get("types"))

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: originHosts(h.origins)})
	if err != nil {
		log.Error().Err(err).Msg("websocket accept")
		return
	}
	defer conn.CloseNow()

	// Reads are never expected; CloseRead handles control frames and cancels
	// ctx when the client goes away.
	ctx := conn.CloseRead(r.Context())

	messages, cleanup, err := h.bus.Subscribe(ctx, h.channel)
	if err != nil {
		log.Error().Err(err).Msg("websocket subscribe")
		_ = conn.Close(websocket.StatusInternalError, "subscribe failed")
		return
	}
	defer cleanup()

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "connection closed")
			return
		case msg, msgOK := <-messages:
			if !msgOK {
				_ = conn.Close(websocket.StatusNormalClosure, "channel closed")
				return
			}
			if !filter.allows(msg) {
				continue
			}
			if writeErr := conn.Write(ctx, websocket.MessageText, msg); writeErr != nil {
				log.Debug().Err(writeErr).Msg("websocket write")
				return
			}
		}
	}
}

// PublishEvent sends ev to the hub's bus. The hub satisfies
// domain.EventPublisher so the task store can publish through it.
func (h *Hub) PublishEvent(ctx context.Context, channel string, ev domain.Event) error {
	if err := h.bus.PublishEvent(ctx, channel, ev); err != nil {
		return fmt.Errorf("ws.Hub.PublishEvent: %w", err)
	}
	return nil
}

type typeFilter map[domain.EventType]bool

func parseTypes(raw string) typeFilter {
	if raw == "" {
		return nil
	}
	f := typeFilter{}
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			f[domain.EventType(p)] = true
		}
	}
	return f
}

func (f typeFilter) allows(msg []byte) bool {
	if len(f) == 0 {
		return true
	}
	ev, err := domain.DecodeEvent(msg)
	if err != nil {
		return false
	}
	return f[ev.Type]
}

// originHosts strips schemes so CORS origins can double as websocket origin
// patterns.
func originHosts(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		if i := strings.Index(o, "://"); i >= 0 {
			o = o[i+3:]
		}
		out = append(out, o)
	}
	return out
}
