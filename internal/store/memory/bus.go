package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/gosuda/dopalist/internal/domain"
)

// Bus is an in-process pub/sub with the same channel semantics as the redis
// backend: slow subscribers drop messages instead of blocking publishers.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]chan []byte
}

func NewBus() *Bus {
	return &Bus{subs: make(map[string]map[int]chan []byte)}
}

func (b *Bus) Publish(_ context.Context, channel string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs[channel] {
		msg := make([]byte, len(payload))
		copy(msg, payload)
		select {
		case ch <- msg:
		default:
		}
	}
	return nil
}

// PublishEvent encodes ev and publishes it on channel.
func (b *Bus) PublishEvent(ctx context.Context, channel string, ev domain.Event) error {
	payload, err := domain.EncodeEvent(ev)
	if err != nil {
		return fmt.Errorf("memory.Bus.PublishEvent: %w", err)
	}
	return b.Publish(ctx, channel, payload)
}

func (b *Bus) Subscribe(ctx context.Context, channel string) (<-chan []byte, func(), error) {
	ch := make(chan []byte, 64)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	if b.subs[channel] == nil {
		b.subs[channel] = make(map[int]chan []byte)
	}
	b.subs[channel][id] = ch
	b.mu.Unlock()

	var once sync.Once
	done := make(chan struct{})
	cleanup := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs[channel], id)
			if len(b.subs[channel]) == 0 {
				delete(b.subs, channel)
			}
			b.mu.Unlock()
			close(ch)
			close(done)
		})
	}

	go func() {
		select {
		case <-ctx.Done():
			cleanup()
		case <-done:
		}
	}()

	return ch, cleanup, nil
}
