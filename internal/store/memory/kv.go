// Package memory provides in-process implementations of the storage and
// event interfaces. It backs tests and the default single-binary mode.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/gosuda/dopalist/internal/domain"
)

// KV is a map-backed domain.KVStore.
type KV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewKV() *KV {
	return &KV{data: make(map[string][]byte)}
}

func (kv *KV) Get(_ context.Context, key string) ([]byte, error) {
	kv.mu.RLock()
	defer kv.mu.RUnlock()

	v, ok := kv.data[key]
	if !ok {
		return nil, fmt.Errorf("memory.KV.Get %q: %w", key, domain.ErrNotFound)
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (kv *KV) Set(_ context.Context, key string, value []byte) error {
	v := make([]byte, len(value))
	copy(v, value)

	kv.mu.Lock()
	kv.data[key] = v
	kv.mu.Unlock()
	return nil
}
