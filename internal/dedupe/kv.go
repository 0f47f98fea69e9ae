// Package dedupe suppresses repeat notifications with a TTL key-value
// bucket hosted on the same JetStream cluster as the bus.
package dedupe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"trendstream/internal/ports"
)

// KVStore implements the dedupe port on a JetStream key-value bucket. The
// bucket carries the TTL, so every key expires after the same window.
type KVStore struct {
	kv jetstream.KeyValue
}

var _ ports.DedupeStore = (*KVStore)(nil)

// NewKVStore wraps an existing bucket.
func NewKVStore(kv jetstream.KeyValue) *KVStore {
	return &KVStore{kv: kv}
}

// Exists reports whether the key is present and unexpired.
func (s *KVStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.kv.Get(ctx, key)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get dedupe key: %w", err)
	}
	return true, nil
}

// SetWithTTL writes the key. The per-call TTL is advisory here: expiry is
// governed by the bucket's TTL, which app wiring sets from the same config
// value callers pass in.
func (s *KVStore) SetWithTTL(ctx context.Context, key string, _ time.Duration) error {
	if _, err := s.kv.Put(ctx, key, []byte{1}); err != nil {
		return fmt.Errorf("put dedupe key: %w", err)
	}
	return nil
}
