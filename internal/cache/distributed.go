package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"
)

// Distributed implements TokenCache on valkey, allowing a token acquired by
// one process to be reused by others holding the same credentials. It uses
// server-assisted client-side caching so repeated reads of a hot key stay
// local.
type Distributed[T any] struct {
	client   valkey.Client
	ttl      time.Duration
	strategy EncryptionStrategy
}

// NewDistributed creates a valkey-backed cache. Entries expire server-side
// after ttl. The strategy controls at-rest encryption of cached values; nil
// disables encryption.
func NewDistributed[T any](client valkey.Client, ttl time.Duration, strategy EncryptionStrategy) (*Distributed[T], error) {
	if strategy == nil {
		strategy = &NoEncryptionStrategy{}
	}
	return &Distributed[T]{
		client:   client,
		ttl:      ttl,
		strategy: strategy,
	}, nil
}

// Get retrieves a value from the cache. A missing key is not an error. A
// value that cannot be decrypted or decoded is treated as corrupt: the
// entry is invalidated best-effort and an error returned.
func (d *Distributed[T]) Get(ctx context.Context, key string) (T, bool, error) {
	var zero T

	storageKey := d.strategy.StorageKey(key)

	cmd := d.client.B().Get().Key(storageKey).Cache()
	result := d.client.DoCache(ctx, cmd, d.ttl)

	if err := result.Error(); err != nil {
		if valkey.IsValkeyNil(err) {
			return zero, false, nil
		}
		return zero, false, fmt.Errorf("reading cached value: %w", err)
	}

	stored, err := result.ToString()
	if err != nil {
		return zero, false, fmt.Errorf("decoding cached value: %w", err)
	}

	data, err := d.strategy.DecryptValue(ctx, stored, key)
	if err != nil {
		_ = d.client.Do(ctx, d.client.B().Del().Key(storageKey).Build()).Error()
		return zero, false, fmt.Errorf("cache decryption failure for key %q: %w", key, err)
	}

	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		_ = d.client.Do(ctx, d.client.B().Del().Key(storageKey).Build()).Error()
		return zero, false, fmt.Errorf("unmarshalling cached value: %w", err)
	}

	return value, true, nil
}

// Set stores a value with the configured TTL. The value is JSON-serialized
// (and encrypted when a strategy is active) before storage. The SET is a
// single command: the entry is either fully replaced or untouched.
func (d *Distributed[T]) Set(ctx context.Context, key string, value T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshalling value: %w", err)
	}

	stored, err := d.strategy.EncryptValue(ctx, data, key)
	if err != nil {
		return fmt.Errorf("encrypting value: %w", err)
	}

	cmd := d.client.B().Set().
		Key(d.strategy.StorageKey(key)).
		Value(stored).
		ExSeconds(int64(d.ttl.Seconds())).
		Build()
	if err := d.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("writing cached value: %w", err)
	}
	return nil
}

// Invalidate removes a value from the cache.
func (d *Distributed[T]) Invalidate(ctx context.Context, key string) error {
	cmd := d.client.B().Del().Key(d.strategy.StorageKey(key)).Build()
	if err := d.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("invalidating cached value: %w", err)
	}
	return nil
}

// Close releases the valkey client.
func (d *Distributed[T]) Close() error {
	d.client.Close()
	return nil
}
