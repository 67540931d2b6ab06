package redisx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ariefcatur/go-coffee-orders/internal/storage"
	"github.com/redis/go-redis/v9"
)

// Store keeps each record under its own key. Tab sessions expire, every
// other collection is kept until removed.
type Store struct {
	rdb *redis.Client
	ttl map[string]time.Duration
}

func NewStore(rdb *redis.Client, tabTTL time.Duration) *Store {
	return &Store{
		rdb: rdb,
		ttl: map[string]time.Duration{storage.CollectionSessionTab: tabTTL},
	}
}

func recordKey(collection, key string) string {
	return fmt.Sprintf(KeyRecord, collection, key)
}

func (s *Store) Get(ctx context.Context, collection, key string) ([]byte, error) {
	b, err := s.rdb.Get(ctx, recordKey(collection, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%s/%s: %w", collection, key, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s/%s: %w", collection, key, err)
	}
	return b, nil
}

func (s *Store) Set(ctx context.Context, collection, key string, value []byte) error {
	if err := s.rdb.Set(ctx, recordKey(collection, key), value, s.ttl[collection]).Err(); err != nil {
		return fmt.Errorf("redis set %s/%s: %w", collection, key, err)
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, collection, key string) error {
	if err := s.rdb.Del(ctx, recordKey(collection, key)).Err(); err != nil {
		return fmt.Errorf("redis del %s/%s: %w", collection, key, err)
	}
	return nil
}
