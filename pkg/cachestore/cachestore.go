// Package cachestore remembers which provider cache was built for which set
// of files, so an unchanged file set can reuse its cache instead of paying
// for a new one.
package cachestore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "copilot:cache:"

type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, cacheName string, ttl time.Duration) error
}

// Key identifies a file set. It depends on every path and fingerprint and on
// the model, but not on the order files were synced in.
func Key(model string, fingerprints map[string]string) string {
	pairs := make([]string, 0, len(fingerprints))
	for path, fp := range fingerprints {
		pairs = append(pairs, path+":"+fp)
	}
	sort.Strings(pairs)

	h := sha256.New()
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(pairs, "\n")))
	return hex.EncodeToString(h.Sum(nil))
}

type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.rdb.Get(ctx, keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get: %w", err)
	}
	return val, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key, cacheName string, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, keyPrefix+key, cacheName, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// MemoryStore keeps the memo for the lifetime of the process.
type MemoryStore struct {
	items *cache.Cache
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: cache.New(time.Hour, 10*time.Minute)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	if x, found := s.items.Get(key); found {
		return x.(string), true, nil
	}
	return "", false, nil
}

func (s *MemoryStore) Set(_ context.Context, key, cacheName string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = cache.DefaultExpiration
	}
	s.items.Set(key, cacheName, ttl)
	return nil
}
