package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shokenlabs/voucher-analyzer/internal/voucher"
)

const keyPrefix = "voucher:analysis:"

// RedisStore persists results in Redis as JSON. An optional TTL bounds how
// long a session stays retrievable.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to the given address. A zero TTL means results do
// not expire.
func NewRedisStore(addr, password string, db int, ttl time.Duration) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisStore{client: client, ttl: ttl}
}

// NewRedisStoreWithClient wraps an existing client, mainly for tests.
func NewRedisStoreWithClient(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// Ping verifies connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Save stores the result as JSON under the prefixed key.
func (s *RedisStore) Save(ctx context.Context, key string, result *voucher.VoucherAnalysisResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode analysis %s: %w", key, err)
	}
	if err := s.client.Set(ctx, keyPrefix+key, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("save analysis %s: %w", key, err)
	}
	return nil
}

// Load fetches and decodes the result for a key, or ErrNotFound.
func (s *RedisStore) Load(ctx context.Context, key string) (*voucher.VoucherAnalysisResult, error) {
	payload, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load analysis %s: %w", key, err)
	}
	var result voucher.VoucherAnalysisResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("decode analysis %s: %w", key, err)
	}
	return &result, nil
}

// Delete removes the result for a key. Unknown keys are not an error.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("delete analysis %s: %w", key, err)
	}
	return nil
}

// Clear removes every stored result under the analysis prefix.
func (s *RedisStore) Clear(ctx context.Context) error {
	keys, err := s.prefixedKeys(ctx)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("clear analyses: %w", err)
	}
	return nil
}

// Keys returns all stored session keys with the prefix stripped, sorted.
func (s *RedisStore) Keys(ctx context.Context) ([]string, error) {
	prefixed, err := s.prefixedKeys(ctx)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(prefixed))
	for _, k := range prefixed {
		keys = append(keys, strings.TrimPrefix(k, keyPrefix))
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *RedisStore) prefixedKeys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan analyses: %w", err)
	}
	return keys, nil
}
