package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps client state in Redis.
//
// Key schema:
//
//	session:{sid}:{key}      - string value (token, user JSON)
//	session:{sid}:favorites  - set of market ids
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore creates a store whose keys expire ttl after their last write
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func valueKey(sid, key string) string { return "session:" + sid + ":" + key }
func favoritesKey(sid string) string  { return "session:" + sid + ":favorites" }

func (s *RedisStore) Get(ctx context.Context, sid, key string) (string, error) {
	val, err := s.rdb.Get(ctx, valueKey(sid, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis: get %s: %w", key, err)
	}
	return val, nil
}

func (s *RedisStore) Set(ctx context.Context, sid, key, value string) error {
	if err := s.rdb.Set(ctx, valueKey(sid, key), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, sid string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = valueKey(sid, k)
	}
	if err := s.rdb.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("redis: delete session keys: %w", err)
	}
	return nil
}

func (s *RedisStore) Favorites(ctx context.Context, sid string) ([]string, error) {
	ids, err := s.rdb.SMembers(ctx, favoritesKey(sid)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: read favorites: %w", err)
	}
	return ids, nil
}

func (s *RedisStore) AddFavorite(ctx context.Context, sid, marketID string) error {
	key := favoritesKey(sid)
	pipe := s.rdb.TxPipeline()
	pipe.SAdd(ctx, key, marketID)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: add favorite %s: %w", marketID, err)
	}
	return nil
}

func (s *RedisStore) RemoveFavorite(ctx context.Context, sid, marketID string) error {
	if err := s.rdb.SRem(ctx, favoritesKey(sid), marketID).Err(); err != nil {
		return fmt.Errorf("redis: remove favorite %s: %w", marketID, err)
	}
	return nil
}

func (s *RedisStore) ReplaceFavorites(ctx context.Context, sid string, marketIDs []string) error {
	key := favoritesKey(sid)
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, key)
	if len(marketIDs) > 0 {
		members := make([]interface{}, len(marketIDs))
		for i, id := range marketIDs {
			members[i] = id
		}
		pipe.SAdd(ctx, key, members...)
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: replace favorites: %w", err)
	}
	return nil
}

func (s *RedisStore) ClearFavorites(ctx context.Context, sid string) error {
	if err := s.rdb.Del(ctx, favoritesKey(sid)).Err(); err != nil {
		return fmt.Errorf("redis: clear favorites: %w", err)
	}
	return nil
}
