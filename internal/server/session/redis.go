package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "session:"
	flashKeySuffix   = ":flash"
	userField        = "uid"
)

// RedisStore keeps sessions in Redis: a hash per session and a list of JSON
// flashes next to it. Both keys share the session TTL, which is renewed on
// every read.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func sessionKey(id string) string { return sessionKeyPrefix + id }
func flashKey(id string) string   { return sessionKeyPrefix + id + flashKeySuffix }

func (s *RedisStore) Create(ctx context.Context, userID string) (string, error) {
	id, err := newSessionID()
	if err != nil {
		return "", err
	}
	key := sessionKey(id)
	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, key, userField, userID)
		p.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("redis create session: %w", err)
	}
	return id, nil
}

func (s *RedisStore) UserID(ctx context.Context, id string) (string, error) {
	key := sessionKey(id)
	uid, err := s.rdb.HGet(ctx, key, userField).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get session: %w", err)
	}
	s.touch(ctx, id)
	return uid, nil
}

func (s *RedisStore) touch(ctx context.Context, id string) {
	_, _ = s.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		p.Expire(ctx, sessionKey(id), s.ttl)
		p.Expire(ctx, flashKey(id), s.ttl)
		return nil
	})
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, sessionKey(id), flashKey(id)).Err()
}

func (s *RedisStore) AddFlash(ctx context.Context, id string, f Flash) error {
	n, err := s.rdb.Exists(ctx, sessionKey(id)).Result()
	if err != nil {
		return fmt.Errorf("redis get session: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	b, err := json.Marshal(f)
	if err != nil {
		return err
	}
	key := flashKey(id)
	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.RPush(ctx, key, b)
		p.Expire(ctx, key, s.ttl)
		return nil
	})
	return err
}

func (s *RedisStore) PopFlashes(ctx context.Context, id string) ([]Flash, error) {
	n, err := s.rdb.Exists(ctx, sessionKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis get session: %w", err)
	}
	if n == 0 {
		return nil, ErrNotFound
	}

	key := flashKey(id)
	var items *redis.StringSliceCmd
	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		items = p.LRange(ctx, key, 0, -1)
		p.Del(ctx, key)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("redis pop flashes: %w", err)
	}

	var out []Flash
	for _, raw := range items.Val() {
		var f Flash
		if err := json.Unmarshal([]byte(raw), &f); err != nil {
			continue
		}
		out = append(out, f)
	}
	return out, nil
}
