package draft

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore 多实例部署时使用
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (s *RedisStore) Save(ctx context.Context, d Draft) error {
	b, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key(d.CallNo, d.Section), b, s.ttl).Err()
}

func (s *RedisStore) Load(ctx context.Context, callNo string, section Section) (*Draft, error) {
	b, err := s.rdb.Get(ctx, key(callNo, section)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var d Draft
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *RedisStore) Delete(ctx context.Context, callNo string, section Section) error {
	return s.rdb.Del(ctx, key(callNo, section)).Err()
}

func (s *RedisStore) DeleteAll(ctx context.Context, callNo string) error {
	keys := make([]string, 0, len(Sections))
	for _, sec := range Sections {
		keys = append(keys, key(callNo, sec))
	}
	return s.rdb.Del(ctx, keys...).Err()
}
