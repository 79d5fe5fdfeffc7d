package draft

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// MemoryStore 单实例、CLI 和测试使用，进程退出即丢失
type MemoryStore struct {
	cache *cache.Cache
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{cache: cache.New(ttl, ttl*2)}
}

func (s *MemoryStore) Save(_ context.Context, d Draft) error {
	s.cache.SetDefault(key(d.CallNo, d.Section), d)
	return nil
}

func (s *MemoryStore) Load(_ context.Context, callNo string, section Section) (*Draft, error) {
	v, ok := s.cache.Get(key(callNo, section))
	if !ok {
		return nil, ErrNotFound
	}
	d := v.(Draft)
	return &d, nil
}

func (s *MemoryStore) Delete(_ context.Context, callNo string, section Section) error {
	s.cache.Delete(key(callNo, section))
	return nil
}

func (s *MemoryStore) DeleteAll(_ context.Context, callNo string) error {
	for _, sec := range Sections {
		s.cache.Delete(key(callNo, sec))
	}
	return nil
}
