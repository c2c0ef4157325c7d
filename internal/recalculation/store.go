package recalculation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

const lastRunKey = "opatam:recalculation:last"

// RunStore keeps the result of the latest run. Last returns (nil, nil) before
// the first run.
type RunStore interface {
	SaveLast(ctx context.Context, res *Result) error
	Last(ctx context.Context) (*Result, error)
}

type RedisRunStore struct {
	client *redis.Client
}

func NewRedisRunStore(client *redis.Client) *RedisRunStore {
	return &RedisRunStore{client: client}
}

func (s *RedisRunStore) SaveLast(ctx context.Context, res *Result) error {
	raw, err := json.Marshal(res)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, lastRunKey, raw, 0).Err()
}

func (s *RedisRunStore) Last(ctx context.Context) (*Result, error) {
	raw, err := s.client.Get(ctx, lastRunKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var res Result
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("decode last recalculation: %w", err)
	}
	return &res, nil
}

// MemoryRunStore keeps the last result in process memory, for tests and
// single-process runs.
type MemoryRunStore struct {
	mu   sync.RWMutex
	last *Result
}

func NewMemoryRunStore() *MemoryRunStore {
	return &MemoryRunStore{}
}

func (s *MemoryRunStore) SaveLast(_ context.Context, res *Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = res
	return nil
}

func (s *MemoryRunStore) Last(context.Context) (*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last, nil
}
