package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/huangang/gymdesk/internal/config"
	"github.com/huangang/gymdesk/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const inFlightKeyPrefix = "gymdesk:inflight:"

// InFlight is an advisory lock that rejects a second copy of a request while
// the first is still running. It is not a correctness boundary.
type InFlight interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// NewInFlight uses Redis when it is enabled and answers a ping, and a
// process-local map otherwise.
func NewInFlight(cfg *config.RedisConfig) InFlight {
	if !cfg.Enabled {
		return NewMemoryInFlight()
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warnf("[InFlight] Redis unavailable, using in-memory guard: %v", err)
		rdb.Close()
		return NewMemoryInFlight()
	}
	return NewRedisInFlight(rdb)
}

type RedisInFlight struct {
	rdb *redis.Client
}

func NewRedisInFlight(rdb *redis.Client) *RedisInFlight {
	return &RedisInFlight{rdb: rdb}
}

func (r *RedisInFlight) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := r.rdb.SetNX(ctx, inFlightKeyPrefix+key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("inflight setnx: %w", err)
	}
	return ok, nil
}

func (r *RedisInFlight) Release(ctx context.Context, key string) error {
	if err := r.rdb.Del(ctx, inFlightKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("inflight del: %w", err)
	}
	return nil
}

type MemoryInFlight struct {
	mu   sync.Mutex
	keys map[string]time.Time
	now  func() time.Time
}

func NewMemoryInFlight() *MemoryInFlight {
	return &MemoryInFlight{keys: make(map[string]time.Time), now: time.Now}
}

func (m *MemoryInFlight) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if expires, ok := m.keys[key]; ok && now.Before(expires) {
		return false, nil
	}
	m.keys[key] = now.Add(ttl)
	return true, nil
}

func (m *MemoryInFlight) Release(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, key)
	return nil
}
