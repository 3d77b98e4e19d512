package testutil

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/spinwheel-lab/backend/pkg/xredis"
)

// InMemoryRedisClient is a map-backed stand-in for the redis client. TTLs
// are honored on read.
type InMemoryRedisClient struct {
	mutex  sync.Mutex
	values map[string]redisValue
}

type redisValue struct {
	data      string
	expiredAt time.Time
}

func NewInMemoryRedisClient() *InMemoryRedisClient {
	return &InMemoryRedisClient{values: map[string]redisValue{}}
}

func (c *InMemoryRedisClient) Exist(ctx context.Context, key string) (bool, error) {
	_, err := c.Get(ctx, key)
	if err == xredis.ErrNotFound {
		return false, nil
	}

	return err == nil, err
}

func (c *InMemoryRedisClient) Del(ctx context.Context, key ...string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	for _, k := range key {
		delete(c.values, k)
	}

	return nil
}

func (c *InMemoryRedisClient) Set(ctx context.Context, key, value string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.values[key] = redisValue{data: value}
	return nil
}

func (c *InMemoryRedisClient) SetObj(ctx context.Context, key string, obj any, ttl time.Duration) error {
	b, err := json.Marshal(obj)
	if err != nil {
		return err
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	value := redisValue{data: string(b)}
	if ttl > 0 {
		value.expiredAt = time.Now().Add(ttl)
	}

	c.values[key] = value
	return nil
}

func (c *InMemoryRedisClient) Get(ctx context.Context, key string) (string, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	value, ok := c.values[key]
	if !ok {
		return "", xredis.ErrNotFound
	}

	if !value.expiredAt.IsZero() && time.Now().After(value.expiredAt) {
		delete(c.values, key)
		return "", xredis.ErrNotFound
	}

	return value.data, nil
}

func (c *InMemoryRedisClient) GetObj(ctx context.Context, key string, v any) error {
	s, err := c.Get(ctx, key)
	if err != nil {
		return err
	}

	return json.Unmarshal([]byte(s), v)
}
