package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"frontdesk/internal/metrics"
)

const (
	ServicesKey     = "frontdesk:services"
	HousekeepersKey = "frontdesk:housekeepers"
)

// Cache is a JSON cache over Redis. A Cache without a client (Redis not
// configured or unreachable) misses on every read and drops every write.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// Connect pings addr and returns a disabled Cache alongside the error when
// Redis cannot be reached.
func Connect(ctx context.Context, addr, password string, db int, ttl time.Duration) (*Cache, error) {
	if addr == "" {
		return &Cache{ttl: ttl}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return &Cache{ttl: ttl}, err
	}
	return &Cache{client: client, ttl: ttl}, nil
}

func New(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) Enabled() bool { return c != nil && c.client != nil }

func (c *Cache) GetJSON(ctx context.Context, key string, dst interface{}) bool {
	if !c.Enabled() {
		return false
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		metrics.CacheLookupsTotal.WithLabelValues(key, "miss").Inc()
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		metrics.CacheLookupsTotal.WithLabelValues(key, "miss").Inc()
		return false
	}
	metrics.CacheLookupsTotal.WithLabelValues(key, "hit").Inc()
	return true
}

func (c *Cache) SetJSON(ctx context.Context, key string, v interface{}) {
	if !c.Enabled() {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.client.Set(ctx, key, data, c.ttl)
}

func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if !c.Enabled() || len(keys) == 0 {
		return
	}
	c.client.Del(ctx, keys...)
}

func (c *Cache) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}
