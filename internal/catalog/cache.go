package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrCacheMiss is returned when a key is not in the cache
var ErrCacheMiss = errors.New("cache miss")

// Cache defines the interface for catalog read caching
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// RedisCache implements Cache using Redis
type RedisCache struct {
	client *redis.Client
	logger *zap.Logger
}

// InMemoryCache is a fallback implementation when Redis is not available
type InMemoryCache struct {
	mu   sync.Mutex
	data map[string]cacheEntry
}

type cacheEntry struct {
	value     []byte
	expiresAt time.Time
}

// RedisOptions holds the connection settings for the cache backend
type RedisOptions struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// NewCache creates a new cache instance, falling back to an in-process map
// when Redis cannot be reached.
func NewCache(opts RedisOptions, logger *zap.Logger) Cache {
	rdb := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", opts.Host, opts.Port),
		Password:     opts.Password,
		DB:           opts.DB,
		PoolSize:     10,
		MinIdleConns: 5,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		MaxRetries:   3,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("Failed to connect to Redis, using in-memory cache",
			zap.String("host", opts.Host),
			zap.String("port", opts.Port),
			zap.Error(err),
		)
		rdb.Close()
		return NewInMemoryCache()
	}

	logger.Info("Redis cache initialized",
		zap.String("host", opts.Host),
		zap.String("port", opts.Port),
		zap.Int("db", opts.DB),
	)

	return &RedisCache{client: rdb, logger: logger}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	return value, err
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// NewInMemoryCache creates the in-process fallback cache
func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{data: make(map[string]cacheEntry)}
}

func (c *InMemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.data[key]
	if !exists {
		return nil, ErrCacheMiss
	}
	if time.Now().After(entry.expiresAt) {
		delete(c.data, key)
		return nil, ErrCacheMiss
	}
	return entry.value, nil
}

func (c *InMemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[key] = cacheEntry{value: value, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (c *InMemoryCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, key := range keys {
		delete(c.data, key)
	}
	return nil
}
