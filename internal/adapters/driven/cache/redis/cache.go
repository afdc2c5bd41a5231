// Package redis provides a response cache shared between processes through Redis.
package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/regbot/internal/core/domain"
	"github.com/custodia-labs/regbot/internal/core/ports/driven"
	"github.com/custodia-labs/regbot/internal/logger"
)

// Ensure Cache implements the interface.
var _ driven.ResponseCache = (*Cache)(nil)

// KeyPrefix namespaces every cache key.
const KeyPrefix = "regbot:answer:"

// DefaultTTL matches the in-memory cache.
const DefaultTTL = 30 * time.Minute

const connectTimeout = 10 * time.Second

// Cache stores answers as JSON with a Redis expiry.
// Redis enforces the TTL, so an expired entry is simply gone.
// Redis errors fail open: they are logged and reported as a miss.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewClient connects to Redis. addr may be a redis:// or rediss:// URL or host:port.
func NewClient(ctx context.Context, addr string) (*redis.Client, error) {
	var client *redis.Client
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		opt, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("parse redis URL: %w", err)
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{Addr: addr})
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}

// New wraps an existing client.
func New(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{client: client, ttl: ttl}
}

// Key returns the Redis key for a question.
func Key(question string) string {
	sum := sha256.Sum256([]byte(domain.NormalizeQuery(question)))
	return KeyPrefix + hex.EncodeToString(sum[:])
}

// Get returns the cached answer if Redis still holds it.
func (c *Cache) Get(ctx context.Context, question string) (domain.Answer, bool) {
	data, err := c.client.Get(ctx, Key(question)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn("Redis cache get failed: %v", err)
		}
		return domain.Answer{}, false
	}

	var answer domain.Answer
	if err := json.Unmarshal(data, &answer); err != nil {
		logger.Warn("Redis cache entry is corrupt, ignoring: %v", err)
		return domain.Answer{}, false
	}
	return answer, true
}

// Set stores answer with the configured expiry, replacing any previous entry.
func (c *Cache) Set(ctx context.Context, question string, answer domain.Answer) {
	data, err := json.Marshal(answer)
	if err != nil {
		logger.Warn("Redis cache encode failed: %v", err)
		return
	}
	if err := c.client.Set(ctx, Key(question), data, c.ttl).Err(); err != nil {
		logger.Warn("Redis cache set failed: %v", err)
	}
}

// Clear deletes every key under KeyPrefix.
func (c *Cache) Clear(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, KeyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan cache keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete cache keys: %w", err)
	}
	return nil
}

// Len counts keys under KeyPrefix. Returns 0 if Redis is unreachable.
func (c *Cache) Len() int {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	n := 0
	iter := c.client.Scan(ctx, 0, KeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		n++
	}
	if err := iter.Err(); err != nil {
		logger.Warn("Redis cache scan failed: %v", err)
		return 0
	}
	return n
}

// Close closes the client.
func (c *Cache) Close() error {
	return c.client.Close()
}
