package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Desarso/stockagent/models"
	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "stockagent:memory:"

// RedisCheckpointer stores each thread as one JSON value so context survives restarts
// and is shared between replicas.
type RedisCheckpointer struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// RedisConfig configures the Redis checkpointer.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// NewRedisCheckpointer dials Redis and verifies the connection.
func NewRedisCheckpointer(ctx context.Context, cfg RedisConfig) (*RedisCheckpointer, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return NewRedisCheckpointerWithClient(client, cfg.Prefix, cfg.TTL), nil
}

// NewRedisCheckpointerWithClient wraps an existing client.
func NewRedisCheckpointerWithClient(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisCheckpointer {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisCheckpointer{client: client, prefix: prefix, ttl: ttl}
}

func (c *RedisCheckpointer) key(threadID string) string {
	return c.prefix + threadID
}

func (c *RedisCheckpointer) Load(ctx context.Context, threadID string) ([]models.Message, error) {
	data, err := c.client.Get(ctx, c.key(threadID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return []models.Message{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load thread %s: %w", threadID, err)
	}

	var msgs []models.Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil, fmt.Errorf("failed to decode thread %s: %w", threadID, err)
	}
	return msgs, nil
}

func (c *RedisCheckpointer) Save(ctx context.Context, threadID string, msgs []models.Message) error {
	data, err := json.Marshal(msgs)
	if err != nil {
		return fmt.Errorf("failed to encode thread %s: %w", threadID, err)
	}
	if err := c.client.Set(ctx, c.key(threadID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save thread %s: %w", threadID, err)
	}
	return nil
}

func (c *RedisCheckpointer) Delete(ctx context.Context, threadID string) error {
	if err := c.client.Del(ctx, c.key(threadID)).Err(); err != nil {
		return fmt.Errorf("failed to delete thread %s: %w", threadID, err)
	}
	return nil
}

func (c *RedisCheckpointer) Close() error {
	return c.client.Close()
}
