package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"uav-log-analyzer/internal/telemetry"
)

const sessionKeyPrefix = "session:"

// RedisCache хранит сессии в Redis с TTL
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache создает новый Redis кэш сессий
func NewRedisCache(ctx context.Context, addr, password string, db int, ttl time.Duration) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     100,
		MinIdleConns: 10,
		MaxRetries:   3,
	})

	// Проверяем подключение
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCache{
		client: client,
		ttl:    ttl,
	}, nil
}

func sessionKey(sessionID string) string {
	return sessionKeyPrefix + sessionID
}

// Save сохраняет разобранный лог сессии
func (r *RedisCache) Save(ctx context.Context, sessionID string, log telemetry.Log) error {
	data, err := encodeLog(log)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, sessionKey(sessionID), data, r.ttl).Err()
}

// Load возвращает лог сессии и продлевает ее TTL
func (r *RedisCache) Load(ctx context.Context, sessionID string) (telemetry.Log, error) {
	pipe := r.client.TxPipeline()
	get := pipe.Get(ctx, sessionKey(sessionID))
	pipe.Expire(ctx, sessionKey(sessionID), r.ttl)

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return telemetry.Log{}, fmt.Errorf("failed to load session: %w", err)
	}

	data, err := get.Bytes()
	if errors.Is(err, redis.Nil) {
		return telemetry.Log{}, ErrSessionNotFound
	}
	if err != nil {
		return telemetry.Log{}, fmt.Errorf("failed to load session: %w", err)
	}

	return decodeLog(data)
}

// Count считает активные сессии
func (r *RedisCache) Count(ctx context.Context) (int, error) {
	count := 0
	iter := r.client.Scan(ctx, 0, sessionKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		count++
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("failed to scan sessions: %w", err)
	}
	return count, nil
}

// Close закрывает соединение с Redis
func (r *RedisCache) Close() error {
	return r.client.Close()
}

// Ping проверяет доступность Redis
func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Stats возвращает статистику пула соединений
func (r *RedisCache) Stats() map[string]interface{} {
	stats := r.client.PoolStats()

	return map[string]interface{}{
		"backend":     "redis",
		"hits":        stats.Hits,
		"misses":      stats.Misses,
		"timeouts":    stats.Timeouts,
		"total_conns": stats.TotalConns,
		"idle_conns":  stats.IdleConns,
		"stale_conns": stats.StaleConns,
	}
}

var _ SessionStore = (*RedisCache)(nil)
