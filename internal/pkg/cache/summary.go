// Package cache keeps computed monthly summaries in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/config"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/summary"
	"github.com/redis/go-redis/v9"
)

func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

// SummaryKey is the cache key of one employee-month.
func SummaryKey(employeeID string, year int, month time.Month) string {
	return fmt.Sprintf("summary:%s:%04d-%02d", employeeID, year, int(month))
}

type summaryCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewSummaryCache(rdb *redis.Client, ttl time.Duration) summary.Cache {
	return &summaryCache{rdb: rdb, ttl: ttl}
}

// Get implements summary.Cache.
func (c *summaryCache) Get(ctx context.Context, employeeID string, year int, month time.Month) (*summary.MonthlySummary, error) {
	raw, err := c.rdb.Get(ctx, SummaryKey(employeeID, year, month)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get summary cache: %w", err)
	}

	var s summary.MonthlySummary
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode summary cache: %w", err)
	}
	return &s, nil
}

// Set implements summary.Cache.
func (c *summaryCache) Set(ctx context.Context, s summary.MonthlySummary) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode summary cache: %w", err)
	}
	key := SummaryKey(s.EmployeeID, s.Year, time.Month(s.Month))
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("set summary cache: %w", err)
	}
	return nil
}

// Invalidate implements summary.Cache.
func (c *summaryCache) Invalidate(ctx context.Context, employeeID string, year int, month time.Month) error {
	if err := c.rdb.Del(ctx, SummaryKey(employeeID, year, month)).Err(); err != nil {
		return fmt.Errorf("invalidate summary cache: %w", err)
	}
	return nil
}
