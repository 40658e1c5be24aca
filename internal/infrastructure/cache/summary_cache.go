// Package cache provides the Redis read-side cache for financial
// summaries, with a no-op fallback for deployments without Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"

	"pharmaledger/internal/domain/reports"
)

// RedisSummaryCache implements reports.Cache on Redis. Entries expire by
// TTL only; the summary is a tolerant read, so no invalidation is wired.
type RedisSummaryCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ reports.Cache = (*RedisSummaryCache)(nil)

func NewRedisSummaryCache(addr, password string, db int, ttl time.Duration) *RedisSummaryCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RedisSummaryCache{client: client, ttl: ttl}
}

func (c *RedisSummaryCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Client exposes the underlying connection for health checks.
func (c *RedisSummaryCache) Client() *redis.Client {
	return c.client
}

func (c *RedisSummaryCache) Close() error {
	return c.client.Close()
}

func summaryKey(from, to time.Time) string {
	return "summary:" + from.Format(time.DateOnly) + ":" + to.Format(time.DateOnly)
}

// GetSummary returns the cached summary or nil on a miss.
func (c *RedisSummaryCache) GetSummary(ctx context.Context, from, to time.Time) (*reports.Summary, error) {
	val, err := c.client.Get(ctx, summaryKey(from, to)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var summary reports.Summary
	if err := json.Unmarshal([]byte(val), &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// SetSummary stores the summary under its date-range key.
func (c *RedisSummaryCache) SetSummary(ctx context.Context, summary *reports.Summary) error {
	if summary == nil {
		return nil
	}
	payload, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, summaryKey(summary.FromDate, summary.ToDate), payload, c.ttl).Err()
}

// NoopSummaryCache is used when no Redis address is configured. Every read
// misses and writes vanish.
type NoopSummaryCache struct{}

var _ reports.Cache = (*NoopSummaryCache)(nil)

func (NoopSummaryCache) GetSummary(context.Context, time.Time, time.Time) (*reports.Summary, error) {
	return nil, nil
}

func (NoopSummaryCache) SetSummary(context.Context, *reports.Summary) error {
	return nil
}
