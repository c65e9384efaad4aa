// Package cache keeps computed dashboard payloads in Redis for a short TTL.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mamadbah2/agritrade/internal/config"
	"github.com/mamadbah2/agritrade/internal/domain/models"
)

const (
	dashboardKeyPrefix  = "agritrade:dashboard"
	scanBatchSize       = 100
	defaultDashboardTTL = time.Minute
)

// DashboardCache stores dashboard stats and chart payloads keyed by range.
type DashboardCache interface {
	GetStats(ctx context.Context, rng models.DateRange) (*models.DashboardStats, bool, error)
	SetStats(ctx context.Context, rng models.DateRange, stats *models.DashboardStats) error
	GetChart(ctx context.Context, chart models.ChartType, rng models.DateRange) (*models.ChartData, bool, error)
	SetChart(ctx context.Context, chart models.ChartType, rng models.DateRange, data *models.ChartData) error
	InvalidateAll(ctx context.Context) error
	Close() error
}

type redisDashboardCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopDashboardCache struct{}

// NewDashboardCache connects to Redis when configured and falls back to a
// cache that never hits otherwise.
func NewDashboardCache(ctx context.Context, cfg config.CacheConfig) (DashboardCache, error) {
	if !cfg.Enabled() {
		return NewNoopDashboardCache(), nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultDashboardTTL
	}
	return &redisDashboardCache{client: client, ttl: ttl}, nil
}

// NewNoopDashboardCache returns a cache that stores nothing.
func NewNoopDashboardCache() DashboardCache {
	return &noopDashboardCache{}
}

func (c *redisDashboardCache) GetStats(ctx context.Context, rng models.DateRange) (*models.DashboardStats, bool, error) {
	var stats models.DashboardStats
	found, err := c.get(ctx, statsKey(rng), &stats)
	if !found || err != nil {
		return nil, false, err
	}
	return &stats, true, nil
}

func (c *redisDashboardCache) SetStats(ctx context.Context, rng models.DateRange, stats *models.DashboardStats) error {
	return c.set(ctx, statsKey(rng), stats)
}

func (c *redisDashboardCache) GetChart(ctx context.Context, chart models.ChartType, rng models.DateRange) (*models.ChartData, bool, error) {
	var data models.ChartData
	found, err := c.get(ctx, chartKey(chart, rng), &data)
	if !found || err != nil {
		return nil, false, err
	}
	return &data, true, nil
}

func (c *redisDashboardCache) SetChart(ctx context.Context, chart models.ChartType, rng models.DateRange, data *models.ChartData) error {
	return c.set(ctx, chartKey(chart, rng), data)
}

func (c *redisDashboardCache) InvalidateAll(ctx context.Context) error {
	var cursor uint64
	for {
		keys, nextCursor, err := c.client.Scan(ctx, cursor, dashboardKeyPrefix+":*", scanBatchSize).Result()
		if err != nil {
			return fmt.Errorf("redis scan failed: %w", err)
		}

		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("redis delete failed: %w", err)
			}
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	return nil
}

func (c *redisDashboardCache) Close() error {
	return c.client.Close()
}

func (c *redisDashboardCache) get(ctx context.Context, key string, dest any) (bool, error) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get failed: %w", err)
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		return false, fmt.Errorf("decode dashboard cache %s: %w", key, err)
	}
	return true, nil
}

func (c *redisDashboardCache) set(ctx context.Context, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode dashboard cache %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (n *noopDashboardCache) GetStats(context.Context, models.DateRange) (*models.DashboardStats, bool, error) {
	return nil, false, nil
}

func (n *noopDashboardCache) SetStats(context.Context, models.DateRange, *models.DashboardStats) error {
	return nil
}

func (n *noopDashboardCache) GetChart(context.Context, models.ChartType, models.DateRange) (*models.ChartData, bool, error) {
	return nil, false, nil
}

func (n *noopDashboardCache) SetChart(context.Context, models.ChartType, models.DateRange, *models.ChartData) error {
	return nil
}

func (n *noopDashboardCache) InvalidateAll(context.Context) error { return nil }

func (n *noopDashboardCache) Close() error { return nil }

func statsKey(rng models.DateRange) string {
	return fmt.Sprintf("%s:stats:%s", dashboardKeyPrefix, rangeKey(rng))
}

func chartKey(chart models.ChartType, rng models.DateRange) string {
	return fmt.Sprintf("%s:chart:%s:%s", dashboardKeyPrefix, chart, rangeKey(rng))
}

func rangeKey(rng models.DateRange) string {
	return fmt.Sprintf("%d-%d", rng.Start.UnixMilli(), rng.End.UnixMilli())
}
