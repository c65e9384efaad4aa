package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/mamadbah2/agritrade/internal/config"
	"github.com/mamadbah2/agritrade/internal/domain/models"
)

func TestNewDashboardCacheDisabled(t *testing.T) {
	c, err := NewDashboardCache(context.Background(), config.CacheConfig{})
	if err != nil {
		t.Fatalf("NewDashboardCache: %v", err)
	}
	if _, ok := c.(*noopDashboardCache); !ok {
		t.Fatalf("cache = %T, want noop", c)
	}

	ctx := context.Background()
	rng := models.DateRange{Start: time.Unix(0, 0), End: time.Unix(3600, 0)}
	if err := c.SetStats(ctx, rng, &models.DashboardStats{}); err != nil {
		t.Fatalf("SetStats: %v", err)
	}
	if _, found, err := c.GetStats(ctx, rng); found || err != nil {
		t.Errorf("GetStats found=%v err=%v, want miss", found, err)
	}
	if _, found, _ := c.GetChart(ctx, models.ChartDaily, rng); found {
		t.Error("noop chart cache hit")
	}
	if err := c.InvalidateAll(ctx); err != nil {
		t.Errorf("InvalidateAll: %v", err)
	}
}

func TestNewDashboardCacheBadURL(t *testing.T) {
	_, err := NewDashboardCache(context.Background(), config.CacheConfig{RedisURL: "not-a-url"})
	if err == nil || !strings.Contains(err.Error(), "invalid redis url") {
		t.Fatalf("error = %v, want invalid redis url", err)
	}
}

func TestKeysSeparateRangesAndCharts(t *testing.T) {
	a := models.DateRange{Start: time.UnixMilli(1000), End: time.UnixMilli(2000)}
	b := models.DateRange{Start: time.UnixMilli(1000), End: time.UnixMilli(3000)}

	if statsKey(a) == statsKey(b) {
		t.Error("stats keys collide across ranges")
	}
	if chartKey(models.ChartDaily, a) == chartKey(models.ChartCrop, a) {
		t.Error("chart keys collide across chart types")
	}
	for _, key := range []string{statsKey(a), chartKey(models.ChartCrop, b)} {
		if !strings.HasPrefix(key, dashboardKeyPrefix+":") {
			t.Errorf("key %q outside invalidation prefix", key)
		}
	}
}
