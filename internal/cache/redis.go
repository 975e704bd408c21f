package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/neurokind/trust-engine/internal/config"
	"github.com/neurokind/trust-engine/internal/logger"
	"github.com/neurokind/trust-engine/internal/trust"
)

// ReportCache caches assembled trust reports and drift windows in Redis.
// Every read path treats a cache failure as a miss: callers fall back to the
// database and the engine keeps running without Redis.
type ReportCache struct {
	client *redis.Client
	config *config.CacheConfig
	logger *logger.Logger
	stats  cacheStats
}

type cacheStats struct {
	hits   int64
	misses int64
}

// Stats reports cache hit/miss counts since startup
type Stats struct {
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hitRate"`
}

// NewReportCache connects to Redis and verifies the connection
func NewReportCache(cfg *config.CacheConfig, log *logger.Logger) (*ReportCache, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opts.PoolSize = cfg.MaxConnections
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	cache := &ReportCache{
		client: client,
		config: cfg,
		logger: log,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Info("report cache initialized",
		zap.String("redis_url", maskRedisURL(cfg.RedisURL)),
		zap.String("key_prefix", cfg.KeyPrefix),
		zap.Duration("default_ttl", cfg.DefaultTTL))

	return cache, nil
}

// GetReport returns the cached trust report, if one is still live
func (c *ReportCache) GetReport(ctx context.Context) (*trust.Report, bool) {
	data, err := c.client.Get(ctx, c.reportKey()).Result()
	if err == redis.Nil {
		c.stats.misses++
		return nil, false
	}
	if err != nil {
		c.stats.misses++
		c.logger.Error("report cache lookup failed", zap.Error(err))
		return nil, false
	}

	var report trust.Report
	if err := json.Unmarshal([]byte(data), &report); err != nil {
		c.logger.Error("failed to unmarshal cached report", zap.Error(err))
		c.client.Del(ctx, c.reportKey())
		c.stats.misses++
		return nil, false
	}

	c.stats.hits++
	return &report, true
}

// SetReport caches a trust report with the configured TTL
func (c *ReportCache) SetReport(ctx context.Context, report *trust.Report) {
	data, err := json.Marshal(report)
	if err != nil {
		c.logger.Error("failed to marshal report for caching", zap.Error(err))
		return
	}

	if err := c.client.Set(ctx, c.reportKey(), data, c.config.DefaultTTL).Err(); err != nil {
		c.logger.Error("failed to cache report", zap.Error(err))
		return
	}

	c.logger.Debug("trust report cached",
		zap.String("key", c.reportKey()),
		zap.Duration("ttl", c.config.DefaultTTL))
}

// GetWindow returns a cached drift window for a metric
func (c *ReportCache) GetWindow(ctx context.Context, metric string) ([]float64, bool) {
	data, err := c.client.Get(ctx, c.driftKey(metric)).Result()
	if err == redis.Nil {
		c.stats.misses++
		return nil, false
	}
	if err != nil {
		c.stats.misses++
		c.logger.Error("drift window lookup failed",
			zap.String("metric", metric), zap.Error(err))
		return nil, false
	}

	var counts []float64
	if err := json.Unmarshal([]byte(data), &counts); err != nil {
		c.client.Del(ctx, c.driftKey(metric))
		c.stats.misses++
		return nil, false
	}

	c.stats.hits++
	return counts, true
}

// SetWindow caches a drift window. Windows roll daily, so the TTL is capped
// at one hour regardless of the default.
func (c *ReportCache) SetWindow(ctx context.Context, metric string, counts []float64) {
	data, err := json.Marshal(counts)
	if err != nil {
		return
	}

	ttl := c.config.DefaultTTL
	if ttl > time.Hour {
		ttl = time.Hour
	}
	if err := c.client.Set(ctx, c.driftKey(metric), data, ttl).Err(); err != nil {
		c.logger.Error("failed to cache drift window",
			zap.String("metric", metric), zap.Error(err))
	}
}

// GetStats returns hit/miss counters since startup
func (c *ReportCache) GetStats() Stats {
	stats := Stats{
		Hits:   c.stats.hits,
		Misses: c.stats.misses,
	}
	if total := stats.Hits + stats.Misses; total > 0 {
		stats.HitRate = float64(stats.Hits) / float64(total) * 100
	}
	return stats
}

// Clear removes all keys under the configured prefix
func (c *ReportCache) Clear(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, c.config.KeyPrefix+":*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cache keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete cache keys: %w", err)
	}

	c.logger.Info("cache cleared", zap.Int("deleted_keys", len(keys)))
	return nil
}

// Close closes the Redis connection
func (c *ReportCache) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

func (c *ReportCache) reportKey() string {
	return c.config.KeyPrefix + ":report"
}

func (c *ReportCache) driftKey(metric string) string {
	return c.config.KeyPrefix + ":drift:" + metric
}

// maskRedisURL masks credentials in the Redis URL for logging
func maskRedisURL(url string) string {
	if strings.Contains(url, "@") {
		parts := strings.Split(url, "@")
		if len(parts) >= 2 {
			userPart := parts[0]
			if strings.Contains(userPart, ":") {
				userParts := strings.Split(userPart, ":")
				if len(userParts) >= 3 {
					userParts[len(userParts)-1] = "***"
					parts[0] = strings.Join(userParts, ":")
				}
			}
			return strings.Join(parts, "@")
		}
	}
	return url
}
