package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sort"
	"strings"
	"time"

	"github.com/andresuchdata/bidco-kpi/backend-go/internal/config"
	"github.com/andresuchdata/bidco-kpi/backend-go/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	reportKeyPrefix     = "pricing:report"
	reportScanBatchSize = 100
	defaultReportTTL    = 5 * time.Minute
	redisPingTimeout    = 5 * time.Second
)

// ReportKey identifies a computed report: the dataset fingerprint plus the
// pipeline settings it was computed with.
type ReportKey struct {
	Fingerprint string
	Settings    map[string]string
}

// ReportCache stores computed pricing reports so identical datasets are not re-analysed.
type ReportCache interface {
	GetReport(ctx context.Context, key ReportKey) (*domain.Report, bool, error)
	SetReport(ctx context.Context, key ReportKey, report *domain.Report) error
	// InvalidateAll drops every cached report and returns how many were removed.
	InvalidateAll(ctx context.Context) (int, error)
}

type redisReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopReportCache struct{}

// NewReportCache returns a Redis-backed cache, or a no-op cache when caching is disabled.
func NewReportCache(cfg config.CacheConfig) (ReportCache, error) {
	if !cfg.Enabled {
		return &noopReportCache{}, nil
	}

	opts, err := reportRedisOptions(cfg)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("report cache ping %s: %w", opts.Addr, err)
	}

	return &redisReportCache{
		client: client,
		ttl:    reportTTL(cfg),
	}, nil
}

func NewNoopReportCache() ReportCache {
	return &noopReportCache{}
}

// reportTTL is how long a computed report stays cached.
func reportTTL(cfg config.CacheConfig) time.Duration {
	if cfg.KPITTLSeconds <= 0 {
		return defaultReportTTL
	}
	return time.Duration(cfg.KPITTLSeconds) * time.Second
}

func reportRedisOptions(cfg config.CacheConfig) (*redis.Options, error) {
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		return opt, nil
	}

	host := cfg.RedisHost
	if host == "" {
		host = "127.0.0.1"
	}

	port := cfg.RedisPort
	if port == "" {
		port = "6379"
	}

	return &redis.Options{
		Addr:     net.JoinHostPort(host, port),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, nil
}

func (c *redisReportCache) GetReport(ctx context.Context, key ReportKey) (*domain.Report, bool, error) {
	payload, err := c.client.Get(ctx, buildReportKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var report domain.Report
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, false, fmt.Errorf("decode report cache: %w", err)
	}

	return &report, true, nil
}

func (c *redisReportCache) SetReport(ctx context.Context, key ReportKey, report *domain.Report) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report cache: %w", err)
	}

	if err := c.client.Set(ctx, buildReportKey(key), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// InvalidateAll walks the report keyspace with SCAN and unlinks each batch.
// Keys outside the report prefix are left alone.
func (c *redisReportCache) InvalidateAll(ctx context.Context) (int, error) {
	var (
		cursor  uint64
		removed int
	)
	for {
		keys, next, err := c.client.Scan(ctx, cursor, reportKeyPrefix+":*", reportScanBatchSize).Result()
		if err != nil {
			return removed, fmt.Errorf("scan cached reports: %w", err)
		}
		if len(keys) > 0 {
			n, err := c.client.Unlink(ctx, keys...).Result()
			if err != nil {
				return removed, fmt.Errorf("unlink cached reports: %w", err)
			}
			removed += int(n)
		}
		cursor = next
		if cursor == 0 {
			return removed, nil
		}
	}
}

func (n *noopReportCache) GetReport(ctx context.Context, key ReportKey) (*domain.Report, bool, error) {
	return nil, false, nil
}

func (n *noopReportCache) SetReport(ctx context.Context, key ReportKey, report *domain.Report) error {
	return nil
}

func (n *noopReportCache) InvalidateAll(ctx context.Context) (int, error) {
	return 0, nil
}

func buildReportKey(key ReportKey) string {
	parts := []string{"fingerprint=" + strings.TrimSpace(key.Fingerprint)}
	for k, v := range key.Settings {
		parts = append(parts, strings.ToLower(strings.TrimSpace(k))+"="+strings.TrimSpace(v))
	}
	sort.Strings(parts)

	raw := strings.Join(parts, "|")
	sum := sha1.Sum([]byte(raw))
	return fmt.Sprintf("%s:%s", reportKeyPrefix, hex.EncodeToString(sum[:]))
}
