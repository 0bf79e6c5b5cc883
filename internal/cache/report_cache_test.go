package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/andresuchdata/bidco-kpi/backend-go/internal/config"
	"github.com/andresuchdata/bidco-kpi/backend-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (ReportCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := NewReportCache(config.CacheConfig{
		Enabled:       true,
		RedisURL:      "redis://" + mr.Addr(),
		KPITTLSeconds: 60,
	})
	require.NoError(t, err)
	return c, mr
}

func TestReportCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	idx := 0.913
	key := ReportKey{Fingerprint: "abc", Settings: map[string]string{"target": "BIDCO"}}
	report := &domain.Report{
		Dataset: "week2",
		Rows:    4,
		KPIs:    domain.KPISnapshot{TotalRevenueKSh: 456, PriceIndex: &idx, DataHealth: "93.8/100"},
	}

	_, ok, err := c.GetReport(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.SetReport(ctx, key, report))

	got, ok, err := c.GetReport(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "week2", got.Dataset)
	assert.Equal(t, report.KPIs, got.KPIs)

	redisKey := buildReportKey(key)
	assert.True(t, mr.Exists(redisKey))
	assert.Equal(t, 60.0, mr.TTL(redisKey).Seconds())

	other := ReportKey{Fingerprint: "abc", Settings: map[string]string{"target": "PWANI"}}
	_, ok, err = c.GetReport(ctx, other)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReportCacheInvalidateAll(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	require.NoError(t, c.SetReport(ctx, ReportKey{Fingerprint: "a"}, &domain.Report{}))
	require.NoError(t, c.SetReport(ctx, ReportKey{Fingerprint: "b"}, &domain.Report{}))
	require.NoError(t, mr.Set("unrelated", "keep"))
	require.NoError(t, mr.Set(reportKeyPrefix+"-archive", "keep"))

	removed, err := c.InvalidateAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.Equal(t, []string{reportKeyPrefix + "-archive", "unrelated"}, mr.Keys())

	removed, err = c.InvalidateAll(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestReportCacheDisabled(t *testing.T) {
	c, err := NewReportCache(config.CacheConfig{Enabled: false})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, c.SetReport(ctx, ReportKey{Fingerprint: "a"}, &domain.Report{}))
	got, ok, err := c.GetReport(ctx, ReportKey{Fingerprint: "a"})
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)

	removed, err := c.InvalidateAll(ctx)
	assert.NoError(t, err)
	assert.Zero(t, removed)
}

func TestReportCacheUnreachable(t *testing.T) {
	_, err := NewReportCache(config.CacheConfig{Enabled: true, RedisHost: "127.0.0.1", RedisPort: "1"})
	assert.Error(t, err)
}

func TestBuildReportKeyStable(t *testing.T) {
	a := buildReportKey(ReportKey{Fingerprint: "f", Settings: map[string]string{"a": "1", "b": "2"}})
	b := buildReportKey(ReportKey{Fingerprint: "f", Settings: map[string]string{"B": "2", "a": " 1"}})
	assert.Equal(t, a, b)
	assert.True(t, strings.HasPrefix(a, reportKeyPrefix+":"))
}

func TestReportTTL(t *testing.T) {
	assert.Equal(t, defaultReportTTL, reportTTL(config.CacheConfig{}))
	assert.Equal(t, 90*time.Second, reportTTL(config.CacheConfig{KPITTLSeconds: 90}))
}

func TestReportRedisOptions(t *testing.T) {
	opts, err := reportRedisOptions(config.CacheConfig{RedisPassword: "pw", RedisDB: 2})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:6379", opts.Addr)
	assert.Equal(t, 2, opts.DB)

	_, err = reportRedisOptions(config.CacheConfig{RedisURL: "://bad"})
	assert.Error(t, err)
}
