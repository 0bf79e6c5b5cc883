package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/andresuchdata/bidco-kpi/backend-go/internal/cache"
	"github.com/urfave/cli/v2"
)

var errCacheDisabled = errors.New("report cache is disabled (set CACHE_ENABLED=true)")

func runCacheClear(c *cli.Context) error {
	cfg := loadConfig(c)
	if !cfg.Cache.Enabled {
		return errCacheDisabled
	}
	rc, err := cache.NewReportCache(cfg.Cache)
	if err != nil {
		return err
	}
	return clearReportCache(c.Context, rc, c.App.Writer)
}

func clearReportCache(ctx context.Context, rc cache.ReportCache, w io.Writer) error {
	removed, err := rc.InvalidateAll(ctx)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "removed %d cached reports\n", removed)
	return err
}
