package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/andresuchdata/bidco-kpi/backend-go/internal/cache"
	"github.com/andresuchdata/bidco-kpi/backend-go/internal/dataset"
	"github.com/andresuchdata/bidco-kpi/backend-go/internal/domain"
	"github.com/andresuchdata/bidco-kpi/backend-go/internal/pipeline/pricing"
	"github.com/rs/zerolog/log"
)

// ErrNotReady is returned by the getters until a dataset has been analysed.
var ErrNotReady = errors.New("pricing report is not ready")

// Snapshot is the current report and where it came from.
type Snapshot struct {
	Report    *domain.Report
	Source    string
	FromCache bool
	LoadedAt  time.Time
}

// PricingService holds the latest immutable pricing report. Refresh builds a
// new report and swaps it in; readers never see a partially built one.
type PricingService struct {
	analyzer *pricing.Analyzer
	cache    cache.ReportCache
	source   dataset.Source

	refreshMu sync.Mutex
	mu        sync.RWMutex
	current   *Snapshot
}

// NewPricingService creates the service. source is what Refresh reloads and may be nil
// when every refresh names its own source.
func NewPricingService(analyzer *pricing.Analyzer, source dataset.Source, cacheImpl cache.ReportCache) *PricingService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopReportCache()
	}
	return &PricingService{analyzer: analyzer, source: source, cache: cacheImpl}
}

// Refresh reloads the configured source.
func (s *PricingService) Refresh(ctx context.Context) (*Snapshot, error) {
	if s.source == nil {
		return nil, fmt.Errorf("no dataset source configured")
	}
	return s.RefreshFrom(ctx, s.source)
}

// RefreshFrom loads src, analyses it (or reuses a cached report of identical
// data) and publishes the result. On error the previous report stays current.
func (s *PricingService) RefreshFrom(ctx context.Context, src dataset.Source) (*Snapshot, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	ds, err := dataset.Load(ctx, src)
	if err != nil {
		return nil, err
	}

	key := cache.ReportKey{
		Fingerprint: pricing.Fingerprint(ds.Records),
		Settings:    map[string]string{"dataset": ds.Name, "config": fmt.Sprintf("%+v", s.analyzer.Config())},
	}

	snap := &Snapshot{Source: src.Describe(), LoadedAt: time.Now()}
	if report, ok, err := s.cache.GetReport(ctx, key); err == nil && ok {
		snap.Report = report
		snap.FromCache = true
	} else {
		if err != nil {
			log.Warn().Err(err).Msg("pricing: cache get report failed")
		}
		report, err := s.analyzer.Analyze(ds.Name, ds.Records)
		if err != nil {
			return nil, err
		}
		if err := s.cache.SetReport(ctx, key, report); err != nil {
			log.Warn().Err(err).Msg("pricing: cache set report failed")
		}
		snap.Report = report
	}

	s.mu.Lock()
	s.current = snap
	s.mu.Unlock()

	log.Info().
		Str("source", snap.Source).
		Str("dataset", snap.Report.Dataset).
		Bool("cached", snap.FromCache).
		Str("data_health", snap.Report.KPIs.DataHealth).
		Msg("pricing report published")
	return snap, nil
}

// Invalidate drops every cached report so the next refresh re-analyses its source.
func (s *PricingService) Invalidate(ctx context.Context) (int, error) {
	removed, err := s.cache.InvalidateAll(ctx)
	if err != nil {
		return removed, fmt.Errorf("invalidate report cache: %w", err)
	}
	log.Info().Int("removed", removed).Msg("report cache invalidated")
	return removed, nil
}

// Snapshot returns the current report, or ErrNotReady.
func (s *PricingService) Snapshot() (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil, ErrNotReady
	}
	return s.current, nil
}

// Report returns the current report, or ErrNotReady.
func (s *PricingService) Report() (*domain.Report, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	return snap.Report, nil
}

// KPIs returns the dashboard KPI payload.
func (s *PricingService) KPIs() (domain.KPISnapshot, error) {
	r, err := s.Report()
	if err != nil {
		return domain.KPISnapshot{}, err
	}
	return r.KPIs, nil
}
