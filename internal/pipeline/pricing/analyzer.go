package pricing

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/andresuchdata/bidco-kpi/backend-go/internal/domain"
	"github.com/andresuchdata/bidco-kpi/backend-go/pkg/logger"
)

// ErrNoRecords is returned when a dataset holds no sale rows.
var ErrNoRecords = errors.New("dataset has no sale records")

// Analyzer runs the whole KPI pipeline over one in-memory sales table.
type Analyzer struct {
	cfg         Config
	detector    *PromotionDetector
	classifier  *OutlierClassifier
	indexer     *PriceIndexBuilder
	kpis        *KPIAggregator
	recommender *Recommender
	health      *HealthScorer
	now         func() time.Time
}

// NewAnalyzer wires every pipeline stage from one configuration.
func NewAnalyzer(cfg Config) *Analyzer {
	return &Analyzer{
		cfg:         cfg,
		detector:    NewPromotionDetector(cfg),
		classifier:  NewOutlierClassifier(cfg),
		indexer:     NewPriceIndexBuilder(cfg),
		kpis:        NewKPIAggregator(cfg),
		recommender: NewRecommender(cfg),
		health:      NewHealthScorer(cfg),
		now:         time.Now,
	}
}

// Config returns the configuration the analyzer was built with.
func (a *Analyzer) Config() Config {
	return a.cfg
}

// Analyze produces the immutable report of one dataset. The records are not modified.
func (a *Analyzer) Analyze(dataset string, records []domain.SaleRecord) (*domain.Report, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("analyze %s: %w", dataset, ErrNoRecords)
	}
	start := a.now()

	sales, weeks := a.detector.Detect(records)
	target, comp := a.kpis.Split(sales)

	// group scores cover every row, competitors included, like the overall score
	health := a.health.Evaluate(records)
	sectionHealth := a.health.ScoreBy(records, func(r domain.SaleRecord) string { return r.Section })
	priceOutliers := a.classifier.UnitPriceOutliers(sales)

	cells := a.indexer.Build(sales)
	sections := a.kpis.SectionPricing(target, comp)
	strategy, note := a.recommender.StoreStrategies(cells)

	report := &domain.Report{
		Dataset:        dataset,
		Fingerprint:    Fingerprint(records),
		GeneratedAt:    start.UTC(),
		Rows:           len(records),
		TargetRows:     len(target),
		HasCompetitors: len(comp) > 0,
		KPIs:           a.kpis.Overall(target, comp, sections, health.OverallScore),
		Sections:       sections,
		PriceIndex:     cells,
		OverallIndex:   OverallIndex(cells),
		Stores: a.kpis.Summaries(target, cells, health.Stores,
			func(s domain.EnrichedSale) string { return s.StoreName },
			func(c domain.PriceIndexRow) string { return c.StoreName }),
		SectionSummaries: a.kpis.Summaries(target, cells, sectionHealth,
			func(s domain.EnrichedSale) string { return s.Section },
			func(c domain.PriceIndexRow) string { return c.Section }),
		Strategy:           strategy,
		StrategyNote:       note,
		StoreSectionUplift: StoreSectionUplift(target),
		SectionUplift:      SectionUplifts(target),
		PromoWeeks:         weeks,
		PromoByWeekday:     PromoDaysByWeekday(target),
		PromoIntensity:     PromoIntensityByStore(target),
		SectionPromos:      SectionPromoSummaries(target),
		Health:             health,
		PriceOutliers:      priceOutliers,
		ItemOutliers:       a.classifier.ItemOutliers(sales, priceOutliers),
		Market:             MarketShare(a.cfg, records),
		Coverage:           CategoryCoverage(a.cfg, records),
	}

	l := logger.For("pricing")
	l.Info().
		Str("dataset", dataset).
		Int("rows", report.Rows).
		Int("target_rows", report.TargetRows).
		Int("price_cells", len(cells)).
		Float64("health", health.OverallScore).
		Dur("took", a.now().Sub(start)).
		Msg("pricing analysis complete")

	return report, nil
}

// Fingerprint hashes the records so identical tables share cache entries.
func Fingerprint(records []domain.SaleRecord) string {
	h := sha1.New()
	for _, r := range records {
		fmt.Fprintf(h, "%s|%s|%s|%s|%s|%s|%s|%v|%v|%v|%v|%v|%v|%v|%v\n",
			r.StoreName, r.ItemCode, r.Description, r.Category, r.Section, r.SubDepartment, r.Supplier,
			r.Quantity.Valid, r.Quantity.Float64,
			r.TotalSales.Valid, r.TotalSales.Float64,
			r.RRP.Valid, r.RRP.Float64,
			r.DateOfSale.Valid, r.DateOfSale.Time.Unix())
	}
	return hex.EncodeToString(h.Sum(nil))
}
