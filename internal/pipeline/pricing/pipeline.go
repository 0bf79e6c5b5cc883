package pricing

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/andresuchdata/bidco-kpi/backend-go/internal/domain"
	"github.com/andresuchdata/bidco-kpi/backend-go/internal/loader"
	"github.com/andresuchdata/bidco-kpi/backend-go/internal/pipeline"
)

// PricingPipeline implements the generic pipeline.Pipeline interface for sales extracts.
type PricingPipeline struct {
	analyzer *Analyzer
	now      func() time.Time
}

// NewPricingPipeline creates a new pricing pipeline instance.
func NewPricingPipeline(cfg Config) *PricingPipeline {
	return &PricingPipeline{analyzer: NewAnalyzer(cfg), now: time.Now}
}

var _ pipeline.Pipeline = (*PricingPipeline)(nil)

// Name returns the unique identifier of this pipeline.
func (p *PricingPipeline) Name() string {
	return "pricing"
}

var filenameDate = regexp.MustCompile(`(\d{4})-?(\d{2})-?(\d{2})`)

// GetSnapshotDate reads the first YYYYMMDD or YYYY-MM-DD date in the filename.
// Files without a date belong to the current day.
func (p *PricingPipeline) GetSnapshotDate(filename string) (time.Time, error) {
	base := filepath.Base(filename)
	if m := filenameDate.FindStringSubmatch(base); m != nil {
		if t, err := time.Parse("20060102", m[1]+m[2]+m[3]); err == nil {
			return t, nil
		}
	}
	now := p.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
}

// Validate performs basic validation on the input file.
func (p *PricingPipeline) Validate(inputFile string) error {
	info, err := os.Stat(inputFile)
	if err != nil {
		return fmt.Errorf("cannot stat input file %s: %w", inputFile, err)
	}
	if info.IsDir() {
		return fmt.Errorf("input path %s is a directory, expected file", inputFile)
	}
	_, err = loader.FormatOf(inputFile)
	return err
}

// Transform loads one extract, analyses it and returns its report tables.
func (p *PricingPipeline) Transform(ctx context.Context, inputFile string) (*pipeline.Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	records, err := loader.LoadFile(inputFile)
	if err != nil {
		return nil, err
	}

	base := filepath.Base(inputFile)
	dataset := base[:len(base)-len(filepath.Ext(base))]
	r, err := p.analyzer.Analyze(dataset, records)
	if err != nil {
		return nil, err
	}

	return &pipeline.Output{
		Dataset: dataset,
		Tables:  Tables(r),
		Summary: SummaryRow(r),
	}, nil
}

// SummaryRow is the report's line in the cross-dataset summary.
func SummaryRow(r *domain.Report) pipeline.TransformedRow {
	k := r.KPIs
	priceIndex := "N/A"
	if k.PriceIndex != nil {
		priceIndex = strconv.FormatFloat(*k.PriceIndex, 'f', 3, 64)
	}
	return pipeline.TransformedRow{Data: map[string]interface{}{
		"dataset":            r.Dataset,
		"rows":               r.Rows,
		"target_rows":        r.TargetRows,
		"total_revenue_ksh":  k.TotalRevenueKSh,
		"units_sold":         k.UnitsSold,
		"avg_discount_pct":   formatFloat(k.AvgDiscountPct, 1),
		"price_index":        priceIndex,
		"promo_coverage_pct": k.PromoCoveragePct,
		"promo_uplift_pct":   k.PromoUpliftPct,
		"weekly_gain_ksh":    k.WeeklyGainKSh,
		"data_health":        k.DataHealth,
		"health_rating":      r.Health.Rating,
	}}
}
