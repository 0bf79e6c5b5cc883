package pricing

import (
	"sort"

	"github.com/andresuchdata/bidco-kpi/backend-go/internal/domain"
	"github.com/samber/lo"
)

type cellKey struct {
	store   string
	subDept string
	section string
}

// PriceIndexBuilder compares the target supplier's average unit price with
// its competitors' inside each (store, sub-department, section) cell.
type PriceIndexBuilder struct {
	cfg Config
}

// NewPriceIndexBuilder creates a builder from the pipeline configuration.
func NewPriceIndexBuilder(cfg Config) *PriceIndexBuilder {
	return &PriceIndexBuilder{cfg: cfg}
}

// Build returns one row per cell where both sides have a unit price.
// Cells without competitor data are dropped.
func (b *PriceIndexBuilder) Build(sales []domain.EnrichedSale) []domain.PriceIndexRow {
	keyOf := func(s domain.EnrichedSale) cellKey {
		return cellKey{store: s.StoreName, subDept: s.SubDepartment, section: s.Section}
	}
	target := lo.GroupBy(lo.Filter(sales, func(s domain.EnrichedSale, _ int) bool { return b.cfg.IsTarget(s.Supplier) }), keyOf)
	comp := lo.GroupBy(lo.Filter(sales, func(s domain.EnrichedSale, _ int) bool { return !b.cfg.IsTarget(s.Supplier) }), keyOf)

	unitPrices := func(rows []domain.EnrichedSale) []float64 {
		return lo.Map(rows, func(s domain.EnrichedSale, _ int) float64 { return s.UnitPrice })
	}

	out := make([]domain.PriceIndexRow, 0, len(target))
	for key, rows := range target {
		targetAvg := mean(unitPrices(rows))
		compAvg := mean(unitPrices(comp[key]))
		index := safeDiv(targetAvg, compAvg)
		if !isFinite(index) {
			continue
		}

		rrps := make([]float64, 0, len(rows))
		for _, s := range rows {
			if s.RRP.Valid {
				rrps = append(rrps, s.RRP.Float64)
			}
		}
		discounts := lo.Map(rows, func(s domain.EnrichedSale, _ int) float64 { return s.DiscountPct })

		out = append(out, domain.PriceIndexRow{
			StoreName:      key.store,
			SubDepartment:  key.subDept,
			Section:        key.section,
			TargetAvgPrice: targetAvg,
			CompAvgPrice:   compAvg,
			PriceIndex:     roundFloat(index, 3),
			AvgRRP:         roundPtr(mean(rrps), 2),
			AvgDiscountPct: roundPtr(mean(discounts)*100, 1),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		a, c := out[i], out[j]
		if a.StoreName != c.StoreName {
			return a.StoreName < c.StoreName
		}
		if a.SubDepartment != c.SubDepartment {
			return a.SubDepartment < c.SubDepartment
		}
		return a.Section < c.Section
	})
	return out
}

// OverallIndex is the mean cell index, nil when no cell has competitor data.
func OverallIndex(rows []domain.PriceIndexRow) *float64 {
	return roundPtr(mean(lo.Map(rows, func(r domain.PriceIndexRow, _ int) float64 { return r.PriceIndex })), 3)
}
