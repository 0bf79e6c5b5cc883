package pricing

import (
	"sort"
	"strings"

	"github.com/andresuchdata/bidco-kpi/backend-go/internal/domain"
	"github.com/samber/lo"
)

// MarketShare measures the target supplier's share of rows and the supplier
// concentration of the dataset. Rows without a supplier are ignored in the
// supplier distribution.
func MarketShare(cfg Config, records []domain.SaleRecord) domain.MarketShare {
	out := domain.MarketShare{TopSuppliers: []domain.SupplierShare{}}
	if len(records) == 0 {
		return out
	}

	targetRows := lo.CountBy(records, func(r domain.SaleRecord) bool { return cfg.IsTarget(r.Supplier) })
	out.TargetSharePct = roundFloat(float64(targetRows)/float64(len(records))*100, 2)

	named := lo.Filter(records, func(r domain.SaleRecord, _ int) bool { return strings.TrimSpace(r.Supplier) != "" })
	counts := lo.CountValuesBy(named, func(r domain.SaleRecord) string { return r.Supplier })
	out.SupplierCount = len(counts)

	shares := make([]domain.SupplierShare, 0, len(counts))
	for supplier, n := range counts {
		shares = append(shares, domain.SupplierShare{
			Supplier: supplier,
			Rows:     n,
			SharePct: roundFloat(float64(n)/float64(len(named))*100, 2),
		})
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Rows != shares[j].Rows {
			return shares[i].Rows > shares[j].Rows
		}
		return shares[i].Supplier < shares[j].Supplier
	})
	if cfg.TopSuppliers > 0 && len(shares) > cfg.TopSuppliers {
		shares = shares[:cfg.TopSuppliers]
	}
	out.TopSuppliers = shares
	return out
}

// CategoryCoverage counts the distinct stores selling the target supplier in
// each category, widest coverage first.
func CategoryCoverage(cfg Config, records []domain.SaleRecord) []domain.CategoryCoverage {
	target := lo.Filter(records, func(r domain.SaleRecord, _ int) bool {
		return cfg.IsTarget(r.Supplier) && strings.TrimSpace(r.StoreName) != ""
	})
	byCategory := lo.GroupBy(target, func(r domain.SaleRecord) string { return r.Category })

	out := make([]domain.CategoryCoverage, 0, len(byCategory))
	for category, rows := range byCategory {
		stores := lo.Uniq(lo.Map(rows, func(r domain.SaleRecord, _ int) string { return r.StoreName }))
		out = append(out, domain.CategoryCoverage{Category: category, Stores: len(stores)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Stores != out[j].Stores {
			return out[i].Stores > out[j].Stores
		}
		return out[i].Category < out[j].Category
	})
	return out
}
