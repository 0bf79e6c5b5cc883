package pricing

import (
	"math"
	"sort"

	"github.com/andresuchdata/bidco-kpi/backend-go/internal/domain"
	"github.com/samber/lo"
)

// minOutlierGroup is the smallest group whose quartiles are trusted.
const minOutlierGroup = 4

// Bounds are the IQR fences of one group of values.
type Bounds struct {
	N          int
	Q1         float64
	Q3         float64
	IQR        float64
	Lower      float64
	Upper      float64
	Valid      bool
	Degenerate bool
}

// Quantile interpolates linearly between the closest ranks of sorted values
// (position (n-1)*q), returning NaN for an empty slice.
func Quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return sorted[0]
	}
	h := float64(n-1) * q
	floor := math.Floor(h)
	i := int(floor)
	if i >= n-1 {
		return sorted[n-1]
	}
	return sorted[i] + (h-floor)*(sorted[i+1]-sorted[i])
}

// ComputeBounds builds the fences Q1 - k*IQR and Q3 + k*IQR over the finite values.
func ComputeBounds(values []float64, k float64) Bounds {
	sorted := finiteSorted(values)
	b := Bounds{N: len(sorted)}
	if b.N == 0 {
		return b
	}
	b.Valid = true
	b.Degenerate = b.N < minOutlierGroup
	b.Q1 = Quantile(sorted, 0.25)
	b.Q3 = Quantile(sorted, 0.75)
	b.IQR = b.Q3 - b.Q1
	b.Lower = b.Q1 - k*b.IQR
	b.Upper = b.Q3 + k*b.IQR
	return b
}

// Classify returns the outlier direction of v. Values on a fence are Normal,
// so a zero-width group only flags values that differ from the common value.
func (b Bounds) Classify(v float64) string {
	if !b.Valid || b.Degenerate || !isFinite(v) {
		return domain.OutlierNormal
	}
	switch {
	case v < b.Lower:
		return domain.OutlierLow
	case v > b.Upper:
		return domain.OutlierHigh
	default:
		return domain.OutlierNormal
	}
}

// IsOutlier reports whether v falls strictly outside the fences.
func (b Bounds) IsOutlier(v float64) bool {
	return b.Classify(v) != domain.OutlierNormal
}

type observation struct {
	group string
	label string
	value float64
}

// OutlierClassifier flags prices outside their group's IQR fences.
type OutlierClassifier struct {
	multiplier float64
}

// NewOutlierClassifier creates a classifier from the pipeline configuration.
func NewOutlierClassifier(cfg Config) *OutlierClassifier {
	k := cfg.OutlierMultiplier
	if k <= 0 {
		k = 1.5
	}
	return &OutlierClassifier{multiplier: k}
}

// classify evaluates every observation against the bounds of its group.
// Rows come back grouped and sorted by group, then label, then value.
func (c *OutlierClassifier) classify(obs []observation, onlyOutliers bool) []domain.OutlierRow {
	groups := lo.GroupBy(obs, func(o observation) string { return o.group })
	keys := lo.Keys(groups)
	sort.Strings(keys)

	out := make([]domain.OutlierRow, 0)
	for _, key := range keys {
		members := groups[key]
		b := ComputeBounds(lo.Map(members, func(o observation, _ int) float64 { return o.value }), c.multiplier)
		sort.SliceStable(members, func(i, j int) bool {
			if members[i].label != members[j].label {
				return members[i].label < members[j].label
			}
			return members[i].value < members[j].value
		})
		for _, o := range members {
			status := b.Classify(o.value)
			if onlyOutliers && status == domain.OutlierNormal {
				continue
			}
			out = append(out, domain.OutlierRow{
				GroupKey: key,
				Label:    o.label,
				Value:    o.value,
				Q1:       b.Q1,
				Q3:       b.Q3,
				Lower:    b.Lower,
				Upper:    b.Upper,
				Status:   status,
			})
		}
	}
	return out
}

// RRPOutliers classifies every record with an RRP against the RRPs of the same
// item. Labels carry the store name so callers can aggregate per store.
func (c *OutlierClassifier) RRPOutliers(records []domain.SaleRecord) []domain.OutlierRow {
	return c.RRPOutliersBy(records, func(r domain.SaleRecord) string { return r.StoreName })
}

// RRPOutliersBy is RRPOutliers with a caller-chosen label.
func (c *OutlierClassifier) RRPOutliersBy(records []domain.SaleRecord, label func(domain.SaleRecord) string) []domain.OutlierRow {
	obs := make([]observation, 0, len(records))
	for _, r := range records {
		if !r.RRP.Valid {
			continue
		}
		obs = append(obs, observation{group: r.ItemCode, label: label(r), value: r.RRP.Float64})
	}
	return c.classify(obs, false)
}

// UnitPriceOutliers flags sold rows whose unit price is extreme for their item,
// labelled by supplier.
func (c *OutlierClassifier) UnitPriceOutliers(sales []domain.EnrichedSale) []domain.OutlierRow {
	obs := make([]observation, 0, len(sales))
	for _, s := range sales {
		if s.Qty() <= 0 || !s.HasUnitPrice() {
			continue
		}
		obs = append(obs, observation{group: s.ItemCode, label: s.Supplier, value: s.UnitPrice})
	}
	return c.classify(obs, true)
}

// SupplierPriceExtremes compares each supplier's average unit price for one
// item and returns the extreme suppliers.
func (c *OutlierClassifier) SupplierPriceExtremes(sales []domain.EnrichedSale, itemCode string) []domain.OutlierRow {
	item := lo.Filter(sales, func(s domain.EnrichedSale, _ int) bool { return s.ItemCode == itemCode })
	bySupplier := lo.GroupBy(item, func(s domain.EnrichedSale) string { return s.Supplier })

	obs := make([]observation, 0, len(bySupplier))
	for supplier, rows := range bySupplier {
		avg := mean(lo.Map(rows, func(s domain.EnrichedSale, _ int) float64 { return s.UnitPrice }))
		if !isFinite(avg) {
			continue
		}
		obs = append(obs, observation{group: itemCode, label: supplier, value: avg})
	}
	return c.classify(obs, true)
}

// StorePriceOutliers returns the stores selling one item at an extreme unit price.
func (c *OutlierClassifier) StorePriceOutliers(sales []domain.EnrichedSale, itemCode string) []domain.OutlierRow {
	obs := make([]observation, 0)
	for _, s := range sales {
		if s.ItemCode != itemCode || !s.HasUnitPrice() {
			continue
		}
		obs = append(obs, observation{group: itemCode, label: s.StoreName, value: s.UnitPrice})
	}
	rows := c.classify(obs, true)
	type storePrice struct {
		store string
		price float64
	}
	return lo.UniqBy(rows, func(r domain.OutlierRow) storePrice {
		return storePrice{store: r.Label, price: r.Value}
	})
}

// ItemOutliers drills into every item that has at least one unit-price outlier,
// ordered by item code.
func (c *OutlierClassifier) ItemOutliers(sales []domain.EnrichedSale, priceOutliers []domain.OutlierRow) []domain.ItemOutliers {
	items := lo.Uniq(lo.Map(priceOutliers, func(o domain.OutlierRow, _ int) string { return o.GroupKey }))
	sort.Strings(items)

	out := make([]domain.ItemOutliers, 0, len(items))
	for _, item := range items {
		out = append(out, domain.ItemOutliers{
			ItemCode:  item,
			Suppliers: c.SupplierPriceExtremes(sales, item),
			Stores:    c.StorePriceOutliers(sales, item),
		})
	}
	return out
}
