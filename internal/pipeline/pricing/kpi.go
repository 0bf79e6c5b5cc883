package pricing

import (
	"math"
	"sort"
	"strconv"

	"github.com/andresuchdata/bidco-kpi/backend-go/internal/domain"
	"github.com/samber/lo"
)

// trade accumulates the sums every KPI is derived from.
type trade struct {
	rows       int
	promoRows  int
	units      float64
	revenue    float64
	rrpValue   float64 // sum of RRP * quantity over rows with an RRP
	rrpUnits   float64
	compValue  float64 // competitor sum of unit price * quantity
	compUnits  float64
	hasCompRow bool
}

func (t *trade) addTarget(s domain.EnrichedSale) {
	t.rows++
	if s.OnPromo {
		t.promoRows++
	}
	t.units += s.Qty()
	t.revenue += s.Sales()
	if s.RRP.Valid && s.Quantity.Valid {
		t.rrpValue += s.RRP.Float64 * s.Quantity.Float64
		t.rrpUnits += s.Quantity.Float64
	}
}

func (t *trade) addCompetitor(s domain.EnrichedSale) {
	t.hasCompRow = true
	if s.HasUnitPrice() {
		t.compValue += s.UnitPrice * s.Qty()
		t.compUnits += s.Qty()
	}
}

func (t trade) avgPrice() float64 { return safeDiv(t.revenue, t.units) }

func (t trade) avgRRP() float64 { return safeDiv(t.rrpValue, t.rrpUnits) }

// discountPct is (1 - avg price / avg RRP) * 100, NaN without an RRP.
func (t trade) discountPct() float64 {
	return (1 - safeDiv(t.avgPrice(), t.avgRRP())) * 100
}

// compPrice is the quantity-weighted competitor unit price, NaN when absent.
func (t trade) compPrice() float64 { return safeDiv(t.compValue, t.compUnits) }

// priceIndex is nil without competitor rows or with a non-positive competitor price.
func (t trade) priceIndex() *float64 {
	comp := t.compPrice()
	if !t.hasCompRow || !isFinite(comp) || comp <= 0 {
		return nil
	}
	return roundPtr(safeDiv(t.avgPrice(), comp), 3)
}

// KPIAggregator rolls enriched sales up into the dashboard KPIs and the
// section and store tables.
type KPIAggregator struct {
	cfg         Config
	recommender *Recommender
}

// NewKPIAggregator creates an aggregator from the pipeline configuration.
func NewKPIAggregator(cfg Config) *KPIAggregator {
	return &KPIAggregator{cfg: cfg, recommender: NewRecommender(cfg)}
}

// Split separates target supplier rows from competitor rows.
func (a *KPIAggregator) Split(sales []domain.EnrichedSale) (target, comp []domain.EnrichedSale) {
	return lo.FilterReject(sales, func(s domain.EnrichedSale, _ int) bool { return a.cfg.IsTarget(s.Supplier) })
}

// Overall computes the fixed KPI snapshot over all target rows.
func (a *KPIAggregator) Overall(target, comp []domain.EnrichedSale, sections []domain.SectionPricing, healthScore float64) domain.KPISnapshot {
	var t trade
	for _, s := range target {
		t.addTarget(s)
	}
	for _, s := range comp {
		t.addCompetitor(s)
	}

	snap := domain.KPISnapshot{
		TotalRevenueKSh: int64(roundFloat(t.revenue, 0)),
		UnitsSold:       int64(t.units),
		PriceIndex:      t.priceIndex(),
		PromoUpliftPct:  int64(roundFloat(PromoUplift(target), 0)),
		WeeklyGainKSh:   lo.SumBy(sections, func(s domain.SectionPricing) int64 { return s.WeeklyGainKSh }),
		DataHealth:      strconv.FormatFloat(healthScore, 'f', -1, 64) + "/100",
	}
	if d := t.discountPct(); isFinite(d) {
		snap.AvgDiscountPct = roundFloat(d, 1)
	}
	if t.rows > 0 {
		snap.PromoCoveragePct = int64(roundFloat(float64(t.promoRows)/float64(t.rows)*100, 0))
	}
	return snap
}

// SectionPricing builds the section action table, largest weekly gain first.
// Sections without positive units are skipped.
func (a *KPIAggregator) SectionPricing(target, comp []domain.EnrichedSale) []domain.SectionPricing {
	bySection := make(map[string]*trade)
	get := func(section string) *trade {
		t, ok := bySection[section]
		if !ok {
			t = &trade{}
			bySection[section] = t
		}
		return t
	}
	for _, s := range target {
		get(s.Section).addTarget(s)
	}
	for _, s := range comp {
		if t, ok := bySection[s.Section]; ok {
			t.addCompetitor(s)
		}
	}

	keep := 1 - a.cfg.TargetDiscountRate
	out := make([]domain.SectionPricing, 0, len(bySection))
	for section, t := range bySection {
		if t.units <= 0 {
			continue
		}
		price := t.avgPrice()
		row := domain.SectionPricing{
			Section:      section,
			UnitsSold:    int64(t.units),
			CurrentPrice: roundFloat(price, 1),
			CompPrice:    roundPtr(t.compPrice(), 1),
			PriceIndex:   t.priceIndex(),
		}
		// without an RRP the discount is unknown and only the index rules can match
		disc := math.NaN()
		if rrp := t.avgRRP(); isFinite(rrp) {
			targetPrice := rrp * keep
			gain := math.Max(0, (targetPrice-price)*t.units)
			row.RRP = roundFloat(rrp, 1)
			row.CurrentDiscountPct = roundFloat(t.discountPct(), 1)
			row.TargetPrice = roundFloat(targetPrice, 1)
			row.WeeklyGainKSh = int64(math.Trunc(roundFloat(gain, 6)))
			disc = row.CurrentDiscountPct
		}
		row.Status, row.Action = a.recommender.Recommend(row.PriceIndex, disc, row.WeeklyGainKSh)
		out = append(out, row)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].WeeklyGainKSh != out[j].WeeklyGainKSh {
			return out[i].WeeklyGainKSh > out[j].WeeklyGainKSh
		}
		return out[i].Section < out[j].Section
	})
	return out
}

// Summaries aggregates target trading per key (store or section). Average price
// index comes from the price index cells of the same key; health scores are
// looked up by key.
func (a *KPIAggregator) Summaries(
	target []domain.EnrichedSale,
	cells []domain.PriceIndexRow,
	health []domain.GroupHealth,
	key func(domain.EnrichedSale) string,
	cellKey func(domain.PriceIndexRow) string,
) []domain.GroupSummary {
	indexByKey := lo.GroupBy(cells, cellKey)
	healthByKey := lo.KeyBy(health, func(g domain.GroupHealth) string { return g.Group })

	groups := lo.GroupBy(target, key)
	out := make([]domain.GroupSummary, 0, len(groups))
	for k, rows := range groups {
		var t trade
		for _, s := range rows {
			t.addTarget(s)
		}
		sum := domain.GroupSummary{
			Key:            k,
			RevenueKSh:     roundFloat(t.revenue, 2),
			Units:          t.units,
			AvgDiscountPct: roundPtr(t.discountPct(), 1),
			PromoUpliftPct: roundFloat(PromoUplift(rows), 1),
		}
		if cs, ok := indexByKey[k]; ok {
			sum.AvgPriceIndex = roundPtr(mean(lo.Map(cs, func(c domain.PriceIndexRow, _ int) float64 { return c.PriceIndex })), 3)
		}
		if sum.AvgPriceIndex != nil {
			sum.Positioning = a.cfg.Positioning.Classify(*sum.AvgPriceIndex)
			sum.PriceBand = domain.PriceBand(*sum.AvgPriceIndex)
		}
		if g, ok := healthByKey[k]; ok {
			score := g.HealthScore
			sum.HealthScore = &score
		}
		out = append(out, sum)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RevenueKSh != out[j].RevenueKSh {
			return out[i].RevenueKSh > out[j].RevenueKSh
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// Classify places an average price index in a positioning band.
func (p PositioningBands) Classify(index float64) string {
	switch {
	case index < p.DiscountBelow:
		return domain.PositionDiscount
	case index > p.PremiumAbove:
		return domain.PositionPremium
	default:
		return domain.PositionNearMarket
	}
}

func quantities(rows []domain.EnrichedSale) []float64 {
	return lo.Map(rows, func(s domain.EnrichedSale, _ int) float64 {
		if !s.Quantity.Valid {
			return math.NaN()
		}
		return s.Quantity.Float64
	})
}

// meanUplift is (promo mean / baseline mean - 1) * 100. ok is false when
// either side is missing or the baseline is zero.
func meanUplift(promo, baseline []domain.EnrichedSale) (pct, promoMean, baseMean float64, ok bool) {
	promoMean = mean(quantities(promo))
	baseMean = mean(quantities(baseline))
	ratio := safeDiv(promoMean, baseMean)
	if !isFinite(ratio) {
		return 0, promoMean, baseMean, false
	}
	return (ratio - 1) * 100, promoMean, baseMean, true
}

// PromoUplift compares mean quantity per row on and off promotion.
// It is 0 when there is no promo or no usable baseline.
func PromoUplift(rows []domain.EnrichedSale) float64 {
	promo, baseline := lo.FilterReject(rows, func(s domain.EnrichedSale, _ int) bool { return s.OnPromo })
	pct, _, _, _ := meanUplift(promo, baseline)
	return pct
}

// StoreSectionUplift measures uplift in every store section that ran a promotion.
// Sections with no baseline are typed Emerging Promo with a zero uplift.
func StoreSectionUplift(target []domain.EnrichedSale) []domain.StoreSectionUplift {
	type storeSection struct{ store, section string }
	groups := lo.GroupBy(target, func(s domain.EnrichedSale) storeSection {
		return storeSection{store: s.StoreName, section: s.Section}
	})

	out := make([]domain.StoreSectionUplift, 0)
	for k, rows := range groups {
		promo, baseline := lo.FilterReject(rows, func(s domain.EnrichedSale, _ int) bool { return s.OnPromo })
		if len(promo) == 0 {
			continue
		}
		pct, promoMean, baseMean, ok := meanUplift(promo, baseline)
		row := domain.StoreSectionUplift{
			StoreName:   k.store,
			Section:     k.section,
			PromoAvgQty: roundFloat(promoMean, 2),
			UpliftType:  domain.UpliftEmerging,
		}
		if ok {
			row.BaselineAvgQty = roundFloat(baseMean, 2)
			row.UpliftPct = roundFloat(pct, 1)
			row.UpliftType = domain.UpliftReliable
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Section != b.Section {
			return a.Section < b.Section
		}
		if a.UpliftPct != b.UpliftPct {
			return a.UpliftPct > b.UpliftPct
		}
		return a.StoreName < b.StoreName
	})
	return out
}

// SectionUplifts compares promo and baseline unit totals per section.
// The uplift is nil when the section sold nothing off promotion.
func SectionUplifts(target []domain.EnrichedSale) []domain.SectionUplift {
	groups := lo.GroupBy(target, func(s domain.EnrichedSale) string { return s.Section })

	out := make([]domain.SectionUplift, 0, len(groups))
	for section, rows := range groups {
		promo, baseline := lo.FilterReject(rows, func(s domain.EnrichedSale, _ int) bool { return s.OnPromo })
		row := domain.SectionUplift{
			Section:       section,
			PromoUnits:    lo.SumBy(promo, func(s domain.EnrichedSale) float64 { return s.Qty() }),
			BaselineUnits: lo.SumBy(baseline, func(s domain.EnrichedSale) float64 { return s.Qty() }),
		}
		row.UpliftPct = roundPtr(safeDiv(row.PromoUnits-row.BaselineUnits, row.BaselineUnits)*100, 1)
		row.Category = domain.UpliftCategory(row.UpliftPct)
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].UpliftPct, out[j].UpliftPct
		switch {
		case a != nil && b != nil && *a != *b:
			return *a > *b
		case (a == nil) != (b == nil):
			return a != nil
		}
		return out[i].Section < out[j].Section
	})
	return out
}
