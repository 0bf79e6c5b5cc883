package pricing

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/andresuchdata/bidco-kpi/backend-go/internal/domain"
	"github.com/samber/lo"
)

// WeekKey returns the "YYYY-WW" key of t. Weeks start on Sunday and the days
// before the first Sunday of the year fall in week 00 (strftime %U).
func WeekKey(t time.Time) string {
	yday := t.YearDay() - 1
	week := (yday + 7 - int(t.Weekday())) / 7
	return fmt.Sprintf("%04d-%02d", t.Year(), week)
}

// Enrich derives unit price, discount fraction, week key and weekday for each record.
func Enrich(records []domain.SaleRecord) []domain.EnrichedSale {
	out := make([]domain.EnrichedSale, len(records))
	for i, r := range records {
		s := domain.EnrichedSale{
			SaleRecord:  r,
			UnitPrice:   math.NaN(),
			DiscountPct: math.NaN(),
		}
		if r.Quantity.Valid && r.TotalSales.Valid && r.Quantity.Float64 > 0 {
			s.UnitPrice = r.TotalSales.Float64 / r.Quantity.Float64
		}
		if r.RRP.Valid && r.RRP.Float64 > 0 && s.HasUnitPrice() {
			s.DiscountPct = (r.RRP.Float64 - s.UnitPrice) / r.RRP.Float64
		}
		if r.DateOfSale.Valid {
			s.YearWeek = WeekKey(r.DateOfSale.Time)
			s.DayOfWeek = r.DateOfSale.Time.Weekday().String()
		}
		out[i] = s
	}
	return out
}

// PromotionDetector flags the weeks in which an item was sold below RRP often enough.
type PromotionDetector struct {
	threshold  float64
	minDays    int
	poolStores bool
}

// NewPromotionDetector creates a detector from the pipeline configuration.
func NewPromotionDetector(cfg Config) *PromotionDetector {
	return &PromotionDetector{
		threshold:  cfg.DiscountThreshold,
		minDays:    cfg.PromoMinDays,
		poolStores: cfg.PromoPoolStores,
	}
}

type promoKey struct {
	item  string
	desc  string
	store string
	week  string
}

type promoGroup struct {
	days map[string]struct{}
	rows int
}

func (g *promoGroup) count(pooled bool) int {
	if pooled {
		return g.rows
	}
	return len(g.days)
}

// Detect enriches the records and sets IsPromoDay / OnPromo. It also returns
// the per-week verdicts, ordered by item, store and week.
//
// Per-store grouping counts distinct promo days; pooled grouping counts
// promo rows across all stores of the week.
func (d *PromotionDetector) Detect(records []domain.SaleRecord) ([]domain.EnrichedSale, []domain.PromoWeek) {
	sales := Enrich(records)
	groups := make(map[promoKey]*promoGroup)

	keyOf := func(s domain.EnrichedSale) promoKey {
		k := promoKey{item: s.ItemCode, desc: s.Description, week: s.YearWeek}
		if !d.poolStores {
			k.store = s.StoreName
		}
		return k
	}

	for i := range sales {
		s := &sales[i]
		s.IsPromoDay = s.HasDiscount() && s.DiscountPct >= d.threshold
		if s.YearWeek == "" {
			continue
		}
		k := keyOf(*s)
		g, ok := groups[k]
		if !ok {
			g = &promoGroup{days: make(map[string]struct{})}
			groups[k] = g
		}
		if s.IsPromoDay {
			g.rows++
			g.days[s.DateOfSale.Time.Format("2006-01-02")] = struct{}{}
		}
	}

	for i := range sales {
		s := &sales[i]
		if s.YearWeek == "" {
			continue
		}
		s.OnPromo = groups[keyOf(*s)].count(d.poolStores) >= d.minDays
	}

	weeks := make([]domain.PromoWeek, 0, len(groups))
	for k, g := range groups {
		n := g.count(d.poolStores)
		weeks = append(weeks, domain.PromoWeek{
			ItemCode:    k.item,
			Description: k.desc,
			StoreName:   k.store,
			YearWeek:    k.week,
			PromoDays:   n,
			OnPromo:     n >= d.minDays,
		})
	}
	sort.Slice(weeks, func(i, j int) bool {
		a, b := weeks[i], weeks[j]
		if a.ItemCode != b.ItemCode {
			return a.ItemCode < b.ItemCode
		}
		if a.Description != b.Description {
			return a.Description < b.Description
		}
		if a.StoreName != b.StoreName {
			return a.StoreName < b.StoreName
		}
		return a.YearWeek < b.YearWeek
	})

	return sales, weeks
}

type storeDay struct {
	store string
	date  string
}

// uniquePromoDays returns the distinct (store, date) pairs of on-promo target rows
// together with the weekday of each pair.
func uniquePromoDays(target []domain.EnrichedSale) map[storeDay]string {
	days := make(map[storeDay]string)
	for _, s := range target {
		if !s.OnPromo || !s.DateOfSale.Valid {
			continue
		}
		days[storeDay{store: s.StoreName, date: s.DateOfSale.Time.Format("2006-01-02")}] = s.DayOfWeek
	}
	return days
}

// PromoDaysByWeekday counts unique target promo days per store and weekday.
func PromoDaysByWeekday(target []domain.EnrichedSale) []domain.PromoWeekdayCount {
	counts := lo.CountValuesBy(lo.Entries(uniquePromoDays(target)), func(e lo.Entry[storeDay, string]) [2]string {
		return [2]string{e.Key.store, e.Value}
	})

	out := make([]domain.PromoWeekdayCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, domain.PromoWeekdayCount{StoreName: k[0], DayOfWeek: k[1], PromoDays: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StoreName != out[j].StoreName {
			return out[i].StoreName < out[j].StoreName
		}
		return weekdayOrder(out[i].DayOfWeek) < weekdayOrder(out[j].DayOfWeek)
	})
	return out
}

// PromoIntensityByStore counts unique target promo days per store against the
// store's trading days, most promoted stores first.
func PromoIntensityByStore(target []domain.EnrichedSale) []domain.PromoIntensity {
	promoDays := lo.CountValuesBy(lo.Keys(uniquePromoDays(target)), func(k storeDay) string { return k.store })

	trading := make(map[storeDay]struct{})
	for _, s := range target {
		if s.DateOfSale.Valid {
			trading[storeDay{store: s.StoreName, date: s.DateOfSale.Time.Format("2006-01-02")}] = struct{}{}
		}
	}
	tradingDays := lo.CountValuesBy(lo.Keys(trading), func(k storeDay) string { return k.store })

	out := make([]domain.PromoIntensity, 0, len(tradingDays))
	for store, days := range tradingDays {
		n := promoDays[store]
		out = append(out, domain.PromoIntensity{
			StoreName:    store,
			PromoDays:    n,
			TradingDays:  days,
			IntensityPct: roundFloat(float64(n)/float64(days)*100, 1),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PromoDays != out[j].PromoDays {
			return out[i].PromoDays > out[j].PromoDays
		}
		return out[i].StoreName < out[j].StoreName
	})
	return out
}

var discountBuckets = []struct {
	label    string
	min, max float64
}{
	{"0-10%", 0, 10},
	{"10-20%", 10, 20},
	{"20-30%", 20, 30},
}

// SectionPromoSummaries describes target discount depth per section, deepest first.
// Only sold rows with a discount in [0, 100) take part. Buckets are right-closed.
func SectionPromoSummaries(target []domain.EnrichedSale) []domain.SectionPromoSummary {
	eligible := lo.Filter(target, func(s domain.EnrichedSale, _ int) bool {
		if s.Qty() <= 0 || !s.HasDiscount() {
			return false
		}
		pct := s.DiscountPct * 100
		return pct >= 0 && pct < 100
	})

	bySection := lo.GroupBy(eligible, func(s domain.EnrichedSale) string { return s.Section })
	out := make([]domain.SectionPromoSummary, 0, len(bySection))
	for section, rows := range bySection {
		discounts := lo.Map(rows, func(s domain.EnrichedSale, _ int) float64 { return s.DiscountPct * 100 })
		rrps := make([]float64, 0, len(rows))
		for _, s := range rows {
			if s.RRP.Valid {
				rrps = append(rrps, s.RRP.Float64)
			}
		}

		buckets := make(map[string]int, len(discountBuckets))
		for _, b := range discountBuckets {
			buckets[b.label] = 0
		}
		for _, d := range discounts {
			for _, b := range discountBuckets {
				if d > b.min && d <= b.max {
					buckets[b.label]++
					break
				}
			}
		}

		out = append(out, domain.SectionPromoSummary{
			Section:           section,
			TotalQty:          lo.SumBy(rows, func(s domain.EnrichedSale) float64 { return s.Qty() }),
			TotalSales:        roundFloat(lo.SumBy(rows, func(s domain.EnrichedSale) float64 { return s.Sales() }), 2),
			AvgRRP:            roundPtr(mean(rrps), 2),
			AvgUnitPrice:      roundFloat(mean(lo.Map(rows, func(s domain.EnrichedSale, _ int) float64 { return s.UnitPrice })), 2),
			AvgDiscountPct:    roundFloat(mean(discounts), 2),
			MedianDiscountPct: roundFloat(median(discounts), 2),
			Transactions:      len(rows),
			DiscountBuckets:   buckets,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AvgDiscountPct != out[j].AvgDiscountPct {
			return out[i].AvgDiscountPct > out[j].AvgDiscountPct
		}
		return out[i].Section < out[j].Section
	})
	return out
}

func weekdayOrder(name string) int {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if d.String() == name {
			return int(d)
		}
	}
	return 7
}
