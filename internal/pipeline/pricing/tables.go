package pricing

import (
	"sort"
	"strconv"

	"github.com/andresuchdata/bidco-kpi/backend-go/internal/domain"
	"github.com/andresuchdata/bidco-kpi/backend-go/internal/report"
)

func itoa(v int) string { return strconv.Itoa(v) }

func i64(v int64) string { return strconv.FormatInt(v, 10) }

// Tables flattens a report into the CSV/XLSX tables written by batch runs.
func Tables(r *domain.Report) []report.Table {
	return []report.Table{
		kpiTable(r),
		sectionPricingTable(r.Sections),
		priceIndexTable(r.PriceIndex),
		summaryTable("store_summary", "Store Name", r.Stores),
		summaryTable("section_summary", "Section", r.SectionSummaries),
		strategyTable(r.Strategy),
		storeSectionUpliftTable(r.StoreSectionUplift),
		sectionUpliftTable(r.SectionUplift),
		promoWeeksTable(r.PromoWeeks),
		promoWeekdayTable(r.PromoByWeekday),
		promoIntensityTable(r.PromoIntensity),
		sectionPromoTable(r.SectionPromos),
		storeHealthTable(r.Health.Stores),
		healthIssuesTable(r.Health.Issues),
		missingRRPTable(r.Health.MissingRRP),
		outlierTable("price_outliers", r.PriceOutliers),
		outlierTable("rrp_outliers", r.Health.RRPOutliers),
		marketTable(r.Market),
		coverageTable(r.Coverage),
	}
}

func kpiTable(r *domain.Report) report.Table {
	k := r.KPIs
	priceIndex := "N/A"
	if k.PriceIndex != nil {
		priceIndex = strconv.FormatFloat(*k.PriceIndex, 'f', 3, 64)
	}
	return report.Table{
		Name:    "kpis",
		Headers: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Total Revenue (KSh)", i64(k.TotalRevenueKSh)},
			{"Units Sold", i64(k.UnitsSold)},
			{"Avg Discount vs RRP (%)", formatFloat(k.AvgDiscountPct, 1)},
			{"Price Index (vs Comp)", priceIndex},
			{"Promo Coverage (%)", i64(k.PromoCoveragePct)},
			{"Promo Uplift (%)", i64(k.PromoUpliftPct)},
			{"Weekly Margin Gain (KSh)", i64(k.WeeklyGainKSh)},
			{"Data Health Score", k.DataHealth},
			{"Health Rating", r.Health.Rating},
		},
	}
}

func sectionPricingTable(rows []domain.SectionPricing) report.Table {
	t := report.Table{
		Name: "section_pricing",
		Headers: []string{"Section", "Units_Sold", "RRP", "Current_Price", "Comp_Price", "Price_Index",
			"Current_Discount_%", "Target_Price_(9%_off)", "Status", "Action", "Weekly_Gain_KSh"},
	}
	for _, s := range rows {
		t.Rows = append(t.Rows, []string{
			s.Section, i64(s.UnitsSold), formatFloat(s.RRP, 1), formatFloat(s.CurrentPrice, 1),
			formatFloatPtr(s.CompPrice, 1), formatFloatPtr(s.PriceIndex, 3),
			formatFloat(s.CurrentDiscountPct, 1), formatFloat(s.TargetPrice, 1),
			s.Status, s.Action, i64(s.WeeklyGainKSh),
		})
	}
	return t
}

func priceIndexTable(rows []domain.PriceIndexRow) report.Table {
	t := report.Table{
		Name: "price_index",
		Headers: []string{"Store Name", "Sub-Department", "Section", "Target_Avg_Price", "Comp_Avg_Price",
			"Price_Index", "Avg_RRP", "Avg_Discount_Pct"},
	}
	for _, p := range rows {
		t.Rows = append(t.Rows, []string{
			p.StoreName, p.SubDepartment, p.Section, formatFloat(p.TargetAvgPrice, 2), formatFloat(p.CompAvgPrice, 2),
			formatFloat(p.PriceIndex, 3), formatFloatPtr(p.AvgRRP, 2), formatFloatPtr(p.AvgDiscountPct, 1),
		})
	}
	return t
}

func summaryTable(name, keyHeader string, rows []domain.GroupSummary) report.Table {
	t := report.Table{
		Name: name,
		Headers: []string{keyHeader, "Revenue_KSh", "Units_Sold", "Avg_Discount_Pct", "Avg_Price_Index",
			"Promo_Uplift_Pct", "Health_Score", "Positioning", "Price_Band"},
	}
	for _, s := range rows {
		t.Rows = append(t.Rows, []string{
			s.Key, formatFloat(s.RevenueKSh, 2), formatFloat(s.Units, -1), formatFloatPtr(s.AvgDiscountPct, 1),
			formatFloatPtr(s.AvgPriceIndex, 3), formatFloat(s.PromoUpliftPct, 1), formatFloatPtr(s.HealthScore, 1),
			s.Positioning, s.PriceBand,
		})
	}
	return t
}

func strategyTable(rows []domain.StoreStrategy) report.Table {
	t := report.Table{
		Name:    "store_strategy",
		Headers: []string{"Store Name", "Avg_Price_Index", "Avg_Discount", "Positioning", "Verdict", "Action", "Urgency"},
	}
	for _, s := range rows {
		t.Rows = append(t.Rows, []string{
			s.StoreName, formatFloat(s.AvgPriceIndex, 3), formatFloat(s.AvgDiscountPct, 1) + "%",
			s.Positioning, s.Verdict, s.Action, itoa(s.Urgency),
		})
	}
	return t
}

func storeSectionUpliftTable(rows []domain.StoreSectionUplift) report.Table {
	t := report.Table{
		Name:    "store_section_uplift",
		Headers: []string{"Store Name", "Section", "Promo_Units", "Baseline_Units", "Promo_Uplift_Pct", "Type"},
	}
	for _, u := range rows {
		baseline := ""
		if u.UpliftType == domain.UpliftReliable {
			baseline = formatFloat(u.BaselineAvgQty, 2)
		}
		t.Rows = append(t.Rows, []string{
			u.StoreName, u.Section, formatFloat(u.PromoAvgQty, 2), baseline, formatFloat(u.UpliftPct, 1), u.UpliftType,
		})
	}
	return t
}

func sectionUpliftTable(rows []domain.SectionUplift) report.Table {
	t := report.Table{
		Name:    "section_uplift",
		Headers: []string{"Section", "Promo_Units", "Baseline_Units", "Promo_Uplift_Pct", "Uplift_Category"},
	}
	for _, u := range rows {
		t.Rows = append(t.Rows, []string{
			u.Section, formatFloat(u.PromoUnits, -1), formatFloat(u.BaselineUnits, -1),
			formatFloatPtr(u.UpliftPct, 1), u.Category,
		})
	}
	return t
}

func promoWeeksTable(rows []domain.PromoWeek) report.Table {
	t := report.Table{
		Name:    "promo_weeks",
		Headers: []string{"Item_Code", "Description", "Store Name", "Year_Week", "Promo_Days", "On_Promo"},
	}
	for _, w := range rows {
		t.Rows = append(t.Rows, []string{
			w.ItemCode, w.Description, w.StoreName, w.YearWeek, itoa(w.PromoDays), strconv.FormatBool(w.OnPromo),
		})
	}
	return t
}

func promoWeekdayTable(rows []domain.PromoWeekdayCount) report.Table {
	t := report.Table{Name: "promo_by_weekday", Headers: []string{"Store Name", "Day_of_Week", "Promo_Days_Count"}}
	for _, c := range rows {
		t.Rows = append(t.Rows, []string{c.StoreName, c.DayOfWeek, itoa(c.PromoDays)})
	}
	return t
}

func promoIntensityTable(rows []domain.PromoIntensity) report.Table {
	t := report.Table{
		Name:    "promo_intensity",
		Headers: []string{"Store Name", "Promo_Days_Count", "Trading_Days", "Intensity_Pct"},
	}
	for _, p := range rows {
		t.Rows = append(t.Rows, []string{p.StoreName, itoa(p.PromoDays), itoa(p.TradingDays), formatFloat(p.IntensityPct, 1)})
	}
	return t
}

func sectionPromoTable(rows []domain.SectionPromoSummary) report.Table {
	bucketLabels := make([]string, 0, len(discountBuckets))
	for _, b := range discountBuckets {
		bucketLabels = append(bucketLabels, b.label)
	}
	t := report.Table{
		Name: "section_promos",
		Headers: append([]string{"Section", "Total_Qty", "Total_Sales", "Avg_RRP", "Avg_Unit_Price",
			"Avg_Discount_Pct", "Median_Discount_Pct", "Transactions"}, bucketLabels...),
	}
	for _, s := range rows {
		row := []string{
			s.Section, formatFloat(s.TotalQty, -1), formatFloat(s.TotalSales, 2), formatFloatPtr(s.AvgRRP, 2),
			formatFloat(s.AvgUnitPrice, 2), formatFloat(s.AvgDiscountPct, 2), formatFloat(s.MedianDiscountPct, 2),
			itoa(s.Transactions),
		}
		for _, label := range bucketLabels {
			row = append(row, itoa(s.DiscountBuckets[label]))
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func storeHealthTable(rows []domain.GroupHealth) report.Table {
	t := report.Table{
		Name: "store_health",
		Headers: []string{"Store Name", "Total_Rows", "Negative_Rows", "Missing_RRP", "Outlier_Count",
			"Outlier_Rate", "Unreliable", "Pct_Negative", "Pct_Missing_RRP", "Pct_Outliers",
			"Pct_Missing_All_Cols", "Health_Score"},
	}
	sorted := append([]domain.GroupHealth(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].HealthScore < sorted[j].HealthScore })
	for _, g := range sorted {
		t.Rows = append(t.Rows, []string{
			g.Group, itoa(g.TotalRows), itoa(g.NegativeRows), itoa(g.MissingRRP), itoa(g.OutlierCount),
			formatFloat(g.OutlierRatePct, 2), strconv.FormatBool(g.Unreliable),
			formatFloat(g.PctNegative, 2), formatFloat(g.PctMissingRRP, 2), formatFloat(g.PctOutliers, 2),
			formatFloat(g.PctMissingAllCols, 2), formatFloat(g.HealthScore, 1),
		})
	}
	return t
}

func healthIssuesTable(rows []domain.HealthIssue) report.Table {
	t := report.Table{Name: "health_issues", Headers: []string{"Issue", "Store", "Count", "Details"}}
	for _, i := range rows {
		t.Rows = append(t.Rows, []string{i.Issue, i.Subject, itoa(i.Count), i.Detail})
	}
	return t
}

func missingRRPTable(rows []domain.MissingRRPSplit) report.Table {
	t := report.Table{Name: "missing_rrp", Headers: []string{"Store Name", "Target", "Other"}}
	for _, m := range rows {
		t.Rows = append(t.Rows, []string{m.StoreName, itoa(m.Target), itoa(m.Other)})
	}
	return t
}

func outlierTable(name string, rows []domain.OutlierRow) report.Table {
	t := report.Table{
		Name:    name,
		Headers: []string{"Group", "Label", "Value", "Q1", "Q3", "Lower_Bound", "Upper_Bound", "Status"},
	}
	for _, o := range rows {
		t.Rows = append(t.Rows, []string{
			o.GroupKey, o.Label, formatFloat(o.Value, 2), formatFloat(o.Q1, 2), formatFloat(o.Q3, 2),
			formatFloat(o.Lower, 2), formatFloat(o.Upper, 2), o.Status,
		})
	}
	return t
}

func marketTable(m domain.MarketShare) report.Table {
	t := report.Table{Name: "market_share", Headers: []string{"Supplier", "Rows", "Share_Pct"}}
	for _, s := range m.TopSuppliers {
		t.Rows = append(t.Rows, []string{s.Supplier, itoa(s.Rows), formatFloat(s.SharePct, 2)})
	}
	return t
}

func coverageTable(rows []domain.CategoryCoverage) report.Table {
	t := report.Table{Name: "category_coverage", Headers: []string{"Category", "Stores"}}
	for _, c := range rows {
		t.Rows = append(t.Rows, []string{c.Category, itoa(c.Stores)})
	}
	return t
}
