package domain

import "time"

// KPISnapshot is the fixed-key payload served to dashboard clients.
type KPISnapshot struct {
	TotalRevenueKSh  int64    `json:"total_revenue_ksh"`
	UnitsSold        int64    `json:"units_sold"`
	AvgDiscountPct   float64  `json:"avg_discount_pct"`
	PriceIndex       *float64 `json:"price_index"`
	PromoCoveragePct int64    `json:"promo_coverage_pct"`
	PromoUpliftPct   int64    `json:"promo_uplift_pct"`
	WeeklyGainKSh    int64    `json:"weekly_gain_ksh"`
	DataHealth       string   `json:"data_health"`
}

// Report is the immutable result of one pipeline invocation over a dataset.
type Report struct {
	Dataset        string    `json:"dataset"`
	Fingerprint    string    `json:"fingerprint"`
	GeneratedAt    time.Time `json:"generated_at"`
	Rows           int       `json:"rows"`
	TargetRows     int       `json:"target_rows"`
	HasCompetitors bool      `json:"has_competitors"`

	KPIs KPISnapshot `json:"kpis"`

	Sections         []SectionPricing `json:"sections"`
	PriceIndex       []PriceIndexRow  `json:"price_index"`
	OverallIndex     *float64         `json:"overall_index"`
	Stores           []GroupSummary   `json:"stores"`
	SectionSummaries []GroupSummary   `json:"section_summaries"`
	Strategy         []StoreStrategy  `json:"strategy"`
	StrategyNote     string           `json:"strategy_note,omitempty"`

	StoreSectionUplift []StoreSectionUplift  `json:"store_section_uplift"`
	SectionUplift      []SectionUplift       `json:"section_uplift"`
	PromoWeeks         []PromoWeek           `json:"promo_weeks"`
	PromoByWeekday     []PromoWeekdayCount   `json:"promo_by_weekday"`
	PromoIntensity     []PromoIntensity      `json:"promo_intensity"`
	SectionPromos      []SectionPromoSummary `json:"section_promos"`

	Health        HealthReport       `json:"health"`
	PriceOutliers []OutlierRow       `json:"price_outliers"`
	ItemOutliers  []ItemOutliers     `json:"item_outliers"`
	Market        MarketShare        `json:"market"`
	Coverage      []CategoryCoverage `json:"coverage"`
}
