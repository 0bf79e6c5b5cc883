package domain

// PriceIndexRow compares the target supplier with its competitors inside one
// (store, sub-department, section) cell.
type PriceIndexRow struct {
	StoreName      string   `json:"store_name"`
	SubDepartment  string   `json:"sub_department"`
	Section        string   `json:"section"`
	TargetAvgPrice float64  `json:"target_avg_price"`
	CompAvgPrice   float64  `json:"comp_avg_price"`
	PriceIndex     float64  `json:"price_index"`
	AvgRRP         *float64 `json:"avg_rrp"`
	AvgDiscountPct *float64 `json:"avg_discount_pct"`
}

// SectionPricing is one line of the section pricing action table.
type SectionPricing struct {
	Section            string   `json:"section"`
	UnitsSold          int64    `json:"units_sold"`
	RRP                float64  `json:"rrp"`
	CurrentPrice       float64  `json:"current_price"`
	CompPrice          *float64 `json:"comp_price"`
	PriceIndex         *float64 `json:"price_index"`
	CurrentDiscountPct float64  `json:"current_discount_pct"`
	TargetPrice        float64  `json:"target_price"`
	WeeklyGainKSh      int64    `json:"weekly_gain_ksh"`
	Status             string   `json:"status"`
	Action             string   `json:"action"`
}

// GroupSummary aggregates the target supplier's trading for one store or section.
type GroupSummary struct {
	Key            string   `json:"key"`
	RevenueKSh     float64  `json:"total_revenue_ksh"`
	Units          float64  `json:"units_sold"`
	AvgDiscountPct *float64 `json:"avg_discount_pct"`
	AvgPriceIndex  *float64 `json:"avg_price_index"`
	PromoUpliftPct float64  `json:"promo_uplift_pct"`
	HealthScore    *float64 `json:"health_score"`
	Positioning    string   `json:"positioning,omitempty"`
	PriceBand      string   `json:"price_band,omitempty"`
}

// StoreStrategy is a store-level recommendation derived from its average
// price index and discount depth.
type StoreStrategy struct {
	StoreName      string  `json:"store_name"`
	AvgPriceIndex  float64 `json:"avg_price_index"`
	AvgDiscountPct float64 `json:"avg_discount_pct"`
	Positioning    string  `json:"positioning"`
	Verdict        string  `json:"verdict"`
	Action         string  `json:"action"`
	Urgency        int     `json:"urgency"`
}

// StoreSectionUplift compares promo and baseline mean quantity in one store section.
type StoreSectionUplift struct {
	StoreName      string  `json:"store_name"`
	Section        string  `json:"section"`
	PromoAvgQty    float64 `json:"promo_avg_qty"`
	BaselineAvgQty float64 `json:"baseline_avg_qty"`
	UpliftPct      float64 `json:"uplift_pct"`
	UpliftType     string  `json:"uplift_type"`
}

// SectionUplift compares promo and baseline unit totals for a section.
type SectionUplift struct {
	Section       string   `json:"section"`
	PromoUnits    float64  `json:"promo_units"`
	BaselineUnits float64  `json:"baseline_units"`
	UpliftPct     *float64 `json:"uplift_pct"`
	Category      string   `json:"category"`
}

// PromoWeek is the promotion verdict of one item (optionally per store) in one week.
type PromoWeek struct {
	ItemCode    string `json:"item_code"`
	Description string `json:"description"`
	StoreName   string `json:"store_name,omitempty"`
	YearWeek    string `json:"year_week"`
	PromoDays   int    `json:"promo_days"`
	OnPromo     bool   `json:"on_promo"`
}

// PromoWeekdayCount counts distinct promo days of the target supplier per store and weekday.
type PromoWeekdayCount struct {
	StoreName string `json:"store_name"`
	DayOfWeek string `json:"day_of_week"`
	PromoDays int    `json:"promo_days"`
}

// PromoIntensity is the share of a store's trading days with a target promotion.
type PromoIntensity struct {
	StoreName    string  `json:"store_name"`
	PromoDays    int     `json:"promo_days"`
	TradingDays  int     `json:"trading_days"`
	IntensityPct float64 `json:"intensity_pct"`
}

// SectionPromoSummary describes the depth of target discounts in a section.
type SectionPromoSummary struct {
	Section           string         `json:"section"`
	TotalQty          float64        `json:"total_qty"`
	TotalSales        float64        `json:"total_sales"`
	AvgRRP            *float64       `json:"avg_rrp"`
	AvgUnitPrice      float64        `json:"avg_unit_price"`
	AvgDiscountPct    float64        `json:"avg_discount_pct"`
	MedianDiscountPct float64        `json:"median_discount_pct"`
	Transactions      int            `json:"transactions"`
	DiscountBuckets   map[string]int `json:"discount_buckets"`
}

// OutlierRow is one observation checked against its group's IQR fences.
type OutlierRow struct {
	GroupKey string  `json:"group_key"`
	Label    string  `json:"label"`
	Value    float64 `json:"value"`
	Q1       float64 `json:"q1"`
	Q3       float64 `json:"q3"`
	Lower    float64 `json:"lower_bound"`
	Upper    float64 `json:"upper_bound"`
	Status   string  `json:"status"`
}

// ItemOutliers drills into one item with extreme unit prices: which suppliers
// price it out of line on average, and which stores sold it at an extreme price.
type ItemOutliers struct {
	ItemCode  string       `json:"item_code"`
	Suppliers []OutlierRow `json:"supplier_extremes"`
	Stores    []OutlierRow `json:"store_outliers"`
}

// SupplierShare is a supplier's share of sale rows.
type SupplierShare struct {
	Supplier string  `json:"supplier"`
	Rows     int     `json:"rows"`
	SharePct float64 `json:"share_pct"`
}

// MarketShare summarises supplier concentration in the dataset.
type MarketShare struct {
	TargetSharePct float64         `json:"target_share_pct"`
	SupplierCount  int             `json:"supplier_count"`
	TopSuppliers   []SupplierShare `json:"top_suppliers"`
}

// CategoryCoverage counts the stores stocking the target supplier in a category.
type CategoryCoverage struct {
	Category string `json:"category"`
	Stores   int    `json:"stores"`
}
