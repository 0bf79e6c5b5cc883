package pricing

import (
	"strings"

	"github.com/andresuchdata/bidco-kpi/backend-go/internal/config"
)

// SectionRules are the thresholds of the section action table. Discounts are percentages.
type SectionRules struct {
	CheapIndex      float64 // below: priced under competitors
	ExpensiveIndex  float64 // above: priced over competitors
	PremiumIndex    float64 // above with a shallow discount: premium that still sells
	DeepDiscountPct float64
	OverDiscountPct float64
	LowDiscountPct  float64
}

// StrategyRules are the thresholds of the store strategy table.
type StrategyRules struct {
	ParityIndex     float64
	DeepDiscountPct float64
}

// PositioningBands classify a store's average price index.
type PositioningBands struct {
	DiscountBelow float64
	PremiumAbove  float64
}

// HealthWeights weight each data-quality percentage in the Data Health Score.
type HealthWeights struct {
	Negative          float64
	MissingRRP        float64
	Outliers          float64
	MissingCells      float64
	UnreliablePenalty float64
	UnreliableRatePct float64 // store outlier rate above which the penalty applies
}

// Config holds configuration for the pricing pipeline
type Config struct {
	TargetSupplier          string  // matched case-insensitively as a substring of Supplier
	DiscountThreshold       float64 // fraction of RRP that makes a day a promo day
	PromoMinDays            int     // promo days per week to flag the week
	PromoPoolStores         bool    // group promo weeks across stores instead of per store
	TargetDiscountRate      float64 // discount off RRP used for the weekly gain projection
	OutlierMultiplier       float64 // IQR fence multiplier
	UnhealthyScoreThreshold float64
	TopSuppliers            int

	Section     SectionRules
	Strategy    StrategyRules
	Positioning PositioningBands
	Health      HealthWeights
}

// DefaultConfig returns the thresholds the KPI definitions are written against.
func DefaultConfig() Config {
	return Config{
		TargetSupplier:          "BIDCO",
		DiscountThreshold:       0.10,
		PromoMinDays:            2,
		TargetDiscountRate:      0.09,
		OutlierMultiplier:       1.5,
		UnhealthyScoreThreshold: 75,
		TopSuppliers:            20,
		Section: SectionRules{
			CheapIndex:      0.98,
			ExpensiveIndex:  1.05,
			PremiumIndex:    1.02,
			DeepDiscountPct: 10,
			OverDiscountPct: 12,
			LowDiscountPct:  5,
		},
		Strategy: StrategyRules{
			ParityIndex:     1.0,
			DeepDiscountPct: 8,
		},
		Positioning: PositioningBands{
			DiscountBelow: 0.98,
			PremiumAbove:  1.02,
		},
		Health: HealthWeights{
			Negative:          0.20,
			MissingRRP:        0.15,
			Outliers:          0.30,
			MissingCells:      0.25,
			UnreliablePenalty: 10,
			UnreliableRatePct: 10,
		},
	}
}

// ConfigFrom overlays the environment-driven settings on DefaultConfig.
func ConfigFrom(pc config.PricingConfig) Config {
	cfg := DefaultConfig()
	if s := strings.TrimSpace(pc.TargetSupplier); s != "" {
		cfg.TargetSupplier = s
	}
	if pc.DiscountThreshold > 0 {
		cfg.DiscountThreshold = pc.DiscountThreshold
	}
	if pc.PromoMinDays > 0 {
		cfg.PromoMinDays = pc.PromoMinDays
	}
	cfg.PromoPoolStores = pc.PromoPoolStores
	if pc.TargetDiscountRate > 0 {
		cfg.TargetDiscountRate = pc.TargetDiscountRate
	}
	if pc.OutlierMultiplier > 0 {
		cfg.OutlierMultiplier = pc.OutlierMultiplier
	}
	if pc.UnhealthyScoreThreshold > 0 {
		cfg.UnhealthyScoreThreshold = pc.UnhealthyScoreThreshold
	}
	return cfg
}

// IsTarget reports whether a supplier name belongs to the target supplier.
func (c Config) IsTarget(supplier string) bool {
	target := strings.TrimSpace(c.TargetSupplier)
	if target == "" {
		return false
	}
	return strings.Contains(strings.ToUpper(supplier), strings.ToUpper(target))
}

// TargetDiscountPct is the target discount rate as a percentage.
func (c Config) TargetDiscountPct() float64 {
	return c.TargetDiscountRate * 100
}
