package domain

// Section pricing statuses.
const (
	StatusTooCheapDeep     = "Too cheap + deep"
	StatusTooCheap         = "Too cheap"
	StatusTooExpensiveDeep = "Too expensive + deep"
	StatusTooDiscounted    = "Too discounted"
	StatusPremiumGold      = "Premium gold"
	StatusPremium          = "Premium"
	StatusBalanced         = "Balanced"
)

// Outlier directions.
const (
	OutlierLow    = "Low Price Outlier"
	OutlierHigh   = "High Price Outlier"
	OutlierNormal = "Normal"
)

// Uplift typing for store sections.
const (
	UpliftReliable = "Reliable Uplift"
	UpliftEmerging = "Emerging Promo"
)

// Store positioning against competitors.
const (
	PositionDiscount   = "Discount"
	PositionNearMarket = "Near-Market"
	PositionPremium    = "Premium"
)

type scoreBand struct {
	min   float64
	label string
}

var healthRatings = []scoreBand{
	{90, "Excellent – ready for analysis"},
	{75, "Good – minor cleaning recommended"},
	{60, "Moderate – review key issues"},
}

const poorHealthRating = "Poor – significant cleaning required"

// HealthRating returns the qualitative label for a Data Health Score.
func HealthRating(score float64) string {
	for _, band := range healthRatings {
		if score >= band.min {
			return band.label
		}
	}
	return poorHealthRating
}

var upliftCategories = []struct {
	above float64
	label string
}{
	{500, "Very High Uplift"},
	{100, "High Uplift"},
	{0, "Moderate Uplift"},
}

// UpliftCategory buckets a section uplift percentage. A nil uplift is Low/Negative.
func UpliftCategory(pct *float64) string {
	if pct != nil {
		for _, c := range upliftCategories {
			if *pct > c.above {
				return c.label
			}
		}
	}
	return "Low/Negative Uplift"
}

// PriceBand maps a store's average price index to the colour band used on price maps.
func PriceBand(index float64) string {
	switch {
	case index < 0.90:
		return "blue"
	case index < 1.00:
		return "lightblue"
	case index < 1.10:
		return "orange"
	default:
		return "red"
	}
}
