package domain

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHealthRatingBands(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{100, "Excellent – ready for analysis"},
		{90, "Excellent – ready for analysis"},
		{89.9, "Good – minor cleaning recommended"},
		{75, "Good – minor cleaning recommended"},
		{60, "Moderate – review key issues"},
		{59.9, "Poor – significant cleaning required"},
		{0, "Poor – significant cleaning required"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HealthRating(tt.score), "score %v", tt.score)
	}
}

func TestUpliftCategory(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	assert.Equal(t, "Very High Uplift", UpliftCategory(f(501)))
	assert.Equal(t, "High Uplift", UpliftCategory(f(500)))
	assert.Equal(t, "Moderate Uplift", UpliftCategory(f(0.5)))
	assert.Equal(t, "Low/Negative Uplift", UpliftCategory(f(0)))
	assert.Equal(t, "Low/Negative Uplift", UpliftCategory(f(-20)))
	assert.Equal(t, "Low/Negative Uplift", UpliftCategory(nil))
}

func TestPriceBand(t *testing.T) {
	assert.Equal(t, "blue", PriceBand(0.85))
	assert.Equal(t, "lightblue", PriceBand(0.95))
	assert.Equal(t, "orange", PriceBand(1.0))
	assert.Equal(t, "red", PriceBand(1.10))
}

func TestSaleRecordMissingCells(t *testing.T) {
	full := SaleRecord{
		StoreName: "Westlands", ItemCode: "1001", Description: "Golden Fry 1L",
		Category: "Foods", Section: "Cooking Oil", SubDepartment: "Edible Oils",
		Supplier:   "BIDCO AFRICA LIMITED",
		Quantity:   sql.NullFloat64{Float64: 2, Valid: true},
		TotalSales: sql.NullFloat64{Float64: 500, Valid: true},
		RRP:        sql.NullFloat64{Float64: 260, Valid: true},
		DateOfSale: sql.NullTime{Time: time.Date(2025, 9, 22, 0, 0, 0, 0, time.UTC), Valid: true},
	}
	assert.Equal(t, 0, full.MissingCells())

	partial := full
	partial.RRP = sql.NullFloat64{}
	partial.Category = "  "
	assert.Equal(t, 2, partial.MissingCells())
	assert.Equal(t, 2.0, partial.Qty())
	assert.Equal(t, 0.0, SaleRecord{}.Sales())
}
