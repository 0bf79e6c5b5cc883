package pricing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundFloat(t *testing.T) {
	assert.Equal(t, 2.0, roundFloat(2.5, 0))
	assert.Equal(t, 4.0, roundFloat(3.5, 0))
	assert.Equal(t, 0.855, roundFloat(0.8549999, 3))
	assert.Equal(t, 91.4, roundFloat(91.3625, 1))
	assert.True(t, math.IsNaN(roundFloat(math.NaN(), 2)))
}

func TestRoundPtr(t *testing.T) {
	assert.Nil(t, roundPtr(math.NaN(), 1))
	assert.Nil(t, roundPtr(math.Inf(1), 1))
	assert.Equal(t, 12.3, *roundPtr(12.34, 1))
}

func TestSafeDiv(t *testing.T) {
	assert.True(t, math.IsNaN(safeDiv(1, 0)))
	assert.True(t, math.IsNaN(safeDiv(math.NaN(), 2)))
	assert.Equal(t, 0.5, safeDiv(1, 2))
}

func TestMeanAndMedianSkipUndefined(t *testing.T) {
	values := []float64{1, math.NaN(), 3, 8}
	assert.Equal(t, 4.0, mean(values))
	assert.Equal(t, 3.0, median(values))
	assert.True(t, math.IsNaN(mean(nil)))
	assert.True(t, math.IsNaN(median([]float64{math.NaN()})))
	assert.Equal(t, 2.5, median([]float64{4, 1, 2, 3}))
}

func TestFormatThousands(t *testing.T) {
	assert.Equal(t, "27,618", formatKSh(27618.4))
	assert.Equal(t, "0", formatKSh(0))
	assert.Equal(t, "999", formatKSh(999))
	assert.Equal(t, "1,000,000", formatKSh(1e6))
	assert.Equal(t, "-1,234.50", formatThousands(-1234.5, 2))
	assert.Equal(t, "", formatThousands(math.NaN(), 0))
	assert.Equal(t, "2", formatKSh(2.5))
	assert.Equal(t, "1,004", formatKSh(1003.5))
	assert.Equal(t, "-0.40", formatThousands(-0.4, 2))
	assert.Equal(t, "1,234,567.89", formatThousands(1234567.891, 2))
}

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "0.855", formatFloat(0.855, 3))
	assert.Equal(t, "", formatFloat(math.NaN(), 3))
	assert.Equal(t, "", formatFloatPtr(nil, 1))
	assert.Equal(t, "8.7", formatFloatPtr(ptr(8.7), 1))
}
